// Package stores is the local persistence layer of communitydesk: a single
// SQLite file holding partners, action-plan items, events and the report
// archive.
//
// The schema is created by embedded, versioned migrations and kept complete
// by EnsureSchema, which adds any declared column an older file lacks.
// Writes that still hit a missing column repair the schema and are retried
// once. Reads through Load never fail the caller: an unreadable table
// yields an empty result.
package stores
