// Package config loads desk configuration and validates user input.
//
// Configuration is read from an optional YAML file (desk.yaml by default)
// with environment variable overrides, using cleanenv:
//
//	cfg, err := config.Load("desk.yaml", version)
//
// The most relevant variables are PERSISTENT_DB_PATH (the SQLite file),
// SCRIPT_URL (the spreadsheet web app; empty disables sync), SYNC_TIMEOUT
// and DESK_ADMIN_PASSWORD_HASH (a bcrypt hash; never stored in YAML).
//
// ValidateStruct runs the validate struct tags of any value, records and
// configuration alike, and reports failures as a user-input error.
package config
