// Package sheets mirrors the local tables to a spreadsheet.
//
// Each table is published to its own worksheet under Arabic column headers
// (see DefaultMappings). Sync is manual and whole-table:
//
//   - Push loads a table, renames its columns, renders every cell as text
//     and sends one replace request per worksheet. Empty tables are skipped
//     without contacting the remote.
//   - Pull fetches a worksheet, drops blank rows and maps the headers back.
//     Rows are only imported into an empty local table unless the pull is
//     forced, which replaces the local table and requires an admin session.
//
// Two remotes exist: HTTPRemote for the spreadsheet web app endpoint and
// WorkbookRemote for a local .xlsx file. Every table gets its own
// TableResult; a failure on one table never stops the rest.
package sheets
