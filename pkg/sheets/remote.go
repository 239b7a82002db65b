package sheets

import "context"

// ActionUpdate asks the remote to replace a worksheet's contents.
const ActionUpdate = "update"

// ActionRead asks the remote for a worksheet's contents.
const ActionRead = "read"

// UpdateRequest replaces one worksheet with a header row and data rows.
type UpdateRequest struct {
	Action    string     `json:"action"`
	SheetName string     `json:"sheetName"`
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
}

// SheetData is the content of one worksheet as returned by a remote.
// Cells keep whatever JSON type the remote used.
type SheetData struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Remote is a spreadsheet the local tables are mirrored to.
type Remote interface {
	// Push replaces the worksheet named in req.
	Push(ctx context.Context, req UpdateRequest) error

	// Fetch returns the contents of a worksheet.
	Fetch(ctx context.Context, sheet string) (*SheetData, error)

	// Describe names the remote for logs.
	Describe() string
}
