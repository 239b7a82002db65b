package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/communitydesk/communitydesk/pkg/apperrors"
)

// defaultSheet is the sheet excelize creates in a new workbook.
const defaultSheet = "Sheet1"

// WorkbookRemote mirrors the tables to a local .xlsx workbook, one
// worksheet per table with a header row followed by data rows.
type WorkbookRemote struct {
	path string
	mu   sync.Mutex
}

// NewWorkbookRemote creates a remote for the workbook at path. The file is
// created on the first push.
func NewWorkbookRemote(path string) *WorkbookRemote {
	return &WorkbookRemote{path: path}
}

// Describe returns the workbook path.
func (w *WorkbookRemote) Describe() string {
	return "workbook " + w.path
}

// Path returns the workbook path.
func (w *WorkbookRemote) Path() string {
	return w.path
}

// open returns the workbook and whether it was newly created.
func (w *WorkbookRemote) open() (*excelize.File, bool, error) {
	if _, err := os.Stat(w.path); errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open workbook %s: %w", w.path, err)
	}
	return f, false, nil
}

// Push replaces the worksheet's contents and saves the workbook.
func (w *WorkbookRemote) Push(ctx context.Context, req UpdateRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, created, err := w.open()
	if err != nil {
		return apperrors.NewTransportError("failed to open workbook", err).WithOp("push")
	}
	defer f.Close()

	previous, err := w.ensureSheet(f, req.SheetName, created)
	if err != nil {
		return apperrors.NewTransportError("failed to prepare worksheet", err).WithOp("push")
	}

	if err := writeRow(f, req.SheetName, 1, req.Columns); err != nil {
		return apperrors.NewTransportError("failed to write header", err).WithOp("push")
	}
	for i, row := range req.Rows {
		if err := writeRow(f, req.SheetName, i+2, row); err != nil {
			return apperrors.NewTransportError("failed to write row", err).WithOp("push")
		}
	}

	// Drop rows left over from a longer previous version of the sheet.
	written := len(req.Rows) + 1
	for i := written; i < previous; i++ {
		if err := f.RemoveRow(req.SheetName, written+1); err != nil {
			return apperrors.NewTransportError("failed to clear old rows", err).WithOp("push")
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return apperrors.NewTransportError("failed to save workbook", err).WithOp("push")
	}
	return nil
}

// ensureSheet makes sure sheet exists and returns how many rows it held.
func (w *WorkbookRemote) ensureSheet(f *excelize.File, sheet string, created bool) (int, error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return 0, err
	}

	if idx >= 0 {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return 0, err
		}
		return len(rows), nil
	}

	if created && len(f.GetSheetList()) == 1 && f.GetSheetName(0) == defaultSheet {
		return 0, f.SetSheetName(defaultSheet, sheet)
	}

	_, err = f.NewSheet(sheet)
	return 0, err
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// Fetch reads the worksheet: the first row is the header row. A missing
// workbook or worksheet is a data-shape error.
func (w *WorkbookRemote) Fetch(ctx context.Context, sheet string) (*SheetData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := os.Stat(w.path); errors.Is(err, os.ErrNotExist) {
		return nil, apperrors.NewDataShapeError("nothing to import: workbook does not exist", nil).WithOp("fetch")
	}

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, apperrors.NewTransportError("failed to open workbook", err).WithOp("fetch")
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, apperrors.NewDataShapeError(fmt.Sprintf("nothing to import: no worksheet %q", sheet), err).WithOp("fetch")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewTransportError("failed to read worksheet", err).WithOp("fetch")
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, apperrors.NewDataShapeError("nothing to import: no columns", nil).WithOp("fetch")
	}

	data := &SheetData{
		Columns: rows[0],
		Rows:    make([][]any, 0, len(rows)-1),
	}
	for _, row := range rows[1:] {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		data.Rows = append(data.Rows, cells)
	}
	return data, nil
}
