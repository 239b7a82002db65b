package sheets

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/communitydesk/communitydesk/pkg/apperrors"
)

func TestWorkbookRemoteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.xlsx")
	remote := NewWorkbookRemote(path)
	ctx := context.Background()

	require.NoError(t, remote.Push(ctx, UpdateRequest{
		SheetName: "الشركاء",
		Columns:   []string{"الاسم", "رقم الجوال"},
		Rows:      [][]string{{"Ahmed", "0551234567"}, {"Sara", ""}},
	}))
	require.NoError(t, remote.Push(ctx, UpdateRequest{
		SheetName: "التقارير",
		Columns:   []string{"تاريخ التقرير", "محتوى التقرير"},
		Rows:      [][]string{{"2025-01-01 09:00:00", "report"}},
	}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"الشركاء", "التقارير"}, f.GetSheetList())
	require.NoError(t, f.Close())

	data, err := remote.Fetch(ctx, "الشركاء")
	require.NoError(t, err)
	assert.Equal(t, []string{"الاسم", "رقم الجوال"}, data.Columns)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []any{"Ahmed", "0551234567"}, data.Rows[0])
	assert.Equal(t, "Sara", data.Rows[1][0])
}

func TestWorkbookRemotePushReplacesSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.xlsx")
	remote := NewWorkbookRemote(path)
	ctx := context.Background()

	require.NoError(t, remote.Push(ctx, UpdateRequest{
		SheetName: "الفعاليات",
		Columns:   []string{"اسم الفعالية"},
		Rows:      [][]string{{"one"}, {"two"}, {"three"}},
	}))
	require.NoError(t, remote.Push(ctx, UpdateRequest{
		SheetName: "الفعاليات",
		Columns:   []string{"اسم الفعالية"},
		Rows:      [][]string{{"only"}},
	}))

	data, err := remote.Fetch(ctx, "الفعاليات")
	require.NoError(t, err)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "only", data.Rows[0][0])
}

func TestWorkbookRemoteFetchMissing(t *testing.T) {
	remote := NewWorkbookRemote(filepath.Join(t.TempDir(), "absent.xlsx"))
	ctx := context.Background()

	_, err := remote.Fetch(ctx, "الشركاء")
	assert.True(t, apperrors.IsDataShape(err))

	require.NoError(t, remote.Push(ctx, UpdateRequest{SheetName: "الشركاء", Columns: []string{"الاسم"}}))
	_, err = remote.Fetch(ctx, "خطة العمل")
	assert.True(t, apperrors.IsDataShape(err))
}
