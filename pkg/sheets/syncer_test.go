package sheets

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communitydesk/communitydesk/pkg/apperrors"
	"github.com/communitydesk/communitydesk/pkg/session"
	"github.com/communitydesk/communitydesk/pkg/stores"
)

func setupTestStore(t *testing.T) *stores.SQLiteStore {
	t.Helper()

	store, err := stores.NewSQLiteStore(stores.Config{Path: filepath.Join(t.TempDir(), "desk.db")})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func setupSyncer(t *testing.T) (*Syncer, *stores.SQLiteStore, *recordingServer) {
	t.Helper()

	store := setupTestStore(t)
	rs := newRecordingServer(t)
	remote, err := NewHTTPRemote(rs.URL, time.Second)
	require.NoError(t, err)

	return NewSyncer(store, remote), store, rs
}

func adminContext() context.Context {
	return session.WithSession(context.Background(), session.Session{Authenticated: true, Role: session.RoleAdmin})
}

func mustMapping(t *testing.T, table string) Mapping {
	t.Helper()
	m, ok := MappingFor(table)
	require.True(t, ok)
	return m
}

func resultFor(t *testing.T, report *RunReport, table string) TableResult {
	t.Helper()
	for _, r := range report.Results {
		if r.Table == table {
			return r
		}
	}
	t.Fatalf("no result for table %s", table)
	return TableResult{}
}

func TestPushPartner(t *testing.T) {
	syncer, store, rs := setupSyncer(t)
	ctx := context.Background()

	require.NoError(t, store.CreatePartner(ctx, &stores.Partner{
		Name:              "Ahmed",
		ParticipationType: stores.ParticipationVolunteer,
		InteractionLevel:  stores.InteractionHigh,
	}))

	result := syncer.PushTable(ctx, mustMapping(t, stores.TablePartners))
	require.NoError(t, result.Err)
	assert.True(t, result.OK)
	assert.Equal(t, 1, result.Rows)

	pushes := rs.Pushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, "الشركاء", pushes[0].SheetName)
	assert.Equal(t, []string{"الاسم", "نوع المشاركة", "المجال / الخبرة", "مستوى التفاعل", "رقم الجوال"}, pushes[0].Columns)
	assert.Equal(t, [][]string{{"Ahmed", "volunteer", "", "high", ""}}, pushes[0].Rows)
}

func TestPushSkipsEmptyTable(t *testing.T) {
	syncer, _, rs := setupSyncer(t)

	result := syncer.PushTable(context.Background(), mustMapping(t, stores.TableActionPlan))
	assert.NoError(t, result.Err)
	assert.True(t, result.Skipped)
	assert.Equal(t, ReasonEmptyTable, result.Reason)
	assert.Empty(t, rs.Pushes())
}

func TestPushAllOnlyCallsForNonEmptyTables(t *testing.T) {
	syncer, store, rs := setupSyncer(t)
	ctx := context.Background()

	rating := 5
	require.NoError(t, store.CreateEvent(ctx, &stores.Event{Name: "Open Day", Date: "2025-03-12", AttendeesCount: 120, Rating: &rating}))

	report := syncer.PushAll(ctx)
	require.NoError(t, report.Err())
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, DirectionPush, report.Direction)
	require.Len(t, report.Results, len(DefaultMappings))

	pushes := rs.Pushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, "الفعاليات", pushes[0].SheetName)
	assert.Equal(t, [][]string{{"Open Day", "2025-03-12", "", "120", "5"}}, pushes[0].Rows)

	assert.True(t, resultFor(t, report, stores.TableEvents).OK)
	assert.True(t, resultFor(t, report, stores.TablePartners).Skipped)
}

func TestPushFailureDoesNotStopOtherTables(t *testing.T) {
	syncer, store, rs := setupSyncer(t)
	ctx := context.Background()
	rs.SetStatus(http.StatusBadGateway)

	require.NoError(t, store.CreatePartner(ctx, &stores.Partner{Name: "Ahmed"}))
	require.NoError(t, store.CreateReport(ctx, &stores.Report{ReportContent: "report"}))

	report := syncer.PushAll(ctx)
	failed := report.Failed()
	require.Len(t, failed, 2)
	assert.True(t, apperrors.IsTransport(failed[0].Err))
	assert.Len(t, rs.Pushes(), 2)
	assert.Error(t, report.Err())
}

func TestSyncDisabled(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreatePartner(ctx, &stores.Partner{Name: "Ahmed"}))

	syncer := NewSyncer(store, nil)
	assert.False(t, syncer.Enabled())

	report := syncer.PushAll(ctx)
	require.NoError(t, report.Err())
	for _, r := range report.Results {
		assert.True(t, r.Skipped, r.Table)
		assert.Equal(t, ReasonDisabled, r.Reason)
	}

	report, err := syncer.PullAll(ctx, false)
	require.NoError(t, err)
	for _, r := range report.Results {
		assert.True(t, r.Skipped, r.Table)
	}
}

func TestPullIntoEmptyTable(t *testing.T) {
	syncer, store, rs := setupSyncer(t)
	ctx := context.Background()

	rs.SetSheet("الفعاليات", `{
		"columns": ["اسم الفعالية", "التاريخ", "عدد الحضور", "التقييم", "ملاحظات"],
		"rows": [
			["Open Day", "2025-03-12", 120, 4, "ignored"],
			["", "", "", "", ""],
			["Book Fair", "2025-04-01"]
		]
	}`)

	result := syncer.PullTable(ctx, mustMapping(t, stores.TableEvents), false)
	require.NoError(t, result.Err)
	assert.True(t, result.OK)
	assert.Equal(t, 2, result.Rows)

	events, err := store.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Open Day", events[0].Name)
	assert.Equal(t, "2025-03-12", events[0].Date)
	assert.Equal(t, 120, events[0].AttendeesCount)
	require.NotNil(t, events[0].Rating)
	assert.Equal(t, 4, *events[0].Rating)
	assert.Equal(t, "Book Fair", events[1].Name)
	assert.Nil(t, events[1].Rating)
}

func TestPullLeavesNonEmptyTableUnchanged(t *testing.T) {
	syncer, store, rs := setupSyncer(t)
	ctx := context.Background()

	require.NoError(t, store.CreatePartner(ctx, &stores.Partner{Name: "Local"}))
	rs.SetSheet("الشركاء", `{"columns":["الاسم"],"rows":[["Remote 1"],["Remote 2"]]}`)

	result := syncer.PullTable(ctx, mustMapping(t, stores.TablePartners), false)
	assert.NoError(t, result.Err)
	assert.True(t, result.Skipped)
	assert.Equal(t, ReasonLocalHasRows, result.Reason)

	partners, err := store.ListPartners(ctx)
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, "Local", partners[0].Name)
}

func TestForcedPullRequiresAdmin(t *testing.T) {
	syncer, _, _ := setupSyncer(t)

	_, err := syncer.PullAll(context.Background(), true)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestForcedPullReplacesLocalRows(t *testing.T) {
	syncer, store, rs := setupSyncer(t)
	ctx := adminContext()

	require.NoError(t, store.CreatePartner(ctx, &stores.Partner{Name: "Local 1"}))
	require.NoError(t, store.CreatePartner(ctx, &stores.Partner{Name: "Local 2"}))
	require.NoError(t, store.CreatePartner(ctx, &stores.Partner{Name: "Local 3"}))
	rs.SetSheet("الشركاء", `{"columns":["الاسم","مستوى التفاعل"],"rows":[["Remote 1","high"],["Remote 2","low"]]}`)

	report, err := syncer.PullAll(ctx, true)
	require.NoError(t, err)
	assert.True(t, report.Forced)

	result := resultFor(t, report, stores.TablePartners)
	require.NoError(t, result.Err)
	assert.True(t, result.OK)

	partners, err := store.ListPartners(ctx)
	require.NoError(t, err)
	require.Len(t, partners, 2)
	assert.Equal(t, "Remote 1", partners[0].Name)
	assert.Equal(t, stores.InteractionHigh, partners[0].InteractionLevel)
	assert.Equal(t, "Remote 2", partners[1].Name)

	// Sheets the remote does not have are reported, not fatal.
	assert.True(t, resultFor(t, report, stores.TableReports).Skipped)
}

func TestPullNothingToImport(t *testing.T) {
	syncer, store, rs := setupSyncer(t)
	ctx := adminContext()

	require.NoError(t, store.CreatePartner(ctx, &stores.Partner{Name: "Local"}))
	rs.SetSheet("الشركاء", `{"columns":["الاسم"],"rows":[["", ""]]}`)

	result := syncer.PullTable(ctx, mustMapping(t, stores.TablePartners), true)
	assert.NoError(t, result.Err)
	assert.True(t, result.Skipped)
	assert.Equal(t, ReasonNothingToPull, result.Reason)

	count, err := store.CountRows(ctx, stores.TablePartners)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestForcedPullFromHeaderOnlySheetKeepsLocalRows(t *testing.T) {
	syncer, store, rs := setupSyncer(t)
	ctx := adminContext()

	require.NoError(t, store.CreatePartner(ctx, &stores.Partner{Name: "Local"}))
	rs.SetSheet("الشركاء", `{"columns":["الاسم","نوع المشاركة","المجال / الخبرة","مستوى التفاعل","رقم الجوال"],"rows":[]}`)

	result := syncer.PullTable(ctx, mustMapping(t, stores.TablePartners), true)
	assert.NoError(t, result.Err)
	assert.False(t, result.OK)
	assert.True(t, result.Skipped)
	assert.Equal(t, ReasonNothingToPull, result.Reason)

	partners, err := store.ListPartners(ctx)
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, "Local", partners[0].Name)
}

func TestPushThenPullThroughWorkbook(t *testing.T) {
	source := setupTestStore(t)
	target := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, source.CreateActionPlanItem(ctx, &stores.ActionPlanItem{
		Objective: "رفع المشاركة",
		Priority:  stores.PriorityHigh,
		TaskType:  stores.TaskTypeMaterial,
	}))

	remote := NewWorkbookRemote(filepath.Join(t.TempDir(), "mirror.xlsx"))
	push := NewSyncer(source, remote).PushAll(ctx)
	require.NoError(t, push.Err())

	pull, err := NewSyncer(target, remote).PullAll(ctx, false)
	require.NoError(t, err)
	require.NoError(t, pull.Err())

	items, err := target.ListActionPlanItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "رفع المشاركة", items[0].Objective)
	assert.Equal(t, stores.PriorityHigh, items[0].Priority)
	assert.Equal(t, stores.TaskStatusInProgress, items[0].Status)
	assert.Equal(t, stores.TaskTypeMaterial, items[0].TaskType)
}

func TestRowsFromSheetWithoutKnownColumns(t *testing.T) {
	_, err := rowsFromSheet(mustMapping(t, stores.TablePartners), &SheetData{
		Columns: []string{"foo"},
		Rows:    [][]any{{"bar"}},
	})
	assert.True(t, apperrors.IsDataShape(err))
}
