package stores

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communitydesk/communitydesk/pkg/apperrors"
)

// setupTestStore creates a migrated SQLite store in a temp directory.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store := openTestStore(t, filepath.Join(t.TempDir(), "desk.db"))
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

// openTestStore opens path without touching the schema.
func openTestStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// schemaSnapshot lists every table with its columns in order.
func schemaSnapshot(t *testing.T, s *SQLiteStore) map[string][]string {
	t.Helper()

	ctx := context.Background()
	rows, err := s.queryRows(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	require.NoError(t, err)

	snapshot := map[string][]string{}
	for _, r := range rows {
		table := r.String("name")
		cols, err := s.queryRows(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, table)
		require.NoError(t, err)
		for _, c := range cols {
			snapshot[table] = append(snapshot[table], c.String("name"))
		}
	}
	return snapshot
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	_, err := NewSQLiteStore(Config{})
	assert.Error(t, err)
}

func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{Path: ":memory:"})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.HealthCheck(ctx))
	require.NoError(t, store.Close())
}

func TestEnsureSchemaCreatesTables(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, table := range []string{TablePartners, TableActionPlan, TableEvents, TableReports} {
		count, err := store.CountRows(ctx, table)
		require.NoError(t, err, table)
		assert.Zero(t, count, table)
	}
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	before := schemaSnapshot(t, store)
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.EnsureSchema(ctx))
	after := schemaSnapshot(t, store)

	assert.Equal(t, before, after)
	for _, ts := range Tables {
		assert.Equal(t, ts.ColumnNames(), after[ts.Name], ts.Name)
	}
}

func TestPartnerRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	partner := &Partner{
		Name:              "Ahmed",
		ParticipationType: ParticipationVolunteer,
		InteractionLevel:  InteractionHigh,
		Phone:             strPtr("0551234567"),
	}
	require.NoError(t, store.CreatePartner(ctx, partner))
	assert.NotZero(t, partner.ID)

	rows, err := store.Load(ctx, TablePartners)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, partner.ID, row.ID())
	assert.Equal(t, "Ahmed", row.String("name"))
	assert.Equal(t, "volunteer", row.String("participation_type"))
	assert.Equal(t, "high", row.String("interaction_level"))
	assert.Equal(t, "0551234567", row.String("phone"))

	got, err := store.GetPartner(ctx, partner.ID)
	require.NoError(t, err)
	assert.Equal(t, partner, got)
}

func TestPartnerUpdateDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	partner := &Partner{Name: "Sara", ParticipationType: ParticipationEducational}
	require.NoError(t, store.CreatePartner(ctx, partner))

	got, err := store.GetPartner(ctx, partner.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Phone)

	partner.Expertise = "Mathematics"
	partner.InteractionLevel = InteractionMedium
	require.NoError(t, store.UpdatePartner(ctx, partner))

	got, err = store.GetPartner(ctx, partner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", got.Expertise)
	assert.Equal(t, InteractionMedium, got.InteractionLevel)

	require.NoError(t, store.DeletePartner(ctx, partner.ID))

	_, err = store.GetPartner(ctx, partner.ID)
	assert.True(t, apperrors.IsNotFound(err))

	err = store.DeletePartner(ctx, partner.ID)
	assert.True(t, apperrors.IsNotFound(err))

	err = store.UpdatePartner(ctx, &Partner{ID: 999, Name: "Nobody"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestActionPlanDefaultsAndStatus(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	item := &ActionPlanItem{
		Objective:        "رفع مشاركة أولياء الأمور",
		Activity:         "لقاء مفتوح",
		ResponsibleParty: "رائد النشاط",
		Timeframe:        "الفصل الأول",
		KPI:              "نسبة الحضور",
		Priority:         PriorityHigh,
	}
	require.NoError(t, store.CreateActionPlanItem(ctx, item))

	got, err := store.GetActionPlanItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusInProgress, got.Status)
	assert.Equal(t, TaskTypeMoral, got.TaskType)
	assert.Equal(t, "الفصل الأول", got.Timeframe)

	require.NoError(t, store.UpdateActionPlanStatus(ctx, item.ID, TaskStatusCompleted))
	got, err = store.GetActionPlanItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCompleted, got.Status)

	got.TaskType = TaskTypeMaterial
	require.NoError(t, store.UpdateActionPlanItem(ctx, got))

	items, err := store.ListActionPlanItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, TaskTypeMaterial, items[0].TaskType)

	assert.True(t, apperrors.IsNotFound(store.UpdateActionPlanStatus(ctx, 42, TaskStatusDeferred)))
	require.NoError(t, store.DeleteActionPlanItem(ctx, item.ID))
}

func TestEventRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rated := &Event{Name: "Open Day", Date: "2025-03-12", Location: "Hall", AttendeesCount: 120, Rating: intPtr(4)}
	unrated := &Event{Name: "Book Fair", AttendeesCount: 0}
	require.NoError(t, store.CreateEvent(ctx, rated))
	require.NoError(t, store.CreateEvent(ctx, unrated))

	events, err := store.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, rated, events[0])
	assert.Equal(t, unrated, events[1])
	assert.Nil(t, events[1].Rating)

	rated.Rating = nil
	rated.AttendeesCount = 130
	require.NoError(t, store.UpdateEvent(ctx, rated))
	got, err := store.GetEvent(ctx, rated.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Rating)
	assert.Equal(t, 130, got.AttendeesCount)

	require.NoError(t, store.DeleteEvent(ctx, unrated.ID))
	assert.True(t, apperrors.IsNotFound(store.DeleteEvent(ctx, unrated.ID)))
}

func TestReportsAreArchived(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first := &Report{ReportDate: "2025-01-01 09:00:00", ReportContent: "first"}
	second := &Report{ReportContent: "second"}
	require.NoError(t, store.CreateReport(ctx, first))
	require.NoError(t, store.CreateReport(ctx, second))
	assert.NotEmpty(t, second.ReportDate)

	reports, err := store.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "second", reports[0].ReportContent)
	assert.Equal(t, "first", reports[1].ReportContent)

	got, err := store.GetReport(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestLoadUnknownTable(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Load(context.Background(), "students; DROP TABLE partners")
	assert.True(t, apperrors.IsUserInput(err))
}

func TestLoadRecreatesDroppedTable(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, "DROP TABLE events")
	require.NoError(t, err)

	rows, err := store.Load(ctx, TableEvents)
	require.NoError(t, err)
	assert.Empty(t, rows)

	count, err := store.CountRows(ctx, TableEvents)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLoadFailsSoft(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// Closing the handle makes both the read and the repair fail.
	require.NoError(t, store.db.Close())

	rows, err := store.Load(ctx, TablePartners)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteHealsMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// A file written before task_type and status existed.
	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE action_plan (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		objective TEXT, activity TEXT, responsible_party TEXT,
		timeframe TEXT, kpi TEXT, priority TEXT)`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO action_plan (objective, priority) VALUES ('legacy', 'مرتفع')`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	store := openTestStore(t, path)
	ctx := context.Background()

	item := &ActionPlanItem{Objective: "new", TaskType: TaskTypeMaterial}
	require.NoError(t, store.CreateActionPlanItem(ctx, item))

	items, err := store.ListActionPlanItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	legacy := items[0]
	assert.Equal(t, "legacy", legacy.Objective)
	assert.Equal(t, TaskTypeMoral, legacy.TaskType)
	assert.Equal(t, TaskStatusInProgress, legacy.Status)
	assert.Equal(t, PriorityHigh, legacy.Priority.Canonical())

	assert.Equal(t, TaskTypeMaterial, items[1].TaskType)

	// The other tables were created by the same repair.
	count, err := store.CountRows(ctx, TableReports)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUnexpectedEnumValuesAreTolerated(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO partners (name, participation_type, interaction_level) VALUES ('Legacy', 'donor', 'مرتفع')`)
	require.NoError(t, err)

	partners, err := store.ListPartners(ctx)
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, ParticipationType("donor"), partners[0].ParticipationType)
	assert.Equal(t, "donor", partners[0].ParticipationType.Label())
	assert.Equal(t, InteractionHigh, partners[0].InteractionLevel.Canonical())
}

func TestInsertAndReplaceRows(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertRows(ctx, TableEvents, []Row{
		{"name": "Sports Day", "date": "2025-02-01", "attendees_count": "80", "rating": ""},
		{"name": "Graduation", "attendees_count": "", "unknown": "dropped"},
	}))

	events, err := store.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 80, events[0].AttendeesCount)
	assert.Equal(t, "2025-02-01", events[0].Date)
	assert.Nil(t, events[0].Rating)

	require.NoError(t, store.ReplaceRows(ctx, TableEvents, []Row{
		{"name": "Science Fair", "attendees_count": "45", "rating": "5"},
	}))

	events, err = store.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Science Fair", events[0].Name)
	require.NotNil(t, events[0].Rating)
	assert.Equal(t, 5, *events[0].Rating)
}

func TestBackup(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreatePartner(ctx, &Partner{Name: "Backup"}))

	dest := filepath.Join(t.TempDir(), "backup.db")
	require.NoError(t, store.Backup(ctx, dest))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	restored := openTestStore(t, dest)
	partners, err := restored.ListPartners(ctx)
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, "Backup", partners[0].Name)
}

func TestRowConversions(t *testing.T) {
	row := Row{
		"id":    int64(3),
		"float": 2.5,
		"text":  "12",
		"bytes": []byte("7"),
		"bad":   "n/a",
		"nil":   nil,
	}

	assert.Equal(t, int64(3), row.ID())
	assert.Equal(t, "2.5", row.String("float"))
	assert.Equal(t, "", row.String("nil"))
	assert.Equal(t, "", row.String("missing"))

	n, ok := row.Int("text")
	assert.True(t, ok)
	assert.Equal(t, int64(12), n)

	n, ok = row.Int("bytes")
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)

	_, ok = row.Int("bad")
	assert.False(t, ok)
	_, ok = row.Int("nil")
	assert.False(t, ok)
}

func TestEnsureSchemaImportsLegacyLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// The first version kept partners in a parents table and named the
	// owner column responsibility.
	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	for _, stmt := range []string{
		`CREATE TABLE parents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL, participation_type TEXT, expertise TEXT,
			interaction_level TEXT, phone TEXT)`,
		`INSERT INTO parents (name, participation_type, interaction_level, phone)
			VALUES ('Ahmed', 'تطوع', 'مرتفع', '0551234567')`,
		`CREATE TABLE action_plan (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			objective TEXT, activity TEXT, responsibility TEXT, timeframe TEXT,
			kpi TEXT, status TEXT DEFAULT 'قيد التنفيذ', priority TEXT,
			task_type TEXT DEFAULT 'معنوي')`,
		`INSERT INTO action_plan (objective, responsibility) VALUES ('Parent council', 'Deputy principal')`,
	} {
		_, err = raw.Exec(stmt)
		require.NoError(t, err)
	}
	require.NoError(t, raw.Close())

	store := openTestStore(t, path)
	ctx := context.Background()
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.EnsureSchema(ctx))

	partners, err := store.ListPartners(ctx)
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, "Ahmed", partners[0].Name)
	assert.Equal(t, ParticipationVolunteer, partners[0].ParticipationType.Canonical())
	assert.Equal(t, InteractionHigh, partners[0].InteractionLevel.Canonical())
	require.NotNil(t, partners[0].Phone)
	assert.Equal(t, "0551234567", *partners[0].Phone)

	items, err := store.ListActionPlanItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Deputy principal", items[0].ResponsibleParty)

	snapshot := schemaSnapshot(t, store)
	assert.NotContains(t, snapshot, "parents")
	assert.Contains(t, snapshot, "parents_imported")
}
