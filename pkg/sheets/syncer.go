package sheets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/communitydesk/communitydesk/pkg/apperrors"
	"github.com/communitydesk/communitydesk/pkg/session"
	"github.com/communitydesk/communitydesk/pkg/stores"
	"github.com/communitydesk/communitydesk/pkg/telemetry"
)

// Direction of a sync run.
type Direction string

const (
	DirectionPush Direction = "push"
	DirectionPull Direction = "pull"
)

// Skip reasons reported on TableResult.
const (
	ReasonDisabled      = "sync disabled"
	ReasonEmptyTable    = "local table is empty"
	ReasonNothingToPull = "nothing to import"
	ReasonLocalHasRows  = "local table is not empty"
)

// TableResult is the outcome of syncing one table.
type TableResult struct {
	Table   string `json:"table"`
	Sheet   string `json:"sheet"`
	Rows    int    `json:"rows"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
	Err     error  `json:"-"`
}

// Outcome is the metrics label for r.
func (r TableResult) Outcome() string {
	switch {
	case r.Err != nil:
		return "error"
	case r.Skipped:
		return "skipped"
	default:
		return "ok"
	}
}

// RunReport collects the per-table results of one sync run.
type RunReport struct {
	RunID     string        `json:"run_id"`
	Direction Direction     `json:"direction"`
	Forced    bool          `json:"forced,omitempty"`
	Results   []TableResult `json:"results"`
}

// Failed returns the results that carry an error.
func (r *RunReport) Failed() []TableResult {
	var failed []TableResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err joins the errors of every failed table, nil when all succeeded.
func (r *RunReport) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", res.Table, res.Err))
	}
	return errors.Join(errs...)
}

// Syncer mirrors local tables to a Remote. It is manual: nothing runs
// unless Push or Pull is called.
type Syncer struct {
	store     stores.Store
	remote    Remote
	mappings  []Mapping
	telemetry *telemetry.Telemetry
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithMappings replaces the default mappings.
func WithMappings(mappings []Mapping) Option {
	return func(s *Syncer) {
		s.mappings = mappings
	}
}

// WithTelemetry sets the telemetry bundle used for logs, spans and metrics.
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(s *Syncer) {
		s.telemetry = t
	}
}

// NewSyncer creates a Syncer. A nil remote means sync is not configured:
// every table is reported as skipped.
func NewSyncer(store stores.Store, remote Remote, opts ...Option) *Syncer {
	s := &Syncer{
		store:    store,
		remote:   remote,
		mappings: DefaultMappings,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether a remote is configured.
func (s *Syncer) Enabled() bool {
	return s.remote != nil
}

func (s *Syncer) telemetryFor(ctx context.Context) *telemetry.Telemetry {
	if s.telemetry != nil {
		return s.telemetry
	}
	return telemetry.FromTelemetryContext(ctx)
}

func (s *Syncer) newReport(ctx context.Context, direction Direction, forced bool) (*RunReport, *telemetry.Logger) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		Direction: direction,
		Forced:    forced,
	}

	logger := s.telemetryFor(ctx).Logger.NewComponentLogger("sync").
		WithRunID(report.RunID).
		WithDirection(string(direction))
	return report, logger
}

// PushAll publishes every mapped table. One table failing never stops the
// others.
func (s *Syncer) PushAll(ctx context.Context) *RunReport {
	report, logger := s.newReport(ctx, DirectionPush, false)
	ctx = logger.WithContext(ctx)

	logger.Info("Starting push")
	for _, m := range s.mappings {
		report.Results = append(report.Results, s.PushTable(ctx, m))
	}
	logSummary(logger, report)
	return report
}

// PushTable replaces the worksheet of m with the local rows. An empty
// table is skipped without contacting the remote.
func (s *Syncer) PushTable(ctx context.Context, m Mapping) TableResult {
	result := TableResult{Table: m.Table, Sheet: m.Sheet}
	if s.remote == nil {
		result.Skipped = true
		result.Reason = ReasonDisabled
		return result
	}

	tel := s.telemetryFor(ctx)
	timer := telemetry.NewTimer()
	ctx, span := tel.Tracer.StartSyncSpan(ctx, string(DirectionPush), m.Table, m.Sheet)
	defer span.End()

	logger := telemetry.FromContext(ctx).WithTable(m.Table).WithSheet(m.Sheet)
	defer func() {
		tel.Metrics.RecordSync(string(DirectionPush), m.Table, result.Outcome(), result.Rows, timer.Duration())
		if result.Err != nil {
			telemetry.RecordError(span, result.Err)
			return
		}
		span.SetAttributes(telemetry.AttrRows.Int(result.Rows))
		telemetry.RecordSuccess(span)
	}()

	rows, err := s.store.Load(ctx, m.Table)
	if err != nil {
		result.Err = err
		logger.WithError(err).Error("Failed to load table")
		return result
	}

	if len(rows) == 0 {
		result.Skipped = true
		result.Reason = ReasonEmptyTable
		logger.Debug("Skipping empty table")
		return result
	}

	req := buildUpdateRequest(m, rows)
	if err := s.remote.Push(ctx, req); err != nil {
		result.Err = asTableError(err, m.Table)
		logger.WithError(err).Error("Push failed")
		return result
	}

	result.OK = true
	result.Rows = len(req.Rows)
	logger.WithRows(result.Rows).Info("Pushed table")
	return result
}

// buildUpdateRequest renames the local columns to their headers and
// renders every cell as text. Unmapped local columns are dropped.
func buildUpdateRequest(m Mapping, rows []stores.Row) UpdateRequest {
	req := UpdateRequest{
		Action:    ActionUpdate,
		SheetName: m.Sheet,
		Columns:   m.Headers(),
		Rows:      make([][]string, 0, len(rows)),
	}

	for _, row := range rows {
		cells := make([]string, len(m.Columns))
		for i, c := range m.Columns {
			cells[i] = Stringify(row[c.Field])
		}
		req.Rows = append(req.Rows, cells)
	}
	return req
}

// PullAll imports every mapped table. A forced pull overwrites local rows
// and requires an admin session.
func (s *Syncer) PullAll(ctx context.Context, force bool) (*RunReport, error) {
	if force {
		if err := session.RequireAdmin(ctx, "pull_force"); err != nil {
			return nil, err
		}
	}

	report, logger := s.newReport(ctx, DirectionPull, force)
	ctx = logger.WithContext(ctx)

	logger.Info("Starting pull")
	for _, m := range s.mappings {
		report.Results = append(report.Results, s.PullTable(ctx, m, force))
	}
	logSummary(logger, report)
	return report, nil
}

// PullTable imports the worksheet of m. Without force, rows are only
// imported into an empty local table. With force, the local table is
// replaced by the remote rows. Callers must check the session before
// forcing; PullAll does.
func (s *Syncer) PullTable(ctx context.Context, m Mapping, force bool) TableResult {
	result := TableResult{Table: m.Table, Sheet: m.Sheet}
	if s.remote == nil {
		result.Skipped = true
		result.Reason = ReasonDisabled
		return result
	}

	tel := s.telemetryFor(ctx)
	timer := telemetry.NewTimer()
	ctx, span := tel.Tracer.StartSyncSpan(ctx, string(DirectionPull), m.Table, m.Sheet)
	defer span.End()

	logger := telemetry.FromContext(ctx).WithTable(m.Table).WithSheet(m.Sheet)
	defer func() {
		tel.Metrics.RecordSync(string(DirectionPull), m.Table, result.Outcome(), result.Rows, timer.Duration())
		if result.Err != nil {
			telemetry.RecordError(span, result.Err)
			return
		}
		span.SetAttributes(telemetry.AttrRows.Int(result.Rows))
		telemetry.RecordSuccess(span)
	}()

	data, err := s.remote.Fetch(ctx, m.Sheet)
	if err != nil {
		if apperrors.IsDataShape(err) {
			result.Skipped = true
			result.Reason = ReasonNothingToPull
			logger.WithError(err).Warn("Nothing to import")
			return result
		}
		result.Err = asTableError(err, m.Table)
		logger.WithError(err).Error("Fetch failed")
		return result
	}

	rows, err := rowsFromSheet(m, data)
	if err != nil {
		result.Skipped = true
		result.Reason = ReasonNothingToPull
		logger.WithError(err).Warn("Nothing to import")
		return result
	}
	if len(rows) == 0 {
		result.Skipped = true
		result.Reason = ReasonNothingToPull
		logger.Info("Remote sheet has no rows")
		return result
	}

	if force {
		if err := s.store.ReplaceRows(ctx, m.Table, rows); err != nil {
			result.Err = err
			logger.WithError(err).Error("Failed to replace local rows")
			return result
		}
		result.OK = true
		result.Rows = len(rows)
		logger.WithRows(result.Rows).Warn("Replaced local table with remote rows")
		return result
	}

	count, err := s.store.CountRows(ctx, m.Table)
	if err != nil {
		result.Err = err
		logger.WithError(err).Error("Failed to count local rows")
		return result
	}
	if count > 0 {
		result.Skipped = true
		result.Reason = ReasonLocalHasRows
		logger.WithField("local_rows", count).Info("Local table has rows, use force to overwrite")
		return result
	}

	if err := s.store.InsertRows(ctx, m.Table, rows); err != nil {
		result.Err = err
		logger.WithError(err).Error("Failed to import rows")
		return result
	}

	result.OK = true
	result.Rows = len(rows)
	logger.WithRows(result.Rows).Info("Imported table")
	return result
}

// rowsFromSheet maps remote headers back to local columns. Blank rows are
// dropped, unknown headers ignored and short rows padded.
func rowsFromSheet(m Mapping, data *SheetData) ([]stores.Row, error) {
	fields := make([]string, len(data.Columns))
	mapped := 0
	for i, header := range data.Columns {
		if field, ok := m.FieldFor(header); ok {
			fields[i] = field
			mapped++
		}
	}
	if mapped == 0 {
		return nil, apperrors.NewDataShapeError("no known columns in remote sheet", nil).WithTable(m.Table)
	}

	rows := make([]stores.Row, 0, len(data.Rows))
	for _, cells := range data.Rows {
		if isBlankRow(cells) {
			continue
		}

		row := make(stores.Row, mapped)
		for i, field := range fields {
			if field == "" {
				continue
			}
			var v any
			if i < len(cells) {
				v = cells[i]
			}
			row[field] = Stringify(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func asTableError(err error, table string) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Table == "" {
		appErr.Table = table
	}
	return err
}

func logSummary(logger *telemetry.Logger, report *RunReport) {
	var ok, skipped, failed int
	for _, r := range report.Results {
		switch r.Outcome() {
		case "ok":
			ok++
		case "skipped":
			skipped++
		default:
			failed++
		}
	}

	logger.WithFields(map[string]interface{}{
		"ok":      ok,
		"skipped": skipped,
		"failed":  failed,
	}).Info("Sync finished")
}
