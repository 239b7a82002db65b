package stores

import (
	"context"
	"fmt"
	"time"
)

func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return int64(*n)
}

func nullableDate(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func optionalString(r Row, col string) *string {
	if r[col] == nil {
		return nil
	}
	v := r.String(col)
	return &v
}

func optionalInt(r Row, col string) *int {
	n, ok := r.Int(col)
	if !ok {
		return nil
	}
	v := int(n)
	return &v
}

func partnerFromRow(r Row) *Partner {
	return &Partner{
		ID:                r.ID(),
		Name:              r.String("name"),
		ParticipationType: ParticipationType(r.String("participation_type")),
		Expertise:         r.String("expertise"),
		InteractionLevel:  InteractionLevel(r.String("interaction_level")),
		Phone:             optionalString(r, "phone"),
	}
}

func actionPlanItemFromRow(r Row) *ActionPlanItem {
	return &ActionPlanItem{
		ID:               r.ID(),
		Objective:        r.String("objective"),
		Activity:         r.String("activity"),
		ResponsibleParty: r.String("responsible_party"),
		Timeframe:        r.String("timeframe"),
		KPI:              r.String("kpi"),
		Priority:         Priority(r.String("priority")),
		Status:           TaskStatus(r.String("status")),
		TaskType:         TaskType(r.String("task_type")),
	}
}

func eventFromRow(r Row) *Event {
	attendees, _ := r.Int("attendees_count")
	return &Event{
		ID:             r.ID(),
		Name:           r.String("name"),
		Date:           r.String("date"),
		Location:       r.String("location"),
		AttendeesCount: int(attendees),
		Rating:         optionalInt(r, "rating"),
	}
}

func reportFromRow(r Row) *Report {
	return &Report{
		ID:            r.ID(),
		ReportDate:    r.String("report_date"),
		ReportContent: r.String("report_content"),
	}
}

// getRow fetches one row of table by id.
func (s *SQLiteStore) getRow(ctx context.Context, table, what string, id int64) (Row, error) {
	var rows []Row
	query := fmt.Sprintf("SELECT * FROM %s WHERE id = ?", table)
	err := s.withSchemaRetry(ctx, table, "get", func() error {
		var err error
		rows, err = s.queryRows(ctx, query, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	if len(rows) == 0 {
		return nil, notFound(what, id)
	}
	return rows[0], nil
}

// insert runs an INSERT through the schema retry and returns the new id.
func (s *SQLiteStore) insert(ctx context.Context, table, query string, args ...any) (int64, error) {
	var id int64
	err := s.withSchemaRetry(ctx, table, "insert", func() error {
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	s.metrics.RecordWrite(table, "insert")
	return id, nil
}

// modify runs an UPDATE or DELETE through the schema retry.
func (s *SQLiteStore) modify(ctx context.Context, table, op, what string, id int64, query string, args ...any) error {
	err := s.withSchemaRetry(ctx, table, op, func() error {
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		return affected(result, what, id)
	})
	if err != nil {
		return err
	}
	s.metrics.RecordWrite(table, op)
	return nil
}

// CreatePartner inserts a partner and sets its ID.
func (s *SQLiteStore) CreatePartner(ctx context.Context, p *Partner) error {
	query := `
		INSERT INTO partners (name, participation_type, expertise, interaction_level, phone)
		VALUES (?, ?, ?, ?, ?)
	`

	id, err := s.insert(ctx, TablePartners, query,
		p.Name,
		string(p.ParticipationType),
		p.Expertise,
		string(p.InteractionLevel),
		nullable(p.Phone),
	)
	if err != nil {
		return fmt.Errorf("failed to create partner: %w", err)
	}

	p.ID = id
	return nil
}

// GetPartner retrieves a partner by ID.
func (s *SQLiteStore) GetPartner(ctx context.Context, id int64) (*Partner, error) {
	row, err := s.getRow(ctx, TablePartners, "partner", id)
	if err != nil {
		return nil, err
	}
	return partnerFromRow(row), nil
}

// ListPartners lists every partner ordered by ID.
func (s *SQLiteStore) ListPartners(ctx context.Context) ([]*Partner, error) {
	rows, err := s.Load(ctx, TablePartners)
	if err != nil {
		return nil, err
	}

	partners := make([]*Partner, 0, len(rows))
	for _, r := range rows {
		partners = append(partners, partnerFromRow(r))
	}
	return partners, nil
}

// UpdatePartner overwrites every field of an existing partner.
func (s *SQLiteStore) UpdatePartner(ctx context.Context, p *Partner) error {
	query := `
		UPDATE partners
		SET name = ?, participation_type = ?, expertise = ?, interaction_level = ?, phone = ?
		WHERE id = ?
	`

	err := s.modify(ctx, TablePartners, "update", "partner", p.ID, query,
		p.Name,
		string(p.ParticipationType),
		p.Expertise,
		string(p.InteractionLevel),
		nullable(p.Phone),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update partner: %w", err)
	}
	return nil
}

// DeletePartner deletes a partner by ID.
func (s *SQLiteStore) DeletePartner(ctx context.Context, id int64) error {
	err := s.modify(ctx, TablePartners, "delete", "partner", id, `DELETE FROM partners WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete partner: %w", err)
	}
	return nil
}

// CreateActionPlanItem inserts an action-plan item, applying the status
// and task type defaults, and sets its ID.
func (s *SQLiteStore) CreateActionPlanItem(ctx context.Context, item *ActionPlanItem) error {
	item.ApplyDefaults()

	query := `
		INSERT INTO action_plan (objective, activity, responsible_party, timeframe, kpi, priority, status, task_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	id, err := s.insert(ctx, TableActionPlan, query,
		item.Objective,
		item.Activity,
		item.ResponsibleParty,
		item.Timeframe,
		item.KPI,
		string(item.Priority),
		string(item.Status),
		string(item.TaskType),
	)
	if err != nil {
		return fmt.Errorf("failed to create action plan item: %w", err)
	}

	item.ID = id
	return nil
}

// GetActionPlanItem retrieves an action-plan item by ID.
func (s *SQLiteStore) GetActionPlanItem(ctx context.Context, id int64) (*ActionPlanItem, error) {
	row, err := s.getRow(ctx, TableActionPlan, "action plan item", id)
	if err != nil {
		return nil, err
	}
	return actionPlanItemFromRow(row), nil
}

// ListActionPlanItems lists every action-plan item ordered by ID.
func (s *SQLiteStore) ListActionPlanItems(ctx context.Context) ([]*ActionPlanItem, error) {
	rows, err := s.Load(ctx, TableActionPlan)
	if err != nil {
		return nil, err
	}

	items := make([]*ActionPlanItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, actionPlanItemFromRow(r))
	}
	return items, nil
}

// UpdateActionPlanItem overwrites every field of an existing item.
func (s *SQLiteStore) UpdateActionPlanItem(ctx context.Context, item *ActionPlanItem) error {
	item.ApplyDefaults()

	query := `
		UPDATE action_plan
		SET objective = ?, activity = ?, responsible_party = ?, timeframe = ?, kpi = ?,
			priority = ?, status = ?, task_type = ?
		WHERE id = ?
	`

	err := s.modify(ctx, TableActionPlan, "update", "action plan item", item.ID, query,
		item.Objective,
		item.Activity,
		item.ResponsibleParty,
		item.Timeframe,
		item.KPI,
		string(item.Priority),
		string(item.Status),
		string(item.TaskType),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update action plan item: %w", err)
	}
	return nil
}

// UpdateActionPlanStatus changes only the status of an item.
func (s *SQLiteStore) UpdateActionPlanStatus(ctx context.Context, id int64, status TaskStatus) error {
	err := s.modify(ctx, TableActionPlan, "update_status", "action plan item", id,
		`UPDATE action_plan SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update action plan status: %w", err)
	}
	return nil
}

// DeleteActionPlanItem deletes an item by ID.
func (s *SQLiteStore) DeleteActionPlanItem(ctx context.Context, id int64) error {
	err := s.modify(ctx, TableActionPlan, "delete", "action plan item", id, `DELETE FROM action_plan WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete action plan item: %w", err)
	}
	return nil
}

// CreateEvent inserts an event and sets its ID.
func (s *SQLiteStore) CreateEvent(ctx context.Context, e *Event) error {
	query := `
		INSERT INTO events (name, date, location, attendees_count, rating)
		VALUES (?, ?, ?, ?, ?)
	`

	id, err := s.insert(ctx, TableEvents, query,
		e.Name,
		nullableDate(e.Date),
		e.Location,
		int64(e.AttendeesCount),
		nullableInt(e.Rating),
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	e.ID = id
	return nil
}

// GetEvent retrieves an event by ID.
func (s *SQLiteStore) GetEvent(ctx context.Context, id int64) (*Event, error) {
	row, err := s.getRow(ctx, TableEvents, "event", id)
	if err != nil {
		return nil, err
	}
	return eventFromRow(row), nil
}

// ListEvents lists every event ordered by ID.
func (s *SQLiteStore) ListEvents(ctx context.Context) ([]*Event, error) {
	rows, err := s.Load(ctx, TableEvents)
	if err != nil {
		return nil, err
	}

	events := make([]*Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, eventFromRow(r))
	}
	return events, nil
}

// UpdateEvent overwrites every field of an existing event.
func (s *SQLiteStore) UpdateEvent(ctx context.Context, e *Event) error {
	query := `
		UPDATE events
		SET name = ?, date = ?, location = ?, attendees_count = ?, rating = ?
		WHERE id = ?
	`

	err := s.modify(ctx, TableEvents, "update", "event", e.ID, query,
		e.Name,
		nullableDate(e.Date),
		e.Location,
		int64(e.AttendeesCount),
		nullableInt(e.Rating),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// DeleteEvent deletes an event by ID.
func (s *SQLiteStore) DeleteEvent(ctx context.Context, id int64) error {
	err := s.modify(ctx, TableEvents, "delete", "event", id, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// CreateReport archives a report. ReportDate defaults to now.
func (s *SQLiteStore) CreateReport(ctx context.Context, r *Report) error {
	if r.ReportDate == "" {
		r.ReportDate = time.Now().Format(TimestampLayout)
	}

	query := `INSERT INTO reports (report_date, report_content) VALUES (?, ?)`

	id, err := s.insert(ctx, TableReports, query, r.ReportDate, r.ReportContent)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	r.ID = id
	return nil
}

// GetReport retrieves an archived report by ID.
func (s *SQLiteStore) GetReport(ctx context.Context, id int64) (*Report, error) {
	row, err := s.getRow(ctx, TableReports, "report", id)
	if err != nil {
		return nil, err
	}
	return reportFromRow(row), nil
}

// ListReports lists the archive, newest first.
func (s *SQLiteStore) ListReports(ctx context.Context) ([]*Report, error) {
	rows, err := s.Load(ctx, TableReports)
	if err != nil {
		return nil, err
	}

	reports := make([]*Report, len(rows))
	for i, r := range rows {
		reports[len(rows)-1-i] = reportFromRow(r)
	}
	return reports, nil
}
