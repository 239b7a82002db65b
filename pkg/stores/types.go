package stores

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Table names.
const (
	TablePartners   = "partners"
	TableActionPlan = "action_plan"
	TableEvents     = "events"
	TableReports    = "reports"
)

// DateLayout is the storage layout for date-only values.
const DateLayout = "2006-01-02"

// TimestampLayout is the storage layout for report timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// ParticipationType is how a partner contributes.
type ParticipationType string

const (
	ParticipationEducational  ParticipationType = "educational"
	ParticipationFinancial    ParticipationType = "financial"
	ParticipationProfessional ParticipationType = "professional"
	ParticipationVolunteer    ParticipationType = "volunteer"
	ParticipationInitiative   ParticipationType = "initiative_support"
)

// InteractionLevel is how engaged a partner is.
type InteractionLevel string

const (
	InteractionLow    InteractionLevel = "low"
	InteractionMedium InteractionLevel = "medium"
	InteractionHigh   InteractionLevel = "high"
)

// Priority of an action-plan item.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// TaskStatus of an action-plan item.
type TaskStatus string

const (
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusDeferred   TaskStatus = "deferred"
)

// TaskType of an action-plan item.
type TaskType string

const (
	TaskTypeMoral    TaskType = "moral"
	TaskTypeMaterial TaskType = "material"
)

var participationLabels = map[ParticipationType]string{
	ParticipationEducational:  "دعم تعليمي",
	ParticipationFinancial:    "دعم مالي",
	ParticipationProfessional: "خبرات مهنية",
	ParticipationVolunteer:    "تطوع",
	ParticipationInitiative:   "مبادرات",
}

var interactionLabels = map[InteractionLevel]string{
	InteractionLow:    "محدود",
	InteractionMedium: "متوسط",
	InteractionHigh:   "مرتفع",
}

var priorityLabels = map[Priority]string{
	PriorityHigh:   "مرتفع",
	PriorityMedium: "متوسط",
	PriorityLow:    "منخفض",
}

var statusLabels = map[TaskStatus]string{
	TaskStatusInProgress: "قيد التنفيذ",
	TaskStatusCompleted:  "مكتمل",
	TaskStatusDeferred:   "مؤجل",
}

var taskTypeLabels = map[TaskType]string{
	TaskTypeMoral:    "معنوي",
	TaskTypeMaterial: "مادي",
}

// canonical maps a stored value to its code. Older databases hold the
// Arabic labels themselves, so those are accepted too. Anything else is
// returned untouched.
func canonical[T ~string](v T, labels map[T]string) T {
	trimmed := T(strings.TrimSpace(string(v)))
	if _, ok := labels[trimmed]; ok {
		return trimmed
	}
	for code, l := range labels {
		if l == string(trimmed) {
			return code
		}
	}
	return v
}

func label[T ~string](v T, labels map[T]string) string {
	if l, ok := labels[canonical(v, labels)]; ok {
		return l
	}
	return string(v)
}

// Canonical returns the code for v, mapping legacy labels.
func (v ParticipationType) Canonical() ParticipationType { return canonical(v, participationLabels) }

// Label returns the display label, or the raw value when unknown.
func (v ParticipationType) Label() string { return label(v, participationLabels) }

// IsValid reports whether v is a known participation type.
func (v ParticipationType) IsValid() bool {
	_, ok := participationLabels[v]
	return ok
}

// Canonical returns the code for v, mapping legacy labels.
func (v InteractionLevel) Canonical() InteractionLevel { return canonical(v, interactionLabels) }

// Label returns the display label, or the raw value when unknown.
func (v InteractionLevel) Label() string { return label(v, interactionLabels) }

// IsValid reports whether v is a known interaction level.
func (v InteractionLevel) IsValid() bool {
	_, ok := interactionLabels[v]
	return ok
}

// Canonical returns the code for v, mapping legacy labels.
func (v Priority) Canonical() Priority { return canonical(v, priorityLabels) }

// Label returns the display label, or the raw value when unknown.
func (v Priority) Label() string { return label(v, priorityLabels) }

// IsValid reports whether v is a known priority.
func (v Priority) IsValid() bool {
	_, ok := priorityLabels[v]
	return ok
}

// Canonical returns the code for v, mapping legacy labels.
func (v TaskStatus) Canonical() TaskStatus { return canonical(v, statusLabels) }

// Label returns the display label, or the raw value when unknown.
func (v TaskStatus) Label() string { return label(v, statusLabels) }

// IsValid reports whether v is a known status.
func (v TaskStatus) IsValid() bool {
	_, ok := statusLabels[v]
	return ok
}

// Canonical returns the code for v, mapping legacy labels.
func (v TaskType) Canonical() TaskType { return canonical(v, taskTypeLabels) }

// Label returns the display label, or the raw value when unknown.
func (v TaskType) Label() string { return label(v, taskTypeLabels) }

// IsValid reports whether v is a known task type.
func (v TaskType) IsValid() bool {
	_, ok := taskTypeLabels[v]
	return ok
}

// Partner is a community member tracked for engagement.
type Partner struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name" validate:"required"`
	ParticipationType ParticipationType `json:"participation_type" validate:"omitempty,oneof=educational financial professional volunteer initiative_support"`
	Expertise         string            `json:"expertise"`
	InteractionLevel  InteractionLevel  `json:"interaction_level" validate:"omitempty,oneof=low medium high"`
	Phone             *string           `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// ActionPlanItem is a planned objective with an owner and a status.
type ActionPlanItem struct {
	ID               int64      `json:"id"`
	Objective        string     `json:"objective" validate:"required"`
	Activity         string     `json:"activity"`
	ResponsibleParty string     `json:"responsible_party"`
	Timeframe        string     `json:"timeframe"` // a date or free text such as "الفصل الأول"
	KPI              string     `json:"kpi"`
	Priority         Priority   `json:"priority" validate:"omitempty,oneof=high medium low"`
	Status           TaskStatus `json:"status" validate:"omitempty,oneof=in_progress completed deferred"`
	TaskType         TaskType   `json:"task_type" validate:"omitempty,oneof=moral material"`
}

// ApplyDefaults fills the status and task type defaults.
func (a *ActionPlanItem) ApplyDefaults() {
	if a.Status == "" {
		a.Status = TaskStatusInProgress
	}
	if a.TaskType == "" {
		a.TaskType = TaskTypeMoral
	}
}

// Event is a school community event.
type Event struct {
	ID             int64  `json:"id"`
	Name           string `json:"name" validate:"required"`
	Date           string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Location       string `json:"location"`
	AttendeesCount int    `json:"attendees_count" validate:"min=0"`
	Rating         *int   `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
}

// Report is an archived, immutable generated report.
type Report struct {
	ID            int64  `json:"id"`
	ReportDate    string `json:"report_date"`
	ReportContent string `json:"report_content" validate:"required"`
}

// Row is an untyped table row keyed by column name, as read from or
// written to the database without a typed record in between.
type Row map[string]any

// String returns the column value as text. NULL and missing columns are "".
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format(DateLayout)
		}
		return v.Format(TimestampLayout)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Int returns the column value as an integer, reporting false when the
// value is NULL or not numeric.
func (r Row) Int(col string) (int64, bool) {
	switch v := r[col].(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	case []byte:
		return Row{col: string(v)}.Int(col)
	default:
		return 0, false
	}
}

// ID returns the row id, 0 when absent.
func (r Row) ID() int64 {
	id, _ := r.Int("id")
	return id
}

// Store defines the interface for the persistence layer.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	// Untyped table access, used by sync
	Load(ctx context.Context, table string) ([]Row, error)
	CountRows(ctx context.Context, table string) (int, error)
	InsertRows(ctx context.Context, table string, rows []Row) error
	ReplaceRows(ctx context.Context, table string, rows []Row) error

	// Partner operations
	CreatePartner(ctx context.Context, p *Partner) error
	GetPartner(ctx context.Context, id int64) (*Partner, error)
	ListPartners(ctx context.Context) ([]*Partner, error)
	UpdatePartner(ctx context.Context, p *Partner) error
	DeletePartner(ctx context.Context, id int64) error

	// ActionPlanItem operations
	CreateActionPlanItem(ctx context.Context, item *ActionPlanItem) error
	GetActionPlanItem(ctx context.Context, id int64) (*ActionPlanItem, error)
	ListActionPlanItems(ctx context.Context) ([]*ActionPlanItem, error)
	UpdateActionPlanItem(ctx context.Context, item *ActionPlanItem) error
	UpdateActionPlanStatus(ctx context.Context, id int64, status TaskStatus) error
	DeleteActionPlanItem(ctx context.Context, id int64) error

	// Event operations
	CreateEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, id int64) (*Event, error)
	ListEvents(ctx context.Context) ([]*Event, error)
	UpdateEvent(ctx context.Context, e *Event) error
	DeleteEvent(ctx context.Context, id int64) error

	// Report operations; reports are never updated or deleted
	CreateReport(ctx context.Context, r *Report) error
	GetReport(ctx context.Context, id int64) (*Report, error)
	ListReports(ctx context.Context) ([]*Report, error)

	// Utility
	Backup(ctx context.Context, dest string) error
	HealthCheck(ctx context.Context) error
}
