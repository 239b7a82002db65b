package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/communitydesk/communitydesk/pkg/stores"
)

// Source is the part of the store the dashboard reads.
type Source interface {
	ListPartners(ctx context.Context) ([]*stores.Partner, error)
	ListActionPlanItems(ctx context.Context) ([]*stores.ActionPlanItem, error)
	ListEvents(ctx context.Context) ([]*stores.Event, error)
	ListReports(ctx context.Context) ([]*stores.Report, error)
}

// LowEngagementThreshold is the engagement rate, in percent, under which
// informal outreach is recommended.
const LowEngagementThreshold = 30.0

// Stats is the dashboard summary of the stored records.
type Stats struct {
	Partners         int                      `json:"partners"`
	HighInteraction  int                      `json:"high_interaction"`
	EngagementRate   float64                  `json:"engagement_rate"`
	TopParticipation stores.ParticipationType `json:"top_participation,omitempty"`

	PlanTotal  int `json:"plan_total"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Deferred   int `json:"deferred"`

	Events         int     `json:"events"`
	TotalAttendees int     `json:"total_attendees"`
	RatedEvents    int     `json:"rated_events"`
	AverageRating  float64 `json:"average_rating"`

	Reports int `json:"reports"`
}

// ComputeStats reads every table and summarizes it.
func ComputeStats(ctx context.Context, src Source) (*Stats, error) {
	partners, err := src.ListPartners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	items, err := src.ListActionPlanItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list action plan: %w", err)
	}
	events, err := src.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	reports, err := src.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	s := &Stats{
		Partners:  len(partners),
		PlanTotal: len(items),
		Events:    len(events),
		Reports:   len(reports),
	}

	counts := map[stores.ParticipationType]int{}
	var order []stores.ParticipationType
	for _, p := range partners {
		if p.InteractionLevel.Canonical() == stores.InteractionHigh {
			s.HighInteraction++
		}
		pt := p.ParticipationType.Canonical()
		if pt == "" {
			continue
		}
		if counts[pt] == 0 {
			order = append(order, pt)
		}
		counts[pt]++
	}
	if s.Partners > 0 {
		s.EngagementRate = float64(s.HighInteraction) / float64(s.Partners) * 100
	}
	for _, pt := range order {
		if counts[pt] > counts[s.TopParticipation] {
			s.TopParticipation = pt
		}
	}

	for _, item := range items {
		switch item.Status.Canonical() {
		case stores.TaskStatusCompleted:
			s.Completed++
		case stores.TaskStatusDeferred:
			s.Deferred++
		default:
			s.InProgress++
		}
	}

	ratingSum := 0
	for _, e := range events {
		s.TotalAttendees += e.AttendeesCount
		if e.Rating != nil {
			s.RatedEvents++
			ratingSum += *e.Rating
		}
	}
	if s.RatedEvents > 0 {
		s.AverageRating = float64(ratingSum) / float64(s.RatedEvents)
	}

	return s, nil
}

// Recommendations suggests next steps from the engagement figures.
func Recommendations(s *Stats) []string {
	if s.Partners == 0 {
		return []string{"يرجى إضافة بيانات أولياء الأمور أولاً للحصول على توصيات."}
	}

	var recs []string
	if s.EngagementRate < LowEngagementThreshold {
		recs = append(recs, "اقترح تنظيم 'لقاء قهوة صباحي' غير رسمي لكسر الحاجز مع أولياء الأمور ذوي التفاعل المحدود.")
	} else {
		recs = append(recs, "استثمر في أولياء الأمور الفاعلين لقيادة لجان تطوعية جديدة.")
	}

	if s.TopParticipation != "" {
		recs = append(recs, fmt.Sprintf("نقترح إطلاق مبادرة في مجال '%s' لتعظيم الاستفادة من خبرات المجتمع.", s.TopParticipation.Label()))
	}
	return recs
}

// EventsForPartner returns the events whose name mentions the partner,
// matched case-insensitively. Events are not linked to partners in storage.
func EventsForPartner(partner *stores.Partner, events []*stores.Event) []*stores.Event {
	name := strings.ToLower(strings.TrimSpace(partner.Name))
	if name == "" {
		return nil
	}

	var matched []*stores.Event
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.Name), name) {
			matched = append(matched, e)
		}
	}
	return matched
}
