package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communitydesk/communitydesk/pkg/apperrors"
	"github.com/communitydesk/communitydesk/pkg/stores"
)

func TestValidateStructRecords(t *testing.T) {
	tests := []struct {
		name    string
		record  any
		wantErr bool
		field   string
	}{
		{
			name:   "valid partner",
			record: &stores.Partner{Name: "Ahmed", ParticipationType: stores.ParticipationVolunteer},
		},
		{
			name:    "blank partner name",
			record:  &stores.Partner{ParticipationType: stores.ParticipationVolunteer},
			wantErr: true,
			field:   "Partner.Name",
		},
		{
			name:    "unknown interaction level",
			record:  &stores.Partner{Name: "Sara", InteractionLevel: "extreme"},
			wantErr: true,
			field:   "Partner.InteractionLevel",
		},
		{
			name:    "rating out of range",
			record:  &stores.Event{Name: "Open Day", Rating: intPtr(9)},
			wantErr: true,
			field:   "Event.Rating",
		},
		{
			name:    "malformed event date",
			record:  &stores.Event{Name: "Open Day", Date: "12/03/2025"},
			wantErr: true,
			field:   "Event.Date",
		},
		{
			name:    "negative attendees",
			record:  &stores.Event{Name: "Open Day", AttendeesCount: -1},
			wantErr: true,
			field:   "Event.AttendeesCount",
		},
		{
			name:   "action plan defaults are optional",
			record: &stores.ActionPlanItem{Objective: "Reach parents"},
		},
		{
			name:    "blank report",
			record:  &stores.Report{},
			wantErr: true,
			field:   "Report.ReportContent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.record)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, apperrors.IsUserInput(err))

			details := Details(err)
			require.NotEmpty(t, details)
			assert.Equal(t, tt.field, details[0].Field)
		})
	}
}

func TestDetailsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, Details(assert.AnError))
}

func intPtr(n int) *int { return &n }
