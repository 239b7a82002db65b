package content

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/communitydesk/communitydesk/pkg/apperrors"
	"github.com/communitydesk/communitydesk/pkg/stores"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

// Kind selects a message or letter template.
type Kind string

const (
	KindInvitation Kind = "invitation"
	KindThanks     Kind = "thanks"
	KindReminder   Kind = "reminder"
)

// Sender is who signs generated content.
type Sender struct {
	School      string
	Coordinator string
	Principal   string
}

// MessageData fills a message or letter.
type MessageData struct {
	Sender
	Recipient string
	// Subject is the event or contribution the message is about.
	Subject   string
	Date      string
	EventDate string
	Location  string
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// WhatsAppMessage renders a short message of the given kind.
func WhatsAppMessage(kind Kind, data MessageData) (string, error) {
	switch kind {
	case KindInvitation, KindReminder:
		if strings.TrimSpace(data.Subject) == "" {
			return "", apperrors.NewUserInputError("an event is required for "+string(kind)+" messages", nil)
		}
	case KindThanks:
	default:
		return "", apperrors.NewUserInputError(fmt.Sprintf("unknown message kind %q", kind), nil)
	}
	return render("whatsapp_"+string(kind)+".tmpl", data)
}

// Letter renders a formal letter. Only thanks and invitation letters exist.
func Letter(kind Kind, data MessageData, now time.Time) (string, error) {
	switch kind {
	case KindInvitation:
		if strings.TrimSpace(data.Subject) == "" {
			return "", apperrors.NewUserInputError("an event is required for invitation letters", nil)
		}
	case KindThanks:
	default:
		return "", apperrors.NewUserInputError(fmt.Sprintf("unknown letter kind %q", kind), nil)
	}

	if data.Date == "" {
		data.Date = now.Format(stores.DateLayout)
	}
	return render("letter_"+string(kind)+".tmpl", data)
}

// InvitationFor fills an invitation for partner to event.
func InvitationFor(sender Sender, partner *stores.Partner, event *stores.Event) MessageData {
	return MessageData{
		Sender:    sender,
		Recipient: partner.Name,
		Subject:   event.Name,
		Date:      event.Date,
		EventDate: event.Date,
		Location:  event.Location,
	}
}

// InitiativeDraft proposes an initiative for a school challenge. Partners
// are listed as possible contributors.
func InitiativeDraft(challenge string, partners []*stores.Partner) (string, error) {
	challenge = strings.TrimSpace(challenge)
	if challenge == "" {
		return "", apperrors.NewUserInputError("a challenge is required", nil)
	}

	return render("initiative.tmpl", struct {
		Challenge string
		Partners  []*stores.Partner
	}{challenge, partners})
}

// PeriodicReport renders the formal periodic report for s at now.
func PeriodicReport(sender Sender, s *Stats, now time.Time) (string, error) {
	return render("periodic_report.tmpl", struct {
		Sender
		Date            string
		Stats           *Stats
		Recommendations []string
	}{sender, now.Format(stores.DateLayout), s, Recommendations(s)})
}
