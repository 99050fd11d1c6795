package notify

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/ukydev/pikup-intake/internal/models"
)

var funcs = template.FuncMap{
	"price":     formatPrice,
	"orDefault": orDefault,
}

var adminTmpl = template.Must(template.New("admin").Funcs(funcs).Parse(`New Move Request:

Submission ID: {{.SubmissionID}}
Received: {{.Timestamp}}
Name: {{.Name}}
Email: {{.Email}}
Phone: {{.Phone}}
Move Type: {{.MoveType}}
Pickup Address: {{orDefault .PickupAddress "Not provided"}}
Dropoff Address: {{.DestinationAddress}}
Scheduled For: {{orDefault .ScheduledFor "Not scheduled"}}
Distance: {{.DistanceMiles}} miles ({{.DistanceSource}})
Items: {{if .UsePhotos}}Photos uploaded{{else}}{{orDefault .ItemSummary "None listed"}} ({{.ItemCount}}){{end}}
Stairs: {{if .HasStairs}}Yes{{else}}No{{end}}
Special Instructions: {{orDefault .AdditionalInfo "None"}}
Estimated Price: {{price .}}
{{- if not .PricePending}}
Driver Share (70%): ${{printf "%.2f" .DriverShare}}
Business Share (30%): ${{printf "%.2f" .BusinessShare}}
{{- end}}
`))

var customerTmpl = template.Must(template.New("customer").Funcs(funcs).Parse(`Hi {{.Name}},

Thanks for choosing PikUp! We received your {{.MoveType}} request.

Pickup: {{orDefault .PickupAddress "Not provided"}}
Dropoff: {{.DestinationAddress}}
When: {{orDefault .ScheduledFor "We will contact you to schedule"}}
{{if .PricePending -}}
Estimated Price: Pending. We will review your photos and send a quote soon.
{{- else -}}
Estimated Price: {{price .}} for about {{.DistanceMiles}} miles.
{{- end}}

Reference: {{.SubmissionID}}

The PikUp Team
`))

// Notifier composes the admin and customer messages for a submission.
type Notifier struct {
	mailer     Mailer
	adminEmail string
}

// NewNotifier sends admin notifications to adminEmail.
func NewNotifier(mailer Mailer, adminEmail string) *Notifier {
	return &Notifier{mailer: mailer, adminEmail: adminEmail}
}

// NotifyAdmin sends the submission details and the uploaded files to the
// business inbox.
func (n *Notifier) NotifyAdmin(ctx context.Context, record models.SubmissionRecord, attachments []models.Attachment) error {
	body, err := render(adminTmpl, record)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, Message{
		To:          n.adminEmail,
		Subject:     fmt.Sprintf("New PikUp Submission - %s", record.Name),
		Body:        body,
		Attachments: attachments,
	})
}

// NotifyCustomer sends the confirmation to the submitter.
func (n *Notifier) NotifyCustomer(ctx context.Context, record models.SubmissionRecord) error {
	body, err := render(customerTmpl, record)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, Message{
		To:      record.Email,
		Subject: "Your PikUp Move Request Confirmation",
		Body:    body,
	})
}

func render(t *template.Template, record models.SubmissionRecord) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, record); err != nil {
		return "", fmt.Errorf("render %s mail: %w", t.Name(), err)
	}
	return sb.String(), nil
}

func formatPrice(r models.SubmissionRecord) string {
	if r.PricePending {
		return "Pending"
	}
	return fmt.Sprintf("$%.2f", r.Price)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04"
	humanDateLayout = "Monday, January 2, 2006"
	humanTimeLayout = "3:04 PM"
)

// FormatSchedule renders a YYYY-MM-DD date and HH:MM time the way the
// confirmation mail shows them, e.g. "Saturday, March 15, 2025 at 2:30 PM".
// Values that do not parse are returned as given.
func FormatSchedule(date, clock string) string {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" && clock == "" {
		return ""
	}

	var parts []string
	if date != "" {
		if d, err := time.Parse(dateLayout, date); err == nil {
			parts = append(parts, d.Format(humanDateLayout))
		} else {
			parts = append(parts, date)
		}
	}
	if clock != "" {
		if c, err := time.Parse(timeLayout, clock); err == nil {
			parts = append(parts, c.Format(humanTimeLayout))
		} else {
			parts = append(parts, clock)
		}
	}
	return strings.Join(parts, " at ")
}
