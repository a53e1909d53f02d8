// Package notify delivers the run-summary email. Delivery is best-effort:
// the report file is already durable by the time Send runs, so a failed
// notification is cosmetic and never escalates.
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"

	mail "github.com/wneessen/go-mail"

	"mpbcrawl/config"
	"mpbcrawl/models"
)

const sendAttempts = 2

// smtpSender is the slice of the go-mail client Send depends on.
type smtpSender interface {
	DialAndSend(msgs ...*mail.Msg) error
}

// Mailer sends HTML run summaries over SMTP.
type Mailer struct {
	cfg  config.MailConfig
	dial func() (smtpSender, error)
}

// New builds a mailer from the mail configuration.
func New(cfg config.MailConfig) *Mailer {
	m := &Mailer{cfg: cfg}
	m.dial = m.dialSMTP
	return m
}

func (m *Mailer) dialSMTP() (smtpSender, error) {
	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Sender),
		mail.WithPassword(m.cfg.AppPassword),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("build smtp client: %w", err)
	}
	return client, nil
}

// Send delivers the summary, retrying once with a fresh SMTP session.
// Returns the last error after both attempts failed; callers log it and
// move on. A disabled mailer is a no-op.
func (m *Mailer) Send(rep *models.RunReport, outputPath string) error {
	if !m.cfg.Enabled {
		return nil
	}

	subject, body, err := Compose(rep, outputPath)
	if err != nil {
		return fmt.Errorf("compose summary: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.Sender); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(m.cfg.Receiver); err != nil {
		return fmt.Errorf("set receiver: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	var lastErr error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		sender, err := m.dial()
		if err != nil {
			lastErr = err
			slog.Warn("smtp session failed", slog.Int("attempt", attempt), slog.Any("error", err))
			continue
		}
		if err := sender.DialAndSend(msg); err != nil {
			lastErr = err
			slog.Warn("summary email send failed", slog.Int("attempt", attempt), slog.Any("error", err))
			continue
		}
		slog.Info("summary email sent", slog.String("receiver", m.cfg.Receiver))
		return nil
	}
	return lastErr
}

var summaryTmpl = template.Must(template.New("summary").Parse(`<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: auto; border: 1px solid #ddd; padding: 20px; border-radius: 8px; background-color: #f9f9f9;">
    <h2 style="text-align: center; color: #2a7ae2;">Scraping Summary Report</h2>
    <p><strong>Scrape Run ID:</strong> <code>{{.Report.ScrapeRunID}}</code></p>
    <p><strong>Timestamp:</strong> {{.Report.ScrapeTimestamp}}</p>
    <p><strong>Status:</strong>
      <span style="color: {{.StatusColor}}; font-weight: bold;">{{.Report.Status}}</span>
    </p>
    <h3 style="color: #2a7ae2;">Statistics</h3>
    <table style="width: 100%; border-collapse: collapse;">
      {{range .Rows}}<tr>
        <td style="padding: 8px; border: 1px solid #ddd;"><strong>{{.Label}}</strong></td>
        <td style="padding: 8px; border: 1px solid #ddd;">{{.Value}}</td>
      </tr>
      {{end}}
    </table>
  </div>
</body>
</html>
`))

type summaryRow struct {
	Label string
	Value string
}

type summaryData struct {
	Report      *models.RunReport
	StatusColor string
	Rows        []summaryRow
}

// Compose renders the subject line and HTML body for a run report.
func Compose(rep *models.RunReport, outputPath string) (subject, body string, err error) {
	subject = fmt.Sprintf("Mpb Scrape Summary: %d Products, %d Variants",
		rep.Stats.TotalProductsScrapped, rep.Stats.TotalVariantsScrapped)

	color := "green"
	if rep.Status != models.StatusCompleted {
		color = "red"
	}

	data := summaryData{
		Report:      rep,
		StatusColor: color,
		Rows: []summaryRow{
			{"Total Variants Exists", fmt.Sprint(rep.Stats.TotalVariantsExists)},
			{"Total Products Scrapped", fmt.Sprint(rep.Stats.TotalProductsScrapped)},
			{"Total Variants Scrapped", fmt.Sprint(rep.Stats.TotalVariantsScrapped)},
			{"Total Duplicate Variants Skipped", fmt.Sprint(rep.Stats.DuplicateVariantsSkipped)},
			{"Failed Pages", fmt.Sprint(rep.Stats.FailedPages)},
			{"Failed Listing Pages", fmt.Sprint(rep.Stats.FailedListingPages)},
			{"Failed Detail Fetches", fmt.Sprint(rep.Stats.FailedDetailFetches)},
			{"Notes Cache Hits", fmt.Sprint(rep.Stats.CacheHits)},
			{"Duration (seconds)", fmt.Sprint(rep.Stats.DurationSeconds)},
			{"Output Filename", outputPath},
		},
	}

	var buf bytes.Buffer
	if err := summaryTmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}
