package notify

import (
	"errors"
	"strings"
	"testing"

	mail "github.com/wneessen/go-mail"

	"mpbcrawl/config"
	"mpbcrawl/models"
)

type fakeSender struct {
	calls int
	errs  []error
}

func (f *fakeSender) DialAndSend(msgs ...*mail.Msg) error {
	f.calls++
	if f.calls <= len(f.errs) {
		return f.errs[f.calls-1]
	}
	return nil
}

func sampleReport() *models.RunReport {
	return &models.RunReport{
		ScrapeRunID:     "8c2f7e1a-0000-4000-8000-000000000000",
		ScrapeTimestamp: "2026-08-29T12:00:00Z",
		Status:          models.StatusCompleted,
		Stats: models.Stats{
			TotalVariantsExists:   2500,
			TotalProductsScrapped: 41,
			TotalVariantsScrapped: 97,
			FailedPages:           2,
			FailedListingPages:    1,
			FailedDetailFetches:   1,
			CacheHits:             60,
			DurationSeconds:       120,
		},
	}
}

func mailConfig() config.MailConfig {
	return config.MailConfig{
		Enabled:     true,
		Host:        "smtp.example.com",
		Port:        587,
		Sender:      "crawler@example.com",
		Receiver:    "ops@example.com",
		AppPassword: "secret",
	}
}

func TestSendDisabledIsNoop(t *testing.T) {
	m := New(config.MailConfig{Enabled: false})
	m.dial = func() (smtpSender, error) {
		t.Fatal("dial must not be called when mail is disabled")
		return nil, nil
	}

	if err := m.Send(sampleReport(), "output/report.json"); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestSendFirstAttemptSucceeds(t *testing.T) {
	sender := &fakeSender{}
	m := New(mailConfig())
	dials := 0
	m.dial = func() (smtpSender, error) {
		dials++
		return sender, nil
	}

	if err := m.Send(sampleReport(), "output/report.json"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if dials != 1 || sender.calls != 1 {
		t.Fatalf("dials = %d, sends = %d, want 1/1", dials, sender.calls)
	}
}

func TestSendRetriesWithFreshSession(t *testing.T) {
	var senders []*fakeSender
	m := New(mailConfig())
	m.dial = func() (smtpSender, error) {
		s := &fakeSender{}
		if len(senders) == 0 {
			s.errs = []error{errors.New("connection reset")}
		}
		senders = append(senders, s)
		return s, nil
	}

	if err := m.Send(sampleReport(), "output/report.json"); err != nil {
		t.Fatalf("Send after retry: %v", err)
	}
	if len(senders) != 2 {
		t.Fatalf("dials = %d, want a fresh session per attempt", len(senders))
	}
	if senders[0].calls != 1 || senders[1].calls != 1 {
		t.Fatalf("send calls = %d/%d, want 1/1", senders[0].calls, senders[1].calls)
	}
}

func TestSendReturnsLastErrorAfterAllAttempts(t *testing.T) {
	finalErr := errors.New("550 mailbox unavailable")
	attemptErrs := []error{errors.New("transient"), finalErr}
	attempts := 0
	m := New(mailConfig())
	m.dial = func() (smtpSender, error) {
		err := attemptErrs[attempts]
		attempts++
		return &fakeSender{errs: []error{err}}, nil
	}

	err := m.Send(sampleReport(), "output/report.json")
	if err == nil {
		t.Fatal("expected error after exhausted attempts")
	}
	if !errors.Is(err, finalErr) {
		t.Fatalf("error = %v, want last attempt's error", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

func TestSendDialFailureCountsAsAttempt(t *testing.T) {
	dialErr := errors.New("no route to host")
	attempts := 0
	m := New(mailConfig())
	m.dial = func() (smtpSender, error) {
		attempts++
		return nil, dialErr
	}

	err := m.Send(sampleReport(), "output/report.json")
	if !errors.Is(err, dialErr) {
		t.Fatalf("error = %v, want dial error", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

func TestCompose(t *testing.T) {
	rep := sampleReport()
	subject, body, err := Compose(rep, "output/mpb_products_290820261200.json")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if subject != "Mpb Scrape Summary: 41 Products, 97 Variants" {
		t.Fatalf("subject = %q", subject)
	}
	for _, want := range []string{
		rep.ScrapeRunID,
		"2026-08-29T12:00:00Z",
		"color: green",
		"Total Variants Exists",
		"2500",
		"Failed Listing Pages",
		"output/mpb_products_290820261200.json",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestComposeFailedRunIsRed(t *testing.T) {
	rep := sampleReport()
	rep.Status = models.StatusFailed

	_, body, err := Compose(rep, "output/report.json")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(body, "color: red") {
		t.Fatalf("failed run not rendered red:\n%s", body)
	}
}
