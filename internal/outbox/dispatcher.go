// Package outbox delivers queued notifications. The worker drains the
// table through a Sender; without SMTP configuration messages are
// logged and marked sent so the queue never wedges in development.
package outbox

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ledenbeheer/internal/domain"
)

// Sender delivers one notification.
type Sender interface {
	Send(ctx context.Context, n *domain.Notification) error
}

// SMTPSender sends plain-text mail through a single SMTP endpoint.
type SMTPSender struct {
	Addr     string // host:port
	From     string
	Username string
	Password string
}

func (s *SMTPSender) Send(_ context.Context, n *domain.Notification) error {
	if n.Recipient == "" {
		return fmt.Errorf("notification %s has no recipient", n.ID)
	}
	host := s.Addr
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, host)
	}
	return smtp.SendMail(s.Addr, auth, s.From, []string{n.Recipient}, buildMessage(s.From, n))
}

func buildMessage(from string, n *domain.Notification) []byte {
	b := &strings.Builder{}
	fmt.Fprintf(b, "From: %s\r\n", from)
	fmt.Fprintf(b, "To: %s\r\n", n.Recipient)
	fmt.Fprintf(b, "Subject: %s\r\n", n.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(n.Body)
	return []byte(b.String())
}

// LogSender records deliveries in the log only.
type LogSender struct {
	Logger zerolog.Logger
}

func (s *LogSender) Send(_ context.Context, n *domain.Notification) error {
	s.Logger.Info().
		Str("notification", n.ID).
		Str("kind", string(n.Kind)).
		Str("recipient", n.Recipient).
		Str("subject", n.Subject).
		Msg("outbox delivery (log only)")
	return nil
}

// Dispatcher drains pending notifications through the sender.
type Dispatcher struct {
	outbox     domain.NotificationRepository
	sender     Sender
	logger     zerolog.Logger
	onDelivery func(kind, outcome string) // metrics hook, may be nil
}

func NewDispatcher(outbox domain.NotificationRepository, sender Sender, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		outbox: outbox,
		sender: sender,
		logger: logger.With().Str("component", "outbox").Logger(),
	}
}

// OnDelivery registers a counter hook fired per delivery attempt with
// the notification kind and outcome ("sent" or "failed").
func (d *Dispatcher) OnDelivery(fn func(kind, outcome string)) { d.onDelivery = fn }

// DrainReport counts one drain pass.
type DrainReport struct {
	Sent   int
	Failed int
}

// Drain claims due pending rows and attempts delivery. A failed send
// is recorded on the row and retried by a later pass; repository
// errors stop the pass.
func (d *Dispatcher) Drain(ctx context.Context, limit int) (DrainReport, error) {
	var report DrainReport
	pending, err := d.outbox.ClaimPending(ctx, limit)
	if err != nil {
		return report, fmt.Errorf("claim pending notifications: %w", err)
	}
	for i := range pending {
		n := pending[i]
		if err := d.sender.Send(ctx, &n); err != nil {
			report.Failed++
			d.logger.Warn().Err(err).Str("notification", n.ID).Str("kind", string(n.Kind)).Msg("delivery failed")
			if d.onDelivery != nil {
				d.onDelivery(string(n.Kind), "failed")
			}
			if err := d.outbox.MarkFailed(ctx, n.ID, err.Error()); err != nil {
				return report, fmt.Errorf("mark failed: %w", err)
			}
			continue
		}
		report.Sent++
		if d.onDelivery != nil {
			d.onDelivery(string(n.Kind), "sent")
		}
		if err := d.outbox.MarkSent(ctx, n.ID, time.Now()); err != nil {
			return report, fmt.Errorf("mark sent: %w", err)
		}
	}
	if report.Sent > 0 || report.Failed > 0 {
		d.logger.Info().Int("sent", report.Sent).Int("failed", report.Failed).Msg("outbox drained")
	}
	return report, nil
}
