package outbox

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ledenbeheer/internal/domain"
)

type fakeOutbox struct {
	domain.NotificationRepository
	pending []domain.Notification
	sent    []string
	failed  map[string]string
}

func (f *fakeOutbox) ClaimPending(context.Context, int) ([]domain.Notification, error) {
	return f.pending, nil
}

func (f *fakeOutbox) MarkSent(_ context.Context, id string, _ time.Time) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id string, errMsg string) error {
	if f.failed == nil {
		f.failed = map[string]string{}
	}
	f.failed[id] = errMsg
	return nil
}

type scriptedSender struct {
	failFor map[string]error
	sent    []domain.Notification
}

func (s *scriptedSender) Send(_ context.Context, n *domain.Notification) error {
	if err, ok := s.failFor[n.ID]; ok {
		return err
	}
	s.sent = append(s.sent, *n)
	return nil
}

func pendingNotification(id string, kind domain.NotificationKind) domain.Notification {
	return domain.Notification{
		ID:        id,
		Kind:      kind,
		Recipient: "lid@example.nl",
		Subject:   "Welkom",
		Body:      "Beste J. Jansen,",
		Status:    domain.NotificationPending,
	}
}

func TestDrainSendsAndSettles(t *testing.T) {
	box := &fakeOutbox{pending: []domain.Notification{
		pendingNotification("n-1", domain.NotifyWelcome),
		pendingNotification("n-2", domain.NotifyInvoiceCreated),
	}}
	sender := &scriptedSender{}
	d := NewDispatcher(box, sender, zerolog.Nop())

	report, err := d.Drain(context.Background(), 10)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if report.Sent != 2 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(box.sent) != 2 || box.sent[0] != "n-1" {
		t.Fatalf("marked sent = %v", box.sent)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("delivered = %d", len(sender.sent))
	}
}

func TestDrainRecordsFailureAndContinues(t *testing.T) {
	box := &fakeOutbox{pending: []domain.Notification{
		pendingNotification("n-1", domain.NotifyWelcome),
		pendingNotification("n-2", domain.NotifyWelcome),
	}}
	sender := &scriptedSender{failFor: map[string]error{"n-1": errors.New("550 mailbox unavailable")}}
	d := NewDispatcher(box, sender, zerolog.Nop())

	var outcomes []string
	d.OnDelivery(func(kind, outcome string) { outcomes = append(outcomes, kind+":"+outcome) })

	report, err := d.Drain(context.Background(), 10)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if report.Sent != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if box.failed["n-1"] == "" || !strings.Contains(box.failed["n-1"], "550") {
		t.Fatalf("failure not recorded: %v", box.failed)
	}
	if len(box.sent) != 1 || box.sent[0] != "n-2" {
		t.Fatalf("marked sent = %v", box.sent)
	}
	want := []string{"welcome:failed", "welcome:sent"}
	if len(outcomes) != 2 || outcomes[0] != want[0] || outcomes[1] != want[1] {
		t.Fatalf("hook outcomes = %v, want %v", outcomes, want)
	}
}

func TestDrainEmptyQueue(t *testing.T) {
	d := NewDispatcher(&fakeOutbox{}, &scriptedSender{}, zerolog.Nop())
	report, err := d.Drain(context.Background(), 10)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if report.Sent != 0 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}
}

func TestSMTPSenderRequiresRecipient(t *testing.T) {
	s := &SMTPSender{Addr: "mail.example.nl:587", From: "noreply@example.nl"}
	n := pendingNotification("n-1", domain.NotifyWelcome)
	n.Recipient = ""
	if err := s.Send(context.Background(), &n); err == nil {
		t.Fatal("send without recipient did not fail")
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	n := pendingNotification("n-1", domain.NotifyWelcome)
	msg := string(buildMessage("noreply@example.nl", &n))
	for _, want := range []string{
		"From: noreply@example.nl\r\n",
		"To: lid@example.nl\r\n",
		"Subject: Welkom\r\n",
		"Content-Type: text/plain; charset=utf-8\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if !strings.HasSuffix(msg, "\r\n\r\nBeste J. Jansen,") {
		t.Fatalf("body not separated from headers:\n%s", msg)
	}
}

func TestLogSenderAlwaysDelivers(t *testing.T) {
	s := &LogSender{Logger: zerolog.Nop()}
	n := pendingNotification("n-1", domain.NotifyPrenotification)
	if err := s.Send(context.Background(), &n); err != nil {
		t.Fatalf("log sender: %v", err)
	}
}
