package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lead_intel_backend/internal/email"
	"lead_intel_backend/internal/events"
	"lead_intel_backend/internal/notification/redispub"
	"lead_intel_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type testConfig struct {
	recipients []string
}

func (c testConfig) GetAlertEmailRecipients() []string { return c.recipients }
func (testConfig) GetAppBaseURL() string               { return "https://dash.example.com" }

type testSender struct {
	mu    sync.Mutex
	calls []email.AlertEmail
	err   error
}

func (s *testSender) SendAlertEmail(_ context.Context, _ []string, alert email.AlertEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, alert)
	return s.err
}

type testPublisher struct {
	msgs []redispub.AlertMessage
	err  error
}

func (p *testPublisher) PublishAlert(_ context.Context, msg redispub.AlertMessage) (int64, error) {
	p.msgs = append(p.msgs, msg)
	return 1, p.err
}

func alertEvent(priority string) events.AlertRaised {
	return events.AlertRaised{
		BaseEvent:   events.NewBaseEvent(),
		AlertID:     uuid.New(),
		LeadID:      uuid.New(),
		LeadName:    "Jessica Park",
		Trigger:     "high_intent_purchase",
		Priority:    priority,
		Message:     "Jessica Park is ready to buy",
		IntentScore: 92,
		Stage:       "purchase",
	}
}

func TestCriticalAlertSendsEmailAndPublishes(t *testing.T) {
	sender := &testSender{}
	pub := &testPublisher{}
	m := New(nil, pub, sender, testConfig{recipients: []string{"sales@example.com"}}, logger.Nop())

	e := alertEvent("critical")
	if err := m.Handle(context.Background(), e); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(pub.msgs) != 1 || pub.msgs[0].AlertID != e.AlertID {
		t.Fatalf("expected one published message, got %+v", pub.msgs)
	}
	if len(sender.calls) != 1 {
		t.Fatalf("expected one e-mail, got %d", len(sender.calls))
	}
	if want := "https://dash.example.com/leads/" + e.LeadID.String(); sender.calls[0].LeadURL != want {
		t.Fatalf("expected lead url %q, got %q", want, sender.calls[0].LeadURL)
	}
}

func TestNonCriticalAlertSkipsEmail(t *testing.T) {
	sender := &testSender{}
	m := New(nil, &testPublisher{}, sender, testConfig{recipients: []string{"sales@example.com"}}, logger.Nop())

	if err := m.Handle(context.Background(), alertEvent("high")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.calls) != 0 {
		t.Fatalf("expected no e-mail for high priority, got %d", len(sender.calls))
	}
}

func TestFanOutErrorsAreJoined(t *testing.T) {
	sender := &testSender{err: errors.New("smtp down")}
	pub := &testPublisher{err: errors.New("redis down")}
	m := New(nil, pub, sender, testConfig{recipients: []string{"sales@example.com"}}, logger.Nop())

	err := m.Handle(context.Background(), alertEvent("critical"))
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, sender.err) || !errors.Is(err, pub.err) {
		t.Fatalf("expected both failures joined, got %v", err)
	}
}

func TestAlertRaisedThroughBusReachesRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub := client.Subscribe(ctx, "alerts-test")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	bus := events.NewInMemoryBus(logger.Nop())
	m := New(nil, redispub.NewPublisher(client, "alerts-test"), nil, testConfig{}, logger.Nop())
	m.RegisterHandlers(bus)

	e := alertEvent("critical")
	if err := bus.PublishSync(ctx, e); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if msg.Channel != "alerts-test" || msg.Payload == "" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestLeadIngestedIsBroadcastOnly(t *testing.T) {
	pub := &testPublisher{}
	m := New(nil, pub, nil, testConfig{}, logger.Nop())

	err := m.Handle(context.Background(), events.LeadIngested{BaseEvent: events.NewBaseEvent(), LeadID: uuid.New()})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Fatalf("expected nothing published for ingestion events")
	}
}
