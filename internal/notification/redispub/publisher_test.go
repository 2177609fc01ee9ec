package redispub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestPublisher(t *testing.T) (*Publisher, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPublisher(client, ""), client
}

func TestPublishAlertReachesSubscriber(t *testing.T) {
	pub, client := newTestPublisher(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, DefaultChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	msg := AlertMessage{
		AlertID:     uuid.New(),
		LeadID:      uuid.New(),
		LeadName:    "Jessica Park",
		Trigger:     "high_intent_purchase",
		Priority:    "critical",
		Message:     "Jessica Park is ready to buy",
		IntentScore: 92,
		Stage:       "purchase",
		RaisedAt:    time.Now().UTC().Truncate(time.Second),
	}
	receivers, err := pub.PublishAlert(ctx, msg)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if receivers != 1 {
		t.Fatalf("expected one receiver, got %d", receivers)
	}

	got, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	var decoded AlertMessage
	if err := json.Unmarshal([]byte(got.Payload), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.AlertID != msg.AlertID || decoded.Priority != "critical" || !decoded.RaisedAt.Equal(msg.RaisedAt) {
		t.Fatalf("unexpected message %+v", decoded)
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	pub, _ := newTestPublisher(t)

	receivers, err := pub.PublishAlert(context.Background(), AlertMessage{AlertID: uuid.New()})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if receivers != 0 {
		t.Fatalf("expected zero receivers, got %d", receivers)
	}
}

func TestNewClientParsesURL(t *testing.T) {
	client, err := NewClient("redis://:secret@localhost:6380/2", false)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	opts := client.Options()
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}

	if _, err := NewClient("://bad", false); err == nil {
		t.Fatalf("expected parse error")
	}
}
