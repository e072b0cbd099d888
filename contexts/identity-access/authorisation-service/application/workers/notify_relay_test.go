package workers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mandate/contexts/identity-access/authorisation-service/ports"
	"mandate/internal/shared/events"
)

type stubOutbox struct {
	pending []ports.NotificationMessage
	sent    map[string]time.Time
}

func (s *stubOutbox) EnqueueNotification(_ context.Context, message ports.NotificationMessage) error {
	s.pending = append(s.pending, message)
	return nil
}

func (s *stubOutbox) ListPendingNotifications(_ context.Context, limit int) ([]ports.NotificationMessage, error) {
	var rows []ports.NotificationMessage
	for _, message := range s.pending {
		if _, ok := s.sent[message.NotificationID]; ok {
			continue
		}
		rows = append(rows, message)
		if limit > 0 && len(rows) == limit {
			break
		}
	}
	return rows, nil
}

func (s *stubOutbox) MarkNotificationSent(_ context.Context, notificationID string, sentAt time.Time) error {
	if s.sent == nil {
		s.sent = make(map[string]time.Time)
	}
	s.sent[notificationID] = sentAt
	return nil
}

type stubPublisher struct {
	published []events.Envelope
	fail      bool
}

func (p *stubPublisher) PublishDelegateNotification(_ context.Context, event events.Envelope) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, event)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func TestRunOncePublishesAndAcknowledges(t *testing.T) {
	createdAt := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	outbox := &stubOutbox{pending: []ports.NotificationMessage{
		{
			NotificationID: "n-1",
			RelationshipID: "r-1",
			Email:          "jane@example.com",
			InvitationCode: "ABCD2345",
			CreatedAt:      createdAt,
		},
	}}
	publisher := &stubPublisher{}
	relay := NotifyRelay{
		Outbox:    outbox,
		Publisher: publisher,
		Clock:     fixedClock{now: createdAt.Add(time.Minute)},
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 envelope, got %d", len(publisher.published))
	}
	envelope := publisher.published[0]
	if envelope.EventID != "n-1" || envelope.EntityID != "r-1" {
		t.Fatalf("envelope identifiers wrong: %+v", envelope)
	}
	payload, ok := envelope.Payload.(map[string]string)
	if !ok {
		t.Fatalf("unexpected payload type %T", envelope.Payload)
	}
	if payload["email"] != "jane@example.com" || payload["invitation_code"] != "ABCD2345" {
		t.Fatalf("envelope payload wrong: %+v", payload)
	}
	if !envelope.OccurredAtUTC.Equal(createdAt) {
		t.Fatalf("expected occurred-at to carry the enqueue time")
	}

	sentAt, ok := outbox.sent["n-1"]
	if !ok {
		t.Fatalf("expected notification acknowledged")
	}
	if !sentAt.Equal(createdAt.Add(time.Minute)) {
		t.Fatalf("expected clock time as sent-at, got %v", sentAt)
	}
}

func TestRunOnceLeavesRowPendingWhenPublishFails(t *testing.T) {
	outbox := &stubOutbox{pending: []ports.NotificationMessage{
		{NotificationID: "n-1", RelationshipID: "r-1", Email: "jane@example.com"},
	}}
	relay := NotifyRelay{Outbox: outbox, Publisher: &stubPublisher{fail: true}}

	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected publish error to surface")
	}
	if len(outbox.sent) != 0 {
		t.Fatalf("failed publish must not acknowledge the row")
	}
}

func TestRunOnceDefaultsBatchSize(t *testing.T) {
	outbox := &stubOutbox{}
	for i := 0; i < 150; i++ {
		_ = outbox.EnqueueNotification(context.Background(), ports.NotificationMessage{
			NotificationID: fmt.Sprintf("n-%d", i),
		})
	}
	publisher := &stubPublisher{}
	relay := NotifyRelay{Outbox: outbox, Publisher: publisher}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(publisher.published) != 100 {
		t.Fatalf("expected default batch of 100, got %d", len(publisher.published))
	}
}
