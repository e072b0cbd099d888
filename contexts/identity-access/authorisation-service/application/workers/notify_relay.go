package workers

import (
	"context"
	"log/slog"
	"time"

	application "mandate/contexts/identity-access/authorisation-service/application"
	"mandate/contexts/identity-access/authorisation-service/ports"
	"mandate/internal/shared/events"
)

// NotificationPublisher hands pending delegate notifications to the
// messaging bus. Actual email delivery lives outside this repository.
type NotificationPublisher interface {
	PublishDelegateNotification(ctx context.Context, event events.Envelope) error
}

// NotifyRelay polls the notification outbox and publishes pending
// delegate-notification envelopes.
type NotifyRelay struct {
	Outbox    ports.NotificationOutbox
	Publisher NotificationPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r NotifyRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingNotifications(ctx, limit)
	if err != nil {
		logger.Error("notification outbox list failed",
			"event", "notify_outbox_list_failed",
			"module", "identity-access/authorisation-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		envelope := events.Envelope{
			EventID:        row.NotificationID,
			EventType:      "relationship.delegate_notification",
			SourceService:  "authorisation-service",
			OccurredAtUTC:  row.CreatedAt,
			EntityType:     "relationship",
			EntityID:       row.RelationshipID,
			PayloadVersion: 1,
			Payload: map[string]string{
				"email":           row.Email,
				"invitation_code": row.InvitationCode,
			},
		}
		if err := r.Publisher.PublishDelegateNotification(ctx, envelope); err != nil {
			logger.Error("notification publish failed",
				"event", "notify_outbox_publish_failed",
				"module", "identity-access/authorisation-service",
				"layer", "worker",
				"notification_id", row.NotificationID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkNotificationSent(ctx, row.NotificationID, now); err != nil {
			return err
		}
	}
	return nil
}
