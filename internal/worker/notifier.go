package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/irequest/internal/cache"
	"github.com/example/irequest/internal/models"
	"github.com/example/irequest/internal/mq"
	"github.com/example/irequest/internal/repository"
	"github.com/example/irequest/internal/webhook"
)

// Consumer delivers decoded request events to a handler.
type Consumer interface {
	Consume(handler func(mq.Event)) error
}

// Notifier fans request events out into per-user notification rows and an
// optional outbound webhook. It is the only background job in the process.
type Notifier struct {
	consumer      Consumer
	requests      *repository.RequestRepository
	notifications *repository.NotificationRepository
	counters      *cache.Counters
	webhook       *webhook.Client
	log           *zap.Logger
}

// NewNotifier wires the notifier. webhook may be nil.
func NewNotifier(consumer Consumer, requests *repository.RequestRepository, notifications *repository.NotificationRepository, counters *cache.Counters, hook *webhook.Client, log *zap.Logger) *Notifier {
	return &Notifier{
		consumer:      consumer,
		requests:      requests,
		notifications: notifications,
		counters:      counters,
		webhook:       hook,
		log:           log,
	}
}

// Run starts consuming and blocks until the context is cancelled. It should
// be launched in its own goroutine.
func (n *Notifier) Run(ctx context.Context) error {
	if err := n.consumer.Consume(func(event mq.Event) { n.Handle(ctx, event) }); err != nil {
		return err
	}
	<-ctx.Done()
	n.log.Info("notifier shutting down")
	return nil
}

// Handle processes one event: a notification row per interested user, then
// the webhook. Failures are logged, never retried.
func (n *Notifier) Handle(ctx context.Context, event mq.Event) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, userID := range n.recipients(ctx, event) {
		notification := &models.Notification{
			UserID: userID,
			Title:  eventTitle(event.Name),
			Body:   notificationBody(event),
		}
		if err := n.notifications.Create(ctx, notification); err != nil {
			n.log.Warn("create notification failed", zap.Uint("request_id", event.RequestID), zap.Error(err))
			continue
		}
		n.counters.InvalidateUnread(ctx, userID)
	}

	if err := n.webhook.Send(ctx, event); err != nil {
		n.log.Warn("webhook delivery failed", zap.String("event", event.Name), zap.Error(err))
	}
}

// recipients lists the users interested in the event: creator and assignee,
// minus the actor who triggered it.
func (n *Notifier) recipients(ctx context.Context, event mq.Event) []uuid.UUID {
	req, err := n.requests.FindByID(ctx, event.RequestID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			n.log.Warn("load request for notification failed", zap.Uint("request_id", event.RequestID), zap.Error(err))
		}
		return nil
	}

	actorID, _ := uuid.Parse(event.ActorID)
	var out []uuid.UUID
	if req.CreatorID != actorID {
		out = append(out, req.CreatorID)
	}
	if req.AssignedUserID != nil && *req.AssignedUserID != actorID && *req.AssignedUserID != req.CreatorID {
		out = append(out, *req.AssignedUserID)
	}
	return out
}

func eventTitle(name string) string {
	switch name {
	case "request.created", "request.submitted":
		return "Yêu cầu mới"
	case "request.assigned":
		return "Bạn được giao xử lý yêu cầu"
	case "request.approved":
		return "Yêu cầu đã được phê duyệt"
	case "request.rejected":
		return "Yêu cầu đã bị từ chối"
	default:
		return "Yêu cầu đã được cập nhật"
	}
}

func notificationBody(event mq.Event) string {
	if event.Title != "" {
		return fmt.Sprintf("#%d %s", event.RequestID, event.Title)
	}
	return fmt.Sprintf("#%d", event.RequestID)
}
