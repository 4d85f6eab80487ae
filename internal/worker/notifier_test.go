package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/example/irequest/internal/models"
	"github.com/example/irequest/internal/mq"
	"github.com/example/irequest/internal/repository"
	"github.com/example/irequest/internal/seed"
)

type staticConsumer struct {
	events []mq.Event
}

func (c *staticConsumer) Consume(handler func(mq.Event)) error {
	for _, event := range c.events {
		handler(event)
	}
	return nil
}

type notifierFixture struct {
	db            *gorm.DB
	statuses      *models.StatusSet
	requests      *repository.RequestRepository
	notifications *repository.NotificationRepository
}

func setupNotifier(t *testing.T) *notifierFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	err = db.AutoMigrate(
		&models.Department{},
		&models.Role{},
		&models.User{},
		&models.Status{},
		&models.Priority{},
		&models.Request{},
		&models.Notification{},
	)
	require.NoError(t, err)
	require.NoError(t, seed.Run(db))

	statuses, err := models.ResolveStatusSet(db)
	require.NoError(t, err)
	return &notifierFixture{
		db:            db,
		statuses:      statuses,
		requests:      repository.NewRequestRepository(db, statuses),
		notifications: repository.NewNotificationRepository(db),
	}
}

func (f *notifierFixture) user(t *testing.T, username string) uuid.UUID {
	t.Helper()
	u := &models.User{Username: username, FullName: username}
	require.NoError(t, f.db.Create(u).Error)
	return u.ID
}

func (f *notifierFixture) request(t *testing.T, creator uuid.UUID, assignee *uuid.UUID) *models.Request {
	t.Helper()
	var priority models.Priority
	require.NoError(t, f.db.First(&priority, "name = ?", "Trung bình").Error)
	req := &models.Request{
		Title:          "Cấp lại thẻ ra vào",
		CreatorID:      creator,
		AssignedUserID: assignee,
		StatusID:       f.statuses.ID(models.StatusNew),
		PriorityID:     priority.ID,
	}
	require.NoError(t, f.requests.Create(context.Background(), req))
	return req
}

func (f *notifierFixture) notifier(consumer Consumer) *Notifier {
	return NewNotifier(consumer, f.requests, f.notifications, nil, nil, zap.NewNop())
}

func TestNotifierFanOut(t *testing.T) {
	f := setupNotifier(t)
	ctx := context.Background()

	creator := f.user(t, "an.nguyen")
	assignee := f.user(t, "binh.tran")
	req := f.request(t, creator, &assignee)

	// The creator triggered the event, so only the assignee is notified.
	f.notifier(nil).Handle(ctx, mq.Event{
		Name:      "request.status_changed",
		RequestID: req.ID,
		ActorID:   creator.String(),
		Title:     req.Title,
	})

	forAssignee, err := f.notifications.ListByUser(ctx, assignee, 10)
	require.NoError(t, err)
	require.Len(t, forAssignee, 1)
	assert.Equal(t, "Yêu cầu đã được cập nhật", forAssignee[0].Title)
	assert.Contains(t, forAssignee[0].Body, req.Title)

	forCreator, err := f.notifications.CountUnread(ctx, creator)
	require.NoError(t, err)
	assert.Zero(t, forCreator)
}

func TestNotifierAssigneeActs(t *testing.T) {
	f := setupNotifier(t)
	ctx := context.Background()

	creator := f.user(t, "an.nguyen")
	assignee := f.user(t, "binh.tran")
	req := f.request(t, creator, &assignee)

	f.notifier(nil).Handle(ctx, mq.Event{
		Name:      "request.approved",
		RequestID: req.ID,
		ActorID:   assignee.String(),
		Title:     req.Title,
	})

	forCreator, err := f.notifications.ListByUser(ctx, creator, 10)
	require.NoError(t, err)
	require.Len(t, forCreator, 1)
	assert.Equal(t, "Yêu cầu đã được phê duyệt", forCreator[0].Title)
}

func TestNotifierUnknownRequest(t *testing.T) {
	f := setupNotifier(t)

	f.notifier(nil).Handle(context.Background(), mq.Event{
		Name:      "request.status_changed",
		RequestID: 4242,
		ActorID:   uuid.New().String(),
	})

	var count int64
	require.NoError(t, f.db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNotifierRunDrainsConsumer(t *testing.T) {
	f := setupNotifier(t)

	creator := f.user(t, "an.nguyen")
	assignee := f.user(t, "binh.tran")
	req := f.request(t, creator, &assignee)

	consumer := &staticConsumer{events: []mq.Event{
		{Name: "request.submitted", RequestID: req.ID, ActorID: creator.String(), Title: req.Title},
		{Name: "request.assigned", RequestID: req.ID, ActorID: creator.String(), Title: req.Title},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.notifier(consumer).Run(ctx) }()

	require.Eventually(t, func() bool {
		count, err := f.notifications.CountUnread(context.Background(), assignee)
		return err == nil && count == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
