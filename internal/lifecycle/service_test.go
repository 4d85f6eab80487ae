package lifecycle

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/example/irequest/internal/auth"
	"github.com/example/irequest/internal/models"
	"github.com/example/irequest/internal/mq"
	"github.com/example/irequest/internal/repository"
	"github.com/example/irequest/internal/seed"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Department{},
		&models.Role{},
		&models.User{},
		&models.Status{},
		&models.Priority{},
		&models.Workflow{},
		&models.WorkflowStep{},
		&models.Request{},
		&models.RequestStepHistory{},
		&models.RequestApproval{},
		&models.Comment{},
		&models.Notification{},
		&models.ChatMessage{},
	)
	require.NoError(t, err)
	require.NoError(t, seed.Run(db))
	return db
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []mq.Event
}

func (p *fakePublisher) Publish(_ context.Context, event mq.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	repo     *repository.RequestRepository
	statuses *models.StatusSet
	events   *fakePublisher
}

func setupService(t *testing.T, strict bool) *fixture {
	t.Helper()
	db := setupDB(t)
	statuses, err := models.ResolveStatusSet(db)
	require.NoError(t, err)

	repo := repository.NewRequestRepository(db, statuses)
	events := &fakePublisher{}
	svc := NewService(db, repo, statuses, events, zap.NewNop(), strict)
	return &fixture{db: db, svc: svc, repo: repo, statuses: statuses, events: events}
}

func createUser(t *testing.T, db *gorm.DB, username string) uuid.UUID {
	t.Helper()
	user := &models.User{Username: username, FullName: username}
	require.NoError(t, db.Create(user).Error)
	return user.ID
}

func (f *fixture) priorityID(t *testing.T) uint {
	t.Helper()
	var p models.Priority
	require.NoError(t, f.db.First(&p, "name = ?", "Trung bình").Error)
	return p.ID
}

func (f *fixture) createRequest(t *testing.T, creator uuid.UUID, assignee *uuid.UUID, draft bool) *models.Request {
	t.Helper()
	req := &models.Request{
		Title:          "Cấp lại thẻ ra vào",
		Description:    "Thẻ bị mất",
		PriorityID:     f.priorityID(t),
		AssignedUserID: assignee,
	}
	actor := auth.Context{UserID: creator}
	require.NoError(t, f.svc.Create(context.Background(), actor, req, draft))
	return req
}

func (f *fixture) historyCount(t *testing.T, requestID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.RequestStepHistory{}).Where("request_id = ?", requestID).Count(&count).Error)
	return count
}

func TestDraftVisibilityAndPublish(t *testing.T) {
	f := setupService(t, false)
	ctx := context.Background()
	userA := createUser(t, f.db, "an.nguyen")
	admin := auth.Context{UserID: createUser(t, f.db, "admin"), IsAdmin: true}

	req := f.createRequest(t, userA, nil, true)

	t.Run("draft appears only in the owner's drafts view", func(t *testing.T) {
		drafts, err := f.repo.ListDrafts(ctx, userA)
		require.NoError(t, err)
		assert.Len(t, drafts, 1)

		count, err := f.repo.CountDrafts(ctx, userA)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		visible, err := f.repo.ListVisible(ctx, admin, 100)
		require.NoError(t, err)
		assert.Empty(t, visible)

		total, err := f.repo.CountVisible(ctx, admin)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("draft detail is hidden even from admins", func(t *testing.T) {
		_, err := f.svc.Get(ctx, admin, req.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := f.svc.Get(ctx, auth.Context{UserID: userA}, req.ID)
		require.NoError(t, err)
		assert.Equal(t, req.ID, got.ID)
	})

	t.Run("publish moves the draft into the general listing", func(t *testing.T) {
		require.NoError(t, f.svc.PublishDraft(ctx, req.ID, userA))

		found, err := f.repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, f.statuses.ID(models.StatusNew), found.StatusID)

		visible, err := f.repo.ListVisible(ctx, admin, 100)
		require.NoError(t, err)
		assert.Len(t, visible, 1)

		count, err := f.repo.CountDrafts(ctx, userA)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("publishing writes no history row", func(t *testing.T) {
		assert.Zero(t, f.historyCount(t, req.ID))
	})
}

func TestPublishDraftNonOwnerIsNoOp(t *testing.T) {
	f := setupService(t, false)
	ctx := context.Background()
	userA := createUser(t, f.db, "an.nguyen")
	userB := createUser(t, f.db, "binh.tran")

	req := f.createRequest(t, userA, nil, true)

	err := f.svc.PublishDraft(ctx, req.ID, userB)
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := f.repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, f.statuses.ID(models.StatusDraft), found.StatusID, "non-owner publish must not touch the row")
}

func TestCanProcess(t *testing.T) {
	f := setupService(t, false)
	ctx := context.Background()
	creator := createUser(t, f.db, "an.nguyen")
	assignee := createUser(t, f.db, "binh.tran")
	stranger := createUser(t, f.db, "chi.le")
	adminID := createUser(t, f.db, "admin")

	req := f.createRequest(t, creator, &assignee, false)

	cases := []struct {
		name string
		user uuid.UUID
		want bool
	}{
		{"creator", creator, true},
		{"assignee", assignee, true},
		{"stranger", stranger, false},
		{"admin without assignment", adminID, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.svc.CanProcess(ctx, req.ID, tc.user)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("missing request", func(t *testing.T) {
		_, err := f.svc.CanProcess(ctx, 99999, creator)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("updates row and history together", func(t *testing.T) {
		f := setupService(t, false)
		creator := createUser(t, f.db, "an.nguyen")
		req := f.createRequest(t, creator, nil, false)
		actor := auth.Context{UserID: creator}

		target := f.statuses.ID(models.StatusInProgress)
		require.NoError(t, f.svc.UpdateStatus(ctx, actor, req.ID, target, "bắt đầu"))

		found, err := f.repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, target, found.StatusID)

		entries, err := f.repo.History(ctx, req.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, target, entries[0].StatusID)
		assert.Equal(t, "bắt đầu", entries[0].Note)
	})

	t.Run("permissive mode accepts any transition", func(t *testing.T) {
		f := setupService(t, false)
		creator := createUser(t, f.db, "an.nguyen")
		req := f.createRequest(t, creator, nil, false)
		actor := auth.Context{UserID: creator}

		err := f.svc.UpdateStatus(ctx, actor, req.ID, f.statuses.ID(models.StatusCompleted), "")
		assert.NoError(t, err)
	})

	t.Run("strict mode rejects illegal transition without touching anything", func(t *testing.T) {
		f := setupService(t, true)
		creator := createUser(t, f.db, "an.nguyen")
		req := f.createRequest(t, creator, nil, false)
		actor := auth.Context{UserID: creator}

		err := f.svc.UpdateStatus(ctx, actor, req.ID, f.statuses.ID(models.StatusCompleted), "")
		assert.ErrorIs(t, err, ErrValidation)

		found, err := f.repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, f.statuses.ID(models.StatusNew), found.StatusID)
		assert.Zero(t, f.historyCount(t, req.ID))
	})

	t.Run("strict mode allows legal chain", func(t *testing.T) {
		f := setupService(t, true)
		creator := createUser(t, f.db, "an.nguyen")
		req := f.createRequest(t, creator, nil, false)
		actor := auth.Context{UserID: creator}

		require.NoError(t, f.svc.StartProcessing(ctx, actor, req.ID))
		require.NoError(t, f.svc.UpdateStatus(ctx, actor, req.ID, f.statuses.ID(models.StatusCompleted), "xong"))
	})

	t.Run("unknown status id fails validation", func(t *testing.T) {
		f := setupService(t, false)
		creator := createUser(t, f.db, "an.nguyen")
		req := f.createRequest(t, creator, nil, false)
		actor := auth.Context{UserID: creator}

		err := f.svc.UpdateStatus(ctx, actor, req.ID, 99999, "")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("non-participant is forbidden", func(t *testing.T) {
		f := setupService(t, false)
		creator := createUser(t, f.db, "an.nguyen")
		stranger := createUser(t, f.db, "chi.le")
		req := f.createRequest(t, creator, nil, false)

		err := f.svc.UpdateStatus(ctx, auth.Context{UserID: stranger}, req.ID, f.statuses.ID(models.StatusInProgress), "")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Zero(t, f.historyCount(t, req.ID))
	})
}

func TestApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("assignee approves", func(t *testing.T) {
		f := setupService(t, false)
		creator := createUser(t, f.db, "an.nguyen")
		assignee := createUser(t, f.db, "binh.tran")
		req := f.createRequest(t, creator, &assignee, false)

		require.NoError(t, f.svc.Approve(ctx, auth.Context{UserID: assignee}, req.ID, "đồng ý"))

		found, err := f.repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.True(t, found.IsApproved)
		// Legacy behavior: approval logs a "Hoàn thành" history row but the
		// request keeps its current status.
		assert.Equal(t, f.statuses.ID(models.StatusNew), found.StatusID)

		approvals, err := f.repo.Approvals(ctx, req.ID)
		require.NoError(t, err)
		require.Len(t, approvals, 1)
		assert.Equal(t, assignee, approvals[0].ApproverID)

		entries, err := f.repo.History(ctx, req.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, f.statuses.ID(models.StatusCompleted), entries[0].StatusID)

		assert.Contains(t, f.events.names(), "request.approved")
	})

	t.Run("outsider is rejected with no writes", func(t *testing.T) {
		f := setupService(t, false)
		creator := createUser(t, f.db, "an.nguyen")
		assignee := createUser(t, f.db, "binh.tran")
		stranger := createUser(t, f.db, "chi.le")
		req := f.createRequest(t, creator, &assignee, false)

		err := f.svc.Approve(ctx, auth.Context{UserID: stranger}, req.ID, "")
		assert.ErrorIs(t, err, ErrForbidden)

		found, err := f.repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.False(t, found.IsApproved)

		approvals, err := f.repo.Approvals(ctx, req.ID)
		require.NoError(t, err)
		assert.Empty(t, approvals)
		assert.Zero(t, f.historyCount(t, req.ID))
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()

	t.Run("empty note fails before any database write", func(t *testing.T) {
		f := setupService(t, false)
		creator := createUser(t, f.db, "an.nguyen")
		req := f.createRequest(t, creator, nil, false)

		for _, note := range []string{"", "   ", "\t\n"} {
			err := f.svc.Reject(ctx, auth.Context{UserID: creator}, req.ID, note)
			assert.ErrorIs(t, err, ErrValidation)
		}
		assert.Zero(t, f.historyCount(t, req.ID))
	})

	t.Run("valid note moves to rejected with prefixed history", func(t *testing.T) {
		f := setupService(t, false)
		creator := createUser(t, f.db, "an.nguyen")
		req := f.createRequest(t, creator, nil, false)

		require.NoError(t, f.svc.Reject(ctx, auth.Context{UserID: creator}, req.ID, "thiếu thông tin"))

		found, err := f.repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, f.statuses.ID(models.StatusRejected), found.StatusID)

		entries, err := f.repo.History(ctx, req.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Rejected by user: thiếu thông tin", entries[0].Note)
	})
}

func TestGetVisibility(t *testing.T) {
	f := setupService(t, false)
	ctx := context.Background()
	creator := createUser(t, f.db, "an.nguyen")
	assignee := createUser(t, f.db, "binh.tran")
	stranger := createUser(t, f.db, "chi.le")
	adminID := createUser(t, f.db, "admin")

	req := f.createRequest(t, creator, &assignee, false)

	for _, tc := range []struct {
		name  string
		actor auth.Context
		ok    bool
	}{
		{"creator", auth.Context{UserID: creator}, true},
		{"assignee", auth.Context{UserID: assignee}, true},
		{"admin", auth.Context{UserID: adminID, IsAdmin: true}, true},
		{"stranger", auth.Context{UserID: stranger}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Get(ctx, tc.actor, req.ID)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestConcurrentStartProcessing(t *testing.T) {
	f := setupService(t, false)
	ctx := context.Background()
	creator := createUser(t, f.db, "an.nguyen")
	assignee := createUser(t, f.db, "binh.tran")
	req := f.createRequest(t, creator, &assignee, false)

	// Two actors race the same transition. Each call is its own transaction;
	// both must succeed and both history rows must persist.
	require.NoError(t, f.svc.StartProcessing(ctx, auth.Context{UserID: creator}, req.ID))
	require.NoError(t, f.svc.StartProcessing(ctx, auth.Context{UserID: assignee}, req.ID))

	found, err := f.repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, f.statuses.ID(models.StatusInProgress), found.StatusID)
	assert.Equal(t, int64(2), f.historyCount(t, req.ID))

	entries, err := f.repo.History(ctx, req.ID)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.Equal(t, "Request processing started", entry.Note)
	}
}
