package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskhub/internal/database"
	"taskhub/internal/domain"
	"taskhub/internal/domain/business"
	"taskhub/internal/events"
	"taskhub/internal/middleware"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/jwt"
	"taskhub/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

/* ==================== MOCKS ==================== */

type MockBusinessRepository struct {
	mock.Mock
}

func (m *MockBusinessRepository) GetByID(ctx context.Context, id int64) (*domain.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Business), args.Error(1)
}

func (m *MockBusinessRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *MockBusinessRepository) ListAll(ctx context.Context, status domain.AdminStatus) ([]domain.Business, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Business), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, evt events.Event) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockPublisher) Close() error { return nil }

var adminActor = middleware.Actor{UserID: 1, Email: "admin@example.com", Role: "admin"}

/* ==================== MODERATION ==================== */

func TestApprove_EmitsEvent(t *testing.T) {
	repo := new(MockBusinessRepository)
	pub := new(MockPublisher)
	svc := NewService(repo, nil, pub, nil, logger.Discard())

	pending := &domain.Business{ID: 7, Email: "owner@example.com", AdminStatus: domain.AdminNotApproved}
	repo.On("GetByID", mock.Anything, int64(7)).Return(pending, nil)
	repo.On("Update", mock.Anything, int64(7), map[string]any{"admin_status": domain.AdminApproved}).Return(nil)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(evt events.Event) bool {
		p, ok := evt.Payload.(events.BusinessPayload)
		return evt.Type == events.BusinessApproved && ok && p.BusinessID == 7 && p.OwnerEmail == "owner@example.com"
	})).Return(nil).Once()

	b, err := svc.Approve(context.Background(), adminActor, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.AdminApproved, b.AdminStatus)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestApprove_AlreadyApproved(t *testing.T) {
	repo := new(MockBusinessRepository)
	pub := new(MockPublisher)
	svc := NewService(repo, nil, pub, nil, logger.Discard())

	repo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Business{ID: 7, AdminStatus: domain.AdminApproved}, nil)

	_, err := svc.Approve(context.Background(), adminActor, 7)
	require.NoError(t, err)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestApprove_Errors(t *testing.T) {
	repo := new(MockBusinessRepository)
	svc := NewService(repo, nil, nil, nil, logger.Discard())

	repo.On("GetByID", mock.Anything, int64(404)).Return(nil, business.ErrNotFound)
	repo.On("GetByID", mock.Anything, int64(500)).Return(nil, errors.New("disk full"))

	_, err := svc.Approve(context.Background(), adminActor, 404)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)

	_, err = svc.Approve(context.Background(), adminActor, 500)
	assert.Equal(t, apperr.CodeStore, apperr.From(err).Code)
}

func TestReject_NoEvent(t *testing.T) {
	repo := new(MockBusinessRepository)
	pub := new(MockPublisher)
	svc := NewService(repo, nil, pub, nil, logger.Discard())

	repo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Business{ID: 7, AdminStatus: domain.AdminApproved}, nil)
	repo.On("Update", mock.Anything, int64(7), map[string]any{"admin_status": domain.AdminNotApproved}).Return(nil)

	b, err := svc.Reject(context.Background(), adminActor, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.AdminNotApproved, b.AdminStatus)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestParseStatus(t *testing.T) {
	for raw, want := range map[string]domain.AdminStatus{
		"":         "",
		"all":      "",
		"pending":  domain.AdminNotApproved,
		"approved": domain.AdminApproved,
	} {
		got, ok := ParseStatus(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := ParseStatus("rejected")
	assert.False(t, ok)
}

/* ==================== STATS ==================== */

func TestStats(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)

	cat := domain.Category{Name: "Cleaning"}
	require.NoError(t, db.Create(&cat).Error)
	require.NoError(t, db.Create(&domain.User{Email: "jane@example.com", Role: domain.RoleCustomer}).Error)
	require.NoError(t, db.Create(&domain.User{Email: "owner@example.com", Role: domain.RoleTasker}).Error)

	biz := domain.Business{Name: "Sparkle", Email: "owner@example.com", CategoryID: cat.ID, Price: 80,
		AdminStatus: domain.AdminApproved, BusinessStatus: domain.BusinessActive}
	pending := domain.Business{Name: "Pending", Email: "owner@example.com", CategoryID: cat.ID, Price: 30,
		AdminStatus: domain.AdminNotApproved, BusinessStatus: domain.BusinessActive}
	require.NoError(t, db.Create(&biz).Error)
	require.NoError(t, db.Create(&pending).Error)

	add := func(slot string, status domain.BookingStatus, created time.Time) {
		require.NoError(t, db.Create(&domain.Booking{
			BusinessID: biz.ID,
			UserEmail:  "jane@example.com",
			CategoryID: cat.ID,
			Date:       "2025-03-10",
			Time:       slot,
			Location:   "12 Jalan Ampang",
			Status:     status,
			CaptureID:  "chrg_" + uuid.NewString(),
			CreatedAt:  created,
		}).Error)
	}
	add("9:00 AM", domain.BookingCompleted, time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC))
	add("10:00 AM", domain.BookingIncompleted, time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC))
	add("11:00 AM", domain.BookingCancelled, time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC))
	// Older than the six month window.
	add("1:00 PM", domain.BookingCompleted, time.Date(2024, 8, 20, 10, 0, 0, 0, time.UTC))

	svc := NewService(business.NewRepository(db), NewStatsRepository(db), nil, time.UTC, logger.Discard())
	svc.now = func() time.Time { return time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC) }

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Customers)
	assert.Equal(t, int64(1), stats.Taskers)
	assert.Equal(t, int64(2), stats.Businesses)
	assert.Equal(t, int64(1), stats.PendingBusinesses)
	assert.Equal(t, int64(4), stats.Bookings)
	assert.Equal(t, int64(2), stats.CompletedBookings)
	assert.Equal(t, int64(1), stats.CancelledBookings)
	assert.Equal(t, int64(1), stats.IncompletedBookings)
	assert.Equal(t, 240.0, stats.Revenue)

	require.Len(t, stats.Monthly, statsMonths)
	assert.Equal(t, "2024-10", stats.Monthly[0].Month)
	assert.Equal(t, "2025-02", stats.Monthly[4].Month)
	assert.Equal(t, int64(1), stats.Monthly[4].Bookings)
	assert.Zero(t, stats.Monthly[4].Revenue)
	assert.Equal(t, "2025-03", stats.Monthly[5].Month)
	assert.Equal(t, int64(2), stats.Monthly[5].Bookings)
	assert.Equal(t, 160.0, stats.Monthly[5].Revenue)
}

func TestHandler_AdminOnly(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	tokens := jwt.New("admin-secret", time.Hour)
	svc := NewService(business.NewRepository(db), NewStatsRepository(db), nil, time.UTC, logger.Discard())
	r := gin.New()
	NewHandler(svc, logger.Discard()).RegisterRoutes(r.Group("/api/v1/admin", middleware.JWTAuth(tokens), middleware.AdminOnly()))

	get := func(path, token string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	adminToken, _ := tokens.GenerateToken(1, "admin@example.com", "admin")
	taskerToken, _ := tokens.GenerateToken(2, "owner@example.com", "tasker")

	assert.Equal(t, http.StatusOK, get("/api/v1/admin/stats", adminToken))
	assert.Equal(t, http.StatusOK, get("/api/v1/admin/businesses?status=pending", adminToken))
	assert.Equal(t, http.StatusBadRequest, get("/api/v1/admin/businesses?status=bogus", adminToken))
	assert.Equal(t, http.StatusForbidden, get("/api/v1/admin/stats", taskerToken))
}
