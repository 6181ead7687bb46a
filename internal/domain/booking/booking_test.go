package booking

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"taskhub/internal/database"
	"taskhub/internal/domain"
	"taskhub/internal/events"
	"taskhub/internal/middleware"
	"taskhub/internal/payment"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	customerEmail = "jane@example.com"
	ownerMail     = "owner@example.com"
	testDate      = "2025-03-10"
)

var (
	customer = middleware.Actor{UserID: 10, Email: customerEmail, Role: "customer"}
	owner    = middleware.Actor{UserID: 20, Email: ownerMail, Role: "tasker"}
	admin    = middleware.Actor{UserID: 1, Email: "admin@example.com", Role: "admin"}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db   *gorm.DB
	repo *Repository
	gw   *payment.MemoryGateway
	pub  *recordingPublisher
	svc  *Service
	biz  domain.Business
	logs *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)

	cat := domain.Category{Name: "Cleaning"}
	require.NoError(t, db.Create(&cat).Error)
	biz := domain.Business{
		Name:           "Sparkle Cleaners",
		Email:          ownerMail,
		CategoryID:     cat.ID,
		Price:          80,
		AdminStatus:    domain.AdminApproved,
		BusinessStatus: domain.BusinessActive,
	}
	require.NoError(t, db.Create(&biz).Error)

	var logs bytes.Buffer
	log := logger.New(logger.Config{Output: &logs, Level: logger.LevelDebug})

	repo := NewRepository(db)
	gw := payment.NewMemoryGateway()
	pub := &recordingPublisher{}
	return &fixture{
		db:   db,
		repo: repo,
		gw:   gw,
		pub:  pub,
		svc:  NewService(repo, gw, pub, nil, log),
		biz:  biz,
		logs: &logs,
	}
}

func (f *fixture) authorize(t *testing.T) string {
	t.Helper()
	return f.authorizeFor(t, f.biz.ID, payment.ToMinorUnits(f.biz.Price))
}

func (f *fixture) authorizeFor(t *testing.T, businessID, amount int64) string {
	t.Helper()
	ch, err := f.gw.Authorize(context.Background(), payment.AuthorizeRequest{
		Amount:   amount,
		Currency: "myr",
		Token:    "tok_visa",
		Metadata: map[string]any{"business_id": fmt.Sprint(businessID)},
	})
	require.NoError(t, err)
	return ch.Reference
}

func (f *fixture) request(t *testing.T, date, label string) CreateRequest {
	t.Helper()
	return CreateRequest{
		BusinessID: idValue(fmt.Sprint(f.biz.ID)),
		UserEmail:  strPtr(customerEmail),
		CategoryID: idValue(fmt.Sprint(f.biz.CategoryID)),
		Date:       strPtr(date),
		Time:       strPtr(label),
		Location: &domain.Address{
			Line1:    "12 Jalan Ampang",
			Postcode: "50450",
			City:     "Kuala Lumpur",
			State:    "WP Kuala Lumpur",
		},
		Status:    strPtr("incompleted"),
		CaptureID: strPtr(f.authorize(t)),
	}
}

func (f *fixture) book(t *testing.T, date, label string) *domain.Booking {
	t.Helper()
	b, err := f.svc.Create(context.Background(), customer, f.request(t, date, label))
	require.NoError(t, err)
	return b
}

func (f *fixture) bookingsCount(t *testing.T) int64 {
	t.Helper()
	var biz domain.Business
	require.NoError(t, f.db.First(&biz, f.biz.ID).Error)
	return biz.BookingsCount
}

func strPtr(s string) *string { return &s }

func idValue(s string) *IDValue {
	v := IDValue(s)
	return &v
}

func requireCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	appErr := apperr.From(err)
	assert.Equal(t, code, appErr.Code, "error: %v", err)
	assert.Equal(t, status, appErr.HTTPStatus)
}

// blindChecker skips the advisory duplicate checks so creates reach the
// indexes, the way two interleaved requests both pass them.
type blindChecker struct {
	*Repository
}

func (blindChecker) SlotTaken(context.Context, int64, string, string) (bool, error) {
	return false, nil
}

func (blindChecker) CaptureInUse(context.Context, string) (bool, error) {
	return false, nil
}
