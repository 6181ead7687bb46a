package business

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskhub/internal/database"
	"taskhub/internal/domain"
	"taskhub/internal/domain/catalog"
	"taskhub/internal/middleware"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/jwt"
	"taskhub/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	tasker   = middleware.Actor{UserID: 20, Email: "owner@example.com", Role: "tasker"}
	stranger = middleware.Actor{UserID: 21, Email: "other@example.com", Role: "tasker"}
	admin    = middleware.Actor{UserID: 1, Email: "admin@example.com", Role: "admin"}
)

type fixture struct {
	db   *gorm.DB
	repo *Repository
	svc  *Service
	cat  domain.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)

	cat := domain.Category{Name: "Cleaning"}
	require.NoError(t, db.Create(&cat).Error)

	repo := NewRepository(db)
	return &fixture{
		db:   db,
		repo: repo,
		svc:  NewService(repo, catalog.NewRepository(db), logger.Discard()),
		cat:  cat,
	}
}

func (f *fixture) business(t *testing.T, name string, count int64, listed bool) domain.Business {
	t.Helper()
	b := domain.Business{
		Name:           name,
		Email:          tasker.Email,
		CategoryID:     f.cat.ID,
		Price:          50,
		BookingsCount:  count,
		AdminStatus:    domain.AdminApproved,
		BusinessStatus: domain.BusinessActive,
	}
	if !listed {
		b.AdminStatus = domain.AdminNotApproved
	}
	require.NoError(t, f.db.Create(&b).Error)
	return b
}

func (f *fixture) rate(t *testing.T, businessID int64, slot string, rating int) {
	t.Helper()
	require.NoError(t, f.db.Create(&domain.Booking{
		BusinessID: businessID,
		UserEmail:  "jane@example.com",
		CategoryID: f.cat.ID,
		Date:       "2025-03-10",
		Time:       slot,
		Location:   "12 Jalan Ampang",
		Status:     domain.BookingCompleted,
		Rating:     rating,
		CaptureID:  "chrg_" + uuid.NewString(),
	}).Error)
}

func createRequest(f *fixture) CreateRequest {
	return CreateRequest{
		Name:  "  Sparkle Cleaners ",
		About: "Deep cleaning",
		Address: domain.Address{
			Line1:    "12 Jalan Ampang",
			Postcode: "50450",
			City:     "Kuala Lumpur",
			State:    "WP Kuala Lumpur",
		},
		Phone:      "012-345 6789",
		CategoryID: f.cat.ID,
		Price:      80,
	}
}

func requireCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	appErr := apperr.From(err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, status, appErr.HTTPStatus)
}

func TestCreate_PendingApproval(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), middleware.Actor{Email: "Owner@Example.com", Role: "tasker"}, createRequest(f))
	require.NoError(t, err)
	assert.Equal(t, "Sparkle Cleaners", b.Name)
	assert.Equal(t, "owner@example.com", b.Email)
	assert.Equal(t, "+60123456789", b.Phone)
	assert.Equal(t, "12 Jalan Ampang, 50450, Kuala Lumpur, WP Kuala Lumpur", b.Address)
	assert.Equal(t, domain.AdminNotApproved, b.AdminStatus)
	assert.Equal(t, domain.BusinessActive, b.BusinessStatus)
	assert.Equal(t, []string{}, b.Images)

	// Not listed until approved.
	_, err = f.svc.Details(context.Background(), nil, b.ID)
	requireCode(t, err, apperr.CodeNotFound, http.StatusNotFound)

	got, err := f.svc.Details(context.Background(), &tasker, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestCreate_Invalid(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{"missing name", func(r *CreateRequest) { r.Name = "  " }},
		{"zero price", func(r *CreateRequest) { r.Price = 0 }},
		{"bad postcode", func(r *CreateRequest) { r.Address.Postcode = "ABCDE" }},
		{"bad phone", func(r *CreateRequest) { r.Phone = "12" }},
		{"unknown category", func(r *CreateRequest) { r.CategoryID = 9999 }},
		{"bad image url", func(r *CreateRequest) { r.Images = []string{"not a url"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createRequest(f)
			tt.mutate(&req)
			_, err := f.svc.Create(context.Background(), tasker, req)
			requireCode(t, err, apperr.CodeValidation, http.StatusBadRequest)
		})
	}
}

func TestTop_OrderedByBookingsAndRated(t *testing.T) {
	f := newFixture(t)
	quiet := f.business(t, "Quiet", 1, true)
	busy := f.business(t, "Busy", 9, true)
	f.business(t, "Hidden", 50, false)
	for i := 0; i < 6; i++ {
		f.business(t, "Filler", 0, true)
	}

	f.rate(t, busy.ID, "9:00 AM", 5)
	f.rate(t, busy.ID, "10:00 AM", 4)
	f.rate(t, busy.ID, "11:00 AM", 4)
	f.rate(t, busy.ID, "1:00 PM", 0)

	top, err := f.svc.Top(context.Background())
	require.NoError(t, err)
	require.Len(t, top, TopLimit)
	assert.Equal(t, busy.ID, top[0].ID)
	assert.Equal(t, 4.3, top[0].AverageRating)
	assert.Equal(t, int64(3), top[0].TotalRatings)
	assert.Equal(t, quiet.ID, top[1].ID)
	assert.Zero(t, top[1].TotalRatings)
	for _, b := range top {
		assert.NotEqual(t, "Hidden", b.Name)
	}
}

func TestByCategory(t *testing.T) {
	f := newFixture(t)
	b := f.business(t, "Sparkle", 2, true)

	listing, err := f.svc.ByCategory(context.Background(), f.cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cleaning", listing.Category.Name)
	require.Len(t, listing.Businesses, 1)
	assert.Equal(t, b.ID, listing.Businesses[0].ID)

	_, err = f.svc.ByCategory(context.Background(), 9999)
	requireCode(t, err, apperr.CodeNotFound, http.StatusNotFound)
}

func TestUpdate_ResetsApproval(t *testing.T) {
	f := newFixture(t)
	b := f.business(t, "Sparkle", 0, true)

	price := 120.0
	name := "Sparkle Plus"
	got, err := f.svc.Update(context.Background(), tasker, b.ID, UpdateRequest{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Sparkle Plus", got.Name)
	assert.Equal(t, 120.0, got.Price)
	assert.Equal(t, domain.AdminNotApproved, got.AdminStatus)

	_, err = f.svc.Update(context.Background(), stranger, b.ID, UpdateRequest{Name: &name})
	requireCode(t, err, apperr.CodeForbidden, http.StatusForbidden)

	zero := 0.0
	_, err = f.svc.Update(context.Background(), tasker, b.ID, UpdateRequest{Price: &zero})
	requireCode(t, err, apperr.CodeValidation, http.StatusBadRequest)

	_, err = f.svc.Update(context.Background(), tasker, b.ID, UpdateRequest{})
	requireCode(t, err, apperr.CodeValidation, http.StatusBadRequest)

	_, err = f.svc.Update(context.Background(), tasker, 9999, UpdateRequest{Name: &name})
	requireCode(t, err, apperr.CodeNotFound, http.StatusNotFound)
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	b := f.business(t, "Sparkle", 0, true)

	got, err := f.svc.SetStatus(context.Background(), tasker, b.ID, StatusRequest{Status: domain.BusinessInactive})
	require.NoError(t, err)
	assert.Equal(t, domain.BusinessInactive, got.BusinessStatus)

	top, err := f.svc.Top(context.Background())
	require.NoError(t, err)
	assert.Empty(t, top)

	_, err = f.svc.SetStatus(context.Background(), stranger, b.ID, StatusRequest{Status: domain.BusinessActive})
	requireCode(t, err, apperr.CodeForbidden, http.StatusForbidden)

	_, err = f.svc.SetStatus(context.Background(), admin, b.ID, StatusRequest{Status: domain.BusinessActive})
	require.NoError(t, err)

	_, err = f.svc.SetStatus(context.Background(), tasker, b.ID, StatusRequest{Status: "paused"})
	requireCode(t, err, apperr.CodeValidation, http.StatusBadRequest)
}

func TestMine(t *testing.T) {
	f := newFixture(t)
	f.business(t, "Listed", 0, true)
	f.business(t, "Pending", 0, false)

	mine, err := f.svc.Mine(context.Background(), tasker)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := f.svc.Mine(context.Background(), stranger)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHandler_Routes(t *testing.T) {
	f := newFixture(t)
	listed := f.business(t, "Sparkle", 3, true)
	pending := f.business(t, "Pending", 0, false)

	gin.SetMode(gin.TestMode)
	tokens := jwt.New("business-secret", time.Hour)
	h := NewHandler(f.svc, logger.Discard())
	r := gin.New()
	api := r.Group("/api/v1")
	h.RegisterPublicRoutes(api, middleware.OptionalAuth(tokens))
	h.RegisterProtectedRoutes(api.Group("", middleware.JWTAuth(tokens)))

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	ownerToken, _ := tokens.GenerateToken(tasker.UserID, tasker.Email, tasker.Role)
	customerToken, _ := tokens.GenerateToken(10, "jane@example.com", "customer")

	w := do(http.MethodGet, "/api/v1/businesses/top", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Data struct {
			Businesses []domain.BusinessWithRating `json:"businesses"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	top := env.Data
	require.Len(t, top.Businesses, 1)
	assert.Equal(t, listed.ID, top.Businesses[0].ID)

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/v1/businesses?category_id=1", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/api/v1/businesses", "", "").Code)

	path := "/api/v1/businesses/" + jsonID(pending.ID)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, path, "", "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, path, ownerToken, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/api/v1/businesses/abc", "", "").Code)

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/v1/businesses/mine", ownerToken, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/v1/businesses/mine", "", "").Code)

	body := `{"name":"New Co","address":{"line1":"1 Jalan","postcode":"50450","city":"KL","state":"WP"},"category_id":1,"price":40}`
	assert.Equal(t, http.StatusForbidden, do(http.MethodPost, "/api/v1/businesses", customerToken, body).Code)
	assert.Equal(t, http.StatusCreated, do(http.MethodPost, "/api/v1/businesses", ownerToken, body).Code)

	w = do(http.MethodPatch, "/api/v1/businesses/"+jsonID(listed.ID)+"/status", ownerToken, `{"status":"inactive"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPatch, "/api/v1/businesses/"+jsonID(listed.ID), ownerToken, `{`).Code)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
