package review

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"taskhub/internal/database"
	"taskhub/internal/domain"
	"taskhub/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seed(t *testing.T) (*gorm.DB, domain.Business, domain.Business) {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)

	cat := domain.Category{Name: "Cleaning"}
	require.NoError(t, db.Create(&cat).Error)
	listed := domain.Business{Name: "Sparkle", Email: "owner@example.com", CategoryID: cat.ID, Price: 50,
		AdminStatus: domain.AdminApproved, BusinessStatus: domain.BusinessActive}
	hidden := domain.Business{Name: "Hidden", Email: "owner@example.com", CategoryID: cat.ID, Price: 50,
		AdminStatus: domain.AdminNotApproved, BusinessStatus: domain.BusinessActive}
	require.NoError(t, db.Create(&listed).Error)
	require.NoError(t, db.Create(&hidden).Error)
	require.NoError(t, db.Create(&domain.User{Email: "jane@example.com", Name: "Jane Tan", Role: domain.RoleCustomer}).Error)

	add := func(biz domain.Business, email, slot string, rating int, text string) {
		require.NoError(t, db.Create(&domain.Booking{
			BusinessID: biz.ID,
			UserEmail:  email,
			CategoryID: cat.ID,
			Date:       "2025-03-10",
			Time:       slot,
			Location:   "12 Jalan Ampang",
			Status:     domain.BookingCompleted,
			Rating:     rating,
			Review:     text,
			CaptureID:  "chrg_" + uuid.NewString(),
		}).Error)
	}
	add(listed, "jane@example.com", "9:00 AM", 4, "Good job")
	add(listed, "guest@example.com", "10:00 AM", 5, "Spotless")
	add(listed, "jane@example.com", "11:00 AM", 3, "")
	add(listed, "jane@example.com", "1:00 PM", 0, "unrated")
	add(listed, "jane@example.com", "2:00 PM", 2, "Late")
	add(listed, "jane@example.com", "3:00 PM", 1, "Messy")
	add(hidden, "jane@example.com", "9:00 AM", 5, "Hidden praise")
	return db, listed, hidden
}

func TestForBusiness(t *testing.T) {
	db, listed, _ := seed(t)
	repo := NewRepository(db)

	list, err := repo.ForBusiness(context.Background(), listed.ID, BusinessLimit)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Spotless", list[0].Review)
	assert.Equal(t, "guest", list[0].CustomerName)
	assert.Equal(t, "Jane Tan", list[1].CustomerName)
	assert.Equal(t, "Sparkle", list[1].BusinessName)
	assert.Equal(t, "Late", list[2].Review)
}

func TestFeatured_OnlyListedBusinesses(t *testing.T) {
	db, _, _ := seed(t)
	repo := NewRepository(db)

	list, err := repo.Featured(context.Background(), FeaturedLimit)
	require.NoError(t, err)
	require.Len(t, list, 4)
	for _, r := range list {
		assert.NotEqual(t, "Hidden praise", r.Review)
		assert.NotZero(t, r.Rating)
		assert.NotEmpty(t, r.Review)
	}
}

func TestHandler(t *testing.T) {
	db, listed, _ := seed(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewRepository(db), logger.Discard()).RegisterRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reviews", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Spotless")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/businesses/"+itoa(listed.ID)+"/reviews", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/businesses/x/reviews", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
