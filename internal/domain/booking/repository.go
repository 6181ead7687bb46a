package booking

import (
	"context"
	"errors"

	"taskhub/internal/database"
	"taskhub/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Create stores a validated booking. The customer upsert, the insert and
// the business counter bump commit together or not at all.
func (r *Repository) Create(ctx context.Context, d Draft) (*domain.Booking, error) {
	var created domain.Booking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userID, err := upsertCustomer(tx, d.UserEmail, d.Location)
		if err != nil {
			return err
		}

		created = domain.Booking{
			BusinessID: d.BusinessID,
			UserID:     userID,
			UserEmail:  d.UserEmail,
			CategoryID: d.CategoryID,
			Date:       d.Date,
			Time:       d.Time,
			Location:   d.Location.String(),
			Status:     domain.BookingIncompleted,
			Rating:     0,
			Review:     "",
			CaptureID:  d.CaptureID,
		}
		if err := tx.Create(&created).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return errDuplicate
			}
			return err
		}

		res := tx.Model(&domain.Business{}).
			Where("id = ?", d.BusinessID).
			UpdateColumn("bookings_count", gorm.Expr("bookings_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBusinessNotFound
		}
		return nil
	})
	if errors.Is(err, errDuplicate) {
		return nil, r.duplicateCause(ctx, d.CaptureID)
	}
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// duplicateCause tells which unique index rejected the insert. Both drivers
// report a bare duplicate key, so the capture is looked up once the losing
// transaction has rolled back. A capture held by another booking wins over
// a slot clash.
func (r *Repository) duplicateCause(ctx context.Context, captureID string) error {
	used, err := r.CaptureInUse(ctx, captureID)
	if err != nil {
		return err
	}
	if used {
		return ErrCaptureInUse
	}
	return ErrSlotTaken
}

func upsertCustomer(tx *gorm.DB, email string, addr domain.Address) (int64, error) {
	user := domain.User{Email: email, Role: domain.RoleCustomer, Address: addr}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"address_line1", "address_line2", "address_postcode", "address_city", "address_state", "updated_at",
		}),
	}).Create(&user).Error
	if err != nil {
		return 0, err
	}

	// The conflict branch does not report the existing id on every driver.
	var id int64
	if err := tx.Model(&domain.User{}).Where("email = ?", email).Pluck("id", &id).Error; err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).
		Preload("Business").
		Preload("Category").
		First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) GetBusiness(ctx context.Context, id int64) (*domain.Business, error) {
	var biz domain.Business
	err := r.db.WithContext(ctx).First(&biz, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBusinessNotFound
	}
	if err != nil {
		return nil, err
	}
	return &biz, nil
}

// FindOccupiedSlots returns the stored time labels of every non-cancelled
// booking of the business on date, in no particular order.
func (r *Repository) FindOccupiedSlots(ctx context.Context, businessID int64, date string) ([]string, error) {
	var times []string
	err := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("business_id = ? AND date = ? AND status <> ?", businessID, date, domain.BookingCancelled).
		Pluck("time", &times).Error
	return times, err
}

func (r *Repository) SlotTaken(ctx context.Context, businessID int64, date, label string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("business_id = ? AND date = ? AND time = ? AND status <> ?", businessID, date, label, domain.BookingCancelled).
		Count(&count).Error
	return count > 0, err
}

// CaptureInUse reports whether a booking already holds the capture reference.
func (r *Repository) CaptureInUse(ctx context.Context, captureID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("capture_id = ?", captureID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) MarkCompleted(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.transition(ctx, id, domain.BookingCompleted)
}

// MarkCancelled is reserved for the cancellation engine, which settles the
// refund before calling it.
func (r *Repository) MarkCancelled(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.transition(ctx, id, domain.BookingCancelled)
}

func (r *Repository) transition(ctx context.Context, id int64, to domain.BookingStatus) (*domain.Booking, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ? AND status = ?", id, domain.BookingIncompleted).
		Update("status", to)
	if res.Error != nil {
		return nil, res.Error
	}

	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}
	return b, nil
}

// SetRating rates a completed booking once.
func (r *Repository) SetRating(ctx context.Context, id int64, rating int, review string) (*domain.Booking, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	res := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ? AND status = ? AND rating = 0", id, domain.BookingCompleted).
		Updates(map[string]any{"rating": rating, "review": review})
	if res.Error != nil {
		return nil, res.Error
	}

	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		if b.Status != domain.BookingCompleted {
			return nil, ErrNotRateable
		}
		return nil, ErrAlreadyRated
	}
	return b, nil
}

func (r *Repository) ListByUser(ctx context.Context, email string, tab Tab) ([]domain.Booking, error) {
	q := r.listQuery(ctx, tab).Where("bookings.user_email = ?", email)
	return r.find(q)
}

func (r *Repository) ListByBusiness(ctx context.Context, businessID int64, tab Tab) ([]domain.Booking, error) {
	q := r.listQuery(ctx, tab).Where("bookings.business_id = ?", businessID)
	return r.find(q)
}

// ListByOwnerEmail returns the bookings of every business owned by email.
func (r *Repository) ListByOwnerEmail(ctx context.Context, email string, tab Tab) ([]domain.Booking, error) {
	q := r.listQuery(ctx, tab).
		Joins("JOIN businesses ON businesses.id = bookings.business_id").
		Where("businesses.email = ?", email)
	return r.find(q)
}

func (r *Repository) listQuery(ctx context.Context, tab Tab) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Preload("Business").
		Preload("Category").
		Order("bookings.created_at DESC, bookings.id DESC")
	if status := tab.Status(); status != "" {
		q = q.Where("bookings.status = ?", status)
	}
	return q
}

func (r *Repository) find(q *gorm.DB) ([]domain.Booking, error) {
	out := make([]domain.Booking, 0)
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
