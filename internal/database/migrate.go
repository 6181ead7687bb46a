package database

import (
	"errors"
	"fmt"
	"strings"

	"taskhub/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ActiveSlotIndex rejects a second non-cancelled booking for the same
// business, date and time. Cancelled rows drop out so the slot frees up.
const ActiveSlotIndex = "idx_bookings_active_slot"

const createActiveSlotIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ` + ActiveSlotIndex + `
	ON bookings (business_id, "date", "time")
	WHERE status <> 'cancelled'`

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Category{},
		&domain.User{},
		&domain.Business{},
		&domain.Booking{},
		&domain.Refund{},
		&domain.Favorite{},
		&domain.Notification{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	if err := db.Exec(createActiveSlotIndex).Error; err != nil {
		return fmt.Errorf("create %s: %w", ActiveSlotIndex, err)
	}
	return nil
}

// IsUniqueViolation recognises unique-constraint failures from both drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key")
}
