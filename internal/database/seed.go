package database

import (
	"context"
	"errors"
	"fmt"

	"taskhub/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var DefaultCategories = []domain.Category{
	{Name: "Cleaning", Icon: "/icons/cleaning.svg"},
	{Name: "Handyman", Icon: "/icons/handyman.svg"},
	{Name: "Event Planning", Icon: "/icons/event-planning.svg"},
	{Name: "Personal", Icon: "/icons/personal.svg"},
}

type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	// Demo adds a tasker with one approved listing per category.
	Demo bool
}

type SeedResult struct {
	Categories int
	Admin      bool
	Businesses int
}

// Seed is idempotent: existing categories, users and listings are kept.
func Seed(ctx context.Context, db *gorm.DB, opts SeedOptions) (*SeedResult, error) {
	res := &SeedResult{}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range DefaultCategories {
			c := c
			q := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&c)
			if q.Error != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, q.Error)
			}
			res.Categories += int(q.RowsAffected)
		}

		if opts.AdminEmail != "" && opts.AdminPassword != "" {
			created, err := ensureUser(tx, opts.AdminEmail, opts.AdminPassword, "Administrator", domain.RoleAdmin)
			if err != nil {
				return err
			}
			res.Admin = created
		}

		if !opts.Demo {
			return nil
		}

		const taskerEmail = "tasker@taskhub.local"
		if _, err := ensureUser(tx, taskerEmail, "tasker123", "Demo Tasker", domain.RoleTasker); err != nil {
			return err
		}

		var categories []domain.Category
		if err := tx.Order("id").Find(&categories).Error; err != nil {
			return err
		}
		for i, c := range categories {
			b := domain.Business{
				Name:           fmt.Sprintf("%s Pros", c.Name),
				About:          fmt.Sprintf("Reliable %s services.", c.Name),
				Address:        "12 Jalan Ampang, 50450, Kuala Lumpur, Wilayah Persekutuan",
				ContactPerson:  "Demo Tasker",
				Email:          taskerEmail,
				CategoryID:     c.ID,
				Price:          float64(50 + i*25),
				Images:         []string{},
				AdminStatus:    domain.AdminApproved,
				BusinessStatus: domain.BusinessActive,
			}
			var existing int64
			if err := tx.Model(&domain.Business{}).
				Where("name = ? AND email = ?", b.Name, taskerEmail).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}
			if err := tx.Create(&b).Error; err != nil {
				return fmt.Errorf("seed business %s: %w", b.Name, err)
			}
			res.Businesses++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func ensureUser(tx *gorm.DB, email, password, name string, role domain.UserRole) (bool, error) {
	var existing domain.User
	err := tx.Where("email = ?", email).Take(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	u := domain.User{Email: email, PasswordHash: string(hash), Name: name, Role: role}
	if err := tx.Create(&u).Error; err != nil {
		return false, fmt.Errorf("seed user %s: %w", email, err)
	}
	return true, nil
}
