package domain

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleTasker   UserRole = "tasker"
	RoleAdmin    UserRole = "admin"
)

// Address is carried as structured fields end to end. String renders it
// for display and for the booking location column.
type Address struct {
	Line1    string `json:"line1" gorm:"column:line1;type:varchar(255)" validate:"required,max=255"`
	Line2    string `json:"line2" gorm:"column:line2;type:varchar(255)" validate:"max=255"`
	Postcode string `json:"postcode" gorm:"column:postcode;type:varchar(5)" validate:"required,postcode"`
	City     string `json:"city" gorm:"column:city;type:varchar(100)" validate:"required,max=100"`
	State    string `json:"state" gorm:"column:state;type:varchar(100)" validate:"required,max=100"`
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Line1, a.Line2, a.Postcode, a.City, a.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255)"`
	Name         string    `json:"name" gorm:"type:varchar(255)"`
	Phone        string    `json:"phone,omitempty" gorm:"type:varchar(20)"`
	Role         UserRole  `json:"role" gorm:"type:varchar(20);not null"`
	Address      Address   `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
