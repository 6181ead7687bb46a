package business

import "taskhub/internal/domain"

type CreateRequest struct {
	Name          string         `json:"name" validate:"required,min=2,max=255"`
	About         string         `json:"about" validate:"max=5000"`
	Address       domain.Address `json:"address"`
	ContactPerson string         `json:"contact_person" validate:"max=255"`
	Phone         string         `json:"phone" validate:"omitempty,max=32"`
	CategoryID    int64          `json:"category_id" validate:"required,gt=0"`
	Price         float64        `json:"price" validate:"required,gt=0"`
	Images        []string       `json:"images" validate:"max=10,dive,url"`
}

// UpdateRequest carries the editable listing fields. Any change sends the
// listing back to admin review.
type UpdateRequest struct {
	Name    *string         `json:"name" validate:"omitempty,min=2,max=255"`
	About   *string         `json:"about" validate:"omitempty,max=5000"`
	Address *domain.Address `json:"address"`
	Price   *float64        `json:"price" validate:"omitempty,gt=0"`
}

func (r UpdateRequest) empty() bool {
	return r.Name == nil && r.About == nil && r.Address == nil && r.Price == nil
}

type StatusRequest struct {
	Status domain.BusinessStatus `json:"status" validate:"required,oneof=active inactive"`
}

type CategoryListing struct {
	Category   domain.Category             `json:"category"`
	Businesses []domain.BusinessWithRating `json:"businesses"`
}
