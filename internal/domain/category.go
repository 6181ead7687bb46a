package domain

type Category struct {
	ID   int64  `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	Icon string `json:"icon,omitempty" gorm:"type:text"`
}
