package models

import "time"

type Customer struct {
	ID      uint   `gorm:"primaryKey"`
	OwnerID uint   `gorm:"index;not null"`
	Name    string `gorm:"size:100;not null" validate:"required,max=100"`
	Email   string `gorm:"size:100" validate:"omitempty,email"`
	Phone   string `gorm:"size:20" validate:"omitempty,min=7,max=15,numeric"`
	Address string `gorm:"size:255" validate:"max=255"`
	GSTIN   string `gorm:"size:20" validate:"max=20"`
	Notes   string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
