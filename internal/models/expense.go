package models

import "time"

type ExpenseEntry struct {
	ID          uint   `gorm:"primaryKey"`
	OwnerID     uint   `gorm:"index;not null"`
	Month       int    `gorm:"index:idx_expense_period;not null"` // 1-12
	Year        int    `gorm:"index:idx_expense_period;not null"`
	Category    string `gorm:"size:100;not null"`
	Description string `gorm:"size:255"`
	Amount      float64 `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
