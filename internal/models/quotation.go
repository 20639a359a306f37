package models

import "time"

type Quotation struct {
	ID           uint   `gorm:"primaryKey"`
	OwnerID      uint   `gorm:"index;not null"`
	Number       string `gorm:"size:20;index;not null"` // "QT-001"
	CustomerID   uint   `gorm:"index;not null"`
	Customer     Customer
	CustomerName string `gorm:"size:100"` // snapshot at creation time
	Date         time.Time `gorm:"index;not null"`
	ValidUntil   *time.Time
	Status       DocumentStatus `gorm:"size:20;not null"`
	Notes        string         `gorm:"size:500"`

	TaxType       string  `gorm:"size:30;not null"` // "IGST_18", "CGST_SGST_18", ...
	TaxMode       string  `gorm:"size:10;not null"` // "inclusive" | "exclusive"
	Complimentary bool    `gorm:"not null;default:false"`
	Subtotal      float64 `gorm:"not null"`
	TaxAmount     float64 `gorm:"not null"`
	GrandTotal    float64 `gorm:"not null"`

	Items []LineItem `gorm:"polymorphic:Parent;polymorphicValue:quotation"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
