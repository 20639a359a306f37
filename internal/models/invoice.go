package models

import "time"

type Invoice struct {
	ID           uint   `gorm:"primaryKey"`
	OwnerID      uint   `gorm:"index;not null"`
	Number       string `gorm:"size:20;index;not null"` // "INV-001", assigned once, never reassigned
	CustomerID   uint   `gorm:"index;not null"`
	Customer     Customer
	CustomerName string `gorm:"size:100"` // snapshot at creation time
	Date         time.Time `gorm:"index;not null"`
	DueDate      *time.Time `gorm:"index"`
	Status       DocumentStatus `gorm:"size:20;not null"`
	Notes        string         `gorm:"size:500"`

	// QuotationID links back to the converted quotation, if any.
	QuotationID *uint `gorm:"index"`

	TaxType       string  `gorm:"size:30;not null"`
	TaxMode       string  `gorm:"size:10;not null"`
	Complimentary bool    `gorm:"not null;default:false"`
	Subtotal      float64 `gorm:"not null"`
	TaxAmount     float64 `gorm:"not null"`
	GrandTotal    float64 `gorm:"not null"`

	Items    []LineItem `gorm:"polymorphic:Parent;polymorphicValue:invoice"`
	Payments []Payment  `gorm:"foreignKey:InvoiceID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Payment struct {
	ID        uint `gorm:"primaryKey"`
	OwnerID   uint `gorm:"index;not null"`
	InvoiceID uint `gorm:"index;not null"`
	Date      time.Time `gorm:"not null"`
	Amount    float64   `gorm:"not null"`
	Method    string    `gorm:"size:30"` // cash, bank, upi, ...
	Reference string    `gorm:"size:100"`
	Notes     string    `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
