package models

// DocumentSequence is the atomic counter behind strict document numbering.
// One row per document table ("invoices", "quotations").
type DocumentSequence struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:30;uniqueIndex;not null"`
	Value int64  `gorm:"not null"`
}
