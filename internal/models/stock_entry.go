package models

import "time"

// StockEntry is the closing inventory for one product variant in one calendar
// month. Unique per (owner, product, size, month, year). ClosingStock must equal
// OpeningStock + Production - Sales after every write; it is always recomputed,
// never accepted from input.
type StockEntry struct {
	ID          uint   `gorm:"primaryKey"`
	OwnerID     uint   `gorm:"uniqueIndex:idx_stock_period;not null"`
	ProductName string `gorm:"size:100;uniqueIndex:idx_stock_period;not null"`
	Size        string `gorm:"size:20;uniqueIndex:idx_stock_period;not null"`
	Month       int    `gorm:"uniqueIndex:idx_stock_period;not null"` // 1-12
	Year        int    `gorm:"uniqueIndex:idx_stock_period;not null"`

	OpeningStock int `gorm:"not null"`
	Production   int `gorm:"not null"`
	Sales        int `gorm:"not null"`
	ClosingStock int `gorm:"not null"` // may go negative

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recompute restores the ledger invariant on the row.
func (e *StockEntry) Recompute() {
	e.ClosingStock = e.OpeningStock + e.Production - e.Sales
}
