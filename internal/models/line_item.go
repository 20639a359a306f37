package models

// ParentType values for LineItem.
const (
	ParentQuotation = "quotation"
	ParentInvoice   = "invoice"
)

// LineItem is one line of a quotation or invoice. Amount is always recomputed
// from Quantity×Rate before persisting; a client-supplied amount is never trusted.
type LineItem struct {
	ID          uint    `gorm:"primaryKey"`
	ParentType  string  `gorm:"size:20;index:idx_line_items_parent;not null"`
	ParentID    uint    `gorm:"index:idx_line_items_parent;not null"`
	Position    int     `gorm:"not null"`
	Description string  `gorm:"size:255"`
	Size        string  `gorm:"size:20"`
	Quantity    int     `gorm:"not null"`
	Rate        float64 `gorm:"not null"`
	Amount      float64 `gorm:"not null"`
}
