// Package stock implements the monthly stock ledger: one row per
// (product, size, month, year) with closing = opening + production - sales,
// cross-month carry-forward, and the invoice coordinator that applies invoice
// lines as sales events.
package stock

import (
	"context"
	"errors"

	"billmate-backend/internal/models"
)

var (
	ErrNotFound          = errors.New("stock entry not found")
	ErrAdminOnly         = errors.New("opening stock and sales are admin-only fields")
	ErrInsufficientStock = errors.New("insufficient stock for sale")
)

// Key identifies one ledger row within an owner's ledger.
type Key struct {
	Product string
	Size    string
	Month   int // 1-12
	Year    int
}

// Prev returns the key for the immediately preceding calendar month,
// wrapping January back into the previous year.
func (k Key) Prev() Key {
	p := k
	p.Month--
	if p.Month < 1 {
		p.Month = 12
		p.Year--
	}
	return p
}

// Store is the persistence boundary of the ledger. AddSales must be an atomic
// increment at the storage level, not read-modify-write, so concurrent invoice
// postings against the same row cannot lose updates.
type Store interface {
	Get(ctx context.Context, owner uint, key Key) (*models.StockEntry, error)
	List(ctx context.Context, owner uint, month, year int) ([]models.StockEntry, error)
	Create(ctx context.Context, entry *models.StockEntry) error
	Save(ctx context.Context, entry *models.StockEntry) error
	AddSales(ctx context.Context, owner uint, key Key, qty int) error
	DeleteProduct(ctx context.Context, owner uint, product string) (int64, error)
}
