package stock

import (
	"context"
	"errors"
	"fmt"

	"billmate-backend/internal/logger"
	"billmate-backend/internal/models"
)

// ApplyInvoice walks the invoice's line items and applies each complete line
// (description, size and a positive quantity) to the ledger as a sales event
// for the invoice's calendar month. Existing rows get an atomic sales
// increment; missing rows are created with opening 0 and a closing of
// -quantity. Closing stock may go negative unless availability enforcement is
// turned on.
//
// Call this inside the same transaction that persists the invoice: a ledger
// failure then rolls the whole invoice back instead of leaving the register
// partially updated.
func (l *Ledger) ApplyInvoice(ctx context.Context, inv *models.Invoice) error {
	month := int(inv.Date.Month())
	year := inv.Date.Year()

	for _, item := range inv.Items {
		if item.Description == "" || item.Size == "" || item.Quantity <= 0 {
			continue
		}

		key := Key{Product: item.Description, Size: item.Size, Month: month, Year: year}

		if l.enforceAvailability {
			available, err := l.availableFor(ctx, inv.OwnerID, key)
			if err != nil {
				return err
			}
			if item.Quantity > available {
				return fmt.Errorf("%w: %s (%s) has %d, invoice needs %d",
					ErrInsufficientStock, key.Product, key.Size, available, item.Quantity)
			}
		}

		if err := l.applySale(ctx, inv.OwnerID, key, item.Quantity); err != nil {
			return fmt.Errorf("apply sale for %s (%s): %w", key.Product, key.Size, err)
		}

		logger.Log.Debug().
			Str("product", key.Product).
			Str("size", key.Size).
			Int("qty", item.Quantity).
			Str("invoice", inv.Number).
			Msg("ledger sale applied")
	}

	return nil
}

func (l *Ledger) applySale(ctx context.Context, owner uint, key Key, qty int) error {
	err := l.store.AddSales(ctx, owner, key, qty)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return err
	}

	entry := &models.StockEntry{
		OwnerID:     owner,
		ProductName: key.Product,
		Size:        key.Size,
		Month:       key.Month,
		Year:        key.Year,
		Sales:       qty,
	}
	entry.Recompute() // opening 0, production 0 -> closing goes to -qty

	err = l.store.Create(ctx, entry)
	if err == nil {
		return nil
	}
	// A concurrent posting may have created the row between the failed
	// increment and our insert; fall back to the increment once more.
	if incErr := l.store.AddSales(ctx, owner, key, qty); incErr == nil {
		return nil
	}
	return err
}

// availableFor is the stock-availability check: the row's current closing
// stock, or the carry-forward opening when the period has no row yet.
func (l *Ledger) availableFor(ctx context.Context, owner uint, key Key) (int, error) {
	entry, err := l.store.Get(ctx, owner, key)
	if err == nil {
		return entry.ClosingStock, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	return l.OpeningFor(ctx, owner, key)
}
