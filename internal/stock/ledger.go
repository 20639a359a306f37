package stock

import (
	"context"
	"errors"

	"billmate-backend/internal/models"
)

// Ledger wraps a Store with the business rules of the monthly register:
// carry-forward resolution, field-level role gating and the closing-stock
// invariant.
type Ledger struct {
	store Store

	// enforceAvailability turns on the stock-availability check before a sale.
	// Historically present but disabled; negative closing stock is the default.
	enforceAvailability bool
}

func NewLedger(store Store, enforceAvailability bool) *Ledger {
	return &Ledger{store: store, enforceAvailability: enforceAvailability}
}

// UpsertInput carries the writable ledger fields. Nil means "leave unchanged"
// (or the field's materialization default for a new row). ClosingStock is not
// accepted as input anywhere; it is recomputed on every write.
type UpsertInput struct {
	OpeningStock *int // admin only
	Production   *int
	Sales        *int // admin only
}

func validKey(key Key) error {
	if key.Product == "" || key.Size == "" {
		return errors.New("product and size are required")
	}
	if key.Month < 1 || key.Month > 12 {
		return errors.New("month must be between 1 and 12")
	}
	if key.Year < 1 {
		return errors.New("year is required")
	}
	return nil
}

// Entries returns all rows of a period. Absent rows conceptually mean an
// opening stock of 0 with nothing recorded; they are not materialized by reads.
func (l *Ledger) Entries(ctx context.Context, owner uint, month, year int) ([]models.StockEntry, error) {
	return l.store.List(ctx, owner, month, year)
}

// OpeningFor resolves the opening stock for a period that has no row yet: the
// closing stock of the immediately preceding calendar month, or 0 if that month
// has no row either. If the period already has a row, its stored opening wins;
// openings are materialized once and never recomputed from a later change to
// the prior month.
func (l *Ledger) OpeningFor(ctx context.Context, owner uint, key Key) (int, error) {
	if entry, err := l.store.Get(ctx, owner, key); err == nil {
		return entry.OpeningStock, nil
	} else if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	prev, err := l.store.Get(ctx, owner, key.Prev())
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return prev.ClosingStock, nil
}

// Upsert applies a manual edit to one ledger row, creating it on first touch.
// Opening stock and sales are writable only with the admin capability;
// production may be written by any authenticated caller. Closing stock is
// recomputed before persisting, whatever changed. The returned flag reports
// whether the row was created by this call, so callers emitting change events
// do not need a separate existence check racing the write.
func (l *Ledger) Upsert(ctx context.Context, owner uint, key Key, in UpsertInput, isAdmin bool) (*models.StockEntry, bool, error) {
	if err := validKey(key); err != nil {
		return nil, false, err
	}
	if (in.OpeningStock != nil || in.Sales != nil) && !isAdmin {
		return nil, false, ErrAdminOnly
	}

	entry, err := l.store.Get(ctx, owner, key)
	switch {
	case errors.Is(err, ErrNotFound):
		opening := 0
		if in.OpeningStock != nil {
			opening = *in.OpeningStock
		} else {
			// First materialization: carry the previous month's closing forward.
			opening, err = l.OpeningFor(ctx, owner, key)
			if err != nil {
				return nil, false, err
			}
		}
		entry = &models.StockEntry{
			OwnerID:      owner,
			ProductName:  key.Product,
			Size:         key.Size,
			Month:        key.Month,
			Year:         key.Year,
			OpeningStock: opening,
		}
		if in.Production != nil {
			entry.Production = *in.Production
		}
		if in.Sales != nil {
			entry.Sales = *in.Sales
		}
		entry.Recompute()
		if err := l.store.Create(ctx, entry); err != nil {
			return nil, false, err
		}
		return entry, true, nil

	case err != nil:
		return nil, false, err
	}

	if in.OpeningStock != nil {
		entry.OpeningStock = *in.OpeningStock
	}
	if in.Production != nil {
		entry.Production = *in.Production
	}
	if in.Sales != nil {
		entry.Sales = *in.Sales
	}
	entry.Recompute()
	if err := l.store.Save(ctx, entry); err != nil {
		return nil, false, err
	}
	return entry, false, nil
}

// DeleteProduct removes every size-row of a product across all periods.
// Irreversible; there is no soft delete.
func (l *Ledger) DeleteProduct(ctx context.Context, owner uint, product string) (int64, error) {
	if product == "" {
		return 0, errors.New("product is required")
	}
	return l.store.DeleteProduct(ctx, owner, product)
}
