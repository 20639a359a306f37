package invoice

import (
	"context"
	"errors"
	"time"

	"billmate-backend/internal/config"
	"billmate-backend/internal/docnum"
	"billmate-backend/internal/feed"
	"billmate-backend/internal/finance"
	"billmate-backend/internal/logger"
	"billmate-backend/internal/models"
	"billmate-backend/internal/stock"

	"gorm.io/gorm"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrNoValidItems     = errors.New("invoice needs at least one valid line item")
)

// CreateInput is everything needed to cut a new invoice.
type CreateInput struct {
	OwnerID       uint
	CustomerID    uint
	Date          time.Time
	DueDate       *time.Time
	Notes         string
	TaxType       string
	TaxMode       string
	Complimentary bool
	Items         []finance.Line
	QuotationID   *uint
}

// Create persists a new invoice and applies its line items to the stock ledger
// in one transaction: a ledger failure rolls the invoice back rather than
// leaving the register partially updated. The document number is drawn inside
// the same transaction. The change event is broadcast only after commit.
func Create(ctx context.Context, db *gorm.DB, cfg *config.Config, pub *feed.Publisher, in CreateInput) (*models.Invoice, error) {
	items := finance.ValidLines(in.Items)
	if len(items) == 0 {
		return nil, ErrNoValidItems
	}

	var cust models.Customer
	if err := db.WithContext(ctx).
		Where("owner_id = ?", in.OwnerID).
		First(&cust, "id = ?", in.CustomerID).Error; err != nil {
		return nil, ErrCustomerNotFound
	}

	totals := finance.Compute(items, in.TaxType, in.TaxMode, in.Complimentary)

	inv := &models.Invoice{
		OwnerID:       in.OwnerID,
		CustomerID:    cust.ID,
		CustomerName:  cust.Name,
		Date:          in.Date,
		DueDate:       in.DueDate,
		Status:        models.StatusUnpaid,
		Notes:         in.Notes,
		QuotationID:   in.QuotationID,
		TaxType:       in.TaxType,
		TaxMode:       in.TaxMode,
		Complimentary: in.Complimentary,
		Subtotal:      totals.Subtotal,
		TaxAmount:     totals.TaxAmount,
		GrandTotal:    totals.GrandTotal,
		Items:         buildLineItems(items),
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := docnum.Next(tx, cfg.StrictNumbering, "invoices", &models.Invoice{}, docnum.InvoicePrefix)
		if err != nil {
			return err
		}
		inv.Number = number

		if err := tx.Create(inv).Error; err != nil {
			return err
		}

		ledger := stock.NewLedger(stock.NewGormStore(tx), cfg.EnforceStockAvailability)
		return ledger.ApplyInvoice(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	if err := pub.Publish(ctx, nil, feed.TableInvoices, feed.ActionInsert, inv.OwnerID, inv.ID, inv); err != nil {
		logger.Log.Error().Err(err).Str("number", inv.Number).Msg("invoice change event not recorded")
	}

	return inv, nil
}

func buildLineItems(items []finance.Line) []models.LineItem {
	out := make([]models.LineItem, 0, len(items))
	for i, it := range items {
		out = append(out, models.LineItem{
			Position:    i + 1,
			Description: it.Description,
			Size:        it.Size,
			Quantity:    it.Quantity,
			Rate:        it.Rate,
			Amount:      float64(it.Quantity) * it.Rate,
		})
	}
	return out
}
