package invoice

import (
	"errors"
	"time"

	"billmate-backend/internal/auth"
	"billmate-backend/internal/config"
	"billmate-backend/internal/database"
	"billmate-backend/internal/feed"
	"billmate-backend/internal/finance"
	"billmate-backend/internal/logger"
	"billmate-backend/internal/models"
	"billmate-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LineItemRequest struct {
	Description string  `json:"description"`
	Size        string  `json:"size"`
	Quantity    int     `json:"quantity"`
	Rate        float64 `json:"rate"`
}

type CreateInvoiceRequest struct {
	CustomerID    uint              `json:"customer_id"`
	Date          string            `json:"date"` // "2025-03-15"
	DueDate       string            `json:"due_date"`
	Notes         string            `json:"notes"`
	TaxType       string            `json:"tax_type"`
	TaxMode       string            `json:"tax_mode"`
	Complimentary bool              `json:"complimentary"`
	Items         []LineItemRequest `json:"items"`
}

type UpdateStatusRequest struct {
	Status models.DocumentStatus `json:"status"`
}

type CreatePaymentRequest struct {
	Date      string  `json:"date"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Reference string  `json:"reference"`
	Notes     string  `json:"notes"`
}

func toLines(items []LineItemRequest) []finance.Line {
	out := make([]finance.Line, 0, len(items))
	for _, it := range items {
		out = append(out, finance.Line{
			Description: it.Description,
			Size:        it.Size,
			Quantity:    it.Quantity,
			Rate:        it.Rate,
		})
	}
	return out
}

// POST /api/invoices
func CreateHandler(cfg *config.Config, pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var body CreateInvoiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.CustomerID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "customer_id is required")
		}

		date, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Date format must be 'YYYY-MM-DD'")
		}
		var dueDate *time.Time
		if body.DueDate != "" {
			d, err := time.Parse("2006-01-02", body.DueDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Due date format must be 'YYYY-MM-DD'")
			}
			dueDate = &d
		}

		inv, err := Create(c.Context(), database.DB, cfg, pub, CreateInput{
			OwnerID:       ownerID,
			CustomerID:    body.CustomerID,
			Date:          date,
			DueDate:       dueDate,
			Notes:         body.Notes,
			TaxType:       body.TaxType,
			TaxMode:       body.TaxMode,
			Complimentary: body.Complimentary,
			Items:         toLines(body.Items),
		})
		switch {
		case errors.Is(err, ErrNoValidItems):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrCustomerNotFound):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, stock.ErrInsufficientStock):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case err != nil:
			logger.Log.Error().Err(err).Msg("invoice creation failed")
			return fiber.NewError(fiber.StatusInternalServerError, "Invoice could not be created")
		}

		return c.Status(fiber.StatusCreated).JSON(inv)
	}
}

// GET /api/invoices
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		q := database.DB.Where("owner_id = ?", ownerID)
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}

		var invoices []models.Invoice
		if err := q.Order("date DESC, id DESC").Find(&invoices).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Invoices could not be loaded")
		}
		return c.JSON(invoices)
	}
}

// GET /api/invoices/:id
func GetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var inv models.Invoice
		if err := database.DB.
			Preload("Items").
			Preload("Payments").
			Preload("Customer").
			Where("owner_id = ?", ownerID).
			First(&inv, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Invoice not found")
		}

		return c.JSON(fiber.Map{
			"invoice":       inv,
			"tax_breakdown": finance.Breakdown(inv.TaxType, inv.TaxAmount),
		})
	}
}

// PUT /api/invoices/:id
// Replaces header fields and line items and recomputes totals. The document
// number never changes, and the stock ledger is NOT adjusted: sales applied at
// creation stay applied. Known asymmetry of the register, surfaced in the logs.
func UpdateHandler(pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var inv models.Invoice
		if err := database.DB.
			Preload("Items").
			Where("owner_id = ?", ownerID).
			First(&inv, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Invoice not found")
		}

		var body CreateInvoiceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		items := finance.ValidLines(toLines(body.Items))
		if len(items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, ErrNoValidItems.Error())
		}

		if body.Date != "" {
			date, err := time.Parse("2006-01-02", body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Date format must be 'YYYY-MM-DD'")
			}
			inv.Date = date
		}
		if body.DueDate != "" {
			d, err := time.Parse("2006-01-02", body.DueDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Due date format must be 'YYYY-MM-DD'")
			}
			inv.DueDate = &d
		}

		inv.Notes = body.Notes
		inv.TaxType = body.TaxType
		inv.TaxMode = body.TaxMode
		inv.Complimentary = body.Complimentary

		totals := finance.Compute(items, inv.TaxType, inv.TaxMode, inv.Complimentary)
		inv.Subtotal = totals.Subtotal
		inv.TaxAmount = totals.TaxAmount
		inv.GrandTotal = totals.GrandTotal

		err = database.DB.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("parent_type = ? AND parent_id = ?", models.ParentInvoice, inv.ID).
				Delete(&models.LineItem{}).Error; err != nil {
				return err
			}
			inv.Items = buildLineItems(items)
			return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&inv).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Invoice could not be updated")
		}

		logger.Log.Warn().Str("number", inv.Number).
			Msg("invoice edited; previously applied ledger sales are not adjusted")

		if err := pub.Publish(c.Context(), nil, feed.TableInvoices, feed.ActionUpdate, ownerID, inv.ID, inv); err != nil {
			logger.Log.Error().Err(err).Msg("invoice change event not recorded")
		}

		return c.JSON(inv)
	}
}

// PUT /api/invoices/:id/status
func UpdateStatusHandler(pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var inv models.Invoice
		if err := database.DB.
			Where("owner_id = ?", ownerID).
			First(&inv, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Invoice not found")
		}

		var body UpdateStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if !models.ValidStatus(models.DocInvoice, body.Status) {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown invoice status")
		}
		if !models.CanTransition(models.DocInvoice, inv.Status, body.Status) {
			return fiber.NewError(fiber.StatusConflict,
				"Invoice cannot move from '"+string(inv.Status)+"' to '"+string(body.Status)+"'")
		}

		inv.Status = body.Status
		if err := database.DB.Save(&inv).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Invoice status could not be updated")
		}

		if err := pub.Publish(c.Context(), nil, feed.TableInvoices, feed.ActionUpdate, ownerID, inv.ID, inv); err != nil {
			logger.Log.Error().Err(err).Msg("invoice change event not recorded")
		}

		return c.JSON(inv)
	}
}

// DELETE /api/invoices/:id
// Deleting an invoice does not reverse its ledger sales. Known gap, logged.
func DeleteHandler(pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var inv models.Invoice
		if err := database.DB.
			Where("owner_id = ?", ownerID).
			First(&inv, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Invoice not found")
		}

		err = database.DB.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("parent_type = ? AND parent_id = ?", models.ParentInvoice, inv.ID).
				Delete(&models.LineItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.Payment{}).Error; err != nil {
				return err
			}
			return tx.Delete(&inv).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Invoice could not be deleted")
		}

		logger.Log.Warn().Str("number", inv.Number).
			Msg("invoice deleted; previously applied ledger sales are not adjusted")

		if err := pub.Publish(c.Context(), nil, feed.TableInvoices, feed.ActionDelete, ownerID, inv.ID, nil); err != nil {
			logger.Log.Error().Err(err).Msg("invoice change event not recorded")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/invoices/:id/payments
func CreatePaymentHandler(pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var inv models.Invoice
		if err := database.DB.
			Preload("Payments").
			Where("owner_id = ?", ownerID).
			First(&inv, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Invoice not found")
		}

		var body CreatePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Payment amount must be positive")
		}
		date, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Date format must be 'YYYY-MM-DD'")
		}

		payment := models.Payment{
			OwnerID:   ownerID,
			InvoiceID: inv.ID,
			Date:      date,
			Amount:    body.Amount,
			Method:    body.Method,
			Reference: body.Reference,
			Notes:     body.Notes,
		}
		if err := database.DB.Create(&payment).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Payment could not be recorded")
		}

		// Full settlement moves the invoice to paid, when the transition is legal.
		paid := body.Amount
		for _, p := range inv.Payments {
			paid += p.Amount
		}
		if paid >= inv.GrandTotal && models.CanTransition(models.DocInvoice, inv.Status, models.StatusPaid) {
			inv.Status = models.StatusPaid
			if err := database.DB.Save(&inv).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Invoice status could not be updated")
			}
			if err := pub.Publish(c.Context(), nil, feed.TableInvoices, feed.ActionUpdate, ownerID, inv.ID, inv); err != nil {
				logger.Log.Error().Err(err).Msg("invoice change event not recorded")
			}
		}

		return c.Status(fiber.StatusCreated).JSON(payment)
	}
}

// GET /api/invoices/:id/payments
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var inv models.Invoice
		if err := database.DB.
			Where("owner_id = ?", ownerID).
			First(&inv, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Invoice not found")
		}

		var payments []models.Payment
		if err := database.DB.
			Where("invoice_id = ?", inv.ID).
			Order("date ASC, id ASC").
			Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Payments could not be loaded")
		}
		return c.JSON(payments)
	}
}
