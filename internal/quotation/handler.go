package quotation

import (
	"errors"
	"time"

	"billmate-backend/internal/auth"
	"billmate-backend/internal/config"
	"billmate-backend/internal/database"
	"billmate-backend/internal/docnum"
	"billmate-backend/internal/feed"
	"billmate-backend/internal/finance"
	"billmate-backend/internal/invoice"
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

type CreateQuotationRequest struct {
	CustomerID    uint              `json:"customer_id"`
	Date          string            `json:"date"` // "2025-03-15"
	ValidUntil    string            `json:"valid_until"`
	Notes         string            `json:"notes"`
	TaxType       string            `json:"tax_type"`
	TaxMode       string            `json:"tax_mode"`
	Complimentary bool              `json:"complimentary"`
	Items         []LineItemRequest `json:"items"`
}

type UpdateStatusRequest struct {
	Status models.DocumentStatus `json:"status"`
}

type ConvertRequest struct {
	DueDate string `json:"due_date"`
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

// POST /api/quotations
func CreateHandler(cfg *config.Config, pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var body CreateQuotationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.CustomerID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "customer_id is required")
		}

		items := finance.ValidLines(toLines(body.Items))
		if len(items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Quotation needs at least one valid line item")
		}

		date, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Date format must be 'YYYY-MM-DD'")
		}
		var validUntil *time.Time
		if body.ValidUntil != "" {
			d, err := time.Parse("2006-01-02", body.ValidUntil)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Valid-until format must be 'YYYY-MM-DD'")
			}
			validUntil = &d
		}

		var cust models.Customer
		if err := database.DB.
			Where("owner_id = ?", ownerID).
			First(&cust, "id = ?", body.CustomerID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Customer not found")
		}

		totals := finance.Compute(items, body.TaxType, body.TaxMode, body.Complimentary)

		q := models.Quotation{
			OwnerID:       ownerID,
			CustomerID:    cust.ID,
			CustomerName:  cust.Name,
			Date:          date,
			ValidUntil:    validUntil,
			Status:        models.StatusDraft,
			Notes:         body.Notes,
			TaxType:       body.TaxType,
			TaxMode:       body.TaxMode,
			Complimentary: body.Complimentary,
			Subtotal:      totals.Subtotal,
			TaxAmount:     totals.TaxAmount,
			GrandTotal:    totals.GrandTotal,
			Items:         buildLineItems(items),
		}

		err = database.DB.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
			number, err := docnum.Next(tx, cfg.StrictNumbering, "quotations", &models.Quotation{}, docnum.QuotationPrefix)
			if err != nil {
				return err
			}
			q.Number = number
			return tx.Create(&q).Error
		})
		if err != nil {
			logger.Log.Error().Err(err).Msg("quotation creation failed")
			return fiber.NewError(fiber.StatusInternalServerError, "Quotation could not be created")
		}

		if err := pub.Publish(c.Context(), nil, feed.TableQuotations, feed.ActionInsert, ownerID, q.ID, q); err != nil {
			logger.Log.Error().Err(err).Msg("quotation change event not recorded")
		}

		return c.Status(fiber.StatusCreated).JSON(q)
	}
}

// GET /api/quotations
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

		var quotations []models.Quotation
		if err := q.Order("date DESC, id DESC").Find(&quotations).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Quotations could not be loaded")
		}
		return c.JSON(quotations)
	}
}

// GET /api/quotations/:id
func GetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var q models.Quotation
		if err := database.DB.
			Preload("Items").
			Preload("Customer").
			Where("owner_id = ?", ownerID).
			First(&q, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Quotation not found")
		}

		return c.JSON(fiber.Map{
			"quotation":     q,
			"tax_breakdown": finance.Breakdown(q.TaxType, q.TaxAmount),
		})
	}
}

// PUT /api/quotations/:id
func UpdateHandler(pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var q models.Quotation
		if err := database.DB.
			Preload("Items").
			Where("owner_id = ?", ownerID).
			First(&q, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Quotation not found")
		}

		var body CreateQuotationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		items := finance.ValidLines(toLines(body.Items))
		if len(items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Quotation needs at least one valid line item")
		}

		if body.Date != "" {
			date, err := time.Parse("2006-01-02", body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Date format must be 'YYYY-MM-DD'")
			}
			q.Date = date
		}
		if body.ValidUntil != "" {
			d, err := time.Parse("2006-01-02", body.ValidUntil)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Valid-until format must be 'YYYY-MM-DD'")
			}
			q.ValidUntil = &d
		}

		q.Notes = body.Notes
		q.TaxType = body.TaxType
		q.TaxMode = body.TaxMode
		q.Complimentary = body.Complimentary

		totals := finance.Compute(items, q.TaxType, q.TaxMode, q.Complimentary)
		q.Subtotal = totals.Subtotal
		q.TaxAmount = totals.TaxAmount
		q.GrandTotal = totals.GrandTotal

		err = database.DB.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("parent_type = ? AND parent_id = ?", models.ParentQuotation, q.ID).
				Delete(&models.LineItem{}).Error; err != nil {
				return err
			}
			q.Items = buildLineItems(items)
			return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&q).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Quotation could not be updated")
		}

		if err := pub.Publish(c.Context(), nil, feed.TableQuotations, feed.ActionUpdate, ownerID, q.ID, q); err != nil {
			logger.Log.Error().Err(err).Msg("quotation change event not recorded")
		}

		return c.JSON(q)
	}
}

// PUT /api/quotations/:id/status
func UpdateStatusHandler(pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var q models.Quotation
		if err := database.DB.
			Where("owner_id = ?", ownerID).
			First(&q, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Quotation not found")
		}

		var body UpdateStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if !models.ValidStatus(models.DocQuotation, body.Status) {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown quotation status")
		}
		if !models.CanTransition(models.DocQuotation, q.Status, body.Status) {
			return fiber.NewError(fiber.StatusConflict,
				"Quotation cannot move from '"+string(q.Status)+"' to '"+string(body.Status)+"'")
		}

		q.Status = body.Status
		if err := database.DB.Save(&q).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Quotation status could not be updated")
		}

		if err := pub.Publish(c.Context(), nil, feed.TableQuotations, feed.ActionUpdate, ownerID, q.ID, q); err != nil {
			logger.Log.Error().Err(err).Msg("quotation change event not recorded")
		}

		return c.JSON(q)
	}
}

// DELETE /api/quotations/:id
func DeleteHandler(pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var q models.Quotation
		if err := database.DB.
			Where("owner_id = ?", ownerID).
			First(&q, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Quotation not found")
		}

		err = database.DB.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("parent_type = ? AND parent_id = ?", models.ParentQuotation, q.ID).
				Delete(&models.LineItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&q).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Quotation could not be deleted")
		}

		if err := pub.Publish(c.Context(), nil, feed.TableQuotations, feed.ActionDelete, ownerID, q.ID, nil); err != nil {
			logger.Log.Error().Err(err).Msg("quotation change event not recorded")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/quotations/:id/convert
// Turns an accepted quotation into an invoice. The invoice cut here goes
// through the normal creation path, including the stock ledger posting.
func ConvertHandler(cfg *config.Config, pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var q models.Quotation
		if err := database.DB.
			Preload("Items").
			Where("owner_id = ?", ownerID).
			First(&q, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Quotation not found")
		}

		if !models.CanTransition(models.DocQuotation, q.Status, models.StatusInvoiced) {
			return fiber.NewError(fiber.StatusConflict,
				"Only an accepted quotation can be converted (current status: '"+string(q.Status)+"')")
		}

		var body ConvertRequest
		if err := c.BodyParser(&body); err != nil && len(c.Body()) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		var dueDate *time.Time
		if body.DueDate != "" {
			d, err := time.Parse("2006-01-02", body.DueDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Due date format must be 'YYYY-MM-DD'")
			}
			dueDate = &d
		}

		lines := make([]finance.Line, 0, len(q.Items))
		for _, it := range q.Items {
			lines = append(lines, finance.Line{
				Description: it.Description,
				Size:        it.Size,
				Quantity:    it.Quantity,
				Rate:        it.Rate,
			})
		}

		inv, err := invoice.Create(c.Context(), database.DB, cfg, pub, invoice.CreateInput{
			OwnerID:       ownerID,
			CustomerID:    q.CustomerID,
			Date:          time.Now(),
			DueDate:       dueDate,
			Notes:         q.Notes,
			TaxType:       q.TaxType,
			TaxMode:       q.TaxMode,
			Complimentary: q.Complimentary,
			Items:         lines,
			QuotationID:   &q.ID,
		})
		switch {
		case errors.Is(err, stock.ErrInsufficientStock):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case err != nil:
			logger.Log.Error().Err(err).Str("number", q.Number).Msg("quotation conversion failed")
			return fiber.NewError(fiber.StatusInternalServerError, "Quotation could not be converted")
		}

		q.Status = models.StatusInvoiced
		if err := database.DB.Save(&q).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Quotation status could not be updated")
		}

		if err := pub.Publish(c.Context(), nil, feed.TableQuotations, feed.ActionUpdate, ownerID, q.ID, q); err != nil {
			logger.Log.Error().Err(err).Msg("quotation change event not recorded")
		}

		return c.Status(fiber.StatusCreated).JSON(inv)
	}
}
