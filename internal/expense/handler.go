package expense

import (
	"billmate-backend/internal/auth"
	"billmate-backend/internal/database"
	"billmate-backend/internal/feed"
	"billmate-backend/internal/logger"
	"billmate-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateExpenseRequest struct {
	Month       int     `json:"month"` // 1-12
	Year        int     `json:"year"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type MonthlySummaryItem struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type MonthlySummaryResponse struct {
	Year       int                  `json:"year"`
	Month      int                  `json:"month"`
	Items      []MonthlySummaryItem `json:"items"`
	GrandTotal float64              `json:"grand_total"`
}

// POST /api/expenses
func CreateHandler(pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var body CreateExpenseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Month < 1 || body.Month > 12 || body.Year < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "month (1-12) and year are required")
		}
		if body.Category == "" {
			return fiber.NewError(fiber.StatusBadRequest, "category is required")
		}
		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount must be positive")
		}

		entry := models.ExpenseEntry{
			OwnerID:     ownerID,
			Month:       body.Month,
			Year:        body.Year,
			Category:    body.Category,
			Description: body.Description,
			Amount:      body.Amount,
		}
		if err := database.DB.Create(&entry).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Expense could not be created")
		}

		if err := pub.Publish(c.Context(), nil, feed.TableExpenses, feed.ActionInsert, ownerID, entry.ID, entry); err != nil {
			logger.Log.Error().Err(err).Msg("expense change event not recorded")
		}

		return c.Status(fiber.StatusCreated).JSON(entry)
	}
}

// GET /api/expenses?month=3&year=2025
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		q := database.DB.Where("owner_id = ?", ownerID)
		if month := c.QueryInt("month"); month != 0 {
			q = q.Where("month = ?", month)
		}
		if year := c.QueryInt("year"); year != 0 {
			q = q.Where("year = ?", year)
		}

		var entries []models.ExpenseEntry
		if err := q.Order("year DESC, month DESC, id DESC").Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Expenses could not be loaded")
		}
		return c.JSON(entries)
	}
}

// DELETE /api/expenses/:id
func DeleteHandler(pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var entry models.ExpenseEntry
		if err := database.DB.
			Where("owner_id = ?", ownerID).
			First(&entry, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Expense not found")
		}

		if err := database.DB.Delete(&entry).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Expense could not be deleted")
		}

		if err := pub.Publish(c.Context(), nil, feed.TableExpenses, feed.ActionDelete, ownerID, entry.ID, nil); err != nil {
			logger.Log.Error().Err(err).Msg("expense change event not recorded")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/expenses/summary/monthly?month=3&year=2025
func MonthlySummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		month := c.QueryInt("month")
		year := c.QueryInt("year")
		if month < 1 || month > 12 || year < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "month (1-12) and year are required")
		}

		var items []MonthlySummaryItem
		err = database.DB.Model(&models.ExpenseEntry{}).
			Select("category, SUM(amount) AS total").
			Where("owner_id = ? AND month = ? AND year = ?", ownerID, month, year).
			Group("category").
			Order("total DESC").
			Scan(&items).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Summary could not be computed")
		}

		resp := MonthlySummaryResponse{Year: year, Month: month, Items: items}
		for _, it := range items {
			resp.GrandTotal += it.Total
		}
		return c.JSON(resp)
	}
}
