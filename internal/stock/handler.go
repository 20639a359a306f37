package stock

import (
	"errors"
	"fmt"

	"billmate-backend/internal/auth"
	"billmate-backend/internal/config"
	"billmate-backend/internal/database"
	"billmate-backend/internal/feed"
	"billmate-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type UpsertStockEntryRequest struct {
	ProductName  string `json:"product_name"`
	Size         string `json:"size"`
	Month        int    `json:"month"`
	Year         int    `json:"year"`
	OpeningStock *int   `json:"opening_stock"` // admin only
	Production   *int   `json:"production"`
	Sales        *int   `json:"sales"` // admin only
}

type StockEntryResponse struct {
	ID           uint   `json:"id"`
	ProductName  string `json:"product_name"`
	Size         string `json:"size"`
	Month        int    `json:"month"`
	Year         int    `json:"year"`
	OpeningStock int    `json:"opening_stock"`
	Production   int    `json:"production"`
	Sales        int    `json:"sales"`
	ClosingStock int    `json:"closing_stock"`
}

func toResponse(e *models.StockEntry) StockEntryResponse {
	return StockEntryResponse{
		ID:           e.ID,
		ProductName:  e.ProductName,
		Size:         e.Size,
		Month:        e.Month,
		Year:         e.Year,
		OpeningStock: e.OpeningStock,
		Production:   e.Production,
		Sales:        e.Sales,
		ClosingStock: e.ClosingStock,
	}
}

// GET /api/stock-register?month=3&year=2025
func ListEntriesHandler() fiber.Handler {
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

		ledger := NewLedger(NewGormStore(database.DB), false)
		entries, err := ledger.Entries(c.Context(), ownerID, month, year)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stock entries could not be loaded")
		}

		out := make([]StockEntryResponse, 0, len(entries))
		for i := range entries {
			out = append(out, toResponse(&entries[i]))
		}
		return c.JSON(out)
	}
}

// GET /api/stock-register/opening?product=X&size=42&month=4&year=2025
// Resolves the carry-forward opening stock for a period with no row yet.
func OpeningHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		key := Key{
			Product: c.Query("product"),
			Size:    c.Query("size"),
			Month:   c.QueryInt("month"),
			Year:    c.QueryInt("year"),
		}
		if err := validKey(key); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ledger := NewLedger(NewGormStore(database.DB), false)
		opening, err := ledger.OpeningFor(c.Context(), ownerID, key)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Opening stock could not be resolved")
		}

		return c.JSON(fiber.Map{
			"product_name":  key.Product,
			"size":          key.Size,
			"month":         key.Month,
			"year":          key.Year,
			"opening_stock": opening,
		})
	}
}

// POST /api/stock-register
func UpsertEntryHandler(cfg *config.Config, pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var body UpsertStockEntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		key := Key{Product: body.ProductName, Size: body.Size, Month: body.Month, Year: body.Year}
		if err := validKey(key); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ledger := NewLedger(NewGormStore(database.DB), cfg.EnforceStockAvailability)

		entry, created, err := ledger.Upsert(c.Context(), ownerID, key, UpsertInput{
			OpeningStock: body.OpeningStock,
			Production:   body.Production,
			Sales:        body.Sales,
		}, auth.CallerIsAdmin(c))
		if errors.Is(err, ErrAdminOnly) {
			return fiber.NewError(fiber.StatusForbidden, "Opening stock and sales can only be edited by an admin")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stock entry could not be saved")
		}

		action := feed.ActionUpdate
		if created {
			action = feed.ActionInsert
		}

		if err := pub.Publish(c.Context(), nil, feed.TableStock, action, ownerID, entry.ID, entry); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Change event could not be recorded")
		}

		return c.JSON(toResponse(entry))
	}
}

// DELETE /api/stock-register/products/:name
// Removes every size-row of the product across all periods. Irreversible.
func DeleteProductHandler(pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		product := c.Params("name")
		if product == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Product name is required")
		}

		var doomed []models.StockEntry
		if err := database.DB.
			Where("owner_id = ? AND product_name = ?", ownerID, product).
			Find(&doomed).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stock entries could not be loaded")
		}
		if len(doomed) == 0 {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("No stock entries for product %q", product))
		}

		ledger := NewLedger(NewGormStore(database.DB), false)
		n, err := ledger.DeleteProduct(c.Context(), ownerID, product)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stock entries could not be deleted")
		}

		for i := range doomed {
			if err := pub.Publish(c.Context(), nil, feed.TableStock, feed.ActionDelete, ownerID, doomed[i].ID, nil); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Change event could not be recorded")
			}
		}

		return c.JSON(fiber.Map{"deleted": n})
	}
}
