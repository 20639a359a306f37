package customer

import (
	"bytes"

	"billmate-backend/internal/auth"
	"billmate-backend/internal/database"
	"billmate-backend/internal/feed"
	"billmate-backend/internal/logger"
	"billmate-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	GSTIN   string `json:"gstin"`
	Notes   string `json:"notes"`
}

// POST /api/customers
func CreateHandler(pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		cust := models.Customer{
			OwnerID: ownerID,
			Name:    body.Name,
			Email:   body.Email,
			Phone:   body.Phone,
			Address: body.Address,
			GSTIN:   body.GSTIN,
			Notes:   body.Notes,
		}
		if err := validate.Struct(&cust); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
		}

		if err := database.DB.Create(&cust).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Customer could not be created")
		}

		if err := pub.Publish(c.Context(), nil, feed.TableCustomers, feed.ActionInsert, ownerID, cust.ID, cust); err != nil {
			logger.Log.Error().Err(err).Msg("customer change event not recorded")
		}

		return c.Status(fiber.StatusCreated).JSON(cust)
	}
}

// GET /api/customers
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var customers []models.Customer
		if err := database.DB.
			Where("owner_id = ?", ownerID).
			Order("name ASC").
			Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Customers could not be loaded")
		}
		return c.JSON(customers)
	}
}

// GET /api/customers/:id
func GetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var cust models.Customer
		if err := database.DB.
			Where("owner_id = ?", ownerID).
			First(&cust, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Customer not found")
		}
		return c.JSON(cust)
	}
}

// PUT /api/customers/:id
func UpdateHandler(pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var cust models.Customer
		if err := database.DB.
			Where("owner_id = ?", ownerID).
			First(&cust, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Customer not found")
		}

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		cust.Name = body.Name
		cust.Email = body.Email
		cust.Phone = body.Phone
		cust.Address = body.Address
		cust.GSTIN = body.GSTIN
		cust.Notes = body.Notes

		if err := validate.Struct(&cust); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
		}

		if err := database.DB.Save(&cust).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Customer could not be updated")
		}

		if err := pub.Publish(c.Context(), nil, feed.TableCustomers, feed.ActionUpdate, ownerID, cust.ID, cust); err != nil {
			logger.Log.Error().Err(err).Msg("customer change event not recorded")
		}

		return c.JSON(cust)
	}
}

// DELETE /api/customers/:id
func DeleteHandler(pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var cust models.Customer
		if err := database.DB.
			Where("owner_id = ?", ownerID).
			First(&cust, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Customer not found")
		}

		if err := database.DB.Delete(&cust).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Customer could not be deleted")
		}

		if err := pub.Publish(c.Context(), nil, feed.TableCustomers, feed.ActionDelete, ownerID, cust.ID, nil); err != nil {
			logger.Log.Error().Err(err).Msg("customer change event not recorded")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/customers/import — CSV body (multipart "file" or raw).
func ImportCSVHandler(pub *feed.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		data := c.Body()
		if fh, err := c.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Uploaded file could not be opened")
			}
			defer f.Close()
			var buf bytes.Buffer
			if _, err := buf.ReadFrom(f); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Uploaded file could not be read")
			}
			data = buf.Bytes()
		}
		if len(data) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "CSV content is required")
		}

		customers, skipped, err := ParseCSV(bytes.NewReader(data), ownerID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		for i := range customers {
			if err := database.DB.Create(&customers[i]).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Customers could not be imported")
			}
			if err := pub.Publish(c.Context(), nil, feed.TableCustomers, feed.ActionInsert, ownerID, customers[i].ID, customers[i]); err != nil {
				logger.Log.Error().Err(err).Msg("customer change event not recorded")
			}
		}

		return c.JSON(ImportResult{Imported: len(customers), Skipped: skipped})
	}
}

// GET /api/customers/export — CSV download.
func ExportCSVHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		var customers []models.Customer
		if err := database.DB.
			Where("owner_id = ?", ownerID).
			Order("name ASC").
			Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Customers could not be loaded")
		}

		var buf bytes.Buffer
		if err := WriteCSV(&buf, customers); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "CSV could not be generated")
		}

		c.Set("Content-Type", "text/csv")
		c.Set("Content-Disposition", `attachment; filename="customers.csv"`)
		return c.Send(buf.Bytes())
	}
}
