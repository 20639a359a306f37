package reminder

import (
	"errors"

	"billmate-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// POST /api/invoices/:id/remind
func SendHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.CallerID(c)
		if err != nil {
			return err
		}

		invoiceID, err := c.ParamsInt("id")
		if err != nil || invoiceID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid invoice id")
		}

		err = svc.SendForInvoice(c.Context(), ownerID, uint(invoiceID))
		switch {
		case errors.Is(err, ErrMailerDisabled):
			return fiber.NewError(fiber.StatusServiceUnavailable, "Email dispatch is not configured")
		case errors.Is(err, ErrNoCustomerEmail):
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Invoice not found")
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, "Reminder could not be sent")
		}

		return c.JSON(fiber.Map{"sent": true})
	}
}
