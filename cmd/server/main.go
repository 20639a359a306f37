package main

import (
	"context"
	"strings"

	"billmate-backend/internal/auth"
	"billmate-backend/internal/config"
	"billmate-backend/internal/customer"
	"billmate-backend/internal/database"
	"billmate-backend/internal/expense"
	"billmate-backend/internal/feed"
	"billmate-backend/internal/invoice"
	"billmate-backend/internal/logger"
	"billmate-backend/internal/models"
	"billmate-backend/internal/quotation"
	"billmate-backend/internal/reminder"
	"billmate-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	database.Init(cfg)

	ctx := context.Background()

	rdb := feed.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pub := feed.NewPublisher(database.DB, rdb)
	if rdb != nil {
		go pub.Run(ctx)
	}

	reminders := reminder.NewService(database.DB, reminder.NewMailer(cfg), cfg.ReminderLeadDays)
	go reminders.RunDaily(ctx)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logger.Log.Error().Err(err).Msg("unexpected error")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))
	adminRoutes.Post("/staff", auth.CreateStaffHandler())

	// Customers
	protected.Post("/customers", customer.CreateHandler(pub))
	protected.Get("/customers", customer.ListHandler())
	protected.Get("/customers/export", customer.ExportCSVHandler())
	protected.Post("/customers/import", customer.ImportCSVHandler(pub))
	protected.Get("/customers/:id", customer.GetHandler())
	protected.Put("/customers/:id", customer.UpdateHandler(pub))
	protected.Delete("/customers/:id", customer.DeleteHandler(pub))

	// Quotations
	protected.Post("/quotations", quotation.CreateHandler(cfg, pub))
	protected.Get("/quotations", quotation.ListHandler())
	protected.Get("/quotations/:id", quotation.GetHandler())
	protected.Put("/quotations/:id", quotation.UpdateHandler(pub))
	protected.Put("/quotations/:id/status", quotation.UpdateStatusHandler(pub))
	protected.Post("/quotations/:id/convert", quotation.ConvertHandler(cfg, pub))
	protected.Delete("/quotations/:id", quotation.DeleteHandler(pub))

	// Invoices
	protected.Post("/invoices", invoice.CreateHandler(cfg, pub))
	protected.Get("/invoices", invoice.ListHandler())
	protected.Get("/invoices/:id", invoice.GetHandler())
	protected.Put("/invoices/:id", invoice.UpdateHandler(pub))
	protected.Put("/invoices/:id/status", invoice.UpdateStatusHandler(pub))
	protected.Delete("/invoices/:id", invoice.DeleteHandler(pub))
	protected.Post("/invoices/:id/payments", invoice.CreatePaymentHandler(pub))
	protected.Get("/invoices/:id/payments", invoice.ListPaymentsHandler())
	protected.Post("/invoices/:id/remind", reminder.SendHandler(reminders))

	// Stock register
	protected.Get("/stock-register", stock.ListEntriesHandler())
	protected.Get("/stock-register/opening", stock.OpeningHandler())
	protected.Post("/stock-register", stock.UpsertEntryHandler(cfg, pub))
	protected.Delete("/stock-register/products/:name", stock.DeleteProductHandler(pub))

	// Expense register
	protected.Post("/expenses", expense.CreateHandler(pub))
	protected.Get("/expenses", expense.ListHandler())
	protected.Get("/expenses/summary/monthly", expense.MonthlySummaryHandler())
	protected.Delete("/expenses/:id", expense.DeleteHandler(pub))

	// Change feed
	protected.Get("/feed/events", feed.RecentEventsHandler(pub))
	protected.Use("/feed/ws", feed.WSUpgradeHandler())
	protected.Get("/feed/ws", feed.WSHandler(pub))

	logger.Log.Info().Str("port", cfg.HTTPPort).Msg("server listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Log.Fatal().Err(err).Msg("server stopped")
	}
}
