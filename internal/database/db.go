package database

import (
	"errors"

	"billmate-backend/internal/config"
	"billmate-backend/internal/logger"
	"billmate-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("could not connect to database")
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Quotation{},
		&models.Invoice{},
		&models.LineItem{},
		&models.Payment{},
		&models.StockEntry{},
		&models.ExpenseEntry{},
		&models.DocumentSequence{},
		&models.ChangeEvent{},
	)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("auto-migration failed")
	}

	// Seed the counters used by strict numbering. Starting values follow the
	// legacy scheme: next number = existing row count + 1. A failed seed here
	// would otherwise only surface as a missing-sequence error on the first
	// document creation.
	for _, name := range []string{"invoices", "quotations"} {
		var seq models.DocumentSequence
		err := DB.Where("name = ?", name).First(&seq).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Fatal().Err(err).Str("sequence", name).Msg("sequence lookup failed")
		}

		var count int64
		switch name {
		case "invoices":
			err = DB.Model(&models.Invoice{}).Count(&count).Error
		case "quotations":
			err = DB.Model(&models.Quotation{}).Count(&count).Error
		}
		if err != nil {
			logger.Log.Fatal().Err(err).Str("sequence", name).Msg("sequence seed count failed")
		}
		if err := DB.Create(&models.DocumentSequence{Name: name, Value: count}).Error; err != nil {
			logger.Log.Fatal().Err(err).Str("sequence", name).Msg("sequence seed failed")
		}
	}

	logger.Log.Info().Msg("database connected, migration complete")
}
