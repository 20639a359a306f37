package stock

import (
	"context"
	"errors"

	"billmate-backend/internal/models"

	"gorm.io/gorm"
)

// GormStore is the postgres-backed Store. Construct it around a transaction
// handle to make ledger writes part of a larger business event.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) scope(owner uint, key Key) *gorm.DB {
	return s.db.Model(&models.StockEntry{}).
		Where("owner_id = ? AND product_name = ? AND size = ? AND month = ? AND year = ?",
			owner, key.Product, key.Size, key.Month, key.Year)
}

func (s *GormStore) Get(ctx context.Context, owner uint, key Key) (*models.StockEntry, error) {
	var entry models.StockEntry
	err := s.scope(owner, key).WithContext(ctx).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *GormStore) List(ctx context.Context, owner uint, month, year int) ([]models.StockEntry, error) {
	var entries []models.StockEntry
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND month = ? AND year = ?", owner, month, year).
		Order("product_name ASC, size ASC").
		Find(&entries).Error
	return entries, err
}

func (s *GormStore) Create(ctx context.Context, entry *models.StockEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) Save(ctx context.Context, entry *models.StockEntry) error {
	return s.db.WithContext(ctx).Save(entry).Error
}

// AddSales increments sales and recomputes closing in a single UPDATE so
// concurrent postings against the same row cannot lose an increment.
func (s *GormStore) AddSales(ctx context.Context, owner uint, key Key, qty int) error {
	res := s.scope(owner, key).WithContext(ctx).Updates(map[string]interface{}{
		"sales":         gorm.Expr("sales + ?", qty),
		"closing_stock": gorm.Expr("opening_stock + production - (sales + ?)", qty),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteProduct(ctx context.Context, owner uint, product string) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("owner_id = ? AND product_name = ?", owner, product).
		Delete(&models.StockEntry{})
	return res.RowsAffected, res.Error
}
