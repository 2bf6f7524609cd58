package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"grocery-backend/models"
)

// ProductRepository is the catalog boundary this module needs: price, sale
// state and stock.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	// DecrementStock conditionally subtracts qty inside tx. It returns
	// gorm.ErrRecordNotFound when stock is insufficient, which aborts the
	// surrounding transaction.
	DecrementStock(tx *gorm.DB, id uuid.UUID, qty int) error
	// RestoreStock adds qty back inside tx (order cancellation).
	RestoreStock(tx *gorm.DB, id uuid.UUID, qty int) error
}

// GormProductRepository implements ProductRepository using GORM.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) DecrementStock(tx *gorm.DB, id uuid.UUID, qty int) error {
	result := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormProductRepository) RestoreStock(tx *gorm.DB, id uuid.UUID, qty int) error {
	return tx.Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", qty)).
		Error
}
