package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"grocery-backend/models"
)

// CartRepository is the authenticated cart store (Postgres rows, one per
// account+product).
type CartRepository interface {
	FindByAccount(ctx context.Context, accountID uuid.UUID) ([]models.CartItem, error)
	FindLine(ctx context.Context, accountID, productID uuid.UUID) (*models.CartItem, error)
	// AddQuantity merges qty into an existing line or creates one.
	AddQuantity(ctx context.Context, accountID, productID uuid.UUID, qty int) error
	SetQuantity(ctx context.Context, accountID, productID uuid.UUID, qty int) error
	DeleteLine(ctx context.Context, accountID, productID uuid.UUID) error
	Clear(ctx context.Context, accountID uuid.UUID) error
	ClearTx(tx *gorm.DB, accountID uuid.UUID) error
}

// GormCartRepository implements CartRepository using GORM.
type GormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) CartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) FindByAccount(ctx context.Context, accountID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormCartRepository) FindLine(ctx context.Context, accountID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND product_id = ?", accountID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormCartRepository) AddQuantity(ctx context.Context, accountID, productID uuid.UUID, qty int) error {
	result := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("account_id = ? AND product_id = ?", accountID, productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Create(&models.CartItem{
		AccountID: accountID,
		ProductID: productID,
		Quantity:  qty,
	}).Error
	// A concurrent insert on the same line loses to the unique index;
	// fold the quantity in instead.
	if err != nil && isUniqueViolation(err) {
		return r.db.WithContext(ctx).
			Model(&models.CartItem{}).
			Where("account_id = ? AND product_id = ?", accountID, productID).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", qty)).
			Error
	}
	return err
}

func (r *GormCartRepository) SetQuantity(ctx context.Context, accountID, productID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("account_id = ? AND product_id = ?", accountID, productID).
		UpdateColumn("quantity", qty).
		Error
}

func (r *GormCartRepository) DeleteLine(ctx context.Context, accountID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("account_id = ? AND product_id = ?", accountID, productID).
		Delete(&models.CartItem{}).
		Error
}

func (r *GormCartRepository) Clear(ctx context.Context, accountID uuid.UUID) error {
	return r.ClearTx(r.db.WithContext(ctx), accountID)
}

func (r *GormCartRepository) ClearTx(tx *gorm.DB, accountID uuid.UUID) error {
	return tx.Where("account_id = ?", accountID).Delete(&models.CartItem{}).Error
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
