package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"grocery-backend/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// CreateTx inserts the order with its items inside tx. The caller has
	// already frozen every monetary field.
	CreateTx(tx *gorm.DB, order *models.Order) error
	// AppendHistoryTx writes one audit row inside tx.
	AppendHistoryTx(tx *gorm.DB, entry *models.OrderHistory) error
	// UpdateStatusTx writes the new shipping/payment status inside tx.
	UpdateStatusTx(tx *gorm.DB, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	FindByIDAndAccount(ctx context.Context, id, accountID uuid.UUID) (*models.Order, error)
	FindByAccount(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.Order, int64, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error)
	SetPaymentTransactionID(ctx context.Context, id uuid.UUID, transactionID string) error
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) CreateTx(tx *gorm.DB, order *models.Order) error {
	return tx.Create(order).Error
}

func (r *GormOrderRepository) AppendHistoryTx(tx *gorm.DB, entry *models.OrderHistory) error {
	return tx.Create(entry).Error
}

func (r *GormOrderRepository) UpdateStatusTx(tx *gorm.DB, order *models.Order) error {
	return tx.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"shipping_status": order.ShippingStatus,
			"payment_status":  order.PaymentStatus,
		}).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.findByID(r.db.WithContext(ctx), id)
}

func (r *GormOrderRepository) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	return r.findByID(tx, id)
}

func (r *GormOrderRepository) findByID(db *gorm.DB, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := db.
		Preload("Items").
		Preload("Items.Product").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("event_timestamp ASC")
		}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByIDAndAccount(ctx context.Context, id, accountID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("event_timestamp ASC")
		}).
		Where("id = ? AND account_id = ?", id, accountID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("account_id = ?", accountID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Items").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *GormOrderRepository) FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Items").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *GormOrderRepository) SetPaymentTransactionID(ctx context.Context, id uuid.UUID, transactionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumn("payment_transaction_id", transactionID).
		Error
}
