package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"grocery-backend/models"
)

// VoucherRepository defines the interface for voucher data access.
type VoucherRepository interface {
	Create(ctx context.Context, voucher *models.Voucher) error
	// FindByCode looks a code up case-insensitively, active or not; the
	// service layer distinguishes "not found" from "inactive".
	FindByCode(ctx context.Context, code string) (*models.Voucher, error)
	HasUsage(ctx context.Context, voucherID, accountID uuid.UUID) (bool, error)
	// Consume redeems a voucher inside tx: conditional counter increment
	// plus the usage row insert guarded by the (voucher, account) unique
	// index. Returns ErrUsageLimitReached or ErrAlreadyUsed.
	Consume(tx *gorm.DB, voucher *models.Voucher, accountID, orderID uuid.UUID) error
	Deactivate(ctx context.Context, code string) error
	FindAll(ctx context.Context, page, limit int) ([]models.Voucher, int64, error)
}

// Sentinel errors surfaced by Consume so the service can map them to the
// right user-facing conflict.
var (
	ErrUsageLimitReached = errors.New("voucher usage limit reached")
	ErrAlreadyUsed       = errors.New("voucher already used by account")
)

// GormVoucherRepository implements VoucherRepository using GORM.
type GormVoucherRepository struct {
	db *gorm.DB
}

func NewGormVoucherRepository(db *gorm.DB) VoucherRepository {
	return &GormVoucherRepository{db: db}
}

func (r *GormVoucherRepository) Create(ctx context.Context, voucher *models.Voucher) error {
	return r.db.WithContext(ctx).Create(voucher).Error
}

func (r *GormVoucherRepository) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.db.WithContext(ctx).
		Where("LOWER(code) = ?", strings.ToLower(code)).
		First(&voucher).Error
	if err != nil {
		return nil, err
	}
	return &voucher, nil
}

func (r *GormVoucherRepository) HasUsage(ctx context.Context, voucherID, accountID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VoucherUsage{}).
		Where("voucher_id = ? AND account_id = ?", voucherID, accountID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormVoucherRepository) Consume(tx *gorm.DB, voucher *models.Voucher, accountID, orderID uuid.UUID) error {
	// The WHERE clause carries the usage-limit check so two concurrent
	// commits cannot both pass a stale read.
	result := tx.Model(&models.Voucher{}).
		Where("id = ? AND is_active = ? AND (usage_limit = 0 OR used_count < usage_limit)",
			voucher.ID, true).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUsageLimitReached
	}

	usage := &models.VoucherUsage{
		VoucherID: voucher.ID,
		AccountID: accountID,
		OrderID:   orderID,
	}
	if err := tx.Create(usage).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyUsed
		}
		return err
	}
	return nil
}

func (r *GormVoucherRepository) Deactivate(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("LOWER(code) = ?", strings.ToLower(code)).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormVoucherRepository) FindAll(ctx context.Context, page, limit int) ([]models.Voucher, int64, error) {
	var vouchers []models.Voucher
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Voucher{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&vouchers).Error; err != nil {
		return nil, 0, err
	}

	return vouchers, total, nil
}
