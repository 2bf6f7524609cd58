package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"grocery-backend/models"
)

// AddressRepository is the read boundary to the customer address book.
// Address CRUD belongs to the account subsystem; checkout only needs
// ownership-checked lookups.
type AddressRepository interface {
	FindByIDAndAccount(ctx context.Context, id, accountID uuid.UUID) (*models.Address, error)
}

type GormAddressRepository struct {
	db *gorm.DB
}

func NewGormAddressRepository(db *gorm.DB) AddressRepository {
	return &GormAddressRepository{db: db}
}

func (r *GormAddressRepository) FindByIDAndAccount(ctx context.Context, id, accountID uuid.UUID) (*models.Address, error) {
	var addr models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		First(&addr).Error
	if err != nil {
		return nil, err
	}
	return &addr, nil
}
