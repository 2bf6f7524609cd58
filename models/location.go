package models

import (
	"time"

	"github.com/google/uuid"
)

// Province/City/Barangay form the address hierarchy. Rows are seeded
// reference data and never written by this module.
type Province struct {
	ID   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
}

type City struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProvinceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_province_city" json:"province_id"`
	Name       string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_province_city" json:"name"`
}

type Barangay struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_city_barangay" json:"city_id"`
	Name   string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_city_barangay" json:"name"`
}

// Address is a customer delivery address. Latitude/Longitude are pinned by
// the customer on a map; an address without coordinates cannot be quoted
// for fee-bearing delivery.
type Address struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AccountID      uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	ProvinceID     uuid.UUID `gorm:"type:uuid;not null" json:"province_id"`
	CityID         uuid.UUID `gorm:"type:uuid;not null" json:"city_id"`
	BarangayID     uuid.UUID `gorm:"type:uuid;not null" json:"barangay_id"`
	AdditionalInfo string    `gorm:"type:varchar(1024)" json:"additional_info,omitempty"`
	PhoneNumber    string    `gorm:"type:varchar(50)" json:"phone_number,omitempty"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	IsDefault      bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// HasCoordinates reports whether the address can be distance-priced.
func (a *Address) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// Store is a physical pickup location.
type Store struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
}
