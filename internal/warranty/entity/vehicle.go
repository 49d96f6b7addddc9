package entity

import (
	"time"
)

// Vehicle 车辆
type Vehicle struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	VIN          string     `json:"vin" gorm:"size:17;not null;uniqueIndex"`
	Model        string     `json:"model" gorm:"size:64;not null"`
	Year         int        `json:"year" gorm:"not null"`
	CustomerID   string     `json:"customer_id" gorm:"size:32;not null;index"`
	PurchaseDate *time.Time `json:"purchase_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// 关联
	Customer       *Customer       `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	InstalledParts []InstalledPart `json:"installed_parts,omitempty" gorm:"foreignKey:VehicleID"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}
