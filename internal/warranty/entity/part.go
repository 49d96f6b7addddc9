package entity

import (
	"time"
)

// Part 零部件目录
type Part struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	PartNumber string    `json:"part_number" gorm:"size:64;not null;uniqueIndex"`
	Name       string    `json:"name" gorm:"size:128;not null"`
	Category   string    `json:"category" gorm:"size:32"`
	UnitPrice  float64   `json:"unit_price" gorm:"type:numeric(15,2);default:0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Part) TableName() string {
	return "parts"
}

// InstalledPart 装车件（某辆车上实际安装的零部件，带自身质保期）
type InstalledPart struct {
	ID                     string    `json:"id" gorm:"primaryKey;size:32"`
	PartID                 string    `json:"part_id" gorm:"size:32;not null;index"`
	VehicleID              string    `json:"vehicle_id" gorm:"size:32;not null;index"`
	SerialNumber           string    `json:"serial_number" gorm:"size:64"`
	InstallationDate       time.Time `json:"installation_date" gorm:"not null"`
	WarrantyExpirationDate time.Time `json:"warranty_expiration_date" gorm:"not null"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`

	// 关联
	Part    *Part    `json:"part,omitempty" gorm:"foreignKey:PartID"`
	Vehicle *Vehicle `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
}

func (InstalledPart) TableName() string {
	return "installed_parts"
}

// UnderWarranty 在指定时间点是否仍在质保期内
func (p *InstalledPart) UnderWarranty(at time.Time) bool {
	return !p.WarrantyExpirationDate.Before(at.Truncate(24 * time.Hour))
}

// 零部件类别
const (
	PartCategoryBattery    = "battery"
	PartCategoryMotor      = "motor"
	PartCategoryInverter   = "inverter"
	PartCategoryCharger    = "charger"
	PartCategoryElectronic = "electronic"
	PartCategoryStructural = "structural"
)
