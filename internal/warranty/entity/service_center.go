package entity

import (
	"time"
)

// ServiceCenter 服务中心
type ServiceCenter struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Address   string    `json:"address" gorm:"size:256"`
	Phone     string    `json:"phone" gorm:"size:20"`
	Region    string    `json:"region" gorm:"size:64;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ServiceCenter) TableName() string {
	return "service_centers"
}

// ServiceHistory 车辆服务记录
type ServiceHistory struct {
	ID              string    `json:"id" gorm:"primaryKey;size:32"`
	VehicleID       string    `json:"vehicle_id" gorm:"size:32;not null;index"`
	ClaimID         *string   `json:"claim_id" gorm:"size:32"`
	ServiceCenterID *string   `json:"service_center_id" gorm:"size:32"`
	ServiceType     string    `json:"service_type" gorm:"size:64;not null"`
	ServiceDate     time.Time `json:"service_date" gorm:"not null;index"`
	Description     string    `json:"description" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at"`

	// 关联
	Vehicle       *Vehicle       `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
	Claim         *WarrantyClaim `json:"claim,omitempty" gorm:"foreignKey:ClaimID"`
	ServiceCenter *ServiceCenter `json:"service_center,omitempty" gorm:"foreignKey:ServiceCenterID"`
}

func (ServiceHistory) TableName() string {
	return "service_histories"
}

// 服务类型
const (
	ServiceTypeWarrantyClaim = "Warranty Claim"
	ServiceTypeMaintenance   = "Maintenance"
	ServiceTypeRecall        = "Recall"
)
