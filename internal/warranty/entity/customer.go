package entity

import (
	"time"
)

// Customer 车主档案
type Customer struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Email     string    `json:"email" gorm:"size:128;not null;uniqueIndex"`
	Phone     string    `json:"phone" gorm:"size:20;not null;uniqueIndex"`
	Address   string    `json:"address" gorm:"size:256"`
	UserID    *string   `json:"user_id" gorm:"size:32;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	User     *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Vehicles []Vehicle `json:"vehicles,omitempty" gorm:"foreignKey:CustomerID"`
}

func (Customer) TableName() string {
	return "customers"
}
