package entity

import (
	"time"
)

// User 用户实体（员工与车主账号共用）
type User struct {
	ID              string     `json:"id" gorm:"primaryKey;size:32"`
	Username        string     `json:"username" gorm:"size:64;not null;uniqueIndex"`
	Name            string     `json:"name" gorm:"size:64;not null"`
	Email           string     `json:"email" gorm:"size:128;uniqueIndex"`
	Phone           string     `json:"phone" gorm:"size:20"`
	PasswordHash    string     `json:"-" gorm:"size:128;not null"`
	ServiceCenterID *string    `json:"service_center_id" gorm:"size:32"`
	Status          string     `json:"status" gorm:"size:16;not null;default:active"`
	LastLoginAt     *time.Time `json:"last_login_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at" gorm:"index"`

	// 关联
	ServiceCenter *ServiceCenter `json:"service_center,omitempty" gorm:"foreignKey:ServiceCenterID"`
	Roles         []Role         `json:"roles,omitempty" gorm:"many2many:user_roles;"`

	// 非数据库字段
	RoleCodes []string `json:"role_codes,omitempty" gorm:"-"`
}

func (User) TableName() string {
	return "users"
}

// Role 角色实体
type Role struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:32;not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"size:64;not null"`
	IsSystem  bool      `json:"is_system" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Role) TableName() string {
	return "roles"
}

// UserRole 用户-角色关联
type UserRole struct {
	UserID string `json:"user_id" gorm:"primaryKey;size:32"`
	RoleID string `json:"role_id" gorm:"primaryKey;size:32"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// 角色编码
const (
	RoleAdmin        = "admin"
	RoleEVMStaff     = "evm_staff"
	RoleSCStaff      = "sc_staff"
	RoleSCTechnician = "sc_technician"
	RoleCustomer     = "customer"
)

// 用户状态
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// HasRole 是否持有指定角色
func (u *User) HasRole(code string) bool {
	for _, r := range u.Roles {
		if r.Code == code {
			return true
		}
	}
	return false
}
