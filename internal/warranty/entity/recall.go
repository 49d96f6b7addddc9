package entity

import (
	"time"
)

// RecallRequest 召回申请（厂商发起，管理员批准后等待车主确认）
type RecallRequest struct {
	ID              string    `json:"id" gorm:"primaryKey;size:32"`
	Status          string    `json:"status" gorm:"size:32;not null;default:pending_admin_approval;index"`
	Reason          string    `json:"reason" gorm:"type:text;not null"`
	AdminNote       string    `json:"admin_note" gorm:"type:text"`
	CustomerNote    string    `json:"customer_note" gorm:"type:text"`
	InstalledPartID string    `json:"installed_part_id" gorm:"size:32;not null;index"`
	CreatedByID     string    `json:"created_by_id" gorm:"size:32;not null;index"`
	ApprovedByID    *string   `json:"approved_by_id" gorm:"size:32"`
	ClaimID         *string   `json:"claim_id" gorm:"size:32"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// 关联
	InstalledPart *InstalledPart `json:"installed_part,omitempty" gorm:"foreignKey:InstalledPartID"`
	CreatedBy     *User          `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`
	ApprovedBy    *User          `json:"approved_by,omitempty" gorm:"foreignKey:ApprovedByID"`
	Claim         *WarrantyClaim `json:"claim,omitempty" gorm:"foreignKey:ClaimID"`
}

func (RecallRequest) TableName() string {
	return "recall_requests"
}

// 召回申请状态
const (
	RecallStatusPendingAdminApproval = "pending_admin_approval"
	RecallStatusWaitingCustomer      = "waiting_customer_confirm"
	RecallStatusClaimCreated         = "claim_created"
	RecallStatusRejectedByAdmin      = "rejected_by_admin"
	RecallStatusRejectedByCustomer   = "rejected_by_customer"
)
