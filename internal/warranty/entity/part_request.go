package entity

import (
	"time"
)

// PartRequest 备件申领单（服务中心技师向厂商申领更换件）
type PartRequest struct {
	ID               string     `json:"id" gorm:"primaryKey;size:32"`
	Status           string     `json:"status" gorm:"size:16;not null;default:pending;index"`
	RequestDate      time.Time  `json:"request_date" gorm:"not null"`
	ApprovedDate     *time.Time `json:"approved_date"`
	Quantity         int        `json:"quantity" gorm:"not null;default:1"`
	IssueDescription string     `json:"issue_description" gorm:"type:text;not null"`
	RejectionReason  string     `json:"rejection_reason" gorm:"type:text"`
	TrackingNumber   string     `json:"tracking_number" gorm:"size:64"`
	Notes            string     `json:"notes" gorm:"type:text"`
	ClaimID          string     `json:"claim_id" gorm:"size:32;not null;index"`
	ServiceCenterID  string     `json:"service_center_id" gorm:"size:32;not null;index"`
	FaultyPartID     string     `json:"faulty_part_id" gorm:"size:32;not null"`
	RequestedByID    string     `json:"requested_by_id" gorm:"size:32;not null;index"`
	ApprovedByID     *string    `json:"approved_by_id" gorm:"size:32"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// 关联
	Claim         *WarrantyClaim `json:"claim,omitempty" gorm:"foreignKey:ClaimID"`
	ServiceCenter *ServiceCenter `json:"service_center,omitempty" gorm:"foreignKey:ServiceCenterID"`
	FaultyPart    *Part          `json:"faulty_part,omitempty" gorm:"foreignKey:FaultyPartID"`
	RequestedBy   *User          `json:"requested_by,omitempty" gorm:"foreignKey:RequestedByID"`
	ApprovedBy    *User          `json:"approved_by,omitempty" gorm:"foreignKey:ApprovedByID"`
}

func (PartRequest) TableName() string {
	return "part_requests"
}

// 备件申领单状态
const (
	PartRequestStatusPending   = "pending"
	PartRequestStatusApproved  = "approved"
	PartRequestStatusShipped   = "shipped"
	PartRequestStatusDelivered = "delivered"
	PartRequestStatusRejected  = "rejected"
	PartRequestStatusCancelled = "cancelled"
)

// PartRequestInTransitStatuses 在途状态（已批准或已发货）
var PartRequestInTransitStatuses = []string{
	PartRequestStatusApproved,
	PartRequestStatusShipped,
}
