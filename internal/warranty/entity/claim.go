package entity

import (
	"time"
)

// WarrantyClaim 质保工单
type WarrantyClaim struct {
	ID              string     `json:"id" gorm:"primaryKey;size:32"`
	Status          string     `json:"status" gorm:"size:24;not null;default:submitted;index"`
	ClaimDate       time.Time  `json:"claim_date" gorm:"not null"`
	ResolutionDate  *time.Time `json:"resolution_date"`
	Description     string     `json:"description" gorm:"type:text;not null"`
	VehicleID       string     `json:"vehicle_id" gorm:"size:32;not null;index"`
	InstalledPartID string     `json:"installed_part_id" gorm:"size:32;not null;index"`
	ServiceCenterID *string    `json:"service_center_id" gorm:"size:32"`
	AssignedToID    *string    `json:"assigned_to_id" gorm:"size:32;index"`
	CreatedBy       string     `json:"created_by" gorm:"size:32;not null"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// 关联
	Vehicle       *Vehicle          `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
	InstalledPart *InstalledPart    `json:"installed_part,omitempty" gorm:"foreignKey:InstalledPartID"`
	ServiceCenter *ServiceCenter    `json:"service_center,omitempty" gorm:"foreignKey:ServiceCenterID"`
	AssignedTo    *User             `json:"assigned_to,omitempty" gorm:"foreignKey:AssignedToID"`
	WorkLogs      []WorkLog         `json:"work_logs,omitempty" gorm:"foreignKey:ClaimID"`
	Attachments   []ClaimAttachment `json:"attachments,omitempty" gorm:"foreignKey:ClaimID"`
	Histories     []ClaimHistory    `json:"histories,omitempty" gorm:"foreignKey:ClaimID"`
}

func (WarrantyClaim) TableName() string {
	return "warranty_claims"
}

// WorkLog 技师工时记录
type WorkLog struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	ClaimID     string     `json:"claim_id" gorm:"size:32;not null;index"`
	UserID      string     `json:"user_id" gorm:"size:32;not null;index"`
	StartTime   time.Time  `json:"start_time" gorm:"not null"`
	EndTime     *time.Time `json:"end_time"`
	Description string     `json:"description" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// 关联
	Claim *WarrantyClaim `json:"claim,omitempty" gorm:"foreignKey:ClaimID"`
	User  *User          `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (WorkLog) TableName() string {
	return "work_logs"
}

// ClaimAttachment 工单附件（故障照片等，存MinIO）
type ClaimAttachment struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	ClaimID     string    `json:"claim_id" gorm:"size:32;not null;index"`
	FileName    string    `json:"file_name" gorm:"size:256;not null"`
	ObjectKey   string    `json:"object_key" gorm:"size:512;not null"`
	Size        int64     `json:"size" gorm:"not null"`
	ContentType string    `json:"content_type" gorm:"size:128"`
	UploadedBy  string    `json:"uploaded_by" gorm:"size:32;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ClaimAttachment) TableName() string {
	return "claim_attachments"
}

// ClaimHistory 工单操作历史
type ClaimHistory struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	ClaimID   string    `json:"claim_id" gorm:"size:32;not null;index"`
	Action    string    `json:"action" gorm:"size:32;not null"`
	UserID    string    `json:"user_id" gorm:"size:32;not null"`
	Detail    JSONB     `json:"detail" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"created_at"`

	// 关联
	Claim *WarrantyClaim `json:"claim,omitempty" gorm:"foreignKey:ClaimID"`
	User  *User          `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (ClaimHistory) TableName() string {
	return "claim_histories"
}

// 工单状态
const (
	ClaimStatusSubmitted     = "submitted"
	ClaimStatusManagerReview = "manager_review"
	ClaimStatusProcessing    = "processing"
	ClaimStatusCompleted     = "completed"
	ClaimStatusRejected      = "rejected"
)

// ClaimTransitions 工单状态机：当前状态到合法下一状态的映射
var ClaimTransitions = map[string][]string{
	ClaimStatusSubmitted:     {ClaimStatusManagerReview, ClaimStatusRejected},
	ClaimStatusManagerReview: {ClaimStatusProcessing},
	ClaimStatusProcessing:    {ClaimStatusCompleted},
	ClaimStatusCompleted:     {},
	ClaimStatusRejected:      {},
}

// ClaimCanTransition 目标状态是否为当前状态的合法迁移
func ClaimCanTransition(from, to string) bool {
	for _, s := range ClaimTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ClaimStatusFinal 是否终态
func ClaimStatusFinal(status string) bool {
	return status == ClaimStatusCompleted || status == ClaimStatusRejected
}

// 工单历史动作
const (
	ClaimHistoryCreated   = "created"
	ClaimHistoryAccepted  = "accepted"
	ClaimHistoryRejected  = "rejected"
	ClaimHistoryStarted   = "processing_started"
	ClaimHistoryCompleted = "completed"
	ClaimHistoryAssigned  = "assigned"
	ClaimHistoryUpdated   = "status_updated"
)
