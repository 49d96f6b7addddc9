package entity

import (
	"time"
)

// Feedback 车主对已完成工单的评价（每单至多一条）
type Feedback struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	Rating     int       `json:"rating" gorm:"not null"`
	Comment    string    `json:"comment" gorm:"type:text"`
	CustomerID string    `json:"customer_id" gorm:"size:32;not null;index"`
	ClaimID    string    `json:"claim_id" gorm:"size:32;not null;uniqueIndex"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// 关联
	Customer *Customer      `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Claim    *WarrantyClaim `json:"claim,omitempty" gorm:"foreignKey:ClaimID"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}

// 评分范围
const (
	FeedbackRatingMin = 1
	FeedbackRatingMax = 5
)
