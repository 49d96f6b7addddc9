package repository

import (
	"context"
	"errors"

	"github.com/voltora/warranty/internal/warranty/entity"
	"gorm.io/gorm"
)

// FeedbackRepository 评价仓储
type FeedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository 创建评价仓储
func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// FindByID 根据ID查找评价
func (r *FeedbackRepository) FindByID(ctx context.Context, id string) (*entity.Feedback, error) {
	var fb entity.Feedback
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Claim").
		Where("id = ?", id).
		First(&fb).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &fb, nil
}

// ExistsByClaim 工单是否已有评价
func (r *FeedbackRepository) ExistsByClaim(ctx context.Context, claimID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Feedback{}).
		Where("claim_id = ?", claimID).
		Count(&count).Error
	return count > 0, err
}

// Create 创建评价
func (r *FeedbackRepository) Create(ctx context.Context, fb *entity.Feedback) error {
	return r.db.WithContext(ctx).Create(fb).Error
}

// Delete 删除评价
func (r *FeedbackRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.Feedback{}, "id = ?", id).Error
}

// List 获取评价分页列表（可按评分过滤）
func (r *FeedbackRepository) List(ctx context.Context, page, pageSize int, rating int) ([]entity.Feedback, int64, error) {
	var feedbacks []entity.Feedback
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Feedback{})
	if rating > 0 {
		query = query.Where("rating = ?", rating)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Customer").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&feedbacks).Error
	if err != nil {
		return nil, 0, err
	}

	return feedbacks, total, nil
}

// ListByCustomer 车主的评价列表
func (r *FeedbackRepository) ListByCustomer(ctx context.Context, customerID string) ([]entity.Feedback, error) {
	var feedbacks []entity.Feedback
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&feedbacks).Error
	return feedbacks, err
}
