package repository

import (
	"context"
	"errors"
	"time"

	"github.com/voltora/warranty/internal/warranty/entity"
	"gorm.io/gorm"
)

// PartRequestRepository 备件申领单仓储
type PartRequestRepository struct {
	db *gorm.DB
}

// NewPartRequestRepository 创建备件申领单仓储
func NewPartRequestRepository(db *gorm.DB) *PartRequestRepository {
	return &PartRequestRepository{db: db}
}

// FindByID 根据ID查找申领单
func (r *PartRequestRepository) FindByID(ctx context.Context, id string) (*entity.PartRequest, error) {
	var pr entity.PartRequest
	err := r.db.WithContext(ctx).
		Preload("Claim").
		Preload("ServiceCenter").
		Preload("FaultyPart").
		Preload("RequestedBy").
		Preload("ApprovedBy").
		Where("id = ?", id).
		First(&pr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pr, nil
}

// Create 创建申领单
func (r *PartRequestRepository) Create(ctx context.Context, pr *entity.PartRequest) error {
	return r.db.WithContext(ctx).Create(pr).Error
}

// Update 更新申领单
func (r *PartRequestRepository) Update(ctx context.Context, pr *entity.PartRequest) error {
	return r.db.WithContext(ctx).Save(pr).Error
}

// UpdateStatusIf 带状态前置条件的状态迁移，返回是否迁移成功
func (r *PartRequestRepository) UpdateStatusIf(ctx context.Context, id, fromStatus, toStatus string, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     toStatus,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).
		Model(&entity.PartRequest{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List 获取申领单分页列表
func (r *PartRequestRepository) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PartRequest, int64, error) {
	var requests []entity.PartRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PartRequest{})

	if status, ok := filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if claimID, ok := filters["claim_id"]; ok && claimID != "" {
		query = query.Where("claim_id = ?", claimID)
	}
	if scID, ok := filters["service_center_id"]; ok && scID != "" {
		query = query.Where("service_center_id = ?", scID)
	}
	if requestedBy, ok := filters["requested_by"]; ok && requestedBy != "" {
		query = query.Where("requested_by_id = ?", requestedBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("FaultyPart").
		Preload("ServiceCenter").
		Preload("RequestedBy").
		Order("request_date DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// ListInTransit 在途申领单（已批准或已发货）
func (r *PartRequestRepository) ListInTransit(ctx context.Context) ([]entity.PartRequest, error) {
	var requests []entity.PartRequest
	err := r.db.WithContext(ctx).
		Preload("FaultyPart").
		Preload("ServiceCenter").
		Where("status IN ?", entity.PartRequestInTransitStatuses).
		Order("approved_date").
		Find(&requests).Error
	return requests, err
}

// CountByStatus 按状态统计申领单数量
func (r *PartRequestRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.PartRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}
