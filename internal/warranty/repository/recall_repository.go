package repository

import (
	"context"
	"errors"
	"time"

	"github.com/voltora/warranty/internal/warranty/entity"
	"gorm.io/gorm"
)

// RecallRepository 召回申请仓储
type RecallRepository struct {
	db *gorm.DB
}

// NewRecallRepository 创建召回申请仓储
func NewRecallRepository(db *gorm.DB) *RecallRepository {
	return &RecallRepository{db: db}
}

// FindByID 根据ID查找召回申请
func (r *RecallRepository) FindByID(ctx context.Context, id string) (*entity.RecallRequest, error) {
	var recall entity.RecallRequest
	err := r.db.WithContext(ctx).
		Preload("InstalledPart").
		Preload("InstalledPart.Part").
		Preload("InstalledPart.Vehicle").
		Preload("InstalledPart.Vehicle.Customer").
		Preload("CreatedBy").
		Preload("ApprovedBy").
		Preload("Claim").
		Where("id = ?", id).
		First(&recall).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recall, nil
}

// Create 创建召回申请
func (r *RecallRepository) Create(ctx context.Context, recall *entity.RecallRequest) error {
	return r.db.WithContext(ctx).Create(recall).Error
}

// Update 更新召回申请
func (r *RecallRepository) Update(ctx context.Context, recall *entity.RecallRequest) error {
	return r.db.WithContext(ctx).Save(recall).Error
}

// Delete 删除召回申请
func (r *RecallRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.RecallRequest{}, "id = ?", id).Error
}

// UpdateStatusIf 带状态前置条件的状态迁移，返回是否迁移成功
func (r *RecallRepository) UpdateStatusIf(ctx context.Context, id, fromStatus, toStatus string, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     toStatus,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).
		Model(&entity.RecallRequest{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List 获取召回申请分页列表
func (r *RecallRepository) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.RecallRequest, int64, error) {
	var recalls []entity.RecallRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.RecallRequest{})

	if status, ok := filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if createdBy, ok := filters["created_by"]; ok && createdBy != "" {
		query = query.Where("created_by_id = ?", createdBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("InstalledPart").
		Preload("InstalledPart.Part").
		Preload("InstalledPart.Vehicle").
		Preload("CreatedBy").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&recalls).Error
	if err != nil {
		return nil, 0, err
	}

	return recalls, total, nil
}

// ListByCustomer 车主相关的召回申请（经 装车件→车辆→车主 关联）
func (r *RecallRepository) ListByCustomer(ctx context.Context, customerID string) ([]entity.RecallRequest, error) {
	var recalls []entity.RecallRequest
	err := r.db.WithContext(ctx).
		Joins("JOIN installed_parts ON installed_parts.id = recall_requests.installed_part_id").
		Joins("JOIN vehicles ON vehicles.id = installed_parts.vehicle_id").
		Where("vehicles.customer_id = ?", customerID).
		Preload("InstalledPart").
		Preload("InstalledPart.Part").
		Preload("InstalledPart.Vehicle").
		Order("recall_requests.created_at DESC").
		Find(&recalls).Error
	return recalls, err
}
