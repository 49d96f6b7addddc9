package repository

import (
	"context"
	"errors"
	"time"

	"github.com/voltora/warranty/internal/warranty/entity"
	"gorm.io/gorm"
)

// ClaimRepository 质保工单仓储
type ClaimRepository struct {
	db *gorm.DB
}

// NewClaimRepository 创建质保工单仓储
func NewClaimRepository(db *gorm.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// FindByID 根据ID查找工单
func (r *ClaimRepository) FindByID(ctx context.Context, id string) (*entity.WarrantyClaim, error) {
	var claim entity.WarrantyClaim
	err := r.db.WithContext(ctx).
		Preload("Vehicle").
		Preload("Vehicle.Customer").
		Preload("InstalledPart").
		Preload("InstalledPart.Part").
		Preload("ServiceCenter").
		Preload("AssignedTo").
		Preload("WorkLogs").
		Preload("WorkLogs.User").
		Preload("Attachments").
		Where("id = ?", id).
		First(&claim).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &claim, nil
}

// Create 创建工单
func (r *ClaimRepository) Create(ctx context.Context, claim *entity.WarrantyClaim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

// Update 更新工单
func (r *ClaimRepository) Update(ctx context.Context, claim *entity.WarrantyClaim) error {
	return r.db.WithContext(ctx).Save(claim).Error
}

// Delete 删除工单
func (r *ClaimRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.WarrantyClaim{}, "id = ?", id).Error
}

// UpdateStatusIf 带状态前置条件的状态迁移。返回是否真的迁移成功，
// 避免两个请求并发读改写同一工单时丢失状态检查。
func (r *ClaimRepository) UpdateStatusIf(ctx context.Context, id, fromStatus, toStatus string, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     toStatus,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).
		Model(&entity.WarrantyClaim{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List 获取工单分页列表
func (r *ClaimRepository) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.WarrantyClaim, int64, error) {
	var claims []entity.WarrantyClaim
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.WarrantyClaim{})

	if status, ok := filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if vehicleID, ok := filters["vehicle_id"]; ok && vehicleID != "" {
		query = query.Where("vehicle_id = ?", vehicleID)
	}
	if scID, ok := filters["service_center_id"]; ok && scID != "" {
		query = query.Where("service_center_id = ?", scID)
	}
	if assignedTo, ok := filters["assigned_to"]; ok && assignedTo != "" {
		query = query.Where("assigned_to_id = ?", assignedTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Vehicle").
		Preload("InstalledPart").
		Preload("InstalledPart.Part").
		Order("claim_date DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&claims).Error
	if err != nil {
		return nil, 0, err
	}

	return claims, total, nil
}

// ListByStatuses 按状态集合查询（技师待处理 = manager_review + processing）
func (r *ClaimRepository) ListByStatuses(ctx context.Context, statuses []string) ([]entity.WarrantyClaim, error) {
	var claims []entity.WarrantyClaim
	err := r.db.WithContext(ctx).
		Preload("Vehicle").
		Preload("InstalledPart").
		Where("status IN ?", statuses).
		Order("claim_date").
		Find(&claims).Error
	return claims, err
}

// CountByStatus 按状态统计工单数量
func (r *ClaimRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&entity.WarrantyClaim{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ListByCustomer 车主名下工单（经 车辆→车主 关联）
func (r *ClaimRepository) ListByCustomer(ctx context.Context, customerID string, page, pageSize int) ([]entity.WarrantyClaim, int64, error) {
	var claims []entity.WarrantyClaim
	var total int64

	query := r.db.WithContext(ctx).
		Model(&entity.WarrantyClaim{}).
		Joins("JOIN vehicles ON vehicles.id = warranty_claims.vehicle_id").
		Where("vehicles.customer_id = ?", customerID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Vehicle").
		Preload("InstalledPart").
		Preload("InstalledPart.Part").
		Order("claim_date DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&claims).Error
	if err != nil {
		return nil, 0, err
	}

	return claims, total, nil
}

// ListAllForExport 导出用全量工单
func (r *ClaimRepository) ListAllForExport(ctx context.Context, filters map[string]string) ([]entity.WarrantyClaim, error) {
	query := r.db.WithContext(ctx).Model(&entity.WarrantyClaim{})
	if status, ok := filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}

	var claims []entity.WarrantyClaim
	err := query.
		Preload("Vehicle").
		Preload("Vehicle.Customer").
		Preload("InstalledPart").
		Preload("InstalledPart.Part").
		Preload("ServiceCenter").
		Order("claim_date").
		Find(&claims).Error
	return claims, err
}

// CreateWorkLog 创建工时记录
func (r *ClaimRepository) CreateWorkLog(ctx context.Context, wl *entity.WorkLog) error {
	return r.db.WithContext(ctx).Create(wl).Error
}

// UpdateWorkLog 更新工时记录
func (r *ClaimRepository) UpdateWorkLog(ctx context.Context, wl *entity.WorkLog) error {
	return r.db.WithContext(ctx).Save(wl).Error
}

// FindActiveWorkLog 查找某技师在某工单上最近一条未结束的工时记录
func (r *ClaimRepository) FindActiveWorkLog(ctx context.Context, claimID, userID string) (*entity.WorkLog, error) {
	var wl entity.WorkLog
	err := r.db.WithContext(ctx).
		Where("claim_id = ? AND user_id = ? AND end_time IS NULL", claimID, userID).
		Order("start_time DESC").
		First(&wl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &wl, nil
}

// ListWorkLogs 工单的工时记录列表
func (r *ClaimRepository) ListWorkLogs(ctx context.Context, claimID string) ([]entity.WorkLog, error) {
	var logs []entity.WorkLog
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("claim_id = ?", claimID).
		Order("start_time").
		Find(&logs).Error
	return logs, err
}

// AddHistory 追加工单操作历史
func (r *ClaimRepository) AddHistory(ctx context.Context, h *entity.ClaimHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

// ListHistory 工单操作历史列表
func (r *ClaimRepository) ListHistory(ctx context.Context, claimID string) ([]entity.ClaimHistory, error) {
	var histories []entity.ClaimHistory
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("claim_id = ?", claimID).
		Order("created_at").
		Find(&histories).Error
	return histories, err
}

// AddAttachment 保存工单附件元数据
func (r *ClaimRepository) AddAttachment(ctx context.Context, a *entity.ClaimAttachment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// FindAttachmentByID 根据ID查找附件
func (r *ClaimRepository) FindAttachmentByID(ctx context.Context, id string) (*entity.ClaimAttachment, error) {
	var a entity.ClaimAttachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListAttachments 工单附件列表
func (r *ClaimRepository) ListAttachments(ctx context.Context, claimID string) ([]entity.ClaimAttachment, error) {
	var attachments []entity.ClaimAttachment
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("created_at").
		Find(&attachments).Error
	return attachments, err
}
