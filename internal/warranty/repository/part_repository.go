package repository

import (
	"context"
	"errors"

	"github.com/voltora/warranty/internal/warranty/entity"
	"gorm.io/gorm"
)

// PartRepository 零部件目录仓储
type PartRepository struct {
	db *gorm.DB
}

// NewPartRepository 创建零部件目录仓储
func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

// FindByID 根据ID查找零部件
func (r *PartRepository) FindByID(ctx context.Context, id string) (*entity.Part, error) {
	var part entity.Part
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&part).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &part, nil
}

// ExistsByPartNumber 零件号是否已存在
func (r *PartRepository) ExistsByPartNumber(ctx context.Context, partNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Part{}).
		Where("part_number = ?", partNumber).
		Count(&count).Error
	return count > 0, err
}

// Create 创建零部件
func (r *PartRepository) Create(ctx context.Context, part *entity.Part) error {
	return r.db.WithContext(ctx).Create(part).Error
}

// Update 更新零部件
func (r *PartRepository) Update(ctx context.Context, part *entity.Part) error {
	return r.db.WithContext(ctx).Save(part).Error
}

// Delete 删除零部件
func (r *PartRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.Part{}, "id = ?", id).Error
}

// CountInstalled 该零部件的装车数量（删除保护用）
func (r *PartRepository) CountInstalled(ctx context.Context, partID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.InstalledPart{}).
		Where("part_id = ?", partID).
		Count(&count).Error
	return count, err
}

// List 获取零部件分页列表
func (r *PartRepository) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Part, int64, error) {
	var parts []entity.Part
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Part{})

	if keyword, ok := filters["keyword"]; ok && keyword != "" {
		query = query.Where("part_number ILIKE ? OR name ILIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	if category, ok := filters["category"]; ok && category != "" {
		query = query.Where("category = ?", category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("part_number").
		Offset(offset).
		Limit(pageSize).
		Find(&parts).Error
	if err != nil {
		return nil, 0, err
	}

	return parts, total, nil
}

// InstalledPartRepository 装车件仓储
type InstalledPartRepository struct {
	db *gorm.DB
}

// NewInstalledPartRepository 创建装车件仓储
func NewInstalledPartRepository(db *gorm.DB) *InstalledPartRepository {
	return &InstalledPartRepository{db: db}
}

// FindByID 根据ID查找装车件
func (r *InstalledPartRepository) FindByID(ctx context.Context, id string) (*entity.InstalledPart, error) {
	var ip entity.InstalledPart
	err := r.db.WithContext(ctx).
		Preload("Part").
		Preload("Vehicle").
		Preload("Vehicle.Customer").
		Where("id = ?", id).
		First(&ip).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ip, nil
}

// Create 创建装车件
func (r *InstalledPartRepository) Create(ctx context.Context, ip *entity.InstalledPart) error {
	return r.db.WithContext(ctx).Create(ip).Error
}

// Update 更新装车件
func (r *InstalledPartRepository) Update(ctx context.Context, ip *entity.InstalledPart) error {
	return r.db.WithContext(ctx).Save(ip).Error
}

// Delete 删除装车件
func (r *InstalledPartRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.InstalledPart{}, "id = ?", id).Error
}

// ListByVehicle 车辆上的装车件
func (r *InstalledPartRepository) ListByVehicle(ctx context.Context, vehicleID string) ([]entity.InstalledPart, error) {
	var parts []entity.InstalledPart
	err := r.db.WithContext(ctx).
		Preload("Part").
		Where("vehicle_id = ?", vehicleID).
		Order("installation_date DESC").
		Find(&parts).Error
	return parts, err
}
