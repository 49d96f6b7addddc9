package repository

import (
	"context"
	"errors"
	"time"

	"github.com/voltora/warranty/internal/warranty/entity"
	"gorm.io/gorm"
)

// ServiceCenterRepository 服务中心仓储
type ServiceCenterRepository struct {
	db *gorm.DB
}

// NewServiceCenterRepository 创建服务中心仓储
func NewServiceCenterRepository(db *gorm.DB) *ServiceCenterRepository {
	return &ServiceCenterRepository{db: db}
}

// FindByID 根据ID查找服务中心
func (r *ServiceCenterRepository) FindByID(ctx context.Context, id string) (*entity.ServiceCenter, error) {
	var sc entity.ServiceCenter
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sc, nil
}

// Create 创建服务中心
func (r *ServiceCenterRepository) Create(ctx context.Context, sc *entity.ServiceCenter) error {
	return r.db.WithContext(ctx).Create(sc).Error
}

// Update 更新服务中心
func (r *ServiceCenterRepository) Update(ctx context.Context, sc *entity.ServiceCenter) error {
	return r.db.WithContext(ctx).Save(sc).Error
}

// Delete 删除服务中心
func (r *ServiceCenterRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.ServiceCenter{}, "id = ?", id).Error
}

// CountStaff 服务中心在编人数（删除保护用）
func (r *ServiceCenterRepository) CountStaff(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("service_center_id = ?", id).
		Count(&count).Error
	return count, err
}

// List 获取服务中心列表（可按地区过滤）
func (r *ServiceCenterRepository) List(ctx context.Context, region string) ([]entity.ServiceCenter, error) {
	query := r.db.WithContext(ctx).Model(&entity.ServiceCenter{})
	if region != "" {
		query = query.Where("region = ?", region)
	}

	var centers []entity.ServiceCenter
	err := query.Order("name").Find(&centers).Error
	return centers, err
}

// ServiceHistoryRepository 服务记录仓储
type ServiceHistoryRepository struct {
	db *gorm.DB
}

// NewServiceHistoryRepository 创建服务记录仓储
func NewServiceHistoryRepository(db *gorm.DB) *ServiceHistoryRepository {
	return &ServiceHistoryRepository{db: db}
}

// FindByID 根据ID查找服务记录
func (r *ServiceHistoryRepository) FindByID(ctx context.Context, id string) (*entity.ServiceHistory, error) {
	var sh entity.ServiceHistory
	err := r.db.WithContext(ctx).
		Preload("Vehicle").
		Preload("ServiceCenter").
		Where("id = ?", id).
		First(&sh).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sh, nil
}

// Create 创建服务记录
func (r *ServiceHistoryRepository) Create(ctx context.Context, sh *entity.ServiceHistory) error {
	return r.db.WithContext(ctx).Create(sh).Error
}

// ListByVehicle 车辆的服务记录（可选日期范围）
func (r *ServiceHistoryRepository) ListByVehicle(ctx context.Context, vehicleID string, from, to *time.Time) ([]entity.ServiceHistory, error) {
	query := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID)
	if from != nil {
		query = query.Where("service_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("service_date <= ?", *to)
	}

	var histories []entity.ServiceHistory
	err := query.
		Preload("ServiceCenter").
		Order("service_date DESC").
		Find(&histories).Error
	return histories, err
}
