package repository

import (
	"context"
	"errors"

	"github.com/voltora/warranty/internal/warranty/entity"
	"gorm.io/gorm"
)

// VehicleRepository 车辆仓储
type VehicleRepository struct {
	db *gorm.DB
}

// NewVehicleRepository 创建车辆仓储
func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// FindByID 根据ID查找车辆
func (r *VehicleRepository) FindByID(ctx context.Context, id string) (*entity.Vehicle, error) {
	var vehicle entity.Vehicle
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("InstalledParts").
		Preload("InstalledParts.Part").
		Where("id = ?", id).
		First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// FindByVIN 根据VIN查找车辆
func (r *VehicleRepository) FindByVIN(ctx context.Context, vin string) (*entity.Vehicle, error) {
	var vehicle entity.Vehicle
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("vin = ?", vin).
		First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// ExistsByVIN VIN是否已登记
func (r *VehicleRepository) ExistsByVIN(ctx context.Context, vin string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Vehicle{}).
		Where("vin = ?", vin).
		Count(&count).Error
	return count > 0, err
}

// Create 创建车辆
func (r *VehicleRepository) Create(ctx context.Context, vehicle *entity.Vehicle) error {
	return r.db.WithContext(ctx).Create(vehicle).Error
}

// Update 更新车辆
func (r *VehicleRepository) Update(ctx context.Context, vehicle *entity.Vehicle) error {
	return r.db.WithContext(ctx).Save(vehicle).Error
}

// Delete 删除车辆
func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.Vehicle{}, "id = ?", id).Error
}

// ListByCustomer 车主名下车辆
func (r *VehicleRepository) ListByCustomer(ctx context.Context, customerID string) ([]entity.Vehicle, error) {
	var vehicles []entity.Vehicle
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&vehicles).Error
	return vehicles, err
}

// List 获取车辆分页列表
func (r *VehicleRepository) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Vehicle, int64, error) {
	var vehicles []entity.Vehicle
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Vehicle{})

	if keyword, ok := filters["keyword"]; ok && keyword != "" {
		query = query.Where("vin ILIKE ? OR model ILIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	if model, ok := filters["model"]; ok && model != "" {
		query = query.Where("model = ?", model)
	}
	if customerID, ok := filters["customer_id"]; ok && customerID != "" {
		query = query.Where("customer_id = ?", customerID)
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
		Find(&vehicles).Error
	if err != nil {
		return nil, 0, err
	}

	return vehicles, total, nil
}
