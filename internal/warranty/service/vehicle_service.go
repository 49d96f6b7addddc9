package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/repository"
)

// VehicleService 车辆服务
type VehicleService struct {
	vehicleRepo  *repository.VehicleRepository
	customerRepo *repository.CustomerRepository
	histRepo     *repository.ServiceHistoryRepository
}

// NewVehicleService 创建车辆服务
func NewVehicleService(
	vehicleRepo *repository.VehicleRepository,
	customerRepo *repository.CustomerRepository,
	histRepo *repository.ServiceHistoryRepository,
) *VehicleService {
	return &VehicleService{
		vehicleRepo:  vehicleRepo,
		customerRepo: customerRepo,
		histRepo:     histRepo,
	}
}

// CreateVehicleRequest 登记车辆请求
type CreateVehicleRequest struct {
	VIN          string     `json:"vin" binding:"required,len=17"`
	Model        string     `json:"model" binding:"required"`
	Year         int        `json:"year" binding:"required,min=2008"`
	CustomerID   string     `json:"customer_id" binding:"required"`
	PurchaseDate *time.Time `json:"purchase_date"`
}

// UpdateVehicleRequest 更新车辆请求
type UpdateVehicleRequest struct {
	Model        string     `json:"model"`
	Year         int        `json:"year" binding:"omitempty,min=2008"`
	PurchaseDate *time.Time `json:"purchase_date"`
}

// VehicleListResult 车辆分页列表结果
type VehicleListResult struct {
	Items      []entity.Vehicle `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// Create 登记车辆，VIN 全局唯一
func (s *VehicleService) Create(ctx context.Context, req *CreateVehicleRequest) (*entity.Vehicle, error) {
	vin := strings.ToUpper(strings.TrimSpace(req.VIN))

	exists, err := s.vehicleRepo.ExistsByVIN(ctx, vin)
	if err != nil {
		return nil, fmt.Errorf("check vin: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: VIN %s already registered", ErrDuplicate, vin)
	}

	if _, err := s.customerRepo.FindByID(ctx, req.CustomerID); err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: customer %s", ErrNotFound, req.CustomerID)
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}

	now := time.Now()
	vehicle := &entity.Vehicle{
		ID:           uuid.New().String()[:32],
		VIN:          vin,
		Model:        req.Model,
		Year:         req.Year,
		CustomerID:   req.CustomerID,
		PurchaseDate: req.PurchaseDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("create vehicle: %w", err)
	}
	return vehicle, nil
}

// Get 获取车辆详情
func (s *VehicleService) Get(ctx context.Context, id string) (*entity.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("find vehicle: %w", err)
	}
	return vehicle, nil
}

// GetByVIN 按车架号获取车辆
func (s *VehicleService) GetByVIN(ctx context.Context, vin string) (*entity.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByVIN(ctx, strings.ToUpper(strings.TrimSpace(vin)))
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: vehicle with VIN %s", ErrNotFound, vin)
		}
		return nil, fmt.Errorf("find vehicle: %w", err)
	}
	return vehicle, nil
}

// Update 更新车辆信息。VIN 与归属车主不可变更。
func (s *VehicleService) Update(ctx context.Context, id string, req *UpdateVehicleRequest) (*entity.Vehicle, error) {
	vehicle, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Model != "" {
		vehicle.Model = req.Model
	}
	if req.Year != 0 {
		vehicle.Year = req.Year
	}
	if req.PurchaseDate != nil {
		vehicle.PurchaseDate = req.PurchaseDate
	}
	vehicle.UpdatedAt = time.Now()

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("update vehicle: %w", err)
	}
	return vehicle, nil
}

// Delete 删除车辆
func (s *VehicleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.vehicleRepo.Delete(ctx, id)
}

// ListByCustomer 车主名下车辆
func (s *VehicleService) ListByCustomer(ctx context.Context, customerID string) ([]entity.Vehicle, error) {
	return s.vehicleRepo.ListByCustomer(ctx, customerID)
}

// ListMine 当前登录车主的车辆
func (s *VehicleService) ListMine(ctx context.Context, userID string) ([]entity.Vehicle, error) {
	customer, err := s.customerRepo.FindByUserID(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: no customer profile for current user", ErrNotFound)
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return s.vehicleRepo.ListByCustomer(ctx, customer.ID)
}

// List 车辆分页列表
func (s *VehicleService) List(ctx context.Context, page, pageSize int, filters map[string]string) (*VehicleListResult, error) {
	items, total, err := s.vehicleRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	totalPages := pageCount(total, pageSize)
	return &VehicleListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// ServiceHistory 车辆服务记录，支持起止日期过滤
func (s *VehicleService) ServiceHistory(ctx context.Context, vehicleID string, from, to *time.Time) ([]entity.ServiceHistory, error) {
	if _, err := s.Get(ctx, vehicleID); err != nil {
		return nil, err
	}
	return s.histRepo.ListByVehicle(ctx, vehicleID, from, to)
}
