package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/repository"
)

// PartService 零部件与装车件服务
type PartService struct {
	partRepo    *repository.PartRepository
	ipRepo      *repository.InstalledPartRepository
	vehicleRepo *repository.VehicleRepository
}

// NewPartService 创建零部件服务
func NewPartService(
	partRepo *repository.PartRepository,
	ipRepo *repository.InstalledPartRepository,
	vehicleRepo *repository.VehicleRepository,
) *PartService {
	return &PartService{partRepo: partRepo, ipRepo: ipRepo, vehicleRepo: vehicleRepo}
}

// CreatePartRequest 登记零部件请求
type CreatePartRequest struct {
	PartNumber string  `json:"part_number" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Category   string  `json:"category"`
	UnitPrice  float64 `json:"unit_price" binding:"omitempty,min=0"`
}

// UpdatePartRequest 更新零部件请求
type UpdatePartRequest struct {
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	UnitPrice *float64 `json:"unit_price" binding:"omitempty,min=0"`
}

// InstallPartRequest 装车登记请求
type InstallPartRequest struct {
	PartID                 string    `json:"part_id" binding:"required"`
	VehicleID              string    `json:"vehicle_id" binding:"required"`
	SerialNumber           string    `json:"serial_number"`
	InstallationDate       time.Time `json:"installation_date" binding:"required"`
	WarrantyExpirationDate time.Time `json:"warranty_expiration_date" binding:"required"`
}

// PartListResult 零部件分页列表结果
type PartListResult struct {
	Items      []entity.Part `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// CreatePart 登记零部件，编号全局唯一
func (s *PartService) CreatePart(ctx context.Context, req *CreatePartRequest) (*entity.Part, error) {
	exists, err := s.partRepo.ExistsByPartNumber(ctx, req.PartNumber)
	if err != nil {
		return nil, fmt.Errorf("check part number: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: part number %s already exists", ErrDuplicate, req.PartNumber)
	}

	now := time.Now()
	part := &entity.Part{
		ID:         uuid.New().String()[:32],
		PartNumber: req.PartNumber,
		Name:       req.Name,
		Category:   req.Category,
		UnitPrice:  req.UnitPrice,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.partRepo.Create(ctx, part); err != nil {
		return nil, fmt.Errorf("create part: %w", err)
	}
	return part, nil
}

// GetPart 获取零部件详情
func (s *PartService) GetPart(ctx context.Context, id string) (*entity.Part, error) {
	part, err := s.partRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: part %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("find part: %w", err)
	}
	return part, nil
}

// UpdatePart 更新零部件
func (s *PartService) UpdatePart(ctx context.Context, id string, req *UpdatePartRequest) (*entity.Part, error) {
	part, err := s.GetPart(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		part.Name = req.Name
	}
	if req.Category != "" {
		part.Category = req.Category
	}
	if req.UnitPrice != nil {
		part.UnitPrice = *req.UnitPrice
	}
	part.UpdatedAt = time.Now()

	if err := s.partRepo.Update(ctx, part); err != nil {
		return nil, fmt.Errorf("update part: %w", err)
	}
	return part, nil
}

// DeletePart 删除零部件。已有装车记录的零部件禁止删除。
func (s *PartService) DeletePart(ctx context.Context, id string) error {
	if _, err := s.GetPart(ctx, id); err != nil {
		return err
	}

	count, err := s.partRepo.CountInstalled(ctx, id)
	if err != nil {
		return fmt.Errorf("count installed: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: part is installed on %d vehicle(s)", ErrDuplicate, count)
	}
	return s.partRepo.Delete(ctx, id)
}

// ListParts 零部件分页列表
func (s *PartService) ListParts(ctx context.Context, page, pageSize int, filters map[string]string) (*PartListResult, error) {
	items, total, err := s.partRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	totalPages := pageCount(total, pageSize)
	return &PartListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// InstallPart 装车登记。质保到期日必须晚于装车日期。
func (s *PartService) InstallPart(ctx context.Context, req *InstallPartRequest) (*entity.InstalledPart, error) {
	if !req.WarrantyExpirationDate.After(req.InstallationDate) {
		return nil, fmt.Errorf("%w: warranty expiration must be after installation date", ErrInvalidArgument)
	}

	if _, err := s.GetPart(ctx, req.PartID); err != nil {
		return nil, err
	}
	if _, err := s.vehicleRepo.FindByID(ctx, req.VehicleID); err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, req.VehicleID)
		}
		return nil, fmt.Errorf("find vehicle: %w", err)
	}

	now := time.Now()
	ip := &entity.InstalledPart{
		ID:                     uuid.New().String()[:32],
		PartID:                 req.PartID,
		VehicleID:              req.VehicleID,
		SerialNumber:           req.SerialNumber,
		InstallationDate:       req.InstallationDate,
		WarrantyExpirationDate: req.WarrantyExpirationDate,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.ipRepo.Create(ctx, ip); err != nil {
		return nil, fmt.Errorf("install part: %w", err)
	}
	return ip, nil
}

// GetInstalledPart 获取装车件详情
func (s *PartService) GetInstalledPart(ctx context.Context, id string) (*entity.InstalledPart, error) {
	ip, err := s.ipRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: installed part %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("find installed part: %w", err)
	}
	return ip, nil
}

// ListInstalledByVehicle 某车辆的全部装车件
func (s *PartService) ListInstalledByVehicle(ctx context.Context, vehicleID string) ([]entity.InstalledPart, error) {
	if _, err := s.vehicleRepo.FindByID(ctx, vehicleID); err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleID)
		}
		return nil, fmt.Errorf("find vehicle: %w", err)
	}
	return s.ipRepo.ListByVehicle(ctx, vehicleID)
}

// RemoveInstalledPart 拆除装车件记录
func (s *PartService) RemoveInstalledPart(ctx context.Context, id string) error {
	if _, err := s.GetInstalledPart(ctx, id); err != nil {
		return err
	}
	return s.ipRepo.Delete(ctx, id)
}
