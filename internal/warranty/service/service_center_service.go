package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/repository"
)

// ServiceCenterService 服务中心管理服务
type ServiceCenterService struct {
	scRepo *repository.ServiceCenterRepository
}

// NewServiceCenterService 创建服务中心管理服务
func NewServiceCenterService(scRepo *repository.ServiceCenterRepository) *ServiceCenterService {
	return &ServiceCenterService{scRepo: scRepo}
}

// CreateServiceCenterRequest 创建服务中心请求
type CreateServiceCenterRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Region  string `json:"region"`
}

// UpdateServiceCenterRequest 更新服务中心请求
type UpdateServiceCenterRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Region  string `json:"region"`
}

// Create 创建服务中心
func (s *ServiceCenterService) Create(ctx context.Context, req *CreateServiceCenterRequest) (*entity.ServiceCenter, error) {
	now := time.Now()
	sc := &entity.ServiceCenter{
		ID:        uuid.New().String()[:32],
		Name:      req.Name,
		Address:   req.Address,
		Phone:     req.Phone,
		Region:    req.Region,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.scRepo.Create(ctx, sc); err != nil {
		return nil, fmt.Errorf("create service center: %w", err)
	}
	return sc, nil
}

// Get 获取服务中心详情
func (s *ServiceCenterService) Get(ctx context.Context, id string) (*entity.ServiceCenter, error) {
	sc, err := s.scRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: service center %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("find service center: %w", err)
	}
	return sc, nil
}

// Update 更新服务中心
func (s *ServiceCenterService) Update(ctx context.Context, id string, req *UpdateServiceCenterRequest) (*entity.ServiceCenter, error) {
	sc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		sc.Name = req.Name
	}
	if req.Address != "" {
		sc.Address = req.Address
	}
	if req.Phone != "" {
		sc.Phone = req.Phone
	}
	if req.Region != "" {
		sc.Region = req.Region
	}
	sc.UpdatedAt = time.Now()

	if err := s.scRepo.Update(ctx, sc); err != nil {
		return nil, fmt.Errorf("update service center: %w", err)
	}
	return sc, nil
}

// Delete 删除服务中心。仍有在编人员时禁止删除。
func (s *ServiceCenterService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.scRepo.CountStaff(ctx, id)
	if err != nil {
		return fmt.Errorf("count staff: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: service center still has %d staff member(s)", ErrDuplicate, count)
	}
	return s.scRepo.Delete(ctx, id)
}

// List 服务中心列表，可按大区过滤
func (s *ServiceCenterService) List(ctx context.Context, region string) ([]entity.ServiceCenter, error) {
	return s.scRepo.List(ctx, region)
}
