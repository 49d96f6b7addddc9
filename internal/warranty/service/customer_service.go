package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/repository"
)

// CustomerService 车主档案服务
type CustomerService struct {
	customerRepo *repository.CustomerRepository
	userRepo     *repository.UserRepository
}

// NewCustomerService 创建车主档案服务
func NewCustomerService(customerRepo *repository.CustomerRepository, userRepo *repository.UserRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo, userRepo: userRepo}
}

// CreateCustomerRequest 创建车主档案请求
type CreateCustomerRequest struct {
	Name    string  `json:"name" binding:"required"`
	Email   string  `json:"email" binding:"required,email"`
	Phone   string  `json:"phone" binding:"required"`
	Address string  `json:"address"`
	UserID  *string `json:"user_id"`
}

// UpdateCustomerRequest 更新车主档案请求
type UpdateCustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CustomerListResult 车主分页列表结果
type CustomerListResult struct {
	Items      []entity.Customer `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// Create 创建车主档案。仅管理员与厂商人员可代建档案。
func (s *CustomerService) Create(ctx context.Context, actorRoles []string, req *CreateCustomerRequest) (*entity.Customer, error) {
	allowed := false
	for _, r := range actorRoles {
		if r == entity.RoleAdmin || r == entity.RoleEVMStaff || r == entity.RoleSCStaff {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: Only ADMIN or STAFF can create customer records.", ErrAccessDenied)
	}

	exists, err := s.customerRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", ErrDuplicate)
	}

	exists, err = s.customerRepo.ExistsByPhone(ctx, req.Phone)
	if err != nil {
		return nil, fmt.Errorf("check phone: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: phone already registered", ErrDuplicate)
	}

	if req.UserID != nil {
		if _, err := s.userRepo.FindByID(ctx, *req.UserID); err != nil {
			if err == repository.ErrNotFound {
				return nil, fmt.Errorf("%w: user %s", ErrNotFound, *req.UserID)
			}
			return nil, fmt.Errorf("find user: %w", err)
		}
	}

	now := time.Now()
	customer := &entity.Customer{
		ID:        uuid.New().String()[:32],
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		UserID:    req.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return customer, nil
}

// Get 获取车主档案
func (s *CustomerService) Get(ctx context.Context, id string) (*entity.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: customer %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return customer, nil
}

// GetByUser 按登录用户获取本人档案
func (s *CustomerService) GetByUser(ctx context.Context, userID string) (*entity.Customer, error) {
	customer, err := s.customerRepo.FindByUserID(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: no customer profile for current user", ErrNotFound)
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return customer, nil
}

// Update 更新车主档案
func (s *CustomerService) Update(ctx context.Context, id string, req *UpdateCustomerRequest) (*entity.Customer, error) {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != "" && req.Email != customer.Email {
		exists, err := s.customerRepo.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("%w: email already registered", ErrDuplicate)
		}
		customer.Email = req.Email
	}
	if req.Phone != "" && req.Phone != customer.Phone {
		exists, err := s.customerRepo.ExistsByPhone(ctx, req.Phone)
		if err != nil {
			return nil, fmt.Errorf("check phone: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("%w: phone already registered", ErrDuplicate)
		}
		customer.Phone = req.Phone
	}
	if req.Name != "" {
		customer.Name = req.Name
	}
	if req.Address != "" {
		customer.Address = req.Address
	}
	customer.UpdatedAt = time.Now()

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return customer, nil
}

// Delete 删除车主档案。名下仍有车辆时禁止删除。
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.customerRepo.CountVehicles(ctx, id)
	if err != nil {
		return fmt.Errorf("count vehicles: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: customer still owns %d vehicle(s)", ErrDuplicate, count)
	}
	return s.customerRepo.Delete(ctx, id)
}

// List 车主分页列表，支持按姓名/邮箱/电话模糊检索
func (s *CustomerService) List(ctx context.Context, page, pageSize int, keyword string) (*CustomerListResult, error) {
	items, total, err := s.customerRepo.List(ctx, page, pageSize, keyword)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	totalPages := pageCount(total, pageSize)
	return &CustomerListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
