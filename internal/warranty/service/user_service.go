package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserService 用户管理服务（管理员建号、角色分配）
type UserService struct {
	userRepo *repository.UserRepository
	scRepo   *repository.ServiceCenterRepository
}

// NewUserService 创建用户管理服务
func NewUserService(userRepo *repository.UserRepository, scRepo *repository.ServiceCenterRepository) *UserService {
	return &UserService{userRepo: userRepo, scRepo: scRepo}
}

// CreateUserRequest 管理员建号请求
type CreateUserRequest struct {
	Username        string   `json:"username" binding:"required,min=3,max=64"`
	Password        string   `json:"password" binding:"required,min=8"`
	Name            string   `json:"name" binding:"required"`
	Email           string   `json:"email" binding:"required,email"`
	Phone           string   `json:"phone"`
	Roles           []string `json:"roles" binding:"required,min=1"`
	ServiceCenterID *string  `json:"service_center_id"`
}

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	Name            string  `json:"name"`
	Email           string  `json:"email" binding:"omitempty,email"`
	Phone           string  `json:"phone"`
	Status          string  `json:"status"`
	ServiceCenterID *string `json:"service_center_id"`
}

// UserListResult 用户分页列表结果
type UserListResult struct {
	Items      []entity.User `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// Create 管理员创建员工账号并分配角色
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*entity.User, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: username already taken", ErrDuplicate)
	}

	exists, err = s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", ErrDuplicate)
	}

	// 服务中心角色必须挂靠服务中心
	needsCenter := false
	for _, code := range req.Roles {
		if code == entity.RoleSCStaff || code == entity.RoleSCTechnician {
			needsCenter = true
		}
	}
	if needsCenter {
		if req.ServiceCenterID == nil {
			return nil, fmt.Errorf("%w: service center staff must belong to a service center", ErrInvalidArgument)
		}
		if _, err := s.scRepo.FindByID(ctx, *req.ServiceCenterID); err != nil {
			if err == repository.ErrNotFound {
				return nil, fmt.Errorf("%w: service center %s", ErrNotFound, *req.ServiceCenterID)
			}
			return nil, fmt.Errorf("find service center: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:              uuid.New().String()[:32],
		Username:        req.Username,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		PasswordHash:    string(hash),
		ServiceCenterID: req.ServiceCenterID,
		Status:          entity.UserStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	for _, code := range req.Roles {
		role, err := s.userRepo.FindRoleByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown role %s", ErrInvalidArgument, code)
		}
		if err := s.userRepo.AssignRole(ctx, user.ID, role.ID); err != nil {
			return nil, fmt.Errorf("assign role: %w", err)
		}
	}

	return s.userRepo.FindByID(ctx, user.ID)
}

// Get 获取用户详情
func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// Update 更新用户信息
func (s *UserService) Update(ctx context.Context, id string, req *UpdateUserRequest) (*entity.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" && req.Email != user.Email {
		exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("%w: email already registered", ErrDuplicate)
		}
		user.Email = req.Email
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Status != "" {
		if req.Status != entity.UserStatusActive && req.Status != entity.UserStatusInactive {
			return nil, fmt.Errorf("%w: unknown user status %s", ErrInvalidArgument, req.Status)
		}
		user.Status = req.Status
	}
	if req.ServiceCenterID != nil {
		if _, err := s.scRepo.FindByID(ctx, *req.ServiceCenterID); err != nil {
			if err == repository.ErrNotFound {
				return nil, fmt.Errorf("%w: service center %s", ErrNotFound, *req.ServiceCenterID)
			}
			return nil, fmt.Errorf("find service center: %w", err)
		}
		user.ServiceCenterID = req.ServiceCenterID
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// ChangePassword 修改本人密码，需校验旧密码
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("%w: wrong password", ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Delete 停用并软删用户
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, id)
}

// List 用户分页列表
func (s *UserService) List(ctx context.Context, page, pageSize int, filters map[string]string) (*UserListResult, error) {
	items, total, err := s.userRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	totalPages := pageCount(total, pageSize)
	return &UserListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// AssignRole 给用户追加角色
func (s *UserService) AssignRole(ctx context.Context, userID, roleCode string) (*entity.User, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	role, err := s.userRepo.FindRoleByCode(ctx, roleCode)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: unknown role %s", ErrInvalidArgument, roleCode)
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	if err := s.userRepo.AssignRole(ctx, userID, role.ID); err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}
	return s.userRepo.FindByID(ctx, userID)
}

// ListRoles 角色目录
func (s *UserService) ListRoles(ctx context.Context) ([]entity.Role, error) {
	return s.userRepo.ListRoles(ctx)
}
