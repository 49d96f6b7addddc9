package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/repository"
	"go.uber.org/zap"
)

// RecallService 召回申请服务
type RecallService struct {
	recallRepo   *repository.RecallRepository
	ipRepo       *repository.InstalledPartRepository
	claimRepo    *repository.ClaimRepository
	customerRepo *repository.CustomerRepository
	logger       *zap.Logger
}

// NewRecallService 创建召回申请服务
func NewRecallService(
	recallRepo *repository.RecallRepository,
	ipRepo *repository.InstalledPartRepository,
	claimRepo *repository.ClaimRepository,
	customerRepo *repository.CustomerRepository,
	logger *zap.Logger,
) *RecallService {
	return &RecallService{
		recallRepo:   recallRepo,
		ipRepo:       ipRepo,
		claimRepo:    claimRepo,
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// CreateRecallRequest 发起召回申请请求
type CreateRecallRequest struct {
	InstalledPartID string `json:"installed_part_id" binding:"required"`
	Reason          string `json:"reason" binding:"required"`
}

// RecallListResult 召回申请列表结果
type RecallListResult struct {
	Items      []entity.RecallRequest `json:"items"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	TotalPages int                    `json:"total_pages"`
}

// Create 厂商人员发起召回申请，初始状态 pending_admin_approval
func (s *RecallService) Create(ctx context.Context, userID string, req *CreateRecallRequest) (*entity.RecallRequest, error) {
	if _, err := s.ipRepo.FindByID(ctx, req.InstalledPartID); err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: installed part %s", ErrNotFound, req.InstalledPartID)
		}
		return nil, fmt.Errorf("find installed part: %w", err)
	}

	now := time.Now()
	recall := &entity.RecallRequest{
		ID:              uuid.New().String()[:32],
		Status:          entity.RecallStatusPendingAdminApproval,
		Reason:          req.Reason,
		InstalledPartID: req.InstalledPartID,
		CreatedByID:     userID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.recallRepo.Create(ctx, recall); err != nil {
		return nil, fmt.Errorf("create recall request: %w", err)
	}
	return recall, nil
}

// Get 获取召回申请详情
func (s *RecallService) Get(ctx context.Context, id string) (*entity.RecallRequest, error) {
	recall, err := s.recallRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: recall request %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("find recall request: %w", err)
	}
	return recall, nil
}

// List 获取召回申请分页列表
func (s *RecallService) List(ctx context.Context, page, pageSize int, filters map[string]string) (*RecallListResult, error) {
	items, total, err := s.recallRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list recall requests: %w", err)
	}
	totalPages := pageCount(total, pageSize)
	return &RecallListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// ListMine 车主名下车辆涉及的召回申请
func (s *RecallService) ListMine(ctx context.Context, userID string) ([]entity.RecallRequest, error) {
	customer, err := s.customerRepo.FindByUserID(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: no customer profile for current user", ErrNotFound)
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return s.recallRepo.ListByCustomer(ctx, customer.ID)
}

// AdminApprove 管理员批准召回：pending_admin_approval → waiting_customer_confirm
func (s *RecallService) AdminApprove(ctx context.Context, id, adminID, note string) (*entity.RecallRequest, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	extra := map[string]interface{}{
		"approved_by_id": adminID,
	}
	if note != "" {
		extra["admin_note"] = note
	}

	ok, err := s.recallRepo.UpdateStatusIf(ctx, id,
		entity.RecallStatusPendingAdminApproval, entity.RecallStatusWaitingCustomer, extra)
	if err != nil {
		return nil, fmt.Errorf("approve recall: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: recall must be pending admin approval", ErrInvalidState)
	}
	return s.Get(ctx, id)
}

// AdminReject 管理员驳回召回：pending_admin_approval → rejected_by_admin
func (s *RecallService) AdminReject(ctx context.Context, id, adminID, note string) (*entity.RecallRequest, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	extra := map[string]interface{}{
		"approved_by_id": adminID,
		"admin_note":     note,
	}

	ok, err := s.recallRepo.UpdateStatusIf(ctx, id,
		entity.RecallStatusPendingAdminApproval, entity.RecallStatusRejectedByAdmin, extra)
	if err != nil {
		return nil, fmt.Errorf("reject recall: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: recall must be pending admin approval", ErrInvalidState)
	}
	return s.Get(ctx, id)
}

// CustomerConfirm 车主确认召回。accepted 为真时直接生成处理中的质保工单并
// 回填 claim_id；为假时记录车主意见并关闭申请。
func (s *RecallService) CustomerConfirm(ctx context.Context, id, userID string, accepted bool, note string) (*entity.RecallRequest, error) {
	recall, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// 召回涉及的装车件必须属于当前车主
	customer, err := s.customerRepo.FindByUserID(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: no customer profile for current user", ErrNotFound)
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	if recall.InstalledPart == nil || recall.InstalledPart.Vehicle == nil ||
		recall.InstalledPart.Vehicle.CustomerID != customer.ID {
		return nil, fmt.Errorf("%w: recall does not concern your vehicle", ErrAccessDenied)
	}

	if !accepted {
		ok, err := s.recallRepo.UpdateStatusIf(ctx, id,
			entity.RecallStatusWaitingCustomer, entity.RecallStatusRejectedByCustomer,
			map[string]interface{}{"customer_note": note})
		if err != nil {
			return nil, fmt.Errorf("decline recall: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: recall is not waiting for customer confirmation", ErrInvalidState)
		}
		return s.Get(ctx, id)
	}

	// 车主同意：召回工单跳过受理流程直接进入处理中
	now := time.Now()
	claim := &entity.WarrantyClaim{
		ID:              uuid.New().String()[:32],
		Status:          entity.ClaimStatusProcessing,
		ClaimDate:       now,
		Description:     fmt.Sprintf("[RECALL] %s", recall.Reason),
		VehicleID:       recall.InstalledPart.VehicleID,
		InstalledPartID: recall.InstalledPartID,
		CreatedBy:       userID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.claimRepo.Create(ctx, claim); err != nil {
		return nil, fmt.Errorf("create recall claim: %w", err)
	}

	ok, err := s.recallRepo.UpdateStatusIf(ctx, id,
		entity.RecallStatusWaitingCustomer, entity.RecallStatusClaimCreated,
		map[string]interface{}{
			"claim_id":      claim.ID,
			"customer_note": note,
		})
	if err != nil {
		return nil, fmt.Errorf("confirm recall: %w", err)
	}
	if !ok {
		// 状态已被并发变更，回滚刚创建的工单
		if derr := s.claimRepo.Delete(ctx, claim.ID); derr != nil {
			s.logger.Warn("orphan recall claim cleanup failed",
				zap.String("claim_id", claim.ID), zap.Error(derr))
		}
		return nil, fmt.Errorf("%w: recall is not waiting for customer confirmation", ErrInvalidState)
	}

	return s.Get(ctx, id)
}

// Delete 发起人删除本人尚未审批的召回申请
func (s *RecallService) Delete(ctx context.Context, id, userID string) error {
	recall, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if recall.CreatedByID != userID {
		return fmt.Errorf("%w: only the creator can delete a recall request", ErrAccessDenied)
	}
	if recall.Status != entity.RecallStatusPendingAdminApproval {
		return fmt.Errorf("%w: can only delete recalls pending admin approval", ErrInvalidState)
	}
	return s.recallRepo.Delete(ctx, id)
}
