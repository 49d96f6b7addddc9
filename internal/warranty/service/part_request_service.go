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

// PartRequestService 备件申领服务
type PartRequestService struct {
	prRepo    *repository.PartRequestRepository
	claimRepo *repository.ClaimRepository
	partRepo  *repository.PartRepository
	logger    *zap.Logger
}

// NewPartRequestService 创建备件申领服务
func NewPartRequestService(
	prRepo *repository.PartRequestRepository,
	claimRepo *repository.ClaimRepository,
	partRepo *repository.PartRepository,
	logger *zap.Logger,
) *PartRequestService {
	return &PartRequestService{
		prRepo:    prRepo,
		claimRepo: claimRepo,
		partRepo:  partRepo,
		logger:    logger,
	}
}

// CreatePartRequestRequest 创建申领单请求
type CreatePartRequestRequest struct {
	ClaimID          string `json:"claim_id" binding:"required"`
	FaultyPartID     string `json:"faulty_part_id" binding:"required"`
	Quantity         int    `json:"quantity" binding:"required,min=1"`
	IssueDescription string `json:"issue_description" binding:"required"`
	ServiceCenterID  string `json:"service_center_id" binding:"required"`
}

// PartRequestListResult 申领单列表结果
type PartRequestListResult struct {
	Items      []entity.PartRequest `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// Create 技师提交申领单，初始状态为 pending
func (s *PartRequestService) Create(ctx context.Context, userID string, req *CreatePartRequestRequest) (*entity.PartRequest, error) {
	claim, err := s.claimRepo.FindByID(ctx, req.ClaimID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: claim %s", ErrNotFound, req.ClaimID)
		}
		return nil, fmt.Errorf("find claim: %w", err)
	}

	// 只有处理中的工单才需要申领备件
	if claim.Status != entity.ClaimStatusProcessing && claim.Status != entity.ClaimStatusManagerReview {
		return nil, fmt.Errorf("%w: claim %s is not open for part requests", ErrInvalidState, claim.ID)
	}

	if _, err := s.partRepo.FindByID(ctx, req.FaultyPartID); err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: part %s", ErrNotFound, req.FaultyPartID)
		}
		return nil, fmt.Errorf("find part: %w", err)
	}

	now := time.Now()
	pr := &entity.PartRequest{
		ID:               uuid.New().String()[:32],
		Status:           entity.PartRequestStatusPending,
		RequestDate:      now,
		Quantity:         req.Quantity,
		IssueDescription: req.IssueDescription,
		ClaimID:          req.ClaimID,
		ServiceCenterID:  req.ServiceCenterID,
		FaultyPartID:     req.FaultyPartID,
		RequestedByID:    userID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.prRepo.Create(ctx, pr); err != nil {
		return nil, fmt.Errorf("create part request: %w", err)
	}
	return pr, nil
}

// Get 获取申领单详情
func (s *PartRequestService) Get(ctx context.Context, id string) (*entity.PartRequest, error) {
	pr, err := s.prRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: part request %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("find part request: %w", err)
	}
	return pr, nil
}

// List 获取申领单分页列表
func (s *PartRequestService) List(ctx context.Context, page, pageSize int, filters map[string]string) (*PartRequestListResult, error) {
	items, total, err := s.prRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list part requests: %w", err)
	}
	totalPages := pageCount(total, pageSize)
	return &PartRequestListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// ListInTransit 在途申领单（已批准或已发货）
func (s *PartRequestService) ListInTransit(ctx context.Context) ([]entity.PartRequest, error) {
	return s.prRepo.ListInTransit(ctx)
}

// CountByStatus 按状态统计申领单数量
func (s *PartRequestService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.prRepo.CountByStatus(ctx)
}

// Approve 厂商批准申领：pending → approved
func (s *PartRequestService) Approve(ctx context.Context, id, approverID, notes string) (*entity.PartRequest, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	now := time.Now()
	extra := map[string]interface{}{
		"approved_date":  now,
		"approved_by_id": approverID,
	}
	if notes != "" {
		extra["notes"] = notes
	}

	ok, err := s.prRepo.UpdateStatusIf(ctx, id, entity.PartRequestStatusPending, entity.PartRequestStatusApproved, extra)
	if err != nil {
		return nil, fmt.Errorf("approve part request: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: Can only approve PENDING requests", ErrInvalidState)
	}
	return s.Get(ctx, id)
}

// Reject 厂商驳回申领：pending → rejected
func (s *PartRequestService) Reject(ctx context.Context, id, approverID, reason string) (*entity.PartRequest, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	extra := map[string]interface{}{
		"approved_by_id":   approverID,
		"rejection_reason": reason,
	}

	ok, err := s.prRepo.UpdateStatusIf(ctx, id, entity.PartRequestStatusPending, entity.PartRequestStatusRejected, extra)
	if err != nil {
		return nil, fmt.Errorf("reject part request: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: can only reject PENDING requests", ErrInvalidState)
	}
	return s.Get(ctx, id)
}

// MarkShipped 厂商发货：approved → shipped，记录物流单号
func (s *PartRequestService) MarkShipped(ctx context.Context, id, trackingNumber string) (*entity.PartRequest, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if trackingNumber == "" {
		return nil, fmt.Errorf("%w: tracking number is required", ErrInvalidArgument)
	}

	ok, err := s.prRepo.UpdateStatusIf(ctx, id, entity.PartRequestStatusApproved, entity.PartRequestStatusShipped,
		map[string]interface{}{"tracking_number": trackingNumber})
	if err != nil {
		return nil, fmt.Errorf("mark shipped: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: can only ship APPROVED requests", ErrInvalidState)
	}
	return s.Get(ctx, id)
}

// MarkDelivered 服务中心签收：shipped → delivered
func (s *PartRequestService) MarkDelivered(ctx context.Context, id string) (*entity.PartRequest, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	ok, err := s.prRepo.UpdateStatusIf(ctx, id, entity.PartRequestStatusShipped, entity.PartRequestStatusDelivered, nil)
	if err != nil {
		return nil, fmt.Errorf("mark delivered: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: can only deliver SHIPPED requests", ErrInvalidState)
	}
	return s.Get(ctx, id)
}

// Cancel 申领人撤回本人待审批的申领单
func (s *PartRequestService) Cancel(ctx context.Context, id, userID string) (*entity.PartRequest, error) {
	pr, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// 只有申领人本人可撤回
	if pr.RequestedByID != userID {
		return nil, fmt.Errorf("%w: only the requester can cancel a part request", ErrAccessDenied)
	}

	ok, err := s.prRepo.UpdateStatusIf(ctx, id, entity.PartRequestStatusPending, entity.PartRequestStatusCancelled, nil)
	if err != nil {
		return nil, fmt.Errorf("cancel part request: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: can only cancel PENDING requests", ErrInvalidState)
	}
	return s.Get(ctx, id)
}
