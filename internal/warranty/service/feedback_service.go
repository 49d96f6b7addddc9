package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/repository"
)

// FeedbackService 工单评价服务
type FeedbackService struct {
	fbRepo       *repository.FeedbackRepository
	claimRepo    *repository.ClaimRepository
	customerRepo *repository.CustomerRepository
	vehicleRepo  *repository.VehicleRepository
}

// NewFeedbackService 创建工单评价服务
func NewFeedbackService(
	fbRepo *repository.FeedbackRepository,
	claimRepo *repository.ClaimRepository,
	customerRepo *repository.CustomerRepository,
	vehicleRepo *repository.VehicleRepository,
) *FeedbackService {
	return &FeedbackService{
		fbRepo:       fbRepo,
		claimRepo:    claimRepo,
		customerRepo: customerRepo,
		vehicleRepo:  vehicleRepo,
	}
}

// CreateFeedbackRequest 提交评价请求
type CreateFeedbackRequest struct {
	ClaimID string `json:"claim_id" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// FeedbackListResult 评价分页列表结果
type FeedbackListResult struct {
	Items      []entity.Feedback `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// Create 车主对已完成的本人工单提交评价，每单至多一条
func (s *FeedbackService) Create(ctx context.Context, userID string, req *CreateFeedbackRequest) (*entity.Feedback, error) {
	if req.Rating < entity.FeedbackRatingMin || req.Rating > entity.FeedbackRatingMax {
		return nil, fmt.Errorf("%w: rating must be between %d and %d",
			ErrInvalidArgument, entity.FeedbackRatingMin, entity.FeedbackRatingMax)
	}

	customer, err := s.customerRepo.FindByUserID(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: no customer profile for current user", ErrNotFound)
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}

	claim, err := s.claimRepo.FindByID(ctx, req.ClaimID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: claim %s", ErrNotFound, req.ClaimID)
		}
		return nil, fmt.Errorf("find claim: %w", err)
	}

	// 只能评价本人车辆上的工单
	vehicle, err := s.vehicleRepo.FindByID(ctx, claim.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("find vehicle: %w", err)
	}
	if vehicle.CustomerID != customer.ID {
		return nil, fmt.Errorf("%w: claim does not belong to your vehicle", ErrAccessDenied)
	}

	if claim.Status != entity.ClaimStatusCompleted {
		return nil, fmt.Errorf("%w: can only rate completed claims", ErrInvalidState)
	}

	exists, err := s.fbRepo.ExistsByClaim(ctx, req.ClaimID)
	if err != nil {
		return nil, fmt.Errorf("check feedback: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: claim already has feedback", ErrDuplicate)
	}

	now := time.Now()
	fb := &entity.Feedback{
		ID:         uuid.New().String()[:32],
		Rating:     req.Rating,
		Comment:    req.Comment,
		CustomerID: customer.ID,
		ClaimID:    req.ClaimID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.fbRepo.Create(ctx, fb); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	return fb, nil
}

// Get 获取评价详情
func (s *FeedbackService) Get(ctx context.Context, id string) (*entity.Feedback, error) {
	fb, err := s.fbRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: feedback %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("find feedback: %w", err)
	}
	return fb, nil
}

// Delete 删除评价。仅评价人本人或管理员可删除。
func (s *FeedbackService) Delete(ctx context.Context, id, userID string, isAdmin bool) error {
	fb, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if !isAdmin {
		customer, err := s.customerRepo.FindByUserID(ctx, userID)
		if err != nil || customer.ID != fb.CustomerID {
			return fmt.Errorf("%w: only the author can delete feedback", ErrAccessDenied)
		}
	}
	return s.fbRepo.Delete(ctx, id)
}

// List 评价分页列表，rating 为 0 时不过滤
func (s *FeedbackService) List(ctx context.Context, page, pageSize, rating int) (*FeedbackListResult, error) {
	if rating != 0 && (rating < entity.FeedbackRatingMin || rating > entity.FeedbackRatingMax) {
		return nil, fmt.Errorf("%w: rating filter must be between %d and %d",
			ErrInvalidArgument, entity.FeedbackRatingMin, entity.FeedbackRatingMax)
	}
	items, total, err := s.fbRepo.List(ctx, page, pageSize, rating)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	totalPages := pageCount(total, pageSize)
	return &FeedbackListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// ListMine 当前车主的评价
func (s *FeedbackService) ListMine(ctx context.Context, userID string) ([]entity.Feedback, error) {
	customer, err := s.customerRepo.FindByUserID(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: no customer profile for current user", ErrNotFound)
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return s.fbRepo.ListByCustomer(ctx, customer.ID)
}
