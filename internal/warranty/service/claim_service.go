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

// ClaimService 质保工单服务，持有工单状态机
type ClaimService struct {
	claimRepo    *repository.ClaimRepository
	vehicleRepo  *repository.VehicleRepository
	ipRepo       *repository.InstalledPartRepository
	userRepo     *repository.UserRepository
	customerRepo *repository.CustomerRepository
	histRepo     *repository.ServiceHistoryRepository
	logger       *zap.Logger
}

// NewClaimService 创建质保工单服务
func NewClaimService(
	claimRepo *repository.ClaimRepository,
	vehicleRepo *repository.VehicleRepository,
	ipRepo *repository.InstalledPartRepository,
	userRepo *repository.UserRepository,
	customerRepo *repository.CustomerRepository,
	histRepo *repository.ServiceHistoryRepository,
	logger *zap.Logger,
) *ClaimService {
	return &ClaimService{
		claimRepo:    claimRepo,
		vehicleRepo:  vehicleRepo,
		ipRepo:       ipRepo,
		userRepo:     userRepo,
		customerRepo: customerRepo,
		histRepo:     histRepo,
		logger:       logger,
	}
}

// CreateClaimRequest 创建工单请求
type CreateClaimRequest struct {
	VehicleID       string  `json:"vehicle_id" binding:"required"`
	InstalledPartID string  `json:"installed_part_id" binding:"required"`
	Description     string  `json:"description" binding:"required"`
	ServiceCenterID *string `json:"service_center_id"`
}

// ClaimListResult 工单列表结果
type ClaimListResult struct {
	Items      []entity.WarrantyClaim `json:"items"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	TotalPages int                    `json:"total_pages"`
}

// Create 创建工单（车主提交或服务中心代录，初始状态均为 submitted）
func (s *ClaimService) Create(ctx context.Context, userID string, req *CreateClaimRequest) (*entity.WarrantyClaim, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, req.VehicleID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, req.VehicleID)
		}
		return nil, fmt.Errorf("find vehicle: %w", err)
	}

	installedPart, err := s.ipRepo.FindByID(ctx, req.InstalledPartID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: installed part %s", ErrNotFound, req.InstalledPartID)
		}
		return nil, fmt.Errorf("find installed part: %w", err)
	}

	// 装车件必须属于工单所报的车辆
	if installedPart.VehicleID != vehicle.ID {
		return nil, fmt.Errorf("%w: part is not installed on this vehicle", ErrInvalidArgument)
	}

	// 质保期校验：过期件不可开单
	if !installedPart.UnderWarranty(time.Now()) {
		return nil, fmt.Errorf("%w: warranty expired on %s",
			ErrInvalidArgument, installedPart.WarrantyExpirationDate.Format("2006-01-02"))
	}

	now := time.Now()
	claim := &entity.WarrantyClaim{
		ID:              uuid.New().String()[:32],
		Status:          entity.ClaimStatusSubmitted,
		ClaimDate:       now,
		Description:     req.Description,
		VehicleID:       vehicle.ID,
		InstalledPartID: installedPart.ID,
		ServiceCenterID: req.ServiceCenterID,
		CreatedBy:       userID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.claimRepo.Create(ctx, claim); err != nil {
		return nil, fmt.Errorf("create claim: %w", err)
	}

	s.addHistory(ctx, claim.ID, userID, entity.ClaimHistoryCreated, map[string]interface{}{
		"vehicle_id":        claim.VehicleID,
		"installed_part_id": claim.InstalledPartID,
	})

	return claim, nil
}

// Get 获取工单详情
func (s *ClaimService) Get(ctx context.Context, id string) (*entity.WarrantyClaim, error) {
	claim, err := s.claimRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: claim %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("find claim: %w", err)
	}
	return claim, nil
}

// List 获取工单分页列表
func (s *ClaimService) List(ctx context.Context, page, pageSize int, filters map[string]string) (*ClaimListResult, error) {
	claims, total, err := s.claimRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return newClaimListResult(claims, total, page, pageSize), nil
}

// ListTechPending 技师待处理工单（manager_review 与 processing）
func (s *ClaimService) ListTechPending(ctx context.Context) ([]entity.WarrantyClaim, error) {
	return s.claimRepo.ListByStatuses(ctx, []string{
		entity.ClaimStatusManagerReview,
		entity.ClaimStatusProcessing,
	})
}

// ListByCustomer 车主名下工单
func (s *ClaimService) ListByCustomer(ctx context.Context, customerID string, page, pageSize int) (*ClaimListResult, error) {
	claims, total, err := s.claimRepo.ListByCustomer(ctx, customerID, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list claims by customer: %w", err)
	}
	return newClaimListResult(claims, total, page, pageSize), nil
}

// ListMine 当前登录车主的工单
func (s *ClaimService) ListMine(ctx context.Context, userID string, page, pageSize int) (*ClaimListResult, error) {
	customer, err := s.customerRepo.FindByUserID(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: no customer profile for current user", ErrNotFound)
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return s.ListByCustomer(ctx, customer.ID, page, pageSize)
}

// AdminAccept 管理员受理：submitted → manager_review
func (s *ClaimService) AdminAccept(ctx context.Context, id, userID, note string) (*entity.WarrantyClaim, error) {
	claim, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	extra := map[string]interface{}{}
	if note != "" {
		extra["description"] = claim.Description + "\n[Admin Note]: " + note
	}

	ok, err := s.claimRepo.UpdateStatusIf(ctx, id, entity.ClaimStatusSubmitted, entity.ClaimStatusManagerReview, extra)
	if err != nil {
		return nil, fmt.Errorf("accept claim: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: claim must be in SUBMITTED status", ErrInvalidState)
	}

	s.addHistory(ctx, id, userID, entity.ClaimHistoryAccepted, map[string]interface{}{"note": note})

	return s.Get(ctx, id)
}

// AdminReject 管理员驳回：submitted → rejected，落定 resolution_date
func (s *ClaimService) AdminReject(ctx context.Context, id, userID, reason string) (*entity.WarrantyClaim, error) {
	claim, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	extra := map[string]interface{}{
		"resolution_date": now,
	}
	if reason != "" {
		extra["description"] = claim.Description + "\n[Admin Rejection]: " + reason
	}

	ok, err := s.claimRepo.UpdateStatusIf(ctx, id, entity.ClaimStatusSubmitted, entity.ClaimStatusRejected, extra)
	if err != nil {
		return nil, fmt.Errorf("reject claim: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: claim must be in SUBMITTED status", ErrInvalidState)
	}

	s.addHistory(ctx, id, userID, entity.ClaimHistoryRejected, map[string]interface{}{"reason": reason})

	return s.Get(ctx, id)
}

// TechStartProcessing 技师开工：manager_review → processing，并尽力开一条工时记录。
// 工时记录创建失败不阻塞状态迁移。
func (s *ClaimService) TechStartProcessing(ctx context.Context, id, userID, note string) (*entity.WarrantyClaim, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	ok, err := s.claimRepo.UpdateStatusIf(ctx, id, entity.ClaimStatusManagerReview, entity.ClaimStatusProcessing, nil)
	if err != nil {
		return nil, fmt.Errorf("start processing: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: claim must be in MANAGER_REVIEW status", ErrInvalidState)
	}

	s.openWorkLog(ctx, id, userID, note)
	s.addHistory(ctx, id, userID, entity.ClaimHistoryStarted, map[string]interface{}{"note": note})

	return s.Get(ctx, id)
}

// TechComplete 技师完工：processing → completed，落定 resolution_date，
// 尽力关闭本人未结束的工时记录并生成服务记录。附带动作失败不阻塞完工。
func (s *ClaimService) TechComplete(ctx context.Context, id, userID, note string) (*entity.WarrantyClaim, error) {
	claim, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ok, err := s.claimRepo.UpdateStatusIf(ctx, id, entity.ClaimStatusProcessing, entity.ClaimStatusCompleted,
		map[string]interface{}{"resolution_date": now})
	if err != nil {
		return nil, fmt.Errorf("complete claim: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: claim must be in PROCESSING status", ErrInvalidState)
	}

	s.closeWorkLog(ctx, id, userID, note, now)
	s.recordServiceHistory(ctx, claim, now)
	s.addHistory(ctx, id, userID, entity.ClaimHistoryCompleted, map[string]interface{}{"note": note})

	return s.Get(ctx, id)
}

// UpdateStatus 显式状态迁移，按状态机表校验
func (s *ClaimService) UpdateStatus(ctx context.Context, id, userID, newStatus string) (*entity.WarrantyClaim, error) {
	claim, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !entity.ClaimCanTransition(claim.Status, newStatus) {
		return nil, fmt.Errorf("%w: cannot transition claim from %s to %s",
			ErrInvalidState, claim.Status, newStatus)
	}

	extra := map[string]interface{}{}
	if newStatus == entity.ClaimStatusCompleted || newStatus == entity.ClaimStatusRejected {
		extra["resolution_date"] = time.Now()
	}

	ok, err := s.claimRepo.UpdateStatusIf(ctx, id, claim.Status, newStatus, extra)
	if err != nil {
		return nil, fmt.Errorf("update claim status: %w", err)
	}
	if !ok {
		// 状态在读取后被并发修改
		return nil, fmt.Errorf("%w: claim is no longer in %s status", ErrInvalidState, claim.Status)
	}

	s.addHistory(ctx, id, userID, entity.ClaimHistoryUpdated, map[string]interface{}{
		"from": claim.Status,
		"to":   newStatus,
	})

	return s.Get(ctx, id)
}

// Assign 指派工单处理人，不做状态校验
func (s *ClaimService) Assign(ctx context.Context, id, actorID, assigneeID string) (*entity.WarrantyClaim, error) {
	claim, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByID(ctx, assigneeID); err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, assigneeID)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	claim.AssignedToID = &assigneeID
	claim.UpdatedAt = time.Now()
	if err := s.claimRepo.Update(ctx, claim); err != nil {
		return nil, fmt.Errorf("assign claim: %w", err)
	}

	s.addHistory(ctx, id, actorID, entity.ClaimHistoryAssigned, map[string]interface{}{"assignee": assigneeID})

	return s.Get(ctx, id)
}

// Delete 管理员删除工单
func (s *ClaimService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.claimRepo.Delete(ctx, id)
}

// ListWorkLogs 工单的工时记录
func (s *ClaimService) ListWorkLogs(ctx context.Context, claimID string) ([]entity.WorkLog, error) {
	if _, err := s.Get(ctx, claimID); err != nil {
		return nil, err
	}
	return s.claimRepo.ListWorkLogs(ctx, claimID)
}

// ListHistory 工单操作历史
func (s *ClaimService) ListHistory(ctx context.Context, claimID string) ([]entity.ClaimHistory, error) {
	if _, err := s.Get(ctx, claimID); err != nil {
		return nil, err
	}
	return s.claimRepo.ListHistory(ctx, claimID)
}

// openWorkLog 尽力为当前技师开工时记录
func (s *ClaimService) openWorkLog(ctx context.Context, claimID, userID, note string) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		s.logger.Warn("work log skipped: cannot resolve technician",
			zap.String("claim_id", claimID), zap.String("user_id", userID), zap.Error(err))
		return
	}

	description := note
	if description == "" {
		description = "Processing started"
	}

	now := time.Now()
	wl := &entity.WorkLog{
		ID:          uuid.New().String()[:32],
		ClaimID:     claimID,
		UserID:      userID,
		StartTime:   now,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.claimRepo.CreateWorkLog(ctx, wl); err != nil {
		s.logger.Warn("work log create failed",
			zap.String("claim_id", claimID), zap.String("user_id", userID), zap.Error(err))
	}
}

// closeWorkLog 尽力关闭当前技师在该工单上的未结束工时记录
func (s *ClaimService) closeWorkLog(ctx context.Context, claimID, userID, note string, endTime time.Time) {
	wl, err := s.claimRepo.FindActiveWorkLog(ctx, claimID, userID)
	if err != nil {
		if err != repository.ErrNotFound {
			s.logger.Warn("work log lookup failed",
				zap.String("claim_id", claimID), zap.String("user_id", userID), zap.Error(err))
		}
		return
	}

	wl.EndTime = &endTime
	if note != "" {
		wl.Description = wl.Description + "\n[Completion]: " + note
	}
	wl.UpdatedAt = endTime
	if err := s.claimRepo.UpdateWorkLog(ctx, wl); err != nil {
		s.logger.Warn("work log close failed",
			zap.String("claim_id", claimID), zap.String("work_log_id", wl.ID), zap.Error(err))
	}
}

// recordServiceHistory 完工后为车辆生成服务记录
func (s *ClaimService) recordServiceHistory(ctx context.Context, claim *entity.WarrantyClaim, at time.Time) {
	sh := &entity.ServiceHistory{
		ID:              uuid.New().String()[:32],
		VehicleID:       claim.VehicleID,
		ClaimID:         &claim.ID,
		ServiceCenterID: claim.ServiceCenterID,
		ServiceType:     entity.ServiceTypeWarrantyClaim,
		ServiceDate:     at,
		Description:     claim.Description,
		CreatedAt:       at,
	}
	if err := s.histRepo.Create(ctx, sh); err != nil {
		s.logger.Warn("service history create failed",
			zap.String("claim_id", claim.ID), zap.Error(err))
	}
}

// addHistory 内部方法：追加工单操作历史
func (s *ClaimService) addHistory(ctx context.Context, claimID, userID, action string, detail map[string]interface{}) {
	h := &entity.ClaimHistory{
		ID:        uuid.New().String()[:32],
		ClaimID:   claimID,
		Action:    action,
		UserID:    userID,
		Detail:    entity.JSONB(detail),
		CreatedAt: time.Now(),
	}
	if err := s.claimRepo.AddHistory(ctx, h); err != nil {
		s.logger.Warn("claim history append failed",
			zap.String("claim_id", claimID), zap.String("action", action), zap.Error(err))
	}
}

func newClaimListResult(claims []entity.WarrantyClaim, total int64, page, pageSize int) *ClaimListResult {
	totalPages := pageCount(total, pageSize)
	return &ClaimListResult{
		Items:      claims,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
