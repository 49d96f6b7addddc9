package handler

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/voltora/warranty/internal/warranty/service"
)

// ClaimHandler 质保工单处理器
type ClaimHandler struct {
	svc           *service.ClaimService
	attachmentSvc *service.AttachmentService
}

// NewClaimHandler 创建质保工单处理器
func NewClaimHandler(svc *service.ClaimService, attachmentSvc *service.AttachmentService) *ClaimHandler {
	return &ClaimHandler{svc: svc, attachmentSvc: attachmentSvc}
}

// Create 提交工单
// POST /api/v1/claims
func (h *ClaimHandler) Create(c *gin.Context) {
	var req service.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	claim, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	Created(c, claim)
}

// Get 工单详情
// GET /api/v1/claims/:id
func (h *ClaimHandler) Get(c *gin.Context) {
	claim, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, claim)
}

// List 工单列表
// GET /api/v1/claims?status=&vehicle_id=&service_center_id=
func (h *ClaimHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{}
	for _, key := range []string{"status", "vehicle_id", "service_center_id", "assigned_to"} {
		if v := c.Query(key); v != "" {
			filters[key] = v
		}
	}

	result, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, ListResponse{
		Items: result.Items,
		Pagination: &Pagination{
			Page:       result.Page,
			PageSize:   result.PageSize,
			Total:      result.Total,
			TotalPages: result.TotalPages,
		},
	})
}

// ListMine 车主本人工单
// GET /api/v1/claims/mine
func (h *ClaimHandler) ListMine(c *gin.Context) {
	page, pageSize := GetPagination(c)
	result, err := h.svc.ListMine(c.Request.Context(), GetUserID(c), page, pageSize)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, ListResponse{
		Items: result.Items,
		Pagination: &Pagination{
			Page:       result.Page,
			PageSize:   result.PageSize,
			Total:      result.Total,
			TotalPages: result.TotalPages,
		},
	})
}

// ListByCustomer 指定车主的工单
// GET /api/v1/customers/:id/claims
func (h *ClaimHandler) ListByCustomer(c *gin.Context) {
	page, pageSize := GetPagination(c)
	result, err := h.svc.ListByCustomer(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, ListResponse{
		Items: result.Items,
		Pagination: &Pagination{
			Page:       result.Page,
			PageSize:   result.PageSize,
			Total:      result.Total,
			TotalPages: result.TotalPages,
		},
	})
}

// ListTechPending 技师待处理工单
// GET /api/v1/claims/pending
func (h *ClaimHandler) ListTechPending(c *gin.Context) {
	claims, err := h.svc.ListTechPending(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"items": claims})
}

type claimNoteRequest struct {
	Note string `json:"note"`
}

// Accept 管理员受理
// POST /api/v1/claims/:id/accept
func (h *ClaimHandler) Accept(c *gin.Context) {
	var req claimNoteRequest
	_ = c.ShouldBindJSON(&req)

	claim, err := h.svc.AdminAccept(c.Request.Context(), c.Param("id"), GetUserID(c), req.Note)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, claim)
}

// Reject 管理员驳回
// POST /api/v1/claims/:id/reject
func (h *ClaimHandler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	claim, err := h.svc.AdminReject(c.Request.Context(), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, claim)
}

// StartProcessing 技师开工
// POST /api/v1/claims/:id/start
func (h *ClaimHandler) StartProcessing(c *gin.Context) {
	var req claimNoteRequest
	_ = c.ShouldBindJSON(&req)

	claim, err := h.svc.TechStartProcessing(c.Request.Context(), c.Param("id"), GetUserID(c), req.Note)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, claim)
}

// Complete 技师完工
// POST /api/v1/claims/:id/complete
func (h *ClaimHandler) Complete(c *gin.Context) {
	var req claimNoteRequest
	_ = c.ShouldBindJSON(&req)

	claim, err := h.svc.TechComplete(c.Request.Context(), c.Param("id"), GetUserID(c), req.Note)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, claim)
}

// UpdateStatus 显式状态迁移
// PUT /api/v1/claims/:id/status
func (h *ClaimHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	claim, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), GetUserID(c), req.Status)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, claim)
}

// Assign 指派处理人
// POST /api/v1/claims/:id/assign
func (h *ClaimHandler) Assign(c *gin.Context) {
	var req struct {
		AssigneeID string `json:"assignee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	claim, err := h.svc.Assign(c.Request.Context(), c.Param("id"), GetUserID(c), req.AssigneeID)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, claim)
}

// Delete 删除工单
// DELETE /api/v1/claims/:id
func (h *ClaimHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"message": "claim deleted"})
}

// ListWorkLogs 工单工时记录
// GET /api/v1/claims/:id/work-logs
func (h *ClaimHandler) ListWorkLogs(c *gin.Context) {
	logs, err := h.svc.ListWorkLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"items": logs})
}

// ListHistory 工单操作历史
// GET /api/v1/claims/:id/history
func (h *ClaimHandler) ListHistory(c *gin.Context) {
	histories, err := h.svc.ListHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"items": histories})
}

// UploadAttachment 上传工单附件
// POST /api/v1/claims/:id/attachments
func (h *ClaimHandler) UploadAttachment(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	attachment, err := h.attachmentSvc.Upload(c.Request.Context(), c.Param("id"), GetUserID(c),
		file, header.Filename, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Created(c, attachment)
}

// ListAttachments 工单附件列表
// GET /api/v1/claims/:id/attachments
func (h *ClaimHandler) ListAttachments(c *gin.Context) {
	attachments, err := h.attachmentSvc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"items": attachments})
}

// DownloadAttachment 下载工单附件
// GET /api/v1/attachments/:id/download
func (h *ClaimHandler) DownloadAttachment(c *gin.Context) {
	reader, attachment, err := h.attachmentSvc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	c.Header("Content-Type", attachment.ContentType)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		_ = c.Error(err)
	}
}
