package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/voltora/warranty/internal/warranty/service"
)

// RecallHandler 召回申请处理器
type RecallHandler struct {
	svc *service.RecallService
}

// NewRecallHandler 创建召回申请处理器
func NewRecallHandler(svc *service.RecallService) *RecallHandler {
	return &RecallHandler{svc: svc}
}

// Create 发起召回申请
// POST /api/v1/recalls
func (h *RecallHandler) Create(c *gin.Context) {
	var req service.CreateRecallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	recall, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	Created(c, recall)
}

// Get 召回申请详情
// GET /api/v1/recalls/:id
func (h *RecallHandler) Get(c *gin.Context) {
	recall, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, recall)
}

// List 召回申请列表
// GET /api/v1/recalls?status=
func (h *RecallHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{}
	if v := c.Query("status"); v != "" {
		filters["status"] = v
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

// ListMine 涉及当前车主的召回申请
// GET /api/v1/recalls/mine
func (h *RecallHandler) ListMine(c *gin.Context) {
	items, err := h.svc.ListMine(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// Approve 管理员批准召回
// POST /api/v1/recalls/:id/approve
func (h *RecallHandler) Approve(c *gin.Context) {
	var req struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&req)

	recall, err := h.svc.AdminApprove(c.Request.Context(), c.Param("id"), GetUserID(c), req.Note)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, recall)
}

// Reject 管理员驳回召回
// POST /api/v1/recalls/:id/reject
func (h *RecallHandler) Reject(c *gin.Context) {
	var req struct {
		Note string `json:"note" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	recall, err := h.svc.AdminReject(c.Request.Context(), c.Param("id"), GetUserID(c), req.Note)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, recall)
}

// Confirm 车主确认召回
// POST /api/v1/recalls/:id/confirm
func (h *RecallHandler) Confirm(c *gin.Context) {
	var req struct {
		Accepted *bool  `json:"accepted" binding:"required"`
		Note     string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	recall, err := h.svc.CustomerConfirm(c.Request.Context(), c.Param("id"), GetUserID(c), *req.Accepted, req.Note)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, recall)
}

// Delete 删除召回申请
// DELETE /api/v1/recalls/:id
func (h *RecallHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"message": "recall request deleted"})
}
