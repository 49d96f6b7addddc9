package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/voltora/warranty/internal/warranty/service"
)

// PartRequestHandler 备件申领处理器
type PartRequestHandler struct {
	svc *service.PartRequestService
}

// NewPartRequestHandler 创建备件申领处理器
func NewPartRequestHandler(svc *service.PartRequestService) *PartRequestHandler {
	return &PartRequestHandler{svc: svc}
}

// Create 提交申领单
// POST /api/v1/part-requests
func (h *PartRequestHandler) Create(c *gin.Context) {
	var req service.CreatePartRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	pr, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	Created(c, pr)
}

// Get 申领单详情
// GET /api/v1/part-requests/:id
func (h *PartRequestHandler) Get(c *gin.Context) {
	pr, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, pr)
}

// List 申领单列表
// GET /api/v1/part-requests?status=&claim_id=&service_center_id=
func (h *PartRequestHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{}
	for _, key := range []string{"status", "claim_id", "service_center_id", "requested_by"} {
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

// ListInTransit 在途申领单
// GET /api/v1/part-requests/in-transit
func (h *PartRequestHandler) ListInTransit(c *gin.Context) {
	items, err := h.svc.ListInTransit(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// Stats 按状态统计
// GET /api/v1/part-requests/stats
func (h *PartRequestHandler) Stats(c *gin.Context) {
	counts, err := h.svc.CountByStatus(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, counts)
}

// Approve 批准申领
// POST /api/v1/part-requests/:id/approve
func (h *PartRequestHandler) Approve(c *gin.Context) {
	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req)

	pr, err := h.svc.Approve(c.Request.Context(), c.Param("id"), GetUserID(c), req.Notes)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, pr)
}

// Reject 驳回申领
// POST /api/v1/part-requests/:id/reject
func (h *PartRequestHandler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	pr, err := h.svc.Reject(c.Request.Context(), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, pr)
}

// Ship 发货
// POST /api/v1/part-requests/:id/ship
func (h *PartRequestHandler) Ship(c *gin.Context) {
	var req struct {
		TrackingNumber string `json:"tracking_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	pr, err := h.svc.MarkShipped(c.Request.Context(), c.Param("id"), req.TrackingNumber)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, pr)
}

// Deliver 签收
// POST /api/v1/part-requests/:id/deliver
func (h *PartRequestHandler) Deliver(c *gin.Context) {
	pr, err := h.svc.MarkDelivered(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, pr)
}

// Cancel 撤回申领
// POST /api/v1/part-requests/:id/cancel
func (h *PartRequestHandler) Cancel(c *gin.Context) {
	pr, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, pr)
}
