package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/service"
)

// FeedbackHandler 工单评价处理器
type FeedbackHandler struct {
	svc *service.FeedbackService
}

// NewFeedbackHandler 创建工单评价处理器
func NewFeedbackHandler(svc *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

// Create 提交评价
// POST /api/v1/feedback
func (h *FeedbackHandler) Create(c *gin.Context) {
	var req service.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	fb, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	Created(c, fb)
}

// Get 评价详情
// GET /api/v1/feedback/:id
func (h *FeedbackHandler) Get(c *gin.Context) {
	fb, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, fb)
}

// Delete 删除评价
// DELETE /api/v1/feedback/:id
func (h *FeedbackHandler) Delete(c *gin.Context) {
	isAdmin := HasRole(c, entity.RoleAdmin)
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c), isAdmin); err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"message": "feedback deleted"})
}

// List 评价列表
// GET /api/v1/feedback?rating=
func (h *FeedbackHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	rating := 0
	if v := c.Query("rating"); v != "" {
		r, err := strconv.Atoi(v)
		if err != nil {
			BadRequest(c, "invalid rating filter")
			return
		}
		rating = r
	}

	result, err := h.svc.List(c.Request.Context(), page, pageSize, rating)
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

// ListMine 当前车主的评价
// GET /api/v1/feedback/mine
func (h *FeedbackHandler) ListMine(c *gin.Context) {
	items, err := h.svc.ListMine(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}
