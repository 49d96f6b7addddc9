package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/voltora/warranty/internal/warranty/service"
)

// CustomerHandler 车主档案处理器
type CustomerHandler struct {
	svc *service.CustomerService
}

// NewCustomerHandler 创建车主档案处理器
func NewCustomerHandler(svc *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

// Create 创建车主档案
// POST /api/v1/customers
func (h *CustomerHandler) Create(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	customer, err := h.svc.Create(c.Request.Context(), GetRoles(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	Created(c, customer)
}

// Get 车主档案详情
// GET /api/v1/customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	customer, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, customer)
}

// Me 当前车主本人档案
// GET /api/v1/customers/me
func (h *CustomerHandler) Me(c *gin.Context) {
	customer, err := h.svc.GetByUser(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, customer)
}

// Update 更新车主档案
// PUT /api/v1/customers/:id
func (h *CustomerHandler) Update(c *gin.Context) {
	var req service.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	customer, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, customer)
}

// Delete 删除车主档案
// DELETE /api/v1/customers/:id
func (h *CustomerHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"message": "customer deleted"})
}

// List 车主列表
// GET /api/v1/customers?keyword=
func (h *CustomerHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	result, err := h.svc.List(c.Request.Context(), page, pageSize, c.Query("keyword"))
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
