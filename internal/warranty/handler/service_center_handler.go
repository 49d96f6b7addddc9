package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/voltora/warranty/internal/warranty/service"
)

// ServiceCenterHandler 服务中心处理器
type ServiceCenterHandler struct {
	svc *service.ServiceCenterService
}

// NewServiceCenterHandler 创建服务中心处理器
func NewServiceCenterHandler(svc *service.ServiceCenterService) *ServiceCenterHandler {
	return &ServiceCenterHandler{svc: svc}
}

// Create 创建服务中心
// POST /api/v1/service-centers
func (h *ServiceCenterHandler) Create(c *gin.Context) {
	var req service.CreateServiceCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	sc, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	Created(c, sc)
}

// Get 服务中心详情
// GET /api/v1/service-centers/:id
func (h *ServiceCenterHandler) Get(c *gin.Context) {
	sc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, sc)
}

// Update 更新服务中心
// PUT /api/v1/service-centers/:id
func (h *ServiceCenterHandler) Update(c *gin.Context) {
	var req service.UpdateServiceCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	sc, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, sc)
}

// Delete 删除服务中心
// DELETE /api/v1/service-centers/:id
func (h *ServiceCenterHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"message": "service center deleted"})
}

// List 服务中心列表
// GET /api/v1/service-centers?region=
func (h *ServiceCenterHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), c.Query("region"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}
