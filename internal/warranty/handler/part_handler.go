package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/voltora/warranty/internal/warranty/service"
)

// PartHandler 零部件与装车件处理器
type PartHandler struct {
	svc *service.PartService
}

// NewPartHandler 创建零部件处理器
func NewPartHandler(svc *service.PartService) *PartHandler {
	return &PartHandler{svc: svc}
}

// Create 登记零部件
// POST /api/v1/parts
func (h *PartHandler) Create(c *gin.Context) {
	var req service.CreatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	part, err := h.svc.CreatePart(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	Created(c, part)
}

// Get 零部件详情
// GET /api/v1/parts/:id
func (h *PartHandler) Get(c *gin.Context) {
	part, err := h.svc.GetPart(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, part)
}

// Update 更新零部件
// PUT /api/v1/parts/:id
func (h *PartHandler) Update(c *gin.Context) {
	var req service.UpdatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	part, err := h.svc.UpdatePart(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, part)
}

// Delete 删除零部件
// DELETE /api/v1/parts/:id
func (h *PartHandler) Delete(c *gin.Context) {
	if err := h.svc.DeletePart(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"message": "part deleted"})
}

// List 零部件列表
// GET /api/v1/parts?category=&keyword=
func (h *PartHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{}
	for _, key := range []string{"category", "keyword"} {
		if v := c.Query(key); v != "" {
			filters[key] = v
		}
	}

	result, err := h.svc.ListParts(c.Request.Context(), page, pageSize, filters)
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

// Install 装车登记
// POST /api/v1/installed-parts
func (h *PartHandler) Install(c *gin.Context) {
	var req service.InstallPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ip, err := h.svc.InstallPart(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	Created(c, ip)
}

// GetInstalled 装车件详情
// GET /api/v1/installed-parts/:id
func (h *PartHandler) GetInstalled(c *gin.Context) {
	ip, err := h.svc.GetInstalledPart(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, ip)
}

// ListInstalledByVehicle 车辆装车件列表
// GET /api/v1/vehicles/:id/installed-parts
func (h *PartHandler) ListInstalledByVehicle(c *gin.Context) {
	items, err := h.svc.ListInstalledByVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// RemoveInstalled 拆除装车件记录
// DELETE /api/v1/installed-parts/:id
func (h *PartHandler) RemoveInstalled(c *gin.Context) {
	if err := h.svc.RemoveInstalledPart(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"message": "installed part removed"})
}
