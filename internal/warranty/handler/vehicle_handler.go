package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voltora/warranty/internal/warranty/service"
)

// VehicleHandler 车辆处理器
type VehicleHandler struct {
	svc *service.VehicleService
}

// NewVehicleHandler 创建车辆处理器
func NewVehicleHandler(svc *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{svc: svc}
}

// Create 登记车辆
// POST /api/v1/vehicles
func (h *VehicleHandler) Create(c *gin.Context) {
	var req service.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	vehicle, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	Created(c, vehicle)
}

// Get 车辆详情
// GET /api/v1/vehicles/:id
func (h *VehicleHandler) Get(c *gin.Context) {
	vehicle, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, vehicle)
}

// GetByVIN 按车架号查询
// GET /api/v1/vehicles/vin/:vin
func (h *VehicleHandler) GetByVIN(c *gin.Context) {
	vehicle, err := h.svc.GetByVIN(c.Request.Context(), c.Param("vin"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, vehicle)
}

// Update 更新车辆
// PUT /api/v1/vehicles/:id
func (h *VehicleHandler) Update(c *gin.Context) {
	var req service.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	vehicle, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, vehicle)
}

// Delete 删除车辆
// DELETE /api/v1/vehicles/:id
func (h *VehicleHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"message": "vehicle deleted"})
}

// List 车辆列表
// GET /api/v1/vehicles?model=&customer_id=
func (h *VehicleHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{}
	for _, key := range []string{"model", "customer_id", "year"} {
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

// ListMine 当前车主名下车辆
// GET /api/v1/vehicles/mine
func (h *VehicleHandler) ListMine(c *gin.Context) {
	vehicles, err := h.svc.ListMine(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"items": vehicles})
}

// ListByCustomer 指定车主名下车辆
// GET /api/v1/customers/:id/vehicles
func (h *VehicleHandler) ListByCustomer(c *gin.Context) {
	vehicles, err := h.svc.ListByCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"items": vehicles})
}

// ServiceHistory 车辆服务记录
// GET /api/v1/vehicles/:id/service-history?from=&to=
func (h *VehicleHandler) ServiceHistory(c *gin.Context) {
	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			BadRequest(c, "invalid from date, expected YYYY-MM-DD")
			return
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			BadRequest(c, "invalid to date, expected YYYY-MM-DD")
			return
		}
		to = &t
	}

	histories, err := h.svc.ServiceHistory(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, gin.H{"items": histories})
}
