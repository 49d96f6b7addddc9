package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/voltora/warranty/internal/warranty/service"
)

// ReportHandler 报表处理器
type ReportHandler struct {
	svc *service.ReportService
}

// NewReportHandler 创建报表处理器
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// ExportClaims 导出工单台账
// GET /api/v1/reports/claims/export?status=&service_center_id=
func (h *ReportHandler) ExportClaims(c *gin.Context) {
	filters := map[string]string{}
	for _, key := range []string{"status", "service_center_id"} {
		if v := c.Query(key); v != "" {
			filters[key] = v
		}
	}

	f, filename, err := h.svc.ExportClaims(c.Request.Context(), filters)
	if err != nil {
		respondErr(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}

// Dashboard 看板统计
// GET /api/v1/reports/dashboard
func (h *ReportHandler) Dashboard(c *gin.Context) {
	stats, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	Success(c, stats)
}
