package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/voltora/warranty/internal/warranty/service"
)

// Handlers 处理器集合
type Handlers struct {
	Auth          *AuthHandler
	User          *UserHandler
	Customer      *CustomerHandler
	Vehicle       *VehicleHandler
	Part          *PartHandler
	Claim         *ClaimHandler
	PartRequest   *PartRequestHandler
	Recall        *RecallHandler
	ServiceCenter *ServiceCenterHandler
	Feedback      *FeedbackHandler
	Report        *ReportHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Auth:          NewAuthHandler(svc.Auth),
		User:          NewUserHandler(svc.User),
		Customer:      NewCustomerHandler(svc.Customer),
		Vehicle:       NewVehicleHandler(svc.Vehicle),
		Part:          NewPartHandler(svc.Part),
		Claim:         NewClaimHandler(svc.Claim, svc.Attachment),
		PartRequest:   NewPartRequestHandler(svc.PartRequest),
		Recall:        NewRecallHandler(svc.Recall),
		ServiceCenter: NewServiceCenterHandler(svc.ServiceCenter),
		Feedback:      NewFeedbackHandler(svc.Feedback),
		Report:        NewReportHandler(svc.Report),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 资源冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InvalidState 非法状态迁移响应
func InvalidState(c *gin.Context, message string) {
	Error(c, 42200, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// respondErr 按服务层错误类别映射响应
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrDuplicate):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		InvalidState(c, err.Error())
	case errors.Is(err, service.ErrInvalidArgument):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		Unauthorized(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetRoles 从上下文获取角色列表
func GetRoles(c *gin.Context) []string {
	roles, _ := c.Get("roles")
	if rs, ok := roles.([]string); ok {
		return rs
	}
	return nil
}

// HasRole 当前用户是否持有指定角色
func HasRole(c *gin.Context, code string) bool {
	for _, r := range GetRoles(c) {
		if r == code {
			return true
		}
	}
	return false
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
