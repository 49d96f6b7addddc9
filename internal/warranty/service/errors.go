package service

import (
	"errors"
)

// 业务错误类别，handler层用 errors.Is 映射为响应码
var (
	// ErrNotFound 目标记录不存在
	ErrNotFound = errors.New("not found")
	// ErrDuplicate 唯一性冲突（用户名/邮箱/手机号/VIN/零件号）或资源占用
	ErrDuplicate = errors.New("duplicate resource")
	// ErrInvalidState 实体当前状态不允许该操作
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidArgument 入参不合法（日期顺序、评分范围等）
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAccessDenied 操作者无权处置该记录
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("invalid credentials")
)
