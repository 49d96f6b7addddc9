package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/voltora/warranty/internal/config"
	"github.com/voltora/warranty/internal/middleware"
	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	refreshTokenKeyPrefix = "warranty:refresh:"
	tokenDenyKeyPrefix    = "warranty:deny:"
)

// AuthService 认证服务：登录、注册、令牌签发与注销
type AuthService struct {
	userRepo     *repository.UserRepository
	customerRepo *repository.CustomerRepository
	rdb          *redis.Client
	jwtCfg       config.JWTConfig
	logger       *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(
	userRepo *repository.UserRepository,
	customerRepo *repository.CustomerRepository,
	rdb *redis.Client,
	jwtCfg config.JWTConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		customerRepo: customerRepo,
		rdb:          rdb,
		jwtCfg:       jwtCfg,
		logger:       logger,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest 车主自助注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// TokenPair 令牌对
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *UserInfo `json:"user"`
}

// UserInfo 登录返回的用户摘要
type UserInfo struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// Login 密码登录，签发访问令牌与刷新令牌
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*TokenPair, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: unknown username or wrong password", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if user.Status != entity.UserStatusActive {
		return nil, fmt.Errorf("%w: account is disabled", ErrAccessDenied)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: unknown username or wrong password", ErrInvalidCredentials)
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Warn("update last login failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	return s.issueTokens(ctx, user)
}

// Register 车主自助注册：创建用户、绑定 customer 角色并生成客户档案
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*entity.User, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: username already taken", ErrDuplicate)
	}

	exists, err = s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", ErrDuplicate)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:           uuid.New().String()[:32],
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if role, err := s.userRepo.FindRoleByCode(ctx, entity.RoleCustomer); err == nil {
		if err := s.userRepo.AssignRole(ctx, user.ID, role.ID); err != nil {
			s.logger.Warn("assign customer role failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	} else {
		s.logger.Warn("customer role missing", zap.Error(err))
	}

	customer := &entity.Customer{
		ID:        uuid.New().String()[:32],
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		UserID:    &user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		s.logger.Warn("create customer profile failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	return s.userRepo.FindByID(ctx, user.ID)
}

// Refresh 用刷新令牌换发新令牌对，旧刷新令牌作废
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.rdb.Get(ctx, refreshTokenKeyPrefix+refreshToken).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: refresh token expired or revoked", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: user no longer exists", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user.Status != entity.UserStatusActive {
		return nil, fmt.Errorf("%w: account is disabled", ErrAccessDenied)
	}

	if err := s.rdb.Del(ctx, refreshTokenKeyPrefix+refreshToken).Err(); err != nil {
		s.logger.Warn("revoke old refresh token failed", zap.Error(err))
	}

	return s.issueTokens(ctx, user)
}

// Logout 注销：吊销刷新令牌并把访问令牌加入黑名单直到其自然过期
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if refreshToken != "" {
		if err := s.rdb.Del(ctx, refreshTokenKeyPrefix+refreshToken).Err(); err != nil {
			s.logger.Warn("revoke refresh token failed", zap.Error(err))
		}
	}

	claims := &middleware.JWTClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil {
		// 令牌已非法或过期，无需拉黑
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, tokenDenyKeyPrefix+claims.ID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("denylist access token: %w", err)
	}
	return nil
}

// IsTokenDenied 访问令牌是否已被注销
func (s *AuthService) IsTokenDenied(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, tokenDenyKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check denylist: %w", err)
	}
	return n > 0, nil
}

// DenyChecker 供中间件使用的注销令牌检查；redis 故障时放行并记录告警
func (s *AuthService) DenyChecker() func(ctx context.Context, jti string) bool {
	return func(ctx context.Context, jti string) bool {
		if s.rdb == nil {
			return false
		}
		denied, err := s.IsTokenDenied(ctx, jti)
		if err != nil {
			s.logger.Warn("Token denylist check failed", zap.Error(err))
			return false
		}
		return denied
	}
}

// Me 当前登录用户
func (s *AuthService) Me(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	user.RoleCodes = roleCodes(user)
	return user, nil
}

// issueTokens 签发令牌对并登记刷新令牌
func (s *AuthService) issueTokens(ctx context.Context, user *entity.User) (*TokenPair, error) {
	now := time.Now()
	expiresAt := now.Add(s.jwtCfg.AccessTokenExpire)
	codes := roleCodes(user)

	claims := &middleware.JWTClaims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Roles:  codes,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.jwtCfg.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken := uuid.New().String()
	if err := s.rdb.Set(ctx, refreshTokenKeyPrefix+refreshToken, user.ID, s.jwtCfg.RefreshTokenExpire).Err(); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		User: &UserInfo{
			ID:       user.ID,
			Username: user.Username,
			Name:     user.Name,
			Email:    user.Email,
			Roles:    codes,
		},
	}, nil
}

func roleCodes(user *entity.User) []string {
	codes := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		codes = append(codes, r.Code)
	}
	return codes
}
