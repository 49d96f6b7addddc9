package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/voltora/warranty/internal/config"
	"github.com/voltora/warranty/internal/middleware"
	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/handler"
	"github.com/voltora/warranty/internal/warranty/repository"
	"github.com/voltora/warranty/internal/warranty/service"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting warranty service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Role{},
		&entity.ServiceCenter{},
		&entity.User{},
		&entity.UserRole{},
		&entity.Customer{},
		&entity.Vehicle{},
		&entity.Part{},
		&entity.InstalledPart{},
		&entity.WarrantyClaim{},
		&entity.WorkLog{},
		&entity.ClaimAttachment{},
		&entity.ClaimHistory{},
		&entity.PartRequest{},
		&entity.RecallRequest{},
		&entity.ServiceHistory{},
		&entity.Feedback{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// Seed: 系统角色
	roleSeeds := []struct{ Code, Name string }{
		{entity.RoleAdmin, "系统管理员"},
		{entity.RoleEVMStaff, "厂商人员"},
		{entity.RoleSCStaff, "服务中心人员"},
		{entity.RoleSCTechnician, "服务中心技师"},
		{entity.RoleCustomer, "车主"},
	}
	for _, rs := range roleSeeds {
		db.Exec(`INSERT INTO roles (id, code, name, is_system, created_at, updated_at)
			VALUES (?, ?, ?, true, NOW(), NOW())
			ON CONFLICT (code) DO NOTHING`, uuid.New().String()[:32], rs.Code, rs.Name)
	}

	// Seed: 初始管理员账号（仅当系统内没有任何管理员时）
	var adminCount int64
	db.Model(&entity.User{}).
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.code = ?", entity.RoleAdmin).
		Count(&adminCount)
	if adminCount == 0 {
		password := config.GetEnvOrDefault("ADMIN_PASSWORD", "admin12345")
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			zapLogger.Fatal("Failed to hash admin password", zap.Error(err))
		}
		now := time.Now()
		admin := &entity.User{
			ID:           uuid.New().String()[:32],
			Username:     "admin",
			Name:         "Administrator",
			Email:        "admin@voltora.local",
			PasswordHash: string(hash),
			Status:       entity.UserStatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := db.Create(admin).Error; err != nil {
			zapLogger.Warn("Failed to seed admin user", zap.Error(err))
		} else {
			var adminRole entity.Role
			if err := db.Where("code = ?", entity.RoleAdmin).First(&adminRole).Error; err == nil {
				db.Create(&entity.UserRole{UserID: admin.ID, RoleID: adminRole.ID})
			}
			zapLogger.Info("Seeded initial admin user", zap.String("username", admin.Username))
		}
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, cfg, zapLogger)
	handlers := handler.NewHandlers(services)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, services, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, svc *service.Services, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	api := r.Group("/api/v1")

	// 公开接口
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/refresh", h.Auth.Refresh)

	// 认证接口
	auth := api.Group("")
	auth.Use(middleware.JWTAuth(cfg.JWT.Secret))
	auth.Use(middleware.TokenDenylist(svc.Auth.DenyChecker()))
	{
		auth.POST("/auth/logout", h.Auth.Logout)
		auth.GET("/auth/me", h.Auth.Me)

		staff := []string{entity.RoleAdmin, entity.RoleEVMStaff, entity.RoleSCStaff}
		adminOnly := middleware.RequireRoles(entity.RoleAdmin)
		staffOnly := middleware.RequireRoles(staff...)
		evmOnly := middleware.RequireRoles(entity.RoleAdmin, entity.RoleEVMStaff)
		techOnly := middleware.RequireRoles(entity.RoleSCTechnician)
		customerOnly := middleware.RequireRoles(entity.RoleCustomer)

		// 用户与角色（管理员）
		auth.POST("/users", adminOnly, h.User.Create)
		auth.GET("/users", adminOnly, h.User.List)
		auth.GET("/users/:id", adminOnly, h.User.Get)
		auth.PUT("/users/:id", adminOnly, h.User.Update)
		auth.DELETE("/users/:id", adminOnly, h.User.Delete)
		auth.PUT("/users/me/password", h.User.ChangePassword)
		auth.POST("/users/:id/roles", adminOnly, h.User.AssignRole)
		auth.GET("/roles", adminOnly, h.User.ListRoles)

		// 车主档案
		auth.POST("/customers", staffOnly, h.Customer.Create)
		auth.GET("/customers", staffOnly, h.Customer.List)
		auth.GET("/customers/me", customerOnly, h.Customer.Me)
		auth.GET("/customers/:id", staffOnly, h.Customer.Get)
		auth.PUT("/customers/:id", staffOnly, h.Customer.Update)
		auth.DELETE("/customers/:id", adminOnly, h.Customer.Delete)
		auth.GET("/customers/:id/vehicles", staffOnly, h.Vehicle.ListByCustomer)
		auth.GET("/customers/:id/claims", staffOnly, h.Claim.ListByCustomer)

		// 车辆
		auth.POST("/vehicles", staffOnly, h.Vehicle.Create)
		auth.GET("/vehicles", staffOnly, h.Vehicle.List)
		auth.GET("/vehicles/mine", customerOnly, h.Vehicle.ListMine)
		auth.GET("/vehicles/vin/:vin", staffOnly, h.Vehicle.GetByVIN)
		auth.GET("/vehicles/:id", h.Vehicle.Get)
		auth.PUT("/vehicles/:id", staffOnly, h.Vehicle.Update)
		auth.DELETE("/vehicles/:id", adminOnly, h.Vehicle.Delete)
		auth.GET("/vehicles/:id/installed-parts", h.Part.ListInstalledByVehicle)
		auth.GET("/vehicles/:id/service-history", h.Vehicle.ServiceHistory)

		// 零部件与装车件
		auth.POST("/parts", evmOnly, h.Part.Create)
		auth.GET("/parts", h.Part.List)
		auth.GET("/parts/:id", h.Part.Get)
		auth.PUT("/parts/:id", evmOnly, h.Part.Update)
		auth.DELETE("/parts/:id", adminOnly, h.Part.Delete)
		auth.POST("/installed-parts", staffOnly, h.Part.Install)
		auth.GET("/installed-parts/:id", h.Part.GetInstalled)
		auth.DELETE("/installed-parts/:id", staffOnly, h.Part.RemoveInstalled)

		// 质保工单
		auth.POST("/claims", h.Claim.Create)
		auth.GET("/claims", staffOnly, h.Claim.List)
		auth.GET("/claims/mine", customerOnly, h.Claim.ListMine)
		auth.GET("/claims/pending", techOnly, h.Claim.ListTechPending)
		auth.GET("/claims/:id", h.Claim.Get)
		auth.DELETE("/claims/:id", adminOnly, h.Claim.Delete)
		auth.POST("/claims/:id/accept", adminOnly, h.Claim.Accept)
		auth.POST("/claims/:id/reject", adminOnly, h.Claim.Reject)
		auth.POST("/claims/:id/start", techOnly, h.Claim.StartProcessing)
		auth.POST("/claims/:id/complete", techOnly, h.Claim.Complete)
		auth.PUT("/claims/:id/status", staffOnly, h.Claim.UpdateStatus)
		auth.POST("/claims/:id/assign", staffOnly, h.Claim.Assign)
		auth.GET("/claims/:id/work-logs", staffOnly, h.Claim.ListWorkLogs)
		auth.GET("/claims/:id/history", staffOnly, h.Claim.ListHistory)
		auth.POST("/claims/:id/attachments", h.Claim.UploadAttachment)
		auth.GET("/claims/:id/attachments", h.Claim.ListAttachments)
		auth.GET("/attachments/:id/download", h.Claim.DownloadAttachment)

		// 备件申领
		auth.POST("/part-requests", techOnly, h.PartRequest.Create)
		auth.GET("/part-requests", staffOnly, h.PartRequest.List)
		auth.GET("/part-requests/in-transit", staffOnly, h.PartRequest.ListInTransit)
		auth.GET("/part-requests/stats", evmOnly, h.PartRequest.Stats)
		auth.GET("/part-requests/:id", h.PartRequest.Get)
		auth.POST("/part-requests/:id/approve", evmOnly, h.PartRequest.Approve)
		auth.POST("/part-requests/:id/reject", evmOnly, h.PartRequest.Reject)
		auth.POST("/part-requests/:id/ship", evmOnly, h.PartRequest.Ship)
		auth.POST("/part-requests/:id/deliver", middleware.RequireRoles(entity.RoleSCStaff, entity.RoleSCTechnician), h.PartRequest.Deliver)
		auth.POST("/part-requests/:id/cancel", techOnly, h.PartRequest.Cancel)

		// 召回
		auth.POST("/recalls", evmOnly, h.Recall.Create)
		auth.GET("/recalls", staffOnly, h.Recall.List)
		auth.GET("/recalls/mine", customerOnly, h.Recall.ListMine)
		auth.GET("/recalls/:id", h.Recall.Get)
		auth.POST("/recalls/:id/approve", adminOnly, h.Recall.Approve)
		auth.POST("/recalls/:id/reject", adminOnly, h.Recall.Reject)
		auth.POST("/recalls/:id/confirm", customerOnly, h.Recall.Confirm)
		auth.DELETE("/recalls/:id", evmOnly, h.Recall.Delete)

		// 服务中心
		auth.POST("/service-centers", adminOnly, h.ServiceCenter.Create)
		auth.GET("/service-centers", h.ServiceCenter.List)
		auth.GET("/service-centers/:id", h.ServiceCenter.Get)
		auth.PUT("/service-centers/:id", adminOnly, h.ServiceCenter.Update)
		auth.DELETE("/service-centers/:id", adminOnly, h.ServiceCenter.Delete)

		// 评价
		auth.POST("/feedback", customerOnly, h.Feedback.Create)
		auth.GET("/feedback", staffOnly, h.Feedback.List)
		auth.GET("/feedback/mine", customerOnly, h.Feedback.ListMine)
		auth.GET("/feedback/:id", h.Feedback.Get)
		auth.DELETE("/feedback/:id", h.Feedback.Delete)

		// 报表
		auth.GET("/reports/claims/export", evmOnly, h.Report.ExportClaims)
		auth.GET("/reports/dashboard", evmOnly, h.Report.Dashboard)
	}
}
