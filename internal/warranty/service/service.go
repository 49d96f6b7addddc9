package service

import (
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/voltora/warranty/internal/config"
	"github.com/voltora/warranty/internal/warranty/repository"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Auth          *AuthService
	User          *UserService
	Customer      *CustomerService
	Vehicle       *VehicleService
	Part          *PartService
	Claim         *ClaimService
	PartRequest   *PartRequestService
	Recall        *RecallService
	ServiceCenter *ServiceCenterService
	Feedback      *FeedbackService
	Attachment    *AttachmentService
	Report        *ReportService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("minio init failed, attachments disabled", zap.Error(err))
			minioClient = nil
		}
	}

	return &Services{
		Auth:          NewAuthService(repos.User, repos.Customer, rdb, cfg.JWT, logger),
		User:          NewUserService(repos.User, repos.ServiceCenter),
		Customer:      NewCustomerService(repos.Customer, repos.User),
		Vehicle:       NewVehicleService(repos.Vehicle, repos.Customer, repos.ServiceHist),
		Part:          NewPartService(repos.Part, repos.InstalledPart, repos.Vehicle),
		Claim:         NewClaimService(repos.Claim, repos.Vehicle, repos.InstalledPart, repos.User, repos.Customer, repos.ServiceHist, logger),
		PartRequest:   NewPartRequestService(repos.PartRequest, repos.Claim, repos.Part, logger),
		Recall:        NewRecallService(repos.Recall, repos.InstalledPart, repos.Claim, repos.Customer, logger),
		ServiceCenter: NewServiceCenterService(repos.ServiceCenter),
		Feedback:      NewFeedbackService(repos.Feedback, repos.Claim, repos.Customer, repos.Vehicle),
		Attachment:    NewAttachmentService(repos.Claim, minioClient, cfg.MinIO.Bucket),
		Report:        NewReportService(repos.Claim, repos.PartRequest),
	}
}
