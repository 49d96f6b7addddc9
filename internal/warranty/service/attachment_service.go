package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/repository"
)

// AttachmentService 工单附件服务（故障照片、检测报告，存MinIO）
type AttachmentService struct {
	claimRepo   *repository.ClaimRepository
	minioClient *minio.Client
	bucketName  string
}

// NewAttachmentService 创建工单附件服务
func NewAttachmentService(claimRepo *repository.ClaimRepository, minioClient *minio.Client, bucketName string) *AttachmentService {
	return &AttachmentService{
		claimRepo:   claimRepo,
		minioClient: minioClient,
		bucketName:  bucketName,
	}
}

// Upload 上传附件并挂到工单
func (s *AttachmentService) Upload(ctx context.Context, claimID, userID string, reader io.Reader, fileName string, fileSize int64, contentType string) (*entity.ClaimAttachment, error) {
	claim, err := s.claimRepo.FindByID(ctx, claimID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: claim %s", ErrNotFound, claimID)
		}
		return nil, fmt.Errorf("find claim: %w", err)
	}

	// 终态工单不再收附件
	if entity.ClaimStatusFinal(claim.Status) {
		return nil, fmt.Errorf("%w: claim is already %s", ErrInvalidState, claim.Status)
	}

	if s.minioClient == nil {
		return nil, fmt.Errorf("storage not configured")
	}

	objectKey := fmt.Sprintf("claims/%s/%s%s",
		time.Now().Format("2006/01/02"), uuid.New().String()[:8], filepath.Ext(fileName))

	_, err = s.minioClient.PutObject(ctx, s.bucketName, objectKey, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	attachment := &entity.ClaimAttachment{
		ID:          uuid.New().String()[:32],
		ClaimID:     claimID,
		FileName:    fileName,
		ObjectKey:   objectKey,
		Size:        fileSize,
		ContentType: contentType,
		UploadedBy:  userID,
		CreatedAt:   time.Now(),
	}
	if err := s.claimRepo.AddAttachment(ctx, attachment); err != nil {
		return nil, fmt.Errorf("create attachment: %w", err)
	}
	return attachment, nil
}

// Download 下载附件
func (s *AttachmentService) Download(ctx context.Context, id string) (io.ReadCloser, *entity.ClaimAttachment, error) {
	attachment, err := s.claimRepo.FindAttachmentByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, nil, fmt.Errorf("%w: attachment %s", ErrNotFound, id)
		}
		return nil, nil, fmt.Errorf("find attachment: %w", err)
	}

	if s.minioClient == nil {
		return nil, attachment, fmt.Errorf("storage not configured")
	}

	object, err := s.minioClient.GetObject(ctx, s.bucketName, attachment.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("get object: %w", err)
	}
	return object, attachment, nil
}

// List 工单附件列表
func (s *AttachmentService) List(ctx context.Context, claimID string) ([]entity.ClaimAttachment, error) {
	if _, err := s.claimRepo.FindByID(ctx, claimID); err != nil {
		if err == repository.ErrNotFound {
			return nil, fmt.Errorf("%w: claim %s", ErrNotFound, claimID)
		}
		return nil, fmt.Errorf("find claim: %w", err)
	}
	return s.claimRepo.ListAttachments(ctx, claimID)
}
