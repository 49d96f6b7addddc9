package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	User          *UserRepository
	Customer      *CustomerRepository
	Vehicle       *VehicleRepository
	Part          *PartRepository
	InstalledPart *InstalledPartRepository
	Claim         *ClaimRepository
	PartRequest   *PartRequestRepository
	Recall        *RecallRepository
	ServiceCenter *ServiceCenterRepository
	ServiceHist   *ServiceHistoryRepository
	Feedback      *FeedbackRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		Customer:      NewCustomerRepository(db),
		Vehicle:       NewVehicleRepository(db),
		Part:          NewPartRepository(db),
		InstalledPart: NewInstalledPartRepository(db),
		Claim:         NewClaimRepository(db),
		PartRequest:   NewPartRequestRepository(db),
		Recall:        NewRecallRepository(db),
		ServiceCenter: NewServiceCenterRepository(db),
		ServiceHist:   NewServiceHistoryRepository(db),
		Feedback:      NewFeedbackRepository(db),
	}
}
