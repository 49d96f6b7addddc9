package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/repository"
	"github.com/voltora/warranty/internal/warranty/service"
	"github.com/voltora/warranty/internal/warranty/testutil"
	"go.uber.org/zap"
)

func TestServiceCenterDeleteWithStaff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := service.NewServices(repos, nil, testutil.TestConfig(), zap.NewNop())
	ctx := context.Background()

	sc, err := svc.ServiceCenter.Create(ctx, &service.CreateServiceCenterRequest{
		Name:   "Shanghai Service Center",
		Region: "East",
	})
	if err != nil {
		t.Fatalf("Create service center: %v", err)
	}

	staff := testutil.SeedUser(t, db, "sc-staff-001", "Zhang Wei", "zhangwei@test.com")
	if err := db.Model(&entity.User{}).Where("id = ?", staff.ID).
		Update("service_center_id", sc.ID).Error; err != nil {
		t.Fatalf("Assign staff to center: %v", err)
	}

	// 仍有在编人员时删除应报冲突
	err = svc.ServiceCenter.Delete(ctx, sc.ID)
	if !errors.Is(err, service.ErrDuplicate) {
		t.Fatalf("Expected conflict error, got %v", err)
	}

	// 人员迁走后可删除
	if err := db.Model(&entity.User{}).Where("id = ?", staff.ID).
		Update("service_center_id", nil).Error; err != nil {
		t.Fatalf("Unassign staff: %v", err)
	}
	if err := svc.ServiceCenter.Delete(ctx, sc.ID); err != nil {
		t.Fatalf("Delete after staff removed: %v", err)
	}
}
