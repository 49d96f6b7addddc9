package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/repository"
	"github.com/voltora/warranty/internal/warranty/service"
	"github.com/voltora/warranty/internal/warranty/testutil"
	"go.uber.org/zap"
)

func setupRecallTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	svc := service.NewServices(repos, nil, testutil.TestConfig(), zap.NewNop())
	h := NewHandlers(svc)

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/recalls", h.Recall.Create)
	api.GET("/recalls", h.Recall.List)
	api.GET("/recalls/:id", h.Recall.Get)
	api.POST("/recalls/:id/approve", h.Recall.Approve)
	api.POST("/recalls/:id/reject", h.Recall.Reject)
	api.POST("/recalls/:id/confirm", h.Recall.Confirm)
	api.DELETE("/recalls/:id", h.Recall.Delete)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func seedRecallFixtures(t *testing.T, env *testutil.TestEnv) *entity.InstalledPart {
	t.Helper()
	owner := testutil.SeedUser(t, env.DB, "cust-user-001", "Li Wei", "liwei@test.com")
	customer := testutil.SeedCustomer(t, env.DB, "cust-001", "Li Wei", &owner.ID)
	vehicle := testutil.SeedVehicle(t, env.DB, "veh-001", "LVVDB21B8PD000001", customer.ID)
	part := testutil.SeedPart(t, env.DB, "part-001", "BMS-CTRL-D", "Battery Management Controller")
	ip := testutil.SeedInstalledPart(t, env.DB, "ip-001", part.ID, vehicle.ID,
		time.Now().AddDate(2, 0, 0))

	testutil.SeedUser(t, env.DB, "evm-001", "EVM Staff", "evm@test.com")
	testutil.SeedUser(t, env.DB, "test-admin-001", "Test Admin", "admin@test.com")
	return ip
}

func customerToken() string {
	return testutil.GenerateTestToken("cust-user-001", "Li Wei", "liwei@test.com",
		[]string{entity.RoleCustomer})
}

func TestRecallAcceptedCreatesClaim(t *testing.T) {
	env := setupRecallTest(t)
	ip := seedRecallFixtures(t, env)
	adminToken := testutil.AdminToken()

	// 厂商发起召回
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/recalls", map[string]interface{}{
		"installed_part_id": ip.ID,
		"reason":            "BMS firmware defect may cause overcharge",
	}, evmToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != entity.RecallStatusPendingAdminApproval {
		t.Errorf("Expected pending_admin_approval, got %v", data["status"])
	}
	recallID := data["id"].(string)

	// 车主确认需等管理员批准
	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/recalls/"+recallID+"/confirm",
		map[string]interface{}{"accepted": true}, customerToken())
	if w2.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 before admin approval, got %d: %s", w2.Code, w2.Body.String())
	}

	// 管理员批准
	w3 := testutil.DoRequest(env.Router, "POST", "/api/v1/recalls/"+recallID+"/approve",
		map[string]interface{}{"note": "confirmed affected batch"}, adminToken)
	if w3.Code != http.StatusOK {
		t.Fatalf("Approve: expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	data3 := testutil.ParseResponse(w3)["data"].(map[string]interface{})
	if data3["status"] != entity.RecallStatusWaitingCustomer {
		t.Errorf("Expected waiting_customer_confirm, got %v", data3["status"])
	}

	// 车主接受召回
	w4 := testutil.DoRequest(env.Router, "POST", "/api/v1/recalls/"+recallID+"/confirm",
		map[string]interface{}{"accepted": true, "note": "please schedule asap"}, customerToken())
	if w4.Code != http.StatusOK {
		t.Fatalf("Confirm: expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	data4 := testutil.ParseResponse(w4)["data"].(map[string]interface{})
	if data4["status"] != entity.RecallStatusClaimCreated {
		t.Errorf("Expected claim_created, got %v", data4["status"])
	}
	claimID, _ := data4["claim_id"].(string)
	if claimID == "" {
		t.Fatal("Expected claim_id on accepted recall")
	}

	// 派生工单直接进入处理中，描述带召回标记
	var claim entity.WarrantyClaim
	if err := env.DB.First(&claim, "id = ?", claimID).Error; err != nil {
		t.Fatalf("Expected derived claim, got error: %v", err)
	}
	if claim.Status != entity.ClaimStatusProcessing {
		t.Errorf("Expected derived claim in processing, got %s", claim.Status)
	}
	if !strings.Contains(claim.Description, "RECALL") {
		t.Errorf("Expected RECALL marker in description, got %q", claim.Description)
	}
	if claim.InstalledPartID != ip.ID || claim.VehicleID != ip.VehicleID {
		t.Error("Derived claim must reference the recalled part and its vehicle")
	}
}

func TestRecallDeclinedByCustomer(t *testing.T) {
	env := setupRecallTest(t)
	ip := seedRecallFixtures(t, env)
	adminToken := testutil.AdminToken()

	recall := &entity.RecallRequest{
		ID: "recall-dec-001", Status: entity.RecallStatusPendingAdminApproval,
		Reason: "inverter capacitor aging", InstalledPartID: ip.ID, CreatedByID: "evm-001",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	env.DB.Create(recall)

	testutil.DoRequest(env.Router, "POST", "/api/v1/recalls/"+recall.ID+"/approve", nil, adminToken)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/recalls/"+recall.ID+"/confirm",
		map[string]interface{}{"accepted": false, "note": "car already sold"}, customerToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != entity.RecallStatusRejectedByCustomer {
		t.Errorf("Expected rejected_by_customer, got %v", data["status"])
	}

	// 拒绝不产生工单
	var count int64
	env.DB.Model(&entity.WarrantyClaim{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no claim after decline, got %d", count)
	}
}

func TestRecallAdminRejectAndOwnership(t *testing.T) {
	env := setupRecallTest(t)
	ip := seedRecallFixtures(t, env)
	adminToken := testutil.AdminToken()

	recall := &entity.RecallRequest{
		ID: "recall-rej-001", Status: entity.RecallStatusPendingAdminApproval,
		Reason: "charger relay recall", InstalledPartID: ip.ID, CreatedByID: "evm-001",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	env.DB.Create(recall)

	// 驳回必须带说明
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/recalls/"+recall.ID+"/reject",
		map[string]interface{}{}, adminToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 without note, got %d", w.Code)
	}

	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/recalls/"+recall.ID+"/reject",
		map[string]interface{}{"note": "not a safety issue"}, adminToken)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	data := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if data["status"] != entity.RecallStatusRejectedByAdmin {
		t.Errorf("Expected rejected_by_admin, got %v", data["status"])
	}

	// 非关联车主不能确认
	otherUser := testutil.SeedUser(t, env.DB, "cust-user-002", "Wang Fang", "wangfang@test.com")
	testutil.SeedCustomer(t, env.DB, "cust-002", "Wang Fang", &otherUser.ID)
	waiting := &entity.RecallRequest{
		ID: "recall-own-001", Status: entity.RecallStatusWaitingCustomer,
		Reason: "charger relay recall", InstalledPartID: ip.ID, CreatedByID: "evm-001",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	env.DB.Create(waiting)

	otherToken := testutil.GenerateTestToken("cust-user-002", "Wang Fang", "wangfang@test.com",
		[]string{entity.RoleCustomer})
	w3 := testutil.DoRequest(env.Router, "POST", "/api/v1/recalls/"+waiting.ID+"/confirm",
		map[string]interface{}{"accepted": true}, otherToken)
	if w3.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for foreign customer, got %d: %s", w3.Code, w3.Body.String())
	}
}
