package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/repository"
	"github.com/voltora/warranty/internal/warranty/service"
	"github.com/voltora/warranty/internal/warranty/testutil"
	"go.uber.org/zap"
)

func setupClaimTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	svc := service.NewServices(repos, nil, testutil.TestConfig(), zap.NewNop())
	h := NewHandlers(svc)

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/claims", h.Claim.Create)
	api.GET("/claims", h.Claim.List)
	api.GET("/claims/mine", h.Claim.ListMine)
	api.GET("/claims/:id", h.Claim.Get)
	api.POST("/claims/:id/accept", h.Claim.Accept)
	api.POST("/claims/:id/reject", h.Claim.Reject)
	api.POST("/claims/:id/start", h.Claim.StartProcessing)
	api.POST("/claims/:id/complete", h.Claim.Complete)
	api.PUT("/claims/:id/status", h.Claim.UpdateStatus)
	api.GET("/claims/:id/work-logs", h.Claim.ListWorkLogs)
	api.GET("/claims/:id/history", h.Claim.ListHistory)
	api.POST("/claims/:id/attachments", h.Claim.UploadAttachment)
	api.GET("/claims/:id/attachments", h.Claim.ListAttachments)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

// seedClaimFixtures prepares a customer with a vehicle and an in-warranty part.
func seedClaimFixtures(t *testing.T, env *testutil.TestEnv) (*entity.Vehicle, *entity.InstalledPart) {
	t.Helper()
	owner := testutil.SeedUser(t, env.DB, "cust-user-001", "Li Wei", "liwei@test.com")
	customer := testutil.SeedCustomer(t, env.DB, "cust-001", "Li Wei", &owner.ID)
	vehicle := testutil.SeedVehicle(t, env.DB, "veh-001", "LVVDB21B8PD000001", customer.ID)
	part := testutil.SeedPart(t, env.DB, "part-001", "BAT-75KWH-A", "75kWh Battery Pack")
	ip := testutil.SeedInstalledPart(t, env.DB, "ip-001", part.ID, vehicle.ID,
		time.Now().AddDate(2, 0, 0))
	return vehicle, ip
}

func TestClaimLifecycle(t *testing.T) {
	env := setupClaimTest(t)
	vehicle, ip := seedClaimFixtures(t, env)

	customerToken := testutil.GenerateTestToken("cust-user-001", "Li Wei", "liwei@test.com",
		[]string{entity.RoleCustomer})
	adminToken := testutil.AdminToken()
	testutil.SeedUser(t, env.DB, "test-admin-001", "Test Admin", "admin@test.com")
	testutil.SeedUser(t, env.DB, "tech-001", "Tech One", "tech1@test.com")
	techToken := testutil.GenerateTestToken("tech-001", "Tech One", "tech1@test.com",
		[]string{entity.RoleSCTechnician})

	// 车主提交工单
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/claims", map[string]interface{}{
		"vehicle_id":        vehicle.ID,
		"installed_part_id": ip.ID,
		"description":       "Battery loses 30% charge overnight",
	}, customerToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != entity.ClaimStatusSubmitted {
		t.Errorf("Expected status submitted, got %v", data["status"])
	}
	claimID := data["id"].(string)

	// 管理员受理
	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/claims/"+claimID+"/accept",
		map[string]interface{}{"note": "verified under warranty"}, adminToken)
	if w2.Code != http.StatusOK {
		t.Fatalf("Accept: expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	data2 := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if data2["status"] != entity.ClaimStatusManagerReview {
		t.Errorf("Expected manager_review, got %v", data2["status"])
	}

	// 技师开工
	w3 := testutil.DoRequest(env.Router, "POST", "/api/v1/claims/"+claimID+"/start", nil, techToken)
	if w3.Code != http.StatusOK {
		t.Fatalf("Start: expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	data3 := testutil.ParseResponse(w3)["data"].(map[string]interface{})
	if data3["status"] != entity.ClaimStatusProcessing {
		t.Errorf("Expected processing, got %v", data3["status"])
	}

	// 开工后应有未关闭的工时记录
	var openLogs int64
	env.DB.Model(&entity.WorkLog{}).Where("claim_id = ? AND end_time IS NULL", claimID).Count(&openLogs)
	if openLogs != 1 {
		t.Errorf("Expected 1 open work log, got %d", openLogs)
	}

	// 技师完工
	w4 := testutil.DoRequest(env.Router, "POST", "/api/v1/claims/"+claimID+"/complete",
		map[string]interface{}{"note": "battery module replaced"}, techToken)
	if w4.Code != http.StatusOK {
		t.Fatalf("Complete: expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	data4 := testutil.ParseResponse(w4)["data"].(map[string]interface{})
	if data4["status"] != entity.ClaimStatusCompleted {
		t.Errorf("Expected completed, got %v", data4["status"])
	}
	if data4["resolution_date"] == nil {
		t.Error("Expected resolution_date to be set on completion")
	}

	// 工时记录应已关闭
	env.DB.Model(&entity.WorkLog{}).Where("claim_id = ? AND end_time IS NULL", claimID).Count(&openLogs)
	if openLogs != 0 {
		t.Errorf("Expected work log to be closed, %d still open", openLogs)
	}

	// 完工后应生成车辆服务记录
	var svcHist entity.ServiceHistory
	if err := env.DB.Where("claim_id = ?", claimID).First(&svcHist).Error; err != nil {
		t.Fatalf("Expected service history record, got error: %v", err)
	}
	if svcHist.ServiceType != entity.ServiceTypeWarrantyClaim {
		t.Errorf("Expected service type %q, got %q", entity.ServiceTypeWarrantyClaim, svcHist.ServiceType)
	}
	if svcHist.VehicleID != vehicle.ID {
		t.Errorf("Expected service history for vehicle %s, got %s", vehicle.ID, svcHist.VehicleID)
	}

	// 操作历史应覆盖整个流程
	w5 := testutil.DoRequest(env.Router, "GET", "/api/v1/claims/"+claimID+"/history", nil, adminToken)
	if w5.Code != http.StatusOK {
		t.Fatalf("History: expected 200, got %d", w5.Code)
	}
	histItems := testutil.ParseResponse(w5)["data"].(map[string]interface{})["items"].([]interface{})
	if len(histItems) < 4 {
		t.Errorf("Expected at least 4 history entries, got %d", len(histItems))
	}

	// 车主本人工单列表
	w6 := testutil.DoRequest(env.Router, "GET", "/api/v1/claims/mine", nil, customerToken)
	if w6.Code != http.StatusOK {
		t.Fatalf("ListMine: expected 200, got %d: %s", w6.Code, w6.Body.String())
	}
	mine := testutil.ParseResponse(w6)["data"].(map[string]interface{})
	if items := mine["items"].([]interface{}); len(items) != 1 {
		t.Errorf("Expected 1 claim for customer, got %d", len(items))
	}
}

func TestClaimReject(t *testing.T) {
	env := setupClaimTest(t)
	vehicle, ip := seedClaimFixtures(t, env)
	adminToken := testutil.AdminToken()
	testutil.SeedUser(t, env.DB, "test-admin-001", "Test Admin", "admin@test.com")

	claim := testutil.SeedClaim(t, env.DB, "claim-rej-001", vehicle.ID, ip.ID,
		entity.ClaimStatusSubmitted, "cust-user-001")

	// 驳回必须带原因
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/claims/"+claim.ID+"/reject",
		map[string]interface{}{}, adminToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 without reason, got %d", w.Code)
	}

	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/claims/"+claim.ID+"/reject",
		map[string]interface{}{"reason": "damage not covered"}, adminToken)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	data := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if data["status"] != entity.ClaimStatusRejected {
		t.Errorf("Expected rejected, got %v", data["status"])
	}
	if data["resolution_date"] == nil {
		t.Error("Expected resolution_date to be set on rejection")
	}
	if desc := data["description"].(string); !strings.Contains(desc, "[Admin Rejection]: damage not covered") {
		t.Errorf("Expected rejection reason appended to description, got %q", desc)
	}
}

func TestClaimIllegalTransitions(t *testing.T) {
	env := setupClaimTest(t)
	vehicle, ip := seedClaimFixtures(t, env)
	adminToken := testutil.AdminToken()
	testutil.SeedUser(t, env.DB, "test-admin-001", "Test Admin", "admin@test.com")

	// 受理非submitted工单
	processing := testutil.SeedClaim(t, env.DB, "claim-ill-001", vehicle.ID, ip.ID,
		entity.ClaimStatusProcessing, "cust-user-001")
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/claims/"+processing.ID+"/accept",
		nil, adminToken)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 for accepting processing claim, got %d: %s", w.Code, w.Body.String())
	}
	var reloaded entity.WarrantyClaim
	env.DB.First(&reloaded, "id = ?", processing.ID)
	if reloaded.Status != entity.ClaimStatusProcessing {
		t.Errorf("Status must be unchanged after failed accept, got %s", reloaded.Status)
	}

	// 完工非processing工单
	submitted := testutil.SeedClaim(t, env.DB, "claim-ill-002", vehicle.ID, ip.ID,
		entity.ClaimStatusSubmitted, "cust-user-001")
	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/claims/"+submitted.ID+"/complete",
		nil, adminToken)
	if w2.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 for completing submitted claim, got %d", w2.Code)
	}

	// 跳级迁移 submitted -> completed
	w3 := testutil.DoRequest(env.Router, "PUT", "/api/v1/claims/"+submitted.ID+"/status",
		map[string]interface{}{"status": entity.ClaimStatusCompleted}, adminToken)
	if w3.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 for submitted->completed, got %d: %s", w3.Code, w3.Body.String())
	}
	var reloaded2 entity.WarrantyClaim
	env.DB.First(&reloaded2, "id = ?", submitted.ID)
	if reloaded2.Status != entity.ClaimStatusSubmitted {
		t.Errorf("Status must be unchanged after illegal transition, got %s", reloaded2.Status)
	}

	// 终态工单不可再迁移
	completed := testutil.SeedClaim(t, env.DB, "claim-ill-003", vehicle.ID, ip.ID,
		entity.ClaimStatusCompleted, "cust-user-001")
	w4 := testutil.DoRequest(env.Router, "PUT", "/api/v1/claims/"+completed.ID+"/status",
		map[string]interface{}{"status": entity.ClaimStatusProcessing}, adminToken)
	if w4.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 for transition out of completed, got %d", w4.Code)
	}
}

func TestClaimCreateValidation(t *testing.T) {
	env := setupClaimTest(t)
	vehicle, _ := seedClaimFixtures(t, env)
	token := testutil.GenerateTestToken("cust-user-001", "Li Wei", "liwei@test.com",
		[]string{entity.RoleCustomer})

	// 过保零件
	part := testutil.SeedPart(t, env.DB, "part-exp-001", "MTR-150KW-B", "Drive Motor")
	expired := testutil.SeedInstalledPart(t, env.DB, "ip-exp-001", part.ID, vehicle.ID,
		time.Now().AddDate(0, 0, -30))
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/claims", map[string]interface{}{
		"vehicle_id":        vehicle.ID,
		"installed_part_id": expired.ID,
		"description":       "motor noise",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for expired warranty, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if msg := resp["message"].(string); !strings.Contains(msg, "warranty expired") {
		t.Errorf("Expected warranty expired message, got %q", msg)
	}

	// 零件不在该车上
	otherOwner := testutil.SeedUser(t, env.DB, "cust-user-002", "Wang Fang", "wangfang@test.com")
	otherCustomer := testutil.SeedCustomer(t, env.DB, "cust-002", "Wang Fang", &otherOwner.ID)
	otherVehicle := testutil.SeedVehicle(t, env.DB, "veh-002", "LVVDB21B8PD000002", otherCustomer.ID)
	foreign := testutil.SeedInstalledPart(t, env.DB, "ip-for-001", part.ID, otherVehicle.ID,
		time.Now().AddDate(2, 0, 0))
	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/claims", map[string]interface{}{
		"vehicle_id":        vehicle.ID,
		"installed_part_id": foreign.ID,
		"description":       "wrong part",
	}, token)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for part on another vehicle, got %d", w2.Code)
	}

	// 不存在的车辆
	w3 := testutil.DoRequest(env.Router, "POST", "/api/v1/claims", map[string]interface{}{
		"vehicle_id":        "no-such-vehicle",
		"installed_part_id": "ip-001",
		"description":       "ghost vehicle",
	}, token)
	if w3.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown vehicle, got %d", w3.Code)
	}
}

func TestClaimAttachmentUploadWithoutStorage(t *testing.T) {
	env := setupClaimTest(t)
	vehicle, ip := seedClaimFixtures(t, env)
	claim := testutil.SeedClaim(t, env.DB, "claim-att-001", vehicle.ID, ip.ID,
		entity.ClaimStatusSubmitted, "cust-user-001")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "damage.jpg")
	if err != nil {
		t.Fatalf("Create form file: %v", err)
	}
	fw.Write([]byte("fake-jpeg-bytes"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/claims/"+claim.ID+"/attachments", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testutil.AdminToken())
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	// 对象存储未配置时不能落附件记录
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500 without object storage, got %d: %s", w.Code, w.Body.String())
	}
	var count int64
	env.DB.Model(&entity.ClaimAttachment{}).Where("claim_id = ?", claim.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected no attachment rows, got %d", count)
	}
}
