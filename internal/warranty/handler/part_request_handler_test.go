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

func setupPartRequestTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	svc := service.NewServices(repos, nil, testutil.TestConfig(), zap.NewNop())
	h := NewHandlers(svc)

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/part-requests", h.PartRequest.Create)
	api.GET("/part-requests", h.PartRequest.List)
	api.GET("/part-requests/in-transit", h.PartRequest.ListInTransit)
	api.GET("/part-requests/:id", h.PartRequest.Get)
	api.POST("/part-requests/:id/approve", h.PartRequest.Approve)
	api.POST("/part-requests/:id/reject", h.PartRequest.Reject)
	api.POST("/part-requests/:id/ship", h.PartRequest.Ship)
	api.POST("/part-requests/:id/deliver", h.PartRequest.Deliver)
	api.POST("/part-requests/:id/cancel", h.PartRequest.Cancel)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

// seedPartRequestFixtures prepares an open claim, a faulty part and a service center.
func seedPartRequestFixtures(t *testing.T, env *testutil.TestEnv) (*entity.WarrantyClaim, *entity.Part, *entity.ServiceCenter) {
	t.Helper()
	owner := testutil.SeedUser(t, env.DB, "cust-user-001", "Li Wei", "liwei@test.com")
	customer := testutil.SeedCustomer(t, env.DB, "cust-001", "Li Wei", &owner.ID)
	vehicle := testutil.SeedVehicle(t, env.DB, "veh-001", "LVVDB21B8PD000001", customer.ID)
	part := testutil.SeedPart(t, env.DB, "part-001", "INV-400V-C", "Traction Inverter")
	ip := testutil.SeedInstalledPart(t, env.DB, "ip-001", part.ID, vehicle.ID,
		time.Now().AddDate(2, 0, 0))
	claim := testutil.SeedClaim(t, env.DB, "claim-001", vehicle.ID, ip.ID,
		entity.ClaimStatusProcessing, owner.ID)

	sc := &entity.ServiceCenter{
		ID: "sc-001", Name: "Shanghai Service Center", Region: "east",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	env.DB.Create(sc)

	testutil.SeedUser(t, env.DB, "tech-001", "Tech One", "tech1@test.com")
	testutil.SeedUser(t, env.DB, "evm-001", "EVM Staff", "evm@test.com")
	return claim, part, sc
}

func techToken() string {
	return testutil.GenerateTestToken("tech-001", "Tech One", "tech1@test.com",
		[]string{entity.RoleSCTechnician})
}

func evmToken() string {
	return testutil.GenerateTestToken("evm-001", "EVM Staff", "evm@test.com",
		[]string{entity.RoleEVMStaff})
}

func TestPartRequestLifecycle(t *testing.T) {
	env := setupPartRequestTest(t)
	claim, part, sc := seedPartRequestFixtures(t, env)

	// 技师创建申领单
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/part-requests", map[string]interface{}{
		"claim_id":          claim.ID,
		"faulty_part_id":    part.ID,
		"quantity":          1,
		"issue_description": "inverter IGBT failure",
		"service_center_id": sc.ID,
	}, techToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != entity.PartRequestStatusPending {
		t.Errorf("Expected pending, got %v", data["status"])
	}
	reqID := data["id"].(string)

	// 厂商批准
	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/part-requests/"+reqID+"/approve",
		map[string]interface{}{"notes": "stock available"}, evmToken())
	if w2.Code != http.StatusOK {
		t.Fatalf("Approve: expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	data2 := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if data2["status"] != entity.PartRequestStatusApproved {
		t.Errorf("Expected approved, got %v", data2["status"])
	}
	if data2["approved_date"] == nil {
		t.Error("Expected approved_date to be set")
	}

	// 重复批准失败
	w3 := testutil.DoRequest(env.Router, "POST", "/api/v1/part-requests/"+reqID+"/approve",
		nil, evmToken())
	if w3.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 for double approve, got %d: %s", w3.Code, w3.Body.String())
	}
	if msg := testutil.ParseResponse(w3)["message"].(string); !strings.Contains(msg, "Can only approve PENDING requests") {
		t.Errorf("Unexpected double-approve message: %q", msg)
	}

	// 发货必须带运单号
	w4 := testutil.DoRequest(env.Router, "POST", "/api/v1/part-requests/"+reqID+"/ship",
		map[string]interface{}{}, evmToken())
	if w4.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for ship without tracking number, got %d", w4.Code)
	}

	w5 := testutil.DoRequest(env.Router, "POST", "/api/v1/part-requests/"+reqID+"/ship",
		map[string]interface{}{"tracking_number": "SF1234567890"}, evmToken())
	if w5.Code != http.StatusOK {
		t.Fatalf("Ship: expected 200, got %d: %s", w5.Code, w5.Body.String())
	}
	data5 := testutil.ParseResponse(w5)["data"].(map[string]interface{})
	if data5["status"] != entity.PartRequestStatusShipped {
		t.Errorf("Expected shipped, got %v", data5["status"])
	}
	if data5["tracking_number"] != "SF1234567890" {
		t.Errorf("Expected tracking number, got %v", data5["tracking_number"])
	}

	// 在途列表应包含该单
	w6 := testutil.DoRequest(env.Router, "GET", "/api/v1/part-requests/in-transit", nil, evmToken())
	if w6.Code != http.StatusOK {
		t.Fatalf("InTransit: expected 200, got %d", w6.Code)
	}
	items := testutil.ParseResponse(w6)["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 1 {
		t.Errorf("Expected 1 in-transit request, got %d", len(items))
	}

	// 服务中心签收
	w7 := testutil.DoRequest(env.Router, "POST", "/api/v1/part-requests/"+reqID+"/deliver",
		nil, techToken())
	if w7.Code != http.StatusOK {
		t.Fatalf("Deliver: expected 200, got %d: %s", w7.Code, w7.Body.String())
	}
	data7 := testutil.ParseResponse(w7)["data"].(map[string]interface{})
	if data7["status"] != entity.PartRequestStatusDelivered {
		t.Errorf("Expected delivered, got %v", data7["status"])
	}

	// 已签收后不能再签收
	w8 := testutil.DoRequest(env.Router, "POST", "/api/v1/part-requests/"+reqID+"/deliver",
		nil, techToken())
	if w8.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 for double deliver, got %d", w8.Code)
	}
}

func TestPartRequestCancel(t *testing.T) {
	env := setupPartRequestTest(t)
	claim, part, sc := seedPartRequestFixtures(t, env)
	testutil.SeedUser(t, env.DB, "tech-002", "Tech Two", "tech2@test.com")

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/part-requests", map[string]interface{}{
		"claim_id":          claim.ID,
		"faulty_part_id":    part.ID,
		"quantity":          2,
		"issue_description": "needs two modules",
		"service_center_id": sc.ID,
	}, techToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	reqID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// 非申请人不能撤单
	otherTech := testutil.GenerateTestToken("tech-002", "Tech Two", "tech2@test.com",
		[]string{entity.RoleSCTechnician})
	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/part-requests/"+reqID+"/cancel",
		nil, otherTech)
	if w2.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for non-requester cancel, got %d: %s", w2.Code, w2.Body.String())
	}

	// 申请人撤单
	w3 := testutil.DoRequest(env.Router, "POST", "/api/v1/part-requests/"+reqID+"/cancel",
		nil, techToken())
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	data := testutil.ParseResponse(w3)["data"].(map[string]interface{})
	if data["status"] != entity.PartRequestStatusCancelled {
		t.Errorf("Expected cancelled, got %v", data["status"])
	}

	// 已取消后不能再批准
	w4 := testutil.DoRequest(env.Router, "POST", "/api/v1/part-requests/"+reqID+"/approve",
		nil, evmToken())
	if w4.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 for approving cancelled request, got %d", w4.Code)
	}
}

func TestPartRequestRequiresOpenClaim(t *testing.T) {
	env := setupPartRequestTest(t)
	claim, part, sc := seedPartRequestFixtures(t, env)

	// 已完工工单不能再申领备件
	env.DB.Model(&entity.WarrantyClaim{}).Where("id = ?", claim.ID).
		Update("status", entity.ClaimStatusCompleted)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/part-requests", map[string]interface{}{
		"claim_id":          claim.ID,
		"faulty_part_id":    part.ID,
		"quantity":          1,
		"issue_description": "late request",
		"service_center_id": sc.ID,
	}, techToken())
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 for closed claim, got %d: %s", w.Code, w.Body.String())
	}
}
