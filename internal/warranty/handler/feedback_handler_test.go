package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/repository"
	"github.com/voltora/warranty/internal/warranty/service"
	"github.com/voltora/warranty/internal/warranty/testutil"
	"go.uber.org/zap"
)

func setupFeedbackTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	svc := service.NewServices(repos, nil, testutil.TestConfig(), zap.NewNop())
	h := NewHandlers(svc)

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/feedback", h.Feedback.Create)
	api.GET("/feedback", h.Feedback.List)
	api.GET("/feedback/mine", h.Feedback.ListMine)
	api.GET("/feedback/:id", h.Feedback.Get)
	api.DELETE("/feedback/:id", h.Feedback.Delete)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func seedFeedbackFixtures(t *testing.T, env *testutil.TestEnv, claimStatus string) *entity.WarrantyClaim {
	t.Helper()
	owner := testutil.SeedUser(t, env.DB, "cust-user-001", "Li Wei", "liwei@test.com")
	customer := testutil.SeedCustomer(t, env.DB, "cust-001", "Li Wei", &owner.ID)
	vehicle := testutil.SeedVehicle(t, env.DB, "veh-001", "LVVDB21B8PD000001", customer.ID)
	part := testutil.SeedPart(t, env.DB, "part-001", "CHG-11KW-E", "Onboard Charger")
	ip := testutil.SeedInstalledPart(t, env.DB, "ip-001", part.ID, vehicle.ID,
		time.Now().AddDate(2, 0, 0))
	return testutil.SeedClaim(t, env.DB, "claim-001", vehicle.ID, ip.ID, claimStatus, owner.ID)
}

func TestFeedbackCreate(t *testing.T) {
	env := setupFeedbackTest(t)
	claim := seedFeedbackFixtures(t, env, entity.ClaimStatusCompleted)
	token := customerToken()

	// 评分越界
	for _, rating := range []int{0, 6} {
		w := testutil.DoRequest(env.Router, "POST", "/api/v1/feedback", map[string]interface{}{
			"claim_id": claim.ID,
			"rating":   rating,
		}, token)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400 for rating %d, got %d: %s", rating, w.Code, w.Body.String())
		}
	}

	// 正常评价
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/feedback", map[string]interface{}{
		"claim_id": claim.ID,
		"rating":   5,
		"comment":  "quick turnaround, great service",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if int(data["rating"].(float64)) != 5 {
		t.Errorf("Expected rating 5, got %v", data["rating"])
	}

	// 同一工单不能重复评价
	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/feedback", map[string]interface{}{
		"claim_id": claim.ID,
		"rating":   1,
	}, token)
	if w2.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for duplicate feedback, got %d: %s", w2.Code, w2.Body.String())
	}

	// 本人评价列表
	w3 := testutil.DoRequest(env.Router, "GET", "/api/v1/feedback/mine", nil, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("ListMine: expected 200, got %d", w3.Code)
	}
}

func TestFeedbackRequiresCompletedClaim(t *testing.T) {
	env := setupFeedbackTest(t)
	claim := seedFeedbackFixtures(t, env, entity.ClaimStatusProcessing)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/feedback", map[string]interface{}{
		"claim_id": claim.ID,
		"rating":   4,
	}, customerToken())
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 for non-completed claim, got %d: %s", w.Code, w.Body.String())
	}
}

func TestFeedbackOwnership(t *testing.T) {
	env := setupFeedbackTest(t)
	claim := seedFeedbackFixtures(t, env, entity.ClaimStatusCompleted)

	// 其他车主不能评价别人的工单
	otherUser := testutil.SeedUser(t, env.DB, "cust-user-002", "Wang Fang", "wangfang@test.com")
	testutil.SeedCustomer(t, env.DB, "cust-002", "Wang Fang", &otherUser.ID)
	otherToken := testutil.GenerateTestToken("cust-user-002", "Wang Fang", "wangfang@test.com",
		[]string{entity.RoleCustomer})

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/feedback", map[string]interface{}{
		"claim_id": claim.ID,
		"rating":   3,
	}, otherToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for foreign claim, got %d: %s", w.Code, w.Body.String())
	}
}
