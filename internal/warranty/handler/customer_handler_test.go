package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/repository"
	"github.com/voltora/warranty/internal/warranty/service"
	"github.com/voltora/warranty/internal/warranty/testutil"
	"go.uber.org/zap"
)

func setupCustomerTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	svc := service.NewServices(repos, nil, testutil.TestConfig(), zap.NewNop())
	h := NewHandlers(svc)

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/customers", h.Customer.Create)
	api.GET("/customers", h.Customer.List)
	api.GET("/customers/me", h.Customer.Me)
	api.GET("/customers/:id", h.Customer.Get)
	api.PUT("/customers/:id", h.Customer.Update)
	api.DELETE("/customers/:id", h.Customer.Delete)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestCustomerCreateRoleGate(t *testing.T) {
	env := setupCustomerTest(t)

	body := func(n int) map[string]interface{} {
		return map[string]interface{}{
			"name":  fmt.Sprintf("Customer %d", n),
			"email": fmt.Sprintf("customer%d@test.com", n),
			"phone": fmt.Sprintf("139000000%02d", n),
		}
	}

	// 车主角色不能建档
	custToken := testutil.GenerateTestToken("cust-user-001", "Li Wei", "liwei@test.com",
		[]string{entity.RoleCustomer})
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/customers", body(1), custToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for customer role, got %d: %s", w.Code, w.Body.String())
	}
	if msg := testutil.ParseResponse(w)["message"].(string); !strings.Contains(msg, "Only ADMIN or STAFF can create customer records.") {
		t.Errorf("Unexpected gate message: %q", msg)
	}

	// 管理员可以建档
	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/customers", body(2), testutil.AdminToken())
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for admin, got %d: %s", w2.Code, w2.Body.String())
	}

	// 厂商人员可以建档
	evmToken := testutil.GenerateTestToken("evm-001", "EVM Staff", "evm@test.com",
		[]string{entity.RoleEVMStaff})
	w3 := testutil.DoRequest(env.Router, "POST", "/api/v1/customers", body(3), evmToken)
	if w3.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for evm_staff, got %d: %s", w3.Code, w3.Body.String())
	}
}

func TestCustomerDuplicateContact(t *testing.T) {
	env := setupCustomerTest(t)
	token := testutil.AdminToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/customers", map[string]interface{}{
		"name":  "Li Wei",
		"email": "liwei@test.com",
		"phone": "13900000001",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// 邮箱重复
	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/customers", map[string]interface{}{
		"name":  "Another",
		"email": "liwei@test.com",
		"phone": "13900000002",
	}, token)
	if w2.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for duplicate email, got %d: %s", w2.Code, w2.Body.String())
	}

	// 手机号重复
	w3 := testutil.DoRequest(env.Router, "POST", "/api/v1/customers", map[string]interface{}{
		"name":  "Another",
		"email": "another@test.com",
		"phone": "13900000001",
	}, token)
	if w3.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for duplicate phone, got %d", w3.Code)
	}
}

func TestCustomerDeleteWithVehicles(t *testing.T) {
	env := setupCustomerTest(t)
	token := testutil.AdminToken()

	customer := testutil.SeedCustomer(t, env.DB, "cust-del-001", "Li Wei", nil)
	testutil.SeedVehicle(t, env.DB, "veh-del-001", "LVVDB21B8PD000009", customer.ID)

	w := testutil.DoRequest(env.Router, "DELETE", "/api/v1/customers/"+customer.ID, nil, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for customer with vehicles, got %d: %s", w.Code, w.Body.String())
	}

	// 名下无车后可删除
	env.DB.Where("customer_id = ?", customer.ID).Delete(&entity.Vehicle{})
	w2 := testutil.DoRequest(env.Router, "DELETE", "/api/v1/customers/"+customer.ID, nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200 after vehicles removed, got %d: %s", w2.Code, w2.Body.String())
	}
}

func TestCustomerMe(t *testing.T) {
	env := setupCustomerTest(t)

	owner := testutil.SeedUser(t, env.DB, "cust-user-001", "Li Wei", "liwei@test.com")
	customer := testutil.SeedCustomer(t, env.DB, "cust-001", "Li Wei", &owner.ID)
	token := testutil.GenerateTestToken(owner.ID, owner.Name, owner.Email,
		[]string{entity.RoleCustomer})

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/customers/me", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["id"] != customer.ID {
		t.Errorf("Expected own profile %s, got %v", customer.ID, data["id"])
	}

	// 未绑定档案的用户
	testutil.SeedUser(t, env.DB, "staff-001", "Staff", "staff@test.com")
	staffToken := testutil.GenerateTestToken("staff-001", "Staff", "staff@test.com",
		[]string{entity.RoleSCStaff})
	w2 := testutil.DoRequest(env.Router, "GET", "/api/v1/customers/me", nil, staffToken)
	if w2.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for user without profile, got %d", w2.Code)
	}
}
