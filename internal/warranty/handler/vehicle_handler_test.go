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

func setupVehicleTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	svc := service.NewServices(repos, nil, testutil.TestConfig(), zap.NewNop())
	h := NewHandlers(svc)

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/vehicles", h.Vehicle.Create)
	api.GET("/vehicles", h.Vehicle.List)
	api.GET("/vehicles/mine", h.Vehicle.ListMine)
	api.GET("/vehicles/vin/:vin", h.Vehicle.GetByVIN)
	api.GET("/vehicles/:id", h.Vehicle.Get)
	api.PUT("/vehicles/:id", h.Vehicle.Update)
	api.GET("/vehicles/:id/service-history", h.Vehicle.ServiceHistory)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestVehicleRegister(t *testing.T) {
	env := setupVehicleTest(t)
	token := testutil.AdminToken()
	customer := testutil.SeedCustomer(t, env.DB, "cust-001", "Li Wei", nil)

	// VIN 长度校验
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/vehicles", map[string]interface{}{
		"vin":         "SHORT",
		"model":       "Voltora EV7",
		"year":        2025,
		"customer_id": customer.ID,
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for short VIN, got %d: %s", w.Code, w.Body.String())
	}

	// VIN 统一转大写存储
	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/vehicles", map[string]interface{}{
		"vin":         "lvvdb21b8pd000001",
		"model":       "Voltora EV7",
		"year":        2025,
		"customer_id": customer.ID,
	}, token)
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w2.Code, w2.Body.String())
	}
	data := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if data["vin"] != "LVVDB21B8PD000001" {
		t.Errorf("Expected uppercased VIN, got %v", data["vin"])
	}

	// VIN 重复（大小写不敏感）
	w3 := testutil.DoRequest(env.Router, "POST", "/api/v1/vehicles", map[string]interface{}{
		"vin":         "LVVDB21B8PD000001",
		"model":       "Voltora EV7",
		"year":        2025,
		"customer_id": customer.ID,
	}, token)
	if w3.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for duplicate VIN, got %d: %s", w3.Code, w3.Body.String())
	}

	// 按 VIN 查询
	w4 := testutil.DoRequest(env.Router, "GET", "/api/v1/vehicles/vin/LVVDB21B8PD000001", nil, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w4.Code, w4.Body.String())
	}

	// 未知车主
	w5 := testutil.DoRequest(env.Router, "POST", "/api/v1/vehicles", map[string]interface{}{
		"vin":         "LVVDB21B8PD000002",
		"model":       "Voltora EV7",
		"year":        2025,
		"customer_id": "no-such-customer",
	}, token)
	if w5.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown customer, got %d", w5.Code)
	}
}

func TestVehicleServiceHistory(t *testing.T) {
	env := setupVehicleTest(t)
	token := testutil.AdminToken()
	customer := testutil.SeedCustomer(t, env.DB, "cust-001", "Li Wei", nil)
	vehicle := testutil.SeedVehicle(t, env.DB, "veh-001", "LVVDB21B8PD000001", customer.ID)

	for i, daysAgo := range []int{400, 30, 5} {
		env.DB.Create(&entity.ServiceHistory{
			ID:          "hist-00" + string(rune('1'+i)),
			VehicleID:   vehicle.ID,
			ServiceType: entity.ServiceTypeMaintenance,
			ServiceDate: time.Now().AddDate(0, 0, -daysAgo),
			Description: "routine check",
			CreatedAt:   time.Now(),
		})
	}

	// 全量记录
	w := testutil.DoRequest(env.Router, "GET", "/api/v1/vehicles/"+vehicle.ID+"/service-history", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	items := testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 3 {
		t.Errorf("Expected 3 history records, got %d", len(items))
	}

	// 按起始日期过滤
	from := time.Now().AddDate(0, 0, -60).Format("2006-01-02")
	w2 := testutil.DoRequest(env.Router, "GET",
		"/api/v1/vehicles/"+vehicle.ID+"/service-history?from="+from, nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	items2 := testutil.ParseResponse(w2)["data"].(map[string]interface{})["items"].([]interface{})
	if len(items2) != 2 {
		t.Errorf("Expected 2 records within range, got %d", len(items2))
	}

	// 非法日期
	w3 := testutil.DoRequest(env.Router, "GET",
		"/api/v1/vehicles/"+vehicle.ID+"/service-history?from=bad-date", nil, token)
	if w3.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for bad date, got %d", w3.Code)
	}
}
