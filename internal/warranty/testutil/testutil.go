package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/voltora/warranty/internal/config"
	"github.com/voltora/warranty/internal/middleware"
	"github.com/voltora/warranty/internal/warranty/entity"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_warranty"
	JWTSecret  = "voltora-warranty-jwt-secret-2025"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "warranty")
	password := getEnv("DB_PASSWORD", "warranty")
	dbname := getEnv("DB_NAME", "warranty")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// Create a unique test schema for isolation
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	// First: create schema using a temporary connection
	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Second: open connection with search_path in DSN so ALL pooled connections use test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Migrate test tables
	err = db.AutoMigrate(
		&entity.Role{},
		&entity.ServiceCenter{},
		&entity.User{},
		&entity.UserRole{},
		&entity.Customer{},
		&entity.Vehicle{},
		&entity.Part{},
		&entity.InstalledPart{},
		&entity.WarrantyClaim{},
		&entity.WorkLog{},
		&entity.ClaimAttachment{},
		&entity.ClaimHistory{},
		&entity.PartRequest{},
		&entity.RecallRequest{},
		&entity.ServiceHistory{},
		&entity.Feedback{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	seedRoles(t, db)

	// Cleanup on test completion
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		// Reconnect to drop the schema
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

func seedRoles(t *testing.T, db *gorm.DB) {
	t.Helper()
	codes := []string{
		entity.RoleAdmin,
		entity.RoleEVMStaff,
		entity.RoleSCStaff,
		entity.RoleSCTechnician,
		entity.RoleCustomer,
	}
	for i, code := range codes {
		role := &entity.Role{
			ID:        fmt.Sprintf("role-%03d", i+1),
			Code:      code,
			Name:      code,
			IsSystem:  true,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := db.Create(role).Error; err != nil {
			t.Fatalf("Failed to seed role %s: %v", code, err)
		}
	}
}

// TestConfig returns a config suitable for wiring services in tests.
// MinIO is left unconfigured so attachment storage stays disabled.
func TestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:             JWTSecret,
			AccessTokenExpire:  2 * time.Hour,
			RefreshTokenExpire: 168 * time.Hour,
			Issuer:             "voltora-warranty-test",
		},
	}
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, email string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}

	now := time.Now()
	claims := middleware.JWTClaims{
		UserID: userID,
		Name:   name,
		Email:  email,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        fmt.Sprintf("test-jti-%d", now.UnixNano()),
			Issuer:    "voltora-warranty-test",
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// AdminToken returns a token for a default admin test user
func AdminToken() string {
	return GenerateTestToken("test-admin-001", "Test Admin", "admin@test.com",
		[]string{entity.RoleAdmin})
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedUser creates a test user in the database
func SeedUser(t *testing.T, db *gorm.DB, id, name, email string) *entity.User {
	t.Helper()
	user := &entity.User{
		ID:           id,
		Username:     "user_" + id,
		Name:         name,
		Email:        email,
		PasswordHash: "x",
		Status:       "active",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed test user: %v", err)
	}
	return user
}

// SeedCustomer creates a test customer profile, optionally linked to a user account
func SeedCustomer(t *testing.T, db *gorm.DB, id, name string, userID *string) *entity.Customer {
	t.Helper()
	customer := &entity.Customer{
		ID:        id,
		Name:      name,
		Email:     id + "@test.com",
		Phone:     fmt.Sprintf("1%010d", time.Now().UnixNano()%10000000000),
		UserID:    userID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("Failed to seed test customer: %v", err)
	}
	return customer
}

// SeedVehicle creates a test vehicle for a customer
func SeedVehicle(t *testing.T, db *gorm.DB, id, vin, customerID string) *entity.Vehicle {
	t.Helper()
	vehicle := &entity.Vehicle{
		ID:         id,
		VIN:        vin,
		Model:      "Voltora EV7",
		Year:       2025,
		CustomerID: customerID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := db.Create(vehicle).Error; err != nil {
		t.Fatalf("Failed to seed test vehicle: %v", err)
	}
	return vehicle
}

// SeedPart creates a catalog part
func SeedPart(t *testing.T, db *gorm.DB, id, partNumber, name string) *entity.Part {
	t.Helper()
	part := &entity.Part{
		ID:         id,
		PartNumber: partNumber,
		Name:       name,
		Category:   entity.PartCategoryBattery,
		UnitPrice:  1200.50,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := db.Create(part).Error; err != nil {
		t.Fatalf("Failed to seed test part: %v", err)
	}
	return part
}

// SeedInstalledPart creates an installed part with the given warranty expiry
func SeedInstalledPart(t *testing.T, db *gorm.DB, id, partID, vehicleID string, expiry time.Time) *entity.InstalledPart {
	t.Helper()
	ip := &entity.InstalledPart{
		ID:                     id,
		PartID:                 partID,
		VehicleID:              vehicleID,
		SerialNumber:           "SN-" + id,
		InstallationDate:       time.Now().AddDate(-1, 0, 0),
		WarrantyExpirationDate: expiry,
		CreatedAt:              time.Now(),
		UpdatedAt:              time.Now(),
	}
	if err := db.Create(ip).Error; err != nil {
		t.Fatalf("Failed to seed installed part: %v", err)
	}
	return ip
}

// SeedClaim creates a warranty claim in the given status
func SeedClaim(t *testing.T, db *gorm.DB, id, vehicleID, installedPartID, status, createdBy string) *entity.WarrantyClaim {
	t.Helper()
	claim := &entity.WarrantyClaim{
		ID:              id,
		Status:          status,
		ClaimDate:       time.Now(),
		Description:     "Battery loses charge overnight",
		VehicleID:       vehicleID,
		InstalledPartID: installedPartID,
		CreatedBy:       createdBy,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := db.Create(claim).Error; err != nil {
		t.Fatalf("Failed to seed test claim: %v", err)
	}
	return claim
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
