package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, jti string) string {
	t.Helper()
	claims := &JWTClaims{
		UserID: "user-001",
		Name:   "Test User",
		Roles:  []string{"admin"},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestTokenDenylistBlocksRevokedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	revoked := map[string]bool{"jti-revoked": true}
	r := gin.New()
	r.Use(JWTAuth(testSecret))
	r.Use(TokenDenylist(func(ctx context.Context, jti string) bool {
		return revoked[jti]
	}))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})

	do := func(token string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		return w
	}

	// 有效且未注销的令牌放行
	if w := do(signToken(t, "jti-live")); w.Code != http.StatusOK {
		t.Fatalf("live token: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	// 注销后的令牌即使签名与有效期均合法也应被拒绝
	if w := do(signToken(t, "jti-revoked")); w.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token: expected 401, got %d (%s)", w.Code, w.Body.String())
	}
}
