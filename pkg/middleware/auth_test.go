package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/medibook/booking-backend/internal/domain"
	"github.com/medibook/booking-backend/internal/service"
	"github.com/medibook/booking-backend/internal/storage/memory"
	"github.com/medibook/booking-backend/pkg/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func createTestConfig(jwtSecret string) *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:      jwtSecret,
			ExpiryHours: 1,
		},
	}
}

func createToken(secret string, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(secret))
	return tokenString
}

func createValidToken(secret, userID, role string) string {
	return createToken(secret, jwt.MapClaims{
		"user_id": userID,
		"email":   userID + "@example.com",
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
}

func createExpiredToken(secret, userID string) string {
	return createToken(secret, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
}

// createTestRouter wires auth middleware in front of a handler echoing the context
func createTestRouter(cfg *config.Config, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(AuthMiddleware(cfg, logger))
	router.GET("/test", func(c *gin.Context) {
		userID, exists := c.Get(ContextUserID)
		if !exists {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "user_id not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": c.GetString(ContextRole)})
	})
	router.GET("/admin", RequireRole(logger, "admin"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func doRequest(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_NoAuthHeader(t *testing.T) {
	router := createTestRouter(createTestConfig("test-secret"), zap.NewNop())

	w := doRequest(router, "/test", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Errorf("Expected error envelope, got %s", w.Body.String())
	}
}

func TestAuthMiddleware_InvalidFormat(t *testing.T) {
	router := createTestRouter(createTestConfig("test-secret"), zap.NewNop())

	for _, header := range []string{"Basic abc", "Bearer", "Bearer    ", "token-without-scheme"} {
		t.Run(header, func(t *testing.T) {
			w := doRequest(router, "/test", header)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
			}
		})
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	router := createTestRouter(createTestConfig("test-secret"), zap.NewNop())

	w := doRequest(router, "/test", "Bearer not.a.jwt")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	router := createTestRouter(createTestConfig("test-secret"), zap.NewNop())

	w := doRequest(router, "/test", "Bearer "+createExpiredToken("test-secret", "user-1"))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	router := createTestRouter(createTestConfig("test-secret"), zap.NewNop())

	w := doRequest(router, "/test", "Bearer "+createValidToken("other-secret", "user-1", "patient"))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthMiddleware_MissingUserID(t *testing.T) {
	router := createTestRouter(createTestConfig("test-secret"), zap.NewNop())

	token := createToken("test-secret", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	w := doRequest(router, "/test", "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := createTestRouter(createTestConfig("test-secret"), zap.NewNop())

	w := doRequest(router, "/test", "Bearer "+createValidToken("test-secret", "user-1", "patient"))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), `"user_id":"user-1"`) {
		t.Errorf("Expected user_id in body, got %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"role":"patient"`) {
		t.Errorf("Expected role in body, got %s", w.Body.String())
	}
}

func TestAuthMiddleware_AcceptsIssuedToken(t *testing.T) {
	cfg := createTestConfig("test-secret")
	users := service.NewUserService(memory.NewStore(), cfg, zap.NewNop())
	user, token, err := users.Register(t.Context(), &domain.RegisterRequest{
		Name: "Pat", Email: "pat@example.com", Password: "patient-pw",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	w := doRequest(createTestRouter(cfg, zap.NewNop()), "/test", "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), `"user_id":"`+user.ID.String()+`"`) {
		t.Errorf("Expected user_id in body, got %s", w.Body.String())
	}

	other := service.NewUserService(memory.NewStore(), createTestConfig("other-secret"), zap.NewNop())
	_, foreign, err := other.Register(t.Context(), &domain.RegisterRequest{
		Name: "Eve", Email: "eve@example.com", Password: "patient-pw",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	w = doRequest(createTestRouter(cfg, zap.NewNop()), "/test", "Bearer "+foreign)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	router := createTestRouter(createTestConfig("test-secret"), zap.NewNop())

	tests := []struct {
		role string
		want int
	}{
		{"admin", http.StatusOK},
		{"patient", http.StatusForbidden},
		{"doctor", http.StatusForbidden},
		{"", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			w := doRequest(router, "/admin", "Bearer "+createValidToken("test-secret", "user-1", tt.role))
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}

	if w := doRequest(router, "/admin", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d without token, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestLogger(t *testing.T) {
	logger := zap.NewNop()

	w := httptest.NewRecorder()
	_, router := gin.CreateTestContext(w)

	router.Use(Logger(logger))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestLogger_WithDifferentMethods(t *testing.T) {
	logger := zap.NewNop()

	methods := []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			w := httptest.NewRecorder()
			_, router := gin.CreateTestContext(w)

			router.Use(Logger(logger))
			router.Handle(method, "/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
			})

			req := httptest.NewRequest(method, "/test", nil)
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	router := gin.New()
	router.Use(BodyLimit(16, 1<<20))
	router.POST("/test", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, body)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"a":"b"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("small body: expected %d, got %d", http.StatusOK, w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"a":"`+strings.Repeat("x", 64)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("large body: expected %d, got %d", http.StatusBadRequest, w.Code)
	}
}
