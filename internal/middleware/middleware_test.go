package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"framex/internal/config"
	apperrors "framex/internal/errors"
	"framex/internal/models"
)

const testSecret = "middleware-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
	config.Set(&config.Config{JWTSecret: testSecret, JWTExpirationDur: time.Hour})
}

type stubUsers map[string]*models.User

func (s stubUsers) GetUserByID(id string) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func doRequest(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	errObj, ok := parseBody(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func protectedRouter(users stubUsers) *gin.Engine {
	r := gin.New()
	g := r.Group("/", AuthMiddleware(), LoadUser(users), RequirePasswordCurrent("/profile"))
	g.GET("/profile", func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	})
	g.GET("/entries", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	g.GET("/users", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestAuthMiddleware(t *testing.T) {
	admin := &models.User{Base: models.Base{ID: "u-admin"}, Role: models.RoleAdmin}
	member := &models.User{Base: models.Base{ID: "u-member"}, Role: models.RoleUser}
	flagged := &models.User{Base: models.Base{ID: "u-flagged"}, Role: models.RoleUser, ForcePasswordChange: true}
	r := protectedRouter(stubUsers{admin.ID: admin, member.ID: member, flagged.ID: flagged})

	token := func(u *models.User) string {
		s, err := GenerateAccessToken(u)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		return s
	}

	t.Run("valid_token", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/profile", token(member))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if parseBody(t, rec)["id"] != member.ID {
			t.Errorf("expected current user %s", member.ID)
		}
	})

	t.Run("missing_header", func(t *testing.T) {
		assertErrorCode(t, doRequest(r, http.MethodGet, "/profile", ""), http.StatusUnauthorized, "UNAUTHORIZED")
	})

	t.Run("garbage_token", func(t *testing.T) {
		assertErrorCode(t, doRequest(r, http.MethodGet, "/profile", "abc.def.ghi"), http.StatusUnauthorized, "UNAUTHORIZED")
	})

	t.Run("wrong_secret", func(t *testing.T) {
		claims := &JWTClaims{UserID: member.ID, RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
		assertErrorCode(t, doRequest(r, http.MethodGet, "/profile", forged), http.StatusUnauthorized, "UNAUTHORIZED")
	})

	t.Run("expired_token", func(t *testing.T) {
		claims := &JWTClaims{UserID: member.ID, RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}
		expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		assertErrorCode(t, doRequest(r, http.MethodGet, "/profile", expired), http.StatusUnauthorized, "UNAUTHORIZED")
	})

	t.Run("deleted_user", func(t *testing.T) {
		ghost := &models.User{Base: models.Base{ID: "u-ghost"}, Role: models.RoleAdmin}
		assertErrorCode(t, doRequest(r, http.MethodGet, "/profile", token(ghost)), http.StatusUnauthorized, "UNAUTHORIZED")
	})

	t.Run("admin_route_rejects_user", func(t *testing.T) {
		assertErrorCode(t, doRequest(r, http.MethodGet, "/users", token(member)), http.StatusForbidden, "FORBIDDEN")
	})

	t.Run("admin_route_allows_admin", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/users", token(admin))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("password_change_required", func(t *testing.T) {
		assertErrorCode(t, doRequest(r, http.MethodGet, "/entries", token(flagged)), http.StatusForbidden, "PASSWORD_CHANGE_REQUIRED")

		rec := doRequest(r, http.MethodGet, "/profile", token(flagged))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected profile to stay reachable, got %d", rec.Code)
		}
	})
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(10, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Errorf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("request 4 should be rate limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("a different client should have its own burst")
	}
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()

	r := gin.New()
	r.POST("/auth/login", RateLimit(rl), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if rec := doRequest(r, http.MethodPost, "/auth/login", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := doRequest(r, http.MethodPost, "/auth/login", "")
	assertErrorCode(t, rec, http.StatusTooManyRequests, "RATE_LIMITED")
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) { _ = c.Error(apperrors.ErrEntryNotFound) })
	r.GET("/raw", func(c *gin.Context) { _ = c.Error(errors.New("db exploded")) })

	assertErrorCode(t, doRequest(r, http.MethodGet, "/app", ""), http.StatusNotFound, "ENTRY_NOT_FOUND")

	rec := doRequest(r, http.MethodGet, "/raw", "")
	assertErrorCode(t, rec, http.StatusInternalServerError, "INTERNAL_ERROR")
	if strings.Contains(rec.Body.String(), "db exploded") {
		t.Errorf("internal details leaked: %s", rec.Body.String())
	}
}

func TestRequestLogging_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := doRequest(r, http.MethodGet, "/ping", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	req.Header.Set("X-Request-ID", "0190a6e0-0000-7000-8000-000000000000")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "0190a6e0-0000-7000-8000-000000000000" {
		t.Errorf("expected incoming request ID to be kept, got %s", got)
	}
}
