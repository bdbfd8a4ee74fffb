package server

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"framex/internal/config"
	"framex/internal/logger"
	"framex/internal/middleware"
	"framex/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

func testConfig(rule string) *config.Config {
	cfg := &config.Config{
		JWTSecret:          "server-test-secret",
		JWTExpirationDur:   time.Hour,
		VisibilityRule:     rule,
		ReportTimezone:     "UTC",
		LoginRatePerMinute: 60,
		LoginBurst:         50,
		S3:                 config.S3Config{URLExpiry: time.Hour},
	}
	config.Set(cfg)
	return cfg
}

// testApp holds the full application stack for integration tests.
type testApp struct {
	t      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
}

func setupApp(t *testing.T, rule string, limiter *middleware.RateLimiter) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	cfg := testConfig(rule)
	svc, err := NewServices(db, nil, cfg)
	if err != nil {
		t.Fatalf("failed to build services: %v", err)
	}
	router := NewRouter(svc, Options{Location: cfg.ReportLocation(), LoginLimiter: limiter})
	return &testApp{t: t, DB: db, Router: router}
}

func (a *testApp) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1"+path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

// expect asserts the status and decodes the JSON body.
func (a *testApp) expect(rec *httptest.ResponseRecorder, status int) map[string]interface{} {
	a.t.Helper()
	if rec.Code != status {
		a.t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	result := map[string]interface{}{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			a.t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
		}
	}
	return result
}

func (a *testApp) expectError(rec *httptest.ResponseRecorder, status int, code string) {
	a.t.Helper()
	result := a.expect(rec, status)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok || errObj["code"] != code {
		a.t.Fatalf("expected error code %s, got %v", code, result)
	}
}

func (a *testApp) setup() (token, recoveryCode string) {
	a.t.Helper()
	result := a.expect(a.do("POST", "/setup", "", `{"name":"Owner","email":"owner@example.com","password":"owner-pass",
		"company":{"name":"Acme Ltd","tax_country":"IN"}}`), http.StatusCreated)
	return result["token"].(string), result["recovery_code"].(string)
}

func (a *testApp) createMaster(token, typ, name string) string {
	a.t.Helper()
	result := a.expect(a.do("POST", "/master-data/"+typ, token, `{"name":"`+name+`"}`), http.StatusCreated)
	return result["item"].(map[string]interface{})["id"].(string)
}

// provisionUser creates a user as admin and completes the forced password change.
func (a *testApp) provisionUser(adminToken, email string) (id, token string) {
	a.t.Helper()
	created := a.expect(a.do("POST", "/users", adminToken, `{"name":"Member","email":"`+email+`"}`), http.StatusCreated)
	id = created["user"].(map[string]interface{})["id"].(string)
	temp := created["temporary_password"].(string)

	login := a.expect(a.do("POST", "/auth/login", "", `{"email":"`+email+`","password":"`+temp+`"}`), http.StatusOK)
	token = login["token"].(string)

	changed := a.expect(a.do("PUT", "/profile/password", token,
		`{"current_password":"`+temp+`","new_password":"member-pass"}`), http.StatusOK)
	return id, changed["token"].(string)
}

func entryJSON(txType, party, amount, paidBy string) string {
	body := `{"transaction_type":"` + txType + `","party":"` + party + `","amount":"` + amount +
		`","cost_center":"HQ","project_code":"P-1","expenses_category":"Travel"`
	if paidBy != "" {
		body += `,"paid_by":"` + paidBy + `"`
	}
	return body + "}"
}

func TestHealthAndSetupStatus(t *testing.T) {
	app := setupApp(t, config.VisibilityPaidBy, nil)

	req := httptest.NewRequest("GET", "/api/health", http.NoBody)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	app.expectError(app.do("GET", "/no-such-route", "", ""), http.StatusNotFound, "NOT_FOUND")

	status := app.expect(app.do("GET", "/setup/status", "", ""), http.StatusOK)
	if status["setup_required"] != true {
		t.Fatal("expected setup to be required")
	}
	app.expectError(app.do("GET", "/company", "", ""), http.StatusNotFound, "COMPANY_NOT_FOUND")

	app.setup()

	status = app.expect(app.do("GET", "/setup/status", "", ""), http.StatusOK)
	if status["setup_required"] != false {
		t.Fatal("expected setup to be complete")
	}
	company := app.expect(app.do("GET", "/company", "", ""), http.StatusOK)
	if company["logo_url"] != "" {
		t.Errorf("expected empty logo_url without storage, got %v", company["logo_url"])
	}
	app.expectError(app.do("POST", "/setup", "", `{"name":"X","email":"x@example.com","password":"secret1","company":{"name":"Y"}}`),
		http.StatusConflict, "SETUP_ALREADY_COMPLETED")
}

func TestLedgerFlow(t *testing.T) {
	app := setupApp(t, config.VisibilityPaidBy, nil)
	adminToken, _ := app.setup()

	costCenterID := app.createMaster(adminToken, "cost_center", "HQ")
	app.createMaster(adminToken, "project_code", "P-1")
	app.createMaster(adminToken, "expenses_category", "Travel")

	memberID, memberToken := app.provisionUser(adminToken, "member@example.com")
	profile := app.expect(app.do("GET", "/profile", memberToken, ""), http.StatusOK)
	adminProfile := app.expect(app.do("GET", "/profile", adminToken, ""), http.StatusOK)
	adminID := adminProfile["user"].(map[string]interface{})["id"].(string)
	if profile["user"].(map[string]interface{})["force_password_change"] != false {
		t.Fatal("expected password change flag to be cleared")
	}

	t.Run("member_entry_registers_party", func(t *testing.T) {
		app.expect(app.do("POST", "/entries", memberToken, entryJSON("payment", "Skyways", "120.00", "")), http.StatusCreated)

		parties := app.expect(app.do("GET", "/master-data/party", memberToken, ""), http.StatusOK)
		items := parties["items"].([]interface{})
		if len(items) != 1 || items[0].(map[string]interface{})["name"] != "Skyways" {
			t.Fatalf("expected Skyways to be registered, got %v", items)
		}
	})

	t.Run("unknown_cost_center_rejected", func(t *testing.T) {
		body := strings.Replace(entryJSON("payment", "Skyways", "5", ""), `"HQ"`, `"Branch"`, 1)
		app.expectError(app.do("POST", "/entries", memberToken, body), http.StatusBadRequest, "INVALID_INPUT")
	})

	app.expect(app.do("POST", "/entries", adminToken, entryJSON("receipt", "Client Co", "500", "")), http.StatusCreated)

	t.Run("visibility", func(t *testing.T) {
		memberList := app.expect(app.do("GET", "/entries", memberToken, ""), http.StatusOK)
		if memberList["total_items"] != float64(1) {
			t.Errorf("member should see 1 entry, got %v", memberList["total_items"])
		}
		adminList := app.expect(app.do("GET", "/entries", adminToken, ""), http.StatusOK)
		if adminList["total_items"] != float64(2) {
			t.Errorf("admin should see 2 entries, got %v", adminList["total_items"])
		}

		adminEntryID := adminList["data"].([]interface{})[0].(map[string]interface{})["id"].(string)
		app.expectError(app.do("GET", "/entries/"+adminEntryID, memberToken, ""), http.StatusNotFound, "ENTRY_NOT_FOUND")
		app.expectError(app.do("DELETE", "/entries/"+adminEntryID, memberToken, ""), http.StatusNotFound, "ENTRY_NOT_FOUND")
	})

	t.Run("in_use_deletes_refused", func(t *testing.T) {
		app.expectError(app.do("DELETE", "/master-data/cost_center/"+costCenterID, adminToken, ""), http.StatusConflict, "MASTER_DATA_IN_USE")
		app.expectError(app.do("DELETE", "/users/"+memberID, adminToken, ""), http.StatusConflict, "USER_IN_USE")
	})

	t.Run("admin_only_routes", func(t *testing.T) {
		app.expectError(app.do("GET", "/analytics", memberToken, ""), http.StatusForbidden, "FORBIDDEN")
		app.expectError(app.do("GET", "/users", memberToken, ""), http.StatusForbidden, "FORBIDDEN")
		app.expectError(app.do("POST", "/master-data/cost_center", memberToken, `{"name":"Branch"}`), http.StatusForbidden, "FORBIDDEN")
	})

	t.Run("analytics", func(t *testing.T) {
		summary := app.expect(app.do("GET", "/analytics", adminToken, ""), http.StatusOK)
		if summary["total_payments"] != "120" || summary["total_receipts"] != "500" {
			t.Errorf("unexpected totals %v / %v", summary["total_payments"], summary["total_receipts"])
		}
	})

	t.Run("export", func(t *testing.T) {
		rec := app.do("GET", "/entries/export", adminToken, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		records, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
		if err != nil {
			t.Fatalf("invalid csv: %v", err)
		}
		if len(records) != 3 || records[0][1] != "User" {
			t.Fatalf("unexpected export %v", records)
		}
		if records[1][1] != "Owner" || records[1][5] != "500.00" {
			t.Errorf("expected newest admin receipt first, got %v", records[1])
		}

		rec = app.do("GET", "/entries/export", memberToken, "")
		records, _ = csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
		if len(records) != 2 || len(records[0]) != 9 {
			t.Errorf("member export should have 1 row and no User column, got %v", records)
		}
	})

	t.Run("bootstrap", func(t *testing.T) {
		boot := app.expect(app.do("GET", "/bootstrap", memberToken, ""), http.StatusOK)
		if users := boot["users"].([]interface{}); len(users) != 1 {
			t.Errorf("member bootstrap should only contain the member, got %d users", len(users))
		}
		if boot["company"].(map[string]interface{})["name"] != "Acme Ltd" {
			t.Errorf("unexpected company %v", boot["company"])
		}
	})

	t.Run("paid_by_another_user", func(t *testing.T) {
		app.expect(app.do("POST", "/entries", memberToken, entryJSON("payment", "skyways", "10", adminID)), http.StatusCreated)

		parties := app.expect(app.do("GET", "/master-data/party", memberToken, ""), http.StatusOK)
		if n := len(parties["items"].([]interface{})); n != 2 {
			t.Errorf("expected case-insensitive party reuse (Skyways, Client Co), got %d parties", n)
		}
		memberList := app.expect(app.do("GET", "/entries", memberToken, ""), http.StatusOK)
		if memberList["total_items"] != float64(1) {
			t.Errorf("entries paid by others stay hidden under paid_by visibility, got %v", memberList["total_items"])
		}
	})
}

func TestVisibilityIncludesCreatedBy(t *testing.T) {
	app := setupApp(t, config.VisibilityPaidByOrCreated, nil)
	adminToken, _ := app.setup()
	app.createMaster(adminToken, "cost_center", "HQ")
	app.createMaster(adminToken, "project_code", "P-1")
	app.createMaster(adminToken, "expenses_category", "Travel")
	_, memberToken := app.provisionUser(adminToken, "member@example.com")

	adminID := app.expect(app.do("GET", "/profile", adminToken, ""), http.StatusOK)["user"].(map[string]interface{})["id"].(string)
	app.expect(app.do("POST", "/entries", memberToken, entryJSON("payment", "Cab", "15", adminID)), http.StatusCreated)

	list := app.expect(app.do("GET", "/entries", memberToken, ""), http.StatusOK)
	if list["total_items"] != float64(1) {
		t.Errorf("member should see the entry they recorded, got %v", list["total_items"])
	}
}

func TestForcedPasswordChange(t *testing.T) {
	app := setupApp(t, config.VisibilityPaidBy, nil)
	adminToken, _ := app.setup()

	created := app.expect(app.do("POST", "/users", adminToken, `{"name":"New","email":"new@example.com"}`), http.StatusCreated)
	temp := created["temporary_password"].(string)
	if len(temp) != 16 {
		t.Errorf("expected a 16 character temporary password, got %d", len(temp))
	}

	login := app.expect(app.do("POST", "/auth/login", "", `{"email":"NEW@example.com","password":"`+temp+`"}`), http.StatusOK)
	token := login["token"].(string)

	app.expectError(app.do("GET", "/entries", token, ""), http.StatusForbidden, "PASSWORD_CHANGE_REQUIRED")
	app.expect(app.do("GET", "/profile", token, ""), http.StatusOK)
	app.expectError(app.do("PUT", "/profile/password", token, `{"current_password":"wrong","new_password":"member-pass"}`),
		http.StatusUnauthorized, "INVALID_CREDENTIALS")
	app.expect(app.do("PUT", "/profile/password", token, `{"current_password":"`+temp+`","new_password":"member-pass"}`), http.StatusOK)
	app.expect(app.do("GET", "/entries", token, ""), http.StatusOK)
}

func TestRecoveryFlow(t *testing.T) {
	app := setupApp(t, config.VisibilityPaidBy, nil)
	_, code := app.setup()

	app.expectError(app.do("POST", "/auth/recover", "", `{"email":"owner@example.com","recovery_code":"WRONG-WRONG-WRONG-WRONG","new_password":"new-owner-pass"}`),
		http.StatusUnauthorized, "INVALID_RECOVERY_CODE")

	result := app.expect(app.do("POST", "/auth/recover", "",
		`{"email":"owner@example.com","recovery_code":"`+strings.ToLower(code)+`","new_password":"new-owner-pass"}`), http.StatusOK)
	next := result["recovery_code"].(string)
	if next == "" || next == code {
		t.Errorf("expected a rotated recovery code, got %q", next)
	}

	app.expectError(app.do("POST", "/auth/login", "", `{"email":"owner@example.com","password":"owner-pass"}`), http.StatusUnauthorized, "INVALID_CREDENTIALS")
	app.expect(app.do("POST", "/auth/login", "", `{"email":"owner@example.com","password":"new-owner-pass"}`), http.StatusOK)
	app.expectError(app.do("POST", "/auth/recover", "", `{"email":"owner@example.com","recovery_code":"`+code+`","new_password":"again-pass"}`),
		http.StatusUnauthorized, "INVALID_RECOVERY_CODE")
}

func TestLoginRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 2)
	defer limiter.Stop()
	app := setupApp(t, config.VisibilityPaidBy, limiter)

	body := `{"email":"nobody@example.com","password":"whatever"}`
	for i := 0; i < 2; i++ {
		app.expectError(app.do("POST", "/auth/login", "", body), http.StatusUnauthorized, "INVALID_CREDENTIALS")
	}
	rec := app.do("POST", "/auth/login", "", body)
	app.expectError(rec, http.StatusTooManyRequests, "RATE_LIMITED")
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// Sign-up is not throttled.
	app.expect(app.do("POST", "/auth/signup", "", `{"name":"Solo","email":"solo@example.com","password":"secret1"}`), http.StatusCreated)
}
