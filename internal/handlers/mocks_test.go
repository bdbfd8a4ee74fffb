package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"framex/internal/config"
	"framex/internal/export"
	"framex/internal/middleware"
	"framex/internal/models"
	"framex/internal/pagination"
	"framex/internal/services"
	"framex/internal/validator"
)

// --- mock services ---

var (
	_ services.UserServicer       = (*mockUserService)(nil)
	_ services.MasterDataServicer = (*mockMasterDataService)(nil)
	_ services.EntryServicer      = (*mockEntryService)(nil)
	_ services.CompanyServicer    = (*mockCompanyService)(nil)
	_ services.AnalyticsServicer  = (*mockAnalyticsService)(nil)
	_ services.AuditServicer      = (*mockAuditService)(nil)
)

type mockUserService struct {
	createUserFn     func(draft services.UserDraft) (*models.User, string, error)
	signUpFn         func(name, email, password string) (*models.User, error)
	setupFn          func(admin services.UserDraft, password string, company services.CompanyDraft) (*services.SetupResult, error)
	updateUserFn     func(id string, draft services.UserDraft) (*models.User, error)
	deleteUserFn     func(id string) error
	getUserByIDFn    func(id string) (*models.User, error)
	getUserByEmailFn func(email string) (*models.User, error)
	listUsersFn      func() ([]models.User, error)
	attemptLoginFn   func(email, password string) (*models.User, error)
	changePasswordFn func(id, current, next string) (*models.User, error)
	resetPasswordFn  func(email, code, next string) (string, error)
}

func (m *mockUserService) CreateUser(draft services.UserDraft) (*models.User, string, error) {
	if m.createUserFn != nil {
		return m.createUserFn(draft)
	}
	return &models.User{}, "", nil
}

func (m *mockUserService) SignUp(name, email, password string) (*models.User, error) {
	if m.signUpFn != nil {
		return m.signUpFn(name, email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) Setup(admin services.UserDraft, password string, company services.CompanyDraft) (*services.SetupResult, error) {
	if m.setupFn != nil {
		return m.setupFn(admin, password, company)
	}
	return &services.SetupResult{User: &models.User{}, Company: &models.CompanyInfo{}}, nil
}

func (m *mockUserService) UpdateUser(id string, draft services.UserDraft) (*models.User, error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(id, draft)
	}
	return &models.User{}, nil
}

func (m *mockUserService) DeleteUser(id string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(id)
	}
	return nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{}, nil
}

func (m *mockUserService) ListUsers() ([]models.User, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn()
	}
	return []models.User{}, nil
}

func (m *mockUserService) CountUsers() (int64, error) { return 0, nil }

func (m *mockUserService) Authenticate(_, _ string) (*models.User, error) {
	return &models.User{}, nil
}

func (m *mockUserService) AttemptLogin(email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) ChangePassword(id, current, next string) (*models.User, error) {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(id, current, next)
	}
	return &models.User{}, nil
}

func (m *mockUserService) ResetPassword(email, code, next string) (string, error) {
	if m.resetPasswordFn != nil {
		return m.resetPasswordFn(email, code, next)
	}
	return "", nil
}

type mockMasterDataService struct {
	listFn   func(typ models.MasterDataType) ([]models.MasterData, error)
	createFn func(typ models.MasterDataType, name string) (*models.MasterData, error)
	updateFn func(typ models.MasterDataType, id, name string) (*models.MasterData, error)
	deleteFn func(typ models.MasterDataType, id string) error
}

func (m *mockMasterDataService) ListMasterData(typ models.MasterDataType) ([]models.MasterData, error) {
	if m.listFn != nil {
		return m.listFn(typ)
	}
	return []models.MasterData{}, nil
}

func (m *mockMasterDataService) ListAllMasterData() (map[models.MasterDataType][]models.MasterData, error) {
	return map[models.MasterDataType][]models.MasterData{}, nil
}

func (m *mockMasterDataService) CreateMasterData(typ models.MasterDataType, name string) (*models.MasterData, error) {
	if m.createFn != nil {
		return m.createFn(typ, name)
	}
	return &models.MasterData{Type: typ, Name: name}, nil
}

func (m *mockMasterDataService) UpdateMasterData(typ models.MasterDataType, id, name string) (*models.MasterData, error) {
	if m.updateFn != nil {
		return m.updateFn(typ, id, name)
	}
	return &models.MasterData{Base: models.Base{ID: id}, Type: typ, Name: name}, nil
}

func (m *mockMasterDataService) DeleteMasterData(typ models.MasterDataType, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(typ, id)
	}
	return nil
}

func (m *mockMasterDataService) EnsureParty(_ *gorm.DB, name string) (*models.MasterData, bool, error) {
	return &models.MasterData{Type: models.MasterDataParty, Name: name}, false, nil
}

type mockEntryService struct {
	createFn      func(draft services.EntryDraft, createdBy string) (*models.Entry, error)
	updateFn      func(user *models.User, id string, draft services.EntryDraft) (*models.Entry, error)
	deleteFn      func(user *models.User, id string) error
	getFn         func(user *models.User, id string) (*models.Entry, error)
	listVisibleFn func(user *models.User, page pagination.PageRequest, filter services.EntryFilter) (*pagination.PageResponse[models.Entry], error)
}

func (m *mockEntryService) CreateEntry(draft services.EntryDraft, createdBy string) (*models.Entry, error) {
	if m.createFn != nil {
		return m.createFn(draft, createdBy)
	}
	return &models.Entry{}, nil
}

func (m *mockEntryService) UpdateEntry(user *models.User, id string, draft services.EntryDraft) (*models.Entry, error) {
	if m.updateFn != nil {
		return m.updateFn(user, id, draft)
	}
	return &models.Entry{}, nil
}

func (m *mockEntryService) DeleteEntry(user *models.User, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(user, id)
	}
	return nil
}

func (m *mockEntryService) GetEntryByID(user *models.User, id string) (*models.Entry, error) {
	if m.getFn != nil {
		return m.getFn(user, id)
	}
	return &models.Entry{}, nil
}

func (m *mockEntryService) VisibleTo(_ *models.User) ([]models.Entry, error) {
	return []models.Entry{}, nil
}

func (m *mockEntryService) ListVisible(user *models.User, page pagination.PageRequest, filter services.EntryFilter) (*pagination.PageResponse[models.Entry], error) {
	if m.listVisibleFn != nil {
		return m.listVisibleFn(user, page, filter)
	}
	resp := pagination.NewPageResponse[models.Entry](nil, 1, 20, 0)
	return &resp, nil
}

type mockCompanyService struct {
	setupRequiredFn func() (bool, error)
	getFn           func() (*models.CompanyInfo, error)
	updateFn        func(draft services.CompanyDraft) (*models.CompanyInfo, error)
	setLogoFn       func(ctx context.Context, data []byte) (*models.CompanyInfo, error)
	logoURLFn       func(ctx context.Context) (string, error)
}

func (m *mockCompanyService) IsSetupRequired() (bool, error) {
	if m.setupRequiredFn != nil {
		return m.setupRequiredFn()
	}
	return false, nil
}

func (m *mockCompanyService) GetCompanyInfo() (*models.CompanyInfo, error) {
	if m.getFn != nil {
		return m.getFn()
	}
	return &models.CompanyInfo{ID: models.CompanyInfoID, Name: "Acme"}, nil
}

func (m *mockCompanyService) UpdateCompanyInfo(draft services.CompanyDraft) (*models.CompanyInfo, error) {
	if m.updateFn != nil {
		return m.updateFn(draft)
	}
	return &models.CompanyInfo{ID: models.CompanyInfoID, Name: draft.Name}, nil
}

func (m *mockCompanyService) SetLogo(ctx context.Context, data []byte) (*models.CompanyInfo, error) {
	if m.setLogoFn != nil {
		return m.setLogoFn(ctx, data)
	}
	return &models.CompanyInfo{ID: models.CompanyInfoID}, nil
}

func (m *mockCompanyService) LogoURL(ctx context.Context) (string, error) {
	if m.logoURLFn != nil {
		return m.logoURLFn(ctx)
	}
	return "", nil
}

type mockAnalyticsService struct {
	summaryFn   func(user *models.User) (*services.Summary, error)
	exportFn    func(user *models.User, format export.Format) ([]byte, error)
	bootstrapFn func(ctx context.Context, user *models.User) (*services.Bootstrap, error)
}

func (m *mockAnalyticsService) Summary(user *models.User) (*services.Summary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(user)
	}
	return &services.Summary{}, nil
}

func (m *mockAnalyticsService) Export(user *models.User, format export.Format) ([]byte, error) {
	if m.exportFn != nil {
		return m.exportFn(user, format)
	}
	return []byte{}, nil
}

func (m *mockAnalyticsService) Bootstrap(ctx context.Context, user *models.User) (*services.Bootstrap, error) {
	if m.bootstrapFn != nil {
		return m.bootstrapFn(ctx, user)
	}
	return &services.Bootstrap{User: user}, nil
}

type auditCall struct {
	userID, action, resourceType, resourceID string
}

type mockAuditService struct {
	mu    sync.Mutex
	calls []auditCall
}

func (m *mockAuditService) Log(userID, action, resourceType, resourceID, _ string, _ map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, auditCall{userID, action, resourceType, resourceID})
}

// --- test helpers ---

const (
	adminID  = "0190a6e0-0000-7000-8000-00000000000a"
	memberID = "0190a6e0-0000-7000-8000-00000000000b"
	entryID  = "0190a6e0-0000-7000-8000-0000000000e1"
)

var (
	testAdmin  = &models.User{Base: models.Base{ID: adminID}, Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin}
	testMember = &models.User{Base: models.Base{ID: memberID}, Name: "Member", Email: "member@example.com", Role: models.RoleUser}
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
	config.Set(&config.Config{JWTSecret: "handler-test-secret", JWTExpirationDur: time.Hour})
}

func injectUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetCurrentUser(c, user)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
