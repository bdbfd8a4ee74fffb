package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "framex/internal/errors"
	"framex/internal/middleware"
	"framex/internal/services"
)

// SetupHandler handles first-run setup.
type SetupHandler struct {
	userService    services.UserServicer
	companyService services.CompanyServicer
	auditService   services.AuditServicer
}

// NewSetupHandler creates a new SetupHandler
func NewSetupHandler(userService services.UserServicer, companyService services.CompanyServicer, auditService services.AuditServicer) *SetupHandler {
	return &SetupHandler{userService: userService, companyService: companyService, auditService: auditService}
}

// CompanyRequest carries the editable company fields.
type CompanyRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Address     string `json:"address" binding:"max=500"`
	TaxCountry  string `json:"tax_country" binding:"max=100"`
	TaxIDType   string `json:"tax_id_type" binding:"max=50"`
	TaxIDNumber string `json:"tax_id_number" binding:"max=100"`
}

func (r CompanyRequest) draft() services.CompanyDraft {
	return services.CompanyDraft{
		Name:        r.Name,
		Address:     r.Address,
		TaxCountry:  r.TaxCountry,
		TaxIDType:   r.TaxIDType,
		TaxIDNumber: r.TaxIDNumber,
	}
}

// SetupRequest creates the first admin and the company record.
type SetupRequest struct {
	Name     string         `json:"name" binding:"required,max=100"`
	Email    string         `json:"email" binding:"required,email,max=255"`
	Mobile   string         `json:"mobile" binding:"max=30"`
	Password string         `json:"password" binding:"required,min=6,max=72"`
	Company  CompanyRequest `json:"company"`
}

// SetupStatusResponse reports whether setup is still pending.
type SetupStatusResponse struct {
	SetupRequired bool `json:"setup_required"`
}

// Status reports whether setup still has to run
// @Summary     Setup status
// @Tags        setup
// @Produce     json
// @Success     200 {object} SetupStatusResponse
// @Router      /setup/status [get]
func (h *SetupHandler) Status(c *gin.Context) {
	required, err := h.companyService.IsSetupRequired()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, SetupStatusResponse{SetupRequired: required})
}

// Setup creates the first admin and company
// @Summary     Run initial setup
// @Description Only allowed once. The recovery code in the response is shown only this time.
// @Tags        setup
// @Accept      json
// @Produce     json
// @Param       request body SetupRequest true "Admin and company details"
// @Success     201 {object} map[string]interface{}
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Setup already completed"
// @Router      /setup [post]
func (h *SetupHandler) Setup(c *gin.Context) {
	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.userService.Setup(services.UserDraft{
		Name:   req.Name,
		Email:  req.Email,
		Mobile: req.Mobile,
	}, req.Password, req.Company.draft())
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateAccessToken(result.User)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	h.auditService.Log(result.User.ID, services.AuditActionSetup, "company", result.User.ID, c.ClientIP(),
		map[string]interface{}{"company": result.Company.Name})

	c.JSON(http.StatusCreated, gin.H{
		"token":         token,
		"user":          result.User,
		"company":       result.Company,
		"recovery_code": result.RecoveryCode,
	})
}
