package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "framex/internal/errors"
	"framex/internal/middleware"
	"framex/internal/models"
	"framex/internal/services"
)

// AuthHandler handles sign-up, login, password recovery and the profile.
type AuthHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, auditService services.AuditServicer) *AuthHandler {
	return &AuthHandler{userService: userService, auditService: auditService}
}

// SignUpRequest represents the self-service registration payload
type SignUpRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RecoverRequest resets a password with the recovery code issued at setup.
type RecoverRequest struct {
	Email        string `json:"email" binding:"required,email"`
	RecoveryCode string `json:"recovery_code" binding:"required"`
	NewPassword  string `json:"new_password" binding:"required,min=6,max=72"`
}

// ChangePasswordRequest represents a password change by the signed-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=72"`
}

// AuthResponse represents the authentication response with token
type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// RecoverResponse carries the replacement recovery code.
type RecoverResponse struct {
	RecoveryCode string `json:"recovery_code"`
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := middleware.GenerateAccessToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	c.JSON(status, gin.H{"token": token, "user": user})
}

// SignUp handles self-service registration
// @Summary     Sign up
// @Description Create an account. The very first account becomes an admin.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body SignUpRequest true "Registration data"
// @Success     201 {object} AuthResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate email"
// @Router      /auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.SignUp(req.Name, req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditActionCreate, "user", user.ID, c.ClientIP(),
		map[string]interface{}{"email": user.Email, "role": user.Role, "self_service": true})

	h.respondWithToken(c, http.StatusCreated, user)
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate with email and password. Repeated failures lock the account.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     423 {object} ErrorResponse "Account locked"
// @Failure     429 {object} ErrorResponse "Too many requests"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.AttemptLogin(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditActionLogin, "user", user.ID, c.ClientIP(), nil)

	h.respondWithToken(c, http.StatusOK, user)
}

// Recover handles password recovery
// @Summary     Recover account
// @Description Reset a password using a recovery code. A new recovery code replaces the old one.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RecoverRequest true "Recovery data"
// @Success     200 {object} RecoverResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid recovery code"
// @Router      /auth/recover [post]
func (h *AuthHandler) Recover(c *gin.Context) {
	var req RecoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	code, err := h.userService.ResetPassword(req.Email, req.RecoveryCode, req.NewPassword)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if user, lookupErr := h.userService.GetUserByEmail(req.Email); lookupErr == nil {
		h.auditService.Log(user.ID, services.AuditActionPasswordReset, "user", user.ID, c.ClientIP(), nil)
	}

	c.JSON(http.StatusOK, RecoverResponse{RecoveryCode: code})
}

// GetProfile returns the user's profile
// @Summary     Get user profile
// @Tags        profile
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]models.User
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangePassword replaces the signed-in user's password
// @Summary     Change password
// @Description Required before anything else when an admin provisioned the account.
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ChangePasswordRequest true "Passwords"
// @Success     200 {object} AuthResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Wrong current password"
// @Router      /profile/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	updated, err := h.userService.ChangePassword(user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditActionUpdate, "user", user.ID, c.ClientIP(),
		map[string]interface{}{"password_changed": true})

	h.respondWithToken(c, http.StatusOK, updated)
}
