package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"framex/internal/models"
	"framex/internal/services"
)

// UserHandler handles admin management of the user directory.
type UserHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService services.UserServicer, auditService services.AuditServicer) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// UserRequest represents the editable fields of a user
type UserRequest struct {
	Name   string      `json:"name" binding:"required,max=100"`
	Email  string      `json:"email" binding:"required,email,max=255"`
	Mobile string      `json:"mobile" binding:"max=30"`
	Role   models.Role `json:"role" binding:"omitempty,role"`
}

func (r UserRequest) draft() services.UserDraft {
	return services.UserDraft{Name: r.Name, Email: r.Email, Mobile: r.Mobile, Role: r.Role}
}

// CreateUserResponse includes the temporary password, returned only once.
type CreateUserResponse struct {
	User              models.User `json:"user"`
	TemporaryPassword string      `json:"temporary_password"`
}

// ListUsers returns every user
// @Summary     List users
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]models.User
// @Failure     403 {object} ErrorResponse "Admin only"
// @Router      /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// CreateUser provisions a user with a temporary password
// @Summary     Create user
// @Description The user must change the temporary password at first login.
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UserRequest true "User details"
// @Success     201 {object} CreateUserResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate email"
// @Router      /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	admin, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, tempPassword, err := h.userService.CreateUser(req.draft())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(admin.ID, services.AuditActionCreate, "user", user.ID, c.ClientIP(),
		map[string]interface{}{"email": user.Email, "role": user.Role})

	c.JSON(http.StatusCreated, CreateUserResponse{User: *user, TemporaryPassword: tempPassword})
}

// UpdateUser replaces a user's profile fields
// @Summary     Update user
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string      true "User ID"
// @Param       request body UserRequest true "User details"
// @Success     200 {object} map[string]models.User
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     409 {object} ErrorResponse "Duplicate email"
// @Router      /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	admin, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.UpdateUser(id, req.draft())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(admin.ID, services.AuditActionUpdate, "user", user.ID, c.ClientIP(),
		map[string]interface{}{"email": user.Email, "role": user.Role})

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser removes a user that no entry is paid by
// @Summary     Delete user
// @Tags        users
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     204
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     409 {object} ErrorResponse "User referenced by entries"
// @Router      /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	admin, err := getCurrentUser(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.DeleteUser(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(admin.ID, services.AuditActionDelete, "user", id, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
