package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "duobudget/internal/errors"
	"duobudget/internal/logger"
	"duobudget/internal/middleware"
	"duobudget/internal/models"
	"duobudget/internal/notify"
	"duobudget/internal/services"
)

// UserHandler handles household member management.
type UserHandler struct {
	userService  services.UserServicer
	issuer       *middleware.TokenIssuer
	mailer       *notify.Mailer
	auditService services.AuditServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer, issuer *middleware.TokenIssuer, mailer *notify.Mailer, auditService services.AuditServicer) *UserHandler {
	return &UserHandler{userService: userService, issuer: issuer, mailer: mailer, auditService: auditService}
}

// InviteUserRequest creates a member who sets their password from a mailed link.
type InviteUserRequest struct {
	Email         string           `json:"email" binding:"required,email,max=255"`
	Username      string           `json:"username" binding:"required,min=3,max=50"`
	FullName      string           `json:"full_name" binding:"max=100"`
	Role          models.UserRole  `json:"role" binding:"omitempty,user_role"`
	MonthlyBudget *decimal.Decimal `json:"monthly_budget"`
}

// UpdateUserRequest represents a partial profile update. Role and monthly
// budget can only be changed by an admin.
type UpdateUserRequest struct {
	Email              *string          `json:"email" binding:"omitempty,email,max=255"`
	Username           *string          `json:"username" binding:"omitempty,min=3,max=50"`
	FullName           *string          `json:"full_name" binding:"omitempty,max=100"`
	Role               *models.UserRole `json:"role" binding:"omitempty,user_role"`
	MonthlyBudget      *decimal.Decimal `json:"monthly_budget"`
	ClearMonthlyBudget bool             `json:"clear_monthly_budget"`
}

// ListUsers lists active members.
// @Summary     List users
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       role query string false "Filter by role (admin, user, child)"
// @Success     200 {array} models.User "Users"
// @Failure     400 {object} ErrorResponse "Invalid role"
// @Router      /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var role *models.UserRole
	if raw := c.Query("role"); raw != "" {
		r := models.UserRole(raw)
		if r != models.RoleAdmin && r != models.RoleUser && r != models.RoleChild {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid role"))
			return
		}
		role = &r
	}

	users, err := h.userService.ListUsers(role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetUser returns one member.
// @Summary     Get a user
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Success     200 {object} models.User "User"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// InviteUser creates a member without a password and queues a magic link.
// @Summary     Invite a user
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body InviteUserRequest true "New member"
// @Success     201 {object} models.User "User invited"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Admin only"
// @Failure     409 {object} ErrorResponse "Email or username taken"
// @Router      /users [post]
func (h *UserHandler) InviteUser(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req InviteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.InviteUser(req.Email, req.Username, req.FullName, req.Role, req.MonthlyBudget)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminID, "INVITE_USER", "user", user.ID, c.ClientIP(),
		map[string]interface{}{"email": user.Email, "role": user.Role})

	mailQueued := true
	token, expiresAt, err := h.issuer.IssueMagicLinkToken(user)
	if err == nil {
		err = h.mailer.SendMagicLink(c.Request.Context(), user.Email, user.FullName, token, expiresAt)
	}
	if err != nil {
		// The account exists either way; the admin can re-send later.
		logger.Get().Errorw("failed to queue magic link", "user_id", user.ID, "error", err)
		mailQueued = false
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "mail_queued": mailQueued})
}

// UpdateUser changes a profile. Members may edit themselves; admins anyone.
// @Summary     Update a user
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Param       request body UpdateUserRequest true "Fields to change"
// @Success     200 {object} models.User "Updated user"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	isAdmin := getUserRole(c) == models.RoleAdmin
	if callerID != id && !isAdmin {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrForbidden, "Not authorized to update this user"))
		return
	}
	if !isAdmin && (req.Role != nil || req.MonthlyBudget != nil || req.ClearMonthlyBudget) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrForbidden, "Only admins can change roles or budgets"))
		return
	}

	user, err := h.userService.UpdateUser(id, services.UserUpdate{
		Email:              req.Email,
		Username:           req.Username,
		FullName:           req.FullName,
		Role:               req.Role,
		MonthlyBudget:      req.MonthlyBudget,
		ClearMonthlyBudget: req.ClearMonthlyBudget,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(callerID, "UPDATE_USER", "user", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser deactivates a member.
// @Summary     Deactivate a user
// @Tags        users
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Success     204 "Deactivated"
// @Failure     400 {object} ErrorResponse "Cannot deactivate yourself"
// @Failure     403 {object} ErrorResponse "Admin only"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if id == callerID {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "You cannot deactivate your own account"))
		return
	}

	if err := h.userService.DeactivateUser(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(callerID, "DEACTIVATE_USER", "user", id, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
