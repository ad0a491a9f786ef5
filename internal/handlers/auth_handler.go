package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "duobudget/internal/errors"
	"duobudget/internal/logger"
	"duobudget/internal/middleware"
	"duobudget/internal/models"
	"duobudget/internal/notify"
	"duobudget/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService  services.UserServicer
	issuer       *middleware.TokenIssuer
	mailer       *notify.Mailer
	auditService services.AuditServicer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, issuer *middleware.TokenIssuer, mailer *notify.Mailer, auditService services.AuditServicer) *AuthHandler {
	return &AuthHandler{userService: userService, issuer: issuer, mailer: mailer, auditService: auditService}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	FullName string `json:"full_name" binding:"max=100"`
}

// LoginRequest accepts either an email or a username in Login.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the refresh token request payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// SetPasswordRequest completes a magic link or a password reset.
type SetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// ForgotPasswordRequest asks for a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *models.User `json:"user"`
}

// Register handles user registration
// @Summary     Register a new user
// @Description Register an adult household member with email, username and password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} models.User "User registered"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email or username taken"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.CreateUser(req.Email, req.Username, req.Password, req.FullName, models.RoleUser)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "REGISTER", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate with email or username and get an access and refresh token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} TokenResponse "User authenticated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     403 {object} ErrorResponse "Password not set"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.AttemptLogin(req.Login, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.respondWithTokens(c, user)
}

// Refresh rotates a refresh token into a new token pair.
// @Summary     Refresh tokens
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest true "Refresh token"
// @Success     200 {object} TokenResponse "New token pair"
// @Failure     401 {object} ErrorResponse "Invalid or reused token"
// @Router      /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	claims, err := h.issuer.Validate(req.RefreshToken, middleware.TokenTypeRefresh)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	stored, err := h.userService.GetRefreshTokenHash(claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}
	presented := middleware.HashToken(req.RefreshToken)
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	user, err := h.userService.GetUserByID(claims.UserID)
	if err != nil || !user.IsActive {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	h.respondWithTokens(c, user)
}

func (h *AuthHandler) respondWithTokens(c *gin.Context, user *models.User) {
	access, err := h.issuer.IssueAccessToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	refresh, err := h.issuer.IssueRefreshToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	if err := h.userService.StoreRefreshTokenHash(user.ID, middleware.HashToken(refresh)); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(h.issuer.AccessTTL().Seconds()),
		User:         user,
	})
}

// Me returns the authenticated user's profile
// @Summary     Current user
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.User "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SetPassword sets a password from a magic link or reset token. A token
// stops working once the password it was issued against changes.
// @Summary     Set password from a link
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body SetPasswordRequest true "Link token and new password"
// @Success     200 {object} TokenResponse "Password set, user signed in"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid, expired or used token"
// @Router      /auth/set-password [post]
func (h *AuthHandler) SetPassword(c *gin.Context) {
	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	claims, err := h.issuer.Validate(req.Token, middleware.TokenTypeMagicLink)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	user, err := h.userService.GetUserByID(claims.UserID)
	if err != nil || !user.IsActive || claims.Fingerprint != middleware.PasswordFingerprint(user) {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	user, err = h.userService.SetPassword(user.ID, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "SET_PASSWORD", "user", user.ID, c.ClientIP(), nil)

	h.respondWithTokens(c, user)
}

// ForgotPassword publishes a reset mail. The response is the same whether
// or not the address is known.
// @Summary     Request a password reset
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ForgotPasswordRequest true "Account email"
// @Success     202 {object} map[string]string "Reset mail queued if the account exists"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	accepted := gin.H{"message": "If the account exists, a reset link has been sent"}

	user, err := h.userService.GetUserByEmail(req.Email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, accepted)
		return
	}

	token, expiresAt, err := h.issuer.IssueMagicLinkToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	if err := h.mailer.SendPasswordReset(c.Request.Context(), user.Email, user.FullName, token, expiresAt); err != nil {
		logger.Get().Errorw("failed to queue password reset", "user_id", user.ID, "error", err)
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	h.auditService.Log(user.ID, "REQUEST_PASSWORD_RESET", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusAccepted, accepted)
}
