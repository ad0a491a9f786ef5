package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "duobudget/internal/errors"
	"duobudget/internal/models"
)

// Token types carried in the token_type claim.
const (
	TokenTypeAccess    = "access"
	TokenTypeRefresh   = "refresh"
	TokenTypeMagicLink = "magic_link"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
	ContextRole   = "userRole"
)

const tokenIssuer = "duobudget-api"

// JWTClaims represents the claims in the JWT
type JWTClaims struct {
	UserID    uint            `json:"user_id"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	TokenType string          `json:"token_type"`
	// Fingerprint ties a magic link to the password it was issued against,
	// so the link stops working once the password changes.
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the API's HS256 tokens.
type TokenIssuer struct {
	secret       []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	magicLinkTTL time.Duration
	now          func() time.Time
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(secret string, accessTTL, refreshTTL, magicLinkTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:       []byte(secret),
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		magicLinkTTL: magicLinkTTL,
		now:          time.Now,
	}
}

// AccessTTL is how long access tokens live.
func (i *TokenIssuer) AccessTTL() time.Duration { return i.accessTTL }

// IssueAccessToken signs a short-lived access token for user.
func (i *TokenIssuer) IssueAccessToken(user *models.User) (string, error) {
	token, _, err := i.issue(user, TokenTypeAccess, i.accessTTL, "")
	return token, err
}

// IssueRefreshToken signs a long-lived refresh token for user.
func (i *TokenIssuer) IssueRefreshToken(user *models.User) (string, error) {
	token, _, err := i.issue(user, TokenTypeRefresh, i.refreshTTL, "")
	return token, err
}

// IssueMagicLinkToken signs a one-shot token for setting a password and
// returns its expiry.
func (i *TokenIssuer) IssueMagicLinkToken(user *models.User) (string, time.Time, error) {
	return i.issue(user, TokenTypeMagicLink, i.magicLinkTTL, PasswordFingerprint(user))
}

func (i *TokenIssuer) issue(user *models.User, tokenType string, ttl time.Duration, fingerprint string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(ttl)
	claims := &JWTClaims{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role,
		TokenType:   tokenType,
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("%d", user.ID),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate parses a token and checks that it has the wanted type.
func (i *TokenIssuer) Validate(tokenString, tokenType string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("token is not a %s token", tokenType)
	}
	return claims, nil
}

// PasswordFingerprint is a short digest of the user's stored password hash.
func PasswordFingerprint(user *models.User) string {
	return HashToken(user.Password)[:16]
}

// HashToken returns the SHA-256 hex digest of a token string.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// AuthMiddleware verifies the bearer access token and puts the caller's
// ID, email and role in the context.
func AuthMiddleware(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}

		claims, err := issuer.Validate(parts[1], TokenTypeAccess)
		if err != nil {
			abortWithError(c, apperrors.ErrInvalidToken)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles. It must
// run after AuthMiddleware.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(ContextRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		abortWithError(c, apperrors.ErrForbidden)
	}
}

func abortWithError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
