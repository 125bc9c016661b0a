package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/caching/sessions"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/security"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/tenant"
	"github.com/LedgerLine/ledgerline-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandlers contains the authentication HTTP handlers
type AuthHandlers struct {
	registry  *tenant.Registry
	sessions  *sessions.Store
	jwtSecret string
	tokenTTL  time.Duration
	logger    *logging.ChanneledLogger
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(registry *tenant.Registry, sessionStore *sessions.Store, jwtSecret string, logger *logging.ChanneledLogger) *AuthHandlers {
	return &AuthHandlers{
		registry:  registry,
		sessions:  sessionStore,
		jwtSecret: jwtSecret,
		tokenTTL:  24 * time.Hour,
		logger:    logger,
	}
}

// LoginRequest is the body for POST /api/v1/auth/login.
type LoginRequest struct {
	Identity string `json:"identity" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// PostLogin handles POST /api/v1/auth/login
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identity and password are required"})
		return
	}

	var username, passwordHash string
	err := h.registry.DB().QueryRowContext(c.Request.Context(),
		`SELECT username, password_hash FROM users
		 WHERE (LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)) AND is_active = 1`,
		req.Identity, req.Identity).Scan(&username, &passwordHash)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		h.logger.Auth().Error("Login lookup failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
		h.logger.Auth().Warn("Failed login attempt", "identity", req.Identity)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := security.GenerateIdentityToken(username, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.logger.Auth().Error("Token generation failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	// The session was minted unauthenticated; rebind it to the identity
	// so the next request resolves the right company.
	if session, ok := middleware.GetSession(c); ok {
		session.SetIdentity(username)
		session.ClearBinding()
	}

	h.logger.Auth().Info("Login succeeded", "identity", username)
	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"identity":  username,
		"expiresIn": int(h.tokenTTL.Seconds()),
	})
}

// PostLogout handles POST /api/v1/auth/logout
func (h *AuthHandlers) PostLogout(c *gin.Context) {
	if session, ok := middleware.GetSession(c); ok {
		h.sessions.Delete(session.ID)
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}
