package middleware

import (
	"strings"

	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/caching/sessions"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/security"
	appconfig "github.com/LedgerLine/ledgerline-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware attaches a session to every request and extracts the
// caller's identity from a bearer token when present. Authentication here
// is failure-open: a missing or invalid token leaves the identity empty
// and the request proceeds as the default tenant.
func SessionMiddleware(store *sessions.Store, jwtSecret string, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := ""
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token := strings.TrimPrefix(auth, "Bearer ")
			sub, err := security.ValidateIdentityToken(token, jwtSecret)
			if err != nil {
				logger.Auth().Warn("Invalid bearer token", "error", err.Error(), "path", c.Request.URL.Path)
			} else {
				identity = sub
			}
		}

		sessionID := c.GetHeader(appconfig.SessionHeaderName)
		if sessionID == "" {
			if cookie, err := c.Cookie(appconfig.SessionCookieName); err == nil {
				sessionID = cookie
			}
		}

		session := store.GetOrCreate(sessionID, identity)
		if session.ID != sessionID {
			c.SetCookie(appconfig.SessionCookieName, session.ID, int(appconfig.SessionTTL.Seconds()), "/", "", false, true)
		}
		c.Header(appconfig.SessionHeaderName, session.ID)

		c.Set("session", session)
		c.Set("identity", identity)
		c.Next()
	}
}

// GetSession retrieves the session from gin context.
func GetSession(c *gin.Context) (*sessions.Session, bool) {
	v, exists := c.Get("session")
	if !exists {
		return nil, false
	}
	s, ok := v.(*sessions.Session)
	return s, ok
}
