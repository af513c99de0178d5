package httpserver

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smart-canteen/internal/domain"
	"smart-canteen/internal/session"
)

const sessionCtxKey = "canteen.session"

type cookieOptions struct {
	name   string
	ttl    time.Duration
	secure bool
}

func setSessionCookie(c *gin.Context, opts cookieOptions, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(opts.name, id, int(opts.ttl.Seconds()), "/", "", opts.secure, true)
}

func clearSessionCookie(c *gin.Context, opts cookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(opts.name, "", -1, "/", "", opts.secure, true)
}

// sessionMiddleware loads the session named by the cookie, or starts a fresh
// anonymous one. Fresh sessions are only persisted once something writes them.
func sessionMiddleware(store session.Store, opts cookieOptions, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *session.Session
		if id, err := c.Cookie(opts.name); err == nil && id != "" {
			loaded, err := store.Get(c.Request.Context(), id)
			switch {
			case err == nil:
				sess = loaded
			case errors.Is(err, domain.ErrNotFound):
			default:
				logger.Warn("load session", zap.Error(err))
			}
		}
		if sess == nil {
			sess = session.New()
			setSessionCookie(c, opts, sess.ID)
		}
		c.Set(sessionCtxKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionCtxKey); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return session.New()
}

func currentUser(c *gin.Context) domain.User {
	s := currentSession(c)
	return domain.User{ID: s.UserID, Username: s.Username, IsStaff: s.IsStaff}
}

func isAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

// requireLogin sends anonymous visitors to the login page, remembering where
// they were going. API calls get a 401 instead.
func requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ensureLogin(c) {
			return
		}
		c.Next()
	}
}

// requireStaff behaves like requireLogin and additionally rejects users
// who are not staff. The flag is read from the account on every request so
// promotions and demotions apply without a fresh login.
func requireStaff(h *handlers) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ensureLogin(c) {
			return
		}
		sess := currentSession(c)
		user, err := h.deps.Accounts.Get(c.Request.Context(), sess.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				err = domain.ErrPermissionDenied
			}
			h.renderError(c, err)
			c.Abort()
			return
		}
		if user.IsStaff != sess.IsStaff {
			sess.IsStaff = user.IsStaff
			h.saveSession(c, sess)
		}
		if !user.IsStaff {
			h.renderError(c, domain.ErrPermissionDenied)
			c.Abort()
			return
		}
		c.Next()
	}
}

func ensureLogin(c *gin.Context) bool {
	if currentSession(c).Authenticated() {
		return true
	}
	if isAPI(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return false
	}
	c.Redirect(http.StatusSeeOther, "/login/?next="+url.QueryEscape(c.Request.URL.RequestURI()))
	c.Abort()
	return false
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if v, ok := c.Get(sessionCtxKey); ok {
			if s, ok := v.(*session.Session); ok && s.Authenticated() {
				fields = append(fields, zap.String("user", s.Username))
			}
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Info("request", fields...)
	}
}
