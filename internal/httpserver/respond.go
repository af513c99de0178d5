package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smart-canteen/internal/domain"
	"smart-canteen/internal/session"
)

// page renders a full HTML page, adding the session and any pending flash.
func (h *handlers) page(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	sess := currentSession(c)
	data["Session"] = sess
	if msg := sess.PopFlash(); msg != "" {
		data["Flash"] = msg
		h.saveSession(c, sess)
	}
	c.HTML(status, name, data)
}

func (h *handlers) flash(c *gin.Context, msg string) {
	sess := currentSession(c)
	sess.Flash = msg
	h.saveSession(c, sess)
}

func (h *handlers) saveSession(c *gin.Context, sess *session.Session) {
	if err := h.deps.Sessions.Save(c.Request.Context(), sess); err != nil {
		h.log.Warn("save session", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

// renderError maps domain errors onto HTTP responses. JSON for /api, HTML otherwise.
func (h *handlers) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong. Please try again."
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		message = "The page you were looking for does not exist."
	case errors.Is(err, domain.ErrPermissionDenied):
		status = http.StatusForbidden
		message = "You do not have permission to view this page."
	default:
		_ = c.Error(err)
		h.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}

	if isAPI(c) {
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	h.page(c, status, "error.html", gin.H{
		"Status":  status,
		"Title":   http.StatusText(status),
		"Message": message,
	})
}

// idParam parses a positive numeric path parameter; anything else is a 404.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
