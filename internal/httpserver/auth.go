package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"smart-canteen/internal/domain"
	accountsvc "smart-canteen/internal/service/account"
)

func (h *handlers) loginForm(c *gin.Context) {
	if currentSession(c).Authenticated() {
		c.Redirect(http.StatusSeeOther, safeNext(c.Query("next")))
		return
	}
	h.page(c, http.StatusOK, "login.html", gin.H{"Next": c.Query("next"), "Username": "", "Error": ""})
}

// login rotates the session id on success; the cart carries over.
func (h *handlers) login(c *gin.Context) {
	username := c.PostForm("username")
	next := c.PostForm("next")

	user, err := h.deps.Accounts.Authenticate(c.Request.Context(), username, c.PostForm("password"))
	if err != nil {
		if errors.Is(err, accountsvc.ErrInvalidCredentials) {
			h.page(c, http.StatusBadRequest, "login.html", gin.H{
				"Next":     next,
				"Username": username,
				"Error":    "Please enter a correct username and password.",
			})
			return
		}
		h.renderError(c, err)
		return
	}

	sess := currentSession(c)
	oldID := sess.ID
	sess.ID = uuid.NewString()
	sess.Login(*user)
	if err := h.deps.Sessions.Save(c.Request.Context(), sess); err != nil {
		h.renderError(c, err)
		return
	}
	if err := h.deps.Sessions.Delete(c.Request.Context(), oldID); err != nil {
		h.log.Warn("delete previous session", zap.Error(err))
	}
	setSessionCookie(c, h.cookie, sess.ID)
	h.log.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	c.Redirect(http.StatusSeeOther, safeNext(next))
}

func (h *handlers) logout(c *gin.Context) {
	sess := currentSession(c)
	if err := h.deps.Sessions.Delete(c.Request.Context(), sess.ID); err != nil {
		h.log.Warn("delete session", zap.Error(err))
	}
	clearSessionCookie(c, h.cookie)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *handlers) registerForm(c *gin.Context) {
	h.page(c, http.StatusOK, "register.html", gin.H{"Errors": map[string]string{}, "Username": "", "Email": ""})
}

func (h *handlers) register(c *gin.Context) {
	in := accountsvc.RegisterInput{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
		Confirm:  c.PostForm("confirm"),
	}
	if _, err := h.deps.Accounts.Register(c.Request.Context(), in); err != nil {
		var v *domain.ValidationError
		if errors.As(err, &v) {
			h.page(c, http.StatusBadRequest, "register.html", gin.H{
				"Errors":   v.Fields,
				"Username": in.Username,
				"Email":    in.Email,
			})
			return
		}
		h.renderError(c, err)
		return
	}
	h.flash(c, "Account created. Please log in.")
	c.Redirect(http.StatusSeeOther, "/login/")
}

// safeNext only allows local redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/menu/"
	}
	return next
}
