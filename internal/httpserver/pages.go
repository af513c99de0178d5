package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-canteen/internal/domain"
)

func (h *handlers) home(c *gin.Context) {
	h.page(c, http.StatusOK, "home.html", nil)
}

func (h *handlers) menu(c *gin.Context) {
	filter := domain.ItemFilter{
		Search:        c.Query("q"),
		Category:      c.Query("category"),
		AvailableOnly: c.Query("available_only") == "on",
	}
	listing, err := h.deps.Menu.List(c.Request.Context(), filter)
	if err != nil {
		h.renderError(c, err)
		return
	}
	view, err := h.deps.Cart.View(c.Request.Context(), currentSession(c).Cart)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.page(c, http.StatusOK, "menu.html", gin.H{
		"Items":      listing.Items,
		"Categories": listing.Categories,
		"Filter":     listing.Filter,
		"CartTotal":  view.Total,
		"CartCount":  view.Count,
	})
}

func (h *handlers) cartView(c *gin.Context) {
	view, err := h.deps.Cart.View(c.Request.Context(), currentSession(c).Cart)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.page(c, http.StatusOK, "cart.html", gin.H{"Cart": view})
}

func (h *handlers) addToCart(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		h.renderError(c, domain.ErrNotFound)
		return
	}
	if err := h.deps.Cart.Add(c.Request.Context(), currentSession(c), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/menu/")
}

// updateCart ignores actions other than inc/dec and entries not in the cart.
func (h *handlers) updateCart(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		h.renderError(c, domain.ErrNotFound)
		return
	}
	if _, err := h.deps.Cart.Update(c.Request.Context(), currentSession(c), id, c.Param("action")); err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/cart/")
}

func (h *handlers) removeFromCart(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		h.renderError(c, domain.ErrNotFound)
		return
	}
	if err := h.deps.Cart.Remove(c.Request.Context(), currentSession(c), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/cart/")
}

func (h *handlers) placeOrder(c *gin.Context) {
	sess := currentSession(c)
	order, err := h.deps.Orders.PlaceOrder(c.Request.Context(), sess.UserID, sess)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyCart) {
			c.Redirect(http.StatusSeeOther, "/menu/")
			return
		}
		h.renderError(c, err)
		return
	}
	h.page(c, http.StatusOK, "order_success.html", gin.H{"Order": order})
}

func (h *handlers) orderDetail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		h.renderError(c, domain.ErrNotFound)
		return
	}
	order, err := h.deps.Orders.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.page(c, http.StatusOK, "order_detail.html", gin.H{"Order": order})
}
