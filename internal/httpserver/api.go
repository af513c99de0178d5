package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smart-canteen/internal/domain"
)

type itemResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Category  string `json:"category"`
	Available bool   `json:"available"`
	Image     string `json:"image"`
}

type orderLineResponse struct {
	ItemID   int64  `json:"item"`
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
}

type orderResponse struct {
	ID         int64               `json:"id"`
	User       string              `json:"user"`
	TotalPrice string              `json:"total_price"`
	CreatedAt  time.Time           `json:"created_at"`
	Items      []orderLineResponse `json:"items"`
}

func toItemResponse(it domain.Item) itemResponse {
	return itemResponse{
		ID:        it.ID,
		Name:      it.Name,
		Price:     it.Price.StringFixed(2),
		Category:  it.Category,
		Available: it.Available,
		Image:     it.Image,
	}
}

func toOrderResponse(o domain.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineResponse{ItemID: l.ItemID, ItemName: l.ItemName, Quantity: l.Quantity})
	}
	return orderResponse{
		ID:         o.ID,
		User:       o.Username,
		TotalPrice: o.TotalPrice.StringFixed(2),
		CreatedAt:  o.CreatedAt,
		Items:      lines,
	}
}

func (h *handlers) apiItems(c *gin.Context) {
	items, err := h.deps.Menu.All(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	c.JSON(http.StatusOK, out)
}

// apiOrders lists every order for staff and only the caller's own otherwise.
func (h *handlers) apiOrders(c *gin.Context) {
	orders, err := h.deps.Orders.List(c.Request.Context(), currentUser(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, out)
}
