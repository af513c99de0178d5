package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-canteen/internal/domain"
	menusvc "smart-canteen/internal/service/menu"
)

func (h *handlers) toggleItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		h.renderError(c, domain.ErrNotFound)
		return
	}
	if _, err := h.deps.Menu.Toggle(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/menu/")
}

func (h *handlers) dashboard(c *gin.Context) {
	summary, err := h.deps.Dashboard.Summary(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.page(c, http.StatusOK, "dashboard.html", gin.H{"Summary": summary})
}

func (h *handlers) manageItems(c *gin.Context) {
	items, err := h.deps.Menu.All(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.page(c, http.StatusOK, "manage_items.html", gin.H{"Items": items})
}

type itemForm struct {
	Name      string
	Price     string
	Category  string
	Image     string
	Available bool
}

func itemFormFrom(it domain.Item) itemForm {
	return itemForm{
		Name:      it.Name,
		Price:     it.Price.StringFixed(2),
		Category:  it.Category,
		Image:     it.Image,
		Available: it.Available,
	}
}

func bindItemInput(c *gin.Context) menusvc.ItemInput {
	return menusvc.ItemInput{
		Name:      c.PostForm("name"),
		Price:     c.PostForm("price"),
		Category:  c.PostForm("category"),
		Image:     c.PostForm("image"),
		Available: c.PostForm("available") == "on",
	}
}

func (h *handlers) itemCreateForm(c *gin.Context) {
	h.page(c, http.StatusOK, "item_form.html", gin.H{
		"IsEdit": false,
		"Form":   itemForm{Available: true},
		"Errors": map[string]string{},
	})
}

func (h *handlers) itemCreate(c *gin.Context) {
	in := bindItemInput(c)
	if _, err := h.deps.Menu.Create(c.Request.Context(), in); err != nil {
		h.itemFormError(c, err, in, false, 0)
		return
	}
	h.flash(c, "Item saved.")
	c.Redirect(http.StatusSeeOther, "/items/manage/")
}

func (h *handlers) itemEditForm(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		h.renderError(c, domain.ErrNotFound)
		return
	}
	item, err := h.deps.Menu.Get(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.page(c, http.StatusOK, "item_form.html", gin.H{
		"IsEdit": true,
		"ItemID": item.ID,
		"Form":   itemFormFrom(*item),
		"Errors": map[string]string{},
	})
}

func (h *handlers) itemEdit(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		h.renderError(c, domain.ErrNotFound)
		return
	}
	if _, err := h.deps.Menu.Get(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}
	in := bindItemInput(c)
	if _, err := h.deps.Menu.Update(c.Request.Context(), id, in); err != nil {
		h.itemFormError(c, err, in, true, id)
		return
	}
	h.flash(c, "Item saved.")
	c.Redirect(http.StatusSeeOther, "/items/manage/")
}

// itemFormError re-renders the form for validation failures and falls back to
// the generic error page otherwise.
func (h *handlers) itemFormError(c *gin.Context, err error, in menusvc.ItemInput, isEdit bool, id int64) {
	var v *domain.ValidationError
	if !errors.As(err, &v) {
		h.renderError(c, err)
		return
	}
	h.page(c, http.StatusBadRequest, "item_form.html", gin.H{
		"IsEdit": isEdit,
		"ItemID": id,
		"Form": itemForm{
			Name:      in.Name,
			Price:     in.Price,
			Category:  in.Category,
			Image:     in.Image,
			Available: in.Available,
		},
		"Errors": v.Fields,
	})
}
