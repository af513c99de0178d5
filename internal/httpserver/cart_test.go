package httpserver

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"smart-canteen/internal/domain"
)

func TestAddToCartFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/add-to-cart/1/", nil, nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/menu/" {
		t.Fatalf("expected redirect to menu, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatalf("expected session cookie")
	}

	env.do(http.MethodGet, "/add-to-cart/1/", nil, cookie)
	env.do(http.MethodGet, "/add-to-cart/2/", nil, cookie)

	sess, err := env.store.Get(context.Background(), cookie.Value)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if sess.Cart.Quantity(1) != 2 || sess.Cart.Quantity(2) != 1 {
		t.Fatalf("unexpected cart: %v", sess.Cart)
	}

	rec = env.do(http.MethodGet, "/cart/", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Fried Rice", "Masala Tea", "10.00", "13.00"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in cart body: %s", want, body)
		}
	}
}

func TestAddToCartRejectsUnavailableAndUnknown(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/add-to-cart/3/", "/add-to-cart/404/", "/add-to-cart/abc/"} {
		rec := env.do(http.MethodPost, path, nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestUpdateAndRemoveCart(t *testing.T) {
	env := newTestEnv(t)
	cookie := sessionCookie(env.do(http.MethodPost, "/add-to-cart/1/", nil, nil))

	steps := []struct {
		path string
		qty  int
	}{
		{"/update-cart/1/inc/", 2},
		{"/update-cart/1/explode/", 2},
		{"/update-cart/2/inc/", 2},
		{"/update-cart/1/dec/", 1},
		{"/update-cart/1/dec/", 0},
		{"/update-cart/1/dec/", 0},
	}
	for _, step := range steps {
		rec := env.do(http.MethodGet, step.path, nil, cookie)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/cart/" {
			t.Fatalf("%s: expected redirect to cart, got %d", step.path, rec.Code)
		}
		sess, err := env.store.Get(context.Background(), cookie.Value)
		if err != nil {
			t.Fatalf("load session: %v", err)
		}
		if got := sess.Cart.Quantity(1); got != step.qty {
			t.Fatalf("%s: expected qty %d, got %d", step.path, step.qty, got)
		}
		if sess.Cart.Quantity(2) != 0 {
			t.Fatalf("update must not insert absent items")
		}
	}

	env.do(http.MethodGet, "/add-to-cart/2/", nil, cookie)
	rec := env.do(http.MethodGet, "/remove-from-cart/2/", nil, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	sess, _ := env.store.Get(context.Background(), cookie.Value)
	if !sess.Cart.IsEmpty() {
		t.Fatalf("expected empty cart, got %v", sess.Cart)
	}
	if rec := env.do(http.MethodGet, "/remove-from-cart/2/", nil, cookie); rec.Code != http.StatusSeeOther {
		t.Fatalf("removing an absent entry should still redirect, got %d", rec.Code)
	}
}

func TestPlaceOrder(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, domain.User{ID: 1, Username: "alice"})

	rec := env.do(http.MethodPost, "/place-order/", nil, cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/menu/" {
		t.Fatalf("empty cart should redirect to menu, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
	if len(env.orders.placed) != 0 {
		t.Fatalf("no order should be placed for an empty cart")
	}

	env.do(http.MethodPost, "/add-to-cart/1/", nil, cookie)
	rec = env.do(http.MethodPost, "/place-order/", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Order #1 has been placed") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if len(env.orders.placed) != 1 || env.orders.placed[0].UserID != 1 {
		t.Fatalf("expected order for user 1, got %+v", env.orders.placed)
	}
}

func TestPlaceOrderRequiresLogin(t *testing.T) {
	env := newTestEnv(t)
	cookie := sessionCookie(env.do(http.MethodPost, "/add-to-cart/1/", nil, nil))

	rec := env.do(http.MethodPost, "/place-order/", nil, cookie)
	if rec.Code != http.StatusSeeOther || !strings.HasPrefix(rec.Header().Get("Location"), "/login/") {
		t.Fatalf("expected login redirect, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
}

func TestOrderDetailScoped(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, domain.User{ID: 1, Username: "alice"})

	if rec := env.do(http.MethodGet, "/orders/1/", nil, alice); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for own order, got %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/orders/2/", nil, alice); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for someone else's order, got %d", rec.Code)
	}
}
