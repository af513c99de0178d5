package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"smart-canteen/internal/domain"
	accountsvc "smart-canteen/internal/service/account"
	cartsvc "smart-canteen/internal/service/cart"
	menusvc "smart-canteen/internal/service/menu"
	"smart-canteen/internal/session"
)

const testCookie = "canteen_session"

func logDiscard() *zap.Logger {
	return zap.NewNop()
}

type stubItemRepo struct {
	items map[int64]domain.Item
}

func (s *stubItemRepo) GetByID(_ context.Context, id int64) (*domain.Item, error) {
	it, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}

func (s *stubItemRepo) GetByIDs(_ context.Context, ids []int64) (map[int64]domain.Item, error) {
	out := map[int64]domain.Item{}
	for _, id := range ids {
		if it, ok := s.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

type stubMenu struct {
	items     []domain.Item
	toggled   []int64
	createErr error
	created   []menusvc.ItemInput
	updated   []int64
}

func (s *stubMenu) List(_ context.Context, f domain.ItemFilter) (*menusvc.Listing, error) {
	return &menusvc.Listing{Items: s.items, Categories: []string{"Drinks", "Mains"}, Filter: f}, nil
}

func (s *stubMenu) All(_ context.Context) ([]domain.Item, error) {
	return s.items, nil
}

func (s *stubMenu) Get(_ context.Context, id int64) (*domain.Item, error) {
	for _, it := range s.items {
		if it.ID == id {
			clone := it
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubMenu) Toggle(ctx context.Context, id int64) (*domain.Item, error) {
	it, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.toggled = append(s.toggled, id)
	it.Available = !it.Available
	return it, nil
}

func (s *stubMenu) Create(_ context.Context, in menusvc.ItemInput) (*domain.Item, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	it, err := in.Validate()
	if err != nil {
		return nil, err
	}
	s.created = append(s.created, in)
	it.ID = int64(len(s.items) + 1)
	return &it, nil
}

func (s *stubMenu) Update(_ context.Context, id int64, in menusvc.ItemInput) (*domain.Item, error) {
	s.updated = append(s.updated, id)
	it, err := in.Validate()
	if err != nil {
		return nil, err
	}
	it.ID = id
	return &it, nil
}

type stubOrders struct {
	placed []domain.Order
	orders []domain.Order
	err    error
}

func (s *stubOrders) PlaceOrder(_ context.Context, userID int64, sess *session.Session) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	if sess.Cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}
	o := domain.Order{ID: int64(len(s.placed) + 1), UserID: userID, TotalPrice: decimal.RequireFromString("13.00"), CreatedAt: time.Now()}
	s.placed = append(s.placed, o)
	sess.Cart.Clear()
	return &o, nil
}

func (s *stubOrders) Get(_ context.Context, viewer domain.User, id int64) (*domain.Order, error) {
	for _, o := range s.orders {
		if o.ID == id && (viewer.IsStaff || o.UserID == viewer.ID) {
			clone := o
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubOrders) List(_ context.Context, viewer domain.User) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range s.orders {
		if viewer.IsStaff || o.UserID == viewer.ID {
			out = append(out, o)
		}
	}
	return out, nil
}

type stubDashboard struct {
	summary *domain.DashboardSummary
}

func (s *stubDashboard) Summary(_ context.Context) (*domain.DashboardSummary, error) {
	return s.summary, nil
}

type stubAccounts struct {
	users       map[string]domain.User
	password    string
	registerErr error
}

func (s *stubAccounts) Register(_ context.Context, in accountsvc.RegisterInput) (*domain.User, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &domain.User{ID: 99, Username: in.Username}, nil
}

func (s *stubAccounts) Get(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubAccounts) Authenticate(_ context.Context, username, password string) (*domain.User, error) {
	u, ok := s.users[strings.ToLower(username)]
	if !ok || password != s.password {
		return nil, accountsvc.ErrInvalidCredentials
	}
	return &u, nil
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type testEnv struct {
	router   *gin.Engine
	store    *session.MemoryStore
	menu     *stubMenu
	orders   *stubOrders
	accounts *stubAccounts
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	items := []domain.Item{
		{ID: 1, Name: "Fried Rice", Price: price("5.00"), Category: "Mains", Available: true},
		{ID: 2, Name: "Masala Tea", Price: price("3.00"), Category: "Drinks", Available: true},
		{ID: 3, Name: "Soup", Price: price("4.00"), Category: "Mains", Available: false},
	}
	byID := map[int64]domain.Item{}
	for _, it := range items {
		byID[it.ID] = it
	}

	store := session.NewMemoryStore(time.Hour)
	env := &testEnv{
		store: store,
		menu:  &stubMenu{items: items},
		orders: &stubOrders{orders: []domain.Order{
			{ID: 1, UserID: 1, Username: "alice", TotalPrice: price("13.00")},
			{ID: 2, UserID: 2, Username: "bob", TotalPrice: price("7.50")},
		}},
		accounts: &stubAccounts{
			users: map[string]domain.User{
				"alice": {ID: 1, Username: "alice"},
				"chef":  {ID: 3, Username: "chef", IsStaff: true},
			},
			password: "Secret123",
		},
	}
	router, err := buildRouter(logDiscard(), Deps{
		Sessions: store,
		Cart:     cartsvc.New(&stubItemRepo{items: byID}, store, nil),
		Orders:   env.orders,
		Menu:     env.menu,
		Dashboard: &stubDashboard{summary: &domain.DashboardSummary{
			TotalOrders:  2,
			TotalRevenue: price("20.50"),
			RecentOrders: []domain.Order{},
			TopItems:     []domain.TopItem{{ItemID: 1, Name: "Fried Rice", Quantity: 4}},
		}},
		Accounts:      env.accounts,
		DB:            stubPinger{},
		SessionCookie: testCookie,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	env.router = router
	return env
}

// login stores an authenticated session and returns its cookie.
func (e *testEnv) login(t *testing.T, u domain.User) *http.Cookie {
	t.Helper()
	s := session.New()
	s.Login(u)
	if err := e.store.Save(context.Background(), s); err != nil {
		t.Fatalf("save session: %v", err)
	}
	return &http.Cookie{Name: testCookie, Value: s.ID}
}

func (e *testEnv) do(method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookie {
			return c
		}
	}
	return nil
}

var errBoom = errors.New("boom")
