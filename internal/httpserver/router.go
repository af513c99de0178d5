package httpserver

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smart-canteen/internal/domain"
	accountsvc "smart-canteen/internal/service/account"
	menusvc "smart-canteen/internal/service/menu"
	"smart-canteen/internal/session"
)

type cartService interface {
	Add(ctx context.Context, sess *session.Session, itemID int64) error
	Update(ctx context.Context, sess *session.Session, itemID int64, action string) (bool, error)
	Remove(ctx context.Context, sess *session.Session, itemID int64) error
	View(ctx context.Context, cart domain.Cart) (domain.CartView, error)
}

type orderService interface {
	PlaceOrder(ctx context.Context, userID int64, sess *session.Session) (*domain.Order, error)
	Get(ctx context.Context, viewer domain.User, id int64) (*domain.Order, error)
	List(ctx context.Context, viewer domain.User) ([]domain.Order, error)
}

type menuService interface {
	List(ctx context.Context, filter domain.ItemFilter) (*menusvc.Listing, error)
	All(ctx context.Context) ([]domain.Item, error)
	Get(ctx context.Context, id int64) (*domain.Item, error)
	Toggle(ctx context.Context, id int64) (*domain.Item, error)
	Create(ctx context.Context, in menusvc.ItemInput) (*domain.Item, error)
	Update(ctx context.Context, id int64, in menusvc.ItemInput) (*domain.Item, error)
}

type dashboardService interface {
	Summary(ctx context.Context) (*domain.DashboardSummary, error)
}

type accountService interface {
	Register(ctx context.Context, in accountsvc.RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps groups the collaborators the HTTP layer needs.
type Deps struct {
	Sessions  session.Store
	Cart      cartService
	Orders    orderService
	Menu      menuService
	Dashboard dashboardService
	Accounts  accountService
	// DB is checked by /readyz; nil reports not ready.
	DB pinger

	SessionCookie string
	SessionTTL    time.Duration
	SecureCookies bool
	CORSOrigins   []string
}

type handlers struct {
	deps   Deps
	log    *zap.Logger
	cookie cookieOptions
}

// buildRouter wires every route of the site and the JSON API.
func buildRouter(logger *zap.Logger, deps Deps) (*gin.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer, err := newHTMLRenderer()
	if err != nil {
		return nil, err
	}
	if deps.SessionCookie == "" {
		deps.SessionCookie = "canteen_session"
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = 14 * 24 * time.Hour
	}

	h := &handlers{
		deps: deps,
		log:  logger.Named("http"),
		cookie: cookieOptions{
			name:   deps.SessionCookie,
			ttl:    deps.SessionTTL,
			secure: deps.SecureCookies,
		},
	}

	router := gin.New()
	router.HTMLRender = renderer
	router.Use(accessLog(h.log), gin.Recovery())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.DB))

	site := router.Group("/")
	site.Use(sessionMiddleware(deps.Sessions, h.cookie, h.log))

	site.GET("/", h.home)
	site.GET("/login/", h.loginForm)
	site.POST("/login/", h.login)
	site.GET("/logout/", h.logout)
	site.POST("/logout/", h.logout)
	site.GET("/register/", h.registerForm)
	site.POST("/register/", h.register)

	site.GET("/menu/", requireLogin(), h.menu)
	site.GET("/cart/", h.cartView)
	site.GET("/add-to-cart/:id/", h.addToCart)
	site.POST("/add-to-cart/:id/", h.addToCart)
	site.GET("/update-cart/:id/:action/", h.updateCart)
	site.GET("/remove-from-cart/:id/", h.removeFromCart)
	site.POST("/place-order/", requireLogin(), h.placeOrder)
	site.GET("/orders/:id/", requireLogin(), h.orderDetail)

	staff := site.Group("/")
	staff.Use(requireStaff(h))
	staff.GET("/toggle-item/:id/", h.toggleItem)
	staff.GET("/dashboard/", h.dashboard)
	staff.GET("/items/manage/", h.manageItems)
	staff.GET("/items/add/", h.itemCreateForm)
	staff.POST("/items/add/", h.itemCreate)
	staff.GET("/items/:id/edit/", h.itemEditForm)
	staff.POST("/items/:id/edit/", h.itemEdit)

	api := site.Group("/api")
	api.Use(cors.New(corsConfig(deps.CORSOrigins)))
	api.GET("/items/", h.apiItems)
	api.GET("/orders/", requireLogin(), h.apiOrders)

	router.NoRoute(func(c *gin.Context) {
		h.renderError(c, domain.ErrNotFound)
	})

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "OPTIONS"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
