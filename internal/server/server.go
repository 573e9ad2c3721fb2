package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/auth"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/cart"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/handler"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/health"
	authmw "github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/middleware"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/storage"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Logger    *slog.Logger
	Store     storage.Store
	Prober    *health.Prober
	Sessions  *auth.SessionManager
	Snapshots *auth.Snapshotter
	Jar       *cart.Jar
	Providers []string
	AnonKey   string
	RoleKey   string

	Products   service.ProductService
	Categories service.CategoryService
	GiftCards  service.GiftCardService
	Banners    service.BannerService
	Carts      service.CartService
	Checkout   service.CheckoutService
	Orders     service.OrderService
	Users      service.UserService
	Accounts   service.AccountService
	Reviews    service.ReviewService
}

type Server struct {
	echo   *echo.Echo
	logger *slog.Logger
	guard  *auth.Guard
	loop   *auth.LoopBreaker

	anonKey string
	roleKey string

	authHandler     *handler.AuthHandler
	productHandler  *handler.ProductHandler
	categoryHandler *handler.CategoryHandler
	giftCardHandler *handler.GiftCardHandler
	bannerHandler   *handler.BannerHandler
	cartHandler     *handler.CartHandler
	checkoutHandler *handler.CheckoutHandler
	orderHandler    *handler.OrderHandler
	userHandler     *handler.UserHandler
	reviewHandler   *handler.ReviewHandler
	fileHandler     *handler.FileHandler
	healthHandler   *handler.HealthHandler
}

func NewServer(deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(deps.Logger)

	guard := auth.NewGuard(deps.Sessions, deps.Snapshots, deps.Users.Lookup)
	loop := auth.NewLoopBreaker(deps.Sessions)

	e.Use(requestLogger(deps.Logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(authmw.ResetLoop(loop, deps.Logger))

	s := &Server{
		echo:    e,
		logger:  deps.Logger,
		guard:   guard,
		loop:    loop,
		anonKey: deps.AnonKey,
		roleKey: deps.RoleKey,

		authHandler:     handler.NewAuthHandler(deps.Users, deps.Sessions, deps.Snapshots, guard, loop, deps.Providers, deps.Logger),
		productHandler:  handler.NewProductHandler(deps.Products),
		categoryHandler: handler.NewCategoryHandler(deps.Categories),
		giftCardHandler: handler.NewGiftCardHandler(deps.GiftCards),
		bannerHandler:   handler.NewBannerHandler(deps.Banners),
		cartHandler:     handler.NewCartHandler(deps.Carts, deps.Jar),
		checkoutHandler: handler.NewCheckoutHandler(deps.Checkout, deps.Sessions, deps.Jar),
		orderHandler:    handler.NewOrderHandler(deps.Orders),
		userHandler:     handler.NewUserHandler(deps.Users, deps.Accounts),
		reviewHandler:   handler.NewReviewHandler(deps.Reviews),
		fileHandler:     handler.NewFileHandler(deps.Store),
		healthHandler:   handler.NewHealthHandler(deps.Prober),
	}

	s.setupRoutes()
	return s
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(context.Background(), level, "request", attrs...)
			return nil
		},
	})
}

// uploadBodyLimit bounds multipart bodies a little above storage.MaxUploadSize
// so oversized uploads are cut off before they are spooled to disk.
const uploadBodyLimit = "6M"

func (s *Server) setupRoutes() {
	requireUser := authmw.Require(s.guard, auth.RequireUser, s.logger)
	requireAdmin := authmw.Require(s.guard, auth.RequireAdmin, s.logger)
	uploadLimit := middleware.BodyLimit(uploadBodyLimit)

	s.echo.GET("/api/health", s.healthHandler.Get)
	s.echo.GET("/files/:bucket/*", s.fileHandler.Serve)

	// -------- auth --------
	authGroup := s.echo.Group("/auth")
	authGroup.GET("/login", s.authHandler.Login)
	authGroup.POST("/signup", s.authHandler.SignUp)
	authGroup.POST("/signin", s.authHandler.SignIn)
	authGroup.POST("/signout", s.authHandler.SignOut)
	authGroup.GET("/:provider", s.authHandler.BeginOAuth)
	authGroup.GET("/:provider/callback", s.authHandler.OAuthCallback)

	api := s.echo.Group("/api", authmw.APIKey(s.anonKey, s.roleKey))
	api.GET("/auth/session", s.authHandler.Session)
	api.POST("/profiles", s.userHandler.CreateProfile, authmw.ServiceRole(s.roleKey))

	// -------- storefront --------
	api.GET("/products", s.productHandler.List)
	api.GET("/products/featured", s.productHandler.Featured)
	api.GET("/products/new", s.productHandler.NewArrivals)
	api.GET("/products/:id", s.productHandler.Get)
	api.GET("/products/:id/reviews", s.reviewHandler.ListForProduct)
	api.POST("/products/:id/reviews", s.reviewHandler.Create, requireUser)

	api.GET("/categories", s.categoryHandler.Tree)
	api.GET("/categories/navbar", s.categoryHandler.Navbar)
	api.GET("/gift-cards", s.giftCardHandler.ListActive)
	api.GET("/gift-cards/:slug", s.giftCardHandler.GetBySlug)
	api.GET("/banners", s.bannerHandler.ListActive)

	// -------- cart & wishlist --------
	api.GET("/cart", s.cartHandler.GetCart)
	api.POST("/cart", s.cartHandler.AddToCart)
	api.DELETE("/cart", s.cartHandler.ClearCart)
	api.PATCH("/cart/:productID", s.cartHandler.UpdateCartLine)
	api.DELETE("/cart/:productID", s.cartHandler.RemoveCartLine)

	api.GET("/wishlist", s.cartHandler.GetWishlist)
	api.POST("/wishlist", s.cartHandler.AddToWishlist)
	api.DELETE("/wishlist", s.cartHandler.ClearWishlist)
	api.DELETE("/wishlist/:productID", s.cartHandler.RemoveFromWishlist)

	// -------- checkout & orders --------
	checkout := api.Group("/checkout", requireUser)
	checkout.GET("", s.checkoutHandler.Get)
	checkout.POST("/shipping", s.checkoutHandler.SubmitShipping)
	checkout.POST("/payment", s.checkoutHandler.SelectPayment)
	checkout.POST("/back", s.checkoutHandler.Back)
	checkout.POST("/submit", s.checkoutHandler.Submit, uploadLimit)

	orders := api.Group("/orders", requireUser)
	orders.GET("", s.orderHandler.ListMine)
	orders.GET("/:id", s.orderHandler.GetMine)
	orders.POST("/:id/proof", s.orderHandler.UploadProof, uploadLimit)
	orders.GET("/:id/proof", s.orderHandler.Proof)

	// -------- account --------
	me := api.Group("/me", requireUser)
	me.GET("", s.userHandler.GetMe)
	me.PATCH("", s.userHandler.UpdateMe)
	me.POST("/avatar", s.userHandler.UploadAvatar, uploadLimit)
	me.GET("/library", s.orderHandler.Library)
	me.GET("/addresses", s.userHandler.ListAddresses)
	me.POST("/addresses", s.userHandler.AddAddress)
	me.PATCH("/addresses/:id", s.userHandler.UpdateAddress)
	me.DELETE("/addresses/:id", s.userHandler.DeleteAddress)
	me.GET("/payment-methods", s.userHandler.ListPaymentMethods)
	me.POST("/payment-methods", s.userHandler.AddPaymentMethod)
	me.DELETE("/payment-methods/:id", s.userHandler.DeletePaymentMethod)

	// -------- admin --------
	admin := api.Group("/admin", requireAdmin)

	admin.GET("/products", s.productHandler.List)
	admin.POST("/products", s.productHandler.Create)
	admin.PUT("/products/:id", s.productHandler.Update)
	admin.DELETE("/products/:id", s.productHandler.Delete)
	admin.POST("/products/:id/image", s.productHandler.UploadImage, uploadLimit)
	admin.POST("/products/:id/stock", s.productHandler.AdjustStock)

	admin.GET("/categories", s.categoryHandler.Tree)
	admin.GET("/categories/:id", s.categoryHandler.Get)
	admin.POST("/categories", s.categoryHandler.Create)
	admin.POST("/categories/reorder", s.categoryHandler.Reorder)
	admin.PUT("/categories/:id", s.categoryHandler.Update)
	admin.DELETE("/categories/:id", s.categoryHandler.Delete)

	admin.GET("/gift-cards", s.giftCardHandler.List)
	admin.POST("/gift-cards", s.giftCardHandler.Create)
	admin.PUT("/gift-cards/:id", s.giftCardHandler.Update)
	admin.PATCH("/gift-cards/:id/active", s.giftCardHandler.SetActive)
	admin.DELETE("/gift-cards/:id", s.giftCardHandler.Delete)
	admin.POST("/gift-cards/:id/image", s.giftCardHandler.UploadImage, uploadLimit)

	admin.GET("/banners", s.bannerHandler.List)
	admin.POST("/banners", s.bannerHandler.Create)
	admin.POST("/banners/reorder", s.bannerHandler.Reorder)
	admin.PUT("/banners/:id", s.bannerHandler.Update)
	admin.DELETE("/banners/:id", s.bannerHandler.Delete)
	admin.POST("/banners/:id/image", s.bannerHandler.UploadImage, uploadLimit)

	admin.GET("/orders", s.orderHandler.List)
	admin.GET("/orders/:id", s.orderHandler.Get)
	admin.PATCH("/orders/:id/status", s.orderHandler.UpdateStatus)
	admin.GET("/orders/:id/proof", s.orderHandler.Proof)

	admin.GET("/users", s.userHandler.List)
	admin.GET("/users/:id", s.userHandler.Get)
	admin.PATCH("/users/:id/role", s.userHandler.UpdateRole)
	admin.DELETE("/users/:id", s.userHandler.Delete)

	admin.GET("/reviews/pending", s.reviewHandler.ListPending)
	admin.POST("/reviews/:id/approve", s.reviewHandler.Approve)
	admin.DELETE("/reviews/:id", s.reviewHandler.Delete)

	admin.POST("/health/probe", s.healthHandler.Probe)
}

// ServeHTTP lets the server be mounted in tests without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
