package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/auth"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/cart"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/client"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/config"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/health"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/pkg/clock"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/server"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/storage"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Auth.Validate(); err != nil {
		fmt.Printf("Invalid auth config: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "cloudinary":
		return storage.NewCloudinaryStore(cfg.Storage.CloudinaryURL)
	case "local", "":
		return storage.NewLocalStore(cfg.Storage.LocalDir, cfg.BaseURL)
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	clk := clock.New()

	db, err := client.InitDatabaseClient(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	uploader := storage.NewUploader(store)

	probes := []health.Probe{health.DatabaseProbe(db)}

	// reviews live in the document store and are disabled without it
	var reviewRepo repository.ReviewRepository
	if cfg.Mongo.URI != "" {
		mongoClient, err := client.InitMongoClient(ctx, &cfg.Mongo)
		if err != nil {
			return err
		}
		defer func() {
			_ = mongoClient.Disconnect(context.Background())
		}()

		mongoDB := mongoClient.Database(cfg.Mongo.Database)
		if err := repository.EnsureReviewIndexes(ctx, mongoDB); err != nil {
			logger.Warn("ensure review indexes", "error", err)
		}
		reviewRepo = repository.NewReviewRepository(mongoDB)
		probes = append(probes, health.MongoProbe(mongoClient))
	} else {
		logger.Info("MONGO_URI not set, reviews are disabled")
	}

	var braintreeClient client.BraintreeClient
	if cfg.BrainTree.Enabled() {
		braintreeClient = client.NewBraintreeClient(&cfg.BrainTree)
	} else {
		logger.Info("braintree credentials not set, card payments are disabled")
	}

	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	giftCardRepo := repository.NewGiftCardRepository(db)
	bannerRepo := repository.NewBannerRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	libraryRepo := repository.NewLibraryRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	paymentMethodRepo := repository.NewPaymentMethodRepository(db)

	productService := service.NewProductService(productRepo, categoryRepo, uploader, logger)
	userService := service.NewUserService(profileRepo, uploader, cfg.Auth.AdminEmails, logger)

	sessionStore := auth.NewCookieStore(cfg.Auth.SessionSecret, cfg.Auth.SecureCookies)
	sessions := auth.NewSessionManager(sessionStore, clk)
	unsubscribe := sessions.OnAuthChange(func(event auth.Event, u auth.User) {
		logger.Info("auth state changed", "event", event, "user_id", u.ID, "role", u.Role)
	})
	defer unsubscribe()

	providers := auth.ConfigureOAuth(sessionStore, cfg.BaseURL, cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret)

	prober := health.NewProber(cfg.Health.Interval, clk, logger, probes...)
	go prober.Run(ctx)

	srv := server.NewServer(server.Dependencies{
		Logger:    logger,
		Store:     store,
		Prober:    prober,
		Sessions:  sessions,
		Snapshots: auth.NewSnapshotter(cfg.Auth.JWTSecret, cfg.Auth.SnapshotTTL, clk),
		Jar:       cart.NewJar(cfg.Auth.CookieSecret, cfg.Auth.SecureCookies),
		Providers: providers,
		AnonKey:   cfg.Service.AnonKey,
		RoleKey:   cfg.Service.RoleKey,

		Products:   productService,
		Categories: service.NewCategoryService(categoryRepo, productRepo),
		GiftCards:  service.NewGiftCardService(giftCardRepo, uploader, logger),
		Banners:    service.NewBannerService(bannerRepo, uploader, logger),
		Carts:      service.NewCartService(productRepo),
		Checkout: service.NewCheckoutService(
			db,
			braintreeClient,
			productRepo,
			orderRepo,
			libraryRepo,
			addressRepo,
			paymentMethodRepo,
			uploader,
			logger,
		),
		Orders:   service.NewOrderService(db, orderRepo, productRepo, libraryRepo, uploader, logger),
		Users:    userService,
		Accounts: service.NewAccountService(addressRepo, paymentMethodRepo, braintreeClient, logger),
		Reviews:  service.NewReviewService(reviewRepo, productService),
	})

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	errCh := make(chan error, 1)
	logger.Info("starting HTTP server", "addr", serverAddr, "environment", cfg.Environment.Name)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	logger.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
