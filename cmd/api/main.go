package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/grocer-backend/api/controllers"
	"github.com/angelmondragon/grocer-backend/api/routes"
	"github.com/angelmondragon/grocer-backend/internal/address"
	"github.com/angelmondragon/grocer-backend/internal/auth"
	"github.com/angelmondragon/grocer-backend/internal/cart"
	"github.com/angelmondragon/grocer-backend/internal/categories"
	"github.com/angelmondragon/grocer-backend/internal/checkout"
	"github.com/angelmondragon/grocer-backend/internal/distance"
	"github.com/angelmondragon/grocer-backend/internal/items"
	"github.com/angelmondragon/grocer-backend/internal/supermarkets"
	"github.com/angelmondragon/grocer-backend/internal/users"
	"github.com/angelmondragon/grocer-backend/pkg/config"
	"github.com/angelmondragon/grocer-backend/pkg/db"
	"github.com/angelmondragon/grocer-backend/pkg/env"
	"github.com/angelmondragon/grocer-backend/pkg/instance"
	"github.com/angelmondragon/grocer-backend/pkg/logger"
	"github.com/angelmondragon/grocer-backend/pkg/maps"
	"github.com/angelmondragon/grocer-backend/pkg/metrics"
	"github.com/angelmondragon/grocer-backend/pkg/migrate"
	"github.com/angelmondragon/grocer-backend/pkg/pubsub"
	"github.com/angelmondragon/grocer-backend/pkg/redis"
	"github.com/angelmondragon/grocer-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

// placesAPI is the slice of the maps client the services consume. It stays a
// nil interface when no API key is configured.
type placesAPI interface {
	Autocomplete(ctx context.Context, input string) ([]maps.AutocompleteSuggestion, error)
	Geocode(ctx context.Context, address string) (*maps.GeocodeResult, error)
	RouteDistanceMeters(ctx context.Context, origin, destination maps.LatLng) (int64, error)
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var places placesAPI
	if cfg.GoogleMaps.APIKey != "" {
		mapsClient, err := maps.NewClient(cfg.GoogleMaps.APIKey, maps.WithLocale(cfg.GoogleMaps.RegionCode, cfg.GoogleMaps.LanguageCode))
		if err != nil {
			return err
		}
		places = mapsClient
	} else {
		logg.Warn(ctx, "google maps api key not set; delivery distance and address lookups are disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	profiles, err := checkout.ProfilesFromConfig(cfg.Checkout)
	if err != nil {
		return err
	}

	health := map[string]controllers.Pinger{"db": dbClient, "redis": redisClient}

	var publisher *pubsub.EventPublisher
	if cfg.PubSub.Enabled() {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		publisher = pubsub.NewEventPublisher(psClient.OrdersPublisher())
		health["pubsub"] = psClient
	}

	itemRepo := items.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  users.NewRepository(dbClient.DB()),
		Hasher:    security.NewHasher(cfg.Password),
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		return err
	}

	supermarketService, err := supermarkets.NewService(supermarkets.NewRepository(dbClient.DB()), places, logg)
	if err != nil {
		return err
	}

	categoryService, err := categories.NewService(dbClient, categories.NewRepository(dbClient.DB()), supermarketService, logg)
	if err != nil {
		return err
	}

	itemService, err := items.NewService(dbClient, itemRepo, supermarketService)
	if err != nil {
		return err
	}

	cartService, err := cart.NewService(cart.NewStore(redisClient, cfg.Checkout.SessionCartTTL), itemRepo)
	if err != nil {
		return err
	}

	deps := checkout.Deps{
		Supermarkets: supermarketService,
		Carts:        cartService,
		Items:        itemRepo,
		Distance:     distance.NewService(places, redisClient, cfg.Distance, checkoutMetrics, logg),
		Profiles:     profiles,
		Tracker:      distance.NewTracker(redisClient, cfg.Checkout.SessionCartTTL),
		Metrics:      checkoutMetrics,
		Logger:       logg,
	}
	if publisher != nil {
		deps.Publisher = publisher
	}
	checkoutService, err := checkout.NewService(deps)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Deps{
		Config:       cfg,
		Logger:       logg,
		Redis:        redisClient,
		Health:       health,
		Metrics:      registry,
		Auth:         authService,
		Supermarkets: supermarketService,
		Categories:   categoryService,
		Items:        itemService,
		Cart:         cartService,
		Checkout:     checkoutService,
		Address:      address.NewService(places),
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
