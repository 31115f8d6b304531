package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/climate-viewer/internal/api/http"
	"github.com/i474232898/climate-viewer/internal/climate"
	"github.com/i474232898/climate-viewer/internal/climate/providers"
	"github.com/i474232898/climate-viewer/internal/config"
	"github.com/i474232898/climate-viewer/internal/daterange"
	"github.com/i474232898/climate-viewer/internal/geocode"
	"github.com/i474232898/climate-viewer/internal/observability"
	"github.com/i474232898/climate-viewer/internal/plot"
	"github.com/i474232898/climate-viewer/internal/scheduler"
	"github.com/i474232898/climate-viewer/internal/stations"
	"github.com/i474232898/climate-viewer/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.NOAAAPIToken == "" {
		log.Printf("INFO: NOAA_API_TOKEN is not set, station downloads will fail")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("failed to create data dir %s: %v", cfg.DataDir, err)
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	// The server still starts without a station inventory; ERA5 stays usable.
	directory, err := stations.LoadDirectory(cfg.StationsPath)
	if err != nil {
		log.Printf("ERROR: station inventory %s not loaded: %v", cfg.StationsPath, err)
		directory = stations.NewDirectory(cfg.StationsPath)
	}
	metrics.StationsLoaded.Set(float64(directory.Len()))
	log.Printf("INFO: %d stations loaded from %s", directory.Len(), cfg.StationsPath)

	// Shared HTTP client for outbound downloads.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	cache := store.NewMemoryStore(cfg.CacheMaxEntries, cfg.CacheMaxAge)

	service := climate.NewService(
		daterange.NewResolver(clockwork.NewRealClock(), cfg.MonthlyYears),
		directory,
		providers.NewNOAAProvider(httpClient),
		providers.NewERA5Provider(httpClient),
		cache,
		metrics,
		climate.Options{
			DataDir:     cfg.DataDir,
			APIToken:    cfg.NOAAAPIToken,
			Concurrency: cfg.DownloadConcurrency,
		},
	)

	sched := scheduler.New(cfg.RefreshInterval, directory, cache)
	sched.OnReload = func(n int) { metrics.StationsLoaded.Set(float64(n)) }
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "climate-viewer",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Downloads of long windows take minutes.
		WriteTimeout: 10 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "climate-viewer",
			"stations": directory.Len(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	deps := httpapi.Deps{
		Service:  service,
		Charts:   plot.NewRenderer(),
		Stations: directory,
		Metrics:  metrics,
	}
	if cfg.GeocoderAPIKey != "" {
		deps.Geocoder = geocode.NewGoogle(cfg.GeocoderAPIKey)
	}
	httpapi.RegisterRoutes(app, deps)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: listening on :%s", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
