package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Depado/ginprom"
	"github.com/aurowora/compress"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/kofalt/go-memoize"
	"github.com/prometheus/client_golang/prometheus"
	healthcheck "github.com/tavsec/gin-healthcheck"
	"github.com/tavsec/gin-healthcheck/checks"
	hc_config "github.com/tavsec/gin-healthcheck/config"

	"github.com/rm-hull/heat-metadata-collector/internal"
	"github.com/rm-hull/heat-metadata-collector/internal/gcore"
	"github.com/rm-hull/heat-metadata-collector/internal/metrics"
	"github.com/rm-hull/heat-metadata-collector/internal/routes"
)

func ApiServer(ctx context.Context, dbPath string, port int, schedule string, debug bool) error {

	cfg, err := bootstrap()
	if err != nil {
		return err
	}

	repo, err := openRepository(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Printf("failed to close repository: %v", err)
		}
	}()

	recorder := metrics.New(prometheus.DefaultRegisterer)
	collector := gcore.NewCollector(cfg, cfg.DeploymentKeys, gcore.WithMetrics(recorder))

	scheduler, err := internal.StartCron(ctx, collector, repo, schedule, recorder)
	if err != nil {
		return fmt.Errorf("failed to start CRON jobs: %w", err)
	}
	defer func() {
		<-scheduler.Stop().Done()
	}()

	// Initial collection goes through the same chain as the scheduled runs,
	// so a tick that fires while it is still running is skipped.
	go scheduler.Entries()[0].WrappedJob.Run()

	r := gin.New()

	prom := ginprom.New(
		ginprom.Engine(r),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz"),
	)

	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		prom.Instrument(),
		compress.Compress(),
		cors.Default(),
	)

	if debug {
		log.Println("WARNING: pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	err = healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{
		repo.Check(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize healthcheck: %v", err)
	}

	cache := memoize.NewMemoizer(10*time.Second, time.Minute)

	v1 := r.Group("/v1/collectors")
	v1.GET("/:name/latest", routes.Latest(repo, cache))
	v1.GET("/:name/history", routes.History(repo))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP API Server shutdown failed: %v", err)
		}
	}()

	log.Printf("Starting HTTP API Server on port %d...", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP API Server failed to start on port %d: %v", port, err)
	}

	return nil
}
