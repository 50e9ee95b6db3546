package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waxline.org/internal/auth"
	"waxline.org/internal/catalog"
	"waxline.org/internal/config"
	"waxline.org/internal/httpapi"
	"waxline.org/internal/obs"
	"waxline.org/internal/store/pg"
)

var version = "0.3.0"

func main() {
	cfg := config.Load()

	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("WAXLINE_COMMIT"))

	// Postgres when a DSN is configured, in-memory otherwise. The in-memory
	// mode is for local development; nothing survives a restart.
	var (
		accessStore  auth.Store
		catalogStore catalog.Store
		probe        httpapi.ReadyProbe
		pgStore      *pg.Store
	)
	if cfg.DSN != "" {
		var err error
		pgStore, err = pg.Open(cfg.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		accessStore = pgStore
		catalogStore = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		log.Println("WAXLINE_PG_DSN not set, using in-memory storage")
		accessStore = auth.NewMemoryStore()
		catalogStore = catalog.NewMemoryStore()
	}

	access, err := auth.NewService(accessStore)
	if err != nil {
		log.Fatalf("access service: %v", err)
	}
	authenticator, err := auth.NewAuthenticator(accessStore)
	if err != nil {
		log.Fatalf("authenticator: %v", err)
	}
	cat, err := catalog.NewService(catalogStore)
	if err != nil {
		log.Fatalf("catalog service: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := access.EnsureBuiltins(ctx); err != nil {
		cancel()
		log.Fatalf("ensure builtin permissions: %v", err)
	}
	cancel()

	api := httpapi.New(access, authenticator, cat, probe, version,
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSecond),
		httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting waxline-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	if pgStore != nil {
		_ = pgStore.Close()
	}
	log.Println("Stopped")
}
