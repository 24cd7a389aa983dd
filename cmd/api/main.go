package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"floorline.org/internal/access"
	"floorline.org/internal/audit"
	"floorline.org/internal/httpapi"
	"floorline.org/internal/obs"
	"floorline.org/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	dsn := os.Getenv("FLOORLINE_PG_DSN")
	if dsn == "" {
		log.Fatal("FLOORLINE_PG_DSN is required")
	}
	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	accessSvc, err := access.NewService(store)
	if err != nil {
		log.Fatalf("access service: %v", err)
	}
	auditSvc, err := audit.NewService(store)
	if err != nil {
		log.Fatalf("audit service: %v", err)
	}
	engine, err := access.NewEngine(store, store)
	if err != nil {
		log.Fatalf("authorization engine: %v", err)
	}
	resolver, err := access.NewResolver(store, store)
	if err != nil {
		log.Fatalf("tenant resolver: %v", err)
	}

	// Make sure the deployed catalog is present before serving traffic.
	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := accessSvc.EnsureCatalog(ctx); err != nil {
			cancel()
			log.Fatalf("ensure permission catalog: %v", err)
		}
		cancel()
	}

	api := httpapi.New(httpapi.Deps{
		Ready:      httpapi.ReadyProbe{DB: store.DB()},
		Version:    version,
		Access:     accessSvc,
		Audit:      auditSvc,
		Engine:     engine,
		Resolver:   resolver,
		Principals: store,
	})

	handler := api.Handler()
	handler = httpapi.RateLimit(handler, 50, 25)
	handler = httpapi.MaxBodyBytes(handler, 1<<20)
	handler = httpapi.SecurityHeaders(handler)
	handler = httpapi.Logging(handler)
	handler = httpapi.RequestID(handler)

	addr := os.Getenv("FLOORLINE_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting floorline-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = store.Close()
	log.Println("Stopped")
}
