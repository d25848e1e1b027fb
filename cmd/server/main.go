package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"home-services-api/internal/config"
	gweb "home-services-api/internal/grpcweb"
	"home-services-api/internal/handler"
	"home-services-api/internal/metrics"
	"home-services-api/internal/middleware"
	"home-services-api/internal/rpc"
	"home-services-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log, err := cfg.Logger()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	st, closeStore := openStore(cfg, log)
	defer closeStore()

	m := metrics.New()
	h := handler.New(st, cfg.JWTSecret,
		handler.WithLogger(log),
		handler.WithMetrics(m),
		handler.WithTokenTTL(cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		handler.WithExpiringWindow(cfg.ExpiringWindow()),
	)

	// grpc server
	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer rl.Stop()
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			m.UnaryInterceptor(),
			middleware.Logging(log),
			middleware.RateLimit(rl),
			middleware.Auth(cfg.JWTSecret),
			middleware.RoleGate(),
		),
	)
	rpc.RegisterAuthServiceServer(srv, h)
	rpc.RegisterUserServiceServer(srv, h)
	rpc.RegisterHomeServiceServer(srv, h)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	go func() {
		log.Infof("grpc on :%s", cfg.Port)
		if err := srv.Serve(lis); err != nil {
			log.Errorf("grpc: %v", err)
		}
	}()

	// grpc-web bridge -> forwards browser requests to grpc on localhost
	bridge, err := gweb.New("localhost:"+cfg.Port, log)
	if err != nil {
		log.Fatalf("bridge: %v", err)
	}
	defer bridge.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/", bridge.Handler())

	httpSrv := &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("grpc-web on :%s", cfg.WebPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http: %v", err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Info("shutting down")
	hs.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}
	srv.GracefulStop()
}

// openStore connects the configured repository. Postgres gets the schema
// applied on start; the memory store is for local runs and demos.
func openStore(cfg *config.Config, log *logrus.Logger) (store.Repository, func()) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store, data is lost on exit")
		return store.NewMemory(), func() {}
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	log.Info("connected to postgres")

	// run migrations
	if migration, err := os.ReadFile(cfg.MigrationPath); err != nil {
		log.Warnf("migration file not found, skipping: %v", err)
	} else if _, err := pool.Exec(ctx, string(migration)); err != nil {
		log.Warnf("migration warning: %v", err)
	} else {
		log.Info("migration applied")
	}

	return store.New(pool), pool.Close
}
