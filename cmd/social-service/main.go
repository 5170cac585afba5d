package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-social-network/internal/cache"
	"github.com/pribylovaa/go-social-network/internal/config"
	"github.com/pribylovaa/go-social-network/internal/metrics"
	"github.com/pribylovaa/go-social-network/internal/service"
	"github.com/pribylovaa/go-social-network/internal/session"
	"github.com/pribylovaa/go-social-network/internal/storage"
	"github.com/pribylovaa/go-social-network/internal/storage/memory"
	"github.com/pribylovaa/go-social-network/internal/storage/mongo"
	httpapi "github.com/pribylovaa/go-social-network/internal/transport/http"
	"github.com/pribylovaa/go-social-network/pkg/interceptors"
	applog "github.com/pribylovaa/go-social-network/pkg/log"
	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := applog.New(cfg.Env, os.Stdout)
	slog.SetDefault(log)
	log.Info("starting social-service", "env", cfg.Env, "db_driver", cfg.DB.Driver)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	var store storage.Storage
	switch cfg.DB.Driver {
	case config.DriverMemory:
		store = memory.New(cfg)
		log.Info("memory_storage_initialized")
	default:
		dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
		mg, err := mongo.New(dbCtx, cfg)
		dbCancel()
		if err != nil {
			log.Error("mongo_connect_failed", slog.String("err", err.Error()))
			rootCancel()
			os.Exit(1)
		}
		store = mg
		log.Info("mongo_connected")
	}

	var usersCache cache.UsersCache = cache.Noop{}
	if cfg.Redis.URL != "" {
		redisCtx, redisCancel := context.WithTimeout(rootCtx, 5*time.Second)
		rc, err := cache.NewRedisCache(redisCtx, cfg.Redis.URL, cfg.Redis.Prefix, cfg.Redis.TTL)
		redisCancel()
		if err != nil {
			log.Error("redis_connect_failed", slog.String("err", err.Error()))
			rootCancel()
			_ = store.Close(context.Background())
			os.Exit(1)
		}
		usersCache = rc
		log.Info("redis_connected")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	svc := service.New(store, usersCache, m, *cfg)
	verifier := session.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
	log.Info("service_initialized")

	var ready int32 // 0 — not ready; 1 — ready
	httpAddr := cfg.HTTP.Addr()

	apiHandler := httpapi.NewRouter(svc, verifier, m, httpapi.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Service,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", apiHandler)

	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http_listen_start", "addr", httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}()

	grpcOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			interceptors.Recover(log),
			interceptors.UnaryLoggingInterceptor(log),
			interceptors.WithTimeout(cfg.Timeouts.Service),
			grpc_prometheus.UnaryServerInterceptor,
		),
		grpc.ChainStreamInterceptor(
			interceptors.RecoverStream(log),
			interceptors.StreamLoggingInterceptor(log),
			grpc_prometheus.StreamServerInterceptor,
		),
	}
	grpcServer := grpc.NewServer(grpcOpts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	if cfg.Env == applog.EnvLocal || cfg.Env == applog.EnvDev {
		reflection.Register(grpcServer)
	}

	grpc_prometheus.Register(grpcServer)

	addr := cfg.GRPC.Addr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("grpc_listen_failed",
			slog.String("addr", addr),
			slog.String("err", err.Error()),
		)
		rootCancel()
		_ = httpSrv.Shutdown(context.Background())
		_ = usersCache.Close()
		_ = store.Close(context.Background())
		os.Exit(1)
	}
	log.Info("grpc_listen_start", slog.String("addr", addr))

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	atomic.StoreInt32(&ready, 1)

	serveErrCh := make(chan error, 1)
	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("grpc_serve_failed", slog.String("err", err.Error()))
		}
	}

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	atomic.StoreInt32(&ready, 0)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc_stopped")
	case <-shutdownCtx.Done():
		log.Warn("grpc_force_stop")
		grpcServer.Stop()
	}

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_failed", slog.String("err", err.Error()))
	}
	shutdownCancel()

	rootCancel()

	if err := usersCache.Close(); err != nil {
		log.Warn("redis_close_failed", slog.String("err", err.Error()))
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Close(closeCtx); err != nil {
		log.Warn("storage_close_failed", slog.String("err", err.Error()))
	}
	closeCancel()

	log.Info("service_stopped")
	os.Exit(0)
}
