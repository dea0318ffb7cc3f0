package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appointmenthandler "clinica/internal/appointment/handler"
	appointmentservice "clinica/internal/appointment/service"
	appointmentstore "clinica/internal/appointment/store"
	"clinica/internal/auth"
	authhandler "clinica/internal/auth/handler"
	"clinica/internal/auth/store/revocation"
	clinichandler "clinica/internal/clinic/handler"
	clinicservice "clinica/internal/clinic/service"
	clinicstore "clinica/internal/clinic/store"
	"clinica/internal/jwttoken"
	"clinica/internal/platform/config"
	"clinica/internal/platform/httpserver"
	"clinica/internal/platform/logger"
	"clinica/internal/platform/metrics"
	"clinica/internal/platform/middleware"
	platformpg "clinica/internal/platform/postgres"
	platformredis "clinica/internal/platform/redis"
	"clinica/pkg/platform/audit"
	"clinica/pkg/platform/audit/publisher"
	auditmem "clinica/pkg/platform/audit/store/memory"
	auditpg "clinica/pkg/platform/audit/store/postgres"
)

const requestTimeout = 30 * time.Second

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx := context.Background()

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = platformpg.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := platformpg.Migrate(ctx, db); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		log.Warn("REDIS_URL not set, token revocation disabled")
	}

	m := metrics.New()
	tokens := jwttoken.NewService(cfg.JWTSigningKey, "clinica", cfg.TokenTTL)

	var auditStore audit.Store
	if db != nil {
		auditStore = auditpg.New(db)
	} else {
		auditStore = auditmem.NewInMemoryStore()
	}
	var publisherOpts []publisher.Option
	if cfg.AuditBuffer > 0 {
		publisherOpts = append(publisherOpts, publisher.WithAsyncBuffer(cfg.AuditBuffer))
	}
	auditPublisher := publisher.NewPublisher(auditStore, publisherOpts...)
	defer auditPublisher.Close()

	var (
		persons      clinicstore.PersonStore
		patients     clinicstore.PatientStore
		providers    clinicstore.ProviderStore
		appointments appointmentstore.Store
		users        auth.UserStore
		clinicTx     clinicservice.StoreTx
	)
	if db != nil {
		persons = clinicstore.NewPostgresPersonStore(db)
		patients = clinicstore.NewPostgresPatientStore(db)
		providers = clinicstore.NewPostgresProviderStore(db)
		appointments = appointmentstore.NewPostgresStore(db)
		users = auth.NewPostgresUserStore(db)
		clinicTx = newPostgresStoreTx(db)
	} else {
		persons = clinicstore.NewInMemoryPersonStore()
		patients = clinicstore.NewInMemoryPatientStore()
		providers = clinicstore.NewInMemoryProviderStore()
		appointments = appointmentstore.NewInMemoryStore()
		users = auth.NewInMemoryUserStore()
	}

	appointmentSvc := appointmentservice.New(appointments, patients, providers,
		appointmentservice.WithLogger(log),
		appointmentservice.WithAuditPublisher(auditPublisher),
		appointmentservice.WithMetrics(m),
	)

	clinicOpts := []clinicservice.Option{
		clinicservice.WithLogger(log),
		clinicservice.WithAuditPublisher(auditPublisher),
		clinicservice.WithMetrics(m),
	}
	if clinicTx != nil {
		clinicOpts = append(clinicOpts, clinicservice.WithTx(clinicTx))
	}
	clinicSvc := clinicservice.New(persons, patients, providers, appointmentSvc, clinicOpts...)

	authOpts := []auth.Option{
		auth.WithLogger(log),
		auth.WithAuditPublisher(auditPublisher),
		auth.WithMetrics(m),
	}
	var revocations middleware.RevocationChecker
	if redisClient != nil {
		trl := revocation.NewRedisTRL(redisClient.Client)
		revocations = trl
		authOpts = append(authOpts, auth.WithRevoker(trl))
	}
	authSvc := auth.NewService(users, tokens, authOpts...)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.ClientMetadata)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(requestTimeout))
	router.Use(middleware.Latency(m))

	authhandler.New(authSvc, log, tokens, revocations).Register(router)
	clinichandler.New(clinicSvc, log, tokens, revocations).Register(router)
	appointmenthandler.New(appointmentSvc, log, tokens, revocations).Register(router)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthz(db, redisClient))

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting clinica", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func healthz(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
