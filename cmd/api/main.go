package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"imoveis/internal/adapters/auth"
	server "imoveis/internal/adapters/http_server"
	"imoveis/internal/adapters/objectstore"
	"imoveis/internal/adapters/observability"
	redisad "imoveis/internal/adapters/redis"
	"imoveis/internal/adapters/whatsapp"
	"imoveis/internal/app"
	"imoveis/internal/domain"
	"imoveis/internal/shared"
	mysqlrepo "imoveis/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable; reads will bypass the cache")
	}

	media, err := objectstore.New(objectstore.Options{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		UseSSL:    cfg.S3UseSSL,
		PublicURL: cfg.MediaBaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("object storage init failed")
	}
	if err := media.EnsureBucket(ctx, cfg.S3Region); err != nil {
		log.Warn().Err(err).Str("bucket", cfg.S3Bucket).Msg("bucket check failed")
	}

	var notifier domain.LeadNotifier
	if cfg.WhatsAppToken != "" {
		wa, err := whatsapp.New(cfg.WhatsAppBase, cfg.WhatsAppPhoneID, cfg.WhatsAppToken, 5)
		if err != nil {
			log.Fatal().Err(err).Msg("whatsapp client init failed")
		}
		notifier = wa
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("auth init failed")
	}

	// deps
	repo := mysqlrepo.New(db)
	h := &server.Handlers{
		Q:            app.NewQueryService(repo, cache, cfg.CacheTTL),
		P:            app.NewPropertyService(repo, media, cache, cfg.UploadWorkers, cfg.PresignTTL),
		Leads:        app.NewLeadService(repo, notifier, cfg.BrokerWhatsApp),
		Auth:         issuer,
		ItemsPerPage: cfg.ItemsPerPage,
		LeadsRPS:     cfg.LeadsRPS,
	}

	// http
	srv := server.New(cfg.RequestTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
