package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "review_pulse/internal/adapters/http_server"
	"review_pulse/internal/adapters/memcache"
	"review_pulse/internal/adapters/observability"
	"review_pulse/internal/adapters/playstore"
	redisad "review_pulse/internal/adapters/redis"
	"review_pulse/internal/adapters/translate"
	"review_pulse/internal/app"
	"review_pulse/internal/domain"
	"review_pulse/internal/shared"
	mysqlrepo "review_pulse/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, os.Stdout)
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// result cache: shared Redis when configured, otherwise in process
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rc.Ping(ctx); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
		}
		cancel()
		defer rc.Close()
		cache = rc
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache ok")
	} else {
		cache = memcache.New(time.Now)
		log.Info().Msg("using in-process cache")
	}

	// optional run archive
	var archive domain.RunArchive
	if cfg.MySQLDSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		defer db.Close()
		archive = mysqlrepo.New(db)
		log.Info().Msg("database connection ok")
	}

	src, err := playstore.New(cfg.StoreBase, cfg.StoreKey, cfg.StoreRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize review source client")
	}
	tr := translate.New(cfg.TranslateBase, cfg.TranslateKey, 30*time.Second, cfg.TranslateRPS)

	svc := app.NewReportService(src, tr, cache, archive, app.Options{
		AppID:        cfg.AppID,
		TargetLang:   cfg.TargetLang,
		CacheTTL:     cfg.CacheTTL,
		Workers:      cfg.Workers,
		BuildTimeout: cfg.RequestTimeout,
	})

	// http
	srv := server.New(cfg.RequestTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		R:                svc,
		DefaultCountries: cfg.DefaultCountries,
		ExportPrefix:     cfg.ExportPrefix,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("app", cfg.AppID).
		Bool("archive", archive != nil).
		Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
