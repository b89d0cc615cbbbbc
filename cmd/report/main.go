package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"review_pulse/internal/adapters/observability"
	"review_pulse/internal/adapters/playstore"
	"review_pulse/internal/adapters/translate"
	"review_pulse/internal/app"
	"review_pulse/internal/domain"
	"review_pulse/internal/report"
	"review_pulse/internal/shared"
	mysqlrepo "review_pulse/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, os.Stderr)
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	countries := flag.String("countries", cfg.DefaultCountries, "comma-separated store country codes, e.g. \"gb, us, de, tr\"")
	doTranslate := flag.Bool("translate", false, "translate reviews into "+cfg.TargetLang+" (slow)")
	outDir := flag.String("out", ".", "directory for the CSV export")
	flag.Parse()

	locales, err := app.ParseLocales(*countries)
	if err != nil {
		log.Error().Err(err).Msg("nothing to fetch")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var archive domain.RunArchive
	if cfg.MySQLDSN != "" {
		db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		defer db.Close()
		archive = mysqlrepo.New(db)
	}

	src, err := playstore.New(cfg.StoreBase, cfg.StoreKey, cfg.StoreRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize review source client")
	}
	tr := translate.New(cfg.TranslateBase, cfg.TranslateKey, 30*time.Second, cfg.TranslateRPS)

	// one-shot run: nothing to share a cache with
	svc := app.NewReportService(src, tr, nil, archive, app.Options{
		AppID:      cfg.AppID,
		TargetLang: cfg.TargetLang,
		Workers:    cfg.Workers,
	})

	log.Info().Strs("locales", locales).Bool("translate", *doTranslate).Str("app", cfg.AppID).Msg("fetching reviews")
	snap, err := svc.Generate(ctx, locales, *doTranslate)
	if errors.Is(err, domain.ErrNoLocales) {
		log.Error().Err(err).Msg("nothing to fetch")
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("report generation failed")
	}
	for _, w := range snap.Warnings {
		log.Warn().Msg(w)
	}

	rep := report.Build(snap, report.Filter{})
	if rep.Status == report.StatusEmpty {
		log.Warn().Time("fetched_at", rep.FetchedAt).Msg(rep.Message)
		return
	}

	log.Info().
		Float64("average_score", rep.Summary.AverageScore).
		Int("total_reviews", rep.Summary.TotalReviews).
		Int("country_count", rep.Summary.CountryCount).
		Time("fetched_at", rep.FetchedAt).
		Msg(rep.Message)
	for _, c := range rep.Volume {
		log.Info().Str("country", c.Country).Int("count", c.Count).Float64("average_score", c.AverageScore).Msg("country")
	}
	for _, p := range rep.Weekly {
		log.Info().Str("week_ending", p.WeekEnding.Format("2006-01-02")).Int("count", p.Count).Float64("average_score", p.AverageScore).Msg("week")
	}

	path := filepath.Join(*outDir, report.ExportFilename(cfg.ExportPrefix, time.Now()))
	f, err := os.Create(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("create export failed")
	}
	if err := report.WriteCSV(f, snap.Reviews, cfg.TargetLang); err != nil {
		f.Close()
		log.Fatal().Err(err).Str("file", path).Msg("write export failed")
	}
	if err := f.Close(); err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("close export failed")
	}
	log.Info().Str("file", path).Int("rows", len(snap.Reviews)).Msg("export written")
}
