package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"review_pulse/internal/adapters/observability"
	"review_pulse/internal/domain"
)

type Options struct {
	AppID        string
	TargetLang   string
	CacheTTL     time.Duration
	Workers      int           // >1 fetches locales concurrently
	BuildTimeout time.Duration // bounds one shared pipeline run; 0 leaves it unbounded
	Now          func() time.Time
}

// ReportService runs fetch → normalize → translate → dedupe and memoizes the
// resulting snapshot per (locales, translate) for CacheTTL.
type ReportService struct {
	source     domain.ReviewSource
	translator domain.Translator
	cache      domain.Cache
	archive    domain.RunArchive
	opts       Options
	group      singleflight.Group
}

// NewReportService wires the pipeline. cache and archive may be nil.
func NewReportService(src domain.ReviewSource, tr domain.Translator, cache domain.Cache, archive domain.RunArchive, opts Options) *ReportService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TargetLang == "" {
		opts.TargetLang = "tr"
	}
	return &ReportService{source: src, translator: tr, cache: cache, archive: archive, opts: opts}
}

func (s *ReportService) TargetLang() string { return s.opts.TargetLang }

// CacheKey identifies a generation by its sorted locale set and translate flag.
func CacheKey(locales []string, translate bool) string {
	flag := 0
	if translate {
		flag = 1
	}
	return fmt.Sprintf("reviews:v1:%s:translate=%d", strings.Join(locales, ","), flag)
}

// Generate returns the review table for locales. Within the cache TTL an
// identical request is answered from the cache without calling the review
// source or the translator.
func (s *ReportService) Generate(ctx context.Context, locales []string, translate bool) (domain.Snapshot, error) {
	if len(locales) == 0 {
		return domain.Snapshot{}, domain.ErrNoLocales
	}
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	locales = append([]string(nil), locales...)
	sort.Strings(locales)
	key := CacheKey(locales, translate)

	if s.cache != nil {
		var snap domain.Snapshot
		ok, err := s.cache.Get(ctx, key, &snap)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		} else if ok {
			return snap, nil
		}
	}

	// The shared run ignores caller cancellation; a run whose own context ends
	// is discarded, never cached or archived.
	ch := s.group.DoChan(key, func() (any, error) {
		buildCtx, cancel := s.buildContext(ctx)
		defer cancel()

		snap := s.build(buildCtx, locales, translate)
		if err := buildCtx.Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("report build interrupted; result discarded")
			return domain.Snapshot{}, err
		}
		if s.cache != nil {
			if err := s.cache.Set(buildCtx, key, snap, int(s.opts.CacheTTL.Seconds())); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("cache write failed")
			}
		}
		s.archiveRun(buildCtx, locales, translate, snap)
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Snapshot{}, res.Err
		}
		return res.Val.(domain.Snapshot), nil
	}
}

// buildContext keeps the caller's values but not its cancellation, bounded by
// BuildTimeout when set.
func (s *ReportService) buildContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.opts.BuildTimeout > 0 {
		return context.WithTimeout(detached, s.opts.BuildTimeout)
	}
	return context.WithCancel(detached)
}

func (s *ReportService) build(ctx context.Context, locales []string, translate bool) domain.Snapshot {
	snap := domain.Snapshot{Reviews: []domain.Review{}, FetchedAt: s.opts.Now()}

	raws, warnings := s.fetchAll(ctx, locales)
	snap.Warnings = warnings

	var rows []domain.Review
	for i, loc := range locales {
		if len(raws[i]) == 0 {
			continue
		}
		mapped, dropped := mapReviews(loc, raws[i])
		if dropped > 0 {
			observability.ObservePipelineN("rows_dropped", dropped)
		}
		rows = append(rows, mapped...)
	}
	if len(rows) == 0 {
		log.Info().Strs("locales", locales).Msg("no reviews found")
		return snap
	}

	if translate {
		translateRows(ctx, s.translator, rows, s.opts.TargetLang)
	}

	out := sortAndDedupe(rows)
	if n := len(rows) - len(out); n > 0 {
		observability.ObservePipelineN("duplicates_removed", n)
	}
	snap.Reviews = out
	log.Info().Strs("locales", locales).Bool("translate", translate).Int("rows", len(out)).Msg("report built")
	return snap
}

// fetchAll asks the review source for every locale. A failing locale becomes a
// user-visible warning and contributes no rows; the others are unaffected.
func (s *ReportService) fetchAll(ctx context.Context, locales []string) ([][]domain.RawReview, []string) {
	results := make([][]domain.RawReview, len(locales))
	errs := make([]error, len(locales))
	fetch := func(i int) {
		rs, err := s.source.ListReviews(ctx, s.opts.AppID, locales[i], locales[i])
		if err != nil {
			errs[i] = err
			return
		}
		results[i] = rs
	}

	if s.opts.Workers <= 1 {
		for i := range locales {
			fetch(i)
		}
	} else {
		sem := semaphore.NewWeighted(int64(s.opts.Workers))
		var wg sync.WaitGroup
		for i := range locales {
			// acquire before launching the goroutine; release inside it
			if err := sem.Acquire(ctx, 1); err != nil {
				errs[i] = err
				continue
			}
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer sem.Release(1)
				fetch(i)
			}(i)
		}
		wg.Wait()
	}

	var warnings []string
	for i, err := range errs {
		if err != nil {
			observability.ObservePipeline("locale_failed")
			log.Warn().Str("country", locales[i]).Err(err).Msg("fetch failed")
			warnings = append(warnings, fmt.Sprintf("reviews for '%s' could not be fetched: %v", locales[i], err))
			continue
		}
		log.Info().Str("country", locales[i]).Int("reviews", len(results[i])).Msg("fetch ok")
	}
	return results, warnings
}

func (s *ReportService) archiveRun(ctx context.Context, locales []string, translate bool, snap domain.Snapshot) {
	if s.archive == nil {
		return
	}
	run := domain.Run{
		ID:          uuid.NewString(),
		Locales:     locales,
		Translate:   translate,
		FetchedAt:   snap.FetchedAt,
		ReviewCount: len(snap.Reviews),
	}
	if n := len(snap.Reviews); n > 0 {
		sum := 0
		for _, rv := range snap.Reviews {
			sum += rv.Score
		}
		avg := float64(sum) / float64(n)
		run.AverageScore = &avg
	}
	if err := s.archive.SaveRun(ctx, run, snap.Reviews); err != nil {
		log.Error().Err(err).Str("run", run.ID).Msg("archive run failed")
	}
}

// ListRuns returns archived runs, newest first.
func (s *ReportService) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if s.archive == nil {
		return nil, domain.ErrNotFound
	}
	return s.archive.ListRuns(ctx, limit)
}

// RunReviews returns the rows archived with one run.
func (s *ReportService) RunReviews(ctx context.Context, runID string) ([]domain.Review, error) {
	if s.archive == nil {
		return nil, domain.ErrNotFound
	}
	return s.archive.RunReviews(ctx, runID)
}
