package domain

import "context"

type ReviewSource interface {
	// ListReviews returns the complete review history of an app for one
	// language/country pair.
	ListReviews(ctx context.Context, appID, lang, country string) ([]RawReview, error)
}

type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type RunArchive interface {
	SaveRun(ctx context.Context, run Run, reviews []Review) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	RunReviews(ctx context.Context, runID string) ([]Review, error)
}
