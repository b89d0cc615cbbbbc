package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"review_pulse/internal/adapters/observability"
	"review_pulse/internal/domain"
)

// translateRows fills TranslatedText for every row written in a language
// other than target. A failed call marks only its own row with
// domain.TranslationFailed; the batch always completes.
func translateRows(ctx context.Context, t domain.Translator, rows []domain.Review, target string) {
	target = strings.ToLower(target)
	failed := 0
	for i := range rows {
		rows[i].TranslatedText = translateOne(ctx, t, rows[i], target)
		if rows[i].TranslatedText != nil && *rows[i].TranslatedText == domain.TranslationFailed {
			failed++
		}
	}
	if failed > 0 {
		log.Warn().Int("failed", failed).Int("rows", len(rows)).Msg("some translations failed")
	}
}

func translateOne(ctx context.Context, t domain.Translator, rv domain.Review, target string) *string {
	if strings.ToLower(rv.Country) == target || strings.TrimSpace(rv.Text) == "" {
		observability.ObservePipeline("translation_skipped")
		return nil
	}
	out, err := t.Translate(ctx, rv.Text, target)
	if err != nil {
		observability.ObservePipeline("translation_failed")
		log.Debug().Err(err).Str("country", rv.Country).Msg("translation failed")
		s := domain.TranslationFailed
		return &s
	}
	return &out
}
