package app

import (
	"strconv"
	"strings"
	"time"

	"review_pulse/internal/domain"
)

/********** alias registry (single source of truth) **********/

var reviewAliases = map[string][]string{
	"author":  {"userName", "user_name", "author", "author.name"},
	"text":    {"content", "text", "body"},
	"score":   {"score", "rating"},
	"at":      {"at", "date", "created_at"},
	"reply":   {"replyContent", "reply_content", "reply", "reply.content"},
	"version": {"appVersion", "app_version", "reviewCreatedVersion"},
}

// naive layouts tried after RFC3339; all of them are read as wall clock.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstString returns the first alias holding a string, even an empty one.
func firstString(m map[string]any, key string) (string, bool) {
	for _, p := range reviewAliases[key] {
		if s, ok := lookupAny(m, p).(string); ok {
			return s, true
		}
	}
	return "", false
}

// firstNonEmpty: first non-empty string for a named alias set.
func firstNonEmpty(m map[string]any, key string) *string {
	for _, p := range reviewAliases[key] {
		if s, ok := lookupAny(m, p).(string); ok && s != "" {
			return &s
		}
	}
	return nil
}

// getFloatFlexible: number from several paths (float64/int/string like "4,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// stripZone keeps the wall clock of t and drops its offset. This is not a
// conversion to UTC: 10:00+03:00 becomes 10:00, not 07:00.
func stripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// parseTimestamp accepts RFC3339, naive date-times and unix seconds.
func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return stripZone(ts), true
		}
		for _, layout := range naiveLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
	case float64:
		sec := int64(t)
		return time.Unix(sec, int64((t-float64(sec))*1e9)).UTC(), true
	case int64:
		return time.Unix(t, 0).UTC(), true
	case int:
		return time.Unix(int64(t), 0).UTC(), true
	}
	return time.Time{}, false
}

/********** reviews mapper **********/

// mapReviews normalizes the raw records of one country. Records without a
// string text, without a numeric score, or with blank text are dropped; the
// second return value counts them.
func mapReviews(country string, in []domain.RawReview) ([]domain.Review, int) {
	out := make([]domain.Review, 0, len(in))
	dropped := 0
	cc := strings.ToUpper(country)
	for _, r := range in {
		text, ok := firstString(r, "text")
		if !ok || strings.TrimSpace(text) == "" {
			dropped++
			continue
		}
		score := getFloatFlexible(r, reviewAliases["score"]...)
		if score == nil {
			dropped++
			continue
		}

		rv := domain.Review{
			Country:        cc,
			Text:           text,
			Score:          int(*score),
			AppVersion:     firstNonEmpty(r, "version"),
			DeveloperReply: firstNonEmpty(r, "reply"),
		}
		if s, ok := firstString(r, "author"); ok {
			rv.Author = &s
		}
		for _, p := range reviewAliases["at"] {
			if ts, ok := parseTimestamp(lookupAny(r, p)); ok {
				rv.At = ts
				break
			}
		}
		out = append(out, rv)
	}
	return out, dropped
}
