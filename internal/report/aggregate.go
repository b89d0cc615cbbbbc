// Package report turns a review snapshot into summary metrics, per-country
// breakdowns, a weekly series, chart datasets and a CSV export.
package report

import (
	"sort"
	"time"

	"review_pulse/internal/domain"
)

type Summary struct {
	AverageScore float64 `json:"average_score"`
	TotalReviews int     `json:"total_reviews"`
	CountryCount int     `json:"country_count"`
}

type CountryStat struct {
	Country      string  `json:"country"`
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
}

type WeeklyPoint struct {
	WeekEnding   time.Time `json:"week_ending"` // Sunday closing the bucket
	Count        int       `json:"count"`
	AverageScore float64   `json:"average_score"`
}

func Summarize(rows []domain.Review) Summary {
	if len(rows) == 0 {
		return Summary{}
	}
	sum := 0
	countries := make(map[string]struct{})
	for _, rv := range rows {
		sum += rv.Score
		countries[rv.Country] = struct{}{}
	}
	return Summary{
		AverageScore: float64(sum) / float64(len(rows)),
		TotalReviews: len(rows),
		CountryCount: len(countries),
	}
}

func byCountry(rows []domain.Review) []CountryStat {
	idx := make(map[string]int)
	var out []CountryStat
	sums := make(map[string]int)
	for _, rv := range rows {
		i, ok := idx[rv.Country]
		if !ok {
			i = len(out)
			idx[rv.Country] = i
			out = append(out, CountryStat{Country: rv.Country})
		}
		out[i].Count++
		sums[rv.Country] += rv.Score
	}
	for i := range out {
		out[i].AverageScore = float64(sums[out[i].Country]) / float64(out[i].Count)
	}
	return out
}

// VolumeByCountry orders countries by review count, largest first.
func VolumeByCountry(rows []domain.Review) []CountryStat {
	out := byCountry(rows)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Country < out[j].Country
	})
	return out
}

// RatingByCountry orders countries by mean score, highest first.
func RatingByCountry(rows []domain.Review) []CountryStat {
	out := byCountry(rows)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AverageScore != out[j].AverageScore {
			return out[i].AverageScore > out[j].AverageScore
		}
		return out[i].Country < out[j].Country
	})
	return out
}

// weekEnding returns the Sunday that closes t's Monday-to-Sunday week.
func weekEnding(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, (7-int(day.Weekday()))%7)
}

// Weekly buckets rows into weeks ending on Sunday. Weeks without reviews are
// left out rather than reported as zero, and undated rows are ignored.
func Weekly(rows []domain.Review) []WeeklyPoint {
	type acc struct{ n, sum int }
	buckets := make(map[time.Time]*acc)
	for _, rv := range rows {
		if rv.At.IsZero() {
			continue
		}
		k := weekEnding(rv.At)
		b, ok := buckets[k]
		if !ok {
			b = &acc{}
			buckets[k] = b
		}
		b.n++
		b.sum += rv.Score
	}
	out := make([]WeeklyPoint, 0, len(buckets))
	for k, b := range buckets {
		out = append(out, WeeklyPoint{WeekEnding: k, Count: b.n, AverageScore: float64(b.sum) / float64(b.n)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekEnding.Before(out[j].WeekEnding) })
	return out
}
