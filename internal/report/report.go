package report

import (
	"fmt"
	"strings"
	"time"

	"review_pulse/internal/domain"
)

const (
	StatusOK    = "ok"
	StatusEmpty = "empty"

	NoReviewsMessage = "no reviews found"
)

type Report struct {
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	FetchedAt time.Time       `json:"fetched_at"`
	Summary   Summary         `json:"summary"`
	Volume    []CountryStat   `json:"volume_by_country,omitempty"`
	Ratings   []CountryStat   `json:"rating_by_country,omitempty"`
	Weekly    []WeeklyPoint   `json:"weekly,omitempty"`
	Charts    *Charts         `json:"charts,omitempty"`
	Reviews   []domain.Review `json:"reviews"`
	Shown     int             `json:"shown"`
	Warnings  []string        `json:"warnings,omitempty"`
}

// Filter narrows the detail table. Zero values match everything.
type Filter struct {
	Country  string
	MinScore int
	MaxScore int
	Query    string // case-insensitive substring of text, translation or author
}

func (f Filter) match(rv domain.Review) bool {
	if f.Country != "" && !strings.EqualFold(f.Country, rv.Country) {
		return false
	}
	if f.MinScore > 0 && rv.Score < f.MinScore {
		return false
	}
	if f.MaxScore > 0 && rv.Score > f.MaxScore {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		hay := strings.ToLower(rv.Text + "\n" + opt(rv.TranslatedText) + "\n" + opt(rv.Author))
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// Apply returns the rows that match f, preserving order.
func (f Filter) Apply(rows []domain.Review) []domain.Review {
	if f == (Filter{}) {
		return rows
	}
	out := make([]domain.Review, 0, len(rows))
	for _, rv := range rows {
		if f.match(rv) {
			out = append(out, rv)
		}
	}
	return out
}

// Build renders a snapshot into the report view. Metrics and charts always
// cover the whole snapshot; f only narrows the detail rows.
func Build(snap domain.Snapshot, f Filter) Report {
	r := Report{
		FetchedAt: snap.FetchedAt,
		Warnings:  snap.Warnings,
		Reviews:   []domain.Review{},
	}
	if snap.Empty() {
		r.Status = StatusEmpty
		r.Message = NoReviewsMessage
		return r
	}

	r.Status = StatusOK
	r.Summary = Summarize(snap.Reviews)
	r.Volume = VolumeByCountry(snap.Reviews)
	r.Ratings = RatingByCountry(snap.Reviews)
	r.Weekly = Weekly(snap.Reviews)
	r.Charts = &Charts{
		Volume: volumeChart(r.Volume),
		Rating: ratingChart(r.Ratings),
		Trend:  trendChart(r.Weekly),
	}
	r.Reviews = f.Apply(snap.Reviews)
	r.Shown = len(r.Reviews)
	r.Message = fmt.Sprintf("%d unique reviews from %d countries", r.Summary.TotalReviews, r.Summary.CountryCount)
	return r
}
