package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"review_pulse/internal/domain"
)

// rows per multi-value INSERT
const batchSize = 500

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// SaveRun stores a run and its rows in one transaction.
func (r *Repo) SaveRun(ctx context.Context, run domain.Run, reviews []domain.Review) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertRunSQL,
		run.ID,
		strings.Join(run.Locales, ","),
		run.Translate,
		run.FetchedAt,
		run.ReviewCount,
		valF64(run.AverageScore),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for start := 0; start < len(reviews); start += batchSize {
		end := start + batchSize
		if end > len(reviews) {
			end = len(reviews)
		}
		chunk := reviews[start:end]
		values := make([]string, 0, len(chunk))
		args := make([]any, 0, len(chunk)*9) // 9 params per row
		for _, rv := range chunk {
			values = append(values, "(?,?,?,?,?,?,?,?,?)")
			args = append(args,
				run.ID,
				valTime(rv.At),
				rv.Country,
				valStr(rv.Author),
				rv.Score,
				valStr(rv.AppVersion),
				rv.Text,
				valStr(rv.TranslatedText),
				valStr(rv.DeveloperReply),
			)
		}
		if _, err := tx.ExecContext(ctx, insertRunReviewsPrefix+strings.Join(values, ","), args...); err != nil {
			return fmt.Errorf("insert reviews for run %s: %w", run.ID, err)
		}
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (r *Repo) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, listRunsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Run
	for rows.Next() {
		var (
			run     domain.Run
			locales string
			avg     sql.NullFloat64
		)
		if err := rows.Scan(&run.ID, &locales, &run.Translate, &run.FetchedAt, &run.ReviewCount, &avg, &run.CreatedAt); err != nil {
			return nil, err
		}
		if locales != "" {
			run.Locales = strings.Split(locales, ",")
		}
		if avg.Valid {
			f := avg.Float64
			run.AverageScore = &f
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RunReviews loads the archived rows of one run in insertion order.
// Unknown runs yield domain.ErrNotFound.
func (r *Repo) RunReviews(ctx context.Context, runID string) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, listRunReviewsSQL, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var (
			rv                                  domain.Review
			at                                  sql.NullTime
			author, version, translated, replyS sql.NullString
		)
		if err := rows.Scan(&at, &rv.Country, &author, &rv.Score, &version, &rv.Text, &translated, &replyS); err != nil {
			return nil, err
		}
		if at.Valid {
			rv.At = at.Time
		}
		if author.Valid {
			s := author.String
			rv.Author = &s
		}
		if version.Valid {
			s := version.String
			rv.AppVersion = &s
		}
		if translated.Valid {
			s := translated.String
			rv.TranslatedText = &s
		}
		if replyS.Valid {
			s := replyS.String
			rv.DeveloperReply = &s
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		// an archived run may legitimately have no rows
		var one int
		err := r.db.QueryRowContext(ctx, runExistsSQL, runID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return []domain.Review{}, nil
	}
	return out, nil
}
