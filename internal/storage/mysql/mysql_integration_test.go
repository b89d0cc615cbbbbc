//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"review_pulse/internal/domain"
	mysqlrepo "review_pulse/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string     { return &s }
func pfloat(f float64) *float64 { return &f }

func migrationsDir(t *testing.T) string {
	t.Helper()
	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		t.Skip("MIGRATIONS_DIR not set; export it (e.g. MIGRATIONS_DIR=$PWD/migrations)")
	}
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	return dir
}

func applyMigrations(t *testing.T, db *sql.DB, dir string) {
	t.Helper()
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=reviews",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/reviews?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC", hostPort)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// ---------- the test ----------
func TestRepo_MySQL_SaveAndListRuns(t *testing.T) {
	dir := migrationsDir(t)
	db := startMySQL(t)
	applyMigrations(t, db, dir)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	fetched := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	run := domain.Run{
		ID:           "7d1f3a52-5a4e-4a57-9a1c-0c1f3f4b2e11",
		Locales:      []string{"gb", "tr"},
		Translate:    true,
		FetchedAt:    fetched,
		ReviewCount:  2,
		AverageScore: pfloat(4.5),
	}
	rows := []domain.Review{
		{
			At:             time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC),
			Country:        "GB",
			Author:         pstr("Ana"),
			Score:          5,
			AppVersion:     pstr("1.4.2"),
			Text:           "great game",
			TranslatedText: pstr("harika oyun"),
		},
		{
			Country:        "TR",
			Score:          4,
			Text:           "güzel ⭐",
			DeveloperReply: pstr("Teşekkürler"),
		},
	}
	if err := repo.SaveRun(ctx, run, rows); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	runs, err := repo.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != run.ID || !got.Translate || got.ReviewCount != 2 || len(got.Locales) != 2 {
		t.Fatalf("unexpected run: %+v", got)
	}
	if !got.FetchedAt.Equal(fetched) || got.AverageScore == nil || *got.AverageScore != 4.5 {
		t.Fatalf("unexpected run values: %+v", got)
	}

	stored, err := repo.RunReviews(ctx, run.ID)
	if err != nil {
		t.Fatalf("RunReviews: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored rows = %d, want 2", len(stored))
	}
	if stored[0].Author == nil || *stored[0].Author != "Ana" || stored[0].TranslatedText == nil {
		t.Fatalf("unexpected first row: %+v", stored[0])
	}
	if !stored[1].At.IsZero() || stored[1].Author != nil || stored[1].Text != "güzel ⭐" {
		t.Fatalf("unexpected second row: %+v", stored[1])
	}

	if _, err := repo.RunReviews(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("RunReviews(missing) err = %v, want ErrNotFound", err)
	}

	emptyRun := domain.Run{ID: "0b6c3a3e-7f59-4a5e-8a43-3d1bb7d1f0a2", Locales: []string{"us"}, FetchedAt: fetched}
	if err := repo.SaveRun(ctx, emptyRun, nil); err != nil {
		t.Fatalf("SaveRun(empty): %v", err)
	}
	none, err := repo.RunReviews(ctx, emptyRun.ID)
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("RunReviews(empty run) = %v, %v", none, err)
	}
}
