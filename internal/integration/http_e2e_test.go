//go:build integration || !unit

package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	server "review_pulse/internal/adapters/http_server"
	"review_pulse/internal/adapters/playstore"
	redisad "review_pulse/internal/adapters/redis"
	"review_pulse/internal/adapters/translate"
	"review_pulse/internal/app"
	"review_pulse/internal/domain"
)

const appID = "com.supergears.racingkingdom"

// ---------- fake upstreams ----------

func storeServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	pages := map[string]map[string]any{
		"gb|": {
			"reviews": []map[string]any{
				{"userName": "Ann", "content": "great game", "score": 5, "at": "2024-01-10T08:00:00Z", "appVersion": "1.2.0"},
			},
			"next_token": "p2",
		},
		"gb|p2": {
			"reviews": []map[string]any{
				{"userName": "Bob", "content": "too many ads", "score": 2, "at": "2024-01-03T09:00:00+03:00", "replyContent": "Thanks"},
			},
		},
		"tr|": {
			"reviews": []map[string]any{
				{"userName": "Ali", "content": "iyi oyun", "score": 5, "at": "2024-01-10 12:00:00"},
				{"userName": "Ali", "content": "iyi oyun", "score": 5, "at": "2024-01-10 12:00:00"},
				{"userName": "Can", "content": "   ", "score": 1, "at": "2024-01-10 13:00:00"},
			},
		},
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path != "/apps/"+appID+"/reviews" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("lang") != q.Get("country") {
			t.Errorf("lang and country differ: %s", r.URL.RawQuery)
		}
		if q.Get("country") == "de" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		page, ok := pages[q.Get("country")+"|"+q.Get("token")]
		if !ok {
			page = map[string]any{"reviews": []any{}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	}))
}

func translateServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		var body struct {
			Q      string `json:"q"`
			Target string `json:"target"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode translate body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"translations": []map[string]any{{"translatedText": "[" + body.Target + "] " + body.Q}}},
		})
	}))
}

type reportResponse struct {
	Status  string `json:"status"`
	Summary struct {
		AverageScore float64 `json:"average_score"`
		TotalReviews int     `json:"total_reviews"`
		CountryCount int     `json:"country_count"`
	} `json:"summary"`
	Reviews  []domain.Review `json:"reviews"`
	Warnings []string        `json:"warnings"`
}

// ---------- the test ----------

func TestHTTP_E2E_ReportThroughRealAdapters(t *testing.T) {
	var storeHits, translateCalls int32
	store := storeServer(t, &storeHits)
	defer store.Close()
	tr := translateServer(t, &translateCalls)
	defer tr.Close()
	mr := miniredis.RunT(t)

	src, err := playstore.New(store.URL, "", 100)
	if err != nil {
		t.Fatalf("playstore.New: %v", err)
	}
	svc := app.NewReportService(
		src,
		translate.New(tr.URL, "key", 2*time.Second, 0),
		redisad.New(mr.Addr(), "", 0),
		nil,
		app.Options{AppID: appID, TargetLang: "tr", CacheTTL: 8 * time.Hour},
	)
	srv := server.New(10 * time.Second)
	srv.MountHandlers(&server.Handlers{R: svc, DefaultCountries: "gb, us, de, tr", ExportPrefix: "RacingKingdom_Review_Analysis"})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	fetch := func() reportResponse {
		t.Helper()
		resp, err := http.Get(ts.URL + "/v1/report?countries=GB,%20de,%20tr&translate=true")
		if err != nil {
			t.Fatalf("GET report: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var out reportResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return out
	}

	first := fetch()
	if first.Status != "ok" || first.Summary.TotalReviews != 3 || first.Summary.CountryCount != 2 || first.Summary.AverageScore != 4 {
		t.Fatalf("unexpected summary: %+v", first)
	}
	if len(first.Warnings) != 1 || !strings.Contains(first.Warnings[0], "'de'") {
		t.Fatalf("expected one warning for de, got %v", first.Warnings)
	}

	// newest first; offsets dropped, wall clock kept
	rows := first.Reviews
	if rows[0].Country != "TR" || rows[0].TranslatedText != nil {
		t.Fatalf("row 0: %+v", rows[0])
	}
	if rows[1].Country != "GB" || rows[1].TranslatedText == nil || *rows[1].TranslatedText != "[tr] great game" {
		t.Fatalf("row 1: %+v", rows[1])
	}
	if want := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC); !rows[2].At.Equal(want) || rows[2].DeveloperReply == nil {
		t.Fatalf("row 2: %+v", rows[2])
	}
	if got := atomic.LoadInt32(&translateCalls); got != 2 {
		t.Fatalf("translate calls = %d, want 2", got)
	}
	hitsAfterFirst := atomic.LoadInt32(&storeHits)
	if hitsAfterFirst != 4 {
		t.Fatalf("store hits = %d, want 4 (gb two pages, de, tr)", hitsAfterFirst)
	}
	if !mr.Exists(app.CacheKey([]string{"de", "gb", "tr"}, true)) {
		t.Fatalf("expected snapshot cached in redis")
	}

	// within the TTL nothing upstream is called
	_ = fetch()
	if atomic.LoadInt32(&storeHits) != hitsAfterFirst || atomic.LoadInt32(&translateCalls) != 2 {
		t.Fatalf("cached request reached upstreams")
	}

	// after the TTL a fresh generation runs
	mr.FastForward(8*time.Hour + time.Second)
	_ = fetch()
	if atomic.LoadInt32(&storeHits) != 2*hitsAfterFirst {
		t.Fatalf("expected a fresh fetch after expiry, hits=%d", atomic.LoadInt32(&storeHits))
	}
}

func TestHTTP_E2E_ExportWithoutReviews(t *testing.T) {
	var storeHits int32
	store := storeServer(t, &storeHits)
	defer store.Close()

	src, err := playstore.New(store.URL, "", 100)
	if err != nil {
		t.Fatalf("playstore.New: %v", err)
	}
	svc := app.NewReportService(src, translate.New("http://127.0.0.1:0", "", time.Second, 0), nil, nil, app.Options{AppID: appID})
	srv := server.New(10 * time.Second)
	srv.MountHandlers(&server.Handlers{R: svc, DefaultCountries: "gb, us, de, tr", ExportPrefix: "RacingKingdom_Review_Analysis"})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/report/export?countries=us")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
