package bardata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRecentBarsParsesAggregates(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v2/aggs/ticker/C:EURUSD/range/15/minute/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("apiKey") == "" {
			t.Error("request is missing the api key")
		}
		type agg struct {
			T int64   `json:"t"`
			O float64 `json:"o"`
			H float64 `json:"h"`
			L float64 `json:"l"`
			C float64 `json:"c"`
			V float64 `json:"v"`
		}
		results := make([]agg, 30)
		for i := range results {
			ts := start.Add(time.Duration(i) * 15 * time.Minute)
			results[i] = agg{T: ts.UnixMilli(), O: 1.1, H: 1.2, L: 1.0, C: 1.15, V: 500}
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "OK", "results": results})
	}))
	defer server.Close()

	settings := &staticSettings{key: "test-key"}
	source := NewPolygonSource(server.URL, settings, slog.Default())

	frame, err := source.RecentBars(context.Background(), "EURUSD", 15, 20)
	if err != nil {
		t.Fatalf("RecentBars: %v", err)
	}
	if frame.Len() != 20 {
		t.Errorf("expected the last 20 bars, got %d", frame.Len())
	}
	if got := frame.Cadence(); got != 15*time.Minute {
		t.Errorf("cadence = %v", got)
	}
	if got := frame.Bar(frame.Len() - 1).Close; got != 1.15 {
		t.Errorf("close = %f", got)
	}
}

func TestRecentBarsSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":"ERROR"}`, http.StatusForbidden)
	}))
	defer server.Close()

	source := NewPolygonSource(server.URL, &staticSettings{key: "k"}, slog.Default())
	if _, err := source.RecentBars(context.Background(), "EURUSD", 15, 20); err == nil {
		t.Error("expected an error on HTTP 403")
	}
}

func TestPolygonTickerNamespaces(t *testing.T) {
	cases := map[string]string{
		"EURUSD":  "C:EURUSD",
		"BTCUSDT": "X:BTCUSDT",
		"AAPL":    "AAPL",
	}
	for symbol, want := range cases {
		if got := polygonTicker(symbol); got != want {
			t.Errorf("polygonTicker(%s) = %s, want %s", symbol, got, want)
		}
	}
}

type staticSettings struct{ key string }

func (s *staticSettings) Get(_ context.Context, key string) (string, error) {
	if s.key == "" {
		return "", fmt.Errorf("unset %s", key)
	}
	return s.key, nil
}
func (s *staticSettings) Set(context.Context, string, string) error { return nil }
