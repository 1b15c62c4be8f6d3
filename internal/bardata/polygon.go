// Package bardata fetches OHLCV bars for the feature pipeline.
package bardata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"alpharai/internal/bars"
	"alpharai/internal/history"
	"alpharai/internal/interfaces"
	"alpharai/internal/types"
)

const DefaultBaseURL = "https://api.polygon.io"

// PolygonSource fetches aggregate bars from the Polygon REST API. The API
// key is read from general settings with the environment as fallback so
// operators can rotate it without a restart.
type PolygonSource struct {
	baseURL  string
	settings interfaces.GeneralSettingsRepo
	client   *http.Client
	log      *slog.Logger
}

var _ interfaces.BarSource = (*PolygonSource)(nil)

func NewPolygonSource(baseURL string, settings interfaces.GeneralSettingsRepo, log *slog.Logger) *PolygonSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &PolygonSource{
		baseURL:  baseURL,
		settings: settings,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

type aggsResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Timestamp int64   `json:"t"`
		Open      float64 `json:"o"`
		High      float64 `json:"h"`
		Low       float64 `json:"l"`
		Close     float64 `json:"c"`
		Volume    float64 `json:"v"`
	} `json:"results"`
}

func (s *PolygonSource) RecentBars(ctx context.Context, symbol string, timeframeMinutes, n int) (*bars.Frame, error) {
	if timeframeMinutes < 1 || n < 1 {
		return nil, fmt.Errorf("invalid bar request: timeframe %d, n %d", timeframeMinutes, n)
	}

	to := time.Now().UTC()
	// Request three times the nominal span so weekends and market closures
	// still leave n bars.
	from := to.Add(-time.Duration(3*n*timeframeMinutes) * time.Minute)

	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/minute/%d/%d",
		s.baseURL, url.PathEscape(polygonTicker(symbol)), timeframeMinutes,
		from.UnixMilli(), to.UnixMilli())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("adjusted", "true")
	q.Set("sort", "asc")
	q.Set("limit", "50000")
	q.Set("apiKey", s.apiKey(ctx))
	req.URL.RawQuery = q.Encode()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching bars for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetching bars for %s: status %d: %s", symbol, resp.StatusCode, body)
	}

	var parsed aggsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding bars for %s: %w", symbol, err)
	}
	if len(parsed.Results) == 0 {
		return nil, fmt.Errorf("no bars returned for %s", symbol)
	}

	series := make([]bars.Bar, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		series = append(series, bars.Bar{
			Date:   time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	if len(series) > n {
		series = series[len(series)-n:]
	}

	frame, err := bars.New(series)
	if err != nil {
		return nil, fmt.Errorf("building frame for %s: %w", symbol, err)
	}
	s.log.DebugContext(ctx, "bars fetched",
		"symbol", symbol, "timeframe_minutes", timeframeMinutes, "rows", frame.Len())
	return frame, nil
}

func (s *PolygonSource) apiKey(ctx context.Context) string {
	if s.settings != nil {
		if key, err := s.settings.Get(ctx, interfaces.SettingPolygonAPIKey); err == nil && key != "" {
			return key
		}
	}
	return os.Getenv(interfaces.SettingPolygonAPIKey)
}

// polygonTicker maps a signal symbol onto Polygon's prefixed ticker
// namespaces.
func polygonTicker(symbol string) string {
	switch history.ClassifyAsset(symbol) {
	case types.AssetForex:
		return "C:" + symbol
	case types.AssetCrypto:
		return "X:" + symbol
	default:
		return symbol
	}
}
