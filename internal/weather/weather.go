// Package weather looks up the current conditions for the configured
// location through the Open-Meteo geocoding and forecast APIs.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
	DefaultCacheTTL     = 30 * time.Minute
)

type Report struct {
	Location    string
	Temperature float64
	Code        int
	Fahrenheit  bool
}

// String renders the compact widget text, e.g. "☀️ 21°C".
func (r Report) String() string {
	unit := "°C"
	if r.Fahrenheit {
		unit = "°F"
	}
	return fmt.Sprintf("%s %d%s", Icon(r.Code), int(math.Floor(r.Temperature+0.5)), unit)
}

func (r Report) Description() string {
	return Describe(r.Code)
}

// Icon maps a WMO weather code to an emoji.
func Icon(code int) string {
	switch {
	case code == 0:
		return "☀️"
	case code <= 3:
		return "⛅"
	case code <= 49:
		return "🌫️"
	case code <= 67:
		return "🌧️"
	case code <= 77:
		return "❄️"
	case code <= 82:
		return "🌧️"
	case code <= 86:
		return "❄️"
	case code <= 99:
		return "⛈️"
	default:
		return "🌤️"
	}
}

var descriptions = map[int]string{
	0:  "Clear",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Foggy",
	51: "Drizzle",
	61: "Rain",
	71: "Snow",
	80: "Rain showers",
	95: "Thunderstorm",
}

func Describe(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return "Weather"
}

type Options struct {
	GeocodingURL string
	ForecastURL  string
	CacheTTL     time.Duration
}

type cacheEntry struct {
	report    Report
	fetchedAt time.Time
}

type Client struct {
	http   *http.Client
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewClient(httpClient *http.Client, opts Options, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.GeocodingURL == "" {
		opts.GeocodingURL = DefaultGeocodingURL
	}
	if opts.ForecastURL == "" {
		opts.ForecastURL = DefaultForecastURL
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	return &Client{
		http:   httpClient,
		opts:   opts,
		logger: logger,
		now:    time.Now,
		cache:  make(map[string]cacheEntry),
	}
}

// Current returns the conditions at location. It reports false when no
// location is set or the place cannot be found.
func (c *Client) Current(ctx context.Context, location string, fahrenheit bool) (Report, bool, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Report{}, false, nil
	}

	key := fmt.Sprintf("%s|%t", strings.ToLower(location), fahrenheit)
	c.mu.Lock()
	entry, ok := c.cache[key]
	c.mu.Unlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.opts.CacheTTL {
		return entry.report, true, nil
	}

	lat, lon, found, err := c.geocode(ctx, location)
	if err != nil || !found {
		return Report{}, false, err
	}
	report, err := c.forecast(ctx, lat, lon, fahrenheit)
	if err != nil {
		return Report{}, false, err
	}
	report.Location = location

	c.mu.Lock()
	c.cache[key] = cacheEntry{report: report, fetchedAt: c.now()}
	c.mu.Unlock()
	return report, true, nil
}

func (c *Client) geocode(ctx context.Context, location string) (float64, float64, bool, error) {
	query := url.Values{}
	query.Set("name", location)
	query.Set("count", "1")

	var body struct {
		Results []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, c.opts.GeocodingURL+"?"+query.Encode(), &body); err != nil {
		return 0, 0, false, fmt.Errorf("error geocoding %q: %w", location, err)
	}
	if len(body.Results) == 0 {
		c.logger.Debug("Location not found", zap.String("location", location))
		return 0, 0, false, nil
	}
	return body.Results[0].Latitude, body.Results[0].Longitude, true, nil
}

func (c *Client) forecast(ctx context.Context, lat, lon float64, fahrenheit bool) (Report, error) {
	unit := "celsius"
	if fahrenheit {
		unit = "fahrenheit"
	}
	query := url.Values{}
	query.Set("latitude", fmt.Sprint(lat))
	query.Set("longitude", fmt.Sprint(lon))
	query.Set("current", "temperature_2m,weather_code")
	query.Set("temperature_unit", unit)

	var body struct {
		Current *struct {
			Temperature float64 `json:"temperature_2m"`
			WeatherCode int     `json:"weather_code"`
		} `json:"current"`
	}
	if err := c.getJSON(ctx, c.opts.ForecastURL+"?"+query.Encode(), &body); err != nil {
		return Report{}, fmt.Errorf("error fetching forecast: %w", err)
	}
	if body.Current == nil {
		return Report{}, fmt.Errorf("forecast has no current conditions")
	}
	return Report{
		Temperature: body.Current.Temperature,
		Code:        body.Current.WeatherCode,
		Fahrenheit:  fahrenheit,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, target string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
