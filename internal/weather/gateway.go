// Package weather wraps the OpenWeatherMap current-weather endpoint.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nimbusworks/assistant-platform/pkg/logger"
	"github.com/nimbusworks/assistant-platform/pkg/metrics"
)

const currentWeatherPath = "/data/2.5/weather"

// Reading is a flat snapshot of current conditions for one city.
type Reading struct {
	City        string
	Country     string
	Temp        float64
	FeelsLike   float64
	Humidity    int
	WindSpeed   float64
	Description string
}

// Report is the uniform result of a weather lookup: either a Reading or an
// error message. Transport and provider failures are folded into Err so
// callers never need a failure branch.
type Report struct {
	Reading *Reading
	Err     string
}

// Gateway is the OpenWeatherMap client.
type Gateway struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

// NewGateway creates a new weather gateway. A missing API key is a
// configuration error and is refused immediately.
func NewGateway(apiKey, baseURL string, log *logger.Logger) (*Gateway, error) {
	if apiKey == "" {
		return nil, errors.New("OpenWeatherMap API key is required")
	}
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org"
	}

	return &Gateway{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  log,
	}, nil
}

type currentWeatherResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

type providerError struct {
	Message string `json:"message"`
}

// Current fetches current conditions for a city. The caller is responsible
// for passing a non-empty city; an empty one simply fails at the provider
// and comes back as an error report.
func (g *Gateway) Current(ctx context.Context, city string) Report {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", g.apiKey)
	params.Set("units", "metric")

	endpoint := g.baseURL + currentWeatherPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		metrics.WeatherLookupsTotal.WithLabelValues("error").Inc()
		return Report{Err: err.Error()}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("weather provider call failed")
		metrics.WeatherLookupsTotal.WithLabelValues("error").Inc()
		return Report{Err: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.WeatherLookupsTotal.WithLabelValues("error").Inc()
		var pe providerError
		_ = json.NewDecoder(resp.Body).Decode(&pe)
		if pe.Message != "" {
			return Report{Err: fmt.Sprintf("%s: %s", resp.Status, pe.Message)}
		}
		return Report{Err: fmt.Sprintf("weather provider returned %s", resp.Status)}
	}

	var body currentWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.WeatherLookupsTotal.WithLabelValues("error").Inc()
		return Report{Err: fmt.Sprintf("malformed weather response: %v", err)}
	}
	metrics.WeatherLookupsTotal.WithLabelValues("ok").Inc()

	reading := &Reading{
		City:      body.Name,
		Country:   body.Sys.Country,
		Temp:      body.Main.Temp,
		FeelsLike: body.Main.FeelsLike,
		Humidity:  body.Main.Humidity,
		WindSpeed: body.Wind.Speed,
	}
	if len(body.Weather) > 0 {
		reading.Description = body.Weather[0].Description
	}

	return Report{Reading: reading}
}

// Format renders a report as human-readable text: a multi-line conditions
// block on success, or a single "Error: <message>" line.
func Format(r Report) string {
	if r.Err != "" {
		return "Error: " + r.Err
	}

	reading := r.Reading
	return fmt.Sprintf(`Weather in %s, %s:
- Temperature: %.1f°C
- Feels like: %.1f°C
- Humidity: %d%%
- Wind speed: %.1f m/s
- Conditions: %s`,
		reading.City, reading.Country,
		reading.Temp, reading.FeelsLike,
		reading.Humidity, reading.WindSpeed,
		reading.Description,
	)
}
