package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusworks/assistant-platform/pkg/logger"
)

func TestNewGatewayRequiresAPIKey(t *testing.T) {
	_, err := NewGateway("", "", logger.NewNop())
	require.Error(t, err)
}

func TestCurrentSuccess(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/2.5/weather", r.URL.Path)
		gotQuery = map[string]string{
			"q":     r.URL.Query().Get("q"),
			"appid": r.URL.Query().Get("appid"),
			"units": r.URL.Query().Get("units"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name": "Paris",
			"sys": {"country": "FR"},
			"main": {"temp": 18.52, "feels_like": 17.9, "humidity": 65},
			"wind": {"speed": 3.6},
			"weather": [{"description": "scattered clouds"}]
		}`))
	}))
	defer srv.Close()

	g, err := NewGateway("test-key", srv.URL, logger.NewNop())
	require.NoError(t, err)

	report := g.Current(context.Background(), "Paris")
	require.Empty(t, report.Err)
	require.NotNil(t, report.Reading)

	assert.Equal(t, "Paris", report.Reading.City)
	assert.Equal(t, "FR", report.Reading.Country)
	assert.InDelta(t, 18.52, report.Reading.Temp, 0.001)
	assert.Equal(t, 65, report.Reading.Humidity)
	assert.Equal(t, "scattered clouds", report.Reading.Description)

	assert.Equal(t, "Paris", gotQuery["q"])
	assert.Equal(t, "test-key", gotQuery["appid"])
	assert.Equal(t, "metric", gotQuery["units"])
}

func TestCurrentProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer srv.Close()

	g, err := NewGateway("test-key", srv.URL, logger.NewNop())
	require.NoError(t, err)

	report := g.Current(context.Background(), "Atlantis")
	assert.Nil(t, report.Reading)
	assert.Contains(t, report.Err, "city not found")
}

func TestCurrentTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	g, err := NewGateway("test-key", srv.URL, logger.NewNop())
	require.NoError(t, err)

	report := g.Current(context.Background(), "Paris")
	assert.Nil(t, report.Reading)
	assert.NotEmpty(t, report.Err)
}

func TestFormatSuccess(t *testing.T) {
	report := Report{Reading: &Reading{
		City:        "Paris",
		Country:     "FR",
		Temp:        18.5,
		FeelsLike:   17.9,
		Humidity:    65,
		WindSpeed:   3.6,
		Description: "scattered clouds",
	}}

	want := `Weather in Paris, FR:
- Temperature: 18.5°C
- Feels like: 17.9°C
- Humidity: 65%
- Wind speed: 3.6 m/s
- Conditions: scattered clouds`

	assert.Equal(t, want, Format(report))
}

func TestFormatRounding(t *testing.T) {
	report := Report{Reading: &Reading{
		City:      "Oslo",
		Country:   "NO",
		Temp:      -3.27,
		FeelsLike: -7.85,
		Humidity:  80,
		WindSpeed: 5.04,
	}}

	got := Format(report)
	assert.Contains(t, got, "- Temperature: -3.3°C")
	assert.Contains(t, got, "- Feels like: -7.8°C")
	assert.Contains(t, got, "- Humidity: 80%")
	assert.Contains(t, got, "- Wind speed: 5.0 m/s")
}

func TestFormatError(t *testing.T) {
	report := Report{Err: "city not found"}
	assert.Equal(t, "Error: city not found", Format(report))
}
