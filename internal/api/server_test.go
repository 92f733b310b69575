package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/weatherdash/internal/api"
	"github.com/lox/weatherdash/internal/weather"
)

type fakeService struct {
	err      error
	gotCity  string
	gotDays  int
	gotCount int
	gotList  []string
}

func (f *fakeService) ProviderName() string { return "fake" }

func (f *fakeService) Report(ctx context.Context, city string, days int) (weather.Report, error) {
	f.gotCity, f.gotDays = city, days
	if f.err != nil {
		return weather.Report{}, f.err
	}
	return weather.Report{
		Location: weather.Coordinate{Name: city, Country: "India"},
		Days:     make(weather.ForecastSeries, days),
		Stats:    weather.SummaryStats{AvgTemp: 28.4},
		Provider: "fake",
	}, nil
}

func (f *fakeService) Current(ctx context.Context, city string) (weather.CurrentConditions, error) {
	f.gotCity = city
	if f.err != nil {
		return weather.CurrentConditions{}, f.err
	}
	return weather.CurrentConditions{Location: city, Temp: 30.1}, nil
}

func (f *fakeService) Search(ctx context.Context, query string, count int) ([]weather.CityMatch, error) {
	f.gotCity, f.gotCount = query, count
	if f.err != nil {
		return nil, f.err
	}
	return []weather.CityMatch{{Name: "Mumbai", Country: "India"}}, nil
}

func (f *fakeService) Compare(ctx context.Context, cities []string, days int) ([]weather.Report, error) {
	f.gotList, f.gotDays = cities, days
	if f.err != nil {
		return nil, f.err
	}
	out := make([]weather.Report, len(cities))
	for i, c := range cities {
		out[i] = weather.Report{Location: weather.Coordinate{Name: c}}
	}
	return out, nil
}

func serve(t *testing.T, svc api.Service, target string) *httptest.ResponseRecorder {
	t.Helper()
	srv := api.NewServer(svc, ":0")
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	w := serve(t, &fakeService{}, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "fake", body["provider"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(&fakeService{}, ":0")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestForecastEndpoint(t *testing.T) {
	t.Parallel()
	tests := []struct {
		target   string
		wantDays int
	}{
		{"/api/forecast?city=Mumbai", 7},
		{"/api/forecast?city=Mumbai&range=5days", 5},
		{"/api/forecast?city=Mumbai&range=7days", 7},
		{"/api/forecast?city=Mumbai&days=3", 3},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			svc := &fakeService{}
			w := serve(t, svc, tt.target)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, "Mumbai", svc.gotCity)
			assert.Equal(t, tt.wantDays, svc.gotDays)

			var report weather.Report
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
			assert.Len(t, report.Days, tt.wantDays)
			assert.Equal(t, 28.4, report.Stats.AvgTemp)
		})
	}
}

func TestForecastViewMode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		target     string
		wantView   weather.View
		wantCharts int
	}{
		{"/api/forecast?city=Mumbai", weather.ViewOverview, 1},
		{"/api/forecast?city=Mumbai&view=overview", weather.ViewOverview, 1},
		{"/api/forecast?city=Mumbai&view=detailed", weather.ViewDetailed, 4},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := serve(t, &fakeService{}, tt.target)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var report weather.Report
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
			assert.Equal(t, tt.wantView, report.View)
			assert.Len(t, report.Charts, tt.wantCharts)
		})
	}
}

func TestForecastValidation(t *testing.T) {
	t.Parallel()
	tests := []string{
		"/api/forecast",
		"/api/forecast?city=",
		"/api/forecast?city=Mumbai&range=0days",
		"/api/forecast?city=Mumbai&range=soon",
		"/api/forecast?city=Mumbai&days=40",
		"/api/forecast?city=Mumbai&view=comparison",
		"/api/forecast?city=" + strings.Repeat("x", 101),
	}

	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			svc := &fakeService{}
			w := serve(t, svc, target)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, weather.KindInvalid, decodeError(t, w)["kind"])
			assert.Empty(t, svc.gotCity, "invalid requests never reach the service")
		})
	}
}

func TestErrorStatusMapping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		wantMsg    string
	}{
		{"not found", &weather.NotFoundError{Query: "Atlantis"}, http.StatusNotFound, weather.KindNotFound, `city "Atlantis" not found`},
		{"empty query", weather.ErrEmptyQuery, http.StatusBadRequest, weather.KindInvalid, weather.ErrEmptyQuery.Error()},
		{"transport", &weather.TransportError{Op: "openmeteo forecast", StatusCode: 503}, http.StatusBadGateway, weather.KindTransport, "weather service unavailable, please retry"},
		{"malformed", weather.Malformed("openmeteo forecast", "temperature_2m_max[2] is null"), http.StatusBadGateway, weather.KindMalformed, "weather data unavailable"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, weather.KindCanceled, "weather request timed out"},
		{"upstream call cancelled by deadline", fmt.Errorf("openmeteo forecast: %w", &url.Error{Op: "Get", URL: "https://api.open-meteo.com/v1/forecast", Err: context.DeadlineExceeded}), http.StatusGatewayTimeout, weather.KindCanceled, "weather request timed out"},
		{"rate limit wait cancelled", &weather.TransportError{Op: "openmeteo daily", Err: fmt.Errorf("rate limit wait canceled: %w", context.Canceled)}, http.StatusGatewayTimeout, weather.KindCanceled, "weather request timed out"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, weather.KindInternal, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, &fakeService{err: tt.err}, "/api/forecast?city=Atlantis")

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.wantKind, body["kind"])
			assert.Equal(t, tt.wantMsg, body["error"])
		})
	}
}

func TestCurrentEndpoint(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	w := serve(t, svc, "/api/current?city=Pune")

	require.Equal(t, http.StatusOK, w.Code)
	var cur weather.CurrentConditions
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cur))
	assert.Equal(t, "Pune", cur.Location)
	assert.Equal(t, 30.1, cur.Temp)

	w = serve(t, &fakeService{}, "/api/current")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCitiesEndpoint(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	w := serve(t, svc, "/api/cities?q=Mum&count=3")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Mum", svc.gotCity)
	assert.Equal(t, 3, svc.gotCount)

	var matches []weather.CityMatch
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, "Mumbai", matches[0].Name)

	for _, target := range []string{"/api/cities?q=Mum&count=abc", "/api/cities?q=Mum&count=99"} {
		assert.Equal(t, http.StatusBadRequest, serve(t, &fakeService{}, target).Code, target)
	}
}

func TestCompareEndpoint(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	w := serve(t, svc, "/api/compare?city=Mumbai&city=Paris&range=5days")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Mumbai", "Paris"}, svc.gotList)
	assert.Equal(t, 5, svc.gotDays)

	var reports []weather.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "Paris", reports[1].Location.Name)

	assert.Equal(t, http.StatusBadRequest, serve(t, &fakeService{}, "/api/compare").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, &fakeService{}, "/api/compare?city=").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	srv := api.NewServer(&fakeService{}, ":0")
	req := httptest.NewRequest(http.MethodPost, "/api/forecast?city=Mumbai", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
