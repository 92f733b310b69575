package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/weatherdash/internal/openmeteo"
	"github.com/lox/weatherdash/internal/weather"
)

type stubSource struct {
	calls     atomic.Int32
	resolveFn func(query string) (weather.Coordinate, error)
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Resolve(ctx context.Context, query string) (weather.Coordinate, error) {
	s.calls.Add(1)
	return s.resolveFn(query)
}

func (s *stubSource) Search(ctx context.Context, query string, count int) ([]weather.CityMatch, error) {
	s.calls.Add(1)
	return nil, nil
}

func (s *stubSource) Daily(ctx context.Context, loc weather.Coordinate, days int) (weather.ForecastSeries, error) {
	s.calls.Add(1)
	return make(weather.ForecastSeries, days), nil
}

func (s *stubSource) Current(ctx context.Context, loc weather.Coordinate) (weather.CurrentConditions, error) {
	s.calls.Add(1)
	return weather.CurrentConditions{Temp: 12}, nil
}

func TestWrapPassesThrough(t *testing.T) {
	src := &stubSource{resolveFn: func(q string) (weather.Coordinate, error) {
		return weather.Coordinate{Name: q}, nil
	}}
	s := Wrap(src, Options{})

	assert.Equal(t, "stub", s.Name())

	loc, err := s.Resolve(context.Background(), "Oslo")
	require.NoError(t, err)
	assert.Equal(t, "Oslo", loc.Name)

	series, err := s.Daily(context.Background(), loc, 5)
	require.NoError(t, err)
	assert.Len(t, series, 5)

	matches, err := s.Search(context.Background(), "Os", 5)
	require.NoError(t, err)
	assert.Nil(t, matches)

	cur, err := s.Current(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, 12.0, cur.Temp)
}

func TestBreakerOpensOnTransportFailures(t *testing.T) {
	src := &stubSource{resolveFn: func(q string) (weather.Coordinate, error) {
		return weather.Coordinate{}, &weather.TransportError{Op: "stub resolve", StatusCode: 503}
	}}
	s := Wrap(src, Options{FailureThreshold: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := s.Resolve(context.Background(), "Oslo")
		var te *weather.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 503, te.StatusCode)
	}

	_, err := s.Resolve(context.Background(), "Oslo")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, weather.KindTransport, weather.Kind(err))
	assert.Equal(t, int32(2), src.calls.Load(), "open circuit must not reach the source")
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	src := &stubSource{resolveFn: func(q string) (weather.Coordinate, error) {
		return weather.Coordinate{}, &weather.NotFoundError{Query: q}
	}}
	s := Wrap(src, Options{FailureThreshold: 1})

	for i := 0; i < 3; i++ {
		_, err := s.Resolve(context.Background(), "Atlantis")
		var nf *weather.NotFoundError
		require.ErrorAs(t, err, &nf, "not found must pass through unchanged")
	}
	assert.Equal(t, int32(3), src.calls.Load())
}

func TestRateLimitHonoursContext(t *testing.T) {
	src := &stubSource{resolveFn: func(q string) (weather.Coordinate, error) {
		return weather.Coordinate{Name: q}, nil
	}}
	s := Wrap(src, Options{RPS: 0.001, Burst: 1})

	_, err := s.Resolve(context.Background(), "Oslo")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Resolve(ctx, "Oslo")
	require.Error(t, err)
	assert.Equal(t, weather.KindTransport, weather.Kind(err))
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCountsAsSuccess(t *testing.T) {
	assert.True(t, countsAsSuccess(nil))
	assert.True(t, countsAsSuccess(&weather.NotFoundError{}))
	assert.True(t, countsAsSuccess(weather.ErrInvalidDays))
	assert.True(t, countsAsSuccess(context.Canceled))
	assert.False(t, countsAsSuccess(&weather.TransportError{}))
	assert.False(t, countsAsSuccess(weather.Malformed("x", "y")))
	assert.True(t, countsAsSuccess(errors.New("other")))
}

func TestCancelledCallsDoNotOpenBreaker(t *testing.T) {
	var block atomic.Bool
	block.Store(true)
	arrived := make(chan struct{}, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if block.Load() {
			arrived <- struct{}{}
			<-r.Context().Done()
			return
		}
		fmt.Fprint(w, `{"results":[{"name":"Oslo","latitude":59.91,"longitude":10.75,"country":"Norway"}]}`)
	}))
	defer srv.Close()

	client := openmeteo.NewClient(srv.Client(), openmeteo.WithBaseURLs(srv.URL+"/v1", srv.URL+"/geo"))
	s := Wrap(client, Options{FailureThreshold: 2, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-arrived
			cancel()
		}()
		_, err := s.Resolve(ctx, "Oslo")
		cancel()
		assert.Equal(t, weather.KindCanceled, weather.Kind(err), "superseded call %d", i)
	}

	block.Store(false)
	loc, err := s.Resolve(context.Background(), "Oslo")
	require.NoError(t, err, "circuit must still be closed")
	assert.Equal(t, "Oslo", loc.Name)
}
