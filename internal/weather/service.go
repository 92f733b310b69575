package weather

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/weatherdash/internal/metrics"
)

// MinSearchLength is the shortest query Search sends upstream.
const MinSearchLength = 2

// DefaultSearchCount is used when Search is called with count <= 0.
const DefaultSearchCount = 10

// compareLimit bounds concurrent pipelines in Compare.
const compareLimit = 4

// Service composes a Resolver and a Provider into the forecast pipeline.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	resolver Resolver
	searcher Searcher
	provider Provider
}

// NewService creates a Service. searcher may be nil, in which case Search
// always returns no matches.
func NewService(resolver Resolver, searcher Searcher, provider Provider) *Service {
	return &Service{
		resolver: resolver,
		searcher: searcher,
		provider: provider,
	}
}

// NewSourceService builds a Service whose geocoding and forecasts come from one Source.
func NewSourceService(src Source) *Service {
	return NewService(src, src, src)
}

// ProviderName returns the name of the configured forecast provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// Resolve looks up city. Errors from the resolver are returned unchanged.
func (s *Service) Resolve(ctx context.Context, city string) (Coordinate, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return Coordinate{}, ErrEmptyQuery
	}
	return s.resolver.Resolve(ctx, city)
}

// FetchForecast resolves city and returns exactly days normalized records.
func (s *Service) FetchForecast(ctx context.Context, city string, days int) (ForecastSeries, error) {
	_, series, err := s.fetch(ctx, city, days)
	return series, err
}

func (s *Service) fetch(ctx context.Context, city string, days int) (Coordinate, ForecastSeries, error) {
	start := time.Now()
	loc, series, err := s.fetchSeries(ctx, city, days)
	metrics.PipelineRuns.WithLabelValues(s.provider.Name(), outcome(err)).Inc()
	metrics.PipelineLatency.WithLabelValues(s.provider.Name()).Observe(time.Since(start).Seconds())

	if Kind(err) == KindMalformed {
		log.Error().Err(err).Str("component", "pipeline").Str("city", city).Int("days", days).Msg("upstream contract violation")
	}
	return loc, series, err
}

func (s *Service) fetchSeries(ctx context.Context, city string, days int) (Coordinate, ForecastSeries, error) {
	if days <= 0 {
		return Coordinate{}, nil, ErrInvalidDays
	}

	loc, err := s.Resolve(ctx, city)
	if err != nil {
		return Coordinate{}, nil, err
	}

	series, err := s.provider.Daily(ctx, loc, days)
	if err != nil {
		return Coordinate{}, nil, err
	}
	if len(series) != days {
		return Coordinate{}, nil, Malformed(s.provider.Name()+" daily", "got %d days, requested %d", len(series), days)
	}

	s.checkQuality(loc, series)

	log.Debug().Str("component", "pipeline").Str("city", loc.DisplayName()).Int("days", days).Msg("forecast fetched")
	return loc, series, nil
}

func (s *Service) checkQuality(loc Coordinate, series ForecastSeries) {
	for _, d := range series {
		flags := QualityFlags(d)
		if len(flags) == 0 {
			continue
		}
		for _, f := range flags {
			metrics.QualityFlags.WithLabelValues(s.provider.Name(), f).Inc()
		}
		log.Warn().Str("component", "pipeline").Str("city", loc.DisplayName()).Str("date", d.Date).
			Strs("flags", flags).Msg("implausible forecast values")
	}
}

// Report runs the pipeline and derives stats and the summary paragraph.
func (s *Service) Report(ctx context.Context, city string, days int) (Report, error) {
	loc, series, err := s.fetch(ctx, city, days)
	if err != nil {
		return Report{}, err
	}
	stats := DeriveStats(series)
	report := Report{
		Location: loc,
		Days:     series,
		Stats:    stats,
		Summary:  Summarize(loc, days, stats),
		Provider: s.provider.Name(),
	}
	return report.WithView(ViewOverview), nil
}

// Current resolves city and returns its current conditions.
func (s *Service) Current(ctx context.Context, city string) (CurrentConditions, error) {
	loc, err := s.Resolve(ctx, city)
	if err != nil {
		return CurrentConditions{}, err
	}
	cur, err := s.provider.Current(ctx, loc)
	if err != nil {
		return CurrentConditions{}, err
	}
	if cur.Location == "" {
		cur.Location = loc.Name
	}
	if cur.Country == "" {
		cur.Country = loc.Country
	}
	return cur, nil
}

// Search returns city suggestions. Queries shorter than MinSearchLength
// runes return no matches without contacting the upstream.
func (s *Service) Search(ctx context.Context, query string, count int) ([]CityMatch, error) {
	query = strings.TrimSpace(query)
	if s.searcher == nil || len([]rune(query)) < MinSearchLength {
		return []CityMatch{}, nil
	}
	if count <= 0 {
		count = DefaultSearchCount
	}
	matches, err := s.searcher.Search(ctx, query, count)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []CityMatch{}
	}
	return matches, nil
}

// Compare builds reports for several cities concurrently. Results keep the
// order of cities; the first failure cancels the remaining fetches.
func (s *Service) Compare(ctx context.Context, cities []string, days int) ([]Report, error) {
	if len(cities) == 0 {
		return nil, fmt.Errorf("compare: %w", ErrEmptyQuery)
	}

	reports := make([]Report, len(cities))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(compareLimit)

	for i, city := range cities {
		g.Go(func() error {
			r, err := s.Report(ctx, city, days)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return Kind(err)
}
