package weather

import "context"

// Resolver maps a free-text city name to a Coordinate.
type Resolver interface {
	Resolve(ctx context.Context, query string) (Coordinate, error)
}

// Searcher returns up to count suggestions for a partial city name.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]CityMatch, error)
}

// Provider fetches forecast data for a resolved coordinate. Implementations
// return normalized records and typed errors from this package.
type Provider interface {
	Name() string
	Daily(ctx context.Context, loc Coordinate, days int) (ForecastSeries, error)
	Current(ctx context.Context, loc Coordinate) (CurrentConditions, error)
}

// Source is a provider that also brings its own geocoding.
type Source interface {
	Provider
	Resolver
	Searcher
}
