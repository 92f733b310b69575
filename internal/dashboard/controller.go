// Package dashboard holds the selection state behind the weather dashboard
// and applies only the newest fetch result.
package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lox/weatherdash/internal/metrics"
	"github.com/lox/weatherdash/internal/weather"
)

// DefaultFetchTimeout bounds one selection's fetch.
const DefaultFetchTimeout = 20 * time.Second

// FetchFunc produces the report for a selection. *weather.Service.Report satisfies it.
type FetchFunc func(ctx context.Context, city string, days int) (weather.Report, error)

// Key identifies a selection.
type Key struct {
	City string
	Days int
}

func (k Key) normalized() Key {
	return Key{City: strings.TrimSpace(k.City), Days: k.Days}
}

// State is a snapshot of what the dashboard should render. While Loading is
// set, Report and Err are always empty so no stale data is shown.
type State struct {
	Key        Key
	Generation uint64
	Loading    bool
	Report     *weather.Report
	Err        error
}

// Controller serialises selections. Every Select starts a new generation;
// results from older generations are dropped when they arrive.
type Controller struct {
	fetch    FetchFunc
	timeout  time.Duration
	onChange func(State)

	mu     sync.Mutex
	gen    uint64
	state  State
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// Option customises a Controller.
type Option func(*Controller)

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// OnChange registers fn to receive every published state. fn runs with the
// controller lock held and must not call back into the Controller.
func OnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// New creates a Controller around fetch.
func New(fetch FetchFunc, opts ...Option) *Controller {
	c := &Controller{fetch: fetch, timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Select switches to (city, days). Selecting the key that is already
// loading is a no-op. It returns the generation now in charge.
func (c *Controller) Select(city string, days int) uint64 {
	key := Key{City: city, Days: days}.normalized()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Loading && c.state.Key == key {
		return c.gen
	}
	return c.startLocked(key)
}

// Refresh refetches the current key, superseding any outstanding fetch.
// It returns false when nothing has been selected yet.
func (c *Controller) Refresh() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen == 0 {
		return 0, false
	}
	return c.startLocked(c.state.Key), true
}

func (c *Controller) startLocked(key Key) uint64 {
	if c.closed {
		return c.gen
	}
	if c.cancel != nil {
		c.cancel()
	}

	c.gen++
	gen := c.gen
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.cancel = cancel

	c.publishLocked(State{Key: key, Generation: gen, Loading: true})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		report, err := c.fetch(ctx, key.City, key.Days)
		c.apply(gen, report, err)
	}()

	return gen
}

func (c *Controller) apply(gen uint64, report weather.Report, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if gen != c.gen {
		metrics.StaleResponsesDiscarded.Inc()
		log.Debug().Str("component", "dashboard").Uint64("generation", gen).Uint64("current", c.gen).Msg("discarding superseded result")
		return
	}

	next := State{Key: c.state.Key, Generation: gen}
	if err != nil {
		next.Err = err
		log.Warn().Err(err).Str("component", "dashboard").Str("city", next.Key.City).Str("kind", weather.Kind(err)).Msg("fetch failed")
	} else {
		next.Report = &report
	}
	c.cancel = nil
	c.publishLocked(next)
}

func (c *Controller) publishLocked(s State) {
	c.state = s
	if c.onChange != nil {
		c.onChange(s)
	}
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until every fetch started so far has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels any outstanding fetch and waits for it. Later selections are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	c.wg.Wait()
}
