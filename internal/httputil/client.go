package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"

	"github.com/lox/weatherdash/internal/metrics"
	"github.com/lox/weatherdash/internal/weather"
)

const (
	DefaultTimeout = 10 * time.Second
	UserAgent      = "weatherdash/1.0"

	maxBodyBytes  = 4 << 20
	maxErrorBytes = 200
)

// NewClient returns an HTTP client with the given timeout, or DefaultTimeout when zero.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
	}
}

// Fetcher performs JSON GET requests against one upstream and maps every
// failure onto the weather error kinds.
type Fetcher struct {
	Client   *http.Client
	Provider string
	// Retries is the number of extra attempts for rate-limited or 5xx
	// responses. Zero means a failed fetch surfaces immediately.
	Retries uint64
}

// NewFetcher creates a Fetcher for provider.
func NewFetcher(client *http.Client, provider string, retries uint64) *Fetcher {
	if client == nil {
		client = NewClient(0)
	}
	return &Fetcher{Client: client, Provider: provider, Retries: retries}
}

// GetJSON fetches rawURL and decodes the body into v. endpoint labels metrics and errors.
func (f *Fetcher) GetJSON(ctx context.Context, endpoint, rawURL string, v any) error {
	op := f.Provider + " " + endpoint

	operation := func() error {
		start := time.Now()
		body, status, err := f.get(ctx, rawURL)
		metrics.UpstreamLatency.WithLabelValues(f.Provider, endpoint).Observe(time.Since(start).Seconds())
		metrics.UpstreamCallsTotal.WithLabelValues(f.Provider, endpoint, statusLabel(status, err)).Inc()

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return backoff.Permanent(fmt.Errorf("%s: %w", op, ctxErr))
			}
			// An http.Client timeout matches context.DeadlineExceeded; the
			// caller did not give up, so it stays a transport failure.
			return backoff.Permanent(&weather.TransportError{Op: op, Err: errors.New(err.Error())})
		}
		if status < 200 || status >= 300 {
			te := &weather.TransportError{Op: op, StatusCode: status, Err: errors.New(snippet(body))}
			if te.Temporary() {
				return te
			}
			return backoff.Permanent(te)
		}

		if err := json.Unmarshal(body, v); err != nil {
			return backoff.Permanent(weather.Malformed(op, "decode: %v", err))
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), f.Retries), ctx)
	return backoff.Retry(operation, bo)
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func statusLabel(status int, err error) string {
	if err != nil && status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBytes {
		cut := maxErrorBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	if s == "" {
		return "empty body"
	}
	return s
}
