package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/lox/weatherdash/internal/weather"
)

// Service is the pipeline surface the HTTP API exposes.
type Service interface {
	ProviderName() string
	Report(ctx context.Context, city string, days int) (weather.Report, error)
	Current(ctx context.Context, city string) (weather.CurrentConditions, error)
	Search(ctx context.Context, query string, count int) ([]weather.CityMatch, error)
	Compare(ctx context.Context, cities []string, days int) ([]weather.Report, error)
}

type Server struct {
	svc      Service
	addr     string
	validate *validator.Validate
	started  time.Time
}

func NewServer(svc Service, addr string) *Server {
	return &Server{
		svc:      svc,
		addr:     addr,
		validate: validator.New(),
		started:  time.Now(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/forecast", s.handleAPIForecast)
	mux.HandleFunc("GET /api/current", s.handleAPICurrent)
	mux.HandleFunc("GET /api/cities", s.handleAPICities)
	mux.HandleFunc("GET /api/compare", s.handleAPICompare)
	mux.Handle("GET /metrics", promhttp.Handler())
	return withRequestID(mux)
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("component", "api").Str("addr", s.addr).Str("provider", s.svc.ProviderName()).Msg("starting server")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().Str("component", "api").Str("request_id", id).Str("method", r.Method).
			Str("path", r.URL.Path).Dur("elapsed", time.Since(start)).Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"provider": s.svc.ProviderName(),
		"uptime":   time.Since(s.started).Round(time.Second).String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind to the HTTP status and the message shown to
// clients. Contract violations and unknown failures get a generic message.
func statusFor(err error) (int, string) {
	switch weather.Kind(err) {
	case weather.KindNotFound:
		return http.StatusNotFound, err.Error()
	case weather.KindInvalid:
		return http.StatusBadRequest, err.Error()
	case weather.KindTransport:
		return http.StatusBadGateway, "weather service unavailable, please retry"
	case weather.KindCanceled:
		return http.StatusGatewayTimeout, "weather request timed out"
	case weather.KindMalformed:
		return http.StatusBadGateway, "weather data unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	kind := weather.Kind(err)
	ev := log.Warn()
	if status >= 500 {
		ev = log.Error()
	}
	ev.Err(err).Str("component", "api").Str("request_id", w.Header().Get("X-Request-ID")).
		Str("path", r.URL.Path).Str("kind", kind).Msg("request failed")
	writeJSON(w, status, map[string]string{"error": msg, "kind": kind})
}
