// Package api serves the booking REST API and the free-text command endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"techbook/internal/command"
	"techbook/internal/models"
)

// BookingService is the conflict-checked booking collection.
type BookingService interface {
	Create(ctx context.Context, b *models.Booking) (*models.Booking, error)
	Cancel(ctx context.Context, id string) (*models.Booking, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context) ([]models.Booking, error)
}

// CommandHandler runs the free-text pipeline.
type CommandHandler interface {
	Handle(ctx context.Context, text string) *command.Result
}

// Counter counts requests per handler.
type Counter interface {
	IncHTTP(handler string)
}

// Pinger reports storage health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options configures the server.
type Options struct {
	Port                int
	DefaultCustomerName string
	DefaultProfession   string
	Location            *time.Location
	Version             string
}

// HTTPServer exposes bookings over HTTP/JSON.
type HTTPServer struct {
	server   *http.Server
	bookings BookingService
	commands CommandHandler
	counter  Counter
	pinger   Pinger
	opts     Options
	logger   *zerolog.Logger
}

// NewHTTPServer wires the routes. counter and pinger may be nil.
func NewHTTPServer(opts Options, bookings BookingService, commands CommandHandler, counter Counter, pinger Pinger, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	s := &HTTPServer{
		bookings: bookings,
		commands: commands,
		counter:  counter,
		pinger:   pinger,
		opts:     opts,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /bookings", s.handleListBookings)
	mux.HandleFunc("POST /bookings", s.handleCreateBooking)
	mux.HandleFunc("GET /bookings/export", s.handleExportBookings)
	mux.HandleFunc("POST /bookings/commands", s.handleCommand)
	mux.HandleFunc("GET /bookings/{id}", s.handleGetBooking)
	mux.HandleFunc("DELETE /bookings/{id}", s.handleCancelBooking)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.withRequestContext(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the root handler, middleware included.
func (s *HTTPServer) Handler() http.Handler { return s.server.Handler }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

// withRequestContext attaches a request id and a request-scoped logger.
func (s *HTTPServer) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		l := s.logger.With().Str("request_id", requestID).Logger()
		ctx := l.WithContext(r.Context())
		ctx = context.WithValue(ctx, requestIDKey{}, requestID)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		l.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("request handled")
	})
}

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *HTTPServer) count(handler string) {
	if s.counter != nil {
		s.counter.IncHTTP(handler)
	}
}

// Envelope wraps every JSON response.
type Envelope struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Error    *ErrorBody     `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ErrorBody is the error part of an envelope.
type ErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data any, meta map[string]any) {
	writeJSON(w, status, Envelope{Success: true, Data: data, Metadata: metadata(r, meta)})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	writeJSON(w, status, Envelope{
		Error: &ErrorBody{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Metadata: metadata(r, nil),
	})
}

func metadata(r *http.Request, extra map[string]any) map[string]any {
	meta := map[string]any{"request_id": requestID(r.Context())}
	for k, v := range extra {
		meta[k] = v
	}
	return meta
}
