package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	RequestTimeout time.Duration
	MaxConcurrent  int
	CORSOrigin     string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:           addr,
		ReadTimeout:    5 * time.Second,
		RequestTimeout: 5 * time.Second,
		MaxConcurrent:  runtime.NumCPU() * 2,
		CORSOrigin:     "",
	}
}

// NewServer creates an HTTP server with all routes and middleware.
func NewServer(cfg ServerConfig, h *Handlers) *http.Server {
	r := mux.NewRouter()

	// Concurrency limiter shared across the JSON API.
	sem := make(chan struct{}, cfg.MaxConcurrent)

	// The tracking stream holds its connection open, so it is registered
	// ahead of the subrouter and skips the per-request timeout.
	r.Handle("/api/v1/track", baseHeaders(cfg, http.HandlerFunc(h.HandleTrack))).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(withMiddleware(sem, cfg))

	api.HandleFunc("/route", h.HandleRoute).Methods(http.MethodPost)

	api.HandleFunc("/waypoints", h.HandleListWaypoints).Methods(http.MethodGet)
	api.HandleFunc("/waypoints", h.HandleCreateWaypoint).Methods(http.MethodPost)
	api.HandleFunc("/waypoints/{id}", h.HandleDeleteWaypoint).Methods(http.MethodDelete)

	api.HandleFunc("/rooms", h.HandleListRooms).Methods(http.MethodGet)
	api.HandleFunc("/rooms", h.HandleCreateRoom).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}", h.HandleRenameRoom).Methods(http.MethodPatch)
	api.HandleFunc("/rooms/{id}", h.HandleDeleteRoom).Methods(http.MethodDelete)

	api.HandleFunc("/paths", h.HandleCreatePath).Methods(http.MethodPost)
	api.HandleFunc("/paths/{id}", h.HandleDeletePath).Methods(http.MethodDelete)

	api.HandleFunc("/dataset", h.HandleExportDataset).Methods(http.MethodGet)
	api.HandleFunc("/dataset", h.HandleImportDataset).Methods(http.MethodPut)
	api.HandleFunc("/dataset/reset", h.HandleResetDataset).Methods(http.MethodPost)

	api.HandleFunc("/position", h.HandlePosition).Methods(http.MethodGet)
	api.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.HandleStats).Methods(http.MethodGet)

	return &http.Server{
		Addr:        cfg.Addr,
		Handler:     r,
		ReadTimeout: cfg.ReadTimeout,
		// WriteTimeout stays zero or it would cut the tracking stream;
		// JSON handlers are bounded by the middleware timeout instead.
	}
}

// ListenAndServe starts the server and blocks until shutdown signal.
func ListenAndServe(srv *http.Server) error {
	// Graceful shutdown on SIGTERM/SIGINT.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("Received %s, shutting down...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// baseHeaders sets security headers and CORS without the timing and
// timeout wrapping.
func baseHeaders(cfg ServerConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setHeaders(w, cfg)
		next.ServeHTTP(w, r)
	})
}

// withMiddleware wraps handlers with logging, recovery, security headers,
// concurrency limiting, and a per-request timeout.
func withMiddleware(sem chan struct{}, cfg ServerConfig) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			setHeaders(w, cfg)

			// Concurrency limiter.
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			default:
				w.Header().Set("Retry-After", "1")
				http.Error(w, `{"error":"service_unavailable"}`, http.StatusServiceUnavailable)
				return
			}

			// Recovery.
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("panic: %v", rec)
					http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
				}
			}()

			// Request timeout.
			ctx, cancel := context.WithTimeout(r.Context(), cfg.RequestTimeout)
			defer cancel()

			start := time.Now()
			next.ServeHTTP(w, r.WithContext(ctx))
			log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start).Round(time.Microsecond))
		})
	}
}

func setHeaders(w http.ResponseWriter, cfg ServerConfig) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Cache-Control", "no-store")
	if cfg.CORSOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", cfg.CORSOrigin)
	}
}
