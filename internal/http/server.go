package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/Clark-Hu/boxoffice-monthly/internal/config"
	"github.com/Clark-Hu/boxoffice-monthly/internal/currency"
	"github.com/Clark-Hu/boxoffice-monthly/internal/domain"
	"github.com/Clark-Hu/boxoffice-monthly/internal/logging"
)

const (
	requestIDHeader    = "X-Request-Id"
	healthCheckTimeout = 5 * time.Second
)

// Ranker produces the monthly ranking.
type Ranker interface {
	Top(ctx context.Context, year, month int) ([]domain.RankedMovie, error)
}

// Pinger checks upstream connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg       config.Config
	ranker    Ranker
	upstream  Pinger
	formatter *currency.Formatter
	logger    hclog.Logger
	router    chi.Router
	httpSrv   *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, ranker Ranker, upstream Pinger, logger hclog.Logger) *Server {
	logger = logging.OrNull(logger).Named("http")

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logging.Standard(logger),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	s := &Server{
		cfg:       cfg,
		ranker:    ranker,
		upstream:  upstream,
		formatter: currency.NewFormatter(cfg.JPYExchangeRate),
		logger:    logger,
		router:    r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Route("/api/movies", func(r chi.Router) {
		r.Get("/box-office", s.handleBoxOffice)
	})
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
		ErrorLog:     logging.Standard(s.logger),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

type healthResponse struct {
	Status    string                   `json:"status"`
	Services  map[string]serviceHealth `json:"services"`
	Timestamp string                   `json:"timestamp"`
}

type serviceHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"responseTime"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	upstream := serviceHealth{Status: "healthy"}
	start := time.Now()
	if s.upstream == nil {
		upstream.Status = "unhealthy"
	} else if err := s.upstream.Ping(ctx); err != nil {
		s.logger.Warn("upstream health check failed", "error", err)
		upstream.Status = "unhealthy"
	}
	upstream.ResponseTime = time.Since(start).Round(time.Millisecond).String()

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	s.respondJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Services:  map[string]serviceHealth{"tmdb": upstream},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// requestID tags each request with an id, reusing a well-formed inbound
// X-Request-Id. The id is stored where chi's logger looks for it and echoed
// back to the caller.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
