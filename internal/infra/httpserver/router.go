package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	apprenovation "github.com/bryanwahyu/renovator/internal/application/renovation"
	domain "github.com/bryanwahyu/renovator/internal/domain/renovation"
	"github.com/bryanwahyu/renovator/internal/feed"
	"github.com/bryanwahyu/renovator/internal/log"
	"github.com/bryanwahyu/renovator/internal/middleware"
	"github.com/bryanwahyu/renovator/internal/web"
)

const (
	Title           = "RenovatorAI"
	RenovatePath    = "/api/renovate"
	defaultMaxBytes = 20 << 20
)

type Options struct {
	Logger         *slog.Logger
	MaxBodyBytes   int64
	AllowedOrigins []string
	Limiter        *middleware.RateLimiter
	Checkers       map[string]middleware.HealthChecker
	Feed           *feed.Generator
	// TrustProxy takes the client IP from forwarding headers
	TrustProxy bool
	// PublicHistory serves /api/renovations and its feed
	PublicHistory bool
}

type Router struct {
	svc          *apprenovation.Service
	page         *web.Templator
	feed          *feed.Generator
	maxBodyBytes  int64
	publicHistory bool
}

func NewRouter(svc *apprenovation.Service, page *web.Templator, opts Options) http.Handler {
	r := &Router{
		svc:           svc,
		page:          page,
		feed:          opts.Feed,
		maxBodyBytes:  opts.MaxBodyBytes,
		publicHistory: opts.PublicHistory,
	}
	if r.maxBodyBytes <= 0 {
		r.maxBodyBytes = defaultMaxBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.FromContextOrDiscard(context.Background())
	}

	mux := chi.NewRouter()
	// rate limiting keys on the client IP, so forwarding headers are only honoured when configured
	if opts.TrustProxy {
		mux.Use(chimw.RealIP)
	}
	mux.Use(middleware.LoggingMiddleware(logger))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(chimw.Recoverer)

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/health/ready", middleware.HealthHandler(opts.Checkers))
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Get("/", r.wrap("Failed to render page", r.handleIndex))

	mux.Route("/api", func(rt chi.Router) {
		rt.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))

		rt.Group(func(rt chi.Router) {
			if opts.Limiter != nil {
				rt.Use(middleware.RateLimitMiddleware(opts.Limiter, func(w http.ResponseWriter, _ *http.Request) {
					writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				}))
			}
			rt.Post("/renovate", r.wrap("Generation failed", r.handleRenovate))
		})
		rt.Get("/renovations", r.wrap("Failed to load renovations", r.handleLatest))
		rt.Get("/renovations/feed.rss", r.wrap("Failed to build feed", r.handleFeed))
	})

	return mux
}

// httpError carries a status and a client-facing message
type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string { return e.message }

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps errors to JSON responses; anything unknown becomes a 500 with fallback
func (r *Router) wrap(fallback string, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		status, message := classify(err, fallback)
		logger := log.FromContextOrDiscard(req.Context())
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "status", status, "error", err)
		} else {
			logger.Info("request rejected", "status", status, "error", err)
		}
		writeError(w, status, message)
	}
}

func classify(err error, fallback string) (int, string) {
	var he *httpError
	var nc *domain.NotConfiguredError
	switch {
	case errors.As(err, &he):
		return he.status, he.message
	case errors.Is(err, domain.ErrMissingInput):
		return http.StatusBadRequest, "Image and prompt are required"
	case errors.As(err, &nc):
		return http.StatusInternalServerError, nc.Error()
	case errors.Is(err, domain.ErrInvalidDataURL):
		return http.StatusInternalServerError, "Invalid data URL format"
	case errors.Is(err, domain.ErrNoImage):
		return http.StatusInternalServerError, "Failed to generate image"
	case errors.Is(err, domain.ErrHistoryDisabled):
		return http.StatusNotFound, "not found"
	default:
		return http.StatusInternalServerError, fallback
	}
}

// GET /
func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) error {
	page, err := r.page.Template(req.Context(), web.Params{Title: Title, Endpoint: RenovatePath})
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = w.Write(page)
	return err
}

// POST /api/renovate
// Body: {"image": "<data URL or http(s) URL>", "prompt": "<text>"}
func (r *Router) handleRenovate(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxBodyBytes)

	var body domain.Request
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return &httpError{status: http.StatusRequestEntityTooLarge, message: "Image too large"}
		}
		return &httpError{status: http.StatusBadRequest, message: "Invalid request body"}
	}

	body.Prompt = middleware.SanitizeString(body.Prompt)
	if err := middleware.ValidatePrompt(body.Prompt); err != nil {
		return &httpError{status: http.StatusBadRequest, message: err.Error()}
	}

	done := middleware.StartRenovation()
	res, err := r.svc.Renovate(req.Context(), body)
	done(err != nil)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, res)
	return nil
}

// GET /api/renovations?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	if !r.publicHistory {
		return domain.ErrHistoryDisabled
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.svc.Latest(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Record{}
	}

	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /api/renovations/feed.rss
func (r *Router) handleFeed(w http.ResponseWriter, req *http.Request) error {
	if !r.publicHistory || r.feed == nil || !r.svc.HistoryEnabled() {
		return domain.ErrHistoryDisabled
	}

	rss, err := r.feed.Generate(req.Context())
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, err = w.Write(rss)
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
