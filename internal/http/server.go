package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/services"
	appweb "bilancio/web"
)

// Options configures the HTTP server.
type Options struct {
	Addr               string
	CookieSecure       bool
	RateLimitPerMinute int
	Logger             *log.Logger
}

type Server struct {
	http.Server
	finance *services.FinanceService
	pages   map[string]*template.Template
	logger  *log.Logger

	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	trace       *trace.Middleware
	pageHeaders *security.HeadersMiddleware
	apiHeaders  *security.HeadersMiddleware

	cookieSecure bool
	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	mutations     int64
	signIns       int64
	failedSignIns int64
	started       time.Time
}

// NewServer parses the embedded templates and configures routes and
// middleware, returning a ready-to-run server.
func NewServer(finance *services.FinanceService, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	pages, err := parseTemplates(appweb.TemplatesFS)
	if err != nil {
		return nil, err
	}

	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}

	detector := security.NewDetector()
	s := &Server{
		finance:      finance,
		pages:        pages,
		logger:       logger,
		detector:     detector,
		rateLimiter:  ratelimit.NewLimiter(rlConfig),
		trace:        trace.NewMiddleware(detector.ExtractClientIP, logger),
		pageHeaders:  security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		apiHeaders:   security.NewHeadersMiddleware(security.APIHeadersConfig()),
		cookieSecure: opts.CookieSecure,
		appMetrics:   &appMetrics{started: time.Now()},
	}

	router, err := s.routes()
	if err != nil {
		s.rateLimiter.Stop()
		return nil, err
	}

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(router, rlConfig.Methods),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() (*mux.Router, error) {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	r.PathPrefix("/static/").Handler(security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	r.HandleFunc("/auth/signin", s.handleSignInPage).Methods(http.MethodGet)
	r.HandleFunc("/auth/signin", s.handleSignIn).Methods(http.MethodPost)
	r.HandleFunc("/auth/signup", s.handleSignUpPage).Methods(http.MethodGet)
	r.HandleFunc("/auth/signup", s.handleSignUp).Methods(http.MethodPost)
	r.HandleFunc("/auth/signout", s.handleSignOut).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireUser)
	api.HandleFunc("/monthly-records", s.handleMonthlyRecords).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions", s.handleUpdateTransaction).Methods(http.MethodPut)
	api.HandleFunc("/transactions", s.handleDeleteTransaction).Methods(http.MethodDelete)
	api.HandleFunc("/assets", s.handleListAssets).Methods(http.MethodGet)
	api.HandleFunc("/assets", s.handleCreateAsset).Methods(http.MethodPost)
	api.HandleFunc("/assets", s.handleUpdateAsset).Methods(http.MethodPut)
	api.HandleFunc("/assets", s.handleDeleteAsset).Methods(http.MethodDelete)
	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCreateCategory).Methods(http.MethodPost)
	api.HandleFunc("/categories", s.handleUpdateCategory).Methods(http.MethodPut)
	api.HandleFunc("/categories", s.handleDeleteCategory).Methods(http.MethodDelete)

	pages := r.NewRoute().Subrouter()
	pages.Use(s.requireUser)
	pages.Handle("/", http.RedirectHandler("/dashboard", http.StatusSeeOther)).Methods(http.MethodGet)
	pages.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	pages.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	pages.HandleFunc("/history/chart.svg", s.handleHistoryChart).Methods(http.MethodGet)
	pages.HandleFunc("/month/{year}/{month}", s.handleMonth).Methods(http.MethodGet)
	pages.HandleFunc("/settings", s.handleSettings).Methods(http.MethodGet)

	return r, nil
}

// middleware wraps the router: trace, request logger, security headers,
// suspicious request detection, then rate limiting of mutating methods.
func (s *Server) middleware(router http.Handler, limited []string) http.Handler {
	h := s.rateLimiter.Middleware(limited, s.detector.ExtractClientIP, s.handleRateLimited)(router)
	h = s.detector.Middleware(s.logger)(h)
	h = s.securityHeaders(h)
	h = log.RequestIDMiddleware(trace.RequestID)(h)
	h = log.Middleware(s.logger)(h)
	return s.trace.Middleware(h)
}

func (s *Server) securityHeaders(next http.Handler) http.Handler {
	pages := s.pageHeaders.Middleware(next)
	api := s.apiHeaders.Middleware(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPI(r) {
			api.ServeHTTP(w, r)
			return
		}
		pages.ServeHTTP(w, r)
	})
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) countMutation() {
	atomic.AddInt64(&s.appMetrics.mutations, 1)
}
