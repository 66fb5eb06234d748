package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"finsight/internal/auth"
	"finsight/internal/brokerage"
	"finsight/internal/cache"
	applog "finsight/internal/log"
	"finsight/internal/middleware/ratelimit"
	"finsight/internal/middleware/security"
	"finsight/internal/middleware/trace"
	"finsight/internal/services"
	"finsight/internal/sheets"
)

// Response cache TTLs per endpoint.
const (
	ttlBudget      = 5 * time.Minute
	ttlSheets      = 5 * time.Minute
	ttlComparison  = 10 * time.Minute
	ttlMonths      = 10 * time.Minute
	ttlEarnings    = 10 * time.Minute
	ttlOtherIncome = 10 * time.Minute
	ttlMilestones  = 10 * time.Minute
	ttlPortfolio   = time.Minute

	defaultCacheSize   = 256
	cacheSweepInterval = time.Minute
	brokerAccessCookie = "broker_access_token"
)

// Dashboard computes every dashboard view from spreadsheet ranges.
type Dashboard interface {
	Budget(ctx context.Context, q services.BudgetQuery) (services.BudgetView, error)
	Comparison(ctx context.Context) (services.ComparisonView, error)
	Months(ctx context.Context) (services.MonthsView, error)
	Sheet(ctx context.Context, month string) (services.SheetView, error)
	Milestones(ctx context.Context) (services.MilestoneProgress, error)
	Earnings(ctx context.Context, year int) (services.EarningsReport, error)
	OtherIncome(ctx context.Context) (services.OtherIncomeReport, error)
}

// HoldingsReader reads brokerage holdings for an access token.
type HoldingsReader interface {
	Configured() bool
	Holdings(ctx context.Context, accessToken string) ([]brokerage.Holding, error)
}

// Options wires the server's collaborators. Brokerage, Publisher and Ready
// are optional.
type Options struct {
	Dashboard Dashboard
	Sessions  *auth.Sessions
	Brokerage HoldingsReader
	Publisher sheets.RefreshPublisher
	Ready     func(ctx context.Context) error
	Logger    *applog.Logger
	RateLimit ratelimit.Config
	CacheSize int

	// TrustedProxies are extra CIDRs whose forwarding headers are honored.
	TrustedProxies []string
}

type Server struct {
	http.Server

	dashboard Dashboard
	sessions  *auth.Sessions
	broker    HoldingsReader
	publisher sheets.RefreshPublisher
	ready     func(ctx context.Context) error
	logger    *applog.Logger

	parser       *RequestParser
	responses    *cache.LRUCache[[]byte]
	cacheManager *cache.Manager
	limiter      *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware

	shutdownOnce sync.Once
}

func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		dashboard: opts.Dashboard,
		sessions:  opts.Sessions,
		broker:    opts.Brokerage,
		publisher: opts.Publisher,
		ready:     opts.Ready,
		logger:    logger.WithComponent(applog.ComponentHTTP),

		parser:       NewRequestParser(),
		responses:    cache.NewLRUCache[[]byte](size, ttlBudget),
		cacheManager: cache.NewManager(),
		limiter:      ratelimit.NewLimiter(opts.RateLimit),
		detector:     security.NewDetector(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	s.cacheManager.Register(s.responses)
	s.cacheManager.StartCleanup(cacheSweepInterval)

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(applog.Middleware(s.logger))
	r.Use(s.tracer.Middleware)
	r.Use(applog.AccessLog)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited))
		r.Use(s.sessions.Middleware)

		r.Get("/budget", s.handleBudget)
		r.Get("/comparison", s.handleComparison)
		r.Get("/earnings", s.handleEarnings)
		r.Get("/months", s.handleMonths)
		r.Get("/sheets", s.handleSheets)
		r.Get("/other-income", s.handleOtherIncome)
		r.Get("/milestones", s.handleMilestones)
		r.Get("/portfolio", s.handlePortfolio)
		r.Post("/refresh", s.handleRefresh)
	})

	return r
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).
		WarnContext(r.Context(), "Rate limit exceeded")
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
}

// Shutdown stops background goroutines, then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.cacheManager.Stop()
	})
	return s.Server.Shutdown(ctx)
}
