package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"finsight/internal/brokerage"
	"finsight/internal/core"
	applog "finsight/internal/log"
	"finsight/internal/services"
	"finsight/internal/sheets"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleMetrics writes request, rate limit, security and cache counters in
// Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	writeMetric(w, "http_last_response_time_microseconds", "gauge", "Duration of the most recent request", traceMetrics.LastResponseTime)
	writeMetric(w, "rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", limitMetrics.TotalHits)
	writeMetric(w, "rate_limit_clients", "gauge", "Clients currently tracked by the rate limiter", limitMetrics.ClientCount)
	writeMetric(w, "suspicious_requests_total", "counter", "Requests rejected as probes", securityMetrics.SuspiciousRequests)
	writeMetric(w, "response_cache_entries", "gauge", "Entries in the response cache", int64(s.responses.Size()))
}

func writeMetric(w io.Writer, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n", name, value)
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	params, err := s.parser.Budget(r.URL.Query())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	key := fmt.Sprintf("budget|month=%s|year=%d", params.Month, params.Year)
	serveCached(s, w, r, key, ttlBudget, func(ctx context.Context) (services.BudgetView, error) {
		return s.dashboard.Budget(ctx, services.BudgetQuery{Month: params.Month, Year: params.Year})
	})
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	serveCached(s, w, r, "comparison", ttlComparison, s.dashboard.Comparison)
}

func (s *Server) handleEarnings(w http.ResponseWriter, r *http.Request) {
	params, err := s.parser.Earnings(r.URL.Query())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	key := fmt.Sprintf("earnings|year=%d", params.Year)
	serveCached(s, w, r, key, ttlEarnings, func(ctx context.Context) (services.EarningsReport, error) {
		return s.dashboard.Earnings(ctx, params.Year)
	})
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	serveCached(s, w, r, "months", ttlMonths, s.dashboard.Months)
}

func (s *Server) handleSheets(w http.ResponseWriter, r *http.Request) {
	params, err := s.parser.Sheet(r.URL.Query())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	key := "sheets|month=" + params.Month
	serveCached(s, w, r, key, ttlSheets, func(ctx context.Context) (services.SheetView, error) {
		return s.dashboard.Sheet(ctx, params.Month)
	})
}

func (s *Server) handleOtherIncome(w http.ResponseWriter, r *http.Request) {
	serveCached(s, w, r, "other-income", ttlOtherIncome, s.dashboard.OtherIncome)
}

func (s *Server) handleMilestones(w http.ResponseWriter, r *http.Request) {
	serveCached(s, w, r, "milestones", ttlMilestones, s.dashboard.Milestones)
}

// handlePortfolio reports {connected:false} without a brokerage session
// rather than failing.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil || !s.broker.Configured() {
		writeJSON(w, http.StatusOK, brokerage.Disconnected())
		return
	}
	cookie, err := r.Cookie(brokerAccessCookie)
	if err != nil || cookie.Value == "" {
		writeJSON(w, http.StatusOK, brokerage.Disconnected())
		return
	}

	// The token itself never becomes part of a cache key.
	key := "portfolio|" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(cookie.Value)).String()
	serveCached(s, w, r, key, ttlPortfolio, func(ctx context.Context) (brokerage.Portfolio, error) {
		holdings, err := s.broker.Holdings(ctx, cookie.Value)
		if errors.Is(err, brokerage.ErrUnauthorized) {
			return brokerage.Disconnected(), nil
		}
		if err != nil {
			return brokerage.Portfolio{}, err
		}
		return brokerage.Summarize(holdings), nil
	})
}

type refreshResponse struct {
	Purged    int  `json:"purged"`
	Published bool `json:"published"`
}

// handleRefresh drops every cached response and, with AMQP configured, asks
// the mirror worker to re-read all ranges.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentCache)

	resp := refreshResponse{Purged: s.responses.Purge()}
	if s.publisher != nil {
		if err := s.publisher.PublishRefresh(ctx, ""); err != nil {
			logger.WarnContext(ctx, "Failed to publish refresh request",
				applog.FieldOperation, applog.OpRefresh,
				applog.FieldError, err)
		} else {
			resp.Published = true
		}
	}

	logger.InfoContext(ctx, "Response cache purged",
		applog.FieldOperation, applog.OpRefresh,
		"purged", resp.Purged,
		"published", resp.Published)
	writeJSON(w, http.StatusAccepted, resp)
}

// serveCached answers from the response cache or computes, encodes and
// stores the payload. Errors are never cached.
func serveCached[T any](s *Server, w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, compute func(context.Context) (T, error)) {
	if body, ok := s.responses.Get(key); ok {
		writeJSONBytes(w, http.StatusOK, body)
		return
	}

	v, err := compute(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	body, err := encodeJSON(v)
	if err != nil {
		s.writeServiceError(w, r, fmt.Errorf("encode %s: %w", key, err))
		return
	}
	s.responses.Set(key, body, ttl)
	writeJSONBytes(w, http.StatusOK, body)
}

// writeServiceError maps errors onto status codes. Configuration errors
// carry their message to the client; anything unexpected does not.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, core.ErrInvalidMonthLabel):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sheets.ErrNotConfigured):
		logger.ErrorContext(ctx, "Data source not configured", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, brokerage.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, context.Canceled):
		logger.DebugContext(ctx, "Request cancelled", applog.FieldError, err)
	default:
		logger.ErrorContext(ctx, "Request failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
