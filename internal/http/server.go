// Package http exposes the JSON API. Every data-bearing route runs behind
// the actor middleware; the caller's identity arrives as an
// upstream-verified X-Actor-ID header.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	applog "expensehub/internal/log"
	"expensehub/internal/services"
	"expensehub/internal/store"
)

type Server struct {
	http.Server

	store       store.Store
	visibility  *services.VisibilityService
	lifecycle   *services.LifecycleService
	budgets     *services.BudgetService
	analytics   *services.AnalyticsService
	rateLimiter *rateLimiter
	logger      *applog.Logger
	reqLog      *applog.StructuredLogger

	shutdownOnce sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	perMinute    int
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter(perMinute int) *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		perMinute:   perMinute,
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now

	return client.requests <= rl.perMinute
}

// NewServer wires routes over the service layer, returning a
// ready-to-run http.Server.
func NewServer(addr string, st store.Store, visibility *services.VisibilityService, lifecycle *services.LifecycleService, budgets *services.BudgetService, analytics *services.AnalyticsService, rateLimitPerMinute int) *Server {
	mux := http.NewServeMux()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: applog.Middleware(logger)(mux),
		},
		store:       st,
		visibility:  visibility,
		lifecycle:   lifecycle,
		budgets:     budgets,
		analytics:   analytics,
		rateLimiter: newRateLimiter(rateLimitPerMinute),
		logger:      logger,
		reqLog:      applog.NewStructuredLogger(logger),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	api := func(h http.HandlerFunc) http.HandlerFunc {
		return s.withRequestGuards(withActor(st, h))
	}

	mux.HandleFunc("POST /api/expenses", api(s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses", api(s.handleListExpenses))
	mux.HandleFunc("GET /api/expenses/{id}", api(s.handleGetExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", api(s.handleUpdateExpense))
	mux.HandleFunc("POST /api/expenses/{id}/submit", api(s.handleSubmitExpense))
	mux.HandleFunc("POST /api/expenses/{id}/approve", api(s.handleApproveExpense))
	mux.HandleFunc("POST /api/expenses/{id}/reject", api(s.handleRejectExpense))
	mux.HandleFunc("POST /api/expenses/{id}/pay", api(s.handlePayExpense))
	mux.HandleFunc("POST /api/expenses/{id}/reopen", api(s.handleReopenExpense))

	mux.HandleFunc("POST /api/budgets", api(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets", api(s.handleListBudgets))
	mux.HandleFunc("DELETE /api/budgets/{id}", api(s.handleDeactivateBudget))
	mux.HandleFunc("GET /api/budgets/{id}/utilization", api(s.handleBudgetUtilization))

	mux.HandleFunc("GET /api/analytics/summary", api(s.handleAnalyticsSummary))

	mux.HandleFunc("POST /api/categories", api(s.handleCreateCategory))
	mux.HandleFunc("GET /api/categories", api(s.handleListCategories))

	mux.HandleFunc("POST /api/actors", api(s.handleCreateActor))
	mux.HandleFunc("POST /api/teams", api(s.handleCreateTeam))

	mux.HandleFunc("GET /api/notifications", api(s.handleListNotifications))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequestGuards adds security headers, rate limiting and request
// logging to responses
func (s *Server) withRequestGuards(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		ctx = context.WithValue(ctx, applog.LoggerContextKey, s.logger.With(applog.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		s.reqLog.LogHTTPStart(ctx, r, clientIP)

		// Rate limiting applies to mutating requests only.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.reqLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
