// Package http exposes the JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"costeo/internal/auth"
	"costeo/internal/backend"
	"costeo/internal/cache"
	applog "costeo/internal/log"
	"costeo/internal/middleware/ratelimit"
	"costeo/internal/services"
	"costeo/internal/subscription"
)

type Server struct {
	http.Server

	backend      backend.Backend
	auth         *auth.Service
	transactions *services.TransactionService
	reports      *services.ReportService
	gate         *subscription.Gate

	rateLimiter *ratelimit.Limiter
	httpLog     *applog.StructuredLogger

	// Response caches keyed by "businessID|start|end", invalidated on
	// writes for that business.
	dashboardCache *cache.LRUCache[services.Dashboard]
	reportCache    *cache.LRUCache[services.Report]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, be backend.Backend, authSvc *auth.Service, txSvc *services.TransactionService, reportSvc *services.ReportService, gate *subscription.Gate) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		backend:        be,
		auth:           authSvc,
		transactions:   txSvc,
		reports:        reportSvc,
		gate:           gate,
		rateLimiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		httpLog:        applog.NewStructuredLogger(applog.New(applog.Config{Handler: slog.Default().Handler(), Component: applog.ComponentHTTP})),
		dashboardCache: cache.NewLRUCache[services.Dashboard](100, 5*time.Minute),
		reportCache:    cache.NewLRUCache[services.Report](100, 5*time.Minute),
		cacheManager:   cache.NewManager(),
	}

	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.withSecurityHeaders(s.handleLogin))

	mux.HandleFunc("GET /api/dashboard", s.protected(s.handleDashboard))
	mux.HandleFunc("GET /api/reports", s.protected(s.handleReports))
	mux.HandleFunc("GET /api/projections", s.protected(s.handleProjections))

	mux.HandleFunc("GET /api/transactions", s.protected(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.protected(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.protected(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.protected(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.protected(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.protected(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.protected(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.protected(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/businesses", s.protected(s.handleListBusinesses))
	mux.HandleFunc("POST /api/businesses", s.protected(s.handleCreateBusiness))
	mux.HandleFunc("GET /api/businesses/{id}", s.protected(s.handleGetBusiness))
	mux.HandleFunc("DELETE /api/businesses/{id}", s.protected(s.handleDeleteBusiness))

	mux.HandleFunc("GET /api/products", s.protected(s.handleListProducts))
	mux.HandleFunc("POST /api/products", s.protected(s.handleCreateProduct))
	mux.HandleFunc("DELETE /api/products/{id}", s.protected(s.handleDeleteProduct))

	mux.HandleFunc("GET /api/ingredients", s.protected(s.handleListIngredients))
	mux.HandleFunc("POST /api/ingredients", s.protected(s.handleCreateIngredient))
	mux.HandleFunc("DELETE /api/ingredients/{id}", s.protected(s.handleDeleteIngredient))

	mux.HandleFunc("GET /api/subscription", s.protected(s.handleSubscription))

	return s
}

// protected chains the ambient middleware with token verification.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return s.withSecurityHeaders(s.requireAuth(next))
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := clientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.httpLog.LogHTTPStart(ctx, r, requestID, clientIP)

		// Rate limit writes only; reads are cached and cheap.
		if isWrite(r.Method) && !s.rateLimiter.Allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "demasiadas solicitudes, intenta más tarde")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.httpLog.LogHTTPEnd(ctx, r, requestID, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// clientIP extracts the client IP, considering proxies.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
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

// invalidateBusiness drops all cached payloads for a business after a
// write touches its ledger.
func (s *Server) invalidateBusiness(businessID string) {
	s.dashboardCache.DeletePrefix(businessID + "|")
	s.reportCache.DeletePrefix(businessID + "|")
}
