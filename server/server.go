package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/server/endpoint"
	"github.com/kbukum/taskflow/server/middleware"
)

// Server is the HTTP transport: a Gin engine mounted on a ServeMux and
// served with h2c so HTTP/2 clients work without TLS.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	handler    http.Handler
	config     Config
	log        *logger.Logger

	mu      sync.RWMutex
	addr    string
	running bool
}

// New creates a Server. No middleware is applied until ApplyMiddleware.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.Get("server")
	}

	engine := gin.New()
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	s := &Server{
		engine:  engine,
		mux:     mux,
		handler: mux,
		config:  cfg,
		log:     log.WithComponent("server"),
		addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      h2c.NewHandler(http.HandlerFunc(s.serveHTTP), h2s),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}
	return s
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handler returns the full handler chain the server serves, for tests and
// embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Handle mounts an http.Handler next to Gin on the root mux.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("handler mounted", map[string]interface{}{"pattern": pattern})
}

// ApplyMiddleware wraps the whole mux with recovery, request ID, CORS,
// body-size limit and request logging, outermost first.
func (s *Server) ApplyMiddleware() {
	mws := []middleware.Middleware{
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.CORS(s.config.CORS),
	}
	if s.config.MaxBodySize != "" {
		mws = append(mws, middleware.BodySizeLimit(s.config.MaxBodySize))
	}
	mws = append(mws, middleware.RequestLogger(s.log))
	s.handler = middleware.Chain(mws...)(s.mux)
}

// APIGroup returns the /v1 route group guarded by the configured auth and
// rate limit.
func (s *Server) APIGroup() *gin.RouterGroup {
	var handlers []gin.HandlerFunc
	if s.config.Auth.Enabled {
		handlers = append(handlers, middleware.GinWrap(middleware.Auth(middleware.AuthConfig{
			Validator: middleware.HMACValidator(s.config.Auth.Secret, s.config.Auth.Issuer),
		})))
	}
	if s.config.RateLimit > 0 {
		handlers = append(handlers, middleware.GinWrap(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerMinute: s.config.RateLimit,
			KeyFunc:           middleware.SubjectKey,
		})))
	}
	return s.engine.Group("/v1", handlers...)
}

// RegisterDefaultEndpoints registers /health, /alive, /ready and /version.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker endpoint.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(serviceName, checker))
	s.engine.GET("/alive", endpoint.Liveness(serviceName))
	s.engine.GET("/ready", endpoint.Readiness(serviceName, checker))
	s.engine.GET("/version", endpoint.Version(serviceName))
}

// Start binds the port and serves in a goroutine. It returns once the
// listener is bound.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	s.mu.Lock()
	s.addr = listener.Addr().String()
	s.running = true
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", map[string]interface{}{logger.FieldError: err.Error()})
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.log.Info("http server started", map[string]interface{}{"addr": s.Addr()})
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.log.Info("http server stopped")
	return nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Running reports whether the listener is serving.
func (s *Server) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
