// Package httpapi exposes the moderation pipeline over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/viant/moderation/internal/logging"
	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/approval"
	"github.com/viant/moderation/service/capture"
	"github.com/viant/moderation/service/identity"
)

// Moderator is the pipeline surface served over HTTP.
type Moderator interface {
	Submit(ctx context.Context, requester model.Requester, payload model.Payload) (*capture.Receipt, error)
	Verify(ctx context.Context, challengeID, code string) (*model.Item, error)
	Resend(ctx context.Context, challengeID string) (*model.Handle, error)
	List(ctx context.Context, status model.Status, kind model.ActionKind) ([]*model.Item, error)
	Load(ctx context.Context, id string) (*model.Item, error)
	Approve(ctx context.Context, id string) (*approval.Decision, error)
	Deny(ctx context.Context, id, reason string) (*approval.Decision, error)
}

// Config controls the HTTP server.
type Config struct {
	Addr         string
	Debug        bool
	EnableCORS   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server routes requests to a Moderator.
type Server struct {
	config    Config
	moderator Moderator
	identity  *identity.Memory
	metrics   http.Handler
	logger    *logging.Logger
	engine    *gin.Engine
}

// Option customises Server.
type Option func(*Server)

// WithIdentity enables the /identity routes and remembers submitters per device.
func WithIdentity(memory *identity.Memory) Option {
	return func(s *Server) { s.identity = memory }
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a server.
func New(config Config, moderator Moderator, options ...Option) *Server {
	s := &Server{config: config, moderator: moderator, logger: logging.Nop()}
	for _, opt := range options {
		opt(s)
	}
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(recovery(s.logger), requestLog(s.logger))
	if config.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Device-ID"}
		engine.Use(cors.New(corsConfig))
	}
	s.engine = engine
	s.routes()
	return s
}

func (s *Server) routes() {
	h := &handler{server: s}
	s.engine.POST("/actions", h.submit)
	s.engine.POST("/challenges/:id/verify", h.verify)
	s.engine.POST("/challenges/:id/resend", h.resend)

	admin := s.engine.Group("/moderation")
	admin.GET("/pending", h.pending)
	admin.GET("/items", h.items)
	admin.GET("/items/:id", h.item)
	admin.POST("/items/:id/approve", h.approve)
	admin.POST("/items/:id/deny", h.deny)

	if s.identity != nil {
		s.engine.GET("/identity/:device", h.recall)
		s.engine.PUT("/identity/:device", h.remember)
	}
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics))
	}
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.config.Addr)
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
