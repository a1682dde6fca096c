package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/logger"
)

// Server wraps the HTTP listener and its router.
type Server struct {
	engine *gin.Engine
	logger *zap.Logger
	port   string
	server *http.Server
}

// NewServer builds the router: recovery, request logging, CORS, actor
// identification, then the ledger routes under /api/v1. Requests without an
// X-User-ID header act as defaultActor.
func NewServer(log *zap.Logger, cfg config.ServerConfig, defaultActor string, ledgerHandler *LedgerHandler) *Server {
	log = logger.OrNop(log)
	if cfg.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(cors())
	r.Use(identify(defaultActor))

	v1 := r.Group("/api/v1")
	{
		ledgerHandler.RegisterRoutes(v1)

		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "UP"})
		})
	}

	return &Server{
		engine: r,
		logger: log,
		port:   cfg.Port,
		server: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens until Shutdown is called. A clean shutdown returns
// http.ErrServerClosed.
func (s *Server) Run() error {
	s.logger.Info("ledger API started", zap.String("port", s.port))
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		log.Info("HTTP request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.String("actor", c.GetString(actorKey)),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func identify(defaultActor string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.GetHeader("X-User-ID")
		if user == "" {
			user = defaultActor
		}
		c.Set(actorKey, user)
		c.Next()
	}
}
