package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Fepozopo/xray/internal/config"
	"github.com/Fepozopo/xray/internal/handler"
	"github.com/Fepozopo/xray/internal/repository"
	"github.com/Fepozopo/xray/internal/service"
)

type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	log        *zap.Logger
}

// New wires the dashboard. sink may be nil, in which case exports are only
// returned to the client.
func New(cfg *config.Config, sink repository.ExportSink, log *zap.Logger) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	index, err := renderIndex(cfg.App.AllowedFormats)
	if err != nil {
		return nil, err
	}

	enhanceService := service.NewEnhanceService(sink, cfg, log)
	h := handler.NewHandler(enhanceService, cfg.App.MaxUploadSize, index, log)
	router := newRouter(h, cfg, log)

	server := &Server{
		httpServer: &http.Server{
			Addr:           cfg.Server.Addr(),
			Handler:        router,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
		cfg: cfg,
		log: log,
	}

	log.Info("Server created successfully",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.Bool("s3_export", cfg.S3.Enabled))

	return server, nil
}

func newRouter(h *handler.Handler, cfg *config.Config, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))
	// headroom for the multipart envelope around the image
	router.MaxMultipartMemory = cfg.App.MaxUploadSize + 1<<20

	router.GET("/", h.GetUI)
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/techniques", h.Techniques)
		api.POST("/enhance", h.Enhance)
		api.POST("/enhance/download", h.Download)
		api.POST("/enhance/report", h.Report)
	}
	return router
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Run() error {
	s.log.Info("Server is running",
		zap.String("address", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}
