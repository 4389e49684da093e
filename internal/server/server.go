package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/taxbridge/internal/config"
	"github.com/smallbiznis/taxbridge/internal/engine"
	"github.com/smallbiznis/taxbridge/internal/ordermarker"
	"github.com/smallbiznis/taxbridge/internal/profilesync"
	synclogdomain "github.com/smallbiznis/taxbridge/internal/synclog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

// NewEngine builds the gin engine with recovery, request logging and error
// mapping middleware.
func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log.Named("http")))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type ServerParams struct {
	fx.In

	Log     *zap.Logger
	Router  *gin.Engine
	Engine  *engine.Engine
	Syncer  *profilesync.Syncer
	Markers *ordermarker.Listener
	Logs    synclogdomain.Service
}

type Server struct {
	log     *zap.Logger
	router  *gin.Engine
	engine  *engine.Engine
	syncer  *profilesync.Syncer
	markers *ordermarker.Listener
	logs    synclogdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		log:     p.Log.Named("server"),
		router:  p.Router,
		engine:  p.Engine,
		syncer:  p.Syncer,
		markers: p.Markers,
		logs:    p.Logs,
	}
}

func registerRoutes(s *Server) {
	api := s.router.Group("/api")
	api.POST("/checkout/calculate", s.CalculateCart)
	api.POST("/hooks/customer-written", s.CustomerWritten)
	api.POST("/hooks/order-written", s.OrderWritten)

	admin := s.router.Group("/admin")
	admin.GET("/sync-logs", s.ListSyncLogs)
	admin.GET("/sync-logs/export", s.ExportSyncLogs)
}

func run(lc fx.Lifecycle, cfg config.Config, router *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	}
}
