package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/dcarbon/emailpreview/internal/api/middleware"
	"github.com/dcarbon/emailpreview/internal/api/routes"
	"github.com/dcarbon/emailpreview/internal/cms"
	"github.com/dcarbon/emailpreview/internal/config"
	"github.com/dcarbon/emailpreview/internal/draftmode"
	"github.com/dcarbon/emailpreview/internal/logger"
	"github.com/dcarbon/emailpreview/internal/placeholder"
	"github.com/dcarbon/emailpreview/internal/services"
	"github.com/dcarbon/emailpreview/internal/web"
)

const shutdownTimeout = 5 * time.Second

// Server wraps the HTTP engine and shared dependencies for easier testing.
type Server struct {
	Engine *gin.Engine

	cfg     config.Config
	health  *services.StoreHealthService
	limiter *middleware.RateLimiter
}

// NewStoreClient builds the content store client from configuration.
func NewStoreClient(cfg config.Config) *cms.Client {
	return cms.NewClient(cfg.StrapiURL,
		cms.WithToken(cfg.StrapiToken),
		cms.WithTemplatesPath(cfg.TemplatesPath),
	)
}

// NewPreviewService builds the render pipeline from configuration, loading
// the sample data override when one is configured.
func NewPreviewService(cfg config.Config, store services.TemplateFetcher) (*services.PreviewService, error) {
	svc := services.NewPreviewService(store)
	if cfg.SampleFile == "" {
		return svc, nil
	}
	sample, err := placeholder.LoadSample(cfg.SampleFile)
	if err != nil {
		return nil, err
	}
	return svc.WithSample(sample), nil
}

// New wires up the HTTP router, middleware and routes. gatherer backs the
// /metrics endpoint and may be nil.
func New(db *gorm.DB, cfg config.Config, gatherer prometheus.Gatherer) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	}

	draft, err := draftmode.NewManager(cfg.PreviewSecret, cfg.CookieSecure)
	if err != nil {
		return nil, fmt.Errorf("draft mode: %w", err)
	}
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	store := NewStoreClient(cfg)
	preview, err := NewPreviewService(cfg, store)
	if err != nil {
		return nil, err
	}
	health := services.NewStoreHealthService(store, cfg.AlertURL)
	limiter := middleware.NewRateLimiter(cfg.GateRate, cfg.GateBurst)

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Recovery(cfg.Debug),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{
			IsDevelopment:  cfg.IsDevelopment(),
			FrameAncestors: cfg.EmbedOrigins(),
		}),
	)
	router.SetHTMLTemplate(tmpl)

	deps := routes.Dependencies{
		Gate:        services.NewGateService(cfg.PreviewSecret),
		Preview:     preview,
		Audit:       services.NewAuditService(db),
		StoreHealth: health,
		Draft:       draft,
		GateLimiter: limiter,
	}
	if gatherer != nil {
		deps.Metrics = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	routes.Register(router, deps)

	return &Server{Engine: router, cfg: cfg, health: health, limiter: limiter}, nil
}

// Run starts store health probing and the HTTP server, and shuts both down
// when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.health.Start(s.cfg.HealthSchedule); err != nil {
		return err
	}
	defer s.health.Stop()
	s.limiter.Start()
	defer s.limiter.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.HTTPPort),
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Log().WithField("addr", srv.Addr).Info("preview server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
