package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/config"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/usecase"
)

type Server struct {
	cfg      config.ServerConfig
	notifUC  usecase.NotificationUseCase
	verifyUC usecase.VerificationUseCase
	log      *zerolog.Logger
	limiter  *ipRateLimiter
	server   *http.Server
}

func NewServer(cfg config.ServerConfig, notifUC usecase.NotificationUseCase, verifyUC usecase.VerificationUseCase, logger *zerolog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		notifUC:  notifUC,
		verifyUC: verifyUC,
		log:      logger,
		limiter:  newIPRateLimiter(cfg.WebhookRPS, cfg.WebhookBurst),
	}
}

// RegisterRoutes attaches handlers to the provided mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	common := []Middleware{
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
		Timeout(10 * time.Second),
	}
	webhook := Chain(webhookHandler(s.notifUC, s.log), append(common, RateLimit(s.limiter))...)
	verify := Chain(verifyHandler(s.verifyUC), common...)

	mux.Handle("/api/webhook/payment", webhook)
	mux.Handle("/api/verify/", verify)
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) Start() error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: mux,
	}

	s.log.Info().Int("port", s.cfg.Port).Msg("HTTP server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
