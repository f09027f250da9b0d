package server

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"order-console/internal/auth"
	"order-console/internal/service"
)

// HealthChecker reports the state of the backing store.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

type Server struct {
	addr     string
	origins  []string
	db       HealthChecker
	tokens   *auth.Tokens
	auth     service.AuthService
	profiles service.ProfileService
	orders   service.OrderService
	webhooks service.WebhookService
	log      logrus.FieldLogger
}

type Options struct {
	Address        string
	AllowedOrigins []string
	DB             HealthChecker
	Tokens         *auth.Tokens
	Auth           service.AuthService
	Profiles       service.ProfileService
	Orders         service.OrderService
	Webhooks       service.WebhookService
	Logger         logrus.FieldLogger
}

func New(opts Options) *Server {
	return &Server{
		addr:     opts.Address,
		origins:  opts.AllowedOrigins,
		db:       opts.DB,
		tokens:   opts.Tokens,
		auth:     opts.Auth,
		profiles: opts.Profiles,
		orders:   opts.Orders,
		webhooks: opts.Webhooks,
		log:      opts.Logger,
	}
}

// HTTPServer wraps the routes in an *http.Server with sane timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.addr,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
