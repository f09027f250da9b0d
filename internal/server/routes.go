package server

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"order-console/internal/domain"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())

	r.Use(cors.New(s.corsConfig()))

	r.GET("/health", s.healthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/auth/login", s.loginHandler)

	authed := api.Group("", s.authenticate())
	authed.GET("/me", s.meHandler)
	authed.PUT("/me/nickname", s.updateNicknameHandler)
	authed.PUT("/me/password", s.changePasswordHandler)

	authed.GET("/orders", s.listOrdersHandler)
	authed.POST("/orders", requireRole(domain.RoleCustomer), s.createOrderHandler)
	authed.GET("/orders/stats", requireRole(domain.RoleEmployee, domain.RoleSuperAdmin), s.orderStatsHandler)
	authed.PATCH("/orders/:id/status", requireRole(domain.RoleEmployee, domain.RoleSuperAdmin), s.updateOrderStatusHandler)

	admin := authed.Group("", requireRole(domain.RoleSuperAdmin))
	admin.GET("/users", s.listUsersHandler)
	admin.POST("/users", s.createUserHandler)
	admin.PUT("/users/:id/password", s.resetPasswordHandler)
	admin.GET("/customers", s.listCustomersHandler)
	admin.PUT("/customers/:id/client-name", s.updateClientNameHandler)
	admin.GET("/webhooks", s.listWebhooksHandler)
	admin.POST("/webhooks", s.createWebhookHandler)
	admin.GET("/webhooks/global-config", s.getGlobalConfigHandler)
	admin.PUT("/webhooks/global-config", s.saveGlobalConfigHandler)
	admin.PATCH("/webhooks/:id", s.updateWebhookHandler)
	admin.DELETE("/webhooks/:id", s.deleteWebhookHandler)
	admin.PUT("/webhooks/:id/payload-config", s.updatePayloadConfigHandler)

	return r
}

// corsConfig allows every origin when the list is empty or contains "*".
// Credentials are only allowed for an explicit origin list.
func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(s.origins) == 0 || slices.Contains(s.origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = s.origins
	cfg.AllowCredentials = true
	return cfg
}
