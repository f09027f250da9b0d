package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"order-console/internal/domain"
	"order-console/internal/service"
)

func (s *Server) healthHandler(c *gin.Context) {
	stats := s.db.Health(c.Request.Context())
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}

func (s *Server) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithError(c, s.log, fmt.Errorf("%w: %v", errBadRequest, err))
		return false
	}
	return true
}

func (s *Server) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, s.log, fmt.Errorf("%w: invalid id %q", errBadRequest, c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) loginHandler(c *gin.Context) {
	var req loginRequest
	if !s.bind(c, &req) {
		return
	}
	session, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) meHandler(c *gin.Context) {
	c.JSON(http.StatusOK, currentProfile(c))
}

type nicknameRequest struct {
	Nickname string `json:"nickname"`
}

func (s *Server) updateNicknameHandler(c *gin.Context) {
	var req nicknameRequest
	if !s.bind(c, &req) {
		return
	}
	if err := s.profiles.UpdateNickname(c.Request.Context(), currentProfile(c).ID, req.Nickname); err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (s *Server) changePasswordHandler(c *gin.Context) {
	var req changePasswordRequest
	if !s.bind(c, &req) {
		return
	}
	err := s.profiles.ChangePassword(c.Request.Context(), currentProfile(c).ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listOrdersHandler(c *gin.Context) {
	orders, err := s.orders.ListOrders(c.Request.Context())
	if err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) createOrderHandler(c *gin.Context) {
	var in domain.CreateOrderInput
	if !s.bind(c, &in) {
		return
	}
	order, err := s.orders.CreateOrder(c.Request.Context(), currentProfile(c).ID, in)
	if err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) orderStatsHandler(c *gin.Context) {
	orders, err := s.orders.ListOrders(c.Request.Context())
	if err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, service.Stats(orders))
}

type statusRequest struct {
	Status   domain.OrderStatus `json:"status" binding:"required"`
	Password string             `json:"password"`
}

func (s *Server) updateOrderStatusHandler(c *gin.Context) {
	var req statusRequest
	if !s.bind(c, &req) {
		return
	}
	if err := s.orders.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status, req.Password); err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": req.Status})
}

func (s *Server) listUsersHandler(c *gin.Context) {
	users, err := s.profiles.ListUsers(c.Request.Context())
	if err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) createUserHandler(c *gin.Context) {
	var in service.NewProfile
	if !s.bind(c, &in) {
		return
	}
	p, err := s.profiles.Create(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

type passwordRequest struct {
	Password string `json:"password" binding:"required"`
}

func (s *Server) resetPasswordHandler(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var req passwordRequest
	if !s.bind(c, &req) {
		return
	}
	if err := s.profiles.ResetPassword(c.Request.Context(), id, req.Password); err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listCustomersHandler(c *gin.Context) {
	customers, err := s.profiles.ListCustomers(c.Request.Context())
	if err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

type clientNameRequest struct {
	ClientName string `json:"client_name"`
}

func (s *Server) updateClientNameHandler(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var req clientNameRequest
	if !s.bind(c, &req) {
		return
	}
	if err := s.profiles.UpdateClientName(c.Request.Context(), id, req.ClientName); err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listWebhooksHandler(c *gin.Context) {
	settings, err := s.webhooks.List(c.Request.Context())
	if err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) createWebhookHandler(c *gin.Context) {
	var in service.CreateWebhookInput
	if !s.bind(c, &in) {
		return
	}
	setting, err := s.webhooks.Create(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.JSON(http.StatusCreated, setting)
}

func (s *Server) updateWebhookHandler(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var in service.UpdateWebhookInput
	if !s.bind(c, &in) {
		return
	}
	setting, err := s.webhooks.Update(c.Request.Context(), id, in)
	if err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (s *Server) deleteWebhookHandler(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.webhooks.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type payloadConfigRequest struct {
	PayloadConfig *domain.MessageTemplates `json:"payload_config"`
}

func (s *Server) updatePayloadConfigHandler(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var req payloadConfigRequest
	if !s.bind(c, &req) {
		return
	}
	setting, err := s.webhooks.UpdatePayloadConfig(c.Request.Context(), id, req.PayloadConfig)
	if err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (s *Server) getGlobalConfigHandler(c *gin.Context) {
	cfg, err := s.webhooks.GlobalConfig(c.Request.Context())
	if err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) saveGlobalConfigHandler(c *gin.Context) {
	var cfg domain.MessageTemplates
	if !s.bind(c, &cfg) {
		return
	}
	if err := s.webhooks.SaveGlobalConfig(c.Request.Context(), cfg); err != nil {
		abortWithError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
