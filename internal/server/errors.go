package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"order-console/internal/domain"
	"order-console/internal/logger"
)

var errBadRequest = errors.New("malformed request")

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first matching sentinel wins.
var errorMappings = []errorMapping{
	{errBadRequest, http.StatusBadRequest, "bad_request"},
	{domain.ErrPasswordRequired, http.StatusBadRequest, "password_required"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrInvalidPassword, http.StatusForbidden, "invalid_password"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{domain.ErrConcurrentUpdate, http.StatusConflict, "concurrent_update"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrInvalidWebhookURL, http.StatusUnprocessableEntity, "invalid_webhook_url"},
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_failed"},
	{domain.ErrWebhookUnreachable, http.StatusBadGateway, "webhook_unreachable"},
}

func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// abortWithError writes the JSON error envelope. Internal errors are logged and
// their text is not exposed.
func abortWithError(c *gin.Context, log logrus.FieldLogger, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		if log != nil {
			logger.WithContext(c.Request.Context(), log).WithError(err).Error("request error")
		}
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{
		"status":  "error",
		"code":    code,
		"message": message,
	})
}
