// Package handler implements the ops endpoints: health probes, outbox
// administration, stock lookups and the audit log.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/interfaces/http/dto"
	"github.com/retailops/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

const internalMessage = "An unexpected error occurred"

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.OK(data))
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.Fail(dto.ErrCodeBadRequest, message, middleware.GetRequestID(c)))
}

// fail reports err with the status its domain code maps to. Errors without
// a code are logged and answered with a generic message.
func fail(c *gin.Context, err error) {
	status, code := dto.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("ops request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		message = internalMessage
	}
	_ = c.Error(err)
	c.JSON(status, dto.Fail(code, message, middleware.GetRequestID(c)))
}
