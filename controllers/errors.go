package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"motocosmos-telemetry/services"
	"motocosmos-telemetry/utils"
)

// respondError maps service errors onto HTTP statuses. Anything unrecognized is a 500
// and is logged with the request path.
func respondError(c *gin.Context, err error) {
	var (
		notFound   *services.NotFoundError
		forbidden  *services.ForbiddenError
		validation *services.ValidationError
		conflict   *services.ConflictError
	)

	switch {
	case errors.As(err, &notFound):
		utils.SendError(c, http.StatusNotFound, "Not found", err.Error())
	case errors.As(err, &forbidden):
		utils.SendError(c, http.StatusForbidden, "Forbidden", err.Error())
	case errors.As(err, &validation):
		utils.SendValidationError(c, err.Error())
	case errors.As(err, &conflict):
		utils.SendError(c, http.StatusConflict, "Conflict", err.Error())
	default:
		slog.Error("Request failed", "error", err, "method", c.Request.Method, "path", c.Request.URL.Path)
		utils.SendError(c, http.StatusInternalServerError, "Internal server error", "An unexpected error occurred")
	}
}
