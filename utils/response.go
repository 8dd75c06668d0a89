// File: /utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every error answered by the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
}

func SendError(c *gin.Context, status int, err string, message string) {
	c.JSON(status, ErrorResponse{Error: err, Message: message, Code: status})
}

// AbortWithError answers the request and stops the handler chain.
func AbortWithError(c *gin.Context, status int, err string, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err, Message: message, Code: status})
}

func SendValidationError(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, "Validation failed", message)
}

func SendPaginated(c *gin.Context, data interface{}, page, limit int, total int64) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       data,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	})
}
