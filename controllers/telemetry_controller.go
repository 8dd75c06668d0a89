// File: /controllers/telemetry_controller.go
package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"motocosmos-telemetry/models"
	"motocosmos-telemetry/services"
	"motocosmos-telemetry/utils"
)

// maxSampleBytes bounds the encoded size of one sample, raw_data included.
const maxSampleBytes = 4 << 10

type TelemetryController struct {
	rides *services.RideService
}

func NewTelemetryController(rides *services.RideService) *TelemetryController {
	return &TelemetryController{rides: rides}
}

// IngestTelemetry appends a batch of samples to a ride
func (tc *TelemetryController) IngestTelemetry(c *gin.Context) {
	userID := c.GetString("user_id")
	rideID := c.Param("id")

	limit := int64(tc.rides.MaxBatchSize()+1) * maxSampleBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	var req models.IngestTelemetryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.SendError(c, http.StatusRequestEntityTooLarge, "Request too large",
				fmt.Sprintf("telemetry batches are limited to %d bytes", limit))
			return
		}
		utils.SendValidationError(c, err.Error())
		return
	}

	accepted, err := tc.rides.IngestSamples(c.Request.Context(), rideID, userID, req.Samples)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.IngestTelemetryResponse{
		RideID:        rideID,
		AcceptedCount: accepted,
	})
}

// GetTelemetry returns the ride's samples in time order
func (tc *TelemetryController) GetTelemetry(c *gin.Context) {
	userID := c.GetString("user_id")
	rideID := c.Param("id")

	points, err := tc.rides.GetRidePoints(c.Request.Context(), rideID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, points)
}
