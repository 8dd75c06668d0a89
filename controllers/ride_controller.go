// File: /controllers/ride_controller.go
package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"motocosmos-telemetry/models"
	"motocosmos-telemetry/services"
	"motocosmos-telemetry/utils"
)

type RideController struct {
	rides *services.RideService
}

func NewRideController(rides *services.RideService) *RideController {
	return &RideController{rides: rides}
}

func (rc *RideController) GetRides(c *gin.Context) {
	userID := c.GetString("user_id")
	page, limit := c.GetInt("page"), c.GetInt("limit")

	rides, total, err := rc.rides.ListRides(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	utils.SendPaginated(c, rides, page, limit, total)
}

func (rc *RideController) StartRide(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.StartRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	ride, err := rc.rides.StartRide(c.Request.Context(), userID, req.MotorcycleID, req.StartTime)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ride)
}

func (rc *RideController) EndRide(c *gin.Context) {
	userID := c.GetString("user_id")
	rideID := c.Param("id")

	var req models.EndRideRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.SendValidationError(c, err.Error())
		return
	}

	ride, err := rc.rides.EndRide(c.Request.Context(), rideID, userID, req.EndTime, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ride)
}

func (rc *RideController) GetRide(c *gin.Context) {
	userID := c.GetString("user_id")
	rideID := c.Param("id")

	ride, err := rc.rides.GetRide(c.Request.Context(), rideID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ride)
}

// RecomputeRide reruns the end-of-ride computation of one of the rider's closed rides
func (rc *RideController) RecomputeRide(c *gin.Context) {
	userID := c.GetString("user_id")
	rideID := c.Param("id")

	if _, err := rc.rides.GetRide(c.Request.Context(), rideID, userID); err != nil {
		respondError(c, err)
		return
	}

	ride, err := rc.rides.RecomputeRide(c.Request.Context(), rideID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ride)
}
