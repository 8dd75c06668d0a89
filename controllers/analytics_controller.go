// File: /controllers/analytics_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"motocosmos-telemetry/services"
)

type AnalyticsController struct {
	rides *services.RideService
}

func NewAnalyticsController(rides *services.RideService) *AnalyticsController {
	return &AnalyticsController{rides: rides}
}

func (ac *AnalyticsController) GetAnalytics(c *gin.Context) {
	analytics, err := ac.rides.GetRideSummary(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

func (ac *AnalyticsController) GetSafetyEvents(c *gin.Context) {
	events, err := ac.rides.ListSafetyEvents(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}
