package http

import (
	"net/http"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"

	"github.com/gin-gonic/gin"
)

type RelayHandler struct {
	controller ports.RelayController
	relayRepo  ports.RelayRepository
}

func NewRelayHandler(controller ports.RelayController, relayRepo ports.RelayRepository) *RelayHandler {
	return &RelayHandler{
		controller: controller,
		relayRepo:  relayRepo,
	}
}

func (h *RelayHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/relays/:id/start", h.StartRelay)
		api.POST("/relays/:id/stop", h.StopRelay)
		api.GET("/relays/:id/status", h.RelayStatus)
		api.GET("/active", h.ListActive)
	}
}

func (h *RelayHandler) StartRelay(c *gin.Context) {
	relayID := domain.RelayID(c.Param("id"))

	endpoint, err := h.controller.Start(c.Request.Context(), relayID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "started",
		"endpointUrl": endpoint.URL,
		"port":        endpoint.Port,
	})
}

func (h *RelayHandler) StopRelay(c *gin.Context) {
	relayID := domain.RelayID(c.Param("id"))

	if err := h.controller.Stop(c.Request.Context(), relayID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "stopped",
	})
}

func (h *RelayHandler) RelayStatus(c *gin.Context) {
	relayID := domain.RelayID(c.Param("id"))

	job, err := h.relayRepo.GetByID(c.Request.Context(), relayID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"id":    job.ID,
		"state": string(job.State),
	}
	if job.LastError != "" {
		resp["last_error"] = job.LastError
	}
	if job.Endpoint != nil {
		resp["endpointUrl"] = job.Endpoint.URL
		resp["port"] = job.Endpoint.Port
	}

	c.JSON(http.StatusOK, resp)
}

func (h *RelayHandler) ListActive(c *gin.Context) {
	ids := h.controller.ActiveIDs()

	c.JSON(http.StatusOK, gin.H{
		"active": ids,
		"count":  len(ids),
	})
}
