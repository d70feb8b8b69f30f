package http

import (
	"fmt"
	"net/http"
	"strconv"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/pipeline"
	"gridcast/internal/core/services"
	"gridcast/pkg/errors"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/sources", h.CreateSource)
		api.GET("/sources", h.ListSources)
		api.GET("/sources/:id", h.GetSource)
		api.DELETE("/sources/:id", h.DeleteSource)

		api.POST("/templates", h.CreateTemplate)
		api.GET("/templates", h.ListTemplates)
		api.DELETE("/templates/:id", h.DeleteTemplate)

		api.POST("/relays", h.CreateRelay)
		api.GET("/relays", h.ListRelays)
		api.GET("/relays/:id", h.GetRelay)
		api.DELETE("/relays/:id", h.DeleteRelay)

		api.GET("/relays/:id/mappings", h.GetMappings)
		api.PUT("/relays/:id/mappings", h.SetMapping)
		api.DELETE("/relays/:id/mappings/:slot", h.ClearMapping)
	}
}

func respondError(c *gin.Context, err error) {
	appErr := errors.FromDomain(err)
	c.JSON(appErr.HTTPStatus, gin.H{
		"error":   string(appErr.Code),
		"message": appErr.Message,
	})
}

func (h *CatalogHandler) CreateSource(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"max=100"`
		URL      string `json:"url" binding:"required"`
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	source, err := h.catalog.CreateSource(c.Request.Context(), req.Name, req.URL, req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"source": source,
	})
}

func (h *CatalogHandler) ListSources(c *gin.Context) {
	sources, err := h.catalog.ListSources(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
	})
}

func (h *CatalogHandler) GetSource(c *gin.Context) {
	source, err := h.catalog.GetSource(c.Request.Context(), domain.SourceID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source": source,
	})
}

func (h *CatalogHandler) DeleteSource(c *gin.Context) {
	if err := h.catalog.DeleteSource(c.Request.Context(), domain.SourceID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "deleted",
	})
}

func (h *CatalogHandler) CreateTemplate(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"max=100"`
		Rows int    `json:"rows" binding:"required,min=1,max=8"`
		Cols int    `json:"cols" binding:"required,min=1,max=8"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.catalog.CreateTemplate(c.Request.Context(), req.Name, req.Rows, req.Cols)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"template": template,
	})
}

func (h *CatalogHandler) ListTemplates(c *gin.Context) {
	templates, err := h.catalog.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"templates": templates,
	})
}

func (h *CatalogHandler) DeleteTemplate(c *gin.Context) {
	if err := h.catalog.DeleteTemplate(c.Request.Context(), domain.TemplateID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "deleted",
	})
}

func (h *CatalogHandler) CreateRelay(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"max=100"`
		TemplateID  string `json:"template_id" binding:"required"`
		Width       int    `json:"width" binding:"required"`
		Height      int    `json:"height" binding:"required"`
		Framerate   int    `json:"framerate" binding:"required"`
		BitrateKbps int    `json:"bitrate_kbps" binding:"required"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := pipeline.Params{
		Width:       req.Width,
		Height:      req.Height,
		Framerate:   req.Framerate,
		BitrateKbps: req.BitrateKbps,
	}
	job, err := h.catalog.CreateRelay(c.Request.Context(), req.Name, domain.TemplateID(req.TemplateID), params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"relay": job,
	})
}

func (h *CatalogHandler) ListRelays(c *gin.Context) {
	relays, err := h.catalog.ListRelays(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"relays": relays,
	})
}

func (h *CatalogHandler) GetRelay(c *gin.Context) {
	relay, err := h.catalog.GetRelay(c.Request.Context(), domain.RelayID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"relay": relay,
	})
}

func (h *CatalogHandler) DeleteRelay(c *gin.Context) {
	if err := h.catalog.DeleteRelay(c.Request.Context(), domain.RelayID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "deleted",
	})
}

func (h *CatalogHandler) GetMappings(c *gin.Context) {
	mappings, err := h.catalog.GetMappings(c.Request.Context(), domain.RelayID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mappings": mappings,
	})
}

func (h *CatalogHandler) SetMapping(c *gin.Context) {
	relayID := domain.RelayID(c.Param("id"))

	var req struct {
		Slot     int    `json:"slot" binding:"min=0"`
		SourceID string `json:"source_id" binding:"required"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.catalog.SetMapping(c.Request.Context(), relayID, req.Slot, domain.SourceID(req.SourceID)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "mapped",
	})
}

func (h *CatalogHandler) ClearMapping(c *gin.Context) {
	relayID := domain.RelayID(c.Param("id"))

	var slot int
	if err := bindSlotParam(c.Param("slot"), &slot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.catalog.ClearMapping(c.Request.Context(), relayID, slot); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "cleared",
	})
}

func bindSlotParam(raw string, slot *int) error {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid slot %q", raw)
	}
	*slot = n
	return nil
}
