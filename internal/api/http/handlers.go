package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/rpchub/internal/domain/dispatch"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/domain/registry"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/utils"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(reg *registry.Registry, dispatcher *dispatch.Dispatcher, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		registry:   reg,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Register mounts all routes on router
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	router.GET("/services", h.ListServices)
	router.GET("/service", h.GetService)
	router.DELETE("/service", h.UnregisterService)

	router.POST("/rpc", h.RPC)
	router.POST("/events", h.EmitEvent)
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "RPC service hub",
		"version": Version,
	})
}

// Health handles health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"services": h.registry.Len(),
		"apis":     len(h.registry.APIs()),
	})
}

// ListServices returns the registry contents grouped by service type
func (h *Handlers) ListServices(c *gin.Context) {
	objects := h.registry.RegisteredObjectsMap()

	out := make(map[string][]types.ServiceSummary, len(objects))
	for api, records := range objects {
		summaries := make([]types.ServiceSummary, 0, len(records))
		for _, rec := range records {
			summaries = append(summaries, rec.Summary())
		}
		out[api] = summaries
	}

	c.JSON(http.StatusOK, gin.H{
		"services": out,
		"order":    h.registry.APIs(),
	})
}

// serviceQuery selects one record; api values are URLs, so they travel as
// query parameters rather than path segments
type serviceQuery struct {
	Type string `form:"type" binding:"required"`
	ID   string `form:"id"`
}

// GetService resolves a record by type and id, with the registry's fallback rules
func (h *Handlers) GetService(c *gin.Context) {
	var q serviceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, ok := h.registry.ServiceWithTypeAndID(q.Type, q.ID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		return
	}
	c.JSON(http.StatusOK, rec.Summary())
}

// UnregisterService removes a record by type and id
func (h *Handlers) UnregisterService(c *gin.Context) {
	var q serviceQuery
	if err := c.ShouldBindQuery(&q); err != nil || q.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type and id are required"})
		return
	}

	h.registry.UnregisterObject(&types.ServiceRecord{API: q.Type, ID: q.ID})
	c.Status(http.StatusNoContent)
}

// RPC dispatches a JSON-RPC request or batch
func (h *Handlers) RPC(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, utils.MaxJSONSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}
	if err := utils.ValidateSize(body, utils.MaxJSONSize); err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.dispatcher.HandleRaw(c.Request.Context(), body)
	if err != nil {
		h.logger.Error("Failed to encode RPC reply", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if reply == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "application/json", reply)
}

// EmitEvent broadcasts an event to every registered listener
func (h *Handlers) EmitEvent(c *gin.Context) {
	var event types.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateEventName(event.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.registry.EmitEvent(event)
	c.JSON(http.StatusAccepted, gin.H{"event": event.Name})
}
