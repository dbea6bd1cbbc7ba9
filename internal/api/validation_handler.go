package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	apperrors "qcat/internal/errors"
	"qcat/internal/monitoring"
	"qcat/internal/validation"
)

// ValidationHandler exposes the m-out-of-n bootstrap confidence-interval
// service over HTTP: submit a run, poll its status, list recent runs, and
// stream progress over a websocket.
type ValidationHandler struct {
	svc      *validation.ValidationService
	upgrader websocket.Upgrader
	metrics  *monitoring.Metrics
}

// NewValidationHandler creates a new validation handler. metrics may be nil.
func NewValidationHandler(svc *validation.ValidationService, upgrader websocket.Upgrader, metrics *monitoring.Metrics) *ValidationHandler {
	return &ValidationHandler{svc: svc, upgrader: upgrader, metrics: metrics}
}

func (h *ValidationHandler) respondAppError(c *gin.Context, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		appErr = apperrors.WrapError(err, apperrors.ErrCodeInternal, "validation request failed")
	}
	c.JSON(appErr.HTTPStatus(), Response{Success: false, Error: appErr.Error()})
}

// @Summary Submit a validation run
// @Description Queue an m-out-of-n bootstrap confidence interval estimate for a return series
// @Tags Validation
// @Accept json
// @Produce json
// @Param request body validation.ValidationRequest true "Validation request"
// @Success 202 {object} Response
// @Failure 400 {object} Response
// @Router /validations [post]
func (h *ValidationHandler) Submit(c *gin.Context) {
	var req validation.ValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	runID, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		h.respondAppError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, Response{Success: true, Data: gin.H{"id": runID}})
}

// @Summary Get a validation run
// @Tags Validation
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} Response{data=validation.ValidationRun}
// @Failure 404 {object} Response
// @Router /validations/{id} [get]
func (h *ValidationHandler) Get(c *gin.Context) {
	run, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: run})
}

// @Summary List validation runs
// @Tags Validation
// @Produce json
// @Param symbol query string false "Filter by symbol"
// @Param strategy query string false "Filter by strategy"
// @Param limit query int false "Max results"
// @Success 200 {object} Response{data=[]validation.ValidationRun}
// @Router /validations [get]
func (h *ValidationHandler) List(c *gin.Context) {
	filter := validation.RunFilter{
		Symbol:   c.Query("symbol"),
		Strategy: c.Query("strategy"),
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	runs, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.respondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: runs})
}

// Stream relays a run's progress events over a websocket until the run
// reaches a terminal status or the client disconnects.
// @Summary Stream validation run progress
// @Tags Validation
// @Param id path string true "Run ID"
// @Router /validations/{id}/stream [get]
func (h *ValidationHandler) Stream(c *gin.Context) {
	runID := c.Param("id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncValidationStreamConnections()
		defer h.metrics.DecValidationStreamConnections()
	}

	events, cancel := h.svc.Subscribe(runID)
	defer cancel()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
			if event.Status == validation.StatusSucceeded || event.Status == validation.StatusFailed {
				return
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// RegisterRoutes registers validation routes.
func (h *ValidationHandler) RegisterRoutes(router *gin.RouterGroup) {
	v := router.Group("/validations")
	{
		v.POST("", h.Submit)
		v.GET("", h.List)
		v.GET("/:id", h.Get)
		v.GET("/:id/stream", h.Stream)
	}
}
