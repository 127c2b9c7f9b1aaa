package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"alpr-service/internal/config"
	"alpr-service/internal/domain/alpr"
	"alpr-service/internal/domain/plate"
	"alpr-service/internal/service"
	"alpr-service/internal/utils"
)

const maxBatchReadings = 500

// SnapshotUploader stores camera pictures and returns their public URL.
type SnapshotUploader interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

type Handler struct {
	recognition *service.RecognitionService
	registry    *service.RegistryService
	config      *config.Config
	log         zerolog.Logger
	snapshots   SnapshotUploader
}

// NewHandler builds the API handler. snapshots may be nil, in which case
// pictures attached to camera events are dropped.
func NewHandler(
	recognition *service.RecognitionService,
	registry *service.RegistryService,
	cfg *config.Config,
	log zerolog.Logger,
	snapshots SnapshotUploader,
) *Handler {
	return &Handler{
		recognition: recognition,
		registry:    registry,
		config:      cfg,
		log:         log,
		snapshots:   snapshots,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware, adminOnly, rateLimit gin.HandlerFunc) {
	public := r.Group("/api/v1")
	public.Use(rateLimit)
	{
		public.POST("/recognize", h.recognize)
		public.POST("/recognize/batch", h.recognizeBatch)
		public.GET("/plates/validate", h.validatePlate)
		public.POST("/anpr/events", h.createRecognitionEvent)
		public.POST("/anpr/hikvision", h.createHikvisionEvent)
		public.GET("/anpr/hikvision", h.checkHikvisionEndpoint)
		public.GET("/events", h.listEvents)
		public.GET("/vehicles", h.listVehicles)
		public.GET("/vehicles/export", h.exportVehicles)
		public.GET("/vehicles/:plate", h.getVehicle)
	}

	protected := r.Group("/api/v1")
	protected.Use(authMiddleware, adminOnly)
	{
		protected.POST("/vehicles", h.addVehicle)
		protected.POST("/vehicles/import", h.importVehicles)
		protected.DELETE("/vehicles/:plate", h.deleteVehicle)
	}
}

type recognizeRequest struct {
	RawText string `json:"raw_text"`
}

func (h *Handler) recognize(c *gin.Context) {
	var req recognizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.recognition.Recognize(c.Request.Context(), req.RawText)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

type batchRequest struct {
	Readings []string `json:"readings"`
}

func (h *Handler) recognizeBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	if len(req.Readings) > maxBatchReadings {
		c.JSON(http.StatusBadRequest, errorResponse(fmt.Sprintf("at most %d readings per batch", maxBatchReadings)))
		return
	}

	result, err := h.recognition.RecognizeBatch(c.Request.Context(), req.Readings)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

// validatePlate classifies without correction or lookup.
func (h *Handler) validatePlate(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("plate"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, errorResponse("plate parameter is required"))
		return
	}

	c.JSON(http.StatusOK, successResponse(plate.Classify(utils.NormalizePlate(raw))))
}

func (h *Handler) createRecognitionEvent(c *gin.Context) {
	var payload alpr.EventPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if payload.EventTime.IsZero() {
		payload.EventTime = time.Now()
	}
	if payload.CameraID == "" {
		payload.CameraID = h.config.Camera.DefaultID
	}

	h.processEvent(c, payload, "camera event")
}

func (h *Handler) processEvent(c *gin.Context, payload alpr.EventPayload, source string) {
	h.log.Info().
		Str("raw", payload.RawText).
		Str("camera_id", payload.CameraID).
		Msg("processing " + source)

	result, err := h.recognition.ProcessIncomingEvent(c.Request.Context(), payload, h.config.Camera.Model)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			h.log.Warn().
				Err(err).
				Str("raw", payload.RawText).
				Str("camera_id", payload.CameraID).
				Msg("invalid input for " + source)
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		h.log.Error().
			Err(err).
			Str("raw", payload.RawText).
			Str("camera_id", payload.CameraID).
			Msg("failed to process " + source)
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	status := http.StatusOK
	if result.Recorded {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"status":   "ok",
		"event_id": result.EventID,
		"recorded": result.Recorded,
		"result":   result.Result,
	})
}

func (h *Handler) listEvents(c *gin.Context) {
	var plateQuery *string
	if p := strings.TrimSpace(c.Query("plate")); p != "" {
		plateQuery = &p
	}

	var from, to *string
	if f := strings.TrimSpace(c.Query("from")); f != "" {
		from = &f
	}
	if t := strings.TrimSpace(c.Query("to")); t != "" {
		to = &t
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	offset := 0
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	events, err := h.recognition.FindEvents(c.Request.Context(), plateQuery, from, to, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(events))
}

func (h *Handler) listVehicles(c *gin.Context) {
	filter := service.ListVehiclesFilter{
		Owner:        strings.TrimSpace(c.Query("owner")),
		Jurisdiction: strings.TrimSpace(c.Query("jurisdiction")),
	}

	vehicles, err := h.registry.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicles))
}

func (h *Handler) getVehicle(c *gin.Context) {
	vehicle, err := h.registry.Get(c.Request.Context(), c.Param("plate"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicle))
}

type addVehicleRequest struct {
	Plate        string `json:"plate" binding:"required"`
	OwnerName    string `json:"owner_name" binding:"required"`
	Vehicle      string `json:"vehicle"`
	Color        string `json:"color"`
	Jurisdiction string `json:"jurisdiction"`
	Year         int    `json:"year"`
}

func (h *Handler) addVehicle(c *gin.Context) {
	var req addVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	vehicle, err := h.registry.Add(c.Request.Context(), alpr.VehicleRecord{
		Plate:        req.Plate,
		OwnerName:    req.OwnerName,
		Vehicle:      req.Vehicle,
		Color:        req.Color,
		Jurisdiction: req.Jurisdiction,
		Year:         req.Year,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(vehicle))
}

func (h *Handler) deleteVehicle(c *gin.Context) {
	if err := h.registry.Delete(c.Request.Context(), c.Param("plate")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) exportVehicles(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.registry.Export(c.Request.Context(), &buf); err != nil {
		h.handleError(c, err)
		return
	}

	filename := fmt.Sprintf("vehicles-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handler) importVehicles(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("file field is required"))
		return
	}
	file, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("failed to read upload"))
		return
	}
	defer file.Close()

	result, err := h.registry.Import(c.Request.Context(), file)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
