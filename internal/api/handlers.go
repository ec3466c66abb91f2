package api

import (
	"errors"
	"fmt"
	"inmuebles/server/config"
	"inmuebles/server/internal/analytics"
	"inmuebles/server/internal/database"
	"inmuebles/server/internal/models"
	"inmuebles/server/internal/queue"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	db     *database.Database
	engine *analytics.Engine
	queue  *queue.PropertyQueue
	config *config.Config
	logger *logrus.Logger
}

type CreatePropertyRequest struct {
	PropertyType string          `json:"property_type" binding:"required"`
	Locality     string          `json:"locality" binding:"required"`
	Zone         string          `json:"zone" binding:"required"`
	Area         decimal.Decimal `json:"area"`
	BuiltArea    decimal.Decimal `json:"built_area"`
	Value        decimal.Decimal `json:"value"`
	VisitCount   *int            `json:"visit_count" binding:"omitempty,min=0"`
	CreatedAt    *time.Time      `json:"created_at"`
	SoldAt       *time.Time      `json:"sold_at"`
}

func (r *CreatePropertyRequest) toProperty() *models.Property {
	p := &models.Property{
		PropertyType: r.PropertyType,
		Locality:     r.Locality,
		Zone:         r.Zone,
		Area:         r.Area,
		BuiltArea:    r.BuiltArea,
		Value:        r.Value,
		VisitCount:   r.VisitCount,
		SoldAt:       r.SoldAt,
	}
	if r.CreatedAt != nil {
		p.CreatedAt = *r.CreatedAt
	}
	return p
}

type SaleDateRequest struct {
	SoldAt string `json:"sold_at" binding:"required"`
}

// parseSaleDate accepts a plain date or an RFC 3339 timestamp
func parseSaleDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid sale date %q", value)
	}
	return t, nil
}

func NewHandler(db *database.Database, engine *analytics.Engine, propertyQueue *queue.PropertyQueue, cfg *config.Config, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:     db,
		engine: engine,
		queue:  propertyQueue,
		config: cfg,
		logger: logger,
	}
}

// storeStatus picks the response status for a failed store call
func storeStatus(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, analytics.ErrZoneRequired):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func propertyID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) GetAllProperties(c *gin.Context) {
	properties, err := h.db.ListProperties(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get properties")
		c.JSON(storeStatus(err), gin.H{"error": "Failed to get properties"})
		return
	}

	c.JSON(http.StatusOK, properties)
}

func (h *Handler) CreateProperty(c *gin.Context) {
	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid property")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	property := req.toProperty()
	if err := h.db.CreateProperty(c.Request.Context(), property); err != nil {
		h.logger.WithError(err).Error("Failed to create property")
		c.JSON(storeStatus(err), gin.H{"error": "Failed to create property"})
		return
	}

	c.JSON(http.StatusCreated, property)
}

func (h *Handler) UpdateSaleDate(c *gin.Context) {
	id, ok := propertyID(c)
	if !ok {
		return
	}

	var req SaleDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sold_at is required"})
		return
	}
	soldAt, err := parseSaleDate(req.SoldAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	property, err := h.db.UpdateSaleDate(c.Request.Context(), id, soldAt)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("property_id", id).Error("Failed to update sale date")
		c.JSON(storeStatus(err), gin.H{"error": "Failed to update sale date"})
		return
	}

	c.JSON(http.StatusOK, property)
}

func (h *Handler) IncrementVisitCount(c *gin.Context) {
	id, ok := propertyID(c)
	if !ok {
		return
	}

	property, err := h.db.IncrementVisitCount(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("property_id", id).Error("Failed to increment visit count")
		c.JSON(storeStatus(err), gin.H{"error": "Failed to increment visit count"})
		return
	}

	c.JSON(http.StatusOK, property)
}

// ImportProperties splits the payload into batches and hands them to the import queue
func (h *Handler) ImportProperties(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Imports are disabled"})
		return
	}

	var reqs []CreatePropertyRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		h.logger.WithError(err).Error("Invalid import payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No properties to import"})
		return
	}

	properties := make([]*models.Property, 0, len(reqs))
	for i := range reqs {
		if err := binding.Validator.ValidateStruct(&reqs[i]); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid property at index %d", i)})
			return
		}
		properties = append(properties, reqs[i].toProperty())
	}

	batchSize := h.config.BatchProcessing.MaxBatchSize
	if batchSize <= 0 {
		batchSize = len(properties)
	}

	queued := 0
	for start := 0; start < len(properties); start += batchSize {
		end := min(start+batchSize, len(properties))
		if err := h.queue.Push(properties[start:end]); err != nil {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"queued":   queued,
				"rejected": len(properties) - queued,
			}).Warn("Import queue rejected batch")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":  "Import queue is not accepting batches",
				"queued": queued,
			})
			return
		}
		queued = end
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "queued",
		"queued": queued,
	})
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
