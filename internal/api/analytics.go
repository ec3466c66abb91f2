package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetLocalityPricePerArea(c *gin.Context) {
	result, err := h.engine.AvgPricePerAreaByLocality(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute price per area by locality")
		c.JSON(storeStatus(err), gin.H{"error": "Failed to compute price per area"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetLocalityConversionRate(c *gin.Context) {
	result, err := h.engine.ConversionRateByLocality(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute conversion rate by locality")
		c.JSON(storeStatus(err), gin.H{"error": "Failed to compute conversion rate"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetLocalityMarketDuration(c *gin.Context) {
	result, err := h.engine.AvgMarketDurationByLocality(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute market duration by locality")
		c.JSON(storeStatus(err), gin.H{"error": "Failed to compute market duration"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetUniqueZones(c *gin.Context) {
	result, err := h.engine.UniqueZones(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get zones")
		c.JSON(storeStatus(err), gin.H{"error": "Failed to get zones"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetZoneSaleCounts(c *gin.Context) {
	zone := c.Param("zone")
	result, err := h.engine.SaleCountsByZone(c.Request.Context(), zone)
	if err != nil {
		h.logger.WithError(err).WithField("zone", zone).Error("Failed to count zone sales")
		c.JSON(storeStatus(err), gin.H{"error": "Failed to count zone sales"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetZonePricePerArea(c *gin.Context) {
	zone := c.Param("zone")
	result, err := h.engine.AvgPricePerAreaByZone(c.Request.Context(), zone)
	if err != nil {
		h.logger.WithError(err).WithField("zone", zone).Error("Failed to compute zone price per area")
		c.JSON(storeStatus(err), gin.H{"error": "Failed to compute price per area"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetZoneMarketDuration(c *gin.Context) {
	zone := c.Param("zone")
	result, err := h.engine.AvgMarketDurationByZone(c.Request.Context(), zone)
	if err != nil {
		h.logger.WithError(err).WithField("zone", zone).Error("Failed to compute zone market duration")
		c.JSON(storeStatus(err), gin.H{"error": "Failed to compute market duration"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetSalesSummary(c *gin.Context) {
	result, err := h.engine.SalesSummary(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute sales summary")
		c.JSON(storeStatus(err), gin.H{"error": "Failed to compute sales summary"})
		return
	}

	c.JSON(http.StatusOK, result)
}
