package api

import (
	"inmuebles/server/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the gin engine with middleware and every route
func NewRouter(handler *Handler, m *metrics.Metrics, origins []string, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(logger), CORS(origins))
	if m != nil {
		router.Use(Instrument(m))
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	SetupRoutes(router, handler)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.Health)

	api := router.Group("/api")
	{
		api.GET("/properties", handler.GetAllProperties)
		api.POST("/properties", handler.CreateProperty)
		api.POST("/properties/import", handler.ImportProperties)
		api.PUT("/properties/:id/sale-date", handler.UpdateSaleDate)
		api.POST("/properties/:id/visits", handler.IncrementVisitCount)
	}

	stats := api.Group("/analytics")
	{
		stats.GET("/localities/price-per-area", handler.GetLocalityPricePerArea)
		stats.GET("/localities/conversion-rate", handler.GetLocalityConversionRate)
		stats.GET("/localities/market-duration", handler.GetLocalityMarketDuration)
		stats.GET("/zones", handler.GetUniqueZones)
		stats.GET("/zones/:zone/sales", handler.GetZoneSaleCounts)
		stats.GET("/zones/:zone/price-per-area", handler.GetZonePricePerArea)
		stats.GET("/zones/:zone/market-duration", handler.GetZoneMarketDuration)
		stats.GET("/sales-summary", handler.GetSalesSummary)
	}
}
