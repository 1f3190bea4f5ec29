package handler

import (
	"net/http"
	"time"

	"ledger-service/internal/middleware"
	"ledger-service/internal/model"
	"ledger-service/internal/report"
	"ledger-service/pkg/database"
	"ledger-service/pkg/logger"
	"ledger-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ReportStats returns summary statistics over the business's delivered
// orders, with optional delivery-date and order-code filters
func ReportStats(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordReportOperation("stats")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	query := database.GetDB().
		Where("business_id = ? AND status = ?", businessID, model.OrderStatusDelivered)

	if fromDate := c.QueryParam("from_date"); fromDate != "" {
		parsed, err := time.Parse("2006-01-02", fromDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from_date must be YYYY-MM-DD"})
		}
		query = query.Where("delivery_date >= ?", parsed)
	}
	if toDate := c.QueryParam("to_date"); toDate != "" {
		parsed, err := time.Parse("2006-01-02", toDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "to_date must be YYYY-MM-DD"})
		}
		query = query.Where("delivery_date <= ?", parsed)
	}
	if orderCode := c.QueryParam("order_code"); orderCode != "" {
		query = query.Where("code ILIKE ?", "%"+orderCode+"%")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var orderList []model.Order
	result := query.Preload("Items").Preload("Items.Product").Find(&orderList)
	if result.Error != nil {
		log.Error("Failed to load orders for stats", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute stats"})
	}

	stats := report.ComputeStats(orderList)

	log.Info("Report stats computed",
		zap.Uint("business_id", businessID),
		zap.Int("total_orders", stats.TotalOrders))
	return c.JSON(http.StatusOK, stats)
}

// ReportDashboard returns the dashboard payload for a timeframe: summary,
// top-3 products and a bucketed sales/profit chart
func ReportDashboard(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordReportOperation("dashboard")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	timeframe := report.ParseTimeframe(c.QueryParam("timeframe"))
	windowStart := report.WindowStart(timeframe, time.Now())

	defer prometheus.TrackDBOperation("query")(time.Now())
	var orderList []model.Order
	result := database.GetDB().
		Where("business_id = ? AND created_at >= ? AND status IN ?",
			businessID, windowStart, []string{model.OrderStatusOpen, model.OrderStatusDelivered}).
		Preload("Items").Preload("Items.Product").
		Find(&orderList)
	if result.Error != nil {
		log.Error("Failed to load orders for dashboard", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute dashboard"})
	}

	dashboard := report.ComputeDashboard(orderList, timeframe)

	log.Info("Dashboard computed",
		zap.Uint("business_id", businessID),
		zap.String("timeframe", string(timeframe)),
		zap.Int("total_orders", dashboard.Summary.TotalOrders))
	return c.JSON(http.StatusOK, dashboard)
}
