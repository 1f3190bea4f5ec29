package handler

import (
	"errors"
	"net/http"
	"time"

	"ledger-service/internal/middleware"
	"ledger-service/internal/model"
	"ledger-service/internal/stock"
	"ledger-service/pkg/database"
	"ledger-service/pkg/logger"
	"ledger-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockRequest carries the amount for stock mutations
type StockRequest struct {
	Amount string `json:"amount"`
}

func (r *StockRequest) amount() (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return decimal.Zero, err
	}
	if parsed.IsNegative() {
		return decimal.Zero, stock.ErrNegativeAmount
	}
	return parsed, nil
}

// AddStock increases a product's on-hand quantity
func AddStock(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordStockOperation("add")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("productId")
	product, err := findProduct(businessID, id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	var req StockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	amount, err := req.amount()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be a non-negative number"})
	}

	ledger := stock.NewLedger(database.GetDB())
	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := ledger.Add(product.ID, amount); err != nil {
		log.Error("Failed to add stock", zap.Uint("product_id", product.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add stock"})
	}

	inventory, err := ledger.Inventory(product.ID)
	if err != nil {
		log.Error("Failed to load inventory", zap.Uint("product_id", product.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load inventory"})
	}

	log.Info("Stock added",
		zap.Uint("product_id", product.ID),
		zap.String("amount", amount.String()),
		zap.String("quantity", inventory.Quantity.String()))
	return c.JSON(http.StatusOK, inventory)
}

// RemoveStock decreases a product's on-hand quantity; a shortfall is reported
// without changing the quantity
func RemoveStock(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordStockOperation("remove")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("productId")
	product, err := findProduct(businessID, id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	var req StockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	amount, err := req.amount()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be a non-negative number"})
	}

	ledger := stock.NewLedger(database.GetDB())
	defer prometheus.TrackDBOperation("update")(time.Now())
	removed, err := ledger.Remove(product.ID, amount)
	if err != nil {
		if errors.Is(err, stock.ErrInventoryNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "inventory not found"})
		}
		log.Error("Failed to remove stock", zap.Uint("product_id", product.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove stock"})
	}
	if !removed {
		prometheus.RecordInsufficientStock()
		log.Warn("Insufficient stock",
			zap.Uint("product_id", product.ID),
			zap.String("requested", amount.String()))
		return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient stock"})
	}

	inventory, err := ledger.Inventory(product.ID)
	if err != nil {
		log.Error("Failed to load inventory", zap.Uint("product_id", product.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load inventory"})
	}

	log.Info("Stock removed",
		zap.Uint("product_id", product.ID),
		zap.String("amount", amount.String()),
		zap.String("quantity", inventory.Quantity.String()))
	return c.JSON(http.StatusOK, inventory)
}

// LowStock lists the business's stock-tracked products at or below their
// low-stock threshold
func LowStock(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordStockOperation("low_stock")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var products []model.Product
	result := database.GetDB().
		Where("business_id = ? AND unlimited_stock = ?", businessID, false).
		Find(&products)
	if result.Error != nil {
		log.Error("Failed to load products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve products"})
	}

	ledger := stock.NewLedger(database.GetDB())
	type lowEntry struct {
		Product   model.Product   `json:"product"`
		Quantity  decimal.Decimal `json:"quantity"`
		Threshold decimal.Decimal `json:"low_stock_threshold"`
	}
	low := []lowEntry{}
	for _, product := range products {
		isLow, err := ledger.IsLow(product.ID)
		if err != nil {
			if errors.Is(err, stock.ErrInventoryNotFound) {
				continue
			}
			log.Error("Failed to check stock level", zap.Uint("product_id", product.ID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check stock levels"})
		}
		if !isLow {
			continue
		}
		inventory, err := ledger.Inventory(product.ID)
		if err != nil {
			continue
		}
		low = append(low, lowEntry{
			Product:   product,
			Quantity:  inventory.Quantity,
			Threshold: inventory.LowStockThreshold,
		})
	}

	return c.JSON(http.StatusOK, low)
}
