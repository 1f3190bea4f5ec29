package handler

import (
	"net/http"
	"time"

	"ledger-service/internal/codegen"
	"ledger-service/internal/middleware"
	"ledger-service/internal/model"
	"ledger-service/internal/orders"
	"ledger-service/pkg/database"
	"ledger-service/pkg/logger"
	"ledger-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderItemRequest is one line of an order payload. Price and cost are
// optional; when omitted they are frozen from the product at commit time.
type OrderItemRequest struct {
	ProductID uint   `json:"product"`
	Quantity  string `json:"quantity"`
	Price     int64  `json:"price"`
	Cost      int64  `json:"cost"`
}

// OrderRequest defines the structure for order creation/update requests.
// Items always carry the complete desired set (replace-all semantics).
type OrderRequest struct {
	CustomerType    string             `json:"customer_type"`
	Source          string             `json:"source"`
	CustomerName    string             `json:"customer_name"`
	CustomerPhone   string             `json:"customer_phone"`
	CustomerAddress string             `json:"customer_address"`
	OrderDate       *time.Time         `json:"order_date"`
	DeliveryDate    *time.Time         `json:"delivery_date"`
	Description     string             `json:"description"`
	Status          string             `json:"status"`
	Items           []OrderItemRequest `json:"items"`
}

func buildItems(reqs []OrderItemRequest) ([]model.OrderItem, string) {
	items := make([]model.OrderItem, 0, len(reqs))
	for _, req := range reqs {
		if req.ProductID == 0 {
			return nil, "every item requires a product"
		}
		quantity := decimal.NewFromInt(1)
		if req.Quantity != "" {
			parsed, err := decimal.NewFromString(req.Quantity)
			if err != nil || parsed.IsNegative() {
				return nil, "item quantity must be a non-negative number"
			}
			quantity = parsed
		}
		items = append(items, model.OrderItem{
			ProductID: req.ProductID,
			Quantity:  quantity,
			Price:     req.Price,
			Cost:      req.Cost,
		})
	}
	return items, ""
}

func findOrder(businessID uint, id string, preload bool) (*model.Order, error) {
	query := database.GetDB().Where("business_id = ?", businessID)
	if preload {
		query = query.Preload("Items").Preload("Items.Product")
	}
	var order model.Order
	if err := query.First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders handles retrieving the business's open orders
func ListOrders(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("list")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var orderList []model.Order
	result := database.GetDB().
		Where("business_id = ? AND status = ?", businessID, model.OrderStatusOpen).
		Preload("Items").Preload("Items.Product").
		Order("created_at DESC").
		Find(&orderList)
	if result.Error != nil {
		log.Error("Failed to list orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve orders"})
	}

	return c.JSON(http.StatusOK, orderList)
}

// GetOrder handles retrieving a single order by ID
func GetOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("get")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	order, err := findOrder(businessID, id, true)
	if err != nil {
		log.Error("Order not found", zap.String("order_id", id), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}

	return c.JSON(http.StatusOK, order)
}

// CreateOrder handles creating a new order with its items. The order code is
// generated from the order timestamp with a provisional surrogate row id; it
// is deliberately not collision-checked.
func CreateOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("create")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.CustomerType != "" && !model.ValidCustomerType(req.CustomerType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer_type"})
	}
	if req.Source != "" && !model.ValidOrderSource(req.Source) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid source"})
	}

	items, msg := buildItems(req.Items)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	orderDate := time.Now()
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}

	order := model.Order{
		BusinessID:      businessID,
		Code:            codegen.OrderCode(codegen.SurrogateRowID(), orderDate),
		CustomerType:    req.CustomerType,
		Source:          req.Source,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		OrderDate:       orderDate,
		DeliveryDate:    req.DeliveryDate,
		Description:     req.Description,
		Status:          model.OrderStatusOpen,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&order); result.Error != nil {
		log.Error("Failed to create order", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
	}

	warnings, err := orders.NewAggregator(database.GetDB()).ReplaceItems(&order, items)
	if err != nil {
		log.Error("Failed to commit order items", zap.Uint("order_id", order.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit order items"})
	}
	for range warnings {
		prometheus.RecordInsufficientStock()
	}

	log.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.String("order_code", order.Code),
		zap.String("total_amount", order.TotalAmount.String()),
		zap.Int("stock_warnings", len(warnings)))

	response := echo.Map{"order": order}
	if len(warnings) > 0 {
		response["stock_warnings"] = warnings
	}
	return c.JSON(http.StatusCreated, response)
}

// UpdateOrder handles updating an order's fields and, when items are present,
// replacing the full item set and recomputing the total
func UpdateOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("update")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	order, err := findOrder(businessID, id, false)
	if err != nil {
		log.Error("Order not found for update", zap.String("order_id", id), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}

	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("order_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.CustomerType != "" {
		if !model.ValidCustomerType(req.CustomerType) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer_type"})
		}
		order.CustomerType = req.CustomerType
	}
	if req.Source != "" {
		if !model.ValidOrderSource(req.Source) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid source"})
		}
		order.Source = req.Source
	}
	if req.Status != "" {
		if !model.ValidOrderStatus(req.Status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		order.Status = req.Status
	}
	if req.CustomerName != "" {
		order.CustomerName = req.CustomerName
	}
	if req.CustomerPhone != "" {
		order.CustomerPhone = req.CustomerPhone
	}
	if req.CustomerAddress != "" {
		order.CustomerAddress = req.CustomerAddress
	}
	if req.DeliveryDate != nil {
		order.DeliveryDate = req.DeliveryDate
	}
	if req.Description != "" {
		order.Description = req.Description
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(order); result.Error != nil {
		log.Error("Failed to update order", zap.String("order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order"})
	}

	var warnings []orders.StockWarning
	if req.Items != nil {
		items, msg := buildItems(req.Items)
		if msg != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
		}
		warnings, err = orders.NewAggregator(database.GetDB()).ReplaceItems(order, items)
		if err != nil {
			log.Error("Failed to replace order items", zap.Uint("order_id", order.ID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to replace order items"})
		}
		for range warnings {
			prometheus.RecordInsufficientStock()
		}
	}

	log.Info("Order updated",
		zap.Uint("order_id", order.ID),
		zap.String("status", order.Status),
		zap.Int("stock_warnings", len(warnings)))

	response := echo.Map{"order": order}
	if len(warnings) > 0 {
		response["stock_warnings"] = warnings
	}
	return c.JSON(http.StatusOK, response)
}

// DeleteOrder handles deleting an order; its items are removed with it
func DeleteOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("delete")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	order, err := findOrder(businessID, id, false)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(order).Error
	})
	if err != nil {
		log.Error("Failed to delete order", zap.String("order_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete order"})
	}

	log.Info("Order deleted", zap.Uint("order_id", order.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "order deleted successfully"})
}

// DeliverOrder marks an order as delivered
func DeliverOrder(c echo.Context) error {
	return transitionOrder(c, model.OrderStatusDelivered, "deliver")
}

// CancelOrder marks an order as canceled; canceled orders are excluded from
// all sales reports
func CancelOrder(c echo.Context) error {
	return transitionOrder(c, model.OrderStatusCanceled, "cancel")
}

func transitionOrder(c echo.Context, status, operation string) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation(operation)

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	order, err := findOrder(businessID, id, false)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}

	order.Status = status
	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(order); result.Error != nil {
		log.Error("Failed to update order status",
			zap.String("order_id", id),
			zap.String("status", status),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order"})
	}

	log.Info("Order status changed",
		zap.Uint("order_id", order.ID),
		zap.String("status", status))
	return c.JSON(http.StatusOK, echo.Map{"message": "order " + status})
}

// MonthlySales returns the total sales of the last 30 days over open and
// delivered orders
func MonthlySales(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("monthly_sales")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	monthStart := time.Now().AddDate(0, 0, -30)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var orderList []model.Order
	result := database.GetDB().
		Where("business_id = ? AND created_at >= ? AND status IN ?",
			businessID, monthStart, []string{model.OrderStatusOpen, model.OrderStatusDelivered}).
		Find(&orderList)
	if result.Error != nil {
		log.Error("Failed to compute monthly sales", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute monthly sales"})
	}

	total := decimal.Zero
	for _, order := range orderList {
		total = total.Add(order.TotalAmount)
	}

	return c.JSON(http.StatusOK, echo.Map{"total_sales": total})
}
