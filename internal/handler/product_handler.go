package handler

import (
	"net/http"
	"strconv"
	"time"

	"ledger-service/internal/codegen"
	"ledger-service/internal/middleware"
	"ledger-service/internal/model"
	"ledger-service/internal/pricing"
	"ledger-service/pkg/database"
	"ledger-service/pkg/logger"
	"ledger-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	Name              string `json:"name"`
	CategoryID        *uint  `json:"category_id"`
	Unit              string `json:"unit"`
	Cost              int64  `json:"cost"`
	Price             int64  `json:"price"`
	Description       string `json:"description"`
	UnlimitedStock    bool   `json:"unlimited_stock"`
	IsActive          bool   `json:"is_active"`
	InitialQuantity   string `json:"initial_quantity"`
	LowStockThreshold string `json:"low_stock_threshold"`
}

// PriceUpdateRequest carries the cost increase for repricing calculations
type PriceUpdateRequest struct {
	CostIncreasePercent float64 `json:"cost_increase_percent"`
	UseRecommended      bool    `json:"use_recommended"`
	CustomPrice         int64   `json:"custom_price"`
}

func (r *ProductRequest) validate() string {
	if r.Name == "" {
		return "name is required"
	}
	if r.Cost < 0 || r.Price < 0 {
		return "cost and price must not be negative"
	}
	if r.Unit != "" && !model.ValidUnit(r.Unit) {
		return "invalid unit"
	}
	return ""
}

// findProduct loads a product scoped to the authenticated business
func findProduct(businessID uint, id string) (*model.Product, error) {
	var product model.Product
	if err := database.GetDB().Where("business_id = ?", businessID).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// defaultCategory returns the business's default category, creating it when
// missing. Runs inside the product-creation transaction.
func defaultCategory(tx *gorm.DB, businessID uint) (*model.Category, error) {
	var category model.Category
	err := tx.Where("business_id = ? AND category_code = ?", businessID, model.DefaultCategoryCode).
		First(&category).Error
	if err == nil {
		return &category, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	category = model.Category{
		BusinessID:   businessID,
		CategoryCode: model.DefaultCategoryCode,
		Name:         model.DefaultCategoryName,
		IsActive:     true,
	}
	if err := tx.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListProducts handles retrieving all products with optional filtering
func ListProducts(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("list")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	query := database.GetDB().Where("business_id = ?", businessID)

	// Filter by active status if specified
	isActive := c.QueryParam("is_active")
	if isActive != "" {
		active, err := strconv.ParseBool(isActive)
		if err == nil {
			query = query.Where("is_active = ?", active)
		} else {
			log.Warn("Invalid is_active parameter", zap.String("value", isActive), zap.Error(err))
		}
	}

	// Filter by category if specified
	categoryID := c.QueryParam("category_id")
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var products []model.Product
	result := query.Order("created_at DESC").Find(&products)
	if result.Error != nil {
		log.Error("Failed to list products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve products"})
	}

	return c.JSON(http.StatusOK, products)
}

// GetProduct handles retrieving a single product by ID
func GetProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("get")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	product, err := findProduct(businessID, id)
	if err != nil {
		log.Error("Product not found", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	return c.JSON(http.StatusOK, product)
}

// CreateProduct handles creating a new product. The product, its generated
// code, its default category and its inventory row are created in one
// transaction.
func CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("create")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	quantity := decimal.Zero
	if req.InitialQuantity != "" {
		parsed, err := decimal.NewFromString(req.InitialQuantity)
		if err != nil || parsed.IsNegative() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "initial_quantity must be a non-negative number"})
		}
		quantity = parsed
	}
	threshold := decimal.Zero
	if req.LowStockThreshold != "" {
		parsed, err := decimal.NewFromString(req.LowStockThreshold)
		if err != nil || parsed.IsNegative() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "low_stock_threshold must be a non-negative number"})
		}
		threshold = parsed
	}

	unit := req.Unit
	if unit == "" {
		unit = model.UnitNumber
	}

	var product model.Product
	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		// Product codes are unique per business only
		code, err := codegen.ProductCode(func(candidate string) (bool, error) {
			var count int64
			if err := tx.Model(&model.Product{}).
				Where("business_id = ? AND code = ?", businessID, candidate).
				Count(&count).Error; err != nil {
				return false, err
			}
			if count > 0 {
				prometheus.RecordCodeCollision("product")
			}
			return count > 0, nil
		})
		if err != nil {
			return err
		}

		categoryID := req.CategoryID
		if categoryID == nil {
			category, err := defaultCategory(tx, businessID)
			if err != nil {
				return err
			}
			categoryID = &category.ID
		}

		product = model.Product{
			BusinessID:     businessID,
			Code:           code,
			Name:           req.Name,
			CategoryID:     categoryID,
			Unit:           unit,
			Cost:           req.Cost,
			Price:          req.Price,
			Description:    req.Description,
			UnlimitedStock: req.UnlimitedStock,
			IsActive:       req.IsActive,
		}
		if err := tx.Create(&product).Error; err != nil {
			return err
		}

		// The inventory row is an explicit step of the same atomic unit, not
		// a side-effect hook.
		inventory := model.Inventory{
			ProductID:         product.ID,
			Quantity:          quantity,
			LowStockThreshold: threshold,
		}
		return tx.Create(&inventory).Error
	})
	if err != nil {
		log.Error("Failed to create product", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create product"})
	}

	log.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.String("product_code", product.Code),
		zap.String("name", product.Name))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles updating an existing product
func UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("update")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	product, err := findProduct(businessID, id)
	if err != nil {
		log.Error("Product not found for update", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	oldPrice := product.Price

	product.Name = req.Name
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.Unit != "" {
		product.Unit = req.Unit
	}
	product.Cost = req.Cost
	product.Price = req.Price
	product.Description = req.Description
	product.UnlimitedStock = req.UnlimitedStock
	product.IsActive = req.IsActive

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(product); result.Error != nil {
		log.Error("Failed to update product", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update product"})
	}

	log.Info("Product updated",
		zap.String("product_id", id),
		zap.Int64("old_price", oldPrice),
		zap.Int64("new_price", product.Price))
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles deleting a product. Products referenced by order items
// are protected and cannot be deleted.
func DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("delete")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	product, err := findProduct(businessID, id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	var referencing int64
	database.GetDB().Model(&model.OrderItem{}).Where("product_id = ?", product.ID).Count(&referencing)
	if referencing > 0 {
		log.Warn("Refusing to delete product referenced by order items",
			zap.Uint("product_id", product.ID),
			zap.Int64("order_items", referencing))
		return c.JSON(http.StatusConflict, echo.Map{"error": "product is referenced by existing orders"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", product.ID).Delete(&model.Inventory{}).Error; err != nil {
			return err
		}
		return tx.Delete(product).Error
	})
	if err != nil {
		log.Error("Failed to delete product", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete product"})
	}

	log.Info("Product deleted", zap.Uint("product_id", product.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted successfully"})
}

// CalculatePrice computes a repricing recommendation without mutating anything
func CalculatePrice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("calculate_price")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	product, err := findProduct(businessID, id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	var req PriceUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.CostIncreasePercent < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cost_increase_percent must not be negative"})
	}

	result := pricing.RecommendReprice(product.Cost, product.Price, req.CostIncreasePercent)

	return c.JSON(http.StatusOK, echo.Map{
		"product_code":      product.Code,
		"product_name":      product.Name,
		"cost_old":          result.CostOld,
		"cost_new":          result.CostNew,
		"price_old":         result.PriceOld,
		"current_margin":    result.CurrentMargin,
		"status":            result.Status,
		"recommended_price": result.RecommendedPrice,
		"should_update":     result.ShouldUpdate,
	})
}

// ApplyPriceUpdate applies a repricing calculation to the product, using
// either the recommended price or a caller-supplied custom price
func ApplyPriceUpdate(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("apply_price_update")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	product, err := findProduct(businessID, id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	var req PriceUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.CostIncreasePercent < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cost_increase_percent must not be negative"})
	}

	calculation := pricing.RecommendReprice(product.Cost, product.Price, req.CostIncreasePercent)

	newPrice := req.CustomPrice
	if req.UseRecommended {
		newPrice = calculation.RecommendedPrice
	}
	if newPrice <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "custom_price must be positive"})
	}

	product.Cost = calculation.CostNew
	product.Price = newPrice

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(product); result.Error != nil {
		log.Error("Failed to apply price update", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to apply price update"})
	}

	newMargin := float64(newPrice-calculation.CostNew) / float64(newPrice) * 100
	log.Info("Price update applied",
		zap.Uint("product_id", product.ID),
		zap.Int64("new_cost", calculation.CostNew),
		zap.Int64("new_price", newPrice))

	return c.JSON(http.StatusOK, echo.Map{
		"message":    "prices updated successfully",
		"new_cost":   calculation.CostNew,
		"new_price":  newPrice,
		"new_margin": newMargin,
	})
}

// MoveToCategory moves a product into another category of the same business
func MoveToCategory(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("move_to_category")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	product, err := findProduct(businessID, id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	var req struct {
		CategoryCode int `json:"category_code"`
	}
	if err := c.Bind(&req); err != nil || req.CategoryCode == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category_code is required"})
	}

	var category model.Category
	result := database.GetDB().
		Where("business_id = ? AND category_code = ?", businessID, req.CategoryCode).
		First(&category)
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	}

	product.CategoryID = &category.ID
	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(product); result.Error != nil {
		log.Error("Failed to move product", zap.String("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to move product"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "product moved successfully"})
}

// StatusReport groups the business's products by margin status
func StatusReport(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("status_report")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var products []model.Product
	if result := database.GetDB().Where("business_id = ?", businessID).Find(&products); result.Error != nil {
		log.Error("Failed to load products for status report", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve products"})
	}

	type entry struct {
		Code   string  `json:"code"`
		Name   string  `json:"name"`
		Price  int64   `json:"price"`
		Cost   int64   `json:"cost"`
		Margin float64 `json:"margin"`
	}
	report := map[pricing.Status][]entry{
		pricing.StatusGreen:   {},
		pricing.StatusYellow:  {},
		pricing.StatusRed:     {},
		pricing.StatusUnknown: {},
	}

	for _, product := range products {
		status := pricing.Classify(product.Cost, product.Price)
		var margin float64
		if product.Price > 0 {
			margin = float64(product.Price-product.Cost) / float64(product.Price) * 100
		}
		report[status] = append(report[status], entry{
			Code:   product.Code,
			Name:   product.Name,
			Price:  product.Price,
			Cost:   product.Cost,
			Margin: margin,
		})
	}

	return c.JSON(http.StatusOK, report)
}
