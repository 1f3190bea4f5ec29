package handler

import (
	"net/http"
	"time"

	"ledger-service/internal/middleware"
	"ledger-service/internal/model"
	"ledger-service/pkg/database"
	"ledger-service/pkg/logger"
	"ledger-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CategoryRequest defines the structure for category creation/update requests
type CategoryRequest struct {
	CategoryCode int    `json:"category_code"`
	Name         string `json:"name"`
	IsActive     bool   `json:"is_active"`
}

// ListCategories handles retrieving all categories for the authenticated business
func ListCategories(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCategoryOperation("list")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var categories []model.Category
	result := database.GetDB().Where("business_id = ?", businessID).Order("category_code").Find(&categories)
	if result.Error != nil {
		log.Error("Failed to list categories", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve categories"})
	}

	return c.JSON(http.StatusOK, categories)
}

// GetCategory handles retrieving a single category by ID
func GetCategory(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCategoryOperation("get")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	var category model.Category
	result := database.GetDB().Where("business_id = ?", businessID).First(&category, id)
	if result.Error != nil {
		log.Error("Category not found", zap.String("category_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	}

	return c.JSON(http.StatusOK, category)
}

// CreateCategory handles creating a new category
func CreateCategory(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCategoryOperation("create")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Name == "" || req.CategoryCode <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a positive category_code are required"})
	}

	// Category codes are unique per business
	var count int64
	database.GetDB().Model(&model.Category{}).
		Where("business_id = ? AND category_code = ?", businessID, req.CategoryCode).Count(&count)
	if count > 0 {
		log.Warn("Category code already exists",
			zap.Uint("business_id", businessID),
			zap.Int("category_code", req.CategoryCode))
		return c.JSON(http.StatusConflict, echo.Map{"error": "category with this code already exists"})
	}

	category := model.Category{
		BusinessID:   businessID,
		CategoryCode: req.CategoryCode,
		Name:         req.Name,
		IsActive:     req.IsActive,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&category); result.Error != nil {
		log.Error("Failed to create category", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create category"})
	}

	log.Info("Category created",
		zap.Uint("category_id", category.ID),
		zap.Int("category_code", category.CategoryCode))
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory handles updating an existing category
func UpdateCategory(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCategoryOperation("update")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("category_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var category model.Category
	result := database.GetDB().Where("business_id = ?", businessID).First(&category, id)
	if result.Error != nil {
		log.Error("Category not found for update", zap.String("category_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	}

	if req.CategoryCode != category.CategoryCode {
		var count int64
		database.GetDB().Model(&model.Category{}).
			Where("business_id = ? AND category_code = ? AND id != ?", businessID, req.CategoryCode, category.ID).
			Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "category with this code already exists"})
		}
	}

	category.CategoryCode = req.CategoryCode
	category.Name = req.Name
	category.IsActive = req.IsActive

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&category); result.Error != nil {
		log.Error("Failed to update category", zap.String("category_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update category"})
	}

	return c.JSON(http.StatusOK, category)
}

// DeleteCategory handles deleting a category; its products fall back to no category
func DeleteCategory(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordCategoryOperation("delete")

	businessID, ok := middleware.GetBusinessIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Where("business_id = ?", businessID).Delete(&model.Category{}, id)
	if result.Error != nil {
		log.Error("Failed to delete category", zap.String("category_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete category"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	}

	log.Info("Category deleted", zap.String("category_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "category deleted successfully"})
}
