package handler

import (
	"net/http"
	"regexp"
	"time"

	"ledger-service/internal/codegen"
	"ledger-service/internal/model"
	"ledger-service/pkg/database"
	"ledger-service/pkg/jwtutil"
	"ledger-service/pkg/logger"
	"ledger-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)

const minPasswordLength = 6

// businessCodeExists reports whether a business code is already taken,
// counting each collision for observability.
func businessCodeExists(code string) (bool, error) {
	var count int64
	if err := database.GetDB().Model(&model.Business{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		prometheus.RecordCodeCollision("business")
	}
	return count > 0, nil
}

// Signup registers a new business account with a generated business code
func Signup(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordBusinessOperation("signup")

	var req struct {
		RecoveryContact string `json:"recovery_contact"`
		Password        string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse signup request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.RecoveryContact == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "recovery_contact and password are required"})
	}
	if !phonePattern.MatchString(req.RecoveryContact) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "enter a valid phone number (10-15 digits)"})
	}
	if len(req.Password) < minPasswordLength {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}

	// Check if contact is already registered
	var count int64
	database.GetDB().Model(&model.Business{}).Where("recovery_contact = ?", req.RecoveryContact).Count(&count)
	if count > 0 {
		log.Warn("Recovery contact already registered", zap.String("recovery_contact", req.RecoveryContact))
		return c.JSON(http.StatusConflict, echo.Map{"error": "this contact is already registered"})
	}

	code, err := codegen.BusinessCode(businessCodeExists)
	if err != nil {
		log.Error("Failed to generate business code", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate business code"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process password"})
	}

	business := model.Business{
		Code:            code,
		Password:        string(hashedPassword),
		RecoveryContact: req.RecoveryContact,
		Status:          model.BusinessStatusActive,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&business); result.Error != nil {
		log.Error("Failed to create business", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create business"})
	}

	log.Info("Business created",
		zap.Uint("business_id", business.ID),
		zap.String("business_code", business.Code))

	return c.JSON(http.StatusCreated, echo.Map{
		"success":       true,
		"business_code": business.Code,
	})
}

// Login authenticates a business by code and password and issues a JWT
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.AuthAttemptsCounter.Inc()

	var req struct {
		BusinessCode string `json:"business_code"`
		Password     string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.BusinessCode == "" || req.Password == "" {
		prometheus.RecordAuthError("missing_fields")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "business_code and password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var business model.Business
	result := database.GetDB().Where("code = ?", req.BusinessCode).First(&business)
	if result.Error != nil {
		log.Error("Business not found", zap.String("business_code", req.BusinessCode))
		prometheus.RecordAuthError("business_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "business code not found"})
	}

	if business.Status != model.BusinessStatusActive {
		log.Warn("Suspended business attempted login", zap.String("business_code", req.BusinessCode))
		prometheus.RecordAuthError("business_suspended")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "business is suspended"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(business.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("business_code", req.BusinessCode))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "incorrect password"})
	}

	token, err := jwtutil.GenerateToken(business.ID, business.Code)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate token"})
	}

	prometheus.AuthSuccessCounter.Inc()
	log.Info("Business logged in",
		zap.Uint("business_id", business.ID),
		zap.String("business_code", business.Code))

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"business_code": business.Code,
		"access":        token,
	})
}

// ResetPassword sets a new password for a business identified by its code
func ResetPassword(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordBusinessOperation("reset_password")

	var req struct {
		BusinessCode string `json:"business_code"`
		NewPassword  string `json:"new_password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse reset password request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.BusinessCode == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "business_code and new_password are required"})
	}
	if len(req.NewPassword) < minPasswordLength {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}

	var business model.Business
	result := database.GetDB().Where("code = ?", req.BusinessCode).First(&business)
	if result.Error != nil {
		log.Error("Business not found for password reset", zap.String("business_code", req.BusinessCode))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "business code not found"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process password"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Model(&business).Update("password", string(hashedPassword)); result.Error != nil {
		log.Error("Failed to update password", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update password"})
	}

	log.Info("Password reset", zap.String("business_code", business.Code))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// RecoverCode returns the business codes registered for a recovery contact
func RecoverCode(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordBusinessOperation("recover_code")

	var req struct {
		RecoveryContact string `json:"recovery_contact"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse recover code request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.RecoveryContact == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "recovery_contact is required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var businesses []model.Business
	if result := database.GetDB().Where("recovery_contact = ?", req.RecoveryContact).Find(&businesses); result.Error != nil {
		log.Error("Failed to look up businesses", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to look up businesses"})
	}

	if len(businesses) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no businesses found with this contact"})
	}

	codes := make([]string, 0, len(businesses))
	for _, business := range businesses {
		codes = append(codes, business.Code)
	}

	return c.JSON(http.StatusOK, echo.Map{"business_codes": codes})
}
