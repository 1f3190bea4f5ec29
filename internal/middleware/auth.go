package middleware

import (
	"net/http"
	"strings"

	"ledger-service/pkg/jwtutil"
	"ledger-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token and extracts the business (tenant)
// identity. Every protected handler reads the business ID from the context
// rather than trusting any ambient state.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		if claims.BusinessID == 0 {
			log.Warn("JWT token does not contain business_id")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "business_id is required in the token"})
		}

		// Store business info in context for later use
		c.Set("business_id", claims.BusinessID)
		c.Set("business_code", claims.BusinessCode)

		log.Info("Request authenticated with business context",
			zap.Uint("business_id", claims.BusinessID),
			zap.String("business_code", claims.BusinessCode))

		return next(c)
	}
}

// GetBusinessIDFromContext retrieves the business ID from the context.
// Returns 0, false if it is not found.
func GetBusinessIDFromContext(c echo.Context) (uint, bool) {
	businessID, ok := c.Get("business_id").(uint)
	return businessID, ok
}
