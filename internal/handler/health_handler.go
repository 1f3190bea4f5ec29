package handler

import (
	"net/http"

	"ledger-service/pkg/database"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports service liveness and database connectivity
func HealthCheck(c echo.Context) error {
	status := "ok"
	dbStatus := "ok"

	sqlDB, err := database.GetDB().DB()
	if err != nil || sqlDB.Ping() != nil {
		status = "degraded"
		dbStatus = "unreachable"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, echo.Map{
		"status":   status,
		"database": dbStatus,
	})
}
