package handlers

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// lookupError maps repository lookup failures. A row that exists under
// another tenant scans as no rows here, so cross-tenant probes read the
// same as genuinely missing records: 404.
func lookupError(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, resource+" not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load "+resource)
}
