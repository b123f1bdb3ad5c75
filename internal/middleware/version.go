package middleware

import (
	"github.com/labstack/echo/v4"
)

// VersionMiddleware stamps responses with the serving API version.
type VersionMiddleware struct {
	defaultVersion string
}

func NewVersionMiddleware() *VersionMiddleware {
	return &VersionMiddleware{defaultVersion: "v1"}
}

func (vm *VersionMiddleware) VersionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-API-Version", version)
			return next(c)
		}
	}
}

// VersionRoute creates a version-prefixed route group with the version
// header applied.
func (vm *VersionMiddleware) VersionRoute(e *echo.Echo, version string) *echo.Group {
	group := e.Group("/" + version)
	group.Use(vm.VersionHeader(version))
	return group
}

func (vm *VersionMiddleware) GetCurrentVersion() string {
	return vm.defaultVersion
}
