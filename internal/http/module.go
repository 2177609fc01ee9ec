package http

import (
	"lead_intel_backend/platform/httpkit"
	"lead_intel_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Module mounts one slice of the API: leads, alerts stream, and so on.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the groups and shared middleware a module mounts on.
// Protected already enforces a valid access token.
type RouterContext struct {
	Protected     *gin.RouterGroup
	IngestLimiter *httpkit.IPRateLimiter
	Logger        *logger.Logger
}
