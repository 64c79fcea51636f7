package api

import (
	"errors"
	"net/http"

	"github.com/ava-labs/token-catalog/pkg/metrics"
	"github.com/ava-labs/token-catalog/pkg/provider"
	"github.com/gin-gonic/gin"
)

// retryAfterSeconds is advertised to clients that hit the gate while loading.
const retryAfterSeconds = "1"

// Gate renders the loading and failed states instead of the wrapped handlers. Once the
// mounted provider is ready, the request context carries its catalog.
func Gate(host CatalogHost, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := host.Current()
		ctx, err := p.Scope(c.Request.Context())
		switch {
		case err == nil:
			m.IncGatedRequest(provider.StateReady.String())
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		case errors.Is(err, provider.ErrNotReady):
			m.IncGatedRequest(provider.StateLoading.String())
			c.Header("Retry-After", retryAfterSeconds)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, stateResponse{
				Status:  provider.StateLoading.String(),
				MountID: p.ID(),
			})
		default:
			m.IncGatedRequest(provider.StateFailed.String())
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, stateResponse{
				Status:  provider.StateFailed.String(),
				MountID: p.ID(),
				Error:   err.Error(),
				Retry:   retryPath,
			})
		}
	}
}
