package api

import (
	"net/http"
	"time"

	"github.com/ava-labs/token-catalog/pkg/metrics"
	"github.com/ava-labs/token-catalog/pkg/provider"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogHost is the part of provider.Host the API needs.
type CatalogHost interface {
	Current() *provider.Provider
	Remount() *provider.Provider
}

// Config holds the HTTP API settings.
type Config struct {
	Addr           string
	AllowedOrigins []string // CORS origins of the browser front end; empty allows none
}

// NewRouter builds the gin engine. Routes under the gated group only run once the
// mounted provider is ready, with the catalog in the request context.
func NewRouter(h *Handler, cfg Config, log *zap.SugaredLogger, m *metrics.Metrics) *gin.Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log, m))

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/status", h.Status)
	r.POST("/retry", h.Retry)

	gated := r.Group("/", Gate(h.host, m))
	{
		gated.GET("/tokens", h.ListTokens)
		gated.GET("/tokens/:symbol", h.GetToken)
	}

	return r
}

func requestLogger(log *zap.SugaredLogger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(route, c.Writer.Status())
		log.Debugw("http request",
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
