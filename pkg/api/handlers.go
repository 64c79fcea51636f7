package api

import (
	"net/http"

	"github.com/ava-labs/token-catalog/pkg/metrics"
	"github.com/ava-labs/token-catalog/pkg/provider"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const retryPath = "/retry"

type Handler struct {
	host    CatalogHost
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

func NewHandler(host CatalogHost, log *zap.SugaredLogger, m *metrics.Metrics) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{
		host:    host,
		log:     log,
		metrics: m,
	}
}

type stateResponse struct {
	Status  string `json:"status"`
	MountID string `json:"mountId,omitempty"`
	Tokens  *int   `json:"tokens,omitempty"`
	Error   string `json:"error,omitempty"`
	Retry   string `json:"retry,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GET /status
func (h *Handler) Status(c *gin.Context) {
	s := h.host.Current().Snapshot()
	res := stateResponse{
		Status:  s.State.String(),
		MountID: s.ID,
	}
	switch s.State {
	case provider.StateReady:
		n := s.Catalog.Len()
		res.Tokens = &n
	case provider.StateFailed:
		res.Error = s.Err.Error()
		res.Retry = retryPath
	}
	c.JSON(http.StatusOK, res)
}

// POST /retry
func (h *Handler) Retry(c *gin.Context) {
	s := h.host.Current().Snapshot()
	if s.State != provider.StateFailed {
		c.JSON(http.StatusConflict, errorResponse{Error: "catalog is " + s.State.String() + ", nothing to retry"})
		return
	}

	next := h.host.Remount()
	h.log.Infow("catalog retry requested", "previousMountId", s.ID, "mountId", next.ID())
	c.JSON(http.StatusAccepted, stateResponse{
		Status:  provider.StateLoading.String(),
		MountID: next.ID(),
	})
}

// GET /tokens
func (h *Handler) ListTokens(c *gin.Context) {
	catalog, err := provider.FromContext(c.Request.Context())
	if err != nil {
		h.missingProvider(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

// GET /tokens/:symbol
func (h *Handler) GetToken(c *gin.Context) {
	catalog, err := provider.FromContext(c.Request.Context())
	if err != nil {
		h.missingProvider(c, err)
		return
	}

	symbol := c.Param("symbol")
	token, ok := catalog.Lookup(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown token symbol " + symbol})
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *Handler) missingProvider(c *gin.Context, err error) {
	h.metrics.IncError(metrics.ErrTypeMissingProvider)
	h.log.Errorw("catalog handler mounted outside the gate", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
