package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"whatsapp-crm-gateway/internal/gateway"
	"whatsapp-crm-gateway/internal/store"
)

// GatewaySource resolves a tenant to its gateway.
type GatewaySource interface {
	Resolve(ctx context.Context, tenantID string) (*gateway.Gateway, error)
}

// StatusStream upgrades a request into a tenant's status event stream.
type StatusStream interface {
	ServeWs(w http.ResponseWriter, r *http.Request, tenant string)
}

type GatewayHandler struct {
	Gateways GatewaySource
	Stream   StatusStream
}

func NewGatewayHandler(gateways GatewaySource, stream StatusStream) *GatewayHandler {
	return &GatewayHandler{Gateways: gateways, Stream: stream}
}

type sendRequest struct {
	Body string `json:"body" binding:"required"`
}

// resolve writes the error response itself and reports false on failure.
func (h *GatewayHandler) resolve(c *gin.Context) (*gateway.Gateway, bool) {
	gw, err := h.Gateways.Resolve(c.Request.Context(), c.GetString(ctxTenant))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return gw, true
}

// GetContacts returns the contact list. A degraded result is still a 200:
// the dashboard renders the empty list and the isDegraded banner.
func (h *GatewayHandler) GetContacts(c *gin.Context) {
	gw, ok := h.resolve(c)
	if !ok {
		return
	}
	res, err := gw.ListContacts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *GatewayHandler) GetMessages(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	gw, ok := h.resolve(c)
	if !ok {
		return
	}
	res, err := gw.ListMessages(c.Request.Context(), c.Param("id"), limit, gateway.ParseSortOrder(c.Query("sort")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *GatewayHandler) SendMessage(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gw, ok := h.resolve(c)
	if !ok {
		return
	}
	res, err := gw.SendMessage(c.Request.Context(), c.Param("id"), req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetStatus always answers 200; an unreachable provider is reported as the
// error state.
func (h *GatewayHandler) GetStatus(c *gin.Context) {
	gw, ok := h.resolve(c)
	if !ok {
		return
	}
	st, err := gw.GetConnectionStatus(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *GatewayHandler) Disconnect(c *gin.Context) {
	gw, ok := h.resolve(c)
	if !ok {
		return
	}
	res, err := gw.Disconnect(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *GatewayHandler) StatusStream(c *gin.Context) {
	if _, ok := h.resolve(c); !ok {
		return
	}
	h.Stream.ServeWs(c.Writer, c.Request, c.GetString(ctxTenant))
}

// Candidates lists the probe order per operation for the tenant.
func (h *GatewayHandler) Candidates(c *gin.Context) {
	gw, ok := h.resolve(c)
	if !ok {
		return
	}
	out := make(map[gateway.Operation][]string, len(gateway.Operations))
	for _, op := range gateway.Operations {
		for _, cand := range gw.Candidates(op) {
			out[op] = append(out[op], cand.String())
		}
	}
	c.JSON(http.StatusOK, out)
}

func writeError(c *gin.Context, err error) {
	var ce *gateway.CascadeExhaustedError
	switch {
	case errors.Is(err, store.ErrTenantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, gateway.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &ce):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "diagnostics": ce.Failures})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(http.StatusRequestTimeout)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
