package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"room-reservation-backend/internal/apperr"
	"room-reservation-backend/internal/mw"
	"room-reservation-backend/internal/reservation"
	"room-reservation-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc     *reservation.Service
	store   store.Store
	webpush *webpush.Options
	catalog *mw.ResponseCache
	now     func() time.Time
}

// NewHandler creates a new API handler. catalog may be nil when responses are not cached.
func NewHandler(svc *reservation.Service, s store.Store, webpushOptions *webpush.Options, catalog *mw.ResponseCache) *Handler {
	return &Handler{
		svc:     svc,
		store:   s,
		webpush: webpushOptions,
		catalog: catalog,
		now:     time.Now,
	}
}

// invalidateCatalog drops the cached listings an admin write changed.
func (h *Handler) invalidateCatalog(scopes ...string) {
	h.catalog.Invalidate(scopes...)
}

// writeError maps a service error to an HTTP status. Unclassified errors are
// logged and hidden from the client.
func writeError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrPolicy):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case store.IsNotFound(err):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	default:
		log.Printf("[WARN] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// idParam reads a positive integer path parameter.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// int64Query reads an optional integer query parameter; missing means zero.
func int64Query(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}
