package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"room-reservation-backend/internal/mw"
)

type createOrderRequest struct {
	RoomID int64 `json:"room_id" binding:"required"`
	slotInput
}

// PostOrder handles POST /api/orders.
func (h *Handler) PostOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	slot, ok := parseSlot(c, req.slotInput)
	if !ok {
		return
	}

	order, err := h.svc.Create(c.Request.Context(), mw.UserID(c), req.RoomID, slot, h.now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newOrderResponse(order))
}

// GetOrders handles GET /api/orders?from=&to=.
func (h *Handler) GetOrders(c *gin.Context) {
	r, ok := dateRange(c)
	if !ok {
		return
	}
	orders, err := h.svc.ListOrders(c.Request.Context(), mw.UserID(c), r)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, out)
}

// GetOrder handles GET /api/orders/:id. Admins may read any order.
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := h.svc.GetOrder(c.Request.Context(), mw.UserID(c), id, mw.IsAdmin(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

// PutOrder handles PUT /api/orders/:id and moves the order to a new interval.
func (h *Handler) PutOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in slotInput
	if !bindSlot(c, &in) {
		return
	}
	slot, ok := parseSlot(c, in)
	if !ok {
		return
	}

	order, err := h.svc.Reschedule(c.Request.Context(), id, mw.UserID(c), slot, h.now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

// CancelOrder handles POST /api/orders/:id/cancel.
func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	record, err := h.svc.Cancel(c.Request.Context(), id, mw.UserID(c), h.now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetOrderCancellation handles GET /api/orders/:id/cancellation.
func (h *Handler) GetOrderCancellation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	record, err := h.svc.CancellationForOrder(c.Request.Context(), mw.UserID(c), id, mw.IsAdmin(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetOrderOccupancy handles GET /api/orders/:id/occupancy.
func (h *Handler) GetOrderOccupancy(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	used, err := h.svc.OccupancyForOrder(c.Request.Context(), mw.UserID(c), id, mw.IsAdmin(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, used)
}

// GetCancellations handles GET /api/cancellations.
func (h *Handler) GetCancellations(c *gin.Context) {
	records, err := h.svc.ListCancellations(c.Request.Context(), mw.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
