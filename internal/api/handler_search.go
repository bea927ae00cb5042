package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"room-reservation-backend/internal/parse"
	"room-reservation-backend/internal/reservation"
)

// roomQuery reads the optional location filters shared by the search endpoints.
func roomQuery(c *gin.Context) (reservation.RoomQuery, bool) {
	var q reservation.RoomQuery
	var ok bool
	if q.BranchID, ok = int64Query(c, "branch_id"); !ok {
		return q, false
	}
	if q.BuildingID, ok = int64Query(c, "building_id"); !ok {
		return q, false
	}
	if q.TypeID, ok = int64Query(c, "type_id"); !ok {
		return q, false
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			badRequest(c, "invalid limit")
			return q, false
		}
		q.Limit = limit
	}
	return q, true
}

// SearchRooms handles GET /api/rooms/search?date=&begin=&end=&branch_id=&limit=.
// It returns the ordinary rooms that are free for the whole interval.
func (h *Handler) SearchRooms(c *gin.Context) {
	var in slotInput
	if !bindSlot(c, &in) {
		return
	}
	req, ok := parseSlot(c, in)
	if !ok {
		return
	}
	q, ok := roomQuery(c)
	if !ok {
		return
	}

	rooms, err := h.svc.FilterAvailableRooms(c.Request.Context(), q, req, h.now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// GetLibraries handles GET /api/libraries.
func (h *Handler) GetLibraries(c *gin.Context) {
	q, ok := roomQuery(c)
	if !ok {
		return
	}
	rooms, err := h.svc.SearchLibraries(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// GetRoomAvailability handles GET /api/rooms/:id/availability?date=&begin=&end=.
func (h *Handler) GetRoomAvailability(c *gin.Context) {
	roomID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in slotInput
	if !bindSlot(c, &in) {
		return
	}
	req, ok := parseSlot(c, in)
	if !ok {
		return
	}

	available, err := h.svc.QueryAvailability(c.Request.Context(), roomID, req, h.now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "available": available})
}

// GetRoomSlots handles GET /api/rooms/:id/slots?date=.
func (h *Handler) GetRoomSlots(c *gin.Context) {
	roomID, ok := idParam(c, "id")
	if !ok {
		return
	}
	d, err := parse.ParseDate(c.Query("date"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	free, err := h.svc.FreeSlots(c.Request.Context(), roomID, d.Year, d.Month, d.Day, h.now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "free": newIntervalResponses(free)})
}
