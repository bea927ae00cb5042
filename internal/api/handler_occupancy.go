package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"room-reservation-backend/internal/model"
	"room-reservation-backend/internal/mw"
	"room-reservation-backend/internal/reservation"
)

// checkInRequest names either a room (the caller's current order there is
// picked) or an order directly.
type checkInRequest struct {
	RoomID  int64 `json:"room_id"`
	OrderID int64 `json:"order_id"`
}

type roomRequest struct {
	RoomID int64 `json:"room_id" binding:"required"`
}

// PostCheckIn handles POST /api/checkin.
func (h *Handler) PostCheckIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.RoomID == 0) == (req.OrderID == 0) {
		badRequest(c, "exactly one of room_id or order_id is required")
		return
	}

	var (
		used *model.UsedRoom
		err  error
	)
	if req.OrderID != 0 {
		used, err = h.svc.CheckInOrder(c.Request.Context(), mw.UserID(c), req.OrderID, h.now())
	} else {
		used, err = h.svc.CheckIn(c.Request.Context(), mw.UserID(c), req.RoomID, h.now())
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, used)
}

// PostCheckOut handles POST /api/checkout.
func (h *Handler) PostCheckOut(c *gin.Context) {
	h.occupancyAction(c, http.StatusOK, h.svc.CheckOut)
}

// PostLibraryCheckIn handles POST /api/library/checkin.
func (h *Handler) PostLibraryCheckIn(c *gin.Context) {
	h.occupancyAction(c, http.StatusCreated, h.svc.LibraryCheckIn)
}

// PostLibraryCheckOut handles POST /api/library/checkout.
func (h *Handler) PostLibraryCheckOut(c *gin.Context) {
	h.occupancyAction(c, http.StatusOK, h.svc.LibraryCheckOut)
}

type occupancyFunc = func(ctx context.Context, userID, roomID int64, now time.Time) (*model.UsedRoom, error)

func (h *Handler) occupancyAction(c *gin.Context, status int, fn occupancyFunc) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	used, err := fn(c.Request.Context(), mw.UserID(c), req.RoomID, h.now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, used)
}

// GetOccupancies handles GET /api/occupancies.
func (h *Handler) GetOccupancies(c *gin.Context) {
	used, err := h.svc.ListOccupancies(c.Request.Context(), mw.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, used)
}

type reportRequest struct {
	LED                  bool   `json:"led"`
	AirConditioner       bool   `json:"air_conditioner"`
	Socket               bool   `json:"socket"`
	Projector            bool   `json:"projector"`
	InteractiveDisplay   bool   `json:"interactive_display"`
	OnlineMeetingDevices bool   `json:"online_meeting_devices"`
	Description          string `json:"description" binding:"max=1024"`
}

// PostReport handles POST /api/reports for the caller's open occupancy.
func (h *Handler) PostReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	report, err := h.svc.FileReport(c.Request.Context(), mw.UserID(c), reservation.ReportInput{
		LED:                  req.LED,
		AirConditioner:       req.AirConditioner,
		Socket:               req.Socket,
		Projector:            req.Projector,
		InteractiveDisplay:   req.InteractiveDisplay,
		OnlineMeetingDevices: req.OnlineMeetingDevices,
		Description:          req.Description,
	}, h.now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// GetReports handles GET /api/reports.
func (h *Handler) GetReports(c *gin.Context) {
	reports, err := h.svc.ListReports(c.Request.Context(), mw.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// GetReport handles GET /api/reports/:id.
func (h *Handler) GetReport(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	report, err := h.svc.GetReport(c.Request.Context(), mw.UserID(c), id, mw.IsAdmin(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
