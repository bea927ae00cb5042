package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"room-reservation-backend/internal/model"
	"room-reservation-backend/internal/mw"
	"room-reservation-backend/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GetBranches handles GET /api/branches.
func (h *Handler) GetBranches(c *gin.Context) {
	branches, err := h.store.ListBranches(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, branches)
}

// GetBuildings handles GET /api/branches/:id/buildings.
func (h *Handler) GetBuildings(c *gin.Context) {
	branchID, ok := idParam(c, "id")
	if !ok {
		return
	}
	buildings, err := h.store.ListBuildings(c.Request.Context(), branchID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildings)
}

// GetRoomTypes handles GET /api/room-types.
func (h *Handler) GetRoomTypes(c *gin.Context) {
	types, err := h.store.ListRoomTypes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

type roomListResponse struct {
	Rooms []model.Room `json:"rooms"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

// GetRooms handles GET /api/rooms?branch_id=&building_id=&type_id=&kind=&page=&limit=.
func (h *Handler) GetRooms(c *gin.Context) {
	var f store.RoomFilter
	var ok bool
	if f.BranchID, ok = int64Query(c, "branch_id"); !ok {
		return
	}
	if f.BuildingID, ok = int64Query(c, "building_id"); !ok {
		return
	}
	if f.TypeID, ok = int64Query(c, "type_id"); !ok {
		return
	}
	switch kind := model.RoomKind(c.Query("kind")); kind {
	case "", model.RoomKindOrdinary, model.RoomKindLibrary:
		f.Kind = kind
	default:
		badRequest(c, "kind must be ordinary or library")
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		badRequest(c, "invalid page")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit < 1 {
		badRequest(c, "invalid limit")
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	f.Offset = (page - 1) * limit
	f.Limit = limit

	rooms, total, err := h.store.ListRooms(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, roomListResponse{Rooms: rooms, Total: total, Page: page, Limit: limit})
}

// GetRoom handles GET /api/rooms/:id.
func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	room, err := h.store.GetRoom(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

type createBranchRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

// PostBranch handles POST /api/admin/branches.
func (h *Handler) PostBranch(c *gin.Context) {
	var req createBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	b := model.Branch{Name: req.Name, Address: req.Address}
	if err := h.store.CreateBranch(c.Request.Context(), &b); err != nil {
		writeError(c, err)
		return
	}
	h.invalidateCatalog(mw.ScopeBranches)
	c.JSON(http.StatusCreated, b)
}

type createBuildingRequest struct {
	BranchID int64  `json:"branch_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

// PostBuilding handles POST /api/admin/buildings.
func (h *Handler) PostBuilding(c *gin.Context) {
	var req createBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	b := model.Building{BranchID: req.BranchID, Name: req.Name}
	if err := h.store.CreateBuilding(c.Request.Context(), &b); err != nil {
		writeError(c, err)
		return
	}
	h.invalidateCatalog(mw.ScopeBranches)
	c.JSON(http.StatusCreated, b)
}

type createRoomTypeRequest struct {
	Name        string         `json:"name" binding:"required"`
	MaxCapacity int            `json:"max_capacity" binding:"gte=0"`
	Kind        model.RoomKind `json:"kind" binding:"omitempty,oneof=ordinary library"`
}

// PostRoomType handles POST /api/admin/room-types.
func (h *Handler) PostRoomType(c *gin.Context) {
	var req createRoomTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	rt := model.RoomType{Name: req.Name, MaxCapacity: req.MaxCapacity, Kind: req.Kind}
	if err := h.store.CreateRoomType(c.Request.Context(), &rt); err != nil {
		writeError(c, err)
		return
	}
	h.invalidateCatalog(mw.ScopeRoomTypes, mw.ScopeRooms)
	c.JSON(http.StatusCreated, rt)
}

type createRoomRequest struct {
	BranchID             int64  `json:"branch_id" binding:"required"`
	BuildingID           int64  `json:"building_id" binding:"required"`
	TypeID               int64  `json:"type_id" binding:"required"`
	NoRoom               string `json:"no_room" binding:"required"`
	MaxQuantity          int    `json:"max_quantity" binding:"gte=0"`
	Projector            bool   `json:"projector"`
	AirConditioner       bool   `json:"air_conditioner"`
	InteractiveDisplay   bool   `json:"interactive_display"`
	OnlineMeetingDevices bool   `json:"online_meeting_devices"`
}

// PostRoom handles POST /api/admin/rooms.
func (h *Handler) PostRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	r := model.Room{
		BranchID:             req.BranchID,
		BuildingID:           req.BuildingID,
		TypeID:               req.TypeID,
		NoRoom:               req.NoRoom,
		MaxQuantity:          req.MaxQuantity,
		Projector:            req.Projector,
		AirConditioner:       req.AirConditioner,
		InteractiveDisplay:   req.InteractiveDisplay,
		OnlineMeetingDevices: req.OnlineMeetingDevices,
		Active:               true,
	}
	if err := h.store.CreateRoom(c.Request.Context(), &r); err != nil {
		writeError(c, err)
		return
	}
	h.invalidateCatalog(mw.ScopeRooms)
	c.JSON(http.StatusCreated, r)
}
