package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"room-reservation-backend/config"
	"room-reservation-backend/internal/auth"
	"room-reservation-backend/internal/mw"
	"room-reservation-backend/internal/reservation"
	"room-reservation-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(svc *reservation.Service, s store.Store, webpushOptions *webpush.Options, verifier *auth.Verifier, cfg config.ServerConfig) *gin.Engine {
	r := gin.Default()
	r.Use(mw.RequestID())

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Catalog responses are cached per scope; admin writes invalidate the scopes they touch.
	catalog := mw.NewResponseCache(time.Duration(cfg.CacheTTLSeconds) * time.Second)

	handler := NewHandler(svc, s, webpushOptions, catalog)

	api := r.Group("/api")
	api.Use(rateLimiter)
	registerRoutes(api, handler, verifier)

	return r
}

// registerRoutes mounts every endpoint on api. Catalog reads go through the handler's cache.
func registerRoutes(api *gin.RouterGroup, handler *Handler, verifier *auth.Verifier) {
	cached := handler.catalog.Middleware
	{
		api.GET("/branches", cached(mw.ScopeBranches), handler.GetBranches)
		api.GET("/branches/:id/buildings", cached(mw.ScopeBranches), handler.GetBuildings)
		api.GET("/room-types", cached(mw.ScopeRoomTypes), handler.GetRoomTypes)
		api.GET("/rooms", cached(mw.ScopeRooms), handler.GetRooms)
		api.GET("/rooms/:id", cached(mw.ScopeRooms), handler.GetRoom)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	user := api.Group("")
	user.Use(mw.JWTAuth(verifier))
	{
		user.GET("/rooms/search", handler.SearchRooms)
		user.GET("/libraries", handler.GetLibraries)
		user.GET("/rooms/:id/availability", handler.GetRoomAvailability)
		user.GET("/rooms/:id/slots", handler.GetRoomSlots)

		user.POST("/orders", handler.PostOrder)
		user.GET("/orders", handler.GetOrders)
		user.GET("/orders/:id", handler.GetOrder)
		user.PUT("/orders/:id", handler.PutOrder)
		user.POST("/orders/:id/cancel", handler.CancelOrder)
		user.GET("/orders/:id/cancellation", handler.GetOrderCancellation)
		user.GET("/orders/:id/occupancy", handler.GetOrderOccupancy)
		user.GET("/cancellations", handler.GetCancellations)

		user.POST("/checkin", handler.PostCheckIn)
		user.POST("/checkout", handler.PostCheckOut)
		user.POST("/library/checkin", handler.PostLibraryCheckIn)
		user.POST("/library/checkout", handler.PostLibraryCheckOut)
		user.GET("/occupancies", handler.GetOccupancies)

		user.POST("/reports", handler.PostReport)
		user.GET("/reports", handler.GetReports)
		user.GET("/reports/:id", handler.GetReport)

		user.GET("/subscriptions", handler.GetSubscription)
		user.PUT("/subscriptions", handler.PutSubscription)
		user.DELETE("/subscriptions", handler.DeleteSubscription)
	}

	admin := api.Group("/admin")
	admin.Use(mw.JWTAuth(verifier), mw.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/branches", handler.PostBranch)
		admin.POST("/buildings", handler.PostBuilding)
		admin.POST("/room-types", handler.PostRoomType)
		admin.POST("/rooms", handler.PostRoom)
	}
}
