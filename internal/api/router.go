package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"portshare-backend/config"
	"portshare-backend/internal/mw"
	"portshare-backend/internal/order"
	"portshare-backend/internal/registry"
	"portshare-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, reg *registry.Registry, orders *order.Service, cfg *config.Config, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	db := s.DB()
	handler := NewHandler(s, reg, orders, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	authed := mw.ActorAuth(cfg.Auth.JWTSecret)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Public reads.
		api.GET("/cabinets", caching, GetCabinets(db))
		api.GET("/cabinets/:id/ports", caching, GetCabinetPorts(db))
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

		// Everything else acts on behalf of an operator.
		priv := api.Group("")
		priv.Use(authed)
		{
			priv.POST("/cabinets", handler.CreateCabinet)
			priv.DELETE("/cabinets/:id", handler.DeleteCabinet)
			priv.PUT("/ports/:id/price", handler.SetPortPrice)
			priv.PUT("/ports/:id/maintenance", handler.SetPortMaintenance)

			priv.POST("/orders", handler.CreateOrder)
			priv.GET("/orders", handler.ListOrders)
			priv.GET("/orders/:id", handler.GetOrder)
			priv.POST("/orders/:id/approve", handler.Transition(order.ActionApprove))
			priv.POST("/orders/:id/reject", handler.Transition(order.ActionReject))
			priv.POST("/orders/:id/sign", handler.Transition(order.ActionSign))
			priv.POST("/orders/:id/schedule", handler.Transition(order.ActionSchedule))
			priv.POST("/orders/:id/start", handler.Transition(order.ActionStart))
			priv.POST("/orders/:id/complete", handler.Transition(order.ActionComplete))
			priv.POST("/orders/:id/cancel", handler.Transition(order.ActionCancel))
			priv.POST("/orders/:id/notes", handler.AddOrderNote)

			priv.GET("/subscriptions", handler.GetSubscriptions)
			priv.PUT("/subscriptions", handler.PutSubscription)
			priv.DELETE("/subscriptions", handler.DeleteSubscription)
		}
	}

	return r
}
