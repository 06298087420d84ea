package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"portshare-backend/internal/order"
	"portshare-backend/internal/registry"
	"portshare-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	registry *registry.Registry
	orders   *order.Service
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, reg *registry.Registry, orders *order.Service, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		registry: reg,
		orders:   orders,
		webpush:  webpushOptions,
	}
}
