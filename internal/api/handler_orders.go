package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"portshare-backend/internal/model"
	"portshare-backend/internal/mw"
	"portshare-backend/internal/order"
	"portshare-backend/internal/store"
)

type createOrderRequest struct {
	PortID          int64   `json:"portId" binding:"required"`
	MonthlyPrice    float64 `json:"monthlyPrice"`
	InstallationFee float64 `json:"installationFee"`
}

// CreateOrder handles POST /api/orders. The acting operator becomes
// the requester; the cabinet's operator becomes the owner.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.orders.Create(c.Request.Context(), mw.ActorID(c), order.CreateParams{
		PortID:          req.PortID,
		MonthlyPrice:    req.MonthlyPrice,
		InstallationFee: req.InstallationFee,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	full, err := h.orders.Get(c.Request.Context(), created.ID, mw.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, full)
}

// GetOrder handles GET /api/orders/:id.
func (h *Handler) GetOrder(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), c.Param("id"), mw.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// ListOrders handles GET /api/orders with optional direction and
// status filters.
func (h *Handler) ListOrders(c *gin.Context) {
	dir := store.Direction(c.DefaultQuery("direction", string(store.DirectionAll)))
	status := model.OrderStatus(c.Query("status"))

	orders, err := h.orders.List(c.Request.Context(), mw.ActorID(c), dir, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

type scheduleRequest struct {
	ScheduledDate time.Time `json:"scheduledDate" binding:"required"`
}

// Transition returns a handler applying the named transition and
// responding with the refreshed order-with-notes projection.
func (h *Handler) Transition(action order.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		var scheduled *time.Time
		if action == order.ActionSchedule {
			var req scheduleRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			scheduled = &req.ScheduledDate
		}

		actorID := mw.ActorID(c)
		if _, err := h.orders.Transition(c.Request.Context(), c.Param("id"), actorID, action, scheduled); err != nil {
			respondError(c, err)
			return
		}

		full, err := h.orders.Get(c.Request.Context(), c.Param("id"), actorID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, full)
	}
}

type addNoteRequest struct {
	Content string `json:"content"`
}

// AddOrderNote handles POST /api/orders/:id/notes.
func (h *Handler) AddOrderNote(c *gin.Context) {
	var req addNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	note, err := h.orders.AddUserNote(c.Request.Context(), c.Param("id"), mw.ActorID(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}
