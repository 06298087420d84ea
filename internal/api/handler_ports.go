package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"portshare-backend/internal/mw"
)

type setPriceRequest struct {
	MonthlyPrice float64 `json:"monthlyPrice"`
}

// SetPortPrice handles PUT /api/ports/:id/price.
func (h *Handler) SetPortPrice(c *gin.Context) {
	portID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid port id"})
		return
	}

	var req setPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.registry.SetPrice(c.Request.Context(), mw.ActorID(c), portID, req.MonthlyPrice); err != nil {
		respondError(c, err)
		return
	}

	port, err := h.registry.GetPort(c.Request.Context(), portID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, port)
}

type setMaintenanceRequest struct {
	Down bool `json:"down"`
}

// SetPortMaintenance handles PUT /api/ports/:id/maintenance.
func (h *Handler) SetPortMaintenance(c *gin.Context) {
	portID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid port id"})
		return
	}

	var req setMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.registry.SetMaintenance(c.Request.Context(), mw.ActorID(c), portID, req.Down); err != nil {
		respondError(c, err)
		return
	}

	port, err := h.registry.GetPort(c.Request.Context(), portID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, port)
}
