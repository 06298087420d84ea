package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"portshare-backend/internal/model"
	"portshare-backend/internal/mw"
)

// CabinetResponse is the public projection of a cabinet.
type CabinetResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	OperatorID     string `json:"operatorId"`
	Status         string `json:"status"`
	TotalPorts     int    `json:"totalPorts"`
	OccupiedPorts  int    `json:"occupiedPorts"`
	AvailablePorts int64  `json:"availablePorts"`
}

// GetCabinets handles the GET /api/cabinets request.
func GetCabinets(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cabinets []model.Cabinet
		if err := db.Find(&cabinets).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve cabinets"})
			return
		}

		type aggRow struct {
			CabinetID int64
			Available int64
		}
		var aggs []aggRow
		if err := db.
			Model(&model.Port{}).
			Select("cabinet_id as cabinet_id, COUNT(*) as available").
			Where("status = ?", model.PortAvailable).
			Group("cabinet_id").
			Scan(&aggs).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate ports"})
			return
		}

		aggMap := make(map[int64]int64, len(aggs))
		for _, a := range aggs {
			aggMap[a.CabinetID] = a.Available
		}

		responses := make([]CabinetResponse, 0, len(cabinets))
		for _, cab := range cabinets {
			responses = append(responses, CabinetResponse{
				ID:             cab.ID,
				Name:           cab.Name,
				OperatorID:     cab.OperatorID,
				Status:         cab.Status,
				TotalPorts:     cab.TotalPorts,
				OccupiedPorts:  cab.OccupiedPorts,
				AvailablePorts: aggMap[cab.ID],
			})
		}
		c.JSON(http.StatusOK, responses)
	}
}

// GetCabinetPorts handles the GET /api/cabinets/{id}/ports request.
func GetCabinetPorts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cabinetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid cabinet id"})
			return
		}

		var ports []model.Port
		if err := db.Where("cabinet_id = ?", cabinetID).Order("seq ASC").Find(&ports).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve ports"})
			return
		}
		c.JSON(http.StatusOK, ports)
	}
}

type createCabinetRequest struct {
	Name       string `json:"name" binding:"required"`
	TotalPorts int    `json:"totalPorts" binding:"required"`
}

// CreateCabinet handles POST /api/cabinets. The acting operator owns
// the new cabinet.
func (h *Handler) CreateCabinet(c *gin.Context) {
	var req createCabinetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cabinet, err := h.registry.CreateCabinet(c.Request.Context(), mw.ActorID(c), req.Name, req.TotalPorts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cabinet)
}

// DeleteCabinet handles DELETE /api/cabinets/:id.
func (h *Handler) DeleteCabinet(c *gin.Context) {
	cabinetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cabinet id"})
		return
	}

	if err := h.registry.DeleteCabinet(c.Request.Context(), mw.ActorID(c), cabinetID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
