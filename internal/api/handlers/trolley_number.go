package handlers

import (
	"trolley-tracker/internal/services"

	"github.com/gin-gonic/gin"
)

type TrolleyNumberHandler struct {
	ledger *services.LedgerService
}

func NewTrolleyNumberHandler(ledger *services.LedgerService) *TrolleyNumberHandler {
	return &TrolleyNumberHandler{ledger: ledger}
}

type CreateTrolleyNumberRequest struct {
	TrolleyNumber string `json:"trolleyNumber" binding:"required"`
	IsOutside     bool   `json:"isOutside"`
}

type UpdateTrolleyNumberRequest struct {
	TrolleyNumber *string `json:"trolleyNumber"`
	IsOutside     *bool   `json:"isOutside"`
}

func (h *TrolleyNumberHandler) AddTrolleyNumber(c *gin.Context) {
	var req CreateTrolleyNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	entry, err := h.ledger.Create(c.Request.Context(), req.TrolleyNumber, req.IsOutside)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, entry)
}

func (h *TrolleyNumberHandler) GetAllTrolleyNumbers(c *gin.Context) {
	count, entries, err := h.ledger.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{"count": count, "trolleyNumbers": entries})
}

func (h *TrolleyNumberHandler) GetTrolleyNumber(c *gin.Context) {
	entry, err := h.ledger.Get(c.Request.Context(), c.Param("trolleyNumber"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, entry)
}

func (h *TrolleyNumberHandler) UpdateTrolleyNumber(c *gin.Context) {
	var req UpdateTrolleyNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	entry, err := h.ledger.Update(c.Request.Context(), c.Param("trolleyNumber"), services.UpdateTrolleyNumberInput{
		TrolleyNumber: req.TrolleyNumber,
		IsOutside:     req.IsOutside,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, entry)
}

func (h *TrolleyNumberHandler) DeleteTrolleyNumber(c *gin.Context) {
	if err := h.ledger.Delete(c.Request.Context(), c.Param("trolleyNumber")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{"message": "TrolleyNumber deleted successfully"})
}
