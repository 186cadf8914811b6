package handlers

import (
	"time"

	"trolley-tracker/internal/services"

	"github.com/gin-gonic/gin"
)

type TrolleyHandler struct {
	trolleyService *services.TrolleyService
}

func NewTrolleyHandler(trolleyService *services.TrolleyService) *TrolleyHandler {
	return &TrolleyHandler{trolleyService: trolleyService}
}

type CreateTrolleyRequest struct {
	TrolleyNumber    string     `json:"trolleyNumber" binding:"required"`
	IsOutside        *bool      `json:"isOutside"`
	BalanceNumber    string     `json:"balanceNumber" binding:"required"`
	DepartureTime    *time.Time `json:"departureTime" binding:"required"`
	ReturnTime       *time.Time `json:"returnTime"`
	PickupLocation   string     `json:"pickupLocation"`
	DeliveryLocation string     `json:"deliveryLocation"`
	Customer         string     `json:"customer"`
	SecurityDeposit  *float64   `json:"securityDeposit" binding:"required"`
	RentalAmount     *float64   `json:"rentalAmount" binding:"required"`
	RemainingAmount  *float64   `json:"remainingAmount"`
	Staff            string     `json:"staff"`
	BalancePrintDate *time.Time `json:"balancePrintDate"`
}

type UpdateTrolleyRequest struct {
	TrolleyNumber    string     `json:"trolleyNumber"`
	IsOutside        *bool      `json:"isOutside"`
	BalanceNumber    *string    `json:"balanceNumber"`
	DepartureTime    *time.Time `json:"departureTime"`
	ReturnTime       *time.Time `json:"returnTime"`
	PickupLocation   *string    `json:"pickupLocation"`
	DeliveryLocation *string    `json:"deliveryLocation"`
	Customer         *string    `json:"customer"`
	SecurityDeposit  *float64   `json:"securityDeposit"`
	RentalAmount     *float64   `json:"rentalAmount"`
	RemainingAmount  *float64   `json:"remainingAmount"`
	Staff            *string    `json:"staff"`
	BalancePrintDate *time.Time `json:"balancePrintDate"`
}

type UpdateTrolleyStateRequest struct {
	IsOutside *bool `json:"isOutside" binding:"required"`
}

// AddTrolley records a rental and claims its trolley number
func (h *TrolleyHandler) AddTrolley(c *gin.Context) {
	var req CreateTrolleyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	// A new rental takes the trolley out unless told otherwise.
	outside := true
	if req.IsOutside != nil {
		outside = *req.IsOutside
	}

	trolley, err := h.trolleyService.Create(c.Request.Context(), services.CreateTrolleyInput{
		TrolleyNumber:    req.TrolleyNumber,
		IsOutside:        outside,
		BalanceNumber:    req.BalanceNumber,
		DepartureTime:    *req.DepartureTime,
		ReturnTime:       req.ReturnTime,
		PickupLocation:   req.PickupLocation,
		DeliveryLocation: req.DeliveryLocation,
		Customer:         req.Customer,
		SecurityDeposit:  *req.SecurityDeposit,
		RentalAmount:     *req.RentalAmount,
		RemainingAmount:  req.RemainingAmount,
		Staff:            req.Staff,
		BalancePrintDate: req.BalancePrintDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, trolley)
}

// UpdateByBalanceNumber updates a rental found by its balance number
func (h *TrolleyHandler) UpdateByBalanceNumber(c *gin.Context) {
	var req UpdateTrolleyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	trolley, err := h.trolleyService.UpdateByBalanceNumber(c.Request.Context(), c.Param("balanceNumber"), services.UpdateTrolleyInput{
		TrolleyNumber:    req.TrolleyNumber,
		IsOutside:        req.IsOutside,
		BalanceNumber:    req.BalanceNumber,
		DepartureTime:    req.DepartureTime,
		ReturnTime:       req.ReturnTime,
		PickupLocation:   req.PickupLocation,
		DeliveryLocation: req.DeliveryLocation,
		Customer:         req.Customer,
		SecurityDeposit:  req.SecurityDeposit,
		RentalAmount:     req.RentalAmount,
		RemainingAmount:  req.RemainingAmount,
		Staff:            req.Staff,
		BalancePrintDate: req.BalancePrintDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, trolley)
}

// UpdateByTrolleyNumber sets the outside flag of the rental holding a number
func (h *TrolleyHandler) UpdateByTrolleyNumber(c *gin.Context) {
	var req UpdateTrolleyStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	trolley, err := h.trolleyService.UpdateByTrolleyNumber(c.Request.Context(), c.Param("trolleyNumber"), *req.IsOutside)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, trolley)
}

func (h *TrolleyHandler) GetTrolleys(c *gin.Context) {
	trolleys, err := h.trolleyService.FindByTrolleyNumber(c.Request.Context(), c.Param("trolleyNumber"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, trolleys)
}

func (h *TrolleyHandler) DeleteTrolley(c *gin.Context) {
	if err := h.trolleyService.DeleteByBalanceNumber(c.Request.Context(), c.Param("balanceNumber")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{"message": "Trolley deleted successfully"})
}

func (h *TrolleyHandler) GetAllTrolleys(c *gin.Context) {
	count, trolleys, err := h.trolleyService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{"count": count, "trolleys": trolleys})
}
