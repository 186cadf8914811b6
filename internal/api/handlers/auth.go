package handlers

import (
	"trolley-tracker/internal/api/middleware"
	"trolley-tracker/internal/models"
	"trolley-tracker/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService     *services.AuthService
	employeeService *services.EmployeeService
}

func NewAuthHandler(authService *services.AuthService, employeeService *services.EmployeeService) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		employeeService: employeeService,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string           `json:"token"`
	User  *models.Employee `json:"user"`
}

// Login handles employee and admin login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, LoginResponse{
		Token: res.Token,
		User:  res.Employee,
	})
}

// Logout has no server-side state to clear; tokens expire on their own.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(200, gin.H{"message": "Logout successful"})
}

// Profile returns the verified token claims
func (h *AuthHandler) Profile(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		respondError(c, services.ErrNoSubject)
		return
	}
	c.JSON(200, claims)
}

// GetCurrentUser returns the record behind the token
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		respondError(c, services.ErrNoSubject)
		return
	}

	employee, err := h.employeeService.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{"user": employee})
}
