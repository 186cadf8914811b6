package handlers

import (
	"errors"

	"trolley-tracker/internal/api/middleware"
	"trolley-tracker/internal/models"
	"trolley-tracker/internal/services"

	"github.com/gin-gonic/gin"
)

// EmployeeHandler serves both the employee and the admin routes; they
// differ only in the role flag and the not-found message.
type EmployeeHandler struct {
	employeeService        *services.EmployeeService
	allowPublicAdminSignup bool
}

func NewEmployeeHandler(employeeService *services.EmployeeService, allowPublicAdminSignup bool) *EmployeeHandler {
	return &EmployeeHandler{
		employeeService:        employeeService,
		allowPublicAdminSignup: allowPublicAdminSignup,
	}
}

type CreateEmployeeRequest struct {
	Username     string              `json:"username" binding:"required"`
	Password     string              `json:"password" binding:"required"`
	EmployeeData models.EmployeeData `json:"employeeData"`
}

type UpdateEmployeeRequest struct {
	Username     *string              `json:"username"`
	Password     string               `json:"password"`
	EmployeeData *models.EmployeeData `json:"employeeData"`
	IsAdmin      *bool                `json:"isAdmin"`
}

func (h *EmployeeHandler) create(c *gin.Context, isAdmin bool) {
	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	employee, err := h.employeeService.Create(c.Request.Context(), services.CreateEmployeeInput{
		Username:     req.Username,
		Password:     req.Password,
		EmployeeData: req.EmployeeData,
	}, isAdmin)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, employee)
}

func (h *EmployeeHandler) update(c *gin.Context, notFound error) {
	var req UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	employee, err := h.employeeService.Update(c.Request.Context(), c.Param("employeeId"), services.UpdateEmployeeInput{
		Username:     req.Username,
		Password:     req.Password,
		EmployeeData: req.EmployeeData,
		IsAdmin:      req.IsAdmin,
	})
	if err != nil {
		respondError(c, translateNotFound(err, notFound))
		return
	}

	c.JSON(200, employee)
}

func (h *EmployeeHandler) list(c *gin.Context, isAdmin bool) {
	employees, err := h.employeeService.List(c.Request.Context(), isAdmin)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{"employees": employees})
}

func (h *EmployeeHandler) delete(c *gin.Context, notFound error, message string) {
	if err := h.employeeService.Delete(c.Request.Context(), c.Param("employeeId")); err != nil {
		respondError(c, translateNotFound(err, notFound))
		return
	}

	c.JSON(200, gin.H{"message": message})
}

// AddEmployee creates a non-admin employee
func (h *EmployeeHandler) AddEmployee(c *gin.Context) {
	h.create(c, false)
}

// GetAllEmployees lists non-admin employees
func (h *EmployeeHandler) GetAllEmployees(c *gin.Context) {
	h.list(c, false)
}

func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	h.update(c, services.ErrEmployeeNotFound)
}

func (h *EmployeeHandler) DeleteEmployee(c *gin.Context) {
	h.delete(c, services.ErrEmployeeNotFound, "Employee deleted successfully")
}

// AddAdmin creates an admin. Without an admin token this is only allowed
// while no admin exists, unless public sign-up is enabled.
func (h *EmployeeHandler) AddAdmin(c *gin.Context) {
	if !h.allowPublicAdminSignup {
		claims, authenticated := middleware.GetClaims(c)
		if !authenticated || !claims.IsAdmin {
			count, err := h.employeeService.CountAdmins(c.Request.Context())
			if err != nil {
				respondError(c, err)
				return
			}
			if count > 0 {
				if !authenticated {
					c.JSON(401, gin.H{"error": services.ErrTokenMissing.Error()})
				} else {
					c.JSON(403, gin.H{"error": "Forbidden: Access denied for non-admin users"})
				}
				return
			}
		}
	}

	h.create(c, true)
}

// GetAdminEmployees lists admins
func (h *EmployeeHandler) GetAdminEmployees(c *gin.Context) {
	h.list(c, true)
}

func (h *EmployeeHandler) UpdateAdmin(c *gin.Context) {
	h.update(c, services.ErrAdminNotFound)
}

func (h *EmployeeHandler) DeleteAdmin(c *gin.Context) {
	h.delete(c, services.ErrAdminNotFound, "Admin deleted successfully")
}

// GetAdmin returns a record by ID
func (h *EmployeeHandler) GetAdmin(c *gin.Context) {
	employee, err := h.employeeService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, translateNotFound(err, services.ErrAdminNotFound))
		return
	}

	c.JSON(200, employee)
}

func translateNotFound(err, notFound error) error {
	if errors.Is(err, services.ErrEmployeeNotFound) {
		return notFound
	}
	return err
}
