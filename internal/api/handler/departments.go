package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"grievance/backend/internal/models"
)

type departmentRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type categoryOfficersRequest struct {
	Category   string   `json:"category"`
	OfficerIDs []string `json:"officerIds"`
}

func (h *Handler) ListDepartments(c *gin.Context) {
	list, err := h.Store.ListDepartments(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Department{}
	}
	c.JSON(http.StatusOK, gin.H{"departments": list})
}

func (h *Handler) CreateDepartment(c *gin.Context) {
	var req departmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		badRequest(c, "name is required")
		return
	}
	d := &models.Department{Name: strings.TrimSpace(*req.Name)}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if err := h.Store.CreateDepartment(c.Request.Context(), d); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"department": d})
}

func (h *Handler) UpdateDepartment(c *gin.Context) {
	var req departmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	ctx := c.Request.Context()
	d, err := h.Store.GetDepartment(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			badRequest(c, "name cannot be empty")
			return
		}
		d.Name = name
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if err := h.Store.UpdateDepartment(ctx, d); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"department": d})
}

// SetCategoryOfficers replaces the officers handling one category in a department.
// Every listed id must belong to an officer.
func (h *Handler) SetCategoryOfficers(c *gin.Context) {
	var req categoryOfficersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	category := strings.TrimSpace(req.Category)
	if category == "" || req.OfficerIDs == nil {
		badRequest(c, "category and officerIds are required")
		return
	}

	ctx := c.Request.Context()
	for _, id := range req.OfficerIDs {
		u, err := h.Store.GetUser(ctx, id)
		if err != nil {
			h.respondError(c, fmt.Errorf("officer %s: %w", id, err))
			return
		}
		if !u.IsOfficer() {
			badRequest(c, fmt.Sprintf("user %s is not an officer", id))
			return
		}
	}

	id := c.Param("id")
	if err := h.Store.SetCategoryOfficers(ctx, id, category, req.OfficerIDs); err != nil {
		h.respondError(c, err)
		return
	}
	d, err := h.Store.GetDepartment(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"department": d})
}

// DeleteDepartment leaves officer and grievance references to it in place.
func (h *Handler) DeleteDepartment(c *gin.Context) {
	if err := h.Store.DeleteDepartment(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Department deleted"})
}
