package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"grievance/backend/internal/auth"
	"grievance/backend/internal/models"
	"grievance/backend/internal/storage"
)

type createUserRequest struct {
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	Role         models.Role `json:"role"`
	DepartmentID string      `json:"department"`
}

// updateUserRequest uses pointers so absent fields stay untouched. An empty
// department string detaches the user from its department.
type updateUserRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	DepartmentID   *string `json:"department"`
	TelegramChatID *int64  `json:"telegramChatId"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	f := storage.UserFilter{Role: models.Role(c.Query("role")), DepartmentID: c.Query("department")}
	if f.Role != "" && !f.Role.Valid() {
		badRequest(c, "unknown role")
		return
	}
	list, err := h.Store.FindUsers(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if list == nil {
		list = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

// CreateUser lets an admin create an account of any role.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Role == "" {
		badRequest(c, "role is required")
		return
	}
	ctx := c.Request.Context()
	if req.DepartmentID != "" {
		if _, err := h.Store.GetDepartment(ctx, req.DepartmentID); err != nil {
			h.respondError(c, fmt.Errorf("department %s: %w", req.DepartmentID, err))
			return
		}
	}
	u, err := h.Auth.CreateUser(ctx, auth.NewUserInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	ctx := c.Request.Context()
	u, err := h.Store.GetUser(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			badRequest(c, "name cannot be empty")
			return
		}
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			badRequest(c, "email cannot be empty")
			return
		}
		if other, err := h.Store.GetUserByEmail(ctx, email); err == nil && other.ID != u.ID {
			badRequest(c, "email already in use")
			return
		} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
			h.respondError(c, err)
			return
		}
		u.Email = email
	}
	if req.DepartmentID != nil {
		if *req.DepartmentID == "" {
			u.DepartmentID = nil
		} else {
			d, err := h.Store.GetDepartment(ctx, *req.DepartmentID)
			if err != nil {
				h.respondError(c, fmt.Errorf("department %s: %w", *req.DepartmentID, err))
				return
			}
			u.DepartmentID = &d.ID
		}
	}
	if req.TelegramChatID != nil {
		u.TelegramChatID = *req.TelegramChatID
	}

	if err := h.Store.UpdateUser(ctx, u); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.Store.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
