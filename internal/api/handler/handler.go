// Package handler holds the gin handlers of the grievance API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"grievance/backend/internal/auth"
	"grievance/backend/internal/eventhub"
	"grievance/backend/internal/grievance"
	"grievance/backend/internal/logger"
	"grievance/backend/internal/models"
	"grievance/backend/internal/storage"
)

// Handler bundles the services the routes delegate to.
type Handler struct {
	Auth       *auth.Service
	Grievances *grievance.Service
	Store      storage.Store
	Hub        *eventhub.ManagerService
	// AllowedOrigin is checked on websocket upgrades. Empty or "*" accepts any origin.
	AllowedOrigin string
	logger        *zap.Logger
}

func NewHandler(a *auth.Service, g *grievance.Service, s storage.Store, hub *eventhub.ManagerService, origin string, l *zap.Logger) *Handler {
	return &Handler{
		Auth:          a,
		Grievances:    g,
		Store:         s,
		Hub:           hub,
		AllowedOrigin: origin,
		logger:        logger.OrNop(l),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps domain errors to HTTP statuses. Unknown errors are logged and
// reported as 500 without detail.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, grievance.ErrInvalidInput),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, auth.ErrUserExists),
		errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusBadRequest
	case errors.Is(err, grievance.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateKey):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// currentUser is set by the auth middleware on every protected route.
func currentUser(c *gin.Context) *models.User {
	u, _ := auth.CurrentUser(c)
	return u
}
