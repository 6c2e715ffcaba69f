package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Analytics returns the admin dashboard summary computed at request time.
func (h *Handler) Analytics(c *gin.Context) {
	a, err := h.Store.Analytics(c.Request.Context(), time.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
