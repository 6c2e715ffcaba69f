package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type suggestRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type sentimentRequest struct {
	Text string `json:"text"`
}

type suggestedOfficer struct {
	OfficerID    string  `json:"officerId"`
	OfficerName  string  `json:"officerName"`
	DepartmentID *string `json:"departmentId,omitempty"`
	OpenLoad     int64   `json:"openLoad"`
}

// Suggest previews classification, duplicate match and officer pick for a draft.
func (h *Handler) Suggest(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.Grievances.Suggest(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var officer *suggestedOfficer
	if p.Suggestion != nil {
		officer = &suggestedOfficer{
			OfficerID:    p.Suggestion.Officer.ID,
			OfficerName:  p.Suggestion.Officer.Name,
			DepartmentID: p.Suggestion.DepartmentID,
			OpenLoad:     p.Suggestion.OpenLoad,
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"classification":   p.Classification,
		"slaHours":         p.SLAHours,
		"embedded":         p.Embedded,
		"duplicate":        p.Duplicate,
		"suggestedOfficer": officer,
	})
}

func (h *Handler) Sentiment(c *gin.Context) {
	var req sentimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	c.JSON(http.StatusOK, h.Grievances.Sentiment(req.Text))
}
