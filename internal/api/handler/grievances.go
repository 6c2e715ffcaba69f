package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"grievance/backend/internal/grievance"
	"grievance/backend/internal/models"
)

type submitRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Images           []string `json:"images"`
	SuggestedOfficer string   `json:"suggestedOfficer"`
}

type statusRequest struct {
	Status models.Status `json:"status"`
	Note   string        `json:"note"`
}

type assignRequest struct {
	OfficerID    string `json:"officerId"`
	DepartmentID string `json:"departmentId"`
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
	Closed   bool   `json:"closed"`
}

// SubmitGrievance answers 201 for a new grievance and 200 with a duplicate block
// when the submission matched an earlier one.
func (h *Handler) SubmitGrievance(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	out, err := h.Grievances.Submit(c.Request.Context(), grievance.SubmitInput{
		Title:              req.Title,
		Description:        req.Description,
		CitizenID:          currentUser(c).ID,
		Images:             req.Images,
		SuggestedOfficerID: req.SuggestedOfficer,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	body := gin.H{
		"message":        "Grievance submitted",
		"outcome":        out.Kind,
		"grievanceId":    out.Grievance.GrievanceID,
		"grievance":      out.Grievance,
		"classification": out.Classification,
	}
	if out.Kind == grievance.OutcomeDuplicate {
		body["message"] = "Possible duplicate of an existing grievance"
		body["duplicate"] = out.Duplicate
		c.JSON(http.StatusOK, body)
		return
	}
	c.JSON(http.StatusCreated, body)
}

func (h *Handler) ListGrievances(c *gin.Context) {
	lf := grievance.ListFilter{
		Status:   models.Status(c.Query("status")),
		Priority: models.Priority(c.Query("priority")),
		Category: c.Query("category"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		lf.Limit = n
	}
	if lf.Status != "" && !lf.Status.Valid() {
		badRequest(c, "unknown status")
		return
	}

	list, err := h.Grievances.List(c.Request.Context(), currentUser(c), lf)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Grievance{}
	}
	c.JSON(http.StatusOK, gin.H{"grievances": list})
}

func (h *Handler) GetGrievance(c *gin.Context) {
	g, err := h.Grievances.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grievance": g})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	g, err := h.Grievances.UpdateStatus(c.Request.Context(), currentUser(c).ID, c.Param("id"), req.Status, req.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated", "grievance": g})
}

func (h *Handler) AssignGrievance(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	g, err := h.Grievances.Assign(c.Request.Context(), c.Param("id"), req.OfficerID, req.DepartmentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assigned", "grievance": g})
}

func (h *Handler) GiveFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	g, err := h.Grievances.Feedback(c.Request.Context(), currentUser(c).ID, c.Param("id"), req.Feedback, req.Closed)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback updated", "grievance": g})
}
