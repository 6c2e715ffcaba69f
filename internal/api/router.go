// Package api assembles the HTTP surface of the backend.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"grievance/backend/internal/api/handler"
	"grievance/backend/internal/auth"
	"grievance/backend/internal/logger"
	"grievance/backend/internal/metrics"
)

// NewRouter registers every route. Role checks happen once per route through the
// permission table; ownership checks stay in the services.
func NewRouter(h *handler.Handler, m *metrics.Metrics, origin string, l *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), AccessLog(logger.OrNop(l)), CORS(origin))
	if m != nil {
		r.Use(m.Middleware())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := r.Group("/api")
	api.GET("/health", h.Health)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)

	protected := api.Group("")
	protected.Use(h.Auth.Middleware())
	protected.GET("/auth/me", h.Me)

	g := protected.Group("/grievances")
	g.POST("", auth.Require(auth.ActionSubmitGrievance), h.SubmitGrievance)
	g.GET("", auth.Require(auth.ActionListGrievances), h.ListGrievances)
	g.GET("/:id", auth.Require(auth.ActionViewGrievance), h.GetGrievance)
	g.PATCH("/:id/status", auth.Require(auth.ActionUpdateStatus), h.UpdateStatus)
	g.PATCH("/:id/assign", auth.Require(auth.ActionAssignGrievance), h.AssignGrievance)
	g.PATCH("/:id/feedback", auth.Require(auth.ActionGiveFeedback), h.GiveFeedback)

	d := protected.Group("/departments")
	d.GET("", auth.Require(auth.ActionListDepartments), h.ListDepartments)
	d.POST("", auth.Require(auth.ActionManageDepartments), h.CreateDepartment)
	d.PATCH("/:id", auth.Require(auth.ActionManageDepartments), h.UpdateDepartment)
	d.PATCH("/:id/categories", auth.Require(auth.ActionManageDepartments), h.SetCategoryOfficers)
	d.DELETE("/:id", auth.Require(auth.ActionManageDepartments), h.DeleteDepartment)

	u := protected.Group("/users", auth.Require(auth.ActionManageUsers))
	u.GET("", h.ListUsers)
	u.POST("", h.CreateUser)
	u.PATCH("/:id", h.UpdateUser)
	u.DELETE("/:id", h.DeleteUser)

	protected.GET("/analytics", auth.Require(auth.ActionViewAnalytics), h.Analytics)

	ml := protected.Group("/ml", auth.Require(auth.ActionUseML))
	ml.POST("/suggest", h.Suggest)
	ml.POST("/sentiment", h.Sentiment)

	protected.GET("/ws", auth.Require(auth.ActionWatchEvents), h.ServeWebSocket)

	return r
}
