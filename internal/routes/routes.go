package routes

import (
	"github.com/gin-gonic/gin"

	"jobbridge_backend/internal/handlers"
	"jobbridge_backend/internal/middleware"
	"jobbridge_backend/internal/models"
)

// AppHandlers bundles every HTTP handler the router needs.
type AppHandlers struct {
	Auth         *handlers.AuthHandler
	Job          *handlers.JobHandler
	Application  *handlers.ApplicationHandler
	Subscription *handlers.SubscriptionHandler
	Notification *handlers.NotificationHandler
}

// RegisterRoutes registers all HTTP routes on the gin engine.
func RegisterRoutes(router *gin.Engine, h *AppHandlers, jwtSecret string) {
	api := router.Group("/api/v1")

	// Public.
	api.POST("/auth/register/student", h.Auth.RegisterStudent)
	api.POST("/auth/register/company", h.Auth.RegisterCompany)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/jobs/:id", h.Job.Get)
	api.GET("/plans", h.Subscription.ListPlans)

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(jwtSecret))

	// Any authenticated user.
	authed.GET("/notifications", h.Notification.List)
	authed.PATCH("/notifications/:id/read", h.Notification.MarkAsRead)
	authed.POST("/notifications/read-all", h.Notification.MarkAllAsRead)

	// Student routes.
	student := authed.Group("")
	student.Use(middleware.RequireRole(models.UserRoleStudent))
	{
		student.POST("/applications", h.Application.Apply)
		student.POST("/applications/:id/withdraw", h.Application.Withdraw)
		student.GET("/applications", h.Application.ListOwn)
		student.GET("/applications/can-apply", h.Application.CanApply)

		student.GET("/subscription", h.Subscription.Current)
		student.GET("/subscription/entitlement", h.Subscription.Entitlement)
		student.POST("/subscription/purchase", h.Subscription.Purchase)
		student.POST("/subscription/cancel", h.Subscription.Cancel)
		student.POST("/subscription/renew", h.Subscription.Renew)
	}

	// Company routes.
	company := authed.Group("")
	company.Use(middleware.RequireRole(models.UserRoleCompany))
	{
		company.POST("/jobs", h.Job.CreateDraft)
		company.PUT("/jobs/:id", h.Job.UpdateDraft)
		company.POST("/jobs/:id/submit", h.Job.Submit)
		company.POST("/jobs/:id/unpublish", h.Job.Unpublish)
		company.POST("/jobs/:id/republish", h.Job.Republish)
		company.POST("/jobs/:id/close", h.Job.Close)
		company.GET("/jobs", h.Job.ListOwn)
		company.GET("/jobs/:id/applications", h.Application.ListForJob)

		company.POST("/applications/:id/hire", h.Application.Hire)
		company.POST("/applications/:id/reject", h.Application.CompanyReject)
	}

	// Admin routes.
	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRole(models.UserRoleAdmin))
	{
		admin.GET("/jobs/pending", h.Job.ListPendingReview)
		admin.POST("/jobs/:id/approve", h.Job.Approve)
		admin.POST("/jobs/:id/reject", h.Job.Reject)
		admin.POST("/jobs/:id/close", h.Job.AdminClose)

		admin.POST("/applications/:id/review", h.Application.Review)
		admin.POST("/applications/:id/reject", h.Application.AdminReject)

		admin.POST("/plans", h.Subscription.CreatePlan)
	}
}
