package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/healthconnect-api/internal/middleware"
	"github.com/noah-isme/healthconnect-api/internal/models"
)

// Routes collects the handlers and guards mounted under the API prefix.
type Routes struct {
	Auth         *AuthHandler
	Appointments *AppointmentHandler
	Reports      *ReportHandler
	// Authenticate populates claims; JWT in production, a header shim in tests.
	Authenticate gin.HandlerFunc
	// Users resolves the caller's stored account after Authenticate.
	Users middleware.UserLoader
	// AuthLimiter throttles anonymous register and login calls. Optional.
	AuthLimiter gin.HandlerFunc
}

// RegisterRoutes mounts every API endpoint on api.
func RegisterRoutes(api *gin.RouterGroup, r Routes) {
	limiter := r.AuthLimiter
	if limiter == nil {
		limiter = func(c *gin.Context) { c.Next() }
	}
	admin := middleware.RequireRoles(models.RoleAdmin)
	current := middleware.ActiveUser(r.Users)

	auth := api.Group("/auth")
	auth.POST("/register", limiter, r.Auth.Register)
	auth.POST("/login", limiter, r.Auth.Login)

	authed := auth.Group("", r.Authenticate, current)
	authed.GET("/me", middleware.RequireRoles(models.RoleStudent, models.RoleNurse, models.RoleAdmin), r.Auth.Me)
	authed.POST("/register-nurse", admin, r.Auth.RegisterNurse)
	authed.GET("/nurses", admin, r.Auth.ListNurses)
	authed.PUT("/nurses/:id/availability", admin, r.Auth.SetNurseAvailability)

	appointments := api.Group("/appointments", r.Authenticate, current, middleware.RequireRoles(models.RoleStudent, models.RoleNurse, models.RoleAdmin))
	appointments.GET("", r.Appointments.List)
	appointments.POST("", middleware.RequireRoles(models.RoleStudent), r.Appointments.Create)
	appointments.GET("/slots", r.Appointments.Slots)
	appointments.GET("/stats", admin, r.Reports.Stats)
	appointments.GET("/export", admin, r.Reports.Export)
	appointments.GET("/:id", r.Appointments.Get)
	appointments.PUT("/:id", r.Appointments.Update)
	appointments.DELETE("/:id", r.Appointments.Delete)
	appointments.POST("/:id/assign", admin, r.Appointments.Assign)
}
