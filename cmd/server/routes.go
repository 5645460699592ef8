package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/activity"
	"github.com/aura-academy/backend/internal/analytics"
	"github.com/aura-academy/backend/internal/app"
	"github.com/aura-academy/backend/internal/auth"
	"github.com/aura-academy/backend/internal/courses"
	"github.com/aura-academy/backend/internal/departments"
	"github.com/aura-academy/backend/internal/middleware"
	"github.com/aura-academy/backend/internal/payments"
	"github.com/aura-academy/backend/internal/realtime"
	"github.com/aura-academy/backend/internal/seminars"
	"github.com/aura-academy/backend/internal/uploads"
	"github.com/aura-academy/backend/internal/videos"
	"github.com/aura-academy/backend/internal/watch"
	"github.com/aura-academy/backend/pkg/response"
)

// newRouter mounts every route under /api.
func newRouter(b *app.Backend, logger *zap.Logger) *gin.Engine {
	cfg := b.Config
	s := b.Store

	var thumbnails videos.ThumbnailStore
	if b.S3 != nil {
		thumbnails = b.S3
	}
	videoHandler := videos.NewHandler(s.Videos, s.Ratings, b.Vimeo, thumbnails, b.Activity, logger)
	watchHandler := watch.NewHandler(watch.NewTracker(s.WatchSessions, s.Videos, b.Activity, logger), logger)
	uploadHandler := uploads.NewHandler(b.Uploads, logger)
	seminarService := seminars.NewService(s.Seminars, s.Registrations, b.Zoom, b.Stripe, b.Hub, b.Activity,
		seminars.Options{Currency: cfg.Stripe.Currency, Timezone: cfg.Zoom.Timezone}, logger)
	seminarHandler := seminars.NewHandler(seminarService, logger)
	paymentHandler := payments.NewHandler(payments.NewService(s.Registrations, s.Refunds, b.Stripe, b.Activity, logger), logger)
	courseHandler := courses.NewHandler(s.Courses, s.DiscountRules, s.Videos, s.Seminars, cfg.Stripe.Currency, logger)
	departmentHandler := departments.NewHandler(s.Departments, logger)
	activityHandler := activity.NewHandler(s.Activities, logger)
	analyticsHandler := analytics.NewHandler(s, logger)
	authHandler := auth.NewHandler(b.DevAuth, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins()))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())

	root := router.Group("/api")

	// Public
	root.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok", "store": s.Driver, "vendors": b.Modes()})
	})
	root.GET("/metrics", gin.WrapH(promhttp.Handler()))
	root.POST("/stripe/webhook", paymentHandler.Webhook)
	if b.DevAuth != nil {
		root.POST("/auth/dev-token", authHandler.DevToken)
	}
	// token travels in the query string
	root.GET("/ws", realtime.ServeWs(b.Hub, b.Verifier, cfg.Server.AllowedOrigins(), logger))

	api := root.Group("", middleware.Auth(b.Verifier))
	admin := middleware.RequireAdmin()
	{
		api.GET("/me", authHandler.Me)
		api.GET("/me/activity", activityHandler.Mine)
		api.GET("/me/progress", watchHandler.Mine)
		api.GET("/me/registrations", seminarHandler.Mine)
		api.GET("/admin/activity", admin, activityHandler.List)

		// Videos
		api.GET("/videos", videoHandler.List)
		api.POST("/videos", admin, videoHandler.Create)
		api.GET("/videos/:id", videoHandler.Get)
		api.PATCH("/videos/:id", admin, videoHandler.Update)
		api.DELETE("/videos/:id", admin, videoHandler.Delete)
		api.POST("/videos/:id/sync", admin, videoHandler.Sync)
		api.POST("/videos/:id/thumbnail", admin, videoHandler.UploadThumbnail)
		api.POST("/videos/:id/thumbnail/upload-url", admin, videoHandler.PresignThumbnail)
		api.GET("/videos/:id/playback", videoHandler.Playback)
		api.POST("/videos/:id/rate", videoHandler.Rate)
		api.GET("/videos/:id/analytics", admin, analyticsHandler.Video)

		// Watch progress
		api.POST("/videos/:id/watch", watchHandler.Start)
		api.GET("/videos/:id/watch", watchHandler.Get)
		api.PUT("/videos/:id/watch", watchHandler.Progress)
		api.POST("/videos/:id/watch/end", watchHandler.End)

		// Upload tasks
		api.POST("/upload-tasks", admin, uploadHandler.Create)
		api.GET("/upload-tasks", uploadHandler.List)
		api.GET("/upload-tasks/:id", uploadHandler.Get)
		api.PATCH("/upload-tasks/:id", uploadHandler.Progress)
		api.POST("/upload-tasks/:id/complete", uploadHandler.Complete)
		api.POST("/upload-tasks/:id/fail", uploadHandler.Fail)

		// Seminars and registrations
		api.GET("/seminars", seminarHandler.List)
		api.POST("/seminars", admin, seminarHandler.Create)
		api.GET("/seminars/:id", seminarHandler.Get)
		api.PATCH("/seminars/:id", admin, seminarHandler.Update)
		api.DELETE("/seminars/:id", admin, seminarHandler.Delete)
		api.PATCH("/seminars/:id/status", admin, seminarHandler.SetStatus)
		api.POST("/seminars/:id/register", seminarHandler.Register)
		api.GET("/seminars/:id/registrations", admin, seminarHandler.Registrations)
		api.GET("/seminars/:id/analytics", admin, analyticsHandler.Seminar)
		api.PATCH("/registrations/:id/attendance", admin, seminarHandler.SetAttendance)
		api.PATCH("/registrations/:id/payment", admin, seminarHandler.SetPayment)

		// Payments
		api.POST("/stripe/refund", admin, paymentHandler.Refund)
		api.GET("/refunds", admin, paymentHandler.Refunds)

		// Courses and discounts
		api.GET("/admin/courses", admin, courseHandler.List)
		api.POST("/admin/courses", admin, courseHandler.Create)
		api.GET("/admin/courses/:id", admin, courseHandler.Get)
		api.PATCH("/admin/courses/:id", admin, courseHandler.Update)
		api.DELETE("/admin/courses/:id", admin, courseHandler.Delete)
		api.GET("/courses/live", courseHandler.Live)
		api.GET("/courses/:id/price", courseHandler.Price)
		api.GET("/courses/discount-rules", courseHandler.ListDiscounts)
		api.POST("/courses/discount-rules", admin, courseHandler.CreateDiscount)
		api.PATCH("/courses/discount-rules/:id", admin, courseHandler.UpdateDiscount)
		api.DELETE("/courses/discount-rules/:id", admin, courseHandler.DeleteDiscount)

		// Departments
		api.GET("/departments", departmentHandler.List)
		api.POST("/departments", admin, departmentHandler.Create)
		api.PATCH("/departments/:id", admin, departmentHandler.Update)
		api.DELETE("/departments/:id", admin, departmentHandler.Delete)
	}
	return router
}
