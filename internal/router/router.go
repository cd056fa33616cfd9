package router

import (
	"time"

	"edupulse/config"
	"edupulse/internal/auth"
	"edupulse/internal/domain"
	"edupulse/internal/handler"
	"edupulse/internal/middleware"
	"edupulse/internal/repository"
	"edupulse/internal/service"
	"edupulse/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers and returns the HTTP engine
// plus the retry sweep for the caller to start.
func Setup(cfg *config.Config, db *gorm.DB) (*gin.Engine, *service.RetrySweep) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	deviceTokenRepo := repository.NewDeviceTokenRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	hub := ws.NewHub()

	// Channel senders; either may be nil when unconfigured, in which case
	// that channel fails and feeds the retry path.
	emailSender := service.NewSMTPSender(&cfg.SMTP)
	if emailSender == nil {
		logrus.Warn("email channel disabled: set SMTP_HOST to enable")
	}
	pushSender := service.NewFCMSender(&cfg.Firebase)
	if pushSender == nil {
		logrus.Warn("push channel disabled: set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}

	// Services
	channelRouter := service.NewChannelRouter(notificationRepo, preferenceRepo, deviceTokenRepo,
		userRepo, wrapEmail(emailSender), wrapPush(pushSender), hub, cfg.Notify.SendTimeout)
	dispatcher := service.NewDispatcher(subscriptionRepo, notificationRepo, userRepo, enrollmentRepo, channelRouter, hub)
	subscriptionSvc := service.NewSubscriptionService(subscriptionRepo, userRepo)
	inboxSvc := service.NewNotificationService(notificationRepo)
	sweep := service.NewRetrySweep(notificationRepo, channelRouter, &cfg.Notify)
	analyticsSvc := service.NewAnalyticsService(notificationRepo)

	// Handlers
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionSvc)
	notificationHandler := handler.NewNotificationHandler(inboxSvc)
	preferenceHandler := handler.NewPreferenceHandler(preferenceRepo)
	deviceHandler := handler.NewDeviceHandler(deviceTokenRepo)
	dispatchHandler := handler.NewDispatchHandler(dispatcher)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc, sweep)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/subscriptions", subscriptionHandler.List)
			me.POST("/subscriptions", subscriptionHandler.Subscribe)
			me.DELETE("/subscriptions", subscriptionHandler.Unsubscribe)
			me.GET("/notifications", notificationHandler.List)
			me.GET("/notifications/unread-count", notificationHandler.UnreadCount)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
			me.PUT("/notifications/:id/clicked", notificationHandler.MarkClicked)
			me.DELETE("/notifications/:id", notificationHandler.Delete)
			me.GET("/preferences", preferenceHandler.List)
			me.PUT("/preferences/:category", preferenceHandler.Update)
			me.POST("/devices", deviceHandler.Register)
			me.DELETE("/devices", deviceHandler.Unregister)
		}

		internal := api.Group("/internal")
		internal.Use(authMw, middleware.RequireRole(domain.RoleService, domain.RoleAdmin))
		{
			internal.POST("/dispatch", dispatchHandler.Dispatch)
			internal.POST("/subscriptions/bulk", subscriptionHandler.BulkSubscribe)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.RequireRole(domain.RoleAdmin))
		{
			admin.GET("/analytics", analyticsHandler.Overview)
			admin.GET("/analytics/event-types", analyticsHandler.ByEventType)
			admin.GET("/analytics/scopes", analyticsHandler.ByScope)
			admin.GET("/analytics/daily", analyticsHandler.Daily)
			admin.GET("/retry-stats", analyticsHandler.RetryStats)
		}
	}

	verifier := auth.NewJWTVerifier(&cfg.JWT)
	r.GET("/ws/notifications", ws.Upgrade(hub, verifier, enrollmentRepo, inboxSvc))

	return r, sweep
}

// wrapEmail/wrapPush keep a typed nil from sneaking into the interface: a nil
// *SMTPSender stored in a non-nil interface would dodge the router's nil check.
func wrapEmail(s *service.SMTPSender) service.EmailSender {
	if s == nil {
		return nil
	}
	return s
}

func wrapPush(s *service.FCMSender) service.PushSender {
	if s == nil {
		return nil
	}
	return s
}
