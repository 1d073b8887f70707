package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	authHandler "github.com/oasisline/backoffice/internal/api/auth"
	bookingsHandler "github.com/oasisline/backoffice/internal/api/bookings"
	dashboardHandler "github.com/oasisline/backoffice/internal/api/dashboard"
	settingsHandler "github.com/oasisline/backoffice/internal/api/settings"
	"github.com/oasisline/backoffice/internal/cache"
	"github.com/oasisline/backoffice/internal/config"
	"github.com/oasisline/backoffice/internal/gateway"
	kafkax "github.com/oasisline/backoffice/internal/kafka"
	"github.com/oasisline/backoffice/internal/middleware"
	redisx "github.com/oasisline/backoffice/internal/redis"
	authService "github.com/oasisline/backoffice/internal/service/auth"
	bookingsService "github.com/oasisline/backoffice/internal/service/bookings"
	dashboardService "github.com/oasisline/backoffice/internal/service/dashboard"
	appsettings "github.com/oasisline/backoffice/internal/settings"
	storeBookings "github.com/oasisline/backoffice/internal/store/bookings"
)

// RegisterRoutes wires all HTTP routes against a freshly built dependency
// graph: one gateway client, one query cache, one appearance state for the
// whole process.
func RegisterRoutes(r *gin.Engine, log *zap.Logger, cfg config.Config) {
	r.Use(middleware.Metrics())
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "Oasisline Back Office",
			"description": "Booking administration and occupancy analytics for the cabin hotel.",
			"version":     "1.0.0",
			"endpoints":   []string{"/v1/health", "/v1/auth", "/v1/bookings", "/v1/dashboard", "/v1/settings"},
		})
	})
	r.GET("/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	sessions := redisx.NewSessions(cfg.RedisAddr)
	r.Use(middleware.RedisRateLimit(sessions.GetClient(), 50, 100))

	gw := gateway.NewClient(cfg.GatewayURL, cfg.GatewayAPIKey, time.Duration(cfg.GatewayTimeoutMS)*time.Millisecond, log)
	queryCache := cache.New()
	appearance := appsettings.NewAppearance(appsettings.ModeLight)
	producer := kafkax.NewProducer([]string{cfg.KafkaBrokers}, "bookings-audit")

	bookingsRepo := storeBookings.NewRepository(gw, log, cfg.PageSize)
	bookingsSvc := bookingsService.NewService(log, bookingsRepo, queryCache, producer)
	dashboardSvc := dashboardService.NewService(log, bookingsRepo, queryCache, appearance)
	authSvc := authService.NewService(log, gw, sessions)

	authHandler.NewAuthHandler(log, authSvc, cfg.GatewayJWTSecret, sessions).Register(r)
	bookingsHandler.NewBookingsHandler(log, bookingsSvc, cfg.GatewayJWTSecret, sessions).Register(r)
	dashboardHandler.NewDashboardHandler(log, dashboardSvc, cfg.GatewayJWTSecret, sessions).Register(r)
	settingsHandler.NewSettingsHandler(appearance, cfg.GatewayJWTSecret, sessions).Register(r)
}
