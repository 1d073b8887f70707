package dashboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oasisline/backoffice/internal/middleware"
	redisx "github.com/oasisline/backoffice/internal/redis"
	dashboardService "github.com/oasisline/backoffice/internal/service/dashboard"
)

type DashboardHandler struct {
	log      *zap.Logger
	svc      *dashboardService.Service
	secret   string
	sessions *redisx.Sessions
}

func NewDashboardHandler(log *zap.Logger, svc *dashboardService.Service, secret string, sessions *redisx.Sessions) *DashboardHandler {
	return &DashboardHandler{log: log, svc: svc, secret: secret, sessions: sessions}
}

func (h *DashboardHandler) Register(r *gin.Engine) {
	protected := r.Group("/v1/dashboard")
	protected.Use(middleware.Auth(h.secret, h.sessions))
	{
		protected.GET("/sales", h.sales)
		protected.GET("/stay-durations", h.stayDurations)
		protected.GET("/today-activity", h.todayActivity)
	}
}

func (h *DashboardHandler) sales(c *gin.Context) {
	last, ok := h.lastDays(c)
	if !ok {
		return
	}
	series, err := h.svc.Sales(c.Request.Context(), last)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, series)
}

func (h *DashboardHandler) stayDurations(c *gin.Context) {
	last, ok := h.lastDays(c)
	if !ok {
		return
	}
	buckets, err := h.svc.StayDurations(c.Request.Context(), last)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, buckets)
}

func (h *DashboardHandler) todayActivity(c *gin.Context) {
	activity, err := h.svc.TodayActivity(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, activity)
}

func (h *DashboardHandler) lastDays(c *gin.Context) (int, bool) {
	last, err := strconv.Atoi(c.DefaultQuery("last", "7"))
	if err != nil || last < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "last must be a positive integer"})
		return 0, false
	}
	return last, true
}
