package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oasisline/backoffice/internal/middleware"
	redisx "github.com/oasisline/backoffice/internal/redis"
	appsettings "github.com/oasisline/backoffice/internal/settings"
)

type SettingsHandler struct {
	appearance *appsettings.Appearance
	secret     string
	sessions   *redisx.Sessions
}

func NewSettingsHandler(appearance *appsettings.Appearance, secret string, sessions *redisx.Sessions) *SettingsHandler {
	return &SettingsHandler{appearance: appearance, secret: secret, sessions: sessions}
}

func (h *SettingsHandler) Register(r *gin.Engine) {
	protected := r.Group("/v1/settings")
	protected.Use(middleware.Auth(h.secret, h.sessions))
	{
		protected.GET("/appearance", h.get)
		protected.PUT("/appearance", h.update)
		protected.POST("/appearance/toggle", h.toggle)
	}
}

func (h *SettingsHandler) get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"mode": h.appearance.Mode()})
}

func (h *SettingsHandler) update(c *gin.Context) {
	var req struct {
		Mode string `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode, err := appsettings.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.appearance.SetMode(mode)
	c.JSON(http.StatusOK, gin.H{"mode": mode})
}

func (h *SettingsHandler) toggle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"mode": h.appearance.Toggle()})
}
