package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oasisline/backoffice/internal/gateway"
	"github.com/oasisline/backoffice/internal/middleware"
	redisx "github.com/oasisline/backoffice/internal/redis"
	authService "github.com/oasisline/backoffice/internal/service/auth"
)

type AuthHandler struct {
	log      *zap.Logger
	svc      *authService.Service
	secret   string
	sessions *redisx.Sessions
}

func NewAuthHandler(log *zap.Logger, svc *authService.Service, secret string, sessions *redisx.Sessions) *AuthHandler {
	return &AuthHandler{log: log, svc: svc, secret: secret, sessions: sessions}
}

func (h *AuthHandler) Register(r *gin.Engine) {
	auth := r.Group("/v1/auth")
	{
		auth.POST("/signup", h.signup)
		auth.POST("/login", h.login)
		// A missing session must answer "no user", not 401, so this route
		// stays outside the auth middleware.
		auth.GET("/user", h.getUser)
	}

	protected := r.Group("/v1/auth")
	protected.Use(middleware.Auth(h.secret, h.sessions))
	{
		protected.POST("/logout", h.logout)
		protected.PUT("/user", h.updateUser)
	}
}

func (h *AuthHandler) signup(c *gin.Context) {
	var req authService.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := h.svc.Signup(c.Request.Context(), req)
	if err != nil {
		h.gatewayError(c, "signup failed", err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req authService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		if gateway.IsUnauthorized(err) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.gatewayError(c, "login failed", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) getUser(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	user, err := h.svc.CurrentUser(c.Request.Context(), token)
	if err != nil {
		h.gatewayError(c, "get user failed", err)
		return
	}
	if user == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) logout(c *gin.Context) {
	token := c.GetString("token")
	if err := h.svc.Logout(c.Request.Context(), token, middleware.TokenTTL(token)); err != nil {
		h.gatewayError(c, "logout failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) updateUser(c *gin.Context) {
	var req struct {
		Password   string `json:"password"`
		FullName   string `json:"fullName"`
		Avatar     []byte `json:"avatar"`
		AvatarType string `json:"avatarType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.svc.UpdateCurrentUser(c.Request.Context(), c.GetString("token"), authService.UpdateUserRequest{
		Password:   req.Password,
		FullName:   req.FullName,
		Avatar:     req.Avatar,
		AvatarType: req.AvatarType,
	})
	if err != nil {
		h.gatewayError(c, "update user failed", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) gatewayError(c *gin.Context, msg string, err error) {
	h.log.Error(msg, zap.Error(err))
	var ge *gateway.Error
	if errors.As(err, &ge) && ge.StatusCode < 500 {
		c.JSON(ge.StatusCode, gin.H{"error": ge.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
