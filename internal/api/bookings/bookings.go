package bookings

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oasisline/backoffice/internal/gateway"
	"github.com/oasisline/backoffice/internal/middleware"
	redisx "github.com/oasisline/backoffice/internal/redis"
	bookingsService "github.com/oasisline/backoffice/internal/service/bookings"
	store "github.com/oasisline/backoffice/internal/store/bookings"
)

type BookingsHandler struct {
	log      *zap.Logger
	svc      *bookingsService.Service
	secret   string
	sessions *redisx.Sessions
}

func NewBookingsHandler(log *zap.Logger, svc *bookingsService.Service, secret string, sessions *redisx.Sessions) *BookingsHandler {
	return &BookingsHandler{log: log, svc: svc, secret: secret, sessions: sessions}
}

func (h *BookingsHandler) Register(r *gin.Engine) {
	protected := r.Group("/v1/bookings")
	protected.Use(middleware.Auth(h.secret, h.sessions))
	{
		protected.GET("", h.list)
		protected.GET("/:id", h.get)
		protected.POST("/:id/check-in", h.checkIn)
		protected.POST("/:id/check-out", h.checkOut)
		protected.DELETE("/:id", h.delete)
	}
}

// list translates the dashboard's URL parameters into a query descriptor:
// ?status= filters (absent or "all" means no filter), ?sortBy=field-direction
// picks the order (default startDate-desc), ?page= selects the window.
func (h *BookingsHandler) list(c *gin.Context) {
	var filter *gateway.Filter
	if status := c.Query("status"); status != "" && status != "all" {
		filter = &gateway.Filter{Field: "status", Op: gateway.OpEquals, Value: status}
	}

	field, direction, _ := strings.Cut(c.DefaultQuery("sortBy", "startDate-desc"), "-")
	sort := gateway.Sort{Field: field, Descending: direction == "desc"}

	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
			return
		}
		page = n
	}

	res, err := h.svc.List(c.Request.Context(), store.Descriptor{Filter: filter, Sort: sort, Page: page})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookingsHandler) get(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}
	booking, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingsHandler) checkIn(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}
	var req struct {
		HasBreakfast bool    `json:"hasBreakfast"`
		ExtrasPrice  float64 `json:"extrasPrice"`
		TotalPrice   float64 `json:"totalPrice"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	var breakfast *bookingsService.Breakfast
	if req.HasBreakfast {
		breakfast = &bookingsService.Breakfast{ExtrasPrice: req.ExtrasPrice, TotalPrice: req.TotalPrice}
	}
	updated, err := h.svc.CheckIn(c.Request.Context(), id, breakfast)
	if err != nil {
		h.domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *BookingsHandler) checkOut(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}
	updated, err := h.svc.CheckOut(c.Request.Context(), id)
	if err != nil {
		h.domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *BookingsHandler) delete(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.domainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookingsHandler) bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return 0, false
	}
	return id, true
}

func (h *BookingsHandler) domainError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
