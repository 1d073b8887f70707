// Package dashboard produces the chart-ready series behind the back-office
// landing page: the daily sales series and the stay-duration summary.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oasisline/backoffice/internal/cache"
	"github.com/oasisline/backoffice/internal/gateway"
	"github.com/oasisline/backoffice/internal/settings"
	store "github.com/oasisline/backoffice/internal/store/bookings"
)

type Service struct {
	log        *zap.Logger
	repo       *store.Repository
	cache      *cache.Cache
	appearance *settings.Appearance
}

func NewService(log *zap.Logger, repo *store.Repository, c *cache.Cache, appearance *settings.Appearance) *Service {
	return &Service{log: log, repo: repo, cache: c, appearance: appearance}
}

// SalesSeries is the sales chart payload: the series plus the window it
// covers.
type SalesSeries struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Points []SalesPoint `json:"points"`
}

// Sales returns the daily sales series for the trailing lastDays window.
func (s *Service) Sales(ctx context.Context, lastDays int) (*SalesSeries, error) {
	records, err := s.recentBookings(ctx, lastDays)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	points := DailySales(records, lastDays, now)
	return &SalesSeries{
		From:   now.AddDate(0, 0, -(lastDays - 1)).Format("Jan 02 2006"),
		To:     now.Format("Jan 02 2006"),
		Points: points,
	}, nil
}

// StayDurations returns the duration histogram over confirmed stays that
// started in the trailing lastDays window. Unconfirmed bookings never reach
// the chart.
func (s *Service) StayDurations(ctx context.Context, lastDays int) ([]DurationBucket, error) {
	stays, err := s.recentStays(ctx, lastDays)
	if err != nil {
		return nil, err
	}
	confirmed := stays[:0:0]
	for _, st := range stays {
		if st.Status == store.StatusCheckedIn || st.Status == store.StatusCheckedOut {
			confirmed = append(confirmed, st)
		}
	}
	return BucketStays(confirmed, s.appearance.Mode()), nil
}

// TodayActivity returns today's arrivals and departures.
func (s *Service) TodayActivity(ctx context.Context) ([]store.Booking, error) {
	token := gateway.TokenFrom(ctx)
	v, err := s.cache.Get(ctx, "today-activity", func(ctx context.Context) (any, error) {
		if token != "" {
			ctx = gateway.WithToken(ctx, token)
		}
		return s.repo.TodayActivity(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]store.Booking), nil
}

func (s *Service) recentBookings(ctx context.Context, lastDays int) ([]store.SalesRecord, error) {
	token := gateway.TokenFrom(ctx)
	key := fmt.Sprintf("bookings|last=%d", lastDays)
	v, err := s.cache.Get(ctx, key, func(ctx context.Context) (any, error) {
		if token != "" {
			ctx = gateway.WithToken(ctx, token)
		}
		return s.repo.CreatedSince(ctx, time.Now().AddDate(0, 0, -lastDays))
	})
	if err != nil {
		return nil, err
	}
	return v.([]store.SalesRecord), nil
}

func (s *Service) recentStays(ctx context.Context, lastDays int) ([]store.Booking, error) {
	token := gateway.TokenFrom(ctx)
	key := fmt.Sprintf("stays|last=%d", lastDays)
	v, err := s.cache.Get(ctx, key, func(ctx context.Context) (any, error) {
		if token != "" {
			ctx = gateway.WithToken(ctx, token)
		}
		return s.repo.StaysSince(ctx, time.Now().AddDate(0, 0, -lastDays))
	})
	if err != nil {
		return nil, err
	}
	return v.([]store.Booking), nil
}
