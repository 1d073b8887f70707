// Package bookings wires the booking repository to the query cache and owns
// the mutation side effects: cache invalidation and audit events.
package bookings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/oasisline/backoffice/internal/cache"
	"github.com/oasisline/backoffice/internal/gateway"
	store "github.com/oasisline/backoffice/internal/store/bookings"
)

// EventPublisher emits booking audit events. Failures are logged, never
// surfaced: the mutation already happened.
type EventPublisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// ListResult is the normalized page of rows plus the exact total count.
type ListResult struct {
	Bookings []store.Booking `json:"bookings"`
	Count    int             `json:"count"`
}

type Service struct {
	log    *zap.Logger
	repo   *store.Repository
	cache  *cache.Cache
	events EventPublisher
}

func NewService(log *zap.Logger, repo *store.Repository, c *cache.Cache, events EventPublisher) *Service {
	return &Service{log: log, repo: repo, cache: c, events: events}
}

// List returns the page selected by d, served from the cache when possible,
// and warms the adjacent pages so navigation is a cache hit.
func (s *Service) List(ctx context.Context, d store.Descriptor) (*ListResult, error) {
	v, err := s.cache.Get(ctx, d.CacheKey(), s.listFetch(d, gateway.TokenFrom(ctx)))
	if err != nil {
		return nil, err
	}
	res := v.(*ListResult)
	s.prefetchNeighbors(ctx, d, res.Count)
	return res, nil
}

func (s *Service) listFetch(d store.Descriptor, token string) cache.FetchFunc {
	return func(ctx context.Context) (any, error) {
		if token != "" {
			ctx = gateway.WithToken(ctx, token)
		}
		rows, count, err := s.repo.List(ctx, d)
		if err != nil {
			return nil, err
		}
		return &ListResult{Bookings: rows, Count: count}, nil
	}
}

// prefetchNeighbors warms page-1 and page+1 under the same key-derivation
// rule as List. It runs only once the count is known, so there is never a
// page-count computed from a missing total. Prefetch failures stay in the
// cache and are re-surfaced only if someone actually navigates there.
func (s *Service) prefetchNeighbors(ctx context.Context, d store.Descriptor, count int) {
	if d.Page < 1 || count < 0 {
		return
	}
	token := gateway.TokenFrom(ctx)
	pageCount := (count + s.repo.PageSize() - 1) / s.repo.PageSize()
	if d.Page < pageCount {
		next := d
		next.Page = d.Page + 1
		s.cache.Prefetch(next.CacheKey(), s.listFetch(next, token))
	}
	if d.Page > 1 {
		prev := d
		prev.Page = d.Page - 1
		s.cache.Prefetch(prev.CacheKey(), s.listFetch(prev, token))
	}
}

// Get returns a single booking with nested relations. A miss is terminal and
// is cached as such; no retry happens on this path.
func (s *Service) Get(ctx context.Context, id int64) (*store.Booking, error) {
	token := gateway.TokenFrom(ctx)
	v, err := s.cache.Get(ctx, bookingKey(id), func(ctx context.Context) (any, error) {
		if token != "" {
			ctx = gateway.WithToken(ctx, token)
		}
		return s.repo.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*store.Booking), nil
}

// Breakfast carries the optional extras added at check-in time.
type Breakfast struct {
	ExtrasPrice float64
	TotalPrice  float64
}

// CheckIn transitions the booking to checked-in and marks it paid, optionally
// adding breakfast extras. On success every cached query is invalidated and
// an audit event is published; on failure nothing changes.
func (s *Service) CheckIn(ctx context.Context, id int64, breakfast *Breakfast) (*store.Booking, error) {
	patch := map[string]any{
		"status": store.StatusCheckedIn,
		"isPaid": true,
	}
	if breakfast != nil {
		patch["hasBreakfast"] = true
		patch["extrasPrice"] = breakfast.ExtrasPrice
		patch["totalPrice"] = breakfast.TotalPrice
	}
	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateAll()
	s.publish(ctx, id, "booking_checked_in")
	return updated, nil
}

// CheckOut transitions the booking to checked-out.
func (s *Service) CheckOut(ctx context.Context, id int64) (*store.Booking, error) {
	updated, err := s.repo.Update(ctx, id, map[string]any{"status": store.StatusCheckedOut})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateAll()
	s.publish(ctx, id, "booking_checked_out")
	return updated, nil
}

// Delete removes the booking and drops every cached query that may have
// contained it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateAll()
	s.publish(ctx, id, "booking_deleted")
	return nil
}

func (s *Service) publish(ctx context.Context, id int64, eventType string) {
	if s.events == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"type":       eventType,
		"booking_id": id,
	})
	if err := s.events.Publish(ctx, []byte(strconv.FormatInt(id, 10)), payload); err != nil {
		s.log.Error("audit event publish failed", zap.String("type", eventType), zap.Int64("booking_id", id), zap.Error(err))
	}
}

func bookingKey(id int64) string { return fmt.Sprintf("booking|%d", id) }
