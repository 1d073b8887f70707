// Package bookings is the booking query builder: it translates descriptors
// into data gateway calls and normalizes responses into rows plus an exact
// total count. Gateway diagnostics are logged here and never leave this
// package; callers see stable domain errors instead.
package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oasisline/backoffice/internal/gateway"
)

const table = "bookings"

// Column lists per use case. Nested relations are expanded by the gateway.
const (
	listColumns     = "id,created_at,startDate,endDate,numNights,numGuests,status,totalPrice,cabins(name),guests(fullName,email)"
	detailColumns   = "*,cabins(*),guests(*)"
	salesColumns    = "created_at,totalPrice,extrasPrice"
	staysColumns    = "*,guests(fullName)"
	activityColumns = "*,guests(fullName,nationality,countryFlag)"
)

// Booking statuses as stored by the gateway.
const (
	StatusUnconfirmed = "unconfirmed"
	StatusCheckedIn   = "checked-in"
	StatusCheckedOut  = "checked-out"
)

var (
	ErrCouldNotLoad   = errors.New("bookings could not be loaded")
	ErrNotFound       = errors.New("booking not found")
	ErrCouldNotUpdate = errors.New("booking could not be updated")
	ErrCouldNotDelete = errors.New("booking could not be deleted")
)

type Cabin struct {
	Name string `json:"name"`
}

type Guest struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Nationality string `json:"nationality,omitempty"`
	CountryFlag string `json:"countryFlag,omitempty"`
}

type Booking struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	NumNights    int       `json:"numNights"`
	NumGuests    int       `json:"numGuests"`
	Status       string    `json:"status"`
	TotalPrice   float64   `json:"totalPrice"`
	ExtrasPrice  float64   `json:"extrasPrice"`
	IsPaid       bool      `json:"isPaid"`
	HasBreakfast bool      `json:"hasBreakfast"`
	Observations string    `json:"observations,omitempty"`
	Cabin        *Cabin    `json:"cabins,omitempty"`
	Guest        *Guest    `json:"guests,omitempty"`
}

// SalesRecord is the thin projection the sales chart needs.
type SalesRecord struct {
	CreatedAt   time.Time `json:"created_at"`
	TotalPrice  float64   `json:"totalPrice"`
	ExtrasPrice float64   `json:"extrasPrice"`
}

// Descriptor identifies one logical list query. It doubles as the cache key
// source: equal descriptors address the same cache entry.
type Descriptor struct {
	// Filter, when non-nil, restricts the rows. Nil means every row.
	Filter *gateway.Filter
	// Sort orders the rows by exactly one field.
	Sort gateway.Sort
	// Page restricts to a fixed-size window when >= 1; 0 means unrestricted.
	Page int
}

// CacheKey serializes the descriptor into the key addressing its results.
func (d Descriptor) CacheKey() string {
	filter := "none"
	if d.Filter != nil {
		filter = d.Filter.Field + "." + d.Filter.Op.String() + "." + d.Filter.Value
	}
	return fmt.Sprintf("bookings|filter=%s|sort=%s|page=%d", filter, d.Sort.Field+sortSuffix(d.Sort), d.Page)
}

func sortSuffix(s gateway.Sort) string {
	if s.Descending {
		return ".desc"
	}
	return ".asc"
}

type Repository struct {
	gw       *gateway.Client
	log      *zap.Logger
	pageSize int
}

func NewRepository(gw *gateway.Client, log *zap.Logger, pageSize int) *Repository {
	return &Repository{gw: gw, log: log, pageSize: pageSize}
}

// PageSize is the fixed window size used by List and by prefetch arithmetic.
func (r *Repository) PageSize() int { return r.pageSize }

// List fetches the rows selected by d along with the exact total count.
func (r *Repository) List(ctx context.Context, d Descriptor) ([]Booking, int, error) {
	q := gateway.Query{
		Columns:    listColumns,
		ExactCount: true,
	}
	if d.Sort.Field != "" {
		q.Sort = &d.Sort
	}
	if d.Filter != nil {
		q.Filters = []gateway.Filter{*d.Filter}
	}
	if d.Page >= 1 {
		from := (d.Page - 1) * r.pageSize
		q.Range = &gateway.Range{From: from, To: from + r.pageSize - 1}
	}

	rs, err := r.gw.QueryRows(ctx, "", table, q)
	if err != nil {
		r.log.Error("list bookings failed", zap.String("key", d.CacheKey()), zap.Error(err))
		return nil, 0, ErrCouldNotLoad
	}
	rows, err := decodeRows[Booking](rs.Rows)
	if err != nil {
		r.log.Error("decode bookings failed", zap.Error(err))
		return nil, 0, ErrCouldNotLoad
	}
	return rows, rs.Count, nil
}

// Get fetches a single booking with all nested relations expanded. A missing
// id is terminal; callers must not retry. Gateway outages are not misses and
// surface as a load failure instead.
func (r *Repository) Get(ctx context.Context, id int64) (*Booking, error) {
	raw, err := r.gw.GetRow(ctx, "", table, detailColumns, id)
	if err != nil {
		r.log.Error("get booking failed", zap.Int64("id", id), zap.Error(err))
		if gateway.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, ErrCouldNotLoad
	}
	var b Booking
	if err := json.Unmarshal(raw, &b); err != nil {
		r.log.Error("decode booking failed", zap.Int64("id", id), zap.Error(err))
		return nil, ErrCouldNotLoad
	}
	return &b, nil
}

// Update applies a partial update and returns the updated row.
func (r *Repository) Update(ctx context.Context, id int64, patch map[string]any) (*Booking, error) {
	raw, err := r.gw.UpdateRow(ctx, "", table, id, patch)
	if err != nil {
		r.log.Error("update booking failed", zap.Int64("id", id), zap.Error(err))
		return nil, ErrCouldNotUpdate
	}
	var b Booking
	if err := json.Unmarshal(raw, &b); err != nil {
		r.log.Error("decode updated booking failed", zap.Int64("id", id), zap.Error(err))
		return nil, ErrCouldNotUpdate
	}
	return &b, nil
}

// Delete removes the booking.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.gw.DeleteRow(ctx, "", table, id); err != nil {
		r.log.Error("delete booking failed", zap.Int64("id", id), zap.Error(err))
		return ErrCouldNotDelete
	}
	return nil
}

// CreatedSince returns the sales projection of bookings created between date
// and the end of today.
func (r *Repository) CreatedSince(ctx context.Context, date time.Time) ([]SalesRecord, error) {
	q := gateway.Query{
		Columns: salesColumns,
		Filters: []gateway.Filter{
			{Field: "created_at", Op: gateway.OpGreaterOrEqual, Value: date.UTC().Format(time.RFC3339)},
			{Field: "created_at", Op: gateway.OpLessOrEqual, Value: endOfToday().Format(time.RFC3339)},
		},
	}
	rs, err := r.gw.QueryRows(ctx, "", table, q)
	if err != nil {
		r.log.Error("list recent bookings failed", zap.Error(err))
		return nil, ErrCouldNotLoad
	}
	rows, err := decodeRows[SalesRecord](rs.Rows)
	if err != nil {
		r.log.Error("decode recent bookings failed", zap.Error(err))
		return nil, ErrCouldNotLoad
	}
	return rows, nil
}

// StaysSince returns bookings whose stay starts between date and today.
func (r *Repository) StaysSince(ctx context.Context, date time.Time) ([]Booking, error) {
	q := gateway.Query{
		Columns: staysColumns,
		Filters: []gateway.Filter{
			{Field: "startDate", Op: gateway.OpGreaterOrEqual, Value: date.Format(time.DateOnly)},
			{Field: "startDate", Op: gateway.OpLessOrEqual, Value: time.Now().Format(time.DateOnly)},
		},
	}
	rs, err := r.gw.QueryRows(ctx, "", table, q)
	if err != nil {
		r.log.Error("list recent stays failed", zap.Error(err))
		return nil, ErrCouldNotLoad
	}
	rows, err := decodeRows[Booking](rs.Rows)
	if err != nil {
		r.log.Error("decode recent stays failed", zap.Error(err))
		return nil, ErrCouldNotLoad
	}
	return rows, nil
}

// TodayActivity returns guests arriving today (unconfirmed) or departing
// today (checked in), oldest booking first.
func (r *Repository) TodayActivity(ctx context.Context) ([]Booking, error) {
	today := time.Now().Format(time.DateOnly)
	q := gateway.Query{
		Columns: activityColumns,
		AnyOf: [][]gateway.Filter{
			{
				{Field: "status", Op: gateway.OpEquals, Value: StatusUnconfirmed},
				{Field: "startDate", Op: gateway.OpEquals, Value: today},
			},
			{
				{Field: "status", Op: gateway.OpEquals, Value: StatusCheckedIn},
				{Field: "endDate", Op: gateway.OpEquals, Value: today},
			},
		},
		Sort: &gateway.Sort{Field: "created_at"},
	}
	rs, err := r.gw.QueryRows(ctx, "", table, q)
	if err != nil {
		r.log.Error("list today activity failed", zap.Error(err))
		return nil, ErrCouldNotLoad
	}
	rows, err := decodeRows[Booking](rs.Rows)
	if err != nil {
		r.log.Error("decode today activity failed", zap.Error(err))
		return nil, ErrCouldNotLoad
	}
	return rows, nil
}


func endOfToday() time.Time {
	now := time.Now().UTC()
	y, m, d := now.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

func decodeRows[T any](raw []json.RawMessage) ([]T, error) {
	rows := make([]T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, err
		}
		rows = append(rows, v)
	}
	return rows, nil
}
