package bookings

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oasisline/backoffice/internal/gateway"
)

func newTestRepo(t *testing.T, handler http.HandlerFunc) *Repository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	gw := gateway.NewClient(srv.URL, "test-key", 5*time.Second, zap.NewNop())
	return NewRepository(gw, zap.NewNop(), 10)
}

func TestListBuildsGatewayQuery(t *testing.T) {
	var gotQuery map[string][]string
	var gotRange, gotPrefer string
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotRange = r.Header.Get("Range")
		gotPrefer = r.Header.Get("Prefer")
		w.Header().Set("Content-Range", "10-19/25")
		fmt.Fprint(w, `[{"id":11,"status":"checked-in","numNights":3},{"id":12,"status":"checked-in","numNights":2}]`)
	})

	d := Descriptor{
		Filter: &gateway.Filter{Field: "status", Op: gateway.OpEquals, Value: StatusCheckedIn},
		Sort:   gateway.Sort{Field: "startDate", Descending: true},
		Page:   2,
	}
	rows, count, err := repo.List(context.Background(), d)

	require.NoError(t, err)
	assert.Equal(t, 25, count)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(11), rows[0].ID)

	assert.Equal(t, []string{"eq.checked-in"}, gotQuery["status"])
	assert.Equal(t, []string{"startDate.desc"}, gotQuery["order"])
	assert.Equal(t, "10-19", gotRange)
	assert.Equal(t, "count=exact", gotPrefer)
}

func TestListWithoutFilterOrPage(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query()["status"])
		assert.Empty(t, r.Header.Get("Range"))
		w.Header().Set("Content-Range", "0-2/3")
		fmt.Fprint(w, `[{"id":1},{"id":2},{"id":3}]`)
	})

	rows, count, err := repo.List(context.Background(), Descriptor{Sort: gateway.Sort{Field: "startDate", Descending: true}})

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Len(t, rows, 3)
}

func TestListWithoutSortSendsNoOrder(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query()["order"])
		w.Header().Set("Content-Range", "0-0/1")
		fmt.Fprint(w, `[{"id":1}]`)
	})

	_, _, err := repo.List(context.Background(), Descriptor{})
	require.NoError(t, err)
}

func TestListGatewayFailureYieldsDomainError(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusForbidden)
	})

	_, _, err := repo.List(context.Background(), Descriptor{Sort: gateway.Sort{Field: "startDate"}})

	require.ErrorIs(t, err, ErrCouldNotLoad)
	assert.NotContains(t, err.Error(), "permission denied", "gateway diagnostics must not leak")
}

func TestGetExpandsRelations(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"eq.7"}, r.URL.Query()["id"])
		assert.Equal(t, "*,cabins(*),guests(*)", r.URL.Query().Get("select"))
		fmt.Fprint(w, `{"id":7,"status":"unconfirmed","cabins":{"name":"001"},"guests":{"fullName":"Jonas Mock","email":"jonas@example.com"}}`)
	})

	b, err := repo.Get(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, int64(7), b.ID)
	require.NotNil(t, b.Cabin)
	assert.Equal(t, "001", b.Cabin.Name)
	require.NotNil(t, b.Guest)
	assert.Equal(t, "Jonas Mock", b.Guest.FullName)
}

func TestGetMissYieldsNotFound(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"JSON object requested, multiple (or no) rows returned"}`, http.StatusNotAcceptable)
	})

	_, err := repo.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetGatewayOutageIsNotAMiss(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"connection refused"}`, http.StatusInternalServerError)
	})

	_, err := repo.Get(context.Background(), 7)
	require.ErrorIs(t, err, ErrCouldNotLoad)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestUpdateReturnsUpdatedRow(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		fmt.Fprint(w, `{"id":7,"status":"checked-in","isPaid":true}`)
	})

	b, err := repo.Update(context.Background(), 7, map[string]any{"status": StatusCheckedIn, "isPaid": true})

	require.NoError(t, err)
	assert.Equal(t, StatusCheckedIn, b.Status)
	assert.True(t, b.IsPaid)
}

func TestUpdateFailureYieldsDomainError(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"violates check constraint"}`, http.StatusBadRequest)
	})

	_, err := repo.Update(context.Background(), 7, map[string]any{"status": "nonsense"})
	require.ErrorIs(t, err, ErrCouldNotUpdate)
}

func TestDeleteFailureYieldsDomainError(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"gone"}`, http.StatusInternalServerError)
	})

	err := repo.Delete(context.Background(), 7)
	require.ErrorIs(t, err, ErrCouldNotDelete)
}

func TestCreatedSinceFiltersOnCreationWindow(t *testing.T) {
	since := time.Now().AddDate(0, 0, -7)
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		created := r.URL.Query()["created_at"]
		require.Len(t, created, 2)
		assert.Equal(t, "gte."+since.UTC().Format(time.RFC3339), created[0])
		assert.Contains(t, created[1], "lte.")
		fmt.Fprint(w, `[{"created_at":"2026-08-30T10:00:00Z","totalPrice":350,"extrasPrice":50}]`)
	})

	rows, err := repo.CreatedSince(context.Background(), since)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 350.0, rows[0].TotalPrice)
	assert.Equal(t, 50.0, rows[0].ExtrasPrice)
}

func TestTodayActivityQueriesArrivalsAndDepartures(t *testing.T) {
	today := time.Now().Format(time.DateOnly)
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		or := r.URL.Query().Get("or")
		assert.Equal(t, fmt.Sprintf("(and(status.eq.unconfirmed,startDate.eq.%s),and(status.eq.checked-in,endDate.eq.%s))", today, today), or)
		assert.Equal(t, "created_at.asc", r.URL.Query().Get("order"))
		fmt.Fprint(w, `[]`)
	})

	rows, err := repo.TodayActivity(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDescriptorCacheKey(t *testing.T) {
	base := Descriptor{Sort: gateway.Sort{Field: "startDate", Descending: true}, Page: 1}
	filtered := Descriptor{
		Filter: &gateway.Filter{Field: "status", Op: gateway.OpEquals, Value: StatusCheckedIn},
		Sort:   gateway.Sort{Field: "startDate", Descending: true},
		Page:   1,
	}
	nextPage := base
	nextPage.Page = 2

	assert.Equal(t, base.CacheKey(), Descriptor{Sort: base.Sort, Page: 1}.CacheKey(), "equal descriptors share a key")
	assert.NotEqual(t, base.CacheKey(), filtered.CacheKey())
	assert.NotEqual(t, base.CacheKey(), nextPage.CacheKey())
}
