package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// FilterOp is the closed set of row comparison operators this layer ever
// sends. The gateway accepts more, but everything outside this set is a bug
// here, so the mapping is explicit instead of passing operator names through.
type FilterOp int

const (
	OpEquals FilterOp = iota
	OpNotEquals
	OpGreaterThan
	OpGreaterOrEqual
	OpLessThan
	OpLessOrEqual
)

func (op FilterOp) apiName() string {
	switch op {
	case OpEquals:
		return "eq"
	case OpNotEquals:
		return "neq"
	case OpGreaterThan:
		return "gt"
	case OpGreaterOrEqual:
		return "gte"
	case OpLessThan:
		return "lt"
	case OpLessOrEqual:
		return "lte"
	}
	return "eq"
}

func (op FilterOp) String() string { return op.apiName() }

// Filter is one field comparison. Field and Value are opaque to this layer.
type Filter struct {
	Field string
	Op    FilterOp
	Value string
}

func (f Filter) encode() string { return f.Op.apiName() + "." + f.Value }

// condition is the filter rendered inside an or=(...) group, where the field
// name is part of the expression rather than the query key.
func (f Filter) condition() string { return f.Field + "." + f.Op.apiName() + "." + f.Value }

// Sort is a single-field ordering.
type Sort struct {
	Field      string
	Descending bool
}

func (s Sort) encode() string {
	if s.Descending {
		return s.Field + ".desc"
	}
	return s.Field + ".asc"
}

// Range is an inclusive zero-based row window.
type Range struct {
	From int
	To   int
}

// Query describes one row-set request.
type Query struct {
	// Columns is the select list, including nested relation expansion,
	// e.g. "id, created_at, cabins(name)". Empty means all columns.
	Columns string
	// Filters are ANDed together.
	Filters []Filter
	// AnyOf, when non-empty, adds an OR across groups of ANDed filters.
	AnyOf [][]Filter
	// Sort, when non-nil, orders the result by exactly one field.
	Sort *Sort
	// Range, when non-nil, restricts the result to a row window.
	Range *Range
	// ExactCount asks the gateway to report the total row count for the
	// query ignoring Range.
	ExactCount bool
}

func (q Query) values() url.Values {
	v := url.Values{}
	cols := q.Columns
	if cols == "" {
		cols = "*"
	}
	v.Set("select", cols)
	for _, f := range q.Filters {
		v.Add(f.Field, f.encode())
	}
	if len(q.AnyOf) > 0 {
		groups := make([]string, 0, len(q.AnyOf))
		for _, group := range q.AnyOf {
			conds := make([]string, 0, len(group))
			for _, f := range group {
				conds = append(conds, f.condition())
			}
			groups = append(groups, "and("+strings.Join(conds, ",")+")")
		}
		v.Set("or", "("+strings.Join(groups, ",")+")")
	}
	if q.Sort != nil {
		v.Set("order", q.Sort.encode())
	}
	return v
}

// RowSet is the result of a QueryRows call. Rows stay as raw JSON; decoding
// into domain types is the caller's business.
type RowSet struct {
	Rows  []json.RawMessage
	Count int
}

// QueryRows fetches the rows matching q from table. When q.ExactCount is set,
// the returned Count is the total match count ignoring any Range; otherwise
// Count is -1.
func (c *Client) QueryRows(ctx context.Context, token, table string, q Query) (*RowSet, error) {
	opts := requestOpts{token: token, headers: map[string]string{}}
	if q.ExactCount {
		opts.headers["Prefer"] = "count=exact"
	}
	if q.Range != nil {
		opts.headers["Range-Unit"] = "items"
		opts.headers["Range"] = fmt.Sprintf("%d-%d", q.Range.From, q.Range.To)
	}

	resp, err := c.do(ctx, http.MethodGet, "/rest/v1/"+table+"?"+q.values().Encode(), nil, opts)
	if err != nil {
		return nil, err
	}

	var rows []json.RawMessage
	if err := resp.decode(&rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	count := -1
	if q.ExactCount {
		count = parseContentRangeTotal(resp.header.Get("Content-Range"))
	}
	return &RowSet{Rows: rows, Count: count}, nil
}

// GetRow fetches exactly one row by id with the given select list. The
// gateway fails the request when zero or more than one row matches.
func (c *Client) GetRow(ctx context.Context, token, table, columns string, id int64) (json.RawMessage, error) {
	v := url.Values{}
	if columns == "" {
		columns = "*"
	}
	v.Set("select", columns)
	v.Set("id", "eq."+strconv.FormatInt(id, 10))

	opts := requestOpts{token: token, headers: map[string]string{
		"Accept": "application/vnd.pgrst.object+json",
	}}
	resp, err := c.do(ctx, http.MethodGet, "/rest/v1/"+table+"?"+v.Encode(), nil, opts)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.body), nil
}

// UpdateRow applies a partial update to the row with the given id and returns
// the updated row.
func (c *Client) UpdateRow(ctx context.Context, token, table string, id int64, patch map[string]any) (json.RawMessage, error) {
	v := url.Values{}
	v.Set("id", "eq."+strconv.FormatInt(id, 10))

	opts := requestOpts{token: token, headers: map[string]string{
		"Prefer": "return=representation",
		"Accept": "application/vnd.pgrst.object+json",
	}}
	resp, err := c.do(ctx, http.MethodPatch, "/rest/v1/"+table+"?"+v.Encode(), patch, opts)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.body), nil
}

// DeleteRow removes the row with the given id.
func (c *Client) DeleteRow(ctx context.Context, token, table string, id int64) error {
	v := url.Values{}
	v.Set("id", "eq."+strconv.FormatInt(id, 10))
	_, err := c.do(ctx, http.MethodDelete, "/rest/v1/"+table+"?"+v.Encode(), nil, requestOpts{token: token})
	return err
}

// parseContentRangeTotal extracts the total from a "0-9/25" style header.
// Returns -1 when the total is absent or unparseable.
func parseContentRangeTotal(h string) int {
	_, total, found := strings.Cut(h, "/")
	if !found || total == "*" {
		return -1
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return -1
	}
	return n
}
