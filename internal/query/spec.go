// Package query turns raw request parameters into a typed Query
// Specification and renders it as parameterized SQL fragments.
package query

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"tourbook/internal/domain"
)

// Op is a comparison operator on a filter.
type Op int

const (
	OpEq Op = iota
	OpGTE
	OpGT
	OpLTE
	OpLT
)

// SQL returns the operator's SQL form.
func (o Op) SQL() string {
	switch o {
	case OpGTE:
		return ">="
	case OpGT:
		return ">"
	case OpLTE:
		return "<="
	case OpLT:
		return "<"
	default:
		return "="
	}
}

var opNames = map[string]Op{
	"gte": OpGTE,
	"gt":  OpGT,
	"lte": OpLTE,
	"lt":  OpLT,
}

// Filter is one comparison against a column.
type Filter struct {
	Column string
	Op     Op
	Value  string
}

// SortKey orders results by one column.
type SortKey struct {
	Column string
	Desc   bool
}

// Allowed is the per-resource mapping from API field names to SQL columns.
// Any parameter naming a field outside the map is rejected, which keeps
// column names from ever being caller-controlled.
type Allowed struct {
	Fields      map[string]string
	DefaultSort []SortKey
}

const (
	// DefaultLimit applies when the limit parameter is absent or not a
	// positive integer; DefaultPage likewise for page.
	DefaultLimit = 100
	DefaultPage  = 1
)

// Spec is the parsed, immutable query intent: filters, sort order,
// projection and pagination.
type Spec struct {
	Filters []Filter
	Sort    []SortKey
	Fields  []string
	Page    int
	Limit   int

	// PageSet records that the caller supplied page explicitly; only then
	// is the out-of-range page check performed.
	PageSet bool
}

var reserved = map[string]bool{
	"sort":   true,
	"page":   true,
	"limit":  true,
	"fields": true,
}

// ParseSpec builds a Spec from request parameters. Every non-reserved
// parameter becomes a filter; `name[gte]`-style keys carry a comparison
// operator. Unknown field names are a client error.
func ParseSpec(values url.Values, allowed Allowed) (Spec, error) {
	spec := Spec{Page: DefaultPage, Limit: DefaultLimit}

	for key, vals := range values {
		if reserved[key] {
			continue
		}
		name, op := splitOperator(key)
		column, ok := allowed.Fields[name]
		if !ok {
			return Spec{}, domain.BadRequest(fmt.Sprintf("Unknown filter field: %s", name))
		}
		for _, v := range vals {
			spec.Filters = append(spec.Filters, Filter{Column: column, Op: op, Value: v})
		}
	}
	// url.Values is a map; fix the ordering so rendered SQL is stable.
	sort.Slice(spec.Filters, func(i, j int) bool {
		if spec.Filters[i].Column != spec.Filters[j].Column {
			return spec.Filters[i].Column < spec.Filters[j].Column
		}
		return spec.Filters[i].Op < spec.Filters[j].Op
	})

	if raw := values.Get("sort"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			desc := strings.HasPrefix(part, "-")
			name := strings.TrimPrefix(part, "-")
			column, ok := allowed.Fields[name]
			if !ok {
				return Spec{}, domain.BadRequest(fmt.Sprintf("Unknown sort field: %s", name))
			}
			spec.Sort = append(spec.Sort, SortKey{Column: column, Desc: desc})
		}
	}
	if len(spec.Sort) == 0 {
		spec.Sort = allowed.DefaultSort
		if len(spec.Sort) == 0 {
			spec.Sort = []SortKey{{Column: "created_at", Desc: true}}
		}
	}

	if raw := values.Get("fields"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := allowed.Fields[part]; !ok {
				return Spec{}, domain.BadRequest(fmt.Sprintf("Unknown projection field: %s", part))
			}
			spec.Fields = append(spec.Fields, part)
		}
	}

	if raw := values.Get("page"); raw != "" {
		spec.PageSet = true
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			spec.Page = n
		}
	}
	if raw := values.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			spec.Limit = n
		}
	}

	return spec, nil
}

// splitOperator parses "price[gte]" into ("price", OpGTE). Keys without a
// recognized bracket suffix are plain equality.
func splitOperator(key string) (string, Op) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, OpEq
	}
	name := key[:open]
	if op, ok := opNames[key[open+1:len(key)-1]]; ok {
		return name, op
	}
	return key, OpEq
}

// Conditions renders the filters as SQL conditions with matching args, ready
// to be ANDed with the repository's own base conditions.
func (s Spec) Conditions() ([]string, []any) {
	conds := make([]string, 0, len(s.Filters))
	args := make([]any, 0, len(s.Filters))
	for _, f := range s.Filters {
		conds = append(conds, fmt.Sprintf("%s %s ?", f.Column, f.Op.SQL()))
		args = append(args, f.Value)
	}
	return conds, args
}

// OrderClause renders the sort keys, e.g. "ORDER BY price DESC, name ASC".
func (s Spec) OrderClause() string {
	if len(s.Sort) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.Sort))
	for _, k := range s.Sort {
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts = append(parts, k.Column+" "+dir)
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

// Skip is the row offset implied by page and limit.
func (s Spec) Skip() int {
	return (s.Page - 1) * s.Limit
}

// LimitClause renders "LIMIT ? OFFSET ?" args alongside the fragment.
func (s Spec) LimitClause() (string, []any) {
	return "LIMIT ? OFFSET ?", []any{s.Limit, s.Skip()}
}

// Project reduces v to the requested fields. With no projection requested,
// v passes through untouched; otherwise it is flattened to a map keeping the
// chosen fields plus id. Field names follow the API (json) naming.
func (s Spec) Project(v any) any {
	if len(s.Fields) == 0 {
		return v
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var full map[string]any
	if err := json.Unmarshal(raw, &full); err != nil {
		return v
	}
	keep := map[string]any{}
	if id, ok := full["id"]; ok {
		keep["id"] = id
	}
	for _, f := range s.Fields {
		if val, ok := full[f]; ok {
			keep[f] = val
		}
	}
	return keep
}

// ProjectAll applies Project across a slice.
func ProjectAll[T any](s Spec, docs []T) []any {
	out := make([]any, 0, len(docs))
	for _, d := range docs {
		out = append(out, s.Project(d))
	}
	return out
}
