package sapb1

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Query Builder
// ---------------------------------------------------------------------------

// Query accumulates OData-style query state and renders it with Build().
// Calls can come in any order; nothing is evaluated until Build.
type Query struct {
	selects []string
	filters []string
	expands []string
	orderBy []string
	top     *int
	skip    *int
	count   bool
}

// NewQuery creates an empty query builder.
func NewQuery() *Query {
	return &Query{}
}

// Select adds fields to $select, skipping duplicates.
func (q *Query) Select(fields ...string) *Query {
	for _, f := range fields {
		dup := false
		for _, existing := range q.selects {
			if existing == f {
				dup = true
				break
			}
		}
		if !dup {
			q.selects = append(q.selects, f)
		}
	}
	return q
}

// Expand adds relations to $expand.
func (q *Query) Expand(relations ...string) *Query {
	q.expands = append(q.expands, relations...)
	return q
}

// OrderBy adds an $orderby clause. Direction is "asc" or "desc".
func (q *Query) OrderBy(field, direction string) *Query {
	q.orderBy = append(q.orderBy, field+" "+direction)
	return q
}

// Limit sets $top.
func (q *Query) Limit(n int) *Query {
	q.top = &n
	return q
}

// Offset sets $skip.
func (q *Query) Offset(n int) *Query {
	q.skip = &n
	return q
}

// Paginate is a convenience over Limit/Offset: page is 1-indexed and the
// offset is derived as (page-1)*perPage.
func (q *Query) Paginate(page, perPage int) *Query {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage
	q.top = &perPage
	q.skip = &offset
	return q
}

// WithCount requests the total collection count alongside the page.
func (q *Query) WithCount() *Query {
	q.count = true
	return q
}

// ---------------------------------------------------------------------------
// Filter Predicates
// ---------------------------------------------------------------------------

// WhereEquals adds "field eq literal".
func (q *Query) WhereEquals(field string, value any) *Query {
	return q.where(field, "eq", value)
}

// WhereNotEquals adds "field ne literal".
func (q *Query) WhereNotEquals(field string, value any) *Query {
	return q.where(field, "ne", value)
}

// WhereGreater adds "field gt literal".
func (q *Query) WhereGreater(field string, value any) *Query {
	return q.where(field, "gt", value)
}

// WhereGreaterOrEqual adds "field ge literal".
func (q *Query) WhereGreaterOrEqual(field string, value any) *Query {
	return q.where(field, "ge", value)
}

// WhereLess adds "field lt literal".
func (q *Query) WhereLess(field string, value any) *Query {
	return q.where(field, "lt", value)
}

// WhereLessOrEqual adds "field le literal".
func (q *Query) WhereLessOrEqual(field string, value any) *Query {
	return q.where(field, "le", value)
}

// WhereContains adds a substring predicate.
func (q *Query) WhereContains(field, value string) *Query {
	q.filters = append(q.filters, fmt.Sprintf("contains(%s, %s)", field, quoteString(value)))
	return q
}

// WhereStartsWith adds a prefix predicate.
func (q *Query) WhereStartsWith(field, value string) *Query {
	q.filters = append(q.filters, fmt.Sprintf("startswith(%s, %s)", field, quoteString(value)))
	return q
}

// WhereEndsWith adds a suffix predicate.
func (q *Query) WhereEndsWith(field, value string) *Query {
	q.filters = append(q.filters, fmt.Sprintf("endswith(%s, %s)", field, quoteString(value)))
	return q
}

// WhereIn expands to OR'd equals predicates wrapped in parentheses:
// "(field eq v1 or field eq v2 ...)". An empty value list adds nothing.
func (q *Query) WhereIn(field string, values []string) *Query {
	if len(values) == 0 {
		return q
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%s eq %s", field, quoteString(v)))
	}
	q.filters = append(q.filters, "("+strings.Join(parts, " or ")+")")
	return q
}

func (q *Query) where(field, op string, value any) *Query {
	q.filters = append(q.filters, fmt.Sprintf("%s %s %s", field, op, renderLiteral(value)))
	return q
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// Build renders the accumulated state into query parameters, omitting any
// clause with no accumulated state.
func (q *Query) Build() url.Values {
	params := url.Values{}
	if len(q.selects) > 0 {
		params.Set("$select", strings.Join(q.selects, ","))
	}
	if len(q.filters) > 0 {
		params.Set("$filter", strings.Join(q.filters, " and "))
	}
	if len(q.expands) > 0 {
		params.Set("$expand", strings.Join(q.expands, ","))
	}
	if len(q.orderBy) > 0 {
		params.Set("$orderby", strings.Join(q.orderBy, ","))
	}
	if q.top != nil {
		params.Set("$top", strconv.Itoa(*q.top))
	}
	if q.skip != nil {
		params.Set("$skip", strconv.Itoa(*q.skip))
	}
	if q.count {
		params.Set("$count", "true")
	}
	return params
}

// renderLiteral renders a filter literal. Only strings are quoted; numeric,
// boolean and date literals render bare.
func renderLiteral(value any) string {
	switch v := value.(type) {
	case string:
		return quoteString(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case decimal.Decimal:
		return v.String()
	case time.Time:
		return v.Format("2006-01-02")
	case fmt.Stringer:
		return quoteString(v.String())
	default:
		return quoteString(fmt.Sprintf("%v", v))
	}
}

// quoteString single-quotes a string literal, doubling embedded quotes.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// EntityByStringKey builds an entity path with a single-quoted string key,
// e.g. Items('SKU-1').
func EntityByStringKey(entity, key string) string {
	return entity + "(" + quoteString(key) + ")"
}

// EntityByIntKey builds an entity path with a bare numeric key,
// e.g. Orders(123).
func EntityByIntKey(entity string, key int64) string {
	return entity + "(" + strconv.FormatInt(key, 10) + ")"
}
