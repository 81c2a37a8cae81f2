// Package pagination implements the paginated-query helpers shared by the
// listing repositories: option normalisation, whitelisted sorting, WHERE
// clause assembly and page arithmetic.
package pagination

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
)

const (
	DefaultLimit = 10
	DefaultPage  = 1
	MaxLimit     = 100
)

// Options are the client-controlled listing options.
//
// SortBy is a comma-separated list of "field:asc" or "field:desc" entries;
// an entry without a direction sorts ascending.
type Options struct {
	SortBy string
	Limit  int
	Page   int
}

// Normalize fills in default limit and page for non-positive values and
// caps the limit at MaxLimit.
func (o Options) Normalize() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Page <= 0 {
		o.Page = DefaultPage
	}
	return o
}

// Offset returns the row offset of the requested page, saturating at
// math.MaxInt. Options must be normalised.
func (o Options) Offset() int {
	if o.Page-1 > math.MaxInt/o.Limit {
		return math.MaxInt
	}
	return (o.Page - 1) * o.Limit
}

// OrderBy translates SortBy into an ORDER BY clause. columns maps the
// client-facing field names to SQL columns; unknown fields are rejected.
// An empty SortBy orders by the "createdAt" column ascending. The "id"
// column is always appended as a tie-breaker so pages are stable.
func OrderBy(sortBy string, columns map[string]string) (string, error) {
	idCol := columnOr(columns, "id", "id")
	if strings.TrimSpace(sortBy) == "" {
		return "ORDER BY " + columnOr(columns, "createdAt", "created_at") + " ASC, " + idCol + " ASC", nil
	}

	parts := strings.Split(sortBy, ",")
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		field, dir, _ := strings.Cut(strings.TrimSpace(p), ":")
		col, ok := columns[field]
		if !ok {
			return "", common.NewError(common.ErrorValidation, fmt.Sprintf("cannot sort by %q", field))
		}
		switch strings.ToLower(dir) {
		case "", "asc":
			terms = append(terms, col+" ASC")
		case "desc":
			terms = append(terms, col+" DESC")
		default:
			return "", common.NewError(common.ErrorValidation, fmt.Sprintf("invalid sort direction %q", dir))
		}
	}
	terms = append(terms, idCol+" ASC")
	return "ORDER BY " + strings.Join(terms, ", "), nil
}

func columnOr(columns map[string]string, field, fallback string) string {
	if c, ok := columns[field]; ok {
		return c
	}
	return fallback
}

// Where accumulates equality predicates with positional parameters.
type Where struct {
	clauses []string
	args    []any
}

// Eq adds "column = $n".
func (w *Where) Eq(column string, value any) {
	w.args = append(w.args, value)
	w.clauses = append(w.clauses, column+" = $"+strconv.Itoa(len(w.args)))
}

// SQL returns the WHERE clause (with a leading space) or "" when empty.
func (w *Where) SQL() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// Args returns the accumulated parameters.
func (w *Where) Args() []any {
	return w.args
}

// Next returns the index of the next positional parameter.
func (w *Where) Next() int {
	return len(w.args) + 1
}

// NewPage assembles a page. Options must be normalised.
func NewPage[T any](results []T, total int, o Options) *models.Page[T] {
	if results == nil {
		results = []T{}
	}
	pages := total / o.Limit
	if total%o.Limit != 0 {
		pages++
	}
	return &models.Page[T]{
		Results:      results,
		Page:         o.Page,
		Limit:        o.Limit,
		TotalPages:   pages,
		TotalResults: total,
	}
}
