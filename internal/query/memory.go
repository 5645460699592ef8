package query

import (
	"sort"
	"strings"
)

// Less orders two values.
type Less[T any] func(a, b T) bool

// Query is a composable in-memory filter, sort and paging pipeline.
// Predicates are conjunctive: an item must satisfy all of them.
type Query[T any] struct {
	preds  []func(T) bool
	less   Less[T]
	then   Less[T]
	desc   bool
	offset int
	limit  int
}

// New starts an empty query.
func New[T any]() *Query[T] {
	return &Query[T]{}
}

// Where adds a predicate.
func (q *Query[T]) Where(pred func(T) bool) *Query[T] {
	q.preds = append(q.preds, pred)
	return q
}

// WhereIf adds pred only when cond holds, for optional filters.
func (q *Query[T]) WhereIf(cond bool, pred func(T) bool) *Query[T] {
	if cond {
		q.preds = append(q.preds, pred)
	}
	return q
}

// Search keeps items where any field contains term, case-insensitively. Empty term matches all.
func (q *Query[T]) Search(term string, fields func(T) []string) *Query[T] {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return q
	}
	return q.Where(func(v T) bool {
		for _, f := range fields(v) {
			if strings.Contains(strings.ToLower(f), term) {
				return true
			}
		}
		return false
	})
}

// OrderBy sets the sort order.
func (q *Query[T]) OrderBy(less Less[T]) *Query[T] {
	q.less = less
	return q
}

// Sort picks the sorter named by p.Sort (or def when unknown) and applies p's direction.
func (q *Query[T]) Sort(p ListParams, sorters map[string]Less[T], def string) *Query[T] {
	less, ok := sorters[p.Sort]
	if !ok {
		less = sorters[def]
	}
	if less == nil {
		return q
	}
	q.desc = p.Desc()
	if q.desc {
		return q.OrderBy(func(a, b T) bool { return less(b, a) })
	}
	return q.OrderBy(less)
}

// ThenBy breaks ties left by the sort order, following the direction chosen in Sort.
func (q *Query[T]) ThenBy(less Less[T]) *Query[T] {
	q.then = less
	return q
}

// Page slices the sorted result. limit <= 0 keeps everything after offset.
func (q *Query[T]) Page(offset, limit int) *Query[T] {
	q.offset, q.limit = offset, limit
	return q
}

// Paged is Page with the offset and limit of p.
func (q *Query[T]) Paged(p ListParams) *Query[T] {
	return q.Page(p.Offset, p.Limit)
}

// Apply runs the pipeline and returns the page and the number of matches before paging.
func (q *Query[T]) Apply(items []T) ([]T, int) {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if q.match(it) {
			out = append(out, it)
		}
	}
	if q.less != nil {
		sort.SliceStable(out, func(i, j int) bool { return q.before(out[i], out[j]) })
	}
	total := len(out)
	start := q.offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if q.limit > 0 && start+q.limit < end {
		end = start + q.limit
	}
	return out[start:end], total
}

func (q *Query[T]) before(a, b T) bool {
	switch {
	case q.less(a, b):
		return true
	case q.less(b, a) || q.then == nil:
		return false
	case q.desc:
		return q.then(b, a)
	default:
		return q.then(a, b)
	}
}

func (q *Query[T]) match(v T) bool {
	for _, p := range q.preds {
		if !p(v) {
			return false
		}
	}
	return true
}

// EqualFold reports whether want is empty or equals got ignoring case.
func EqualFold(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}

// BoolEq reports whether want is unset or equals got.
func BoolEq(want *bool, got bool) bool {
	return want == nil || *want == got
}

// ContainsFold reports whether want is empty or present in list ignoring case.
func ContainsFold(list []string, want string) bool {
	if want == "" {
		return true
	}
	for _, s := range list {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
