package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct {
	Name  string
	Kind  string
	Score int
}

var items = []item{
	{Name: "Intro to Go", Kind: "video", Score: 3},
	{Name: "Advanced Go", Kind: "video", Score: 9},
	{Name: "Live Q&A", Kind: "live", Score: 5},
	{Name: "Go Concurrency", Kind: "live", Score: 7},
}

var sorters = map[string]Less[item]{
	"score": func(a, b item) bool { return a.Score < b.Score },
	"name":  func(a, b item) bool { return a.Name < b.Name },
}

func TestNormalizeDefaults(t *testing.T) {
	p := ListParams{Limit: 500, Offset: -3, Order: "ASC", Sort: " Score "}.Normalize()
	assert.Equal(t, MaxLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, OrderAsc, p.Order)
	assert.Equal(t, "score", p.Sort)

	p = ListParams{}.Normalize()
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.True(t, p.Desc())
}

func TestQueryPredicatesAreConjunctive(t *testing.T) {
	got, total := New[item]().
		Where(func(i item) bool { return i.Kind == "live" }).
		Search("go", func(i item) []string { return []string{i.Name} }).
		Apply(items)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Go Concurrency", got[0].Name)
}

func TestQueryWhereIfSkipsDisabledFilter(t *testing.T) {
	_, total := New[item]().WhereIf(false, func(item) bool { return false }).Apply(items)
	assert.Equal(t, len(items), total)
}

func TestQuerySortAndPage(t *testing.T) {
	p := ListParams{Sort: "score", Order: OrderDesc, Offset: 1, Limit: 2}
	got, total := New[item]().Sort(p, sorters, "name").Paged(p).Apply(items)
	assert.Equal(t, 4, total)
	assert.Equal(t, []int{7, 5}, []int{got[0].Score, got[1].Score})

	p = ListParams{Sort: "unknown", Order: OrderAsc}
	got, _ = New[item]().Sort(p, sorters, "name").Apply(items)
	assert.Equal(t, "Advanced Go", got[0].Name)
}

func TestQueryThenByBreaksTies(t *testing.T) {
	tied := []item{
		{Name: "c", Score: 1}, {Name: "a", Score: 1}, {Name: "d", Score: 2}, {Name: "b", Score: 1},
	}
	byName := func(a, b item) bool { return a.Name < b.Name }
	names := func(got []item) []string {
		out := make([]string, 0, len(got))
		for _, it := range got {
			out = append(out, it.Name)
		}
		return out
	}

	asc := ListParams{Sort: "score", Order: OrderAsc, Limit: 2}
	got, _ := New[item]().Sort(asc, sorters, "name").ThenBy(byName).Paged(asc).Apply(tied)
	assert.Equal(t, []string{"a", "b"}, names(got))
	asc.Offset = 2
	got, _ = New[item]().Sort(asc, sorters, "name").ThenBy(byName).Paged(asc).Apply(tied)
	assert.Equal(t, []string{"c", "d"}, names(got))

	desc := ListParams{Sort: "score", Order: OrderDesc}
	got, _ = New[item]().ThenBy(byName).Sort(desc, sorters, "name").Apply(tied)
	assert.Equal(t, []string{"d", "c", "b", "a"}, names(got), "ties follow the sort direction")
}

func TestQueryPageBeyondEnd(t *testing.T) {
	got, total := New[item]().Page(10, 5).Apply(items)
	assert.Empty(t, got)
	assert.Equal(t, 4, total)
}

func TestHelpers(t *testing.T) {
	yes := true
	assert.True(t, EqualFold("", "anything"))
	assert.True(t, EqualFold("Draft", "draft"))
	assert.False(t, EqualFold("draft", "published"))
	assert.True(t, BoolEq(nil, false))
	assert.False(t, BoolEq(&yes, false))
	assert.True(t, ContainsFold([]string{"Go", "SQL"}, "go"))
	assert.False(t, ContainsFold(nil, "go"))
}

func TestSQLBuilder(t *testing.T) {
	var s SQL
	s.Eq("status", "scheduled").
		EqIf(false, "department", "x").
		Cond("scheduled_at >= ?", "2026-01-01").
		Search("50%", "title", "description")
	assert.Equal(t, " WHERE status = $1 AND scheduled_at >= $2 AND (title ILIKE $3 OR description ILIKE $3)", s.Where())
	assert.Equal(t, []any{"scheduled", "2026-01-01", `%50\%%`}, s.Args())

	order := s.OrderBy(ListParams{Sort: "bogus", Order: OrderAsc}, map[string]string{"date": "scheduled_at"}, "date")
	assert.Equal(t, " ORDER BY scheduled_at ASC, id ASC", order)

	page := s.Page(ListParams{Limit: 10, Offset: 20})
	assert.Equal(t, " LIMIT $4 OFFSET $5", page)
	assert.Len(t, s.Args(), 5)
}

func TestSQLEmptyWhere(t *testing.T) {
	var s SQL
	assert.Equal(t, "", s.Where())
	assert.Equal(t, "", s.Page(ListParams{}))
}

func TestNewPageNeverNil(t *testing.T) {
	p := NewPage[item](nil, 0, ListParams{Limit: 20})
	assert.NotNil(t, p.Items)
	assert.Equal(t, 20, p.Limit)
}
