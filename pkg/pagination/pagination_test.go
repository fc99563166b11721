package pagination

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/pkg/query"
)

type fixedCounter struct {
	total int
	err   error
	calls int
	last  query.Predicate
}

func (f *fixedCounter) Count(ctx context.Context, pred query.Predicate) (int, error) {
	f.calls++
	f.last = pred
	return f.total, f.err
}

func intPtr(v int) *int { return &v }

func TestNewEmptyResult(t *testing.T) {
	w := New(0, 1, 25)
	assert.Equal(t, 0, w.PageCount)
	assert.Equal(t, 1, w.Start)
	assert.Equal(t, 0, w.End)
	assert.Nil(t, w.NextPage)
	assert.Nil(t, w.PrevPage)
}

func TestNewMiddlePage(t *testing.T) {
	w := New(57, 2, 25)
	assert.Equal(t, &Window{Total: 57, PageCount: 3, Start: 26, End: 50, Limit: 25, Page: 2, NextPage: intPtr(3), PrevPage: intPtr(1)}, w)
	assert.Equal(t, 25, query.Offset(w.Page, w.Limit))
}

func TestNewLastPage(t *testing.T) {
	w := New(57, 3, 25)
	assert.Equal(t, 51, w.Start)
	assert.Equal(t, 57, w.End)
	assert.Nil(t, w.NextPage)
	assert.Equal(t, intPtr(2), w.PrevPage)
}

func TestNewBeyondLastPage(t *testing.T) {
	w := New(57, 9, 25)
	assert.Equal(t, 201, w.Start)
	assert.Equal(t, 57, w.End)
	assert.Greater(t, w.Start, w.Total)
	assert.Nil(t, w.NextPage)
}

func TestNewHugePageStaysPastTheEnd(t *testing.T) {
	cases := []struct {
		name  string
		page  int
		limit int
	}{
		{"1e17 pages of 100", 100000000000000000, 100},
		{"max int pages of 100", math.MaxInt, 100},
		{"max int pages of 1", math.MaxInt, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := New(57, tc.page, tc.limit)
			assert.Greater(t, w.Start, w.Total)
			assert.Equal(t, 57, w.End)
			assert.LessOrEqual(t, w.Page, math.MaxInt/tc.limit)
			assert.GreaterOrEqual(t, query.Offset(w.Page, w.Limit), 0)
			assert.Nil(t, w.NextPage)
			require.NotNil(t, w.PrevPage)
			assert.Positive(t, *w.PrevPage)
		})
	}
}

func TestNewExactMultiple(t *testing.T) {
	w := New(50, 2, 25)
	assert.Equal(t, 2, w.PageCount)
	assert.Equal(t, 50, w.End)
	assert.Nil(t, w.NextPage)
}

func TestPaginateCountsOnce(t *testing.T) {
	counter := &fixedCounter{total: 57}
	pred := query.Predicate{}.And("name", "u.firstname", "Jo")

	w, err := Paginate(context.Background(), counter, 2, 25, pred)
	require.NoError(t, err)
	assert.Equal(t, 1, counter.calls)
	assert.Equal(t, pred, counter.last)
	assert.Equal(t, 26, w.Start)
}

func TestPaginatePropagatesCountError(t *testing.T) {
	counter := &fixedCounter{err: errors.New("boom")}
	_, err := Paginate(context.Background(), counter, 1, 25, query.Predicate{})
	require.Error(t, err)
}
