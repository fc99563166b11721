package pagination

import (
	"context"

	"github.com/noah-isme/classroom-api/pkg/query"
)

// Window describes one page of a bounded result set. Row offsets are 1-indexed.
type Window struct {
	Total     int  `json:"total"`
	PageCount int  `json:"pageCount"`
	Start     int  `json:"start"`
	End       int  `json:"end"`
	Limit     int  `json:"limit"`
	Page      int  `json:"page"`
	NextPage  *int `json:"nextPage,omitempty"`
	PrevPage  *int `json:"prevPage,omitempty"`
}

// Counter counts the rows matching a predicate.
type Counter interface {
	Count(ctx context.Context, pred query.Predicate) (int, error)
}

// New computes the window for the given total, page and limit.
func New(total, page, limit int) *Window {
	if page < 1 {
		page = query.DefaultPage
	}
	if limit < 1 {
		limit = query.DefaultLimit
	}
	if total < 0 {
		total = 0
	}
	page = query.ClampPage(page, limit)

	pageCount := (total + limit - 1) / limit
	start := query.Offset(page, limit) + 1
	end := start + limit - 1
	if end > total {
		end = total
	}

	w := &Window{
		Total:     total,
		PageCount: pageCount,
		Start:     start,
		End:       end,
		Limit:     limit,
		Page:      page,
	}
	if page < pageCount {
		next := page + 1
		w.NextPage = &next
	}
	if page > 1 {
		prev := page - 1
		w.PrevPage = &prev
	}
	return w
}

// Paginate counts the rows matching pred and returns the resulting window.
// The count query is the only store access; callers fetch rows using query.Offset.
func Paginate(ctx context.Context, counter Counter, page, limit int, pred query.Predicate) (*Window, error) {
	total, err := counter.Count(ctx, pred)
	if err != nil {
		return nil, err
	}
	return New(total, page, limit), nil
}
