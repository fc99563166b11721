package service

import (
	"context"
	"net/url"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/pagination"
	"github.com/noah-isme/classroom-api/pkg/query"
)

type pageLister[T any] interface {
	List(ctx context.Context, req *query.Request) ([]T, error)
	Count(ctx context.Context, pred query.Predicate) (int, error)
}

// listPage counts the matching rows once, then fetches the requested window.
func listPage[T any](ctx context.Context, repo pageLister[T], req *query.Request, resource string) ([]T, *pagination.Window, error) {
	window, err := pagination.Paginate(ctx, repo, req.Page, req.Limit, req.Predicate)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count "+resource)
	}
	items, err := repo.List(ctx, req)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list "+resource)
	}
	if items == nil {
		items = []T{}
	}
	return items, window, nil
}

// roleScoped parses a list request and restricts it to users holding role.
func roleScoped(values url.Values, role models.UserRole) (*query.Request, error) {
	req, err := query.Parse(values, repository.UserQuerySchema)
	if err != nil {
		return nil, err
	}
	req.Predicate = req.Predicate.And("role", "r.name", string(role))
	return req, nil
}
