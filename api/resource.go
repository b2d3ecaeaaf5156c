package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/goliatone/go-pos-console/listcache"
)

// ListResult is one page of a list answer, rows in server order.
type ListResult[T any] struct {
	Data   []T
	Paging Paging
}

// Page converts the answer into the list cache's page.
func (r ListResult[T]) Page() listcache.Page[T] {
	return listcache.Page[T]{
		Rows: r.Data,
		Paging: listcache.Paging{
			TotalElements: r.Paging.TotalElement,
			TotalPages:    r.Paging.TotalPages,
			HasNext:       r.Paging.HasNext,
			HasPrevious:   r.Paging.HasPrevious,
		},
	}
}

// Resource is the CRUD surface of one collection, e.g. /menus.
// Updates are sent to the collection path with the id in the payload.
type Resource[T any] struct {
	client *Client
	path   string
}

// NewResource returns the resource mounted at path.
func NewResource[T any](c *Client, path string) *Resource[T] {
	return &Resource[T]{client: c, path: path}
}

// Path returns the collection path.
func (r *Resource[T]) Path() string {
	return r.path
}

// List fetches one page. query carries the filter and paging parameters.
func (r *Resource[T]) List(ctx context.Context, query url.Values) (ListResult[T], error) {
	var out ListResult[T]

	req, err := jsonRequest(http.MethodGet, r.path, query, nil)
	if err != nil {
		return out, err
	}

	paging, err := r.client.call(ctx, req, &out.Data)
	if err != nil {
		return out, err
	}
	if out.Data == nil {
		out.Data = []T{}
	}
	if paging != nil {
		out.Paging = *paging
	}
	return out, nil
}

// GetByID fetches one record. A missing id is an apperror.KindNotFound error.
func (r *Resource[T]) GetByID(ctx context.Context, id string) (T, error) {
	var out T
	req, err := jsonRequest(http.MethodGet, r.path+"/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return out, err
	}
	_, err = r.client.call(ctx, req, &out)
	return out, err
}

// Create posts payload to the collection.
func (r *Resource[T]) Create(ctx context.Context, payload any) (T, error) {
	return r.write(ctx, http.MethodPost, payload)
}

// Update puts payload to the collection.
func (r *Resource[T]) Update(ctx context.Context, payload any) (T, error) {
	return r.write(ctx, http.MethodPut, payload)
}

// DeleteByID deletes one record. Users are deactivated rather than removed.
func (r *Resource[T]) DeleteByID(ctx context.Context, id string) error {
	req, err := jsonRequest(http.MethodDelete, r.path+"/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	_, err = r.client.call(ctx, req, nil)
	return err
}

func (r *Resource[T]) write(ctx context.Context, method string, payload any) (T, error) {
	var out T
	req, err := jsonRequest(method, r.path, nil, payload)
	if err != nil {
		return out, err
	}
	_, err = r.client.call(ctx, req, &out)
	return out, err
}
