// ABOUTME: Generic CRUD access to one REST collection
// ABOUTME: List, get, create, partial update via PATCH, and delete
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/harperreed/salesdesk/models"
)

// Resource is a typed view of /{path}. Keys name the property that holds the
// collection in list responses; some endpoints use more than one name.
type Resource[T any] struct {
	c    *Client
	path string
	keys []string
}

func NewResource[T any](c *Client, path string, keys ...string) *Resource[T] {
	if len(keys) == 0 {
		keys = []string{path}
	}
	return &Resource[T]{c: c, path: path, keys: keys}
}

func (r *Resource[T]) Path() string { return r.path }

func (r *Resource[T]) itemPath(id models.ID) string {
	return fmt.Sprintf("%s/%s", r.path, url.PathEscape(id.String()))
}

func (r *Resource[T]) List(ctx context.Context, query url.Values) (models.Page[T], error) {
	raw, err := r.c.Do(ctx, http.MethodGet, r.path, query, nil)
	if err != nil {
		return models.Page[T]{}, err
	}
	page, err := decodeList[T](raw, r.keys)
	if err != nil {
		return models.Page[T]{}, fmt.Errorf("failed to decode %s list: %w", r.path, err)
	}
	return page, nil
}

func (r *Resource[T]) Get(ctx context.Context, id models.ID) (T, error) {
	var out T
	raw, err := r.c.Do(ctx, http.MethodGet, r.itemPath(id), nil, nil)
	if err != nil {
		return out, err
	}
	if err := r.decodeRecord(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s: %w", r.path, err)
	}
	return out, nil
}

// Create posts a new record. The server's echo of the record is decoded when
// it has one; a mutation that succeeded is never reported as failed because
// the echo was missing or oddly shaped.
func (r *Resource[T]) Create(ctx context.Context, payload map[string]any) (T, error) {
	var out T
	raw, err := r.c.Do(ctx, http.MethodPost, r.path, nil, payload)
	if err != nil {
		return out, err
	}
	if err := r.decodeRecord(raw, &out); err != nil {
		r.c.logger.Warn("unexpected create response", "resource", r.path, "err", err)
	}
	return out, nil
}

// Update sends only the changed fields.
func (r *Resource[T]) Update(ctx context.Context, id models.ID, changes map[string]any) (T, error) {
	var out T
	raw, err := r.c.Do(ctx, http.MethodPatch, r.itemPath(id), nil, changes)
	if err != nil {
		return out, err
	}
	if err := r.decodeRecord(raw, &out); err != nil {
		r.c.logger.Warn("unexpected update response", "resource", r.path, "err", err)
	}
	return out, nil
}

func (r *Resource[T]) Delete(ctx context.Context, id models.ID) error {
	_, err := r.c.Do(ctx, http.MethodDelete, r.itemPath(id), nil, nil)
	return err
}

// decodeRecord accepts the record itself or the record under a singular key
// such as {"lead": {...}} once the data envelope is stripped.
func (r *Resource[T]) decodeRecord(raw json.RawMessage, out *T) error {
	if isNull(raw) {
		return nil
	}
	payload := unwrap(raw)

	var env map[string]json.RawMessage
	if json.Unmarshal(payload, &env) == nil && len(env) == 1 {
		for _, v := range env {
			var probe map[string]json.RawMessage
			if json.Unmarshal(v, &probe) == nil {
				if _, hasID := probe["id"]; hasID {
					payload = v
				}
			}
		}
	}
	return json.Unmarshal(payload, out)
}

func (c *Client) Leads() *Resource[models.Lead] {
	return NewResource[models.Lead](c, "leads")
}

func (c *Client) Tasks() *Resource[models.Task] {
	return NewResource[models.Task](c, "tasks", "tasks", "opportunities")
}

func (c *Client) Outlets() *Resource[models.Outlet] {
	return NewResource[models.Outlet](c, "outlets", "outlets", "customers")
}

func (c *Client) Activities() *Resource[models.Activity] {
	return NewResource[models.Activity](c, "activities")
}

func (c *Client) Users() *Resource[models.User] {
	return NewResource[models.User](c, "users")
}

func (c *Client) Roles() *Resource[models.Role] {
	return NewResource[models.Role](c, "roles")
}

func (c *Client) Permissions() *Resource[models.Permission] {
	return NewResource[models.Permission](c, "permissions")
}
