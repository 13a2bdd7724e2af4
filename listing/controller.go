// ABOUTME: Generic list controller for one paginated, filterable REST collection
// ABOUTME: Owns search, filters, and page; re-queries on change and after every mutation
package listing

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/harperreed/salesdesk/api"
	"github.com/harperreed/salesdesk/models"
	"github.com/harperreed/salesdesk/notify"
)

var (
	// ErrSuperseded means a newer query was issued while this one was in flight.
	ErrSuperseded     = errors.New("superseded by a newer query")
	ErrPageOutOfRange = errors.New("page out of range")
	// ErrLoading means a page move was refused while a query is in flight.
	ErrLoading = errors.New("a query is still loading")
)

// Source is the collection a controller mirrors. *api.Resource satisfies it.
type Source[T any] interface {
	List(ctx context.Context, query url.Values) (models.Page[T], error)
	Create(ctx context.Context, payload map[string]any) (T, error)
	Update(ctx context.Context, id models.ID, changes map[string]any) (T, error)
	Delete(ctx context.Context, id models.ID) error
}

// Query is everything a list request carries.
type Query struct {
	Search  string
	Filters map[string]string
	Page    int
	Limit   int
}

// Params encodes the query. Empty search text and empty filters are omitted.
func (q Query) Params() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	for k, val := range q.Filters {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// ActiveFilters lists the filter keys with a value, sorted.
func (q Query) ActiveFilters() []string {
	var keys []string
	for k, v := range q.Filters {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (q Query) clone() Query {
	out := q
	out.Filters = make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		out.Filters[k] = v
	}
	return out
}

// Request is one issued list query. Staging a request fixes its place in the
// issue order; Fetch runs it.
type Request struct {
	seq   uint64
	query Query
}

func (r Request) Query() Query { return r.query }

// State is a copy of a controller's state.
type State[T any] struct {
	Query      Query
	Items      []T
	Pagination models.Pagination
	Loading    bool
	Err        error
}

type Controller[T any] struct {
	name     string
	src      Source[T]
	notifier notify.Notifier
	logger   *log.Logger

	mu         sync.Mutex
	query      Query
	items      []T
	pagination models.Pagination
	issued     uint64
	loading    bool
	err        error
}

// New builds a controller for the collection called name (used in notices and logs).
func New[T any](name string, src Source[T], notifier notify.Notifier, logger *log.Logger, limit int) *Controller[T] {
	if limit <= 0 {
		limit = 10
	}
	return &Controller[T]{
		name:       name,
		src:        src,
		notifier:   notifier,
		logger:     logger,
		query:      Query{Filters: map[string]string{}, Page: 1, Limit: limit},
		items:      []T{},
		pagination: models.Pagination{Page: 1, Limit: limit},
	}
}

func (c *Controller[T]) Name() string { return c.name }

func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return State[T]{
		Query:      c.query.clone(),
		Items:      items,
		Pagination: c.pagination,
		Loading:    c.loading,
		Err:        c.err,
	}
}

func (c *Controller[T]) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query.clone()
}

func (c *Controller[T]) Items() []T { return c.State().Items }

func (c *Controller[T]) Pagination() models.Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pagination
}

// stage applies edit to the query and issues the next sequence number.
func (c *Controller[T]) stage(edit func(q *Query)) Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	if edit != nil {
		edit(&c.query)
	}
	c.issued++
	c.loading = true
	return Request{seq: c.issued, query: c.query.clone()}
}

// StageReload issues a request for the current query unchanged.
func (c *Controller[T]) StageReload() Request { return c.stage(nil) }

func (c *Controller[T]) StageSearch(text string) Request {
	return c.stage(func(q *Query) {
		q.Search = text
		q.Page = 1
	})
}

// StageFilter sets one filter; an empty value removes it.
func (c *Controller[T]) StageFilter(key, value string) Request {
	return c.stage(func(q *Query) {
		if value == "" {
			delete(q.Filters, key)
		} else {
			q.Filters[key] = value
		}
		q.Page = 1
	})
}

// StageClear empties the search text and every filter in one request.
func (c *Controller[T]) StageClear() Request {
	return c.stage(func(q *Query) {
		q.Search = ""
		q.Filters = map[string]string{}
		q.Page = 1
	})
}

// StagePage refuses pages outside the server's last cursor without issuing
// anything. The cursor belongs to the last completed query, so page moves are
// refused while a newer query is still in flight.
func (c *Controller[T]) StagePage(page int) (Request, error) {
	c.mu.Lock()
	last, loading := c.pagination.LastPage(), c.loading
	c.mu.Unlock()
	if loading {
		return Request{}, ErrLoading
	}
	if page < 1 || page > last {
		return Request{}, ErrPageOutOfRange
	}
	return c.stage(func(q *Query) { q.Page = page }), nil
}

// Fetch runs a staged request. A response for anything but the most recently
// staged request is dropped and ErrSuperseded returned.
func (c *Controller[T]) Fetch(ctx context.Context, req Request) error {
	page, err := c.src.List(ctx, req.query.Params())

	c.mu.Lock()
	if req.seq != c.issued {
		c.mu.Unlock()
		c.logger.Debug("dropping stale list response", "resource", c.name, "seq", req.seq, "latest", c.issued)
		return ErrSuperseded
	}
	c.loading = false
	c.err = err
	if err == nil {
		c.items = page.Items
		c.pagination = page.Pagination
	}
	c.mu.Unlock()

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Error("failed to load list", "resource", c.name, "err", err)
			c.notifier.Notify(notify.Errorf(err, "Failed to load %s", c.name))
		}
		return err
	}
	return nil
}

func (c *Controller[T]) Refresh(ctx context.Context) error {
	return c.Fetch(ctx, c.StageReload())
}

func (c *Controller[T]) SetSearch(ctx context.Context, text string) error {
	return c.Fetch(ctx, c.StageSearch(text))
}

func (c *Controller[T]) SetFilter(ctx context.Context, key, value string) error {
	return c.Fetch(ctx, c.StageFilter(key, value))
}

func (c *Controller[T]) ClearFilters(ctx context.Context) error {
	return c.Fetch(ctx, c.StageClear())
}

func (c *Controller[T]) SetPage(ctx context.Context, page int) error {
	req, err := c.StagePage(page)
	if err != nil {
		return err
	}
	return c.Fetch(ctx, req)
}

func (c *Controller[T]) NextPage(ctx context.Context) error {
	return c.SetPage(ctx, c.Query().Page+1)
}

func (c *Controller[T]) PrevPage(ctx context.Context) error {
	return c.SetPage(ctx, c.Query().Page-1)
}

// Mutate runs fn as one mutation. A failure is logged and notified and
// leaves the list untouched; a success re-queries the current page. A failed
// re-query is reported on its own and does not fail the mutation.
func (c *Controller[T]) Mutate(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		c.mutationFailed(op, err)
		return err
	}
	c.notifier.Notify(notify.Successf("%s %s", pastTense(op), singular(c.name)))
	c.requery(ctx)
	return nil
}

func (c *Controller[T]) Create(ctx context.Context, payload map[string]any) (T, error) {
	var rec T
	err := c.Mutate(ctx, "create", func(ctx context.Context) error {
		var err error
		rec, err = c.src.Create(ctx, payload)
		return err
	})
	return rec, err
}

func (c *Controller[T]) Update(ctx context.Context, id models.ID, changes map[string]any) (T, error) {
	var rec T
	err := c.Mutate(ctx, "update", func(ctx context.Context) error {
		var err error
		rec, err = c.src.Update(ctx, id, changes)
		return err
	})
	return rec, err
}

// Delete removes a record and re-queries. When that empties the last page the
// controller steps back to the server's new last page.
func (c *Controller[T]) Delete(ctx context.Context, id models.ID) error {
	err := c.Mutate(ctx, "delete", func(ctx context.Context) error {
		return c.src.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	page, last := c.query.Page, c.pagination.LastPage()
	c.mu.Unlock()
	if page > last {
		if err := c.SetPage(ctx, last); err != nil {
			c.logger.Debug("step back after delete skipped", "resource", c.name, "page", last, "err", err)
		}
	}
	return nil
}

func (c *Controller[T]) requery(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		c.logger.Warn("re-query after mutation failed", "resource", c.name, "err", err)
	}
}

func (c *Controller[T]) mutationFailed(op string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	c.logger.Error("mutation failed", "resource", c.name, "op", op, "err", err)
	msg := api.MessageOf(err)
	if msg == "" {
		msg = "request failed"
	}
	c.notifier.Notify(notify.Errorf(err, "Failed to %s %s: %s", op, singular(c.name), msg))
}

func pastTense(op string) string {
	switch op {
	case "create":
		return "Created"
	case "update":
		return "Updated"
	case "delete":
		return "Deleted"
	}
	return "Saved"
}

func singular(name string) string {
	switch {
	case strings.HasSuffix(name, "ies"):
		return strings.TrimSuffix(name, "ies") + "y"
	case strings.HasSuffix(name, "s"):
		return strings.TrimSuffix(name, "s")
	}
	return name
}
