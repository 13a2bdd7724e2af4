// ABOUTME: Binds a typed REST collection to its form schema, filters, and table layout
// ABOUTME: Exposes every entity through one non-generic Page interface
package entities

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/salesdesk/api"
	"github.com/harperreed/salesdesk/forms"
	"github.com/harperreed/salesdesk/listing"
	"github.com/harperreed/salesdesk/models"
)

var (
	ErrNoRecord    = errors.New("no record at that row")
	ErrUnsupported = errors.New("not supported for this entity")
)

// Filter is one list filter. Filters without options take free text.
type Filter struct {
	Key     string
	Label   string
	Options []string
}

type Column struct {
	Title string
	Width int
}

// Assignment describes a many-to-many set edited beside the record, such as
// a role's permissions.
type Assignment[T any] struct {
	Title   string
	Catalog func(ctx context.Context) ([]string, error)
	Current func(T) []string
	Change  func(ctx context.Context, id models.ID, added, removed []string) error
}

// Toggle is a boolean flag flipped through its own endpoint.
type Toggle[T any] struct {
	Label string
	Get   func(T) bool
	Set   func(ctx context.Context, id models.ID, on bool) error
}

// Binding ties one collection to everything the screens need to show it.
type Binding[T any] struct {
	Name    string
	Title   string
	Schema  forms.Schema
	Filters []Filter
	Columns []Column
	Row     func(T) []string
	ID      func(T) models.ID
	Label   func(T) string
	Values  func(T) map[string]string
	Labels  func(T) map[string]string
	View    func(T) []forms.ViewRow
	Assign  *Assignment[T]
	Toggle  *Toggle[T]
}

// Page is the entity-agnostic surface used by the TUI, CLI, and MCP tools.
type Page interface {
	Name() string
	Title() string
	Schema() forms.Schema
	Filters() []Filter
	Columns() []Column

	StageReload() listing.Request
	StageSearch(text string) listing.Request
	StageFilter(key, value string) listing.Request
	StageClear() listing.Request
	StagePage(page int) (listing.Request, error)
	Fetch(ctx context.Context, req listing.Request) error

	Refresh(ctx context.Context) error
	SetSearch(ctx context.Context, text string) error
	SetFilter(ctx context.Context, key, value string) error
	ClearFilters(ctx context.Context) error
	SetPage(ctx context.Context, page int) error

	Rows() [][]string
	Len() int
	Pagination() models.Pagination
	Query() listing.Query
	Loading() bool
	Err() error

	RecordID(i int) (models.ID, error)
	RecordLabel(i int) string
	View(i int) ([]forms.ViewRow, error)
	AddForm() *forms.Form
	EditForm(i int) (*forms.Form, error)
	Get(ctx context.Context, id models.ID) (Record, error)

	Submit(ctx context.Context, f *forms.Form) error
	SaveEdit(ctx context.Context, f *forms.Form, editor *forms.AssignmentEditor) error
	Delete(ctx context.Context, id models.ID) error
	// ConfirmDelete reports whether deleting needs an explicit confirmation.
	ConfirmDelete() bool

	AssignmentTitle() string
	OpenAssignments(ctx context.Context, i int) (*forms.AssignmentEditor, error)

	ToggleLabel() string
	Toggle(ctx context.Context, i int) error
}

// Record is one fetched record in display form.
type Record struct {
	ID     models.ID
	Label  string
	Values map[string]string
	Labels map[string]string
	View   []forms.ViewRow
}

// EditForm opens an edit form seeded from the record.
func (r Record) EditForm(schema forms.Schema) *forms.Form {
	return forms.NewEdit(schema, r.ID, r.Values, r.Labels)
}

// Resource is the typed collection a bound page reads and writes.
type Resource[T any] interface {
	listing.Source[T]
	Get(ctx context.Context, id models.ID) (T, error)
}

type page[T any] struct {
	b    Binding[T]
	res  Resource[T]
	ctrl *listing.Controller[T]
}

// Bind builds a Page over res. The controller must mirror res.
func Bind[T any](b Binding[T], res Resource[T], ctrl *listing.Controller[T]) Page {
	return &page[T]{b: b, res: res, ctrl: ctrl}
}

func (p *page[T]) Name() string         { return p.b.Name }
func (p *page[T]) Title() string        { return p.b.Title }
func (p *page[T]) Schema() forms.Schema { return p.b.Schema }
func (p *page[T]) Filters() []Filter    { return p.b.Filters }
func (p *page[T]) Columns() []Column    { return p.b.Columns }

func (p *page[T]) StageReload() listing.Request { return p.ctrl.StageReload() }

func (p *page[T]) StageSearch(text string) listing.Request { return p.ctrl.StageSearch(text) }

func (p *page[T]) StageFilter(key, value string) listing.Request {
	return p.ctrl.StageFilter(key, value)
}

func (p *page[T]) StageClear() listing.Request { return p.ctrl.StageClear() }

func (p *page[T]) StagePage(n int) (listing.Request, error) { return p.ctrl.StagePage(n) }

func (p *page[T]) Fetch(ctx context.Context, req listing.Request) error {
	return p.ctrl.Fetch(ctx, req)
}

func (p *page[T]) Refresh(ctx context.Context) error { return p.ctrl.Refresh(ctx) }

func (p *page[T]) SetSearch(ctx context.Context, text string) error {
	return p.ctrl.SetSearch(ctx, text)
}

func (p *page[T]) SetFilter(ctx context.Context, key, value string) error {
	return p.ctrl.SetFilter(ctx, key, value)
}

func (p *page[T]) ClearFilters(ctx context.Context) error { return p.ctrl.ClearFilters(ctx) }

func (p *page[T]) SetPage(ctx context.Context, n int) error { return p.ctrl.SetPage(ctx, n) }

func (p *page[T]) Rows() [][]string {
	items := p.ctrl.Items()
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = p.b.Row(it)
	}
	return rows
}

func (p *page[T]) Len() int { return len(p.ctrl.Items()) }

func (p *page[T]) Pagination() models.Pagination { return p.ctrl.Pagination() }

func (p *page[T]) Query() listing.Query { return p.ctrl.Query() }

func (p *page[T]) Loading() bool { return p.ctrl.State().Loading }

func (p *page[T]) Err() error { return p.ctrl.State().Err }

func (p *page[T]) at(i int) (T, error) {
	items := p.ctrl.Items()
	if i < 0 || i >= len(items) {
		var zero T
		return zero, ErrNoRecord
	}
	return items[i], nil
}

func (p *page[T]) RecordID(i int) (models.ID, error) {
	it, err := p.at(i)
	if err != nil {
		return "", err
	}
	return p.b.ID(it), nil
}

func (p *page[T]) RecordLabel(i int) string {
	it, err := p.at(i)
	if err != nil {
		return ""
	}
	return p.b.Label(it)
}

func (p *page[T]) View(i int) ([]forms.ViewRow, error) {
	it, err := p.at(i)
	if err != nil {
		return nil, err
	}
	return p.b.View(it), nil
}

func (p *page[T]) AddForm() *forms.Form { return forms.NewAdd(p.b.Schema) }

func (p *page[T]) record(it T) Record {
	r := Record{ID: p.b.ID(it), Label: p.b.Label(it), Values: p.b.Values(it), View: p.b.View(it)}
	if p.b.Labels != nil {
		r.Labels = p.b.Labels(it)
	}
	return r
}

func (p *page[T]) EditForm(i int) (*forms.Form, error) {
	it, err := p.at(i)
	if err != nil {
		return nil, err
	}
	return p.record(it).EditForm(p.b.Schema), nil
}

func (p *page[T]) Get(ctx context.Context, id models.ID) (Record, error) {
	it, err := p.res.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	return p.record(it), nil
}

// Submit creates from an add form or sends the changed fields of an edit form.
// Validation failures come back as forms.Errors without touching the server.
func (p *page[T]) Submit(ctx context.Context, f *forms.Form) error {
	payload, err := f.Payload()
	if err != nil {
		return err
	}
	if f.Mode() == forms.Add {
		_, err = p.ctrl.Create(ctx, payload)
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err = p.ctrl.Update(ctx, f.ID(), payload)
	return err
}

// SaveEdit saves an edit form together with its assignment set: the field
// changes go first, then the added and removed keys, then one re-query.
func (p *page[T]) SaveEdit(ctx context.Context, f *forms.Form, editor *forms.AssignmentEditor) error {
	if editor == nil || p.b.Assign == nil {
		return p.Submit(ctx, f)
	}
	var payload map[string]any
	if f.HasChanges() {
		var err error
		if payload, err = f.Payload(); err != nil {
			return err
		}
	}
	added, removed := editor.Diff()
	if len(payload) == 0 && len(added) == 0 && len(removed) == 0 {
		return nil
	}
	return p.ctrl.Mutate(ctx, "update", func(ctx context.Context) error {
		if len(payload) > 0 {
			if _, err := p.res.Update(ctx, f.ID(), payload); err != nil {
				return err
			}
		}
		if len(added) > 0 || len(removed) > 0 {
			if err := p.b.Assign.Change(ctx, f.ID(), added, removed); err != nil {
				return fmt.Errorf("failed to change %s: %w", p.b.Assign.Title, err)
			}
		}
		return nil
	})
}

func (p *page[T]) Delete(ctx context.Context, id models.ID) error { return p.ctrl.Delete(ctx, id) }

func (p *page[T]) ConfirmDelete() bool { return true }

func (p *page[T]) AssignmentTitle() string {
	if p.b.Assign == nil {
		return ""
	}
	return p.b.Assign.Title
}

// OpenAssignments loads the catalog and seeds an editor from row i.
func (p *page[T]) OpenAssignments(ctx context.Context, i int) (*forms.AssignmentEditor, error) {
	if p.b.Assign == nil {
		return nil, ErrUnsupported
	}
	it, err := p.at(i)
	if err != nil {
		return nil, err
	}
	catalog, err := p.b.Assign.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return forms.NewAssignmentEditor(catalog, p.b.Assign.Current(it)), nil
}

func (p *page[T]) ToggleLabel() string {
	if p.b.Toggle == nil {
		return ""
	}
	return p.b.Toggle.Label
}

func (p *page[T]) Toggle(ctx context.Context, i int) error {
	if p.b.Toggle == nil {
		return ErrUnsupported
	}
	it, err := p.at(i)
	if err != nil {
		return err
	}
	id, next := p.b.ID(it), !p.b.Toggle.Get(it)
	return p.ctrl.Mutate(ctx, "update", func(ctx context.Context) error {
		return p.b.Toggle.Set(ctx, id, next)
	})
}

var _ Resource[models.Lead] = (*api.Resource[models.Lead])(nil)
