// ABOUTME: Record MCP tool handlers over every CRM collection
// ABOUTME: Implements list_records, get_record_fields, get_record, create_record, update_record, and delete_record
package handlers

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/salesdesk/entities"
	"github.com/harperreed/salesdesk/forms"
	"github.com/harperreed/salesdesk/models"
)

// Pages resolves an entity name to its page. *entities.Registry satisfies it.
type Pages interface {
	Get(name string) (entities.Page, bool)
	Names() []string
}

type RecordHandlers struct {
	pages Pages
}

func NewRecordHandlers(pages Pages) *RecordHandlers {
	return &RecordHandlers{pages: pages}
}

func (h *RecordHandlers) page(entity string) (entities.Page, error) {
	if entity == "" {
		return nil, fmt.Errorf("entity is required (one of %s)", strings.Join(h.pages.Names(), ", "))
	}
	p, ok := h.pages.Get(entity)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q (one of %s)", entity, strings.Join(h.pages.Names(), ", "))
	}
	return p, nil
}

type ListRecordsInput struct {
	Entity  string            `json:"entity" jsonschema:"Collection to list: leads, tasks, outlets, activities, users, or roles (required)"`
	Search  string            `json:"search,omitempty" jsonschema:"Free-text search"`
	Filters map[string]string `json:"filters,omitempty" jsonschema:"Filter values keyed by filter name, e.g. {\"status\": \"new\"}"`
	Page    int               `json:"page,omitempty" jsonschema:"Page number (default 1)"`
}

type RecordRow struct {
	ID     string            `json:"id"`
	Label  string            `json:"label"`
	Fields map[string]string `json:"fields"`
}

type ListRecordsOutput struct {
	Entity     string            `json:"entity"`
	Records    []RecordRow       `json:"records"`
	Pagination models.Pagination `json:"pagination"`
}

func (h *RecordHandlers) ListRecords(ctx context.Context, _ *mcp.CallToolRequest, input ListRecordsInput) (*mcp.CallToolResult, ListRecordsOutput, error) {
	p, err := h.page(input.Entity)
	if err != nil {
		return nil, ListRecordsOutput{}, err
	}

	for key := range input.Filters {
		if !slices.ContainsFunc(p.Filters(), func(f entities.Filter) bool { return f.Key == key }) {
			return nil, ListRecordsOutput{}, fmt.Errorf("unknown filter %q for %s", key, p.Name())
		}
	}

	req := p.StageClear()
	if input.Search != "" {
		req = p.StageSearch(input.Search)
	}
	for _, key := range slices.Sorted(maps.Keys(input.Filters)) {
		req = p.StageFilter(key, input.Filters[key])
	}
	if err := p.Fetch(ctx, req); err != nil {
		return nil, ListRecordsOutput{}, fmt.Errorf("failed to list %s: %w", p.Name(), err)
	}
	if input.Page > 1 {
		if err := p.SetPage(ctx, input.Page); err != nil {
			return nil, ListRecordsOutput{}, fmt.Errorf("failed to load page %d: %w", input.Page, err)
		}
	}

	return nil, ListRecordsOutput{
		Entity:     p.Name(),
		Records:    rows(p),
		Pagination: p.Pagination(),
	}, nil
}

func rows(p entities.Page) []RecordRow {
	cols := p.Columns()
	out := make([]RecordRow, 0, p.Len())
	for i, row := range p.Rows() {
		id, err := p.RecordID(i)
		if err != nil {
			continue
		}
		fields := make(map[string]string, len(row))
		for j, cell := range row {
			if j < len(cols) {
				fields[cols[j].Title] = cell
			}
		}
		out = append(out, RecordRow{ID: id.String(), Label: p.RecordLabel(i), Fields: fields})
	}
	return out
}

type GetRecordFieldsInput struct {
	Entity string `json:"entity" jsonschema:"Collection name (required)"`
}

type FieldOutput struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required,omitempty"`
	Options  []string `json:"options,omitempty"`
	Relation string   `json:"relation,omitempty"`
	Default  string   `json:"default,omitempty"`
	Fixed    bool     `json:"fixed_after_create,omitempty"`
}

type GetRecordFieldsOutput struct {
	Entity  string        `json:"entity"`
	Fields  []FieldOutput `json:"fields"`
	Filters []string      `json:"filters"`
}

func (h *RecordHandlers) GetRecordFields(_ context.Context, _ *mcp.CallToolRequest, input GetRecordFieldsInput) (*mcp.CallToolResult, GetRecordFieldsOutput, error) {
	p, err := h.page(input.Entity)
	if err != nil {
		return nil, GetRecordFieldsOutput{}, err
	}
	out := GetRecordFieldsOutput{Entity: p.Name(), Filters: []string{}}
	for _, f := range p.Schema().Fields {
		out.Fields = append(out.Fields, FieldOutput{
			Key:      f.Key,
			Label:    f.Label,
			Kind:     f.Kind.String(),
			Required: f.Required,
			Options:  f.Options,
			Relation: f.Relation,
			Default:  f.Default,
			Fixed:    f.Fixed,
		})
	}
	for _, f := range p.Filters() {
		out.Filters = append(out.Filters, f.Key)
	}
	return nil, out, nil
}

type RecordInput struct {
	Entity string `json:"entity" jsonschema:"Collection name (required)"`
	ID     string `json:"id" jsonschema:"Record ID (required)"`
}

type RecordOutput struct {
	Entity string            `json:"entity"`
	ID     string            `json:"id"`
	Label  string            `json:"label"`
	Fields map[string]string `json:"fields"`
}

func (h *RecordHandlers) GetRecord(ctx context.Context, _ *mcp.CallToolRequest, input RecordInput) (*mcp.CallToolResult, RecordOutput, error) {
	p, err := h.page(input.Entity)
	if err != nil {
		return nil, RecordOutput{}, err
	}
	if input.ID == "" {
		return nil, RecordOutput{}, fmt.Errorf("id is required")
	}
	rec, err := p.Get(ctx, models.ID(input.ID))
	if err != nil {
		return nil, RecordOutput{}, fmt.Errorf("failed to fetch %s %s: %w", p.Name(), input.ID, err)
	}
	return nil, recordOutput(p.Name(), rec), nil
}

func recordOutput(entity string, rec entities.Record) RecordOutput {
	fields := make(map[string]string, len(rec.View))
	for _, row := range rec.View {
		fields[row.Label] = row.Value
	}
	return RecordOutput{Entity: entity, ID: rec.ID.String(), Label: rec.Label, Fields: fields}
}

// fill copies values into f, rejecting keys the form does not edit.
func fill(f *forms.Form, values map[string]string) error {
	editable := f.Fields()
	for _, key := range slices.Sorted(maps.Keys(values)) {
		if !slices.ContainsFunc(editable, func(fd forms.Field) bool { return fd.Key == key }) {
			return fmt.Errorf("field %q cannot be set on %s in %s mode", key, f.Schema().Entity, f.Mode())
		}
		f.Set(key, values[key])
	}
	return nil
}

type CreateRecordInput struct {
	Entity string            `json:"entity" jsonschema:"Collection name (required)"`
	Fields map[string]string `json:"fields" jsonschema:"Field values keyed by field key; see get_record_fields"`
}

type MutationOutput struct {
	Entity  string   `json:"entity"`
	ID      string   `json:"id,omitempty"`
	Changed []string `json:"changed,omitempty"`
	Message string   `json:"message"`
}

func (h *RecordHandlers) CreateRecord(ctx context.Context, _ *mcp.CallToolRequest, input CreateRecordInput) (*mcp.CallToolResult, MutationOutput, error) {
	p, err := h.page(input.Entity)
	if err != nil {
		return nil, MutationOutput{}, err
	}
	f := p.AddForm()
	if err := fill(f, input.Fields); err != nil {
		return nil, MutationOutput{}, err
	}
	if err := p.Submit(ctx, f); err != nil {
		return nil, MutationOutput{}, fmt.Errorf("failed to create %s: %w", f.Schema().Entity, err)
	}
	return nil, MutationOutput{Entity: p.Name(), Message: fmt.Sprintf("Created %s", f.Schema().Entity)}, nil
}

type UpdateRecordInput struct {
	Entity string            `json:"entity" jsonschema:"Collection name (required)"`
	ID     string            `json:"id" jsonschema:"Record ID (required)"`
	Fields map[string]string `json:"fields" jsonschema:"Fields to change; an empty string clears a field"`
}

// UpdateRecord loads the record into an edit form so only fields that
// actually differ are sent.
func (h *RecordHandlers) UpdateRecord(ctx context.Context, _ *mcp.CallToolRequest, input UpdateRecordInput) (*mcp.CallToolResult, MutationOutput, error) {
	p, err := h.page(input.Entity)
	if err != nil {
		return nil, MutationOutput{}, err
	}
	if input.ID == "" {
		return nil, MutationOutput{}, fmt.Errorf("id is required")
	}
	rec, err := p.Get(ctx, models.ID(input.ID))
	if err != nil {
		return nil, MutationOutput{}, fmt.Errorf("failed to fetch %s %s: %w", p.Name(), input.ID, err)
	}
	f := rec.EditForm(p.Schema())
	if err := fill(f, input.Fields); err != nil {
		return nil, MutationOutput{}, err
	}
	out := MutationOutput{Entity: p.Name(), ID: input.ID, Changed: f.Changed()}
	if !f.HasChanges() {
		out.Message = "No changes"
		return nil, out, nil
	}
	if err := p.Submit(ctx, f); err != nil {
		return nil, MutationOutput{}, fmt.Errorf("failed to update %s %s: %w", f.Schema().Entity, input.ID, err)
	}
	out.Message = fmt.Sprintf("Updated %s", f.Schema().Entity)
	return nil, out, nil
}

func (h *RecordHandlers) DeleteRecord(ctx context.Context, _ *mcp.CallToolRequest, input RecordInput) (*mcp.CallToolResult, MutationOutput, error) {
	p, err := h.page(input.Entity)
	if err != nil {
		return nil, MutationOutput{}, err
	}
	if input.ID == "" {
		return nil, MutationOutput{}, fmt.Errorf("id is required")
	}
	if err := p.Delete(ctx, models.ID(input.ID)); err != nil {
		return nil, MutationOutput{}, fmt.Errorf("failed to delete %s %s: %w", p.Name(), input.ID, err)
	}
	return nil, MutationOutput{Entity: p.Name(), ID: input.ID, Message: "Deleted"}, nil
}
