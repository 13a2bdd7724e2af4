// ABOUTME: Record CLI commands shared by every CRM collection
// ABOUTME: crm list, view, add, update, and delete through the entity pages
package cli

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/salesdesk/entities"
	"github.com/harperreed/salesdesk/forms"
	"github.com/harperreed/salesdesk/models"
)

// pairs collects repeated key=value flags.
type pairs map[string]string

func (p pairs) String() string {
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(p)) {
		parts = append(parts, k+"="+p[k])
	}
	return strings.Join(parts, ",")
}

func (p pairs) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	p[strings.TrimSpace(key)] = value
	return nil
}

func (a *App) page(entity string) (entities.Page, error) {
	p, ok := a.Pages.Get(entity)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q (one of %s)", entity, strings.Join(a.Pages.Names(), ", "))
	}
	return p, nil
}

// entityArg splits "<entity> [flags] [id]" style arguments.
func entityArg(args []string, usage string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, fmt.Errorf("usage: %s", usage)
	}
	return args[0], args[1:], nil
}

// ListCommand prints one page of a collection.
func ListCommand(ctx context.Context, app *App, args []string) error {
	entity, rest, err := entityArg(args, "crm list <entity> [--search text] [--filter key=value] [--page n]")
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	search := fs.String("search", "", "Free-text search")
	pageNum := fs.Int("page", 1, "Page number")
	filters := pairs{}
	fs.Var(filters, "filter", "Filter as key=value (repeatable)")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	if err := app.RequireSession(ctx); err != nil {
		return err
	}
	p, err := app.page(entity)
	if err != nil {
		return err
	}
	for key := range filters {
		if !slices.ContainsFunc(p.Filters(), func(f entities.Filter) bool { return f.Key == key }) {
			return fmt.Errorf("unknown filter %q for %s", key, p.Name())
		}
	}

	req := p.StageClear()
	if *search != "" {
		req = p.StageSearch(*search)
	}
	for _, key := range slices.Sorted(maps.Keys(filters)) {
		req = p.StageFilter(key, filters[key])
	}
	if err := p.Fetch(ctx, req); err != nil {
		return fmt.Errorf("failed to list %s: %w", p.Name(), err)
	}
	if *pageNum > 1 {
		if err := p.SetPage(ctx, *pageNum); err != nil {
			return fmt.Errorf("failed to load page %d: %w", *pageNum, err)
		}
	}

	if p.Len() == 0 {
		app.printf("No %s found\n", strings.ToLower(p.Title()))
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	var head, rule []string
	for _, c := range p.Columns() {
		head = append(head, strings.ToUpper(c.Title))
		rule = append(rule, strings.Repeat("-", len(c.Title)))
	}
	_, _ = fmt.Fprintln(w, "ID\t"+strings.Join(head, "\t"))
	_, _ = fmt.Fprintln(w, "--\t"+strings.Join(rule, "\t"))
	for i, row := range p.Rows() {
		id, _ := p.RecordID(i)
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = orDash(c)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", id, strings.Join(cells, "\t"))
	}
	_ = w.Flush()

	pg := p.Pagination()
	app.printf("\nPage %d of %d (%d total)\n", pg.Page, pg.LastPage(), pg.Total)
	return nil
}

// ViewCommand prints every display field of one record.
func ViewCommand(ctx context.Context, app *App, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: crm view <entity> <id>")
	}
	if err := app.RequireSession(ctx); err != nil {
		return err
	}
	p, err := app.page(args[0])
	if err != nil {
		return err
	}
	rec, err := p.Get(ctx, models.ID(args[1]))
	if err != nil {
		return fmt.Errorf("failed to fetch %s %s: %w", p.Name(), args[1], err)
	}

	app.printf("%s (ID: %s)\n", rec.Label, rec.ID)
	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	for _, row := range rec.View {
		_, _ = fmt.Fprintf(w, "  %s:\t%s\n", row.Label, row.Value)
	}
	return w.Flush()
}

func setFields(f *forms.Form, values pairs) error {
	editable := f.Fields()
	for _, key := range slices.Sorted(maps.Keys(values)) {
		if !slices.ContainsFunc(editable, func(fd forms.Field) bool { return fd.Key == key }) {
			var keys []string
			for _, fd := range editable {
				keys = append(keys, fd.Key)
			}
			return fmt.Errorf("unknown field %q (editable: %s)", key, strings.Join(keys, ", "))
		}
		f.Set(key, values[key])
	}
	return nil
}

// AddCommand creates a record from --set key=value pairs.
func AddCommand(ctx context.Context, app *App, args []string) error {
	entity, rest, err := entityArg(args, "crm add <entity> --set key=value ...")
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	values := pairs{}
	fs.Var(values, "set", "Field as key=value (repeatable)")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	if err := app.RequireSession(ctx); err != nil {
		return err
	}
	p, err := app.page(entity)
	if err != nil {
		return err
	}
	f := p.AddForm()
	if err := setFields(f, values); err != nil {
		return err
	}
	if missing := f.Missing(); len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if err := p.Submit(ctx, f); err != nil {
		return fmt.Errorf("failed to create %s: %w", f.Schema().Entity, err)
	}
	app.printf("✓ Created %s\n", f.Schema().Entity)
	return nil
}

// UpdateCommand changes fields of one record; unchanged values are not sent.
func UpdateCommand(ctx context.Context, app *App, args []string) error {
	entity, rest, err := entityArg(args, "crm update <entity> [--set key=value ...] <id>")
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	values := pairs{}
	fs.Var(values, "set", "Field as key=value (repeatable)")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("record ID is required")
	}
	id := models.ID(fs.Arg(0))

	if err := app.RequireSession(ctx); err != nil {
		return err
	}
	p, err := app.page(entity)
	if err != nil {
		return err
	}
	rec, err := p.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch %s %s: %w", p.Name(), id, err)
	}
	f := rec.EditForm(p.Schema())
	if err := setFields(f, values); err != nil {
		return err
	}
	if !f.CanSubmit() {
		app.printf("No changes\n")
		return nil
	}
	if err := p.Submit(ctx, f); err != nil {
		return fmt.Errorf("failed to update %s %s: %w", f.Schema().Entity, id, err)
	}
	app.printf("✓ Updated %s %s (%s)\n", f.Schema().Entity, id, strings.Join(f.Changed(), ", "))
	return nil
}

// DeleteCommand removes a record after confirmation.
func DeleteCommand(ctx context.Context, app *App, args []string) error {
	entity, rest, err := entityArg(args, "crm delete <entity> [--yes] <id>")
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("record ID is required")
	}
	id := models.ID(fs.Arg(0))

	if err := app.RequireSession(ctx); err != nil {
		return err
	}
	p, err := app.page(entity)
	if err != nil {
		return err
	}
	if p.ConfirmDelete() && !*yes {
		label := string(id)
		if rec, err := p.Get(ctx, id); err == nil && rec.Label != "" {
			label = rec.Label
		}
		if !app.confirm(fmt.Sprintf("Delete %s %q?", p.Schema().Entity, label)) {
			app.printf("Cancelled\n")
			return nil
		}
	}
	if err := p.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", p.Schema().Entity, id, err)
	}
	app.printf("✓ Deleted %s %s\n", p.Schema().Entity, id)
	return nil
}
