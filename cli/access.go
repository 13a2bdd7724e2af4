// ABOUTME: Access-management CLI commands
// ABOUTME: Role permission diffs, user role diffs, and user activation
package cli

import (
	"context"
	"flag"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/harperreed/salesdesk/forms"
	"github.com/harperreed/salesdesk/models"
)

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// applyDiff runs the requested adds and removes through an assignment editor
// so only real changes are sent and unknown keys are rejected.
func applyDiff(catalog, current, add, remove []string) (added, removed []string, err error) {
	ed := forms.NewAssignmentEditor(catalog, current)
	for _, k := range add {
		if !slices.Contains(catalog, k) {
			return nil, nil, fmt.Errorf("unknown key %q", k)
		}
		ed.Assign(k)
	}
	for _, k := range remove {
		ed.Unassign(k)
	}
	added, removed = ed.Diff()
	return added, removed, nil
}

type assignFlags struct {
	id     models.ID
	add    []string
	remove []string
}

func parseAssign(name string, args []string) (assignFlags, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	add := fs.String("add", "", "Comma-separated keys to add")
	remove := fs.String("remove", "", "Comma-separated keys to remove")
	if err := fs.Parse(args); err != nil {
		return assignFlags{}, err
	}
	if fs.NArg() != 1 {
		return assignFlags{}, fmt.Errorf("usage: crm %s [--add a,b] [--remove c] <id>", name)
	}
	return assignFlags{id: models.ID(fs.Arg(0)), add: splitList(*add), remove: splitList(*remove)}, nil
}

// PermissionsCommand edits the permission set of a role.
func PermissionsCommand(ctx context.Context, app *App, args []string) error {
	in, err := parseAssign("permissions", args)
	if err != nil {
		return err
	}
	if err := app.RequireSession(ctx); err != nil {
		return err
	}

	role, err := app.Client.Roles().Get(ctx, in.id)
	if err != nil {
		return fmt.Errorf("failed to fetch role %s: %w", in.id, err)
	}
	catalog, err := app.Client.PermissionCatalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to load permissions: %w", err)
	}
	added, removed, err := applyDiff(catalog, role.Permissions, in.add, in.remove)
	if err != nil {
		return err
	}
	if len(added) == 0 && len(removed) == 0 {
		app.printf("No changes\n")
		return nil
	}
	if err := app.Client.ChangeRolePermissions(ctx, in.id, added, removed); err != nil {
		return fmt.Errorf("failed to change permissions: %w", err)
	}
	app.printf("✓ Role %s: +[%s] -[%s]\n", role.RoleName, strings.Join(added, ", "), strings.Join(removed, ", "))
	return nil
}

// RolesCommand edits the role set of a user.
func RolesCommand(ctx context.Context, app *App, args []string) error {
	in, err := parseAssign("roles", args)
	if err != nil {
		return err
	}
	if err := app.RequireSession(ctx); err != nil {
		return err
	}

	user, err := app.Client.Users().Get(ctx, in.id)
	if err != nil {
		return fmt.Errorf("failed to fetch user %s: %w", in.id, err)
	}
	added, removed, err := applyDiff(models.PossibleRoles, user.Roles, in.add, in.remove)
	if err != nil {
		return err
	}
	if len(added) == 0 && len(removed) == 0 {
		app.printf("No changes\n")
		return nil
	}
	if err := app.Client.ChangeUserRoles(ctx, in.id, added, removed); err != nil {
		return fmt.Errorf("failed to change roles: %w", err)
	}
	app.printf("✓ User %s: +[%s] -[%s]\n", user.DisplayName(), strings.Join(added, ", "), strings.Join(removed, ", "))
	return nil
}

// SetActiveCommand activates or deactivates a user account.
func SetActiveCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("set-active", flag.ContinueOnError)
	active := fs.String("active", "true", "true to activate, false to deactivate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: crm set-active [--active=false] <userID>")
	}
	on, err := strconv.ParseBool(*active)
	if err != nil {
		return fmt.Errorf("invalid --active: %w", err)
	}
	if err := app.RequireSession(ctx); err != nil {
		return err
	}

	id := models.ID(fs.Arg(0))
	if err := app.Client.SetUserActive(ctx, id, on); err != nil {
		return fmt.Errorf("failed to update user %s: %w", id, err)
	}
	state := "deactivated"
	if on {
		state = "activated"
	}
	app.printf("✓ User %s %s\n", id, state)
	return nil
}
