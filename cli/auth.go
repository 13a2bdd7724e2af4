// ABOUTME: Session CLI commands
// ABOUTME: login, register, logout, whoami, and refresh-access against the stored session
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/salesdesk/models"
	"github.com/harperreed/salesdesk/nav"
)

// LoginCommand signs in and stores the session.
func LoginCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		v, err := app.readLine("Email: ")
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
		*email = v
	}
	if *email == "" {
		return fmt.Errorf("--email is required")
	}
	if *password == "" {
		v, err := app.Password("Password: ")
		if err != nil {
			return err
		}
		*password = v
	}

	if err := app.Session.Login(ctx, *email, *password); err != nil {
		return err
	}

	u := app.Session.User()
	app.printf("✓ Logged in as %s (%s)\n", u.DisplayName(), u.Email)
	return nil
}

// RegisterCommand creates an account and signs in with it.
func RegisterCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "Account email (required)")
	first := fs.String("first-name", "", "First name")
	last := fs.String("last-name", "", "Last name")
	role := fs.String("role", "", "Requested role")
	password := fs.String("password", "", "Password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}
	if *password == "" {
		v, err := app.Password("Password: ")
		if err != nil {
			return err
		}
		confirm, err := app.Password("Confirm password: ")
		if err != nil {
			return err
		}
		if v != confirm {
			return fmt.Errorf("passwords do not match")
		}
		*password = v
	}

	err := app.Session.Register(ctx, models.RegisterRequest{
		Email:     *email,
		Password:  *password,
		FirstName: *first,
		LastName:  *last,
		Role:      *role,
	})
	if err != nil {
		return err
	}

	app.printf("✓ Registered and logged in as %s\n", app.Session.User().DisplayName())
	return nil
}

func LogoutCommand(ctx context.Context, app *App, _ []string) error {
	if err := app.Session.Init(ctx); err != nil {
		app.Logger.Warn("ignoring unreadable stored session", "err", err)
	}
	app.Wait(2 * time.Second)
	if !app.Session.IsAuthenticated() {
		app.printf("Not logged in\n")
		return nil
	}
	app.Session.Logout(ctx)
	app.printf("✓ Logged out\n")
	return nil
}

// WhoamiCommand shows the signed-in user and the screens they can open.
func WhoamiCommand(ctx context.Context, app *App, _ []string) error {
	if err := app.RequireSession(ctx); err != nil {
		return err
	}
	u := app.Session.User()

	app.printf("%s <%s>\n", u.DisplayName(), u.Email)
	if len(u.Roles) > 0 {
		app.printf("  Roles:       %s\n", strings.Join(u.Roles, ", "))
	}
	app.printf("  Permissions: %s\n", orDash(strings.Join(u.Permissions, ", ")))

	var screens []string
	for _, r := range nav.Menu(u.Permissions) {
		screens = append(screens, r.Name)
	}
	app.printf("  Screens:     %s\n", orDash(strings.Join(screens, ", ")))
	return nil
}

func RefreshAccessCommand(ctx context.Context, app *App, _ []string) error {
	if err := app.RequireSession(ctx); err != nil {
		return err
	}
	if err := app.Session.RefreshPermissions(ctx); err != nil {
		return fmt.Errorf("failed to refresh access: %w", err)
	}
	app.printf("✓ Permissions: %s\n", orDash(strings.Join(app.Session.Permissions(), ", ")))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
