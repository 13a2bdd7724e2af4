// ABOUTME: Route table and permission-filtered navigation menu
// ABOUTME: Resolves a requested screen against the current session
package nav

import (
	"slices"

	"github.com/harperreed/salesdesk/models"
	"github.com/harperreed/salesdesk/session"
)

// Route is one screen. Page names the screen to render: "dashboard",
// "wallet", "login", "register", or an entity collection.
type Route struct {
	Path   string
	Name   string
	Page   string
	Access []string
	Public bool
}

var (
	everyone = []string{models.PermSuperAdmin, models.PermAdmin, models.PermSalesManager, models.PermSalesRep}
	managers = []string{models.PermSuperAdmin, models.PermAdmin, models.PermSalesManager}
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Routes lists every screen in menu order.
var Routes = []Route{
	{Path: "/", Name: "Dashboard", Page: "dashboard", Access: everyone},
	{Path: "/leads", Name: "Leads", Page: "leads", Access: everyone},
	{Path: "/tasks", Name: "Tasks", Page: "tasks", Access: everyone},
	{Path: "/outlets", Name: "Food Outlets", Page: "outlets", Access: everyone},
	{Path: "/activities", Name: "Activities", Page: "activities", Access: everyone},
	{Path: "/wallet", Name: "Wallet", Page: "wallet", Access: everyone},
	{Path: "/users", Name: "Users", Page: "users", Access: managers},
	{Path: "/rbac", Name: "RBAC", Page: "roles", Access: managers},
	{Path: LoginPath, Name: "Login", Page: "login", Public: true},
	{Path: "/register", Name: "Register", Page: "register", Public: true},
}

// Allowed reports whether any of perms grants the route.
func (r Route) Allowed(perms []string) bool {
	if r.Public {
		return true
	}
	for _, p := range perms {
		if slices.Contains(r.Access, p) {
			return true
		}
	}
	return false
}

// Find returns the route at path.
func Find(path string) (Route, bool) {
	for _, r := range Routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// ByPage returns the route that renders page.
func ByPage(page string) (Route, bool) {
	for _, r := range Routes {
		if r.Page == page {
			return r, true
		}
	}
	return Route{}, false
}

// Menu returns the protected routes perms can see, in menu order.
func Menu(perms []string) []Route {
	var out []Route
	for _, r := range Routes {
		if !r.Public && r.Allowed(perms) {
			out = append(out, r)
		}
	}
	return out
}

// Decision is the outcome of resolving a path.
type Decision struct {
	Route Route
	// Redirect is set when the caller should navigate elsewhere instead.
	Redirect string
	// Wait means the session is still loading; show a spinner.
	Wait bool
}

// Resolve gates path on the session. Signed-out users are sent to the login
// screen, signed-in users are kept off the public screens, and screens the
// user cannot access or that do not exist fall back to their first menu entry.
func Resolve(path string, snap session.Snapshot) Decision {
	if snap.Loading {
		return Decision{Wait: true}
	}
	route, known := Find(path)
	authed := snap.Authenticated()

	if !authed {
		if known && route.Public {
			return Decision{Route: route}
		}
		return Decision{Redirect: LoginPath}
	}

	perms := snap.Permissions()
	if known && !route.Public && route.Allowed(perms) {
		return Decision{Route: route}
	}
	home := landing(perms)
	if home.Path == path {
		return Decision{Route: home}
	}
	return Decision{Redirect: home.Path}
}

// landing is the first screen perms can see. Users with no grants still land
// on the dashboard, which degrades to zeroed figures.
func landing(perms []string) Route {
	if menu := Menu(perms); len(menu) > 0 {
		return menu[0]
	}
	return Routes[0]
}
