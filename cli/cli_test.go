// ABOUTME: Tests for CLI commands against an httptest sales API
// ABOUTME: Login flow, record commands, delete confirmation, access diffs, wallet, and journal
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/salesdesk/config"
	"github.com/harperreed/salesdesk/db"
	"github.com/harperreed/salesdesk/logging"
	"github.com/harperreed/salesdesk/session"
)

type call struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

type fakeServer struct {
	mu     sync.Mutex
	calls  []call
	routes map[string]string
	status map[string]int
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := call{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &c.Body)
	}
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.calls = append(f.calls, c)
	body, ok := f.routes[key]
	status := f.status[key]
	f.mu.Unlock()

	if !ok {
		body = `{"data": {}}`
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeServer) find(method, path string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

const loginBody = `{"data": {"token": "tok-1", "user": {"id": 9, "email": "rep@acme.co", "fullName": "Rita Rep", "permissions": ["SALES_REP"]}}}`

func newTestApp(t *testing.T, routes map[string]string) (*App, *fakeServer, *bytes.Buffer) {
	t.Helper()
	f := &fakeServer{routes: routes, status: map[string]int{}}
	if _, ok := f.routes["POST /auth/login"]; !ok {
		f.routes["POST /auth/login"] = loginBody
	}
	if _, ok := f.routes["GET /users/access"]; !ok {
		f.routes["GET /users/access"] = `{"data": {"permissions": ["SALES_REP"]}}`
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	journal, err := db.OpenDatabase(filepath.Join(dir, "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	cfg := config.Default()
	cfg.APIURL = srv.URL
	app := NewApp(cfg, logging.Discard(), session.NewFileStorage(filepath.Join(dir, "session.json")), journal)

	out := &bytes.Buffer{}
	app.Out = out
	app.In = strings.NewReader("")
	app.Password = func(string) (string, error) { return "secret", nil }
	return app, f, out
}

func login(t *testing.T, app *App) {
	t.Helper()
	require.NoError(t, LoginCommand(context.Background(), app, []string{"--email", "rep@acme.co"}))
}

func TestLoginPromptsForPassword(t *testing.T) {
	app, f, out := newTestApp(t, map[string]string{})

	login(t, app)

	posts := f.find(http.MethodPost, "/auth/login")
	require.Len(t, posts, 1)
	assert.Equal(t, "secret", posts[0].Body["password"])
	assert.Contains(t, out.String(), "Logged in as Rita Rep")
	assert.Equal(t, "tok-1", app.Client.Token())
}

func TestCommandsNeedASession(t *testing.T) {
	app, _, _ := newTestApp(t, map[string]string{})
	err := ListCommand(context.Background(), app, []string{"leads"})
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestLoginFailureMessage(t *testing.T) {
	app, f, _ := newTestApp(t, map[string]string{"POST /auth/login": `{"message": "nope"}`})
	f.status["POST /auth/login"] = http.StatusUnauthorized

	err := LoginCommand(context.Background(), app, []string{"--email", "rep@acme.co", "--password", "bad"})
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", err.Error())
}

func TestWhoamiListsScreens(t *testing.T) {
	app, _, out := newTestApp(t, map[string]string{})
	login(t, app)
	out.Reset()

	require.NoError(t, WhoamiCommand(context.Background(), app, nil))
	assert.Contains(t, out.String(), "Rita Rep <rep@acme.co>")
	assert.Contains(t, out.String(), "Dashboard, Leads")
	assert.NotContains(t, out.String(), "Users")
}

const leadsBody = `{"data": {"leads": [
	{"id": 1, "fullName": "Alice Adams", "email": "alice@acme.co", "status": "new"}
], "pagination": {"page": 1, "limit": 10, "total": 1, "totalPages": 1}}}`

func TestListCommand(t *testing.T) {
	app, f, out := newTestApp(t, map[string]string{"GET /leads": leadsBody})
	login(t, app)
	out.Reset()

	err := ListCommand(context.Background(), app, []string{"leads", "--search", "acme", "--filter", "status=new"})
	require.NoError(t, err)

	lists := f.find(http.MethodGet, "/leads")
	require.Len(t, lists, 1)
	assert.Equal(t, "acme", lists[0].Query.Get("search"))
	assert.Equal(t, "new", lists[0].Query.Get("status"))
	assert.Contains(t, out.String(), "Alice Adams")
	assert.Contains(t, out.String(), "Page 1 of 1 (1 total)")

	err = ListCommand(context.Background(), app, []string{"leads", "--filter", "color=red"})
	assert.ErrorContains(t, err, "unknown filter")
}

func TestAddCommandChecksRequiredFields(t *testing.T) {
	app, f, _ := newTestApp(t, map[string]string{})
	login(t, app)
	ctx := context.Background()

	err := AddCommand(ctx, app, []string{"outlets", "--set", "outletName=Corner Cafe"})
	assert.ErrorContains(t, err, "missing required fields")
	assert.Empty(t, f.find(http.MethodPost, "/outlets"))

	err = AddCommand(ctx, app, []string{"outlets",
		"--set", "outletName=Corner Cafe", "--set", "contactName=Sam", "--set", "email=sam@cafe.co"})
	require.NoError(t, err)
	posts := f.find(http.MethodPost, "/outlets")
	require.Len(t, posts, 1)
	assert.Equal(t, "Corner Cafe", posts[0].Body["outletName"])
}

func TestUpdateCommandSendsOnlyChanges(t *testing.T) {
	app, f, out := newTestApp(t, map[string]string{
		"GET /tasks/4": `{"data": {"id": 4, "name": "Espresso machines", "stage": "DEMO", "probability": 40, "amount": "1200"}}`,
	})
	login(t, app)
	out.Reset()

	require.NoError(t, UpdateCommand(context.Background(), app, []string{"tasks", "--set", "probability=60", "--set", "stage=DEMO", "4"}))

	patches := f.find(http.MethodPatch, "/tasks/4")
	require.Len(t, patches, 1)
	assert.Equal(t, map[string]any{"probability": float64(60)}, patches[0].Body)
	assert.Contains(t, out.String(), "Updated task 4 (probability)")
}

func TestDeleteCommandConfirms(t *testing.T) {
	app, f, out := newTestApp(t, map[string]string{
		"GET /leads/1": `{"data": {"id": 1, "fullName": "Alice Adams", "email": "alice@acme.co"}}`,
	})
	login(t, app)
	ctx := context.Background()

	app.In = strings.NewReader("n\n")
	require.NoError(t, DeleteCommand(ctx, app, []string{"leads", "1"}))
	assert.Contains(t, out.String(), `Delete lead "Alice Adams"?`)
	assert.Contains(t, out.String(), "Cancelled")
	assert.Empty(t, f.find(http.MethodDelete, "/leads/1"))

	require.NoError(t, DeleteCommand(ctx, app, []string{"leads", "--yes", "1"}))
	assert.Len(t, f.find(http.MethodDelete, "/leads/1"), 1)
}

func TestPermissionsCommandSendsDiff(t *testing.T) {
	app, f, out := newTestApp(t, map[string]string{
		"GET /roles/2":     `{"data": {"id": 2, "role_key": "MANAGER", "role_name": "Manager", "permissions": ["A", "B"]}}`,
		"GET /permissions": `{"data": {"permissions": [{"id": 1, "permission_key": "A"}, {"id": 2, "permission_key": "B"}, {"id": 3, "permission_key": "C"}]}}`,
	})
	login(t, app)
	ctx := context.Background()

	require.NoError(t, PermissionsCommand(ctx, app, []string{"--add", "C,B", "--remove", "A", "2"}))
	posts := f.find(http.MethodPost, "/roles/2/permissions")
	require.Len(t, posts, 1)
	assert.Equal(t, []any{"C"}, posts[0].Body["addedPermissions"])
	assert.Equal(t, []any{"A"}, posts[0].Body["removedPermissions"])
	assert.Contains(t, out.String(), "+[C] -[A]")

	err := PermissionsCommand(ctx, app, []string{"--add", "Z", "2"})
	assert.ErrorContains(t, err, `unknown key "Z"`)
}

func TestRolesAndSetActive(t *testing.T) {
	app, f, _ := newTestApp(t, map[string]string{
		"GET /users/5": `{"data": {"id": 5, "email": "u@acme.co", "fullName": "Uma", "roles": ["SALES_REP"]}}`,
	})
	login(t, app)
	ctx := context.Background()

	require.NoError(t, RolesCommand(ctx, app, []string{"--add", "MANAGER", "5"}))
	posts := f.find(http.MethodPost, "/users/5/roles")
	require.Len(t, posts, 1)
	assert.Equal(t, []any{"MANAGER"}, posts[0].Body["addedRoles"])
	assert.Equal(t, []any{}, posts[0].Body["removedRoles"])

	require.NoError(t, SetActiveCommand(ctx, app, []string{"--active=false", "5"}))
	patches := f.find(http.MethodPatch, "/users/5/status")
	require.Len(t, patches, 1)
	assert.Equal(t, false, patches[0].Body["isActive"])
}

func TestWalletCommandPersonalView(t *testing.T) {
	app, f, out := newTestApp(t, map[string]string{
		"GET /wallet":              `{"data": {"balance": 1500, "totalEarned": 4000}}`,
		"GET /wallet/transactions": `{"data": {"transactions": [{"id": 1, "amount": 250, "description": "Commission", "lead_company": "Acme", "created_at": "2024-05-01T10:00:00Z"}], "total": 1}}`,
	})
	login(t, app)
	out.Reset()

	require.NoError(t, WalletCommand(context.Background(), app, nil))
	assert.Contains(t, out.String(), "$1,500.00")
	assert.Contains(t, out.String(), "No payouts yet")
	assert.Contains(t, out.String(), "2024-05-01")
	assert.Empty(t, f.find(http.MethodGet, "/wallet/admin/all"))

	err := WalletCommand(context.Background(), app, []string{"payout", "--user", "9", "--amount", "10"})
	assert.ErrorContains(t, err, "admin")
}

func TestUnauthorizedExpiresSessionAndIsJournaled(t *testing.T) {
	app, f, out := newTestApp(t, map[string]string{"GET /leads": `{"message": "token expired"}`})
	login(t, app)
	f.mu.Lock()
	f.status["GET /leads"] = http.StatusUnauthorized
	f.mu.Unlock()

	err := ListCommand(context.Background(), app, []string{"leads"})
	require.Error(t, err)
	assert.False(t, app.Session.IsAuthenticated())
	assert.Empty(t, app.Client.Token())

	out.Reset()
	require.NoError(t, JournalCommand(app, nil))
	assert.Contains(t, out.String(), "leads")
	assert.Contains(t, out.String(), "401")
}

func TestPairsFlag(t *testing.T) {
	p := pairs{}
	require.NoError(t, p.Set("name=Big Deal"))
	require.NoError(t, p.Set("notes=a=b"))
	assert.Equal(t, "a=b", p["notes"])
	assert.Error(t, p.Set("novalue"))
	assert.Equal(t, "name=Big Deal,notes=a=b", p.String())
}
