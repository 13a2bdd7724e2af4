// ABOUTME: Tests for entity bindings against a fake API
// ABOUTME: Search reset scenario, partial updates, assignment diffs, toggles, and lookups
package entities

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/salesdesk/api"
	"github.com/harperreed/salesdesk/forms"
	"github.com/harperreed/salesdesk/logging"
	"github.com/harperreed/salesdesk/models"
	"github.com/harperreed/salesdesk/notify"
)

type hit struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

type fakeAPI struct {
	mu     sync.Mutex
	hits   []hit
	routes map[string]string
}

// newFakeAPI answers "METHOD /path" from routes, or {} for anything else.
func newFakeAPI(t *testing.T, routes map[string]string) (*fakeAPI, *api.Client) {
	t.Helper()
	f := &fakeAPI{routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := hit{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &h.Body)
		}
		f.mu.Lock()
		f.hits = append(f.hits, h)
		f.mu.Unlock()

		body, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			body = `{}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return f, api.New(srv.URL)
}

func (f *fakeAPI) calls(method, path string) []hit {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []hit
	for _, h := range f.hits {
		if h.Method == method && h.Path == path {
			out = append(out, h)
		}
	}
	return out
}

func newRegistry(client *api.Client) (*Registry, *notify.Recorder) {
	rec := &notify.Recorder{}
	return Build(client, rec, logging.Discard(), 10), rec
}

const leadsPage = `{"data": {"data": {"leads": [
	{"id": 1, "fullName": "Alice Adams", "email": "alice@acme.co", "status": "new", "leadSource": "Website",
	 "outlet": {"id": 4, "outletName": "Acme Deli"}, "createdAt": "2024-05-01T10:00:00Z"}
], "pagination": {"page": 3, "limit": 10, "total": 41, "totalPages": 5}}}}`

func TestSearchOnLaterPageResetsToFirst(t *testing.T) {
	fake, client := newFakeAPI(t, map[string]string{"GET /leads": leadsPage})
	reg, _ := newRegistry(client)
	leads, ok := reg.Get("leads")
	require.True(t, ok)
	ctx := context.Background()

	require.NoError(t, leads.Refresh(ctx))
	require.NoError(t, leads.SetPage(ctx, 3))
	assert.Equal(t, 3, leads.Query().Page)

	require.NoError(t, leads.SetSearch(ctx, "acme"))

	calls := fake.calls(http.MethodGet, "/leads")
	require.Len(t, calls, 3)
	last := calls[2].Query
	assert.Equal(t, "acme", last.Get("search"))
	assert.Equal(t, "1", last.Get("page"))
	assert.Equal(t, "10", last.Get("limit"))
}

func TestLeadRowsAndView(t *testing.T) {
	_, client := newFakeAPI(t, map[string]string{"GET /leads": leadsPage})
	reg, _ := newRegistry(client)
	leads, _ := reg.Get("lead")
	require.NoError(t, leads.Refresh(context.Background()))

	require.Equal(t, 1, leads.Len())
	row := leads.Rows()[0]
	assert.Equal(t, []string{"Alice Adams", "alice@acme.co", "new", "Website", "Acme Deli"}, row[:5])
	assert.Equal(t, "Alice Adams", leads.RecordLabel(0))

	view, err := leads.View(0)
	require.NoError(t, err)
	byLabel := map[string]string{}
	for _, r := range view {
		byLabel[r.Label] = r.Value
	}
	assert.Equal(t, forms.NA, byLabel["Phone"])
	assert.Equal(t, "2024-05-01", byLabel["Created"])

	_, err = leads.View(5)
	assert.ErrorIs(t, err, ErrNoRecord)
}

const tasksPage = `{"data": {"tasks": [
	{"id": "t-1", "name": "Deli rollout", "outletId": 4, "amount": "1500.50", "stage": "DEMO",
	 "status": "PENDING", "probability": 40, "outlet": {"id": 4, "outletName": "Acme Deli"}}
], "pagination": {"page": 1, "limit": 10, "total": 1, "totalPages": 1}}}`

func TestTaskEditSendsOnlyProbability(t *testing.T) {
	fake, client := newFakeAPI(t, map[string]string{"GET /tasks": tasksPage})
	reg, rec := newRegistry(client)
	tasks, _ := reg.Get("tasks")
	ctx := context.Background()
	require.NoError(t, tasks.Refresh(ctx))

	f, err := tasks.EditForm(0)
	require.NoError(t, err)
	assert.Equal(t, "Acme Deli", f.Label("outletId"))
	assert.False(t, f.CanSubmit())

	f.Set("probability", "60")
	require.NoError(t, tasks.Submit(ctx, f))

	patches := fake.calls(http.MethodPatch, "/tasks/t-1")
	require.Len(t, patches, 1)
	assert.Equal(t, map[string]any{"probability": float64(60)}, patches[0].Body)
	assert.Len(t, fake.calls(http.MethodGet, "/tasks"), 2, "update re-queries the list")
	assert.Empty(t, rec.Errors())
}

func TestSubmitInvalidFormSendsNothing(t *testing.T) {
	fake, client := newFakeAPI(t, nil)
	reg, _ := newRegistry(client)
	leads, _ := reg.Get("leads")

	f := leads.AddForm()
	f.Set("email", "nope")
	err := leads.Submit(context.Background(), f)

	var errs forms.Errors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "email")
	assert.Empty(t, fake.calls(http.MethodPost, "/leads"))
}

const rolesPage = `{"data": {"roles": [
	{"id": 2, "role_key": "SALES_REP", "role_name": "Sales Rep", "permissions": ["A", "B"]}
], "pagination": {"page": 1, "limit": 10, "total": 1, "totalPages": 1}}}`

const permissionsPage = `{"data": {"permissions": [
	{"id": 1, "permission_key": "A"}, {"id": 2, "permission_key": "B"}, {"id": 3, "permission_key": "C"}
]}}`

func TestRolePermissionDiff(t *testing.T) {
	fake, client := newFakeAPI(t, map[string]string{
		"GET /roles":       rolesPage,
		"GET /permissions": permissionsPage,
	})
	reg, _ := newRegistry(client)
	roles, _ := reg.Get("roles")
	ctx := context.Background()
	require.NoError(t, roles.Refresh(ctx))

	editor, err := roles.OpenAssignments(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, editor.Available())

	require.True(t, editor.Assign("C"))
	require.True(t, editor.Unassign("A"))
	f, err := roles.EditForm(0)
	require.NoError(t, err)

	require.NoError(t, roles.SaveEdit(ctx, f, editor))

	posts := fake.calls(http.MethodPost, "/roles/2/permissions")
	require.Len(t, posts, 1)
	assert.Equal(t, map[string]any{
		"addedPermissions":   []any{"C"},
		"removedPermissions": []any{"A"},
	}, posts[0].Body)
	assert.Empty(t, fake.calls(http.MethodPatch, "/roles/2"), "an unchanged name is not sent")
	assert.Len(t, fake.calls(http.MethodGet, "/roles"), 2)
}

func TestRoleRenameThenDiff(t *testing.T) {
	fake, client := newFakeAPI(t, map[string]string{
		"GET /roles":       rolesPage,
		"GET /permissions": permissionsPage,
	})
	reg, _ := newRegistry(client)
	roles, _ := reg.Get("roles")
	ctx := context.Background()
	require.NoError(t, roles.Refresh(ctx))

	editor, err := roles.OpenAssignments(ctx, 0)
	require.NoError(t, err)
	f, _ := roles.EditForm(0)
	f.Set("role_name", "Field Sales")

	require.NoError(t, roles.SaveEdit(ctx, f, editor))

	patches := fake.calls(http.MethodPatch, "/roles/2")
	require.Len(t, patches, 1)
	assert.Equal(t, map[string]any{"role_name": "Field Sales"}, patches[0].Body)
	assert.Empty(t, fake.calls(http.MethodPost, "/roles/2/permissions"), "an empty diff is not sent")
}

func TestSaveEditWithNothingChangedIsNoop(t *testing.T) {
	fake, client := newFakeAPI(t, map[string]string{"GET /roles": rolesPage, "GET /permissions": permissionsPage})
	reg, _ := newRegistry(client)
	roles, _ := reg.Get("roles")
	ctx := context.Background()
	require.NoError(t, roles.Refresh(ctx))

	editor, _ := roles.OpenAssignments(ctx, 0)
	f, _ := roles.EditForm(0)
	require.NoError(t, roles.SaveEdit(ctx, f, editor))

	assert.Len(t, fake.calls(http.MethodGet, "/roles"), 1)
}

const usersPage = `{"data": {"users": [
	{"id": 7, "email": "pat@x.co", "fullName": "Pat Lee", "isActive": true, "roles": ["SALES_REP"], "permissions": []}
], "pagination": {"page": 1, "limit": 10, "total": 1, "totalPages": 1}}}`

func TestUserRolesAndToggle(t *testing.T) {
	fake, client := newFakeAPI(t, map[string]string{"GET /users": usersPage})
	reg, _ := newRegistry(client)
	users, _ := reg.Get("users")
	ctx := context.Background()
	require.NoError(t, users.Refresh(ctx))

	assert.Equal(t, "Roles", users.AssignmentTitle())
	editor, err := users.OpenAssignments(ctx, 0)
	require.NoError(t, err)
	require.True(t, editor.Assign("MANAGER"))
	f, _ := users.EditForm(0)
	require.NoError(t, users.SaveEdit(ctx, f, editor))

	posts := fake.calls(http.MethodPost, "/users/7/roles")
	require.Len(t, posts, 1)
	assert.Equal(t, []any{"MANAGER"}, posts[0].Body["addedRoles"])
	assert.Equal(t, []any{}, posts[0].Body["removedRoles"])

	require.NoError(t, users.Toggle(ctx, 0))
	status := fake.calls(http.MethodPatch, "/users/7/status")
	require.Len(t, status, 1)
	assert.Equal(t, map[string]any{"isActive": false}, status[0].Body)
}

func TestUnsupportedActions(t *testing.T) {
	_, client := newFakeAPI(t, map[string]string{"GET /leads": leadsPage})
	reg, _ := newRegistry(client)
	leads, _ := reg.Get("leads")
	require.NoError(t, leads.Refresh(context.Background()))

	_, err := leads.OpenAssignments(context.Background(), 0)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.ErrorIs(t, leads.Toggle(context.Background(), 0), ErrUnsupported)
	assert.Empty(t, leads.ToggleLabel())
}

func TestEveryEntityConfirmsDelete(t *testing.T) {
	_, client := newFakeAPI(t, nil)
	reg, _ := newRegistry(client)
	assert.Equal(t, []string{"leads", "tasks", "outlets", "activities", "users", "roles"}, reg.Names())
	for _, p := range reg.Pages() {
		assert.True(t, p.ConfirmDelete(), p.Name())
	}
}

func TestDeleteRequeries(t *testing.T) {
	fake, client := newFakeAPI(t, map[string]string{"GET /tasks": tasksPage})
	reg, rec := newRegistry(client)
	tasks, _ := reg.Get("tasks")

	require.NoError(t, tasks.Delete(context.Background(), "t-1"))

	assert.Len(t, fake.calls(http.MethodDelete, "/tasks/t-1"), 1)
	assert.Len(t, fake.calls(http.MethodGet, "/tasks"), 1)
	require.Len(t, rec.Notices(), 1)
	assert.Equal(t, "Deleted task", rec.Notices()[0].Message)
}

func TestGetRecordForEditing(t *testing.T) {
	_, client := newFakeAPI(t, map[string]string{
		"GET /tasks/t-1": `{"data": {"task": {"id": "t-1", "name": "Deli rollout", "probability": 40, "stage": "DEMO"}}}`,
	})
	reg, _ := newRegistry(client)
	tasks, _ := reg.Get("tasks")

	r, err := tasks.Get(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, models.ID("t-1"), r.ID)
	f := r.EditForm(tasks.Schema())
	assert.Equal(t, "40", f.Get("probability"))
}

func TestLookup(t *testing.T) {
	fake, client := newFakeAPI(t, map[string]string{
		"GET /outlets": `{"data": {"outlets": [{"id": 4, "outletName": "Acme Deli"}]}}`,
	})
	reg, _ := newRegistry(client)

	search := reg.Lookup("outlets")
	require.NotNil(t, search)
	opts, err := search(context.Background(), " acme ")
	require.NoError(t, err)
	assert.Equal(t, []forms.Option{{ID: "4", Label: "Acme Deli"}}, opts)

	q := fake.calls(http.MethodGet, "/outlets")[0].Query
	assert.Equal(t, "acme", q.Get("search"))
	assert.Equal(t, "10", q.Get("limit"))

	assert.Nil(t, reg.Lookup("spaceships"))
}

func TestMoneyAndDay(t *testing.T) {
	assert.Equal(t, "$1,500.50", Money(1500.5))
	assert.Equal(t, "$0.00", Money(0))
	assert.Equal(t, "2024-05-01", Day("2024-05-01T10:00:00Z"))
	assert.Equal(t, "", Day(""))
}
