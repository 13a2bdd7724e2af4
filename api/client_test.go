// ABOUTME: Tests for the sales API client against a fake server
// ABOUTME: Covers headers, 401 policy, error mapping, envelopes, and mutation shapes
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/salesdesk/models"
)

type recorded struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   map[string]any
}

// fakeServer answers every request with status and body and records what it saw.
func fakeServer(t *testing.T, status int, body string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var seen []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Header: r.Header.Clone()}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
		seen = append(seen, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestRequestHeaders(t *testing.T) {
	srv, seen := fakeServer(t, 200, `{"data": {"leads": [], "pagination": {"page": 1, "limit": 10, "total": 0, "totalPages": 0}}}`)
	c := New(srv.URL + "/api")
	c.SetToken("tok-123")

	_, err := c.Leads().List(context.Background(), url.Values{"page": {"1"}})
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Equal(t, "/api/leads", got.Path)
	assert.Equal(t, "Bearer tok-123", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	_, err = uuid.Parse(got.Header.Get("X-Request-ID"))
	assert.NoError(t, err, "request id should be a uuid")
}

func TestNoAuthorizationWithoutToken(t *testing.T) {
	srv, seen := fakeServer(t, 200, `[]`)
	c := New(srv.URL)

	_, err := c.Outlets().List(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, (*seen)[0].Header.Get("Authorization"))
}

func TestUnauthorizedRunsHandlerForAnyEndpoint(t *testing.T) {
	srv, _ := fakeServer(t, 401, `{"error": "token expired"}`)

	var fired atomic.Int32
	c := New(srv.URL, WithUnauthorizedHandler(func() { fired.Add(1) }))
	ctx := context.Background()

	_, err := c.Tasks().List(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = c.Activities().Delete(ctx, "3")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.Wallet(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	assert.Equal(t, int32(3), fired.Load())
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status   int
		body     string
		sentinel error
		message  string
	}{
		{404, `{"error": "Lead not found"}`, ErrNotFound, "Lead not found"},
		{409, `{"message": "Email already registered"}`, ErrConflict, "Email already registered"},
		{422, `{"errors": {"email": "is invalid"}}`, ErrValidation, "is invalid"},
		{500, `oops`, ErrServer, "oops"},
		{403, `{"error": {"message": "nope"}}`, ErrForbidden, "nope"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv, _ := fakeServer(t, tt.status, tt.body)
			c := New(srv.URL)

			_, err := c.Leads().Get(context.Background(), "1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.status, StatusOf(err))
			assert.Equal(t, tt.message, MessageOf(err))
		})
	}
}

func TestPlainErrorBodyKeepsWholeRunes(t *testing.T) {
	// 199 ASCII bytes then a two-byte rune straddling the cap.
	body := strings.Repeat("x", 199) + "é and more"
	se := decodeError(http.MethodGet, "leads", http.StatusBadGateway, []byte(body))

	assert.True(t, utf8.ValidString(se.Message))
	assert.Equal(t, strings.Repeat("x", 199), se.Message)

	short := decodeError(http.MethodGet, "leads", http.StatusBadGateway, []byte("  upstream é down "))
	assert.Equal(t, "upstream é down", short.Message)
}

func TestValidationFieldErrorsArrayForm(t *testing.T) {
	srv, _ := fakeServer(t, 422, `{"errors": [{"path": "email", "msg": "required"}]}`)
	c := New(srv.URL)

	_, err := c.Leads().Create(context.Background(), map[string]any{"fullName": "x"})
	assert.Equal(t, map[string]string{"email": "required"}, FieldErrors(err))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(base)
	_, err := c.Leads().List(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, 0, StatusOf(err))
}

func TestTimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, WithTimeout(20*time.Millisecond))
	_, err := c.Leads().List(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestListEnvelopes(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		ids   []models.ID
		pages int
	}{
		{
			name:  "two levels",
			body:  `{"data": {"outlets": [{"id": 1}], "pagination": {"page": 2, "limit": 1, "total": 3, "totalPages": 3}}}`,
			ids:   []models.ID{"1"},
			pages: 3,
		},
		{
			name:  "one level",
			body:  `{"outlets": [{"id": 1}, {"id": 2}], "pagination": {"page": 1, "limit": 10, "total": 2, "totalPages": 1}}`,
			ids:   []models.ID{"1", "2"},
			pages: 1,
		},
		{
			name:  "alternate key",
			body:  `{"data": {"customers": [{"id": "c-9"}], "pagination": {"page": 1, "limit": 10, "total": 1, "totalPages": 1}}}`,
			ids:   []models.ID{"c-9"},
			pages: 1,
		},
		{
			name:  "data array beside pagination",
			body:  `{"data": [{"id": 4}], "pagination": {"page": 1, "limit": 10, "total": 1, "totalPages": 5}}`,
			ids:   []models.ID{"4"},
			pages: 5,
		},
		{
			name:  "bare array",
			body:  `[{"id": 7}, {"id": 8}]`,
			ids:   []models.ID{"7", "8"},
			pages: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeServer(t, 200, tt.body)
			page, err := New(srv.URL).Outlets().List(context.Background(), nil)
			require.NoError(t, err)

			var ids []models.ID
			for _, o := range page.Items {
				ids = append(ids, o.ID)
			}
			assert.Equal(t, tt.ids, ids)
			assert.Equal(t, tt.pages, page.Pagination.TotalPages)
		})
	}
}

func TestListWithoutCollectionFails(t *testing.T) {
	srv, _ := fakeServer(t, 200, `{"data": {"something": []}}`)
	_, err := New(srv.URL).Leads().List(context.Background(), nil)
	assert.Error(t, err)
}

func TestUpdateSendsPatchWithOnlyChanges(t *testing.T) {
	srv, seen := fakeServer(t, 200, `{"data": {"id": 5, "name": "Deal", "probability": 60}}`)
	c := New(srv.URL)

	task, err := c.Tasks().Update(context.Background(), "5", map[string]any{"probability": 60})
	require.NoError(t, err)
	assert.Equal(t, 60, task.Probability)

	got := (*seen)[0]
	assert.Equal(t, http.MethodPatch, got.Method)
	assert.Equal(t, "/tasks/5", got.Path)
	assert.Equal(t, map[string]any{"probability": float64(60)}, got.Body)
}

func TestCreateToleratesOddEcho(t *testing.T) {
	srv, seen := fakeServer(t, 201, `{"message": "created"}`)
	c := New(srv.URL)

	_, err := c.Roles().Create(context.Background(), map[string]any{"role_name": "Rep", "role_key": "REP"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, (*seen)[0].Method)
}

func TestGetUnwrapsSingularKey(t *testing.T) {
	srv, _ := fakeServer(t, 200, `{"data": {"lead": {"id": 11, "fullName": "Ada", "email": "ada@x.io", "status": "new"}}}`)

	lead, err := New(srv.URL).Leads().Get(context.Background(), "11")
	require.NoError(t, err)
	assert.Equal(t, "Ada", lead.FullName)
}

func TestChangeRolePermissionsBody(t *testing.T) {
	srv, seen := fakeServer(t, 200, `{}`)
	c := New(srv.URL)

	require.NoError(t, c.ChangeRolePermissions(context.Background(), "2", []string{"C"}, nil))

	got := (*seen)[0]
	assert.Equal(t, "/roles/2/permissions", got.Path)
	assert.Equal(t, []any{"C"}, got.Body["addedPermissions"])
	assert.Equal(t, []any{}, got.Body["removedPermissions"])
}

func TestChangeUserRolesAndStatus(t *testing.T) {
	srv, seen := fakeServer(t, 200, `{}`)
	c := New(srv.URL)
	ctx := context.Background()

	require.NoError(t, c.ChangeUserRoles(ctx, "8", []string{"ADMIN"}, []string{"USER"}))
	require.NoError(t, c.SetUserActive(ctx, "8", false))

	assert.Equal(t, "/users/8/roles", (*seen)[0].Path)
	assert.Equal(t, []any{"USER"}, (*seen)[0].Body["removedRoles"])
	assert.Equal(t, http.MethodPatch, (*seen)[1].Method)
	assert.Equal(t, "/users/8/status", (*seen)[1].Path)
	assert.Equal(t, false, (*seen)[1].Body["isActive"])
}

func TestLoginUnwrapsData(t *testing.T) {
	srv, seen := fakeServer(t, 200, `{"data": {"token": "jwt", "user": {"id": 1, "email": "a@b.co", "fullName": "A", "permissions": ["SALES_REP"]}}}`)

	res, err := New(srv.URL).Login(context.Background(), "a@b.co", "pw")
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Token)
	assert.Equal(t, []string{"SALES_REP"}, res.User.Permissions)
	assert.Equal(t, "/auth/login", (*seen)[0].Path)
	assert.Equal(t, "pw", (*seen)[0].Body["password"])
}

func TestAccessAndCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/access":
			_, _ = io.WriteString(w, `{"data": {"permissions": ["A", "B"]}}`)
		case "/permissions":
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			_, _ = io.WriteString(w, `{"permissions": [{"id": 1, "permission_key": "A"}, {"id": 2, "permission_key": "C"}]}`)
		}
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL)

	perms, err := c.Access(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, perms)

	catalog, err := c.PermissionCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, catalog)
}

func TestTransactionsPagingAndTotal(t *testing.T) {
	srv, seen := fakeServer(t, 200, `{"transactions": [{"id": 1, "amount": 5, "type": "commission"}], "total": 23}`)

	txs, total, err := New(srv.URL).Transactions(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	assert.Equal(t, 23, total)
	assert.Equal(t, "10", (*seen)[0].Query.Get("limit"))
	assert.Equal(t, "20", (*seen)[0].Query.Get("offset"))
}

func TestDashboardStatsDecodes(t *testing.T) {
	srv, _ := fakeServer(t, 200, `{"data": {"stats": {"leads": 4, "tasks": 2, "outlets": 1, "activities": 9, "totalRevenue": 1000, "closedRevenue": 250},
		"pipeline": [{"stage": "NEW", "count": 2, "value": 300}], "recentActivities": [], "monthlyData": [{"month": "Jan", "revenue": 10, "opportunities": 1}]}}`)

	bundle, err := New(srv.URL).DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, bundle.Stats.Leads)
	assert.Equal(t, "NEW", bundle.Pipeline[0].Stage)
	assert.Equal(t, "Jan", bundle.Monthly[0].Month)
}

func TestObserverSeesFailures(t *testing.T) {
	srv, _ := fakeServer(t, 500, `{"error": "db down"}`)

	var infos []RequestInfo
	c := New(srv.URL, WithObserver(func(info RequestInfo) { infos = append(infos, info) }))
	_, _ = c.Leads().List(context.Background(), nil)

	require.Len(t, infos, 1)
	assert.True(t, infos[0].Failed())
	assert.Equal(t, 500, infos[0].Status)
	assert.Equal(t, "leads", infos[0].Path)
	assert.True(t, errors.Is(infos[0].Err, ErrServer))
}

func TestCanceledContext(t *testing.T) {
	srv, _ := fakeServer(t, 200, `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL).Leads().List(ctx, nil)
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
}
