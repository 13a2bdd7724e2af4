// ABOUTME: Tests for the wallet loader
// ABOUTME: Admin vs personal views, ledger paging, and payout validation
package wallet

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/salesdesk/api"
	"github.com/harperreed/salesdesk/logging"
	"github.com/harperreed/salesdesk/models"
	"github.com/harperreed/salesdesk/notify"
)

type walletServer struct {
	mu      sync.Mutex
	hits    []string
	queries []string
	payout  map[string]any
	failTx  bool
}

func (s *walletServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits = append(s.hits, r.Method+" "+r.URL.Path)
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch r.Method + " " + r.URL.Path {
	case "GET /wallet":
		_, _ = io.WriteString(w, `{"data": {"id": 1, "userId": 7, "balance": 120.5, "totalEarned": 900}}`)
	case "GET /wallet/transactions":
		if s.failTx {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"message": "ledger offline"}`)
			return
		}
		s.mu.Lock()
		s.queries = append(s.queries, r.URL.RawQuery)
		s.mu.Unlock()
		_, _ = io.WriteString(w, `{"data": {"transactions": [{"id": 3, "amount": 50, "description": "Commission"}], "total": 23}}`)
	case "GET /wallet/admin/all":
		_, _ = io.WriteString(w, `{"data": {"wallets": [{"userId": 7, "fullName": "Alice", "balance": 120.5}]}}`)
	case "GET /wallet/admin/pending-payouts":
		_, _ = io.WriteString(w, `{"data": {"payouts": [{"id": 2, "userId": 7, "amount": 40}]}}`)
	case "POST /wallet/admin/payout":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.payout = body
		s.mu.Unlock()
		_, _ = io.WriteString(w, `{"data": {}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *walletServer) saw(hit string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.hits {
		if h == hit {
			return true
		}
	}
	return false
}

func newLoader(t *testing.T, s *walletServer) (*Loader, *notify.Recorder) {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	rec := &notify.Recorder{}
	return NewLoader(api.New(srv.URL), rec, logging.Discard()), rec
}

func TestAdminSeesAllWallets(t *testing.T) {
	s := &walletServer{}
	l, _ := newLoader(t, s)

	admin := models.User{ID: "1", Permissions: []string{models.PermAdmin}}
	v, err := l.Load(context.Background(), admin, 3)
	require.NoError(t, err)

	assert.True(t, v.Admin)
	require.Len(t, v.Wallets, 1)
	assert.Equal(t, "Alice", v.Wallets[0].FullName)
	require.Len(t, v.Pending, 1)
	assert.True(t, s.saw("GET /wallet/admin/all"))
	assert.False(t, s.saw("GET /wallet"), "admins do not load the single-user summary")
	assert.False(t, v.HasNext())
}

func TestPersonalWalletPages(t *testing.T) {
	s := &walletServer{}
	l, _ := newLoader(t, s)

	rep := models.User{ID: "7", Permissions: []string{models.PermSalesRep}}
	v, err := l.Load(context.Background(), rep, 2)
	require.NoError(t, err)

	assert.False(t, v.Admin)
	assert.Equal(t, 120.5, v.Wallet.Balance)
	require.Len(t, v.Transactions, 1)
	assert.Equal(t, 2, v.Page)
	assert.Equal(t, 3, v.TotalPages)
	assert.True(t, v.HasPrev())
	assert.True(t, v.HasNext())
	assert.Equal(t, []string{"limit=10&offset=10"}, s.queries)
	assert.False(t, s.saw("GET /wallet/admin/all"))
}

func TestPersonalWalletFailureNotifies(t *testing.T) {
	s := &walletServer{failTx: true}
	l, rec := newLoader(t, s)

	_, err := l.Load(context.Background(), models.User{ID: "7"}, 0)
	require.Error(t, err)
	require.Len(t, rec.Errors(), 1)
	assert.Equal(t, "Failed to fetch wallet data", rec.Errors()[0].Message)
}

func TestPayout(t *testing.T) {
	s := &walletServer{}
	l, rec := newLoader(t, s)
	ctx := context.Background()

	rep := models.User{ID: "7", Permissions: []string{models.PermSalesRep}}
	_, err := l.Payout(ctx, rep, "7", 10)
	assert.ErrorIs(t, err, ErrNotAdmin)

	admin := models.User{ID: "1", Permissions: []string{models.PermSuperAdmin}}
	_, err = l.Payout(ctx, admin, "7", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Nil(t, s.payout)

	v, err := l.Payout(ctx, admin, "7", 40)
	require.NoError(t, err)
	assert.True(t, v.Admin)
	assert.Equal(t, map[string]any{"userId": float64(7), "amount": float64(40)}, s.payout)
	require.Len(t, rec.Notices(), 1)
	assert.Equal(t, notify.Success, rec.Notices()[0].Level)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0))
	assert.Equal(t, 1, TotalPages(10))
	assert.Equal(t, 3, TotalPages(23))
}
