// ABOUTME: Non-CRUD endpoints of the sales API
// ABOUTME: Auth, access refresh, assignment diffs, user status, wallet, and dashboard stats
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/harperreed/salesdesk/models"
)

func (c *Client) Login(ctx context.Context, email, password string) (models.AuthResult, error) {
	var out models.AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.fetch(ctx, http.MethodPost, "auth/login", nil, body, &out); err != nil {
		return out, err
	}
	if out.Token == "" {
		return out, fmt.Errorf("login response carried no token")
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.AuthResult, error) {
	var out models.AuthResult
	if err := c.fetch(ctx, http.MethodPost, "auth/register", nil, req, &out); err != nil {
		return out, err
	}
	if out.Token == "" {
		return out, fmt.Errorf("register response carried no token")
	}
	return out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.fetch(ctx, http.MethodPost, "auth/logout", nil, nil, nil)
}

// Access returns the caller's current permission keys.
func (c *Client) Access(ctx context.Context) ([]string, error) {
	var out struct {
		Permissions []string `json:"permissions"`
	}
	if err := c.fetch(ctx, http.MethodGet, "users/access", nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Permissions == nil {
		out.Permissions = []string{}
	}
	return out.Permissions, nil
}

// PermissionCatalog loads every permission key a role can be granted.
func (c *Client) PermissionCatalog(ctx context.Context) ([]string, error) {
	page, err := c.Permissions().List(ctx, url.Values{"page": {"1"}, "limit": {"100"}})
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(page.Items))
	for _, p := range page.Items {
		keys = append(keys, p.PermissionKey)
	}
	return keys, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ChangeRolePermissions sends the permission diff for a role.
func (c *Client) ChangeRolePermissions(ctx context.Context, roleID models.ID, added, removed []string) error {
	body := map[string][]string{
		"addedPermissions":   nonNil(added),
		"removedPermissions": nonNil(removed),
	}
	return c.fetch(ctx, http.MethodPost, "roles/"+url.PathEscape(roleID.String())+"/permissions", nil, body, nil)
}

// ChangeUserRoles sends the role diff for a user.
func (c *Client) ChangeUserRoles(ctx context.Context, userID models.ID, added, removed []string) error {
	body := map[string][]string{
		"addedRoles":   nonNil(added),
		"removedRoles": nonNil(removed),
	}
	return c.fetch(ctx, http.MethodPost, "users/"+url.PathEscape(userID.String())+"/roles", nil, body, nil)
}

func (c *Client) SetUserActive(ctx context.Context, userID models.ID, active bool) error {
	body := map[string]bool{"isActive": active}
	return c.fetch(ctx, http.MethodPatch, "users/"+url.PathEscape(userID.String())+"/status", nil, body, nil)
}

func (c *Client) Wallet(ctx context.Context) (models.Wallet, error) {
	var out models.Wallet
	err := c.fetch(ctx, http.MethodGet, "wallet", nil, nil, &out)
	return out, err
}

// Transactions returns one page of the caller's ledger and the total count
// when the server reports one.
func (c *Client) Transactions(ctx context.Context, limit, offset int) ([]models.Transaction, int, error) {
	q := url.Values{"limit": {strconv.Itoa(limit)}, "offset": {strconv.Itoa(offset)}}
	raw, err := c.Do(ctx, http.MethodGet, "wallet/transactions", q, nil)
	if err != nil {
		return nil, 0, err
	}
	page, err := decodeList[models.Transaction](raw, []string{"transactions"})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode transactions: %w", err)
	}
	total := page.Pagination.Total
	if t, ok := totalField(raw); ok {
		total = t
	}
	return page.Items, total, nil
}

// totalField reads a top-level "total" beside the transactions array.
func totalField(raw []byte) (int, bool) {
	var out struct {
		Total *int `json:"total"`
	}
	if err := json.Unmarshal(unwrap(raw), &out); err != nil || out.Total == nil {
		return 0, false
	}
	return *out.Total, true
}

func (c *Client) AllWallets(ctx context.Context) ([]models.WalletSummary, error) {
	raw, err := c.Do(ctx, http.MethodGet, "wallet/admin/all", nil, nil)
	if err != nil {
		return nil, err
	}
	page, err := decodeList[models.WalletSummary](raw, []string{"wallets"})
	if err != nil {
		return nil, fmt.Errorf("failed to decode wallets: %w", err)
	}
	return page.Items, nil
}

func (c *Client) PendingPayouts(ctx context.Context) ([]models.Payout, error) {
	raw, err := c.Do(ctx, http.MethodGet, "wallet/admin/pending-payouts", nil, nil)
	if err != nil {
		return nil, err
	}
	page, err := decodeList[models.Payout](raw, []string{"payouts", "pendingPayouts"})
	if err != nil {
		return nil, fmt.Errorf("failed to decode payouts: %w", err)
	}
	return page.Items, nil
}

func (c *Client) ProcessPayout(ctx context.Context, userID models.ID, amount float64) error {
	body := map[string]any{"userId": userID, "amount": amount}
	return c.fetch(ctx, http.MethodPost, "wallet/admin/payout", nil, body, nil)
}

func (c *Client) DashboardStats(ctx context.Context) (models.DashboardBundle, error) {
	out := models.DefaultDashboard()
	err := c.fetch(ctx, http.MethodGet, "dashboard/stats", nil, nil, &out)
	return out, err
}
