// ABOUTME: Dashboard and wallet payloads returned by the sales API
// ABOUTME: Summary stats, pipeline breakdown, monthly trend, wallet ledger rows
package models

type DashboardStats struct {
	Leads         int     `json:"leads"`
	Tasks         int     `json:"tasks"`
	Outlets       int     `json:"outlets"`
	Activities    int     `json:"activities"`
	TotalRevenue  float64 `json:"totalRevenue"`
	ClosedRevenue float64 `json:"closedRevenue"`
}

type PipelineStage struct {
	Stage string  `json:"stage"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

type RecentActivity struct {
	ID        ID     `json:"id"`
	Type      string `json:"type"`
	Subject   string `json:"subject"`
	DueDate   string `json:"due_date"`
	Status    string `json:"status"`
	RelatedTo string `json:"related_to"`
}

type MonthlyPoint struct {
	Month         string  `json:"month"`
	Revenue       float64 `json:"revenue"`
	Opportunities int     `json:"opportunities"`
}

// DashboardBundle is the single precomputed payload behind the landing view.
type DashboardBundle struct {
	Stats            DashboardStats   `json:"stats"`
	Pipeline         []PipelineStage  `json:"pipeline"`
	RecentActivities []RecentActivity `json:"recentActivities"`
	Monthly          []MonthlyPoint   `json:"monthlyData"`
}

// DefaultDashboard is what the landing view shows when the stats request fails.
func DefaultDashboard() DashboardBundle {
	return DashboardBundle{
		Pipeline:         []PipelineStage{},
		RecentActivities: []RecentActivity{},
		Monthly:          []MonthlyPoint{},
	}
}

type Wallet struct {
	ID             ID      `json:"id"`
	UserID         ID      `json:"userId"`
	Balance        float64 `json:"balance"`
	TotalEarned    float64 `json:"totalEarned"`
	LastPayoutDate string  `json:"lastPayoutDate,omitempty"`
	CreatedAt      string  `json:"createdAt,omitempty"`
	UpdatedAt      string  `json:"updatedAt,omitempty"`
}

type Transaction struct {
	ID          ID      `json:"id"`
	UserID      ID      `json:"user_id"`
	LeadID      ID      `json:"lead_id,omitempty"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
	LeadCompany string  `json:"lead_company,omitempty"`
	LeadName    string  `json:"lead_name,omitempty"`
}

// WalletSummary is one row of the admin all-wallets table.
type WalletSummary struct {
	UserID         ID      `json:"userId"`
	FullName       string  `json:"fullName,omitempty"`
	Email          string  `json:"email,omitempty"`
	Balance        float64 `json:"balance"`
	TotalEarned    float64 `json:"totalEarned"`
	LastPayoutDate string  `json:"lastPayoutDate,omitempty"`
}

// Payout is a pending payout awaiting admin processing.
type Payout struct {
	ID          ID      `json:"id"`
	UserID      ID      `json:"userId"`
	FullName    string  `json:"fullName,omitempty"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status,omitempty"`
	RequestedAt string  `json:"requestedAt,omitempty"`
}
