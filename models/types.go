// ABOUTME: Data models for CRM entities mirrored from the sales API
// ABOUTME: Defines Lead, Task, Outlet, Activity, User, Role, and Permission structs
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is a record identifier. The API returns numeric ids for most resources
// and string ids for a few, so both decode into the same type.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return id == "" }

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("failed to decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids back as numbers so the server sees the type it sent.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if isNumeric(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func isNumeric(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Amount is a currency value that the API sometimes serializes as a string.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("failed to decode amount %q: %w", s, err)
	}
	*a = Amount(f)
	return nil
}

// Ref is a lightweight reference to a related user embedded in a record.
type Ref struct {
	ID   ID     `json:"id,omitempty"`
	Name string `json:"name"`
}

// OutletRef is the outlet summary embedded in leads, tasks, and activities.
type OutletRef struct {
	ID          ID     `json:"id"`
	OutletName  string `json:"outletName"`
	ContactName string `json:"contactName,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadQualified LeadStatus = "qualified"
	LeadProposal  LeadStatus = "proposal"
	LeadLost      LeadStatus = "lost"
)

var LeadStatuses = []string{"new", "contacted", "qualified", "proposal", "lost"}

var LeadSources = []string{"Website", "Referral", "Trade Show", "Cold Call"}

type Lead struct {
	ID         ID         `json:"id"`
	FullName   string     `json:"fullName"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone,omitempty"`
	JobTitle   string     `json:"jobTitle,omitempty"`
	LeadSource string     `json:"leadSource,omitempty"`
	Status     LeadStatus `json:"status"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  string     `json:"createdAt"`
	UpdatedAt  string     `json:"updatedAt,omitempty"`
	AssignedTo *Ref       `json:"assignedTo,omitempty"`
	CreatedBy  *Ref       `json:"createdBy,omitempty"`
	Outlet     *OutletRef `json:"outlet,omitempty"`
}

// Pipeline stages of a task, in order.
const (
	StageNew         = "NEW"
	StageContacted   = "CONTACTED"
	StageDemo        = "DEMO"
	StageOfferSent   = "OFFER_SENT"
	StageNegotiation = "NEGOTIATION"
	StageFinalizing  = "FINALIZING"
	StageWon         = "WON"
	StageLost        = "LOST"
)

var TaskStages = []string{
	StageNew, StageContacted, StageDemo, StageOfferSent,
	StageNegotiation, StageFinalizing, StageWon, StageLost,
}

var stageLabels = map[string]string{
	StageNew:         "New",
	StageContacted:   "Contacted",
	StageDemo:        "Demo",
	StageOfferSent:   "Offer Sent",
	StageNegotiation: "Negotiation",
	StageFinalizing:  "Finalizing",
	StageWon:         "Won",
	StageLost:        "Lost",
}

// StageLabel returns the display label for a stage, or the raw value if unknown.
func StageLabel(stage string) string {
	if l, ok := stageLabels[stage]; ok {
		return l
	}
	return stage
}

const (
	TaskPending = "PENDING"
	TaskSuccess = "SUCCESS"
	TaskFailed  = "FAILED"
)

var TaskStatuses = []string{TaskPending, TaskSuccess, TaskFailed}

type Task struct {
	ID                ID         `json:"id"`
	Name              string     `json:"name"`
	OutletID          ID         `json:"outletId,omitempty"`
	Amount            Amount     `json:"amount"`
	Stage             string     `json:"stage"`
	Status            string     `json:"status,omitempty"`
	Probability       int        `json:"probability"`
	ExpectedCloseDate string     `json:"expectedCloseDate,omitempty"`
	LeadSource        string     `json:"leadSource,omitempty"`
	Description       string     `json:"description,omitempty"`
	AssignedTo        *Ref       `json:"assignedTo,omitempty"`
	CreatedBy         *Ref       `json:"createdBy,omitempty"`
	Outlet            *OutletRef `json:"outlet,omitempty"`
	CreatedAt         string     `json:"createdAt"`
	UpdatedAt         string     `json:"updatedAt,omitempty"`
}

type Outlet struct {
	ID          ID     `json:"id"`
	OutletName  string `json:"outletName"`
	ContactName string `json:"contactName"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Website     string `json:"website,omitempty"`
	OutletType  string `json:"outletType,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Country     string `json:"country,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	Notes       string `json:"notes,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

var ActivityTypes = []string{"Call", "Meeting", "Email", "Task"}

var ActivityStatuses = []string{"planned", "in_progress", "completed", "cancelled"}

var ActivityPriorities = []string{"low", "medium", "high"}

// NamedRef is a lead or task reference embedded in an activity.
type NamedRef struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type Activity struct {
	ID          ID         `json:"id"`
	Type        string     `json:"type"`
	Subject     string     `json:"subject"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     string     `json:"dueDate,omitempty"`
	LeadID      ID         `json:"leadId,omitempty"`
	TaskID      ID         `json:"taskId,omitempty"`
	OutletID    ID         `json:"outletId,omitempty"`
	AssignedTo  *Ref       `json:"assignedTo,omitempty"`
	CreatedBy   *Ref       `json:"createdBy,omitempty"`
	CreatedAt   string     `json:"createdAt"`
	UpdatedAt   string     `json:"updatedAt,omitempty"`
	CompletedAt string     `json:"completedAt,omitempty"`
	Outlet      *OutletRef `json:"outlet,omitempty"`
	Lead        *NamedRef  `json:"lead,omitempty"`
	Task        *NamedRef  `json:"task,omitempty"`
}

// PrimaryLink returns the single record an activity is attached to.
// A lead link wins over a task link, which wins over an outlet link.
func (a Activity) PrimaryLink() (kind string, id ID) {
	switch {
	case !a.LeadID.IsZero():
		return "lead", a.LeadID
	case !a.TaskID.IsZero():
		return "task", a.TaskID
	case !a.OutletID.IsZero():
		return "outlet", a.OutletID
	}
	return "", ""
}

type User struct {
	ID          ID       `json:"id"`
	Email       string   `json:"email"`
	FullName    string   `json:"fullName"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Role        string   `json:"role,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Department  string   `json:"department,omitempty"`
	IsActive    bool     `json:"isActive"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	LastLogin   string   `json:"lastLogin,omitempty"`
}

// DisplayName prefers the full name, then first/last, then the email.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if n := strings.TrimSpace(u.FirstName + " " + u.LastName); n != "" {
		return n
	}
	return u.Email
}

func (u User) HasPermission(key string) bool {
	for _, p := range u.Permissions {
		if p == key {
			return true
		}
	}
	return false
}

// HasAny reports whether the user holds at least one of keys.
func (u User) HasAny(keys ...string) bool {
	for _, k := range keys {
		if u.HasPermission(k) {
			return true
		}
	}
	return false
}

// PossibleRoles is the fixed set of role keys offered when editing a user.
var PossibleRoles = []string{"SALES_REP", "MANAGER", "FINANCE", "USER", "ADMIN", "SUPER_ADMIN"}

type Role struct {
	ID          ID       `json:"id"`
	RoleKey     string   `json:"role_key"`
	RoleName    string   `json:"role_name"`
	Permissions []string `json:"permissions"`
}

type Permission struct {
	ID            ID     `json:"id"`
	PermissionKey string `json:"permission_key"`
	Description   string `json:"description,omitempty"`
}

// Permission keys that gate sections of the console.
const (
	PermSuperAdmin   = "SUPER_ADMIN_ACCESS"
	PermAdmin        = "ADMIN_ACCESS"
	PermSalesManager = "SALES_MANAGER"
	PermSalesRep     = "SALES_REP"
)

// Pagination is the server's cursor for a list query.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// LastPage is TotalPages clamped to at least 1 so an empty result still has a page.
func (p Pagination) LastPage() int {
	if p.TotalPages < 1 {
		return 1
	}
	return p.TotalPages
}

func (p Pagination) HasNext() bool { return p.Page < p.LastPage() }

func (p Pagination) HasPrev() bool { return p.Page > 1 }

// Page is one page of a list query.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role,omitempty"`
}
