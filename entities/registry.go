// ABOUTME: Registry of every CRM entity bound to its API collection
// ABOUTME: Leads, tasks, outlets, activities, users, and roles with filters and columns
package entities

import (
	"context"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/harperreed/salesdesk/api"
	"github.com/harperreed/salesdesk/forms"
	"github.com/harperreed/salesdesk/listing"
	"github.com/harperreed/salesdesk/models"
	"github.com/harperreed/salesdesk/notify"
)

// Registry holds one page per entity, in menu order.
type Registry struct {
	client *api.Client
	pages  []Page
	byName map[string]Page
}

// Build binds every entity to client. Notices for failed queries and
// mutations go to notifier.
func Build(client *api.Client, notifier notify.Notifier, logger *log.Logger, pageSize int) *Registry {
	r := &Registry{client: client, byName: map[string]Page{}}

	add := func(p Page) {
		r.pages = append(r.pages, p)
		r.byName[p.Name()] = p
	}
	add(bind(LeadBinding(), client.Leads(), notifier, logger, pageSize))
	add(bind(TaskBinding(), client.Tasks(), notifier, logger, pageSize))
	add(bind(OutletBinding(), client.Outlets(), notifier, logger, pageSize))
	add(bind(ActivityBinding(), client.Activities(), notifier, logger, pageSize))
	add(bind(UserBinding(client), client.Users(), notifier, logger, pageSize))
	add(bind(RoleBinding(client), client.Roles(), notifier, logger, pageSize))
	return r
}

func bind[T any](b Binding[T], res *api.Resource[T], notifier notify.Notifier, logger *log.Logger, pageSize int) Page {
	ctrl := listing.New[T](b.Name, res, notifier, logger.WithPrefix(b.Name), pageSize)
	return Bind(b, res, ctrl)
}

func (r *Registry) Pages() []Page { return r.pages }

func (r *Registry) Names() []string {
	out := make([]string, len(r.pages))
	for i, p := range r.pages {
		out[i] = p.Name()
	}
	return out
}

// Get accepts the plural collection name or the singular entity name.
func (r *Registry) Get(name string) (Page, bool) {
	if p, ok := r.byName[name]; ok {
		return p, true
	}
	for _, p := range r.pages {
		if p.Schema().Entity == name {
			return p, true
		}
	}
	return nil, false
}

// Lookup returns the picker search over a relation's collection.
func (r *Registry) Lookup(relation string) forms.SearchFunc {
	return Lookup(r.client, relation)
}

func LeadBinding() Binding[models.Lead] {
	return Binding[models.Lead]{
		Name:   "leads",
		Title:  "Leads",
		Schema: forms.LeadSchema(),
		Filters: []Filter{
			{Key: "status", Label: "Status", Options: models.LeadStatuses},
			{Key: "source", Label: "Source", Options: models.LeadSources},
		},
		Columns: []Column{
			{Title: "Name", Width: 22}, {Title: "Email", Width: 28}, {Title: "Status", Width: 11},
			{Title: "Source", Width: 12}, {Title: "Outlet", Width: 18}, {Title: "Created", Width: 14},
		},
		Row: func(l models.Lead) []string {
			return []string{l.FullName, l.Email, string(l.Status), l.LeadSource, outletName(l.Outlet), Ago(l.CreatedAt)}
		},
		ID: func(l models.Lead) models.ID { return l.ID },
		Label: func(l models.Lead) string {
			if l.FullName != "" {
				return l.FullName
			}
			return l.Email
		},
		Values: func(l models.Lead) map[string]string {
			return map[string]string{
				"fullName": l.FullName, "email": l.Email, "phone": l.Phone, "jobTitle": l.JobTitle,
				"leadSource": l.LeadSource, "status": string(l.Status), "notes": l.Notes,
			}
		},
		View: func(l models.Lead) []forms.ViewRow {
			return forms.ViewFields(
				[]string{"Full Name", "Email", "Phone", "Job Title", "Lead Source", "Status", "Outlet", "Assigned To", "Created By", "Notes", "Created", "Updated"},
				[]string{l.FullName, l.Email, l.Phone, l.JobTitle, l.LeadSource, string(l.Status), outletName(l.Outlet), refName(l.AssignedTo), refName(l.CreatedBy), l.Notes, Day(l.CreatedAt), Day(l.UpdatedAt)},
			)
		},
	}
}

func TaskBinding() Binding[models.Task] {
	return Binding[models.Task]{
		Name:   "tasks",
		Title:  "Tasks",
		Schema: forms.TaskSchema(),
		Filters: []Filter{
			{Key: "stage", Label: "Stage", Options: models.TaskStages},
			{Key: "minAmount", Label: "Min Amount"},
			{Key: "maxAmount", Label: "Max Amount"},
		},
		Columns: []Column{
			{Title: "Name", Width: 24}, {Title: "Outlet", Width: 18}, {Title: "Amount", Width: 14},
			{Title: "Stage", Width: 12}, {Title: "Prob.", Width: 6}, {Title: "Close", Width: 11},
		},
		Row: func(t models.Task) []string {
			return []string{t.Name, outletName(t.Outlet), Money(t.Amount), models.StageLabel(t.Stage), strconv.Itoa(t.Probability) + "%", Day(t.ExpectedCloseDate)}
		},
		ID:    func(t models.Task) models.ID { return t.ID },
		Label: func(t models.Task) string { return t.Name },
		Values: func(t models.Task) map[string]string {
			return map[string]string{
				"name": t.Name, "outletId": t.OutletID.String(), "amount": amountValue(t.Amount),
				"stage": t.Stage, "status": t.Status, "probability": strconv.Itoa(t.Probability),
				"expectedCloseDate": Day(t.ExpectedCloseDate), "leadSource": t.LeadSource,
				"description": t.Description,
			}
		},
		Labels: func(t models.Task) map[string]string {
			return map[string]string{"outletId": outletName(t.Outlet)}
		},
		View: func(t models.Task) []forms.ViewRow {
			return forms.ViewFields(
				[]string{"Name", "Outlet", "Amount", "Stage", "Status", "Probability", "Expected Close", "Lead Source", "Assigned To", "Description"},
				[]string{t.Name, outletName(t.Outlet), Money(t.Amount), models.StageLabel(t.Stage), t.Status, strconv.Itoa(t.Probability) + "%", Day(t.ExpectedCloseDate), t.LeadSource, refName(t.AssignedTo), t.Description},
			)
		},
	}
}

func OutletBinding() Binding[models.Outlet] {
	return Binding[models.Outlet]{
		Name:   "outlets",
		Title:  "Food Outlets",
		Schema: forms.OutletSchema(),
		Columns: []Column{
			{Title: "Outlet", Width: 24}, {Title: "Contact", Width: 18}, {Title: "Email", Width: 26},
			{Title: "Phone", Width: 14}, {Title: "City", Width: 14},
		},
		Row: func(o models.Outlet) []string {
			return []string{o.OutletName, o.ContactName, o.Email, o.Phone, o.City}
		},
		ID:    func(o models.Outlet) models.ID { return o.ID },
		Label: func(o models.Outlet) string { return o.OutletName },
		Values: func(o models.Outlet) map[string]string {
			return map[string]string{
				"outletName": o.OutletName, "contactName": o.ContactName, "email": o.Email,
				"phone": o.Phone, "website": o.Website, "outletType": o.OutletType,
				"address": o.Address, "city": o.City, "state": o.State, "country": o.Country,
				"postalCode": o.PostalCode, "notes": o.Notes,
			}
		},
		View: func(o models.Outlet) []forms.ViewRow {
			return forms.ViewFields(
				[]string{"Outlet Name", "Contact", "Email", "Phone", "Website", "Type", "Address", "City", "State", "Country", "Postal Code", "Notes", "Created"},
				[]string{o.OutletName, o.ContactName, o.Email, o.Phone, o.Website, o.OutletType, o.Address, o.City, o.State, o.Country, o.PostalCode, o.Notes, Day(o.CreatedAt)},
			)
		},
	}
}

func activityRelated(a models.Activity) string {
	switch kind, _ := a.PrimaryLink(); kind {
	case "lead":
		return "Lead: " + namedRef(a.Lead)
	case "task":
		return "Task: " + namedRef(a.Task)
	case "outlet":
		return "Outlet: " + outletName(a.Outlet)
	}
	return ""
}

func ActivityBinding() Binding[models.Activity] {
	return Binding[models.Activity]{
		Name:   "activities",
		Title:  "Activities",
		Schema: forms.ActivitySchema(),
		Filters: []Filter{
			{Key: "status", Label: "Status", Options: models.ActivityStatuses},
			{Key: "priority", Label: "Priority", Options: models.ActivityPriorities},
			{Key: "type", Label: "Type", Options: models.ActivityTypes},
		},
		Columns: []Column{
			{Title: "Type", Width: 8}, {Title: "Subject", Width: 26}, {Title: "Status", Width: 12},
			{Title: "Priority", Width: 8}, {Title: "Due", Width: 11}, {Title: "Related", Width: 24},
		},
		Row: func(a models.Activity) []string {
			return []string{a.Type, a.Subject, a.Status, a.Priority, Day(a.DueDate), activityRelated(a)}
		},
		ID:    func(a models.Activity) models.ID { return a.ID },
		Label: func(a models.Activity) string { return a.Subject },
		Values: func(a models.Activity) map[string]string {
			return map[string]string{
				"type": a.Type, "subject": a.Subject, "description": a.Description,
				"status": a.Status, "priority": a.Priority, "dueDate": Day(a.DueDate),
				"leadId": a.LeadID.String(), "taskId": a.TaskID.String(), "outletId": a.OutletID.String(),
			}
		},
		Labels: func(a models.Activity) map[string]string {
			return map[string]string{"leadId": namedRef(a.Lead), "taskId": namedRef(a.Task), "outletId": outletName(a.Outlet)}
		},
		View: func(a models.Activity) []forms.ViewRow {
			return forms.ViewFields(
				[]string{"Type", "Subject", "Status", "Priority", "Due Date", "Related To", "Assigned To", "Description", "Completed"},
				[]string{a.Type, a.Subject, a.Status, a.Priority, Day(a.DueDate), activityRelated(a), refName(a.AssignedTo), a.Description, Day(a.CompletedAt)},
			)
		},
	}
}

func UserBinding(client *api.Client) Binding[models.User] {
	return Binding[models.User]{
		Name:   "users",
		Title:  "Users",
		Schema: forms.UserSchema(),
		Filters: []Filter{
			{Key: "active", Label: "Active", Options: []string{"true", "false"}},
		},
		Columns: []Column{
			{Title: "Name", Width: 22}, {Title: "Email", Width: 28}, {Title: "Department", Width: 14},
			{Title: "Roles", Width: 22}, {Title: "Active", Width: 6},
		},
		Row: func(u models.User) []string {
			return []string{u.DisplayName(), u.Email, u.Department, joinKeys(u.Roles), yesNo(u.IsActive)}
		},
		ID:    func(u models.User) models.ID { return u.ID },
		Label: func(u models.User) string { return u.DisplayName() },
		Values: func(u models.User) map[string]string {
			return map[string]string{"fullName": u.FullName, "email": u.Email, "phone": u.Phone, "department": u.Department}
		},
		View: func(u models.User) []forms.ViewRow {
			return forms.ViewFields(
				[]string{"Full Name", "Email", "Phone", "Department", "Active", "Roles", "Permissions", "Created", "Last Login"},
				[]string{u.FullName, u.Email, u.Phone, u.Department, yesNo(u.IsActive), joinKeys(u.Roles), joinKeys(u.Permissions), Day(u.CreatedAt), Ago(u.LastLogin)},
			)
		},
		Assign: &Assignment[models.User]{
			Title: "Roles",
			Catalog: func(context.Context) ([]string, error) {
				return models.PossibleRoles, nil
			},
			Current: func(u models.User) []string { return u.Roles },
			Change:  client.ChangeUserRoles,
		},
		Toggle: &Toggle[models.User]{
			Label: "Active",
			Get:   func(u models.User) bool { return u.IsActive },
			Set:   client.SetUserActive,
		},
	}
}

func RoleBinding(client *api.Client) Binding[models.Role] {
	return Binding[models.Role]{
		Name:   "roles",
		Title:  "Roles & Permissions",
		Schema: forms.RoleSchema(),
		Columns: []Column{
			{Title: "Role", Width: 24}, {Title: "Key", Width: 20}, {Title: "Permissions", Width: 40},
		},
		Row: func(r models.Role) []string {
			return []string{r.RoleName, r.RoleKey, joinKeys(r.Permissions)}
		},
		ID:    func(r models.Role) models.ID { return r.ID },
		Label: func(r models.Role) string { return r.RoleName },
		Values: func(r models.Role) map[string]string {
			return map[string]string{"role_name": r.RoleName, "role_key": r.RoleKey}
		},
		View: func(r models.Role) []forms.ViewRow {
			return forms.ViewFields(
				[]string{"Role Name", "Role Key", "Permissions"},
				[]string{r.RoleName, r.RoleKey, joinKeys(r.Permissions)},
			)
		},
		Assign: &Assignment[models.Role]{
			Title:   "Permissions",
			Catalog: client.PermissionCatalog,
			Current: func(r models.Role) []string { return r.Permissions },
			Change:  client.ChangeRolePermissions,
		},
	}
}
