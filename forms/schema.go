// ABOUTME: Field schemas describing each entity's add/edit form
// ABOUTME: Field kinds, required flags, select options, and relation targets
package forms

import (
	"github.com/harperreed/salesdesk/models"
)

type Kind int

const (
	Text Kind = iota
	Email
	Number
	Money
	Percent
	Date
	Select
	TextArea
	Relation
	Bool
)

func (k Kind) String() string {
	return [...]string{"text", "email", "number", "money", "percent", "date", "select", "textarea", "relation", "bool"}[k]
}

// Field describes one form input. Key is the API property name.
type Field struct {
	Key      string
	Label    string
	Kind     Kind
	Required bool
	Options  []string
	// Relation names the collection a relation picker searches.
	Relation string
	Default  string
	// Fixed fields are set on create and shown read-only afterwards.
	Fixed bool
}

type Schema struct {
	Entity string
	Fields []Field
}

func (s Schema) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Editable returns the fields offered in the given mode.
func (s Schema) Editable(mode Mode) []Field {
	if mode == Add {
		return s.Fields
	}
	out := make([]Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		if !f.Fixed {
			out = append(out, f)
		}
	}
	return out
}

func (s Schema) Required() []string {
	var keys []string
	for _, f := range s.Fields {
		if f.Required {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

func LeadSchema() Schema {
	return Schema{Entity: "lead", Fields: []Field{
		{Key: "fullName", Label: "Full Name", Kind: Text},
		{Key: "email", Label: "Email", Kind: Email, Required: true},
		{Key: "phone", Label: "Phone", Kind: Text},
		{Key: "jobTitle", Label: "Job Title", Kind: Text},
		{Key: "leadSource", Label: "Lead Source", Kind: Select, Options: models.LeadSources},
		{Key: "status", Label: "Status", Kind: Select, Options: models.LeadStatuses, Default: string(models.LeadNew)},
		{Key: "notes", Label: "Notes", Kind: TextArea},
	}}
}

func TaskSchema() Schema {
	return Schema{Entity: "task", Fields: []Field{
		{Key: "name", Label: "Name", Kind: Text, Required: true},
		{Key: "outletId", Label: "Outlet", Kind: Relation, Relation: "outlets"},
		{Key: "amount", Label: "Amount", Kind: Money},
		{Key: "stage", Label: "Stage", Kind: Select, Options: models.TaskStages, Default: models.StageNew},
		{Key: "status", Label: "Status", Kind: Select, Options: models.TaskStatuses, Default: models.TaskPending},
		{Key: "probability", Label: "Probability (%)", Kind: Percent, Default: "10"},
		{Key: "expectedCloseDate", Label: "Expected Close", Kind: Date},
		{Key: "leadSource", Label: "Lead Source", Kind: Select, Options: models.LeadSources},
		{Key: "description", Label: "Description", Kind: TextArea},
	}}
}

func OutletSchema() Schema {
	return Schema{Entity: "outlet", Fields: []Field{
		{Key: "outletName", Label: "Outlet Name", Kind: Text, Required: true},
		{Key: "contactName", Label: "Contact Name", Kind: Text, Required: true},
		{Key: "email", Label: "Email", Kind: Email, Required: true},
		{Key: "phone", Label: "Phone", Kind: Text},
		{Key: "website", Label: "Website", Kind: Text},
		{Key: "outletType", Label: "Outlet Type", Kind: Text},
		{Key: "address", Label: "Address", Kind: Text},
		{Key: "city", Label: "City", Kind: Text},
		{Key: "state", Label: "State", Kind: Text},
		{Key: "country", Label: "Country", Kind: Text},
		{Key: "postalCode", Label: "Postal Code", Kind: Text},
		{Key: "notes", Label: "Notes", Kind: TextArea},
	}}
}

func ActivitySchema() Schema {
	return Schema{Entity: "activity", Fields: []Field{
		{Key: "type", Label: "Type", Kind: Select, Options: models.ActivityTypes, Required: true, Default: "Call"},
		{Key: "subject", Label: "Subject", Kind: Text, Required: true},
		{Key: "description", Label: "Description", Kind: TextArea},
		{Key: "status", Label: "Status", Kind: Select, Options: models.ActivityStatuses, Default: "planned"},
		{Key: "priority", Label: "Priority", Kind: Select, Options: models.ActivityPriorities, Default: "medium"},
		{Key: "dueDate", Label: "Due Date", Kind: Date},
		{Key: "leadId", Label: "Lead", Kind: Relation, Relation: "leads"},
		{Key: "taskId", Label: "Task", Kind: Relation, Relation: "tasks"},
		{Key: "outletId", Label: "Outlet", Kind: Relation, Relation: "outlets"},
	}}
}

func UserSchema() Schema {
	return Schema{Entity: "user", Fields: []Field{
		{Key: "fullName", Label: "Full Name", Kind: Text, Required: true},
		{Key: "email", Label: "Email", Kind: Email, Required: true, Fixed: true},
		{Key: "phone", Label: "Phone", Kind: Text},
		{Key: "department", Label: "Department", Kind: Text},
	}}
}

func RoleSchema() Schema {
	return Schema{Entity: "role", Fields: []Field{
		{Key: "role_name", Label: "Role Name", Kind: Text, Required: true},
		{Key: "role_key", Label: "Role Key", Kind: Text, Required: true, Fixed: true},
	}}
}
