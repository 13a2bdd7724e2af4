// ABOUTME: Add and edit form state with snapshot-based change detection
// ABOUTME: Gates submit, validates fields, and builds typed create or partial-update payloads
package forms

import (
	"fmt"
	"maps"
	"net/mail"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/salesdesk/models"
)

type Mode int

const (
	Add Mode = iota
	Edit
)

func (m Mode) String() string {
	if m == Edit {
		return "edit"
	}
	return "add"
}

// Errors maps field keys to validation messages.
type Errors map[string]string

func (e Errors) Error() string {
	keys := slices.Sorted(maps.Keys(e))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

// Form holds the current values of one add or edit form. Values are kept as
// strings the way they are typed and converted by field kind on submit.
type Form struct {
	schema   Schema
	mode     Mode
	id       models.ID
	values   map[string]string
	snapshot map[string]string
	labels   map[string]string
	seeded   map[string]string
}

// NewAdd starts an add form with every field at its default.
func NewAdd(schema Schema) *Form {
	f := &Form{schema: schema, mode: Add, labels: map[string]string{}}
	f.values = f.defaults()
	return f
}

// NewEdit starts an edit form seeded from a record's values. The seed is the
// snapshot HasChanges compares against. Labels carry display text for
// relation fields.
func NewEdit(schema Schema, id models.ID, values, labels map[string]string) *Form {
	f := &Form{schema: schema, mode: Edit, id: id, labels: map[string]string{}}
	f.snapshot = map[string]string{}
	for _, fld := range schema.Editable(Edit) {
		f.snapshot[fld.Key] = values[fld.Key]
	}
	for k, v := range labels {
		f.labels[k] = v
	}
	f.values = maps.Clone(f.snapshot)
	f.seeded = maps.Clone(f.labels)
	return f
}

func (f *Form) defaults() map[string]string {
	out := map[string]string{}
	for _, fld := range f.schema.Fields {
		out[fld.Key] = fld.Default
	}
	return out
}

func (f *Form) Schema() Schema { return f.schema }

func (f *Form) Mode() Mode { return f.mode }

func (f *Form) ID() models.ID { return f.id }

func (f *Form) Fields() []Field { return f.schema.Editable(f.mode) }

func (f *Form) Get(key string) string { return f.values[key] }

// Set stores a value for an editable field. Unknown and fixed keys are ignored.
func (f *Form) Set(key, value string) {
	if _, ok := f.values[key]; !ok {
		return
	}
	f.values[key] = value
}

// Label returns the display text of a relation field's current selection.
func (f *Form) Label(key string) string { return f.labels[key] }

// SetRelation stores a relation id together with the label shown for it.
func (f *Form) SetRelation(key string, id models.ID, label string) {
	f.Set(key, id.String())
	if id.IsZero() {
		delete(f.labels, key)
		return
	}
	f.labels[key] = label
}

func (f *Form) Values() map[string]string { return maps.Clone(f.values) }

// HasChanges reports whether any value differs from the snapshot taken when
// the edit form opened. Add forms compare against their defaults. Surrounding
// whitespace is not a change since the payload trims it.
func (f *Form) HasChanges() bool {
	base := f.snapshot
	if f.mode == Add {
		base = f.defaults()
	}
	return !maps.EqualFunc(base, f.values, sameValue)
}

func sameValue(a, b string) bool { return strings.TrimSpace(a) == strings.TrimSpace(b) }

// Missing lists required fields that are still blank.
func (f *Form) Missing() []string {
	var out []string
	for _, fld := range f.Fields() {
		if fld.Required && strings.TrimSpace(f.values[fld.Key]) == "" {
			out = append(out, fld.Key)
		}
	}
	return out
}

// CanSubmit gates the submit action: an add form needs every required field,
// an edit form needs at least one change.
func (f *Form) CanSubmit() bool {
	if f.mode == Add {
		return len(f.Missing()) == 0
	}
	return f.HasChanges()
}

// Changed lists the keys whose values differ from the snapshot, sorted.
func (f *Form) Changed() []string {
	var keys []string
	for k, v := range f.values {
		if f.mode == Edit && sameValue(f.snapshot[k], v) {
			continue
		}
		if f.mode == Add && strings.TrimSpace(v) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks every field the submit would send.
func (f *Form) Validate() Errors {
	errs := Errors{}
	for _, key := range f.Missing() {
		errs[key] = "required"
	}
	for _, key := range f.Changed() {
		fld, _ := f.schema.Field(key)
		if msg := validate(fld, strings.TrimSpace(f.values[key])); msg != "" {
			errs[key] = msg
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validate(fld Field, v string) string {
	if v == "" {
		return ""
	}
	switch fld.Kind {
	case Email:
		if a, err := mail.ParseAddress(v); err != nil || a.Address != v {
			return "must be a valid email address"
		}
	case Number:
		if _, err := strconv.Atoi(v); err != nil {
			return "must be a whole number"
		}
	case Money:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return "must be a number"
		}
		if n < 0 {
			return "must not be negative"
		}
	case Percent:
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 100 {
			return "must be between 0 and 100"
		}
	case Date:
		if _, err := time.Parse(time.DateOnly, v); err != nil {
			return "must be a date like 2024-01-31"
		}
	case Select:
		if len(fld.Options) > 0 && !slices.Contains(fld.Options, v) {
			return "must be one of " + strings.Join(fld.Options, ", ")
		}
	case Bool:
		if _, err := strconv.ParseBool(v); err != nil {
			return "must be true or false"
		}
	}
	return ""
}

// Payload builds the request body. Add forms send every non-blank field; edit
// forms send only the fields that changed. A cleared edit field is sent as
// null, or "" for plain text.
func (f *Form) Payload() (map[string]any, error) {
	if errs := f.Validate(); errs != nil {
		return nil, errs
	}
	out := map[string]any{}
	for _, key := range f.Changed() {
		fld, _ := f.schema.Field(key)
		out[key] = convert(fld, strings.TrimSpace(f.values[key]))
	}
	return out, nil
}

func convert(fld Field, v string) any {
	if v == "" {
		switch fld.Kind {
		case Text, Email, TextArea, Select:
			return ""
		}
		return nil
	}
	switch fld.Kind {
	case Number, Percent:
		n, _ := strconv.Atoi(v)
		return n
	case Money:
		n, _ := strconv.ParseFloat(v, 64)
		return n
	case Bool:
		b, _ := strconv.ParseBool(v)
		return b
	case Relation:
		return models.ID(v)
	}
	return v
}

// Reset returns an add form to its defaults and an edit form to its snapshot.
func (f *Form) Reset() {
	if f.mode == Add {
		f.values = f.defaults()
		f.labels = map[string]string{}
		return
	}
	f.values = maps.Clone(f.snapshot)
	f.labels = maps.Clone(f.seeded)
}
