// ABOUTME: Two-column assignment editor for role permissions and user roles
// ABOUTME: Computes the added and removed keys between the original and final sets
package forms

import (
	"slices"
	"sort"
)

// Diff returns the keys in final but not orig, and in orig but not final.
// Keys present in both appear in neither list. Both lists are sorted and
// non-nil.
func Diff(orig, final []string) (added, removed []string) {
	in := func(set []string) map[string]bool {
		m := make(map[string]bool, len(set))
		for _, k := range set {
			m[k] = true
		}
		return m
	}
	o, f := in(orig), in(final)

	added, removed = []string{}, []string{}
	for k := range f {
		if !o[k] {
			added = append(added, k)
		}
	}
	for k := range o {
		if !f[k] {
			removed = append(removed, k)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

// AssignmentEditor moves keys between an available column (the catalog minus
// what is assigned) and an assigned column.
type AssignmentEditor struct {
	catalog  []string
	original []string
	assigned map[string]bool
}

func NewAssignmentEditor(catalog, original []string) *AssignmentEditor {
	e := &AssignmentEditor{
		catalog:  slices.Clone(catalog),
		original: slices.Clone(original),
		assigned: map[string]bool{},
	}
	for _, k := range original {
		e.assigned[k] = true
	}
	return e
}

// Available lists catalog keys not assigned, in catalog order.
func (e *AssignmentEditor) Available() []string {
	out := []string{}
	for _, k := range e.catalog {
		if !e.assigned[k] {
			out = append(out, k)
		}
	}
	return out
}

// Assigned lists the current selection, sorted. Keys outside the catalog
// that were assigned originally stay until removed.
func (e *AssignmentEditor) Assigned() []string {
	out := make([]string, 0, len(e.assigned))
	for k := range e.assigned {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Assign moves key to the assigned column. It reports false for keys that are
// unknown or already assigned.
func (e *AssignmentEditor) Assign(key string) bool {
	if e.assigned[key] || !slices.Contains(e.catalog, key) {
		return false
	}
	e.assigned[key] = true
	return true
}

func (e *AssignmentEditor) Unassign(key string) bool {
	if !e.assigned[key] {
		return false
	}
	delete(e.assigned, key)
	return true
}

func (e *AssignmentEditor) Diff() (added, removed []string) {
	return Diff(e.original, e.Assigned())
}

func (e *AssignmentEditor) HasChanges() bool {
	added, removed := e.Diff()
	return len(added) > 0 || len(removed) > 0
}
