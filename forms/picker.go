// ABOUTME: Type-ahead relation picker with a debounced search
// ABOUTME: Tracks typed text, the open dropdown, and the selected record
package forms

import (
	"context"
	"time"

	"github.com/harperreed/salesdesk/models"
)

// Debounce is the quiet period after the last keystroke before a search fires.
const Debounce = 300 * time.Millisecond

// Option is one record offered by a picker.
type Option struct {
	ID    models.ID
	Label string
}

// SearchFunc looks up records matching text. Empty text lists the first page.
type SearchFunc func(ctx context.Context, text string) ([]Option, error)

// Picker is driven from a single event loop and is not safe for concurrent use.
// Every keystroke and focus gets a tag; a timer armed with that tag fires a
// search only if no newer keystroke has arrived in the meantime.
type Picker struct {
	field    string
	search   SearchFunc
	text     string
	tag      int
	open     bool
	loading  bool
	options  []Option
	selected Option
	err      error
}

// NewPicker starts a picker for field, optionally with a current selection.
func NewPicker(field string, search SearchFunc, selected Option) *Picker {
	return &Picker{field: field, search: search, selected: selected, text: selected.Label}
}

func (p *Picker) Field() string { return p.field }

func (p *Picker) Text() string { return p.text }

func (p *Picker) IsOpen() bool { return p.open }

func (p *Picker) Loading() bool { return p.loading }

func (p *Picker) Options() []Option { return p.options }

func (p *Picker) Err() error { return p.err }

// Selected returns the chosen record, if any.
func (p *Picker) Selected() (Option, bool) {
	return p.selected, !p.selected.ID.IsZero()
}

// Focus opens the dropdown and returns the tag for the search to arm.
func (p *Picker) Focus() int {
	p.open = true
	p.tag++
	return p.tag
}

// Type replaces the search text and returns the tag for the search to arm.
func (p *Picker) Type(text string) int {
	p.text = text
	p.open = true
	p.tag++
	return p.tag
}

// Due reports whether the timer armed with tag is still the latest one.
func (p *Picker) Due(tag int) bool { return p.open && tag == p.tag }

// Search returns the lookup for the current text. The closure does not touch
// picker state so it can run off the event loop; hand its result to Results.
func (p *Picker) Search(ctx context.Context) func() ([]Option, error) {
	text, search := p.text, p.search
	return func() ([]Option, error) { return search(ctx, text) }
}

// Begin marks a search as in flight.
func (p *Picker) Begin(tag int) {
	if tag == p.tag {
		p.loading = true
	}
}

// Results installs the outcome of the search armed with tag. Results for an
// older tag are ignored.
func (p *Picker) Results(tag int, opts []Option, err error) {
	if tag != p.tag {
		return
	}
	p.loading = false
	p.err = err
	if err == nil {
		p.options = opts
	}
}

// Select stores the record and shows its label in the box.
func (p *Picker) Select(opt Option) {
	p.selected = opt
	p.text = opt.Label
	p.close()
}

// Clear drops the selection.
func (p *Picker) Clear() {
	p.selected = Option{}
	p.text = ""
	p.close()
}

// Blur closes the dropdown and reverts the text to the selection's label, or
// clears it when nothing is selected.
func (p *Picker) Blur() {
	p.text = p.selected.Label
	p.close()
}

func (p *Picker) close() {
	p.open = false
	p.loading = false
	p.options = nil
	p.err = nil
	p.tag++
}
