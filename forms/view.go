// ABOUTME: Read-only record rendering for detail views
// ABOUTME: Pairs labels with values and substitutes N/A for anything missing
package forms

import "strings"

const NA = "N/A"

type ViewRow struct {
	Label string
	Value string
}

// ViewFields pairs labels with values. A missing or blank value shows as N/A.
func ViewFields(labels, values []string) []ViewRow {
	rows := make([]ViewRow, len(labels))
	for i, l := range labels {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		rows[i] = ViewRow{Label: l, Value: OrNA(v)}
	}
	return rows
}

func OrNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return NA
	}
	return v
}
