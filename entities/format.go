// ABOUTME: Display formatting shared by entity tables and detail views
// ABOUTME: Money, dates, relative times, and reference names
package entities

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/harperreed/salesdesk/models"
)

// Money renders an amount like $1,500.00.
func Money(a models.Amount) string {
	return "$" + humanize.FormatFloat("#,###.##", float64(a))
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Day trims a timestamp to its date.
func Day(s string) string {
	if t, ok := parseTime(s); ok {
		return t.Format(time.DateOnly)
	}
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

// Ago renders a timestamp relative to now, such as "3 days ago".
func Ago(s string) string {
	if t, ok := parseTime(s); ok {
		return humanize.Time(t)
	}
	return s
}

func refName(r *models.Ref) string {
	if r == nil {
		return ""
	}
	return r.Name
}

func outletName(o *models.OutletRef) string {
	if o == nil {
		return ""
	}
	return o.OutletName
}

func namedRef(r *models.NamedRef) string {
	if r == nil {
		return ""
	}
	return r.Name
}

func amountValue(a models.Amount) string {
	if a == 0 {
		return ""
	}
	return strconv.FormatFloat(float64(a), 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func joinKeys(keys []string) string {
	return strings.Join(keys, ", ")
}
