// ABOUTME: Terminal rendering of the dashboard bundle
// ABOUTME: Stats line, pipeline bars, monthly revenue sparkline, and recent activity
package viz

import (
	"fmt"
	"slices"
	"strings"

	"github.com/harperreed/salesdesk/models"
)

const barWidth = 10

// Bar draws count out of max as a fixed-width block bar.
func Bar(count, max int) string {
	if max <= 0 {
		max = 1
	}
	n := (count * barWidth) / max
	if n > barWidth {
		n = barWidth
	}
	if n < 0 {
		n = 0
	}
	return strings.Repeat("█", n) + strings.Repeat("░", barWidth-n)
}

var sparks = []rune("▁▂▃▄▅▆▇█")

// Sparkline scales values onto eight block heights.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := slices.Min(values), slices.Max(values)
	var b strings.Builder
	for _, v := range values {
		i := 0
		if hi > lo {
			i = int((v - lo) / (hi - lo) * float64(len(sparks)-1))
		}
		b.WriteRune(sparks[i])
	}
	return b.String()
}

// Thousands renders an amount as $12.5K.
func Thousands(v float64) string {
	return fmt.Sprintf("$%.1fK", v/1000)
}

// OrderedPipeline returns the known stages in pipeline order followed by any
// stage the server reported that is not in the standard list.
func OrderedPipeline(stages []models.PipelineStage) []models.PipelineStage {
	byStage := map[string]models.PipelineStage{}
	for _, s := range stages {
		byStage[s.Stage] = s
	}
	var out []models.PipelineStage
	for _, name := range models.TaskStages {
		if s, ok := byStage[name]; ok {
			out = append(out, s)
			delete(byStage, name)
		}
	}
	for _, s := range stages {
		if _, ok := byStage[s.Stage]; ok {
			out = append(out, s)
		}
	}
	return out
}

func RenderDashboard(b models.DashboardBundle) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  SALESDESK DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("STATS\n")
	s := b.Stats
	out.WriteString(fmt.Sprintf("  %d leads  %d tasks  %d outlets  %d activities\n",
		s.Leads, s.Tasks, s.Outlets, s.Activities))
	if s.TotalRevenue > 0 || s.ClosedRevenue > 0 {
		out.WriteString(fmt.Sprintf("  pipeline %s  closed %s\n", Thousands(s.TotalRevenue), Thousands(s.ClosedRevenue)))
	}
	out.WriteString("\n")

	out.WriteString("PIPELINE OVERVIEW\n")
	renderPipeline(&out, b.Pipeline)
	out.WriteString("\n")

	out.WriteString("MONTHLY TREND\n")
	renderMonthly(&out, b.Monthly)
	out.WriteString("\n")

	out.WriteString("RECENT ACTIVITY\n")
	renderRecent(&out, b.RecentActivities, 5)

	return out.String()
}

func renderPipeline(out *strings.Builder, stages []models.PipelineStage) {
	if len(stages) == 0 {
		out.WriteString("  No pipeline data\n")
		return
	}
	maxCount := 0
	for _, st := range stages {
		maxCount = max(maxCount, st.Count)
	}
	for _, st := range OrderedPipeline(stages) {
		out.WriteString(fmt.Sprintf("  %-12s %s  %2d (%s)\n",
			models.StageLabel(st.Stage), Bar(st.Count, maxCount), st.Count, Thousands(st.Value)))
	}
}

func renderMonthly(out *strings.Builder, points []models.MonthlyPoint) {
	if len(points) == 0 {
		out.WriteString("  No monthly data\n")
		return
	}
	revenue := make([]float64, len(points))
	for i, p := range points {
		revenue[i] = p.Revenue
	}
	out.WriteString(fmt.Sprintf("  %s  %s → %s\n",
		Sparkline(revenue), points[0].Month, points[len(points)-1].Month))
	for _, p := range points {
		out.WriteString(fmt.Sprintf("  %-8s %9s  %d opportunities\n", p.Month, Thousands(p.Revenue), p.Opportunities))
	}
}

func renderRecent(out *strings.Builder, items []models.RecentActivity, limit int) {
	if len(items) == 0 {
		out.WriteString("  No recent activity\n")
		return
	}
	for i, a := range items {
		if i == limit {
			out.WriteString(fmt.Sprintf("  … %d more\n", len(items)-limit))
			break
		}
		line := fmt.Sprintf("  • [%s] %s", a.Type, a.Subject)
		if a.RelatedTo != "" {
			line += " - " + a.RelatedTo
		}
		if a.DueDate != "" {
			line += fmt.Sprintf(" (due %s, %s)", a.DueDate, a.Status)
		} else if a.Status != "" {
			line += fmt.Sprintf(" (%s)", a.Status)
		}
		out.WriteString(line + "\n")
	}
}
