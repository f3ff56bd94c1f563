package tabular

import (
	"sort"
	"strings"

	"elderly_care_monitor/internal/domain/summary"
)

// Column names used by the health and safety monitoring exports.
const (
	ColumnUserID         = "Device-ID/User-ID"
	ColumnAlertTriggered = "Alert Triggered (Yes/No)"
	yesNoMarker          = "(Yes/No)"
)

// AlertCounts counts "yes" values in every (Yes/No) column of a monitoring
// export. When the export has both a user column and an alert-triggered column,
// ByUser holds the alert-triggered totals per user.
func AlertCounts(t *Table) summary.Summary {
	s := summary.Summary{Source: t.Name, Rows: len(t.Rows)}

	for col, h := range t.Header {
		if unnamed(h) || !strings.Contains(h, yesNoMarker) {
			continue
		}
		c := summary.Count{Label: h}
		for row := range t.Rows {
			if isYes(t.Cell(row, col)) {
				c.Alerts++
			}
		}
		s.Columns = append(s.Columns, c)
	}

	userCol, alertCol := t.Column(ColumnUserID), t.Column(ColumnAlertTriggered)
	if userCol < 0 || alertCol < 0 {
		return s
	}
	perUser := make(map[string]int)
	for row := range t.Rows {
		id := t.Cell(row, userCol)
		if id == "" {
			continue
		}
		if _, ok := perUser[id]; !ok {
			perUser[id] = 0
		}
		if isYes(t.Cell(row, alertCol)) {
			perUser[id]++
		}
	}
	for id, n := range perUser {
		s.ByUser = append(s.ByUser, summary.Count{Label: id, Alerts: n})
	}
	sort.Slice(s.ByUser, func(i, j int) bool { return s.ByUser[i].Label < s.ByUser[j].Label })
	return s
}
