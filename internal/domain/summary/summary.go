package summary

import (
	"fmt"
	"strings"
)

// Count is a labelled alert total.
type Count struct {
	Label  string
	Alerts int
}

// Summary is a set of alert counts over some collection of records, either a
// CSV export or the store.
type Summary struct {
	Source  string
	Rows    int
	Columns []Count // per alert column, in source order
	ByUser  []Count // aggregate alerts per user, sorted by label
}

// Text renders one "label: N alerts" line per column.
func (s Summary) Text() string {
	var b strings.Builder
	for _, c := range s.Columns {
		fmt.Fprintf(&b, "%s: %d alerts\n", c.Label, c.Alerts)
	}
	return b.String()
}

// Prompt wraps the summary text in the caregiver-suggestion instruction.
func Prompt(s Summary) string {
	return fmt.Sprintf(`You are a health assistant AI. Based on this patient's health summary:
%s
What proactive care suggestions can you give the caregiver?`, s.Text())
}
