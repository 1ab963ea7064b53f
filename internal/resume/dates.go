package resume

import (
	"strings"
	"time"
)

// date layouts accepted on input, most specific first. The editor submits
// plain calendar dates; older rows may carry full RFC3339 stamps.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01",
}

// FormatDate renders an ISO date as "Jan 2006". Absent or unparseable
// values render as an empty string, never a placeholder.
func FormatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("Jan 2006")
		}
	}
	return ""
}

// DateRange renders "{start} - {end}" for an entry. Current=true always
// wins over any stored end date.
func DateRange(start, end string, current bool) string {
	from := FormatDate(start)
	to := "Present"
	if !current {
		to = FormatDate(end)
	}
	if from == "" && to == "" {
		return ""
	}
	return from + " - " + to
}
