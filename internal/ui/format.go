// ABOUTME: Terminal UI formatting utilities
// ABOUTME: Provides human-readable output for ordered rows, groups, and check results

package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harper/sortable/internal/models"
	"github.com/harper/sortable/internal/sortable"
)

// ShortID returns the first eight characters of a row id.
func ShortID(row *models.Row) string {
	return row.ID.String()[:8]
}

// FormatRow formats a row as "position. id  col=value ..." for terminal display.
// Columns listed in hide are left out, typically the group columns already
// shown in a heading.
func FormatRow(row *models.Row, hide []string) string {
	if row == nil {
		return color.New(color.Faint).Sprint("(invalid row)")
	}
	return fmt.Sprintf("%s %s  %s",
		color.CyanString("%4d.", row.Position),
		color.New(color.Faint).Sprint(ShortID(row)),
		FormatValues(row.Values, hide))
}

// FormatValues renders values as sorted col=value pairs. A title column, when
// present, comes first and without its name.
func FormatValues(values map[string]string, hide []string) string {
	skip := make(map[string]bool, len(hide))
	for _, h := range hide {
		skip[h] = true
	}

	var parts []string
	if title, ok := values["title"]; ok && !skip["title"] {
		parts = append(parts, color.GreenString(title))
		skip["title"] = true
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if !skip[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, values[k]))
	}

	if len(parts) == 0 {
		return color.New(color.Faint).Sprint("(no values)")
	}
	return strings.Join(parts, " ")
}

// FormatGroup formats a group heading.
func FormatGroup(key string, count int) string {
	if key == "*" {
		key = "all rows"
	}
	noun := "rows"
	if count == 1 {
		noun = "row"
	}
	return fmt.Sprintf("%s %s",
		color.New(color.Bold).Sprint(key),
		color.New(color.Faint).Sprintf("(%d %s)", count, noun))
}

// FormatViolation formats one failed ordering check.
func FormatViolation(v sortable.Violation) string {
	return fmt.Sprintf("%s %s: %s",
		color.RedString("✗"),
		color.New(color.Bold).Sprint(v.Group),
		v.Reason)
}

// FormatRelativeTime formats a time as relative to now.
func FormatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	// Handle future times (clock skew, bad data)
	if diff < 0 {
		return color.YellowString("in the future")
	}

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	}
	if diff < 24*time.Hour {
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(diff.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
