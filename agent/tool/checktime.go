package tool

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
)

func (c *Catalog) executeCheckTime(sess contractx.SessionContext, args map[string]any) contractx.ToolResult {
	tzName := strings.TrimSpace(stringArg(args, "timezone"))
	if tzName == "" {
		tzName = strings.TrimSpace(c.deps.Timezone)
	}

	loc := time.UTC
	if tzName != "" {
		parsed, err := time.LoadLocation(tzName)
		if err != nil {
			return errorResult(ToolCheckTime, fmt.Sprintf("unknown timezone %q", tzName))
		}
		loc = parsed
	}

	now := c.now()
	if !sess.Now.IsZero() {
		now = sess.Now
	}
	utc := now.UTC()
	local := now.In(loc)

	todayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	todayEnd := todayStart.Add(24*time.Hour - time.Second)
	weekEnd := todayStart.AddDate(0, 0, 7).Add(-time.Second)

	return okResult(ToolCheckTime, map[string]any{
		"utc": map[string]any{
			"iso":          utc.Format(time.RFC3339),
			"date":         utc.Format("2006-01-02"),
			"time":         utc.Format("15:04:05"),
			"weekday":      utc.Weekday().String(),
			"timestamp_ms": utc.UnixMilli(),
		},
		"local": map[string]any{
			"iso":          local.Format(time.RFC3339),
			"date":         local.Format("2006-01-02"),
			"time":         local.Format("15:04:05"),
			"weekday":      local.Weekday().String(),
			"timezone":     loc.String(),
			"offset":       utcOffset(local),
			"abbreviation": local.Format("MST"),
		},
		"anchors": map[string]any{
			"today_local": map[string]any{
				"start_iso": todayStart.Format(time.RFC3339),
				"end_iso":   todayEnd.Format(time.RFC3339),
			},
			"next_7_days_local": map[string]any{
				"start_iso": todayStart.Format(time.RFC3339),
				"end_iso":   weekEnd.Format(time.RFC3339),
			},
		},
	})
}

func utcOffset(t time.Time) string {
	_, seconds := t.Zone()
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}
