package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

var weekdayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// CronToHuman renders a five-field cron expression as a readable description,
// e.g. "0 * * * *" becomes "Every hour". Expressions it does not recognize
// come back as "Custom schedule: <expr>".
func CronToHuman(spec string) string {
	parts := strings.Fields(strings.TrimSpace(spec))
	if len(parts) != 5 {
		return "Custom schedule: " + spec
	}

	minute, hour, day, month, weekday := parts[0], parts[1], parts[2], parts[3], parts[4]
	wild := day == "*" && month == "*" && weekday == "*"

	if interval, ok := strings.CutPrefix(minute, "*/"); ok && hour == "*" && wild {
		return fmt.Sprintf("Every %s minutes", interval)
	}

	if minute == "0" && hour == "*" && wild {
		return "Every hour"
	}

	if interval, ok := strings.CutPrefix(hour, "*/"); ok && minute == "0" && wild {
		return fmt.Sprintf("Every %s hours", interval)
	}

	if h, err := strconv.Atoi(hour); err == nil && wild {
		m := 0
		if parsed, err := strconv.Atoi(minute); err == nil {
			m = parsed
		}
		return "Daily at " + clockTime(h, m)
	}

	if wd, err := strconv.Atoi(weekday); err == nil && day == "*" && month == "*" && wd >= 0 && wd <= 6 {
		h, m := 0, 0
		if parsed, err := strconv.Atoi(hour); err == nil {
			h = parsed
		}
		if parsed, err := strconv.Atoi(minute); err == nil {
			m = parsed
		}
		return fmt.Sprintf("Weekly on %s at %s", weekdayNames[wd], clockTime(h, m))
	}

	return "Custom schedule: " + spec
}

func clockTime(hour, minute int) string {
	period := "AM"
	displayHour := hour
	switch {
	case hour == 0:
		displayHour = 12
	case hour == 12:
		period = "PM"
	case hour > 12:
		displayHour = hour - 12
		period = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", displayHour, minute, period)
}

// IntervalToCron maps a preset interval name to a cron expression. Unknown
// presets default to hourly.
func IntervalToCron(interval, customHour, customMinute string) string {
	if customHour == "" {
		customHour = "0"
	}
	if customMinute == "" {
		customMinute = "0"
	}

	presets := map[string]string{
		"15min":   "*/15 * * * *",
		"30min":   "*/30 * * * *",
		"1hour":   "0 * * * *",
		"2hours":  "0 */2 * * *",
		"4hours":  "0 */4 * * *",
		"6hours":  "0 */6 * * *",
		"12hours": "0 */12 * * *",
		"daily":   fmt.Sprintf("%s %s * * *", customMinute, customHour),
	}

	if expr, ok := presets[interval]; ok {
		return expr
	}
	return "0 * * * *"
}
