package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Clock supplies the current time. Tests inject a fixed or stepping clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

var (
	etStatusPattern   = regexp.MustCompile(`(?i)^\d{1,2}:\d{2}\s(am|pm)\sET$`)
	isoMinutesPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:([\d.]+)S)?$`)
)

// TimeZones holds the provider zone (Eastern) and the display zone.
type TimeZones struct {
	Eastern *time.Location
	Display *time.Location
}

// LoadTimeZones resolves the zone database entries, falling back to fixed offsets.
func LoadTimeZones(display string) TimeZones {
	eastern, err := time.LoadLocation("America/New_York")
	if err != nil {
		logrus.WithError(err).Warn("Failed to load America/New_York, falling back to EST")
		eastern = time.FixedZone("EST", -5*60*60)
	}

	displayLoc, err := time.LoadLocation(display)
	if err != nil {
		logrus.WithError(err).Warnf("Failed to load %s, falling back to CST", display)
		displayLoc = time.FixedZone("CST", -6*60*60)
	}

	return TimeZones{Eastern: eastern, Display: displayLoc}
}

func clockTime(t time.Time) string {
	return t.Format("3:04 PM")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FormatGameStart turns a provider "YYYY-MM-DD HH:MM" Eastern time into a display
// label ("Today @ 7:30 PM", "Tomorrow @ 7:30 PM", "Mon, Nov 3 @ 7:30 PM") and a unix timestamp.
func (z TimeZones) FormatGameStart(whenET string, now time.Time) (string, int64, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(whenET), z.Eastern)
	if err != nil {
		return "", 0, fmt.Errorf("parse start time %q: %w", whenET, err)
	}

	return z.StartLabel(start, now), start.Unix(), nil
}

// StartLabel renders a tip-off relative to now in the display zone.
func (z TimeZones) StartLabel(start, now time.Time) string {
	local := start.In(z.Display)
	today := now.In(z.Display)

	switch {
	case sameDay(local, today):
		return "Today @ " + clockTime(local)
	case sameDay(local, today.AddDate(0, 0, 1)):
		return "Tomorrow @ " + clockTime(local)
	default:
		return local.Format("Mon, Jan 2") + " @ " + clockTime(local)
	}
}

// DayLabel is "Tomorrow @ h:mm PM" for a tip-off on the next display-zone day, otherwise "".
func (z TimeZones) DayLabel(tipoff, now time.Time) string {
	local := tipoff.In(z.Display)
	if sameDay(local, now.In(z.Display).AddDate(0, 0, 1)) {
		return "Tomorrow @ " + clockTime(local)
	}
	return ""
}

// ConvertStatus rewrites a "7:00 pm ET" status into display-zone time ("6:00 PM CST").
// Any other status is returned unchanged.
func (z TimeZones) ConvertStatus(status string, now time.Time) string {
	status = strings.TrimSpace(status)
	if !etStatusPattern.MatchString(status) {
		return status
	}

	clock := strings.TrimSpace(strings.TrimSuffix(strings.ToUpper(status), " ET"))
	parsed, err := time.Parse("3:04 PM", clock)
	if err != nil {
		return status
	}

	day := now.In(z.Eastern)
	eastern := time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, z.Eastern)
	local := eastern.In(z.Display)
	return clockTime(local) + " " + local.Format("MST")
}

// DateFromMillis formats a unix-millisecond timestamp as a display-zone calendar date.
func (z TimeZones) DateFromMillis(ms int64) string {
	return time.UnixMilli(ms).In(z.Display).Format("2006-01-02")
}

// FormatMinutes renders playing time as M:SS. It accepts decimal minutes ("30.5"),
// ISO-8601 durations ("PT9M05.00S") and values already in M:SS form.
func FormatMinutes(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "0:00"
	}

	if strings.Contains(raw, ":") {
		return raw
	}

	if match := isoMinutesPattern.FindStringSubmatch(raw); match != nil {
		hours, _ := strconv.Atoi(match[1])
		minutes, _ := strconv.Atoi(match[2])
		seconds, _ := strconv.ParseFloat(match[3], 64)
		return formatClock(hours*60+minutes, int(seconds))
	}

	decimal, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "0:00"
	}
	minutes := int(decimal)
	seconds := int(math.Round((decimal - float64(minutes)) * 60))
	return formatClock(minutes, seconds)
}

func formatClock(minutes, seconds int) string {
	if seconds >= 60 {
		minutes += seconds / 60
		seconds %= 60
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// ParseGameClock converts a play-by-play clock ("PT11M42.00S") into seconds remaining.
func ParseGameClock(raw string) (int, bool) {
	match := isoMinutesPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil || raw == "PT" {
		return 0, false
	}
	minutes, _ := strconv.Atoi(match[2])
	seconds, _ := strconv.ParseFloat(match[3], 64)
	return minutes*60 + int(seconds), true
}
