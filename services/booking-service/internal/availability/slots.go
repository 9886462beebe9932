// Package availability derives the bookable half-hour slots of a day from
// the fixed business-hours template.
package availability

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Timezone is the business timezone every date and slot is expressed in.
const Timezone = "Europe/Rome"

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// SlotLength is both the grid step and the length of one appointment.
const SlotLength = 30 * time.Minute

// Window is a half-open [Start, End) range measured from midnight.
type Window struct {
	Start time.Duration
	End   time.Duration
}

// BusinessHours is the single opening template: 08:30-13:00 and 15:00-19:00.
var BusinessHours = []Window{
	{Start: 8*time.Hour + 30*time.Minute, End: 13 * time.Hour},
	{Start: 15 * time.Hour, End: 19 * time.Hour},
}

var slotIndex = func() map[string]struct{} {
	idx := map[string]struct{}{}
	for _, s := range Generate(BusinessHours, SlotLength) {
		idx[s] = struct{}{}
	}
	return idx
}()

// Generate returns every slot start within windows, in window order, as
// zero-padded HH:MM. A slot is emitted only when it ends inside its window.
func Generate(windows []Window, step time.Duration) []string {
	if step <= 0 {
		return nil
	}
	var out []string
	for _, w := range windows {
		for t := w.Start; t+step <= w.End; t += step {
			out = append(out, clock(t))
		}
	}
	return out
}

// DaySlots is the slot list for any calendar date. Day-of-week rules are
// applied by the caller.
func DaySlots(time.Time) []string {
	return Generate(BusinessHours, SlotLength)
}

// IsSlot reports whether hhmm is one of the template's slot starts.
func IsSlot(hhmm string) bool {
	_, ok := slotIndex[hhmm]
	return ok
}

// Free returns the slots of all that are not in occupied, preserving order.
func Free(all []string, occupied map[string]struct{}) []string {
	out := make([]string, 0, len(all))
	for _, s := range all {
		if _, busy := occupied[s]; !busy {
			out = append(out, s)
		}
	}
	return out
}

// Location loads the business timezone. tzdata is embedded so this only
// fails on a misspelt constant.
func Location() *time.Location {
	loc, err := time.LoadLocation(Timezone)
	if err != nil {
		panic(fmt.Sprintf("availability: load %s: %v", Timezone, err))
	}
	return loc
}

// ParseDate parses YYYY-MM-DD as midnight in loc, rejecting anything that
// does not round-trip (e.g. 2025-02-30).
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

// SlotStart combines a date and slot start into an instant in loc.
func SlotStart(date, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+hhmm, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot %s %s: %w", date, hhmm, err)
	}
	return t, nil
}

func clock(d time.Duration) string {
	m := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
