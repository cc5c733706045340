package model

import (
	"fmt"
	"time"
)

// DayWindow is a working window for a single weekday, using "HH:MM" bounds.
type DayWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeekTemplate maps a weekday (0 = Sunday, per time.Weekday) to its working
// window. Days without an entry are days off.
type WeekTemplate map[int]DayWindow

// Technician represents a field technician. Technician records are maintained
// by an external HR process; the engine treats them as read-mostly reference
// data.
type Technician struct {
	ID          string       `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Territories []string     `json:"territories" db:"-"`
	Hours       WeekTemplate `json:"hours" db:"-"`
	Active      bool         `json:"active" db:"active"`
}

// ServesTerritory reports whether the territory is in the technician's set.
func (t Technician) ServesTerritory(territory string) bool {
	for _, tr := range t.Territories {
		if tr == territory {
			return true
		}
	}
	return false
}

// WorkdayBounds returns the technician's working window on the given date in
// UTC. ok is false when the technician does not work that weekday.
func (t Technician) WorkdayBounds(date time.Time) (start, end time.Time, ok bool) {
	date = date.UTC()
	w, found := t.Hours[int(date.Weekday())]
	if !found {
		return time.Time{}, time.Time{}, false
	}
	s, err := parseHHMM(w.Start)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	e, err := parseHHMM(w.End)
	if err != nil || e <= s {
		return time.Time{}, time.Time{}, false
	}
	year, month, day := date.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return midnight.Add(s), midnight.Add(e), true
}

// LongestBlockMinutes returns the longest single working window across the
// week, in minutes. Used to validate requested slot durations.
func (t Technician) LongestBlockMinutes() int {
	longest := 0
	for _, w := range t.Hours {
		s, err := parseHHMM(w.Start)
		if err != nil {
			continue
		}
		e, err := parseHHMM(w.End)
		if err != nil {
			continue
		}
		if mins := int((e - s).Minutes()); mins > longest {
			longest = mins
		}
	}
	return longest
}

// Validate checks that the weekly template is well formed.
func (t Technician) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("technician id is required")
	}
	for day, w := range t.Hours {
		if day < 0 || day > 6 {
			return fmt.Errorf("invalid weekday %d", day)
		}
		s, err := parseHHMM(w.Start)
		if err != nil {
			return fmt.Errorf("day %d start: %w", day, err)
		}
		e, err := parseHHMM(w.End)
		if err != nil {
			return fmt.Errorf("day %d end: %w", day, err)
		}
		if e <= s {
			return fmt.Errorf("day %d window end must be after start", day)
		}
	}
	return nil
}

func parseHHMM(s string) (time.Duration, error) {
	if len(s) < 5 {
		return 0, fmt.Errorf("invalid time string %q", s)
	}
	tt, err := time.Parse("15:04", s[:5])
	if err != nil {
		return 0, err
	}
	return time.Duration(tt.Hour())*time.Hour + time.Duration(tt.Minute())*time.Minute, nil
}
