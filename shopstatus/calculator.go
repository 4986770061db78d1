// Package shopstatus computes whether the shop is currently accepting
// orders from the configured weekday/weekend hours, special days and
// daily pause windows, all evaluated in the shop's own timezone.
package shopstatus

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"patisserie-backend/models"
)

// OperatingHours is today's effective open window as local wall-clock
// "HH:MM" strings.
type OperatingHours struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Status is the result of a shop availability calculation.
type Status struct {
	IsOpen         bool            `json:"is_open"`
	NextOpenTime   *time.Time      `json:"next_open_time,omitempty"`
	ClosingTime    *time.Time      `json:"closing_time,omitempty"`
	CurrentTime    time.Time       `json:"current_time"`
	Timezone       string          `json:"timezone"`
	OperatingHours *OperatingHours `json:"operating_hours,omitempty"`
	Message        string          `json:"message"`
}

// Calculate is a pure function of (settings, now). All schedule
// comparisons happen on the wall clock of settings.Timezone, so a
// server running in a different zone classifies weekday/weekend and
// open/closed the way the shop sees it.
func Calculate(s models.TimeSettings, now time.Time) (Status, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return Status{}, fmt.Errorf("invalid shop timezone %q: %w", s.Timezone, err)
	}

	local := now.In(loc)
	hhmm := local.Format("15:04")
	st := Status{CurrentTime: now, Timezone: s.Timezone}

	window, ok, closedMsg := effectiveWindow(s, local)
	if ok {
		st.OperatingHours = &OperatingHours{StartTime: window.StartTime, EndTime: window.EndTime}
		inWindow := hhmm >= window.StartTime && hhmm <= window.EndTime
		pause, paused := pauseContaining(s.PauseWindows, hhmm)

		switch {
		case inWindow && !paused:
			st.IsOpen = true
			closing := closingInstant(s.PauseWindows, window, local, hhmm, loc)
			st.ClosingTime = &closing
			st.Message = "Open now, accepting orders until " + closing.In(loc).Format("15:04")
			return st, nil

		case inWindow && paused:
			next := pauseEndInstant(pause, local, hhmm, loc)
			st.NextOpenTime = &next
			st.Message = "On a short break, back at " + next.In(loc).Format("15:04")
			return st, nil

		case hhmm < window.StartTime:
			next := ZoneTime(local, window.StartTime, loc)
			st.NextOpenTime = &next
			st.Message = "Currently closed, opens today at " + window.StartTime
			return st, nil
		}
		// past today's closing time: fall through to the forward scan
	}

	if next, found := nextOpening(s, local, loc); found {
		st.NextOpenTime = &next
	}
	st.Message = closedMessage(closedMsg, st.NextOpenTime, loc)
	return st, nil
}

// effectiveWindow resolves the schedule for the calendar date of local.
// ok is false when the shop is closed for that whole day; closedMsg
// carries the special-day description when that is the reason.
func effectiveWindow(s models.TimeSettings, local time.Time) (models.DaySchedule, bool, string) {
	date := local.Format("2006-01-02")
	for _, sp := range s.SpecialDays {
		if sp.Date != date {
			continue
		}
		if sp.IsClosed {
			return models.DaySchedule{}, false, sp.Description
		}
		window := regularSchedule(s, local)
		if sp.StartTime != "" {
			window.StartTime = sp.StartTime
		}
		if sp.EndTime != "" {
			window.EndTime = sp.EndTime
		}
		window.IsActive = true
		return window, true, ""
	}

	window := regularSchedule(s, local)
	if !window.IsActive {
		return models.DaySchedule{}, false, ""
	}
	return window, true, ""
}

func regularSchedule(s models.TimeSettings, local time.Time) models.DaySchedule {
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return s.Weekend
	}
	return s.Weekday
}

// pauseContaining returns the pause window containing hhmm, if any.
// A window with equal start and end never matches; start after end is
// treated as wrapping past midnight.
func pauseContaining(windows []models.PauseWindow, hhmm string) (models.PauseWindow, bool) {
	for _, w := range windows {
		if pauseContains(w, hhmm) {
			return w, true
		}
	}
	return models.PauseWindow{}, false
}

func pauseContains(w models.PauseWindow, hhmm string) bool {
	switch {
	case w.StartTime == w.EndTime:
		return false
	case w.StartTime < w.EndTime:
		return hhmm >= w.StartTime && hhmm < w.EndTime
	default: // wraps past midnight
		return hhmm >= w.StartTime || hhmm < w.EndTime
	}
}

// closingInstant picks the soonest moment the shop stops serving: the
// scheduled end of day, or the start of the first upcoming pause window
// that begins before the scheduled end.
func closingInstant(pauses []models.PauseWindow, window models.DaySchedule, local time.Time, hhmm string, loc *time.Location) time.Time {
	closing := ZoneTime(local, window.EndTime, loc)
	for _, p := range pauses {
		if p.StartTime == p.EndTime {
			continue
		}
		if p.StartTime > hhmm && p.StartTime < window.EndTime {
			if candidate := ZoneTime(local, p.StartTime, loc); candidate.Before(closing) {
				closing = candidate
			}
		}
	}
	return closing
}

// pauseEndInstant resolves when the containing pause window ends. For a
// wrapped window entered before midnight, the end is on the next day.
func pauseEndInstant(p models.PauseWindow, local time.Time, hhmm string, loc *time.Location) time.Time {
	if p.StartTime > p.EndTime && hhmm >= p.StartTime {
		return ZoneTime(local.AddDate(0, 0, 1), p.EndTime, loc)
	}
	return ZoneTime(local, p.EndTime, loc)
}

// nextOpening scans forward up to 7 days for the next day with an
// active schedule and returns its start instant.
func nextOpening(s models.TimeSettings, local time.Time, loc *time.Location) (time.Time, bool) {
	for d := 1; d <= 7; d++ {
		day := local.AddDate(0, 0, d)
		if window, ok, _ := effectiveWindow(s, day); ok {
			return ZoneTime(day, window.StartTime, loc), true
		}
	}
	return time.Time{}, false
}

func closedMessage(special string, nextOpen *time.Time, loc *time.Location) string {
	if special != "" {
		return special
	}
	if nextOpen != nil {
		return "Currently closed, opens " + nextOpen.In(loc).Format("Mon 15:04")
	}
	return "Currently closed"
}

// ZoneTime converts an "HH:MM" wall-clock time on ref's calendar date
// (as seen in loc) into the exact instant, DST-correct via the IANA
// zone data.
func ZoneTime(ref time.Time, hhmm string, loc *time.Location) time.Time {
	h, m := splitHHMM(hhmm)
	refLocal := ref.In(loc)
	return time.Date(refLocal.Year(), refLocal.Month(), refLocal.Day(), h, m, 0, 0, loc)
}

func splitHHMM(hhmm string) (int, int) {
	hs, ms, found := strings.Cut(hhmm, ":")
	if !found {
		return 0, 0
	}
	h, _ := strconv.Atoi(hs)
	m, _ := strconv.Atoi(ms)
	return h, m
}

// DefaultStatus is the hard-coded safe fallback used when settings
// cannot be loaded: report the shop open with the default hours rather
// than blocking browsing on a transient settings failure.
func DefaultStatus(now time.Time) Status {
	return Status{
		IsOpen:         true,
		CurrentTime:    now,
		Timezone:       "Asia/Kolkata",
		OperatingHours: &OperatingHours{StartTime: "09:00", EndTime: "21:00"},
		Message:        "Open now",
	}
}
