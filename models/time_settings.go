package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DaySchedule is the recurring open/close window for a class of days.
// Times are local wall-clock "HH:MM" strings in the configured timezone.
// IsActive false means the shop does not open at all on those days.
type DaySchedule struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsActive  bool   `json:"is_active"`
}

// SpecialDay overrides the regular schedule for one calendar date
// (compared in the configured timezone, not UTC). When IsClosed is
// false and StartTime/EndTime are set, they replace the regular hours
// for that date.
type SpecialDay struct {
	Date        string `json:"date"` // YYYY-MM-DD
	IsClosed    bool   `json:"is_closed"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	Description string `json:"description,omitempty"`
}

// PauseWindow is a recurring daily closure inside the open window, such
// as a lunch break. StartTime > EndTime means the window wraps past
// midnight; StartTime == EndTime means the window never matches.
type PauseWindow struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// TimeSettings is the singleton shop-hours configuration. Exactly one
// row exists per deployment; it is created lazily with defaults on
// first read and only ever mutated by admin updates.
type TimeSettings struct {
	ID           uuid.UUID                        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Weekday      DaySchedule                      `gorm:"embedded;embeddedPrefix:weekday_" json:"weekday"`
	Weekend      DaySchedule                      `gorm:"embedded;embeddedPrefix:weekend_" json:"weekend"`
	Timezone     string                           `gorm:"not null;default:'Asia/Kolkata'" json:"timezone"`
	SpecialDays  datatypes.JSONSlice[SpecialDay]  `json:"special_days"`
	PauseWindows datatypes.JSONSlice[PauseWindow] `json:"pause_windows"`
	CreatedAt    time.Time                        `json:"created_at"`
	UpdatedAt    time.Time                        `json:"updated_at"`
}

func (t *TimeSettings) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// DefaultTimeSettings returns the configuration used when no settings
// row exists yet, and the safe fallback when the database is
// unreachable: open every day 09:00-21:00 in Asia/Kolkata.
func DefaultTimeSettings() TimeSettings {
	return TimeSettings{
		Weekday:  DaySchedule{StartTime: "09:00", EndTime: "21:00", IsActive: true},
		Weekend:  DaySchedule{StartTime: "09:00", EndTime: "21:00", IsActive: true},
		Timezone: "Asia/Kolkata",
	}
}
