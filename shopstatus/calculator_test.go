package shopstatus

import (
	"testing"
	"time"

	"patisserie-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kolkataSettings() models.TimeSettings {
	return models.TimeSettings{
		Weekday:  models.DaySchedule{StartTime: "09:00", EndTime: "21:00", IsActive: true},
		Weekend:  models.DaySchedule{StartTime: "09:00", EndTime: "21:00", IsActive: true},
		Timezone: "Asia/Kolkata",
	}
}

func utc(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestCalculateOpenDuringHours(t *testing.T) {
	// 2024-01-15 is a Monday; 03:30 UTC is 09:00 IST, exactly opening time.
	now := utc(t, "2024-01-15T03:30:00Z")

	st, err := Calculate(kolkataSettings(), now)
	require.NoError(t, err)

	assert.True(t, st.IsOpen)
	require.NotNil(t, st.ClosingTime)
	assert.Equal(t, utc(t, "2024-01-15T15:30:00Z"), st.ClosingTime.UTC())
	assert.Nil(t, st.NextOpenTime)
	require.NotNil(t, st.OperatingHours)
	assert.Equal(t, "09:00", st.OperatingHours.StartTime)
	assert.Equal(t, "21:00", st.OperatingHours.EndTime)
}

func TestCalculateClosedAfterHours(t *testing.T) {
	// 16:00 UTC is 21:30 IST, past closing; next open is Tuesday 09:00 IST.
	now := utc(t, "2024-01-15T16:00:00Z")

	st, err := Calculate(kolkataSettings(), now)
	require.NoError(t, err)

	assert.False(t, st.IsOpen)
	require.NotNil(t, st.NextOpenTime)
	assert.Equal(t, utc(t, "2024-01-16T03:30:00Z"), st.NextOpenTime.UTC())
	assert.Nil(t, st.ClosingTime)
}

func TestCalculateClosedBeforeOpeningSameDay(t *testing.T) {
	// 02:00 UTC is 07:30 IST; opens later the same day.
	now := utc(t, "2024-01-15T02:00:00Z")

	st, err := Calculate(kolkataSettings(), now)
	require.NoError(t, err)

	assert.False(t, st.IsOpen)
	require.NotNil(t, st.NextOpenTime)
	assert.Equal(t, utc(t, "2024-01-15T03:30:00Z"), st.NextOpenTime.UTC())
	assert.Contains(t, st.Message, "opens today at 09:00")
}

func TestCalculatePauseWindowClosesShop(t *testing.T) {
	settings := kolkataSettings()
	settings.PauseWindows = []models.PauseWindow{{StartTime: "13:00", EndTime: "14:00"}}

	// 08:00 UTC is 13:30 IST, inside the lunch pause.
	st, err := Calculate(settings, utc(t, "2024-01-15T08:00:00Z"))
	require.NoError(t, err)

	assert.False(t, st.IsOpen)
	require.NotNil(t, st.NextOpenTime)
	assert.Equal(t, utc(t, "2024-01-15T08:30:00Z"), st.NextOpenTime.UTC())

	// The pause start is inclusive.
	st, err = Calculate(settings, utc(t, "2024-01-15T07:30:00Z"))
	require.NoError(t, err)
	assert.False(t, st.IsOpen)
}

func TestCalculateClosingTimeIsNextPauseStart(t *testing.T) {
	settings := kolkataSettings()
	settings.PauseWindows = []models.PauseWindow{{StartTime: "13:00", EndTime: "14:00"}}

	// 04:00 UTC is 09:30 IST; the shop closes next at the 13:00 pause,
	// not at the 21:00 end of day.
	st, err := Calculate(settings, utc(t, "2024-01-15T04:00:00Z"))
	require.NoError(t, err)

	assert.True(t, st.IsOpen)
	require.NotNil(t, st.ClosingTime)
	assert.Equal(t, utc(t, "2024-01-15T07:30:00Z"), st.ClosingTime.UTC())
}

func TestCalculateSpecialDayClosed(t *testing.T) {
	settings := kolkataSettings()
	settings.SpecialDays = []models.SpecialDay{
		{Date: "2024-01-15", IsClosed: true, Description: "Closed for a private event"},
	}

	st, err := Calculate(settings, utc(t, "2024-01-15T05:00:00Z"))
	require.NoError(t, err)

	assert.False(t, st.IsOpen)
	assert.Equal(t, "Closed for a private event", st.Message)
	require.NotNil(t, st.NextOpenTime)
	assert.Equal(t, utc(t, "2024-01-16T03:30:00Z"), st.NextOpenTime.UTC())
}

func TestCalculateSpecialDayCustomHours(t *testing.T) {
	settings := kolkataSettings()
	settings.SpecialDays = []models.SpecialDay{
		{Date: "2024-01-15", StartTime: "10:00", EndTime: "18:00"},
	}

	// 04:00 UTC is 09:30 IST: before the special opening.
	st, err := Calculate(settings, utc(t, "2024-01-15T04:00:00Z"))
	require.NoError(t, err)
	assert.False(t, st.IsOpen)
	require.NotNil(t, st.NextOpenTime)
	assert.Equal(t, utc(t, "2024-01-15T04:30:00Z"), st.NextOpenTime.UTC())

	// 06:00 UTC is 11:30 IST: open until 18:00 IST.
	st, err = Calculate(settings, utc(t, "2024-01-15T06:00:00Z"))
	require.NoError(t, err)
	assert.True(t, st.IsOpen)
	require.NotNil(t, st.ClosingTime)
	assert.Equal(t, utc(t, "2024-01-15T12:30:00Z"), st.ClosingTime.UTC())
	require.NotNil(t, st.OperatingHours)
	assert.Equal(t, "10:00", st.OperatingHours.StartTime)
	assert.Equal(t, "18:00", st.OperatingHours.EndTime)
}

func TestCalculateInactiveWeekendScansForward(t *testing.T) {
	settings := kolkataSettings()
	settings.Weekend.IsActive = false

	// 2024-01-13 is a Saturday; 05:00 UTC is 10:30 IST.
	st, err := Calculate(settings, utc(t, "2024-01-13T05:00:00Z"))
	require.NoError(t, err)

	assert.False(t, st.IsOpen)
	assert.Nil(t, st.OperatingHours)
	require.NotNil(t, st.NextOpenTime)
	// Sunday is also weekend, so next open is Monday 09:00 IST.
	assert.Equal(t, utc(t, "2024-01-15T03:30:00Z"), st.NextOpenTime.UTC())
}

func TestCalculateNoActiveScheduleAtAll(t *testing.T) {
	settings := kolkataSettings()
	settings.Weekday.IsActive = false
	settings.Weekend.IsActive = false

	st, err := Calculate(settings, utc(t, "2024-01-15T05:00:00Z"))
	require.NoError(t, err)

	assert.False(t, st.IsOpen)
	assert.Nil(t, st.NextOpenTime)
	assert.Equal(t, "Currently closed", st.Message)
}

func TestCalculateWeekdayWeekendClassifiedInShopZone(t *testing.T) {
	// 2024-01-13T02:00Z is Friday 18:00 in America/Los_Angeles but
	// already Saturday 07:30 in Kolkata. The shop's zone decides.
	settings := kolkataSettings()
	settings.Weekend = models.DaySchedule{StartTime: "11:00", EndTime: "15:00", IsActive: true}

	st, err := Calculate(settings, utc(t, "2024-01-13T02:00:00Z"))
	require.NoError(t, err)

	require.NotNil(t, st.OperatingHours)
	assert.Equal(t, "11:00", st.OperatingHours.StartTime)
}

func TestCalculateDSTTransition(t *testing.T) {
	settings := models.TimeSettings{
		Weekday:  models.DaySchedule{StartTime: "09:00", EndTime: "17:00", IsActive: true},
		Weekend:  models.DaySchedule{StartTime: "09:00", EndTime: "17:00", IsActive: true},
		Timezone: "America/New_York",
	}

	// Monday 2024-03-04: EST (UTC-5). 13:30 UTC is 08:30 local, closed.
	st, err := Calculate(settings, utc(t, "2024-03-04T13:30:00Z"))
	require.NoError(t, err)
	assert.False(t, st.IsOpen)
	require.NotNil(t, st.NextOpenTime)
	assert.Equal(t, utc(t, "2024-03-04T14:00:00Z"), st.NextOpenTime.UTC())

	// Monday 2024-03-11: EDT (UTC-4). The same 13:30 UTC is now 09:30
	// local, open; closing 17:00 EDT is 21:00 UTC.
	st, err = Calculate(settings, utc(t, "2024-03-11T13:30:00Z"))
	require.NoError(t, err)
	assert.True(t, st.IsOpen)
	require.NotNil(t, st.ClosingTime)
	assert.Equal(t, utc(t, "2024-03-11T21:00:00Z"), st.ClosingTime.UTC())
}

func TestCalculateInvalidTimezone(t *testing.T) {
	settings := kolkataSettings()
	settings.Timezone = "Not/AZone"

	_, err := Calculate(settings, time.Now())
	assert.Error(t, err)
}

func TestPauseContains(t *testing.T) {
	cases := []struct {
		window models.PauseWindow
		hhmm   string
		want   bool
	}{
		{models.PauseWindow{StartTime: "13:00", EndTime: "14:00"}, "13:00", true},
		{models.PauseWindow{StartTime: "13:00", EndTime: "14:00"}, "13:59", true},
		{models.PauseWindow{StartTime: "13:00", EndTime: "14:00"}, "14:00", false},
		{models.PauseWindow{StartTime: "13:00", EndTime: "14:00"}, "12:59", false},
		// Equal start and end never matches.
		{models.PauseWindow{StartTime: "13:00", EndTime: "13:00"}, "13:00", false},
		// Start after end wraps past midnight.
		{models.PauseWindow{StartTime: "23:00", EndTime: "01:00"}, "23:30", true},
		{models.PauseWindow{StartTime: "23:00", EndTime: "01:00"}, "00:30", true},
		{models.PauseWindow{StartTime: "23:00", EndTime: "01:00"}, "12:00", false},
	}
	for _, tc := range cases {
		got := pauseContains(tc.window, tc.hhmm)
		assert.Equalf(t, tc.want, got, "window %s-%s at %s", tc.window.StartTime, tc.window.EndTime, tc.hhmm)
	}
}

func TestZoneTime(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	ref := utc(t, "2024-01-15T12:00:00Z")
	got := ZoneTime(ref, "09:00", loc)
	assert.Equal(t, utc(t, "2024-01-15T03:30:00Z"), got.UTC())
}

func TestDefaultStatusAlwaysOpen(t *testing.T) {
	now := time.Now()
	st := DefaultStatus(now)

	assert.True(t, st.IsOpen)
	assert.Equal(t, "Asia/Kolkata", st.Timezone)
	require.NotNil(t, st.OperatingHours)
	assert.Equal(t, "09:00", st.OperatingHours.StartTime)
	assert.Equal(t, "21:00", st.OperatingHours.EndTime)
}
