// Package hours answers whether the office is staffed at a given instant.
//
// Schedule: Monday through Friday, 9 AM to 5 PM Pacific Time. The closing
// instant (17:00:00) still counts as open; anything after it does not.
package hours

import (
	"fmt"
	"time"

	// Embedded zone database so the Pacific lookup works on minimal images.
	_ "time/tzdata"
)

const (
	openSecond  = 9 * 3600
	closeSecond = 17 * 3600

	ScheduleSummary = "Monday through Friday, 9 AM to 5 PM Pacific Time"

	NextOpenMonday   = "Monday at 9 AM Pacific Time"
	NextOpenToday    = "today at 9 AM Pacific Time"
	NextOpenTomorrow = "tomorrow at 9 AM Pacific Time"
)

var pacific = mustLoadLocation("America/Los_Angeles")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("hours: load %s: %v", name, err))
	}
	return loc
}

// Location is the office time zone all schedule checks use.
func Location() *time.Location { return pacific }

// Status is the result of a business-hours check.
type Status struct {
	IsOpen    bool
	DayOfWeek string
	Message   string

	// NextOpenTime is empty while open.
	NextOpenTime string

	// LocalTime is the checked instant in Pacific Time.
	LocalTime time.Time
}

// Check computes open/closed status for now. It has no side effects.
func Check(now time.Time) Status {
	local := now.In(pacific)
	day := local.Weekday()
	second := local.Hour()*3600 + local.Minute()*60 + local.Second()
	// 17:00:00 exactly is open; any fraction past it is not.
	beforeClose := second < closeSecond || (second == closeSecond && local.Nanosecond() == 0)

	weekday := day >= time.Monday && day <= time.Friday
	st := Status{
		IsOpen:    weekday && second >= openSecond && beforeClose,
		DayOfWeek: day.String(),
		LocalTime: local,
	}
	if st.IsOpen {
		st.Message = "We are currently open. Our business hours are " + ScheduleSummary + "."
		return st
	}

	switch {
	case !weekday:
		st.NextOpenTime = NextOpenMonday
		st.Message = "We are currently closed. Our office is closed on weekends. We will be open " + NextOpenMonday + "."
	case second < openSecond && day == time.Monday:
		st.NextOpenTime = NextOpenMonday
		st.Message = "We are currently closed. Our office opens at 9 AM Pacific Time. We will be open Monday at 9 AM."
	case second < openSecond:
		st.NextOpenTime = NextOpenToday
		st.Message = "We are currently closed. Our office opens at 9 AM Pacific Time. We will be open today at 9 AM."
	case day == time.Friday:
		st.NextOpenTime = NextOpenMonday
		st.Message = "We are currently closed. Our business hours are " + ScheduleSummary + ". We will be open Monday at 9 AM."
	default:
		st.NextOpenTime = NextOpenTomorrow
		st.Message = "We are currently closed. Our business hours are " + ScheduleSummary + ". We will be open tomorrow at 9 AM."
	}
	return st
}

// OpenGreeting is spoken at the top of a call during business hours.
func OpenGreeting() string {
	return "Thank you for calling RepMotivatedSeller, your foreclosure assistance partner. " +
		"We are currently open and ready to help you."
}

// AfterHoursGreeting is spoken at the top of a call outside business hours.
func AfterHoursGreeting(st Status) string {
	return "Thank you for calling RepMotivatedSeller. " + st.Message + " " +
		"If this is an urgent foreclosure matter, please press 5 to leave a detailed voicemail, and we will prioritize your call. " +
		"For general information, please visit our website at repmotivatedseller dot com."
}
