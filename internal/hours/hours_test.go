package hours

import (
	"strings"
	"testing"
	"time"
)

func pt(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04:05.999999999", s, pacific)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts
}

func TestCheck_Table(t *testing.T) {
	tests := []struct {
		name     string
		at       string
		open     bool
		nextOpen string
		day      string
	}{
		{name: "monday opening instant", at: "2026-07-13 09:00:00", open: true, day: "Monday"},
		{name: "monday one second before open", at: "2026-07-13 08:59:59", open: false, nextOpen: NextOpenMonday, day: "Monday"},
		{name: "monday small hours", at: "2026-07-20 03:00:00", open: false, nextOpen: NextOpenMonday, day: "Monday"},
		{name: "tuesday before open", at: "2026-07-14 07:15:00", open: false, nextOpen: NextOpenToday, day: "Tuesday"},
		{name: "wednesday midday", at: "2026-07-15 12:30:00", open: true, day: "Wednesday"},
		{name: "closing instant still open", at: "2026-07-16 17:00:00", open: true, day: "Thursday"},
		{name: "half second past close", at: "2026-07-16 17:00:00.5", open: false, nextOpen: NextOpenTomorrow, day: "Thursday"},
		{name: "thursday after close", at: "2026-07-16 17:00:01", open: false, nextOpen: NextOpenTomorrow, day: "Thursday"},
		{name: "thursday late night", at: "2026-07-16 23:59:59", open: false, nextOpen: NextOpenTomorrow, day: "Thursday"},
		{name: "friday after close", at: "2026-07-17 17:30:00", open: false, nextOpen: NextOpenMonday, day: "Friday"},
		{name: "friday before open", at: "2026-07-17 06:00:00", open: false, nextOpen: NextOpenToday, day: "Friday"},
		{name: "saturday midday", at: "2026-07-18 12:00:00", open: false, nextOpen: NextOpenMonday, day: "Saturday"},
		{name: "sunday evening", at: "2026-07-19 20:00:00", open: false, nextOpen: NextOpenMonday, day: "Sunday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Check(pt(t, tt.at))
			if st.IsOpen != tt.open {
				t.Fatalf("IsOpen = %v, want %v", st.IsOpen, tt.open)
			}
			if st.NextOpenTime != tt.nextOpen {
				t.Fatalf("NextOpenTime = %q, want %q", st.NextOpenTime, tt.nextOpen)
			}
			if st.DayOfWeek != tt.day {
				t.Fatalf("DayOfWeek = %q, want %q", st.DayOfWeek, tt.day)
			}
			if st.Message == "" {
				t.Fatalf("expected message")
			}
			if !st.IsOpen && !strings.Contains(st.Message, "closed") {
				t.Fatalf("closed message should say closed: %q", st.Message)
			}
		})
	}
}

func TestCheck_DaylightSaving(t *testing.T) {
	// 16:30 UTC is 09:30 PDT in July but 08:30 PST in November.
	summer := time.Date(2026, time.July, 14, 16, 30, 0, 0, time.UTC)
	winter := time.Date(2026, time.November, 3, 16, 30, 0, 0, time.UTC)

	if !Check(summer).IsOpen {
		t.Fatalf("expected open at 09:30 PDT")
	}
	st := Check(winter)
	if st.IsOpen {
		t.Fatalf("expected closed at 08:30 PST")
	}
	if st.NextOpenTime != NextOpenToday {
		t.Fatalf("expected today, got %q", st.NextOpenTime)
	}
}

func TestCheck_WeekendWindowAlwaysOpensMonday(t *testing.T) {
	start := pt(t, "2026-07-17 17:00:01")
	end := pt(t, "2026-07-20 09:00:00")
	for ts := start; ts.Before(end); ts = ts.Add(7 * time.Minute) {
		st := Check(ts)
		if st.IsOpen {
			t.Fatalf("expected closed at %s", ts)
		}
		if st.NextOpenTime != NextOpenMonday {
			t.Fatalf("at %s: NextOpenTime = %q", ts, st.NextOpenTime)
		}
	}
}

func TestCheck_MondayMorningSaysMonday(t *testing.T) {
	st := Check(pt(t, "2026-07-20 00:04:01"))
	if !strings.Contains(st.Message, "Monday at 9 AM") {
		t.Fatalf("message = %q", st.Message)
	}
}

func TestCheck_BusinessWindowAlwaysOpen(t *testing.T) {
	for day := 13; day <= 17; day++ {
		open := time.Date(2026, time.July, day, 9, 0, 0, 0, pacific)
		for ts := open; !ts.After(open.Add(8 * time.Hour)); ts = ts.Add(11 * time.Minute) {
			if !Check(ts).IsOpen {
				t.Fatalf("expected open at %s", ts)
			}
		}
	}
}

func TestAfterHoursGreetingIncludesNextOpening(t *testing.T) {
	st := Check(pt(t, "2026-07-18 12:00:00"))
	g := AfterHoursGreeting(st)
	if !strings.Contains(g, NextOpenMonday) {
		t.Fatalf("greeting should mention next opening: %q", g)
	}
}
