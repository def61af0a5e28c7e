package scheduler

import "time"

// Interval between two broadcasts. It is a fixed duration, so a DST shift in
// the schedule's timezone moves the local fire time by the size of the shift
// until the process restarts and recomputes the first trigger.
const Interval = 24 * time.Hour

// NextTrigger returns the first instant at or after now whose wall clock in
// loc reads hour:minute:00.
func NextTrigger(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if next.Before(now) {
		next = next.Add(Interval)
	}
	return next
}

// InitialDelay is the non-negative wait from now until NextTrigger.
func InitialDelay(now time.Time, hour, minute int, loc *time.Location) time.Duration {
	return NextTrigger(now, hour, minute, loc).Sub(now)
}

// DailySchedule is a cron.Schedule that fires first at the next hour:minute in
// Location and then every Interval after that first instant.
// Next is called by a single cron goroutine and is not safe for concurrent use.
type DailySchedule struct {
	Hour     int
	Minute   int
	Location *time.Location

	next time.Time
}

func (s *DailySchedule) Next(t time.Time) time.Time {
	if s.next.IsZero() {
		s.next = NextTrigger(t, s.Hour, s.Minute, s.Location)
		return s.next
	}
	for !s.next.After(t) {
		s.next = s.next.Add(Interval)
	}
	return s.next
}
