// Package roster holds the rules for canteen employees: the directory,
// weekly shift schedules, daily attendance and leave requests.
package roster

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNameRequired      = errors.New("name is required")
	ErrInvalidRate       = errors.New("hourly_rate must not be negative")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidDay        = errors.New("invalid day")
	ErrInvalidTime       = errors.New("invalid time, expected HH:MM")
	ErrInvalidDate       = errors.New("invalid date, expected YYYY-MM-DD")
	ErrShiftOrder        = errors.New("start_time must be before end_time")
	ErrCheckOutOrder     = errors.New("check_out must not be before check_in")
	ErrInvalidLeaveType  = errors.New("invalid leave type")
	ErrLeaveRange        = errors.New("end_date must not be before start_date")
	ErrNothingToUpdate   = errors.New("no valid fields to update")
	ErrEmployeeRequired  = errors.New("employee_id is required")
	ErrDateRequired      = errors.New("date is required")
	ErrLeaveDateRequired = errors.New("start_date and end_date are required")
)

// Employee statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusOnLeave  = "on_leave"
)

// Days lists the schedule days in calendar order, Sunday first.
var Days = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// DateLayout is the wire format for attendance and leave dates.
const DateLayout = "2006-01-02"

// EmployeeStatus lower-cases s and checks it. Empty means active.
func EmployeeStatus(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return StatusActive, nil
	case StatusActive, StatusInactive, StatusOnLeave:
		return s, nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidStatus, s)
}

// HourlyRate rejects negative rates and rounds to cents.
func HourlyRate(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidRate
	}
	return d.Round(2), nil
}

// Day matches s against Days ignoring case and returns the canonical name.
func Day(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, d := range Days {
		if strings.EqualFold(d, s) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrInvalidDay, s)
}

// DayIndex is the position of d in Days, or -1.
func DayIndex(d string) int {
	for i, v := range Days {
		if v == d {
			return i
		}
	}
	return -1
}

// Clock is a time of day in minutes after midnight.
type Clock int

// ParseClock reads "HH:MM" or "HH:MM:SS". Seconds are dropped.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
	}
	return Clock(h*60 + m), nil
}

// FromMicros converts microseconds after midnight, as stored by Postgres
// TIME columns.
func FromMicros(us int64) Clock {
	return Clock(us / 60_000_000)
}

// Micros is the inverse of FromMicros.
func (c Clock) Micros() int64 {
	return int64(c) * 60_000_000
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Shift is one weekly schedule entry.
type Shift struct {
	Day   string
	Start Clock
	End   Clock
}

// Validate checks the day name and that the shift does not wrap midnight.
func (s Shift) Validate() error {
	if DayIndex(s.Day) < 0 {
		return fmt.Errorf("%w %q", ErrInvalidDay, s.Day)
	}
	if s.Start >= s.End {
		return ErrShiftOrder
	}
	return nil
}

// ParseDate reads a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}
