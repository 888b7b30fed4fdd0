package roster

import (
	"fmt"
	"strings"
	"time"
)

// Attendance statuses.
const (
	AttendancePresent = "present"
	AttendanceLate    = "late"
	AttendanceAbsent  = "absent"
	AttendanceExcused = "excused"
)

// AttendanceStatus lower-cases s and checks it. Empty means present.
func AttendanceStatus(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return AttendancePresent, nil
	case AttendancePresent, AttendanceLate, AttendanceAbsent, AttendanceExcused:
		return s, nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidStatus, s)
}

// Attendance is one employee's record for one day. A nil clock has not
// been punched yet.
type Attendance struct {
	Date     time.Time
	CheckIn  *Clock
	CheckOut *Clock
	Status   string
	Notes    string
}

// Validate rejects a check-out earlier than the check-in.
func (a Attendance) Validate() error {
	if a.CheckIn != nil && a.CheckOut != nil && *a.CheckOut < *a.CheckIn {
		return ErrCheckOutOrder
	}
	return nil
}

// Punch is what an employee records for themselves.
type Punch struct {
	CheckIn  *Clock
	CheckOut *Clock
	Notes    string
}

// ApplyPunch fills in clocks that are still empty; punches are never
// overwritten. It reports whether anything changed.
func ApplyPunch(a Attendance, p Punch) (Attendance, bool) {
	changed := false
	if p.CheckIn != nil && a.CheckIn == nil {
		in := *p.CheckIn
		a.CheckIn = &in
		a.Status = AttendancePresent
		changed = true
	}
	if p.CheckOut != nil && a.CheckOut == nil {
		out := *p.CheckOut
		a.CheckOut = &out
		changed = true
	}
	if p.Notes != "" && p.Notes != a.Notes {
		a.Notes = p.Notes
		changed = true
	}
	return a, changed
}
