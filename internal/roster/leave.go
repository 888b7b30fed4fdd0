package roster

import (
	"fmt"
	"strings"
	"time"
)

// Leave types.
const (
	LeaveSick      = "sick"
	LeaveVacation  = "vacation"
	LeaveEmergency = "emergency"
	LeaveOther     = "other"
)

// Leave statuses.
const (
	LeavePending  = "pending"
	LeaveApproved = "approved"
	LeaveRejected = "rejected"
)

// LeaveType lower-cases s and checks it. Empty means other.
func LeaveType(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return LeaveOther, nil
	case LeaveSick, LeaveVacation, LeaveEmergency, LeaveOther:
		return s, nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidLeaveType, s)
}

// LeaveStatus lower-cases s and checks it. Empty means pending.
func LeaveStatus(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return LeavePending, nil
	case LeavePending, LeaveApproved, LeaveRejected:
		return s, nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidStatus, s)
}

// LeaveRange checks that a leave does not end before it starts. A single
// day leave has start == end.
func LeaveRange(start, end time.Time) error {
	if end.Before(start) {
		return ErrLeaveRange
	}
	return nil
}

// LeaveDays counts calendar days in the range, both ends included.
func LeaveDays(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}
