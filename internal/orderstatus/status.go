// Package orderstatus models the order lifecycle used by the tracking timeline.
//
// The forward progression is PENDING -> ACCEPTED -> IN_PROGRESS -> READY -> COMPLETED.
// CANCELLED is terminal and can be reached from any non-terminal state. It renders
// at ordinal 0 on the progress bar but is reported separately so it is never
// confused with PENDING.
package orderstatus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sanaol/canteen/internal/enum"
)

// Status is a normalized order status.
type Status string

const (
	Pending    Status = enum.OrderStatusPending
	Accepted   Status = enum.OrderStatusAccepted
	InProgress Status = enum.OrderStatusInProgress
	Ready      Status = enum.OrderStatusReady
	Completed  Status = enum.OrderStatusCompleted
	Cancelled  Status = enum.OrderStatusCancelled
)

// ErrInvalidTransition is returned when a status change would move an order
// backwards or out of a terminal state.
var ErrInvalidTransition = errors.New("invalid status transition")

var steps = []Status{Pending, Accepted, InProgress, Ready, Completed}

var ordinals = map[Status]int{
	Pending:    0,
	Accepted:   1,
	InProgress: 2,
	Ready:      3,
	Completed:  4,
	Cancelled:  0,
}

var labels = map[Status]string{
	Pending:    "Pending",
	Accepted:   "Accepted",
	InProgress: "In Progress",
	Ready:      "Ready",
	Completed:  "Completed",
	Cancelled:  "Cancelled",
}

// Steps returns the forward progression in display order.
func Steps() []Status {
	out := make([]Status, len(steps))
	copy(out, steps)
	return out
}

// canonical folds case and separators: "In Progress", "in-progress" and
// "IN_PROGRESS" all become "IN_PROGRESS".
func canonical(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return strings.ToUpper(s)
}

// Lookup resolves a raw status string strictly. The second result is false
// for empty or unknown input.
func Lookup(raw string) (Status, bool) {
	s := Status(canonical(raw))
	if _, ok := ordinals[s]; !ok {
		return "", false
	}
	return s, true
}

// Parse resolves a raw status string leniently. Unknown or empty input falls
// back to Pending because upstream records are allowed to be incomplete.
func Parse(raw string) Status {
	if s, ok := Lookup(raw); ok {
		return s
	}
	return Pending
}

// Index maps a raw status string to its position on the progress bar, 0..4.
func Index(raw string) int {
	return Parse(raw).Index()
}

// Index returns the progress-bar ordinal of s.
func (s Status) Index() int {
	return ordinals[s]
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == Completed || s == Cancelled
}

// Label returns the human readable name of s.
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return labels[Pending]
}

// Progress is the derived view of a status for timeline rendering.
type Progress struct {
	Index     int    `json:"index"`
	Cancelled bool   `json:"cancelled"`
	Label     string `json:"label"`
}

// ProgressOf derives the timeline view for a raw status string.
func ProgressOf(raw string) Progress {
	s := Parse(raw)
	return Progress{
		Index:     s.Index(),
		Cancelled: s == Cancelled,
		Label:     s.Label(),
	}
}

// CanTransition checks that moving from one status to another keeps the
// lifecycle monotonic. Staying in the same non-terminal status is allowed.
func CanTransition(from, to Status) error {
	if from.Terminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, from)
	}
	if to == Cancelled {
		return nil
	}
	if to.Index() < from.Index() {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}
	return nil
}
