package catering

import (
	"sort"
	"strings"
	"time"

	"github.com/sanaol/canteen/internal/settlement"
)

// Buckets splits a client's events around today.
type Buckets struct {
	Upcoming []Event `json:"upcoming"`
	Past     []Event `json:"past"`
}

// Classify keeps the events that belong to clientName (case-insensitive,
// trimmed) and splits them with ClassifyAll.
func Classify(events []Event, clientName string, today time.Time) Buckets {
	client := strings.ToLower(strings.TrimSpace(clientName))
	mine := make([]Event, 0, len(events))
	for _, e := range events {
		if strings.ToLower(strings.TrimSpace(e.ClientName)) == client {
			mine = append(mine, e)
		}
	}
	return ClassifyAll(mine, today)
}

// ClassifyAll drops cancelled events and splits the rest on today's date:
// events on or after today are upcoming. Each bucket is sorted by event
// date, ties keep their input order.
func ClassifyAll(events []Event, today time.Time) Buckets {
	day := truncateDay(today)

	b := Buckets{Upcoming: []Event{}, Past: []Event{}}
	for _, e := range events {
		if strings.EqualFold(e.Status, settlement.StatusCancelled) {
			continue
		}
		if truncateDay(e.EventDate).Before(day) {
			b.Past = append(b.Past, e)
		} else {
			b.Upcoming = append(b.Upcoming, e)
		}
	}

	byDate := func(list []Event) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].EventDate.Before(list[j].EventDate)
		})
	}
	byDate(b.Upcoming)
	byDate(b.Past)
	return b
}

// truncateDay keeps only the calendar date of t as seen in t's location.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
