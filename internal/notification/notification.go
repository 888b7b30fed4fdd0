// Package notification filters menu update notifications and tracks which
// of them a user has already seen.
package notification

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sanaol/canteen/internal/enum"
)

// Types shown on the dashboard.
const (
	TypeNew  = enum.NotificationTypeNew
	TypeSold = enum.NotificationTypeSold
)

// Notification is a single menu update.
type Notification struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// MenuUpdates keeps new-item and sold-out notifications, newest first.
func MenuUpdates(ns []Notification) []Notification {
	out := make([]Notification, 0, len(ns))
	for _, n := range ns {
		switch strings.ToLower(strings.TrimSpace(n.Type)) {
		case TypeNew, TypeSold:
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Unseen returns the notifications whose IDs are not in seen.
func Unseen(ns []Notification, seen []string) []Notification {
	set := make(map[string]struct{}, len(seen))
	for _, id := range seen {
		set[id] = struct{}{}
	}
	out := make([]Notification, 0, len(ns))
	for _, n := range ns {
		if _, ok := set[n.ID.String()]; !ok {
			out = append(out, n)
		}
	}
	return out
}

// MergeSeen adds the IDs of ns to seen, without duplicates, keeping the
// existing order.
func MergeSeen(seen []string, ns []Notification) []string {
	set := make(map[string]struct{}, len(seen)+len(ns))
	out := make([]string, 0, len(seen)+len(ns))
	for _, id := range seen {
		if _, ok := set[id]; ok {
			continue
		}
		set[id] = struct{}{}
		out = append(out, id)
	}
	for _, n := range ns {
		id := n.ID.String()
		if _, ok := set[id]; ok {
			continue
		}
		set[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
