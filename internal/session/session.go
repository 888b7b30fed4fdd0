package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sanaol/canteen/internal/notification"
)

const (
	keyProfile = "profile"
	keyToken   = "token"
	keySeen    = "seen_notifications"
)

// Profile is the signed-in user as cached on the device.
type Profile struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Session is the typed view over a Store used by the CLI.
type Session struct {
	store Store
}

func New(store Store) *Session {
	return &Session{store: store}
}

func (s *Session) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Session) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.store.Set(ctx, key, string(data))
}

// SaveProfile stores the profile and its bearer token.
func (s *Session) SaveProfile(ctx context.Context, p Profile, token string) error {
	if err := s.setJSON(ctx, keyProfile, p); err != nil {
		return err
	}
	return s.store.Set(ctx, keyToken, token)
}

// Profile returns the cached profile; ok is false when nobody is signed in.
func (s *Session) Profile(ctx context.Context) (Profile, bool, error) {
	var p Profile
	ok, err := s.getJSON(ctx, keyProfile, &p)
	return p, ok, err
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token(ctx context.Context) (string, error) {
	tok, _, err := s.store.Get(ctx, keyToken)
	return tok, err
}

// SeenNotifications returns the IDs already shown to the user.
func (s *Session) SeenNotifications(ctx context.Context) ([]string, error) {
	var ids []string
	if _, err := s.getJSON(ctx, keySeen, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// MarkSeen records ns as seen.
func (s *Session) MarkSeen(ctx context.Context, ns []notification.Notification) error {
	seen, err := s.SeenNotifications(ctx)
	if err != nil {
		return err
	}
	return s.setJSON(ctx, keySeen, notification.MergeSeen(seen, ns))
}

// Logout wipes everything in the store.
func (s *Session) Logout(ctx context.Context) error {
	return s.store.Clear(ctx)
}
