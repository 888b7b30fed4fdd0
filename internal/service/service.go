// Package service holds the transactional use cases behind the HTTP
// handlers: placing and advancing orders, scheduling and settling catering
// events, redeeming loyalty offers and keeping the per-user cart.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/gateway"
	"github.com/sanaol/canteen/internal/ws"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Pool is what the services need from *pgxpool.Pool: transactions for
// writes, plain queries for reads.
type Pool interface {
	TxBeginner
	database.DBTX
}

// Broadcaster pushes realtime events. Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToUser(userID uuid.UUID, event ws.Event)
	BroadcastToStaff(event ws.Event)
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastToUser(uuid.UUID, ws.Event) {}
func (nopBroadcaster) BroadcastToStaff(ws.Event)           {}

// publish marshals payload and hands it to send. Failures are logged, never
// returned: the write has already been committed.
func publish(logger *zap.Logger, eventType string, payload any, send func(ws.Event)) {
	ev, err := ws.NewEvent(eventType, payload)
	if err != nil {
		logger.Error("build ws event", zap.String("type", eventType), zap.Error(err))
		return
	}
	send(ev)
}

// isUniqueViolation checks for a unique constraint violation (pgconn error
// code 23505) on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func textValue(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func dateToPg(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: true}
}

func dateValue(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return d.Time
}

// uniqueIDs drops duplicates, keeping first-seen order.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// paymentMethod upper-cases raw and checks it against the accepted methods.
// An empty value becomes fallback when one is given.
func paymentMethod(raw, fallback string) (string, error) {
	m := strings.ToUpper(strings.TrimSpace(raw))
	if m == "" {
		m = fallback
	}
	if !gateway.ValidMethod(m) {
		return "", ErrInvalidPaymentMethod
	}
	return m, nil
}
