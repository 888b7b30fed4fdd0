package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/loyalty"
)

// Errors returned by the loyalty service.
var (
	ErrOfferNotFound = errors.New("offer not found")
	ErrUserNotFound  = errors.New("user not found")
)

// LoyaltyStore defines the DB methods needed by the loyalty service.
type LoyaltyStore interface {
	GetActiveOffer(ctx context.Context, id uuid.UUID) (database.Offer, error)
	ListActiveOffers(ctx context.Context) ([]database.Offer, error)
	GetUserPoints(ctx context.Context, id uuid.UUID) (int32, error)
	GetUserPointsForUpdate(ctx context.Context, id uuid.UUID) (int32, error)
	SetUserPoints(ctx context.Context, arg database.SetUserPointsParams) (int32, error)
	CreateRedemption(ctx context.Context, arg database.CreateRedemptionParams) (database.Redemption, error)
}

// NewLoyaltyStore creates a LoyaltyStore from a DBTX (pool or tx).
type NewLoyaltyStore func(db database.DBTX) LoyaltyStore

// LoyaltyService spends credit points on offers.
type LoyaltyService struct {
	pool     Pool
	newStore NewLoyaltyStore
	logger   *zap.Logger
}

// NewLoyaltyService creates a new LoyaltyService.
func NewLoyaltyService(pool Pool, newStore NewLoyaltyStore, logger *zap.Logger) *LoyaltyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoyaltyService{pool: pool, newStore: newStore, logger: logger}
}

// Points returns a user's credit point balance.
func (s *LoyaltyService) Points(ctx context.Context, userID uuid.UUID) (int32, error) {
	pts, err := s.newStore(s.pool).GetUserPoints(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("get user points: %w", err)
	}
	return pts, nil
}

// Offers lists the offers that can currently be redeemed.
func (s *LoyaltyService) Offers(ctx context.Context) ([]loyalty.Offer, error) {
	rows, err := s.newStore(s.pool).ListActiveOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	out := make([]loyalty.Offer, len(rows))
	for i, r := range rows {
		out[i] = offerFromRow(r)
	}
	return out, nil
}

// Redeem spends the offer's cost from the user's balance. The balance row is
// locked for the duration so concurrent redemptions cannot overspend. On
// loyalty.ErrInsufficientPoints the returned Redemption carries the
// untouched balance.
func (s *LoyaltyService) Redeem(ctx context.Context, userID, offerID uuid.UUID) (loyalty.Redemption, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return loyalty.Redemption{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	row, err := store.GetActiveOffer(ctx, offerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return loyalty.Redemption{}, ErrOfferNotFound
		}
		return loyalty.Redemption{}, fmt.Errorf("get offer: %w", err)
	}
	offer := offerFromRow(row)

	available, err := store.GetUserPointsForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return loyalty.Redemption{}, ErrUserNotFound
		}
		return loyalty.Redemption{}, fmt.Errorf("get user points: %w", err)
	}

	result, err := loyalty.Redeem(offer, available)
	if err != nil {
		return result, err
	}

	if _, err := store.SetUserPoints(ctx, database.SetUserPointsParams{ID: userID, CreditPoints: result.RemainingPoints}); err != nil {
		return loyalty.Redemption{}, fmt.Errorf("set user points: %w", err)
	}
	if _, err := store.CreateRedemption(ctx, database.CreateRedemptionParams{
		UserID:  userID,
		OfferID: offer.ID,
		Points:  offer.Points,
	}); err != nil {
		return loyalty.Redemption{}, fmt.Errorf("create redemption: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return loyalty.Redemption{}, fmt.Errorf("commit tx: %w", err)
	}

	s.logger.Info("offer redeemed",
		zap.Stringer("user_id", userID),
		zap.String("offer", offer.Title),
		zap.Int32("remaining", result.RemainingPoints),
	)
	return result, nil
}
