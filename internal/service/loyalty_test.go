package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sanaol/canteen/internal/database"
	"github.com/sanaol/canteen/internal/loyalty"
)

func newTestLoyaltyService(store *mockStore) (*LoyaltyService, *mockTx) {
	pool, tx := newMockPool()
	newStore := func(db database.DBTX) LoyaltyStore { return store }
	return NewLoyaltyService(pool, newStore, nil), tx
}

func loyaltyStore(offer database.Offer, balance int32) (*mockStore, *[]database.SetUserPointsParams, *[]database.CreateRedemptionParams) {
	var sets []database.SetUserPointsParams
	var redemptions []database.CreateRedemptionParams
	store := &mockStore{
		getActiveOfferFn: func(ctx context.Context, id uuid.UUID) (database.Offer, error) {
			if id != offer.ID {
				return database.Offer{}, pgx.ErrNoRows
			}
			return offer, nil
		},
		getUserPointsForUpdateFn: func(ctx context.Context, id uuid.UUID) (int32, error) {
			return balance, nil
		},
		setUserPointsFn: func(ctx context.Context, arg database.SetUserPointsParams) (int32, error) {
			sets = append(sets, arg)
			return arg.CreditPoints, nil
		},
		createRedemptionFn: func(ctx context.Context, arg database.CreateRedemptionParams) (database.Redemption, error) {
			redemptions = append(redemptions, arg)
			return database.Redemption{ID: uuid.New()}, nil
		},
	}
	return store, &sets, &redemptions
}

func TestRedeem_Success(t *testing.T) {
	offer := database.Offer{ID: uuid.New(), Title: "Free Iced Tea", Points: 300, IsActive: true}
	store, sets, redemptions := loyaltyStore(offer, 500)
	svc, tx := newTestLoyaltyService(store)

	userID := uuid.New()
	got, err := svc.Redeem(context.Background(), userID, offer.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Success || got.RemainingPoints != 200 {
		t.Errorf("unexpected result: %+v", got)
	}
	if !tx.committed {
		t.Error("expected commit")
	}
	if len(*sets) != 1 || (*sets)[0].CreditPoints != 200 || (*sets)[0].ID != userID {
		t.Errorf("balance update wrong: %+v", *sets)
	}
	if len(*redemptions) != 1 || (*redemptions)[0].Points != 300 {
		t.Errorf("redemption row wrong: %+v", *redemptions)
	}
}

func TestRedeem_ExactBalance(t *testing.T) {
	offer := database.Offer{ID: uuid.New(), Title: "Free Meal", Points: 300, IsActive: true}
	store, _, _ := loyaltyStore(offer, 300)
	svc, _ := newTestLoyaltyService(store)

	got, err := svc.Redeem(context.Background(), uuid.New(), offer.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RemainingPoints != 0 {
		t.Errorf("remaining: got %d, want 0", got.RemainingPoints)
	}
}

func TestRedeem_InsufficientPoints(t *testing.T) {
	offer := database.Offer{ID: uuid.New(), Title: "Free Meal", Points: 500, IsActive: true}
	store, sets, redemptions := loyaltyStore(offer, 300)
	svc, tx := newTestLoyaltyService(store)

	got, err := svc.Redeem(context.Background(), uuid.New(), offer.ID)
	if !errors.Is(err, loyalty.ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
	if got.Success || got.RemainingPoints != 300 {
		t.Errorf("balance should be reported unchanged: %+v", got)
	}
	if len(*sets) != 0 || len(*redemptions) != 0 || tx.committed {
		t.Error("nothing should be written on insufficient points")
	}
}

func TestRedeem_OfferNotFound(t *testing.T) {
	offer := database.Offer{ID: uuid.New(), Points: 100}
	store, _, _ := loyaltyStore(offer, 300)
	svc, _ := newTestLoyaltyService(store)

	_, err := svc.Redeem(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound, got %v", err)
	}
}

func TestPoints_UnknownUser(t *testing.T) {
	store := &mockStore{
		getUserPointsFn: func(ctx context.Context, id uuid.UUID) (int32, error) {
			return 0, pgx.ErrNoRows
		},
	}
	svc, _ := newTestLoyaltyService(store)

	if _, err := svc.Points(context.Background(), uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
