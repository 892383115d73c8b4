//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"esengo-membership/internal/domain/model"

	"github.com/google/uuid"
)

func seedMembershipPair(t *testing.T, ctx context.Context) (sponsor, buyer *model.PackMembership, pack *model.Pack) {
	t.Helper()
	cleanup(t)

	packRepo := NewPackRepo(testPool)
	memRepo := NewMembershipRepo(testPool)

	pack, _ = model.NewPack(uuid.NewString(), "Starter", 10000, "USD")
	if err := packRepo.Save(ctx, nil, pack); err != nil {
		t.Fatalf("failed to save pack: %v", err)
	}

	sponsor, _ = model.NewPackMembership(uuid.NewString(), uuid.NewString(), pack.ID, "REF-SPONSOR", nil, nil)
	sponsor.Status = model.MembershipStatusActive
	sponsor.PaymentStatus = model.PaymentStatusCompleted
	if err := memRepo.Save(ctx, nil, sponsor); err != nil {
		t.Fatalf("failed to save sponsor: %v", err)
	}

	buyer, _ = model.NewPackMembership(uuid.NewString(), uuid.NewString(), pack.ID, "REF-BUYER", &sponsor.ID, nil)
	buyer.Status = model.MembershipStatusActive
	buyer.PaymentStatus = model.PaymentStatusCompleted
	if err := memRepo.Save(ctx, nil, buyer); err != nil {
		t.Fatalf("failed to save buyer: %v", err)
	}
	return sponsor, buyer, pack
}

func TestCommissionRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewCommissionRepo(testPool)

	t.Run("save and guarded status update", func(t *testing.T) {
		sponsor, buyer, _ := seedMembershipPair(t, ctx)

		rec, err := model.NewCommissionRecord(uuid.NewString(), sponsor, buyer, 1, 3000, "USD", 3)
		if err != nil {
			t.Fatalf("NewCommissionRecord failed: %v", err)
		}
		if err := repo.Save(ctx, nil, rec); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		now := time.Now()
		ok, err := repo.UpdateStatusIf(ctx, nil, rec.ID,
			[]model.CommissionStatus{model.CommissionStatusPending},
			model.CommissionStatusCompleted, "", &now)
		if err != nil || !ok {
			t.Fatalf("pending->completed should land: ok=%v err=%v", ok, err)
		}

		// completed is terminal; a stale retry must be rejected
		ok, err = repo.UpdateStatusIf(ctx, nil, rec.ID,
			[]model.CommissionStatus{model.CommissionStatusFailed},
			model.CommissionStatusPending, "", nil)
		if err != nil {
			t.Fatalf("guarded update errored: %v", err)
		}
		if ok {
			t.Fatal("guard must reject a transition from the wrong status")
		}

		found, err := repo.FindByID(ctx, nil, rec.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if found.Status != model.CommissionStatusCompleted || found.PostedAt == nil {
			t.Fatalf("expected posted completed record, got %+v", found)
		}
	})

	t.Run("list by earner", func(t *testing.T) {
		sponsor, buyer, _ := seedMembershipPair(t, ctx)

		for level := 1; level <= 2; level++ {
			rec, _ := model.NewCommissionRecord(uuid.NewString(), sponsor, buyer, level, 1000, "USD", 1)
			if err := repo.Save(ctx, nil, rec); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}

		list, err := repo.ListByEarner(ctx, nil, sponsor.MemberID, 10)
		if err != nil {
			t.Fatalf("ListByEarner failed: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("expected 2 records, got %d", len(list))
		}
	})
}

func TestCommissionRateRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewCommissionRateRepo(testPool)

	t.Run("upsert and get", func(t *testing.T) {
		_, _, pack := seedMembershipPair(t, ctx)

		rate := &model.CommissionRate{PackID: pack.ID, Level: 1, RateBasisPoints: 1000}
		if err := repo.Upsert(ctx, nil, rate); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		rate.RateBasisPoints = 1500
		if err := repo.Upsert(ctx, nil, rate); err != nil {
			t.Fatalf("second Upsert failed: %v", err)
		}

		got, err := repo.Get(ctx, nil, pack.ID, 1)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.RateBasisPoints != 1500 {
			t.Fatalf("expected 1500 bps after upsert, got %d", got.RateBasisPoints)
		}
	})
}
