//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"esengo-membership/internal/domain/model"

	"github.com/google/uuid"
)

func TestMembershipRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewMembershipRepo(testPool)
	packRepo := NewPackRepo(testPool)

	t.Run("count direct referrals inside window", func(t *testing.T) {
		cleanup(t)

		pack, _ := model.NewPack(uuid.NewString(), "Starter", 10000, "USD")
		if err := packRepo.Save(ctx, nil, pack); err != nil {
			t.Fatalf("failed to save pack: %v", err)
		}

		sponsor, _ := model.NewPackMembership(uuid.NewString(), uuid.NewString(), pack.ID, "REF-S", nil, nil)
		sponsor.Status = model.MembershipStatusActive
		sponsor.PaymentStatus = model.PaymentStatusCompleted
		if err := repo.Save(ctx, nil, sponsor); err != nil {
			t.Fatalf("failed to save sponsor: %v", err)
		}

		window := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday
		inWindow := window.Add(48 * time.Hour)
		outside := window.AddDate(0, 0, -3)

		// two paid referrals inside the window, one outside, one unpaid inside
		mk := func(code string, purchasedAt time.Time, paid bool) {
			m, _ := model.NewPackMembership(uuid.NewString(), uuid.NewString(), pack.ID, code, &sponsor.ID, nil)
			m.PurchasedAt = purchasedAt
			if paid {
				m.PaymentStatus = model.PaymentStatusCompleted
			}
			if err := repo.Save(ctx, nil, m); err != nil {
				t.Fatalf("failed to save referral %s: %v", code, err)
			}
		}
		mk("REF-1", inWindow, true)
		mk("REF-2", inWindow.Add(time.Hour), true)
		mk("REF-3", outside, true)
		mk("REF-4", inWindow, false)

		n, err := repo.CountDirectReferrals(ctx, nil, sponsor.MemberID, window, window.AddDate(0, 0, 7).Add(-time.Second))
		if err != nil {
			t.Fatalf("CountDirectReferrals failed: %v", err)
		}
		if n != 2 {
			t.Fatalf("expected 2 referrals in window, got %d", n)
		}
	})

	t.Run("expire due skips operator-owned rows", func(t *testing.T) {
		cleanup(t)

		pack, _ := model.NewPack(uuid.NewString(), "Starter", 10000, "USD")
		if err := packRepo.Save(ctx, nil, pack); err != nil {
			t.Fatalf("failed to save pack: %v", err)
		}

		past := time.Now().Add(-time.Hour)
		member, _ := model.NewPackMembership(uuid.NewString(), uuid.NewString(), pack.ID, "REF-M", nil, &past)
		member.Status = model.MembershipStatusActive
		member.PaymentStatus = model.PaymentStatusCompleted
		if err := repo.Save(ctx, nil, member); err != nil {
			t.Fatalf("failed to save member: %v", err)
		}

		operator, _ := model.NewPackMembership(uuid.NewString(), uuid.NewString(), pack.ID, "REF-O", nil, &past)
		operator.Status = model.MembershipStatusActive
		operator.PaymentStatus = model.PaymentStatusCompleted
		operator.OperatorOwned = true
		if err := repo.Save(ctx, nil, operator); err != nil {
			t.Fatalf("failed to save operator membership: %v", err)
		}

		n, err := repo.ExpireDue(ctx, nil, time.Now())
		if err != nil {
			t.Fatalf("ExpireDue failed: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected 1 expired row, got %d", n)
		}

		kept, err := repo.FindByID(ctx, nil, operator.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if kept.Status != model.MembershipStatusActive {
			t.Fatal("operator-owned membership must never expire")
		}
	})
}
