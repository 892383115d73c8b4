// File: cmd/seed/main.go
//
// Seeds the pack catalogue with sample packs and their commission and bonus
// rate tables. Safe to rerun: an already-populated catalogue is left alone.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"esengo-membership/internal/config"
	"esengo-membership/internal/domain/model"
	"esengo-membership/internal/domain/ports/repository"
	pg "esengo-membership/internal/infra/db/postgres"

	"github.com/google/uuid"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	packRepo := pg.NewPackRepo(pool)
	commRates := pg.NewCommissionRateRepo(pool)
	bonusRates := pg.NewBonusRateRepo(pool)

	packs, err := packRepo.ListAll(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("list packs: %v", err)
	}
	if len(packs) > 0 {
		fmt.Printf("%d packs already present. No changes.\n", len(packs))
		for _, p := range packs {
			fmt.Printf("  - %s (monthly=%d %s)\n", p.Name, p.MonthlyPrice, p.Currency)
		}
		return
	}

	seed := []struct {
		Name    string
		Monthly int64
		// per-level commission, basis points
		Levels [model.MaxCommissionDepth]int64
		// weekly accrual plus monthly jeton cadence
		Threshold int
		Points    int64
		Value     int64
	}{
		{"Esengo Start", 10_000, [4]int64{1000, 500, 250, 100}, 30, 1, 500},
		{"Esengo Plus", 25_000, [4]int64{1200, 600, 300, 150}, 20, 1, 750},
		{"Esengo Gold", 60_000, [4]int64{1500, 750, 400, 200}, 10, 2, 1000},
	}

	for _, s := range seed {
		pack, err := model.NewPack(uuid.NewString(), s.Name, s.Monthly, cfg.Settlement.Currency)
		if err != nil {
			log.Fatalf("pack %q: %v", s.Name, err)
		}
		if err := packRepo.Save(ctx, repository.NoTX, pack); err != nil {
			log.Fatalf("save pack %q: %v", s.Name, err)
		}
		for level, bps := range s.Levels {
			rate := &model.CommissionRate{PackID: pack.ID, Level: level + 1, RateBasisPoints: bps}
			if err := commRates.Upsert(ctx, repository.NoTX, rate); err != nil {
				log.Fatalf("commission rate %q L%d: %v", s.Name, level+1, err)
			}
		}
		// Weekly carries the conversion valuation; monthly drives jeton issuance.
		for _, f := range []model.BonusFrequency{model.FrequencyWeekly, model.FrequencyMonthly} {
			rate := &model.BonusRate{
				PackID:             pack.ID,
				Frequency:          f,
				ReferralThreshold:  s.Threshold,
				PointsPerThreshold: s.Points,
				PointValue:         s.Value,
			}
			if err := bonusRates.Upsert(ctx, repository.NoTX, rate); err != nil {
				log.Fatalf("bonus rate %q %s: %v", s.Name, f, err)
			}
		}
		fmt.Printf("seeded: %s (id=%s, monthly=%d %s)\n", pack.Name, pack.ID, pack.MonthlyPrice, pack.Currency)
	}

	fmt.Println("Seeding complete.")
}
