package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"esengo-membership/internal/domain"
	"esengo-membership/internal/domain/model"
	"esengo-membership/internal/domain/ports/repository"
	"esengo-membership/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels onto HTTP statuses; anything unmapped is a
// 500 with a generic body so internals never leak to the operator console.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientPoints),
		errors.Is(err, domain.ErrNotRetryable),
		errors.Is(err, domain.ErrTokenUsed),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrValuationNotConfigured):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrLockNotAcquired):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func limitParam(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// ---- wallets ----

func walletGetHandler(ledgerUC usecase.LedgerUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wallet, err := ledgerUC.MemberWallet(r.Context(), repository.NoTX, chi.URLParam(r, "memberID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wallet)
	}
}

func statementHandler(ledgerUC usecase.LedgerUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		wallet, err := ledgerUC.MemberWallet(ctx, repository.NoTX, chi.URLParam(r, "memberID"))
		if err != nil {
			writeError(w, err)
			return
		}
		txns, err := ledgerUC.Statement(ctx, wallet.ID, limitParam(r, 50))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"wallet":       wallet,
			"transactions": txns,
		})
	}
}

type withdrawRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

func withdrawHandler(ledgerUC usecase.LedgerUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req withdrawRequest
		if err := decodeJSON(r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		meta := map[string]interface{}{"source": "admin_api"}
		if req.Reason != "" {
			meta["reason"] = req.Reason
		}
		txn, err := ledgerUC.Withdraw(r.Context(), chi.URLParam(r, "memberID"), req.Amount, meta)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, txn)
	}
}

// ---- commissions ----

func commissionsListHandler(commissionUC usecase.CommissionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID := r.URL.Query().Get("member_id")
		if memberID == "" {
			http.Error(w, "member_id is required", http.StatusBadRequest)
			return
		}
		records, err := commissionUC.ListByEarner(r.Context(), memberID, limitParam(r, 50))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func commissionRetryHandler(commissionUC usecase.CommissionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := commissionUC.Retry(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// ---- bonus points ----

type grantPassRequest struct {
	Frequency string `json:"frequency"`
}

func grantPassHandler(bonusUC usecase.BonusUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req grantPassRequest
		if err := decodeJSON(r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		f := model.BonusFrequency(req.Frequency)
		if !f.Valid() {
			http.Error(w, "unknown frequency", http.StatusBadRequest)
			return
		}
		res, err := bonusUC.ProcessGrantPass(r.Context(), f)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type convertRequest struct {
	MemberID string `json:"member_id"`
	PackID   string `json:"pack_id"`
	Points   int64  `json:"points"`
}

func convertPointsHandler(bonusUC usecase.BonusUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req convertRequest
		if err := decodeJSON(r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		credited, err := bonusUC.ConvertPoints(r.Context(), req.MemberID, req.PackID, req.Points)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{
			"points_converted": req.Points,
			"amount_credited":  credited,
		})
	}
}

func bonusHistoryHandler(bonusUC usecase.BonusUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		memberID, packID := q.Get("member_id"), q.Get("pack_id")
		if memberID == "" || packID == "" {
			http.Error(w, "member_id and pack_id are required", http.StatusBadRequest)
			return
		}
		entries, err := bonusUC.History(r.Context(), memberID, packID, limitParam(r, 50))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// ---- jetons ----

func tokenRedeemHandler(tokenUC usecase.TokenUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		if err := decodeJSON(r, &req); err != nil || req.Code == "" {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		tok, err := tokenUC.Redeem(r.Context(), req.Code)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tok)
	}
}

func tokenSweepHandler(tokenUC usecase.TokenUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := tokenUC.SweepExpired(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"expired": n})
	}
}

// ---- memberships ----

func sponsorChainHandler(membershipUC usecase.MembershipUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		packID := r.URL.Query().Get("pack_id")
		if packID == "" {
			http.Error(w, "pack_id is required", http.StatusBadRequest)
			return
		}
		depth, _ := strconv.Atoi(r.URL.Query().Get("depth"))
		chain, err := membershipUC.SponsorChain(r.Context(), chi.URLParam(r, "memberID"), packID, depth)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chain)
	}
}

type renewRequest struct {
	Months int `json:"months"`
}

func membershipRenewHandler(membershipUC usecase.MembershipUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req renewRequest
		if err := decodeJSON(r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		m, err := membershipUC.Renew(r.Context(), chi.URLParam(r, "id"), req.Months)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func expireDueHandler(membershipUC usecase.MembershipUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := membershipUC.ExpireDue(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"expired": n})
	}
}

// ---- pack catalogue and rate tables ----

func packsListHandler(packRepo repository.PackRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		packs, err := packRepo.ListAll(r.Context(), repository.NoTX)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, packs)
	}
}

type packCreateRequest struct {
	Name         string `json:"name"`
	MonthlyPrice int64  `json:"monthly_price"`
	Currency     string `json:"currency"`
}

func packsCreateHandler(packRepo repository.PackRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req packCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		pack, err := model.NewPack(uuid.NewString(), req.Name, req.MonthlyPrice, req.Currency)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := packRepo.Save(r.Context(), repository.NoTX, pack); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, pack)
	}
}

func commissionRatesListHandler(rates repository.CommissionRateRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := rates.ListByPack(r.Context(), repository.NoTX, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type commissionRateItem struct {
	Level           int   `json:"level"`
	RateBasisPoints int64 `json:"rate_basis_points"`
}

func commissionRatesUpsertHandler(rates repository.CommissionRateRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		packID := chi.URLParam(r, "id")
		var items []commissionRateItem
		if err := decodeJSON(r, &items); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		for _, it := range items {
			if it.Level < 1 || it.Level > model.MaxCommissionDepth || it.RateBasisPoints < 0 {
				http.Error(w, "level out of range or negative rate", http.StatusBadRequest)
				return
			}
		}
		ctx := r.Context()
		for _, it := range items {
			rate := &model.CommissionRate{PackID: packID, Level: it.Level, RateBasisPoints: it.RateBasisPoints}
			if err := rates.Upsert(ctx, repository.NoTX, rate); err != nil {
				writeError(w, err)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type bonusRateItem struct {
	Frequency          string `json:"frequency"`
	ReferralThreshold  int    `json:"referral_threshold"`
	PointsPerThreshold int64  `json:"points_per_threshold"`
	PointValue         int64  `json:"point_value"`
}

func bonusRatesUpsertHandler(rates repository.BonusRateRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		packID := chi.URLParam(r, "id")
		var items []bonusRateItem
		if err := decodeJSON(r, &items); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		for _, it := range items {
			if !model.BonusFrequency(it.Frequency).Valid() {
				http.Error(w, "unknown frequency", http.StatusBadRequest)
				return
			}
		}
		ctx := r.Context()
		for _, it := range items {
			rate := &model.BonusRate{
				PackID:             packID,
				Frequency:          model.BonusFrequency(it.Frequency),
				ReferralThreshold:  it.ReferralThreshold,
				PointsPerThreshold: it.PointsPerThreshold,
				PointValue:         it.PointValue,
			}
			if err := rates.Upsert(ctx, repository.NoTX, rate); err != nil {
				writeError(w, err)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
