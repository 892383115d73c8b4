package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"esengo-membership/internal/domain/ports/repository"
	red "esengo-membership/internal/infra/redis"
	"esengo-membership/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server is the admin API surface: settlement operations an operator runs by
// hand (retries, grant passes, rate tables) plus read-only audit endpoints.
type Server struct {
	ledgerUC     usecase.LedgerUseCase
	commissionUC usecase.CommissionUseCase
	bonusUC      usecase.BonusUseCase
	tokenUC      usecase.TokenUseCase
	membershipUC usecase.MembershipUseCase

	packRepo     repository.PackRepository
	commRateRepo repository.CommissionRateRepository
	bonusRates   repository.BonusRateRepository

	apiKey string
	auth   *AuthManager
	log    *zerolog.Logger

	redeemLimiter RateLimiter
	redeemLimit   int
	redeemWindow  time.Duration
}

// RateLimiter is the fixed-window counter the redeem endpoint throttles with.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func NewServer(
	ledgerUC usecase.LedgerUseCase,
	commissionUC usecase.CommissionUseCase,
	bonusUC usecase.BonusUseCase,
	tokenUC usecase.TokenUseCase,
	membershipUC usecase.MembershipUseCase,
	packRepo repository.PackRepository,
	commRateRepo repository.CommissionRateRepository,
	bonusRates repository.BonusRateRepository,
	apiKey string,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		ledgerUC:     ledgerUC,
		commissionUC: commissionUC,
		bonusUC:      bonusUC,
		tokenUC:      tokenUC,
		membershipUC: membershipUC,
		packRepo:     packRepo,
		commRateRepo: commRateRepo,
		bonusRates:   bonusRates,
		apiKey:       apiKey,
		auth:         auth,
		log:          logger,
	}
}

// Router builds the full route tree. Health and metrics stay outside the
// auth boundary; everything under /api/v1 requires a credential.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.loginHandler())
		r.Post("/auth/logout", s.logoutHandler())

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/wallets/{memberID}", walletGetHandler(s.ledgerUC))
			r.Get("/wallets/{memberID}/statement", statementHandler(s.ledgerUC))
			r.Post("/wallets/{memberID}/withdraw", withdrawHandler(s.ledgerUC))

			r.Get("/commissions", commissionsListHandler(s.commissionUC))
			r.Post("/commissions/{id}/retry", commissionRetryHandler(s.commissionUC))

			r.Post("/bonus/grant-pass", grantPassHandler(s.bonusUC))
			r.Post("/bonus/convert", convertPointsHandler(s.bonusUC))
			r.Get("/bonus/history", bonusHistoryHandler(s.bonusUC))

			r.Post("/tokens/redeem", s.rateLimited(tokenRedeemHandler(s.tokenUC)))
			r.Post("/tokens/sweep", tokenSweepHandler(s.tokenUC))

			r.Get("/memberships/{memberID}/chain", sponsorChainHandler(s.membershipUC))
			r.Post("/memberships/{id}/renew", membershipRenewHandler(s.membershipUC))
			r.Post("/memberships/expire-due", expireDueHandler(s.membershipUC))

			r.Get("/packs", packsListHandler(s.packRepo))
			r.Post("/packs", packsCreateHandler(s.packRepo))
			r.Get("/packs/{id}/commission-rates", commissionRatesListHandler(s.commRateRepo))
			r.Put("/packs/{id}/commission-rates", commissionRatesUpsertHandler(s.commRateRepo))
			r.Put("/packs/{id}/bonus-rates", bonusRatesUpsertHandler(s.bonusRates))
		})
	})

	return r
}

// LimitRedemptions throttles token redemption per caller IP so redemption
// codes cannot be brute-forced through the API.
func (s *Server) LimitRedemptions(rl RateLimiter, limit int, window time.Duration) {
	s.redeemLimiter = rl
	s.redeemLimit = limit
	s.redeemWindow = window
}

func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.redeemLimiter != nil {
			ok, err := s.redeemLimiter.Allow(r.Context(), red.RedeemAttemptKey(r.RemoteAddr), s.redeemLimit, s.redeemWindow)
			if err != nil {
				s.log.Error().Err(err).Msg("rate limiter unavailable")
			} else if !ok {
				http.Error(w, "Too many attempts", http.StatusTooManyRequests)
				return
			}
		}
		next(w, r)
	}
}

// authMiddleware accepts either the static API key as a Bearer token or a
// previously minted admin session JWT (header or cookie).
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("Admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		if hdr := r.Header.Get("Authorization"); hdr != "" {
			parts := strings.SplitN(hdr, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
				return
			}
			if parts[1] == s.apiKey {
				next.ServeHTTP(w, r)
				return
			}
		}

		if _, err := s.auth.ParseFromRequest(r); err == nil {
			next.ServeHTTP(w, r)
			return
		}

		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

// loginHandler exchanges the API key for a short-lived session cookie so a
// browser dashboard doesn't need to hold the key.
func (s *Server) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			APIKey string `json:"api_key"`
		}
		if err := decodeJSON(r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if s.apiKey == "" || req.APIKey != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		tok, err := s.auth.Mint(w, "admin")
		if err != nil {
			s.log.Error().Err(err).Msg("mint session token")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": tok})
	}
}

func (s *Server) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.auth.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	}
}
