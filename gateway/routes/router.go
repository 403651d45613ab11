package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"veledger/gateway/middleware"
)

type Config struct {
	Ledger        LedgerReader
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
}

// New builds the read-only HTTP API.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))

	obs := cfg.Observability
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if obs != nil {
		r.Handle("/metrics", obs.MetricsHandler())
	}

	h := &ledgerRoutes{ledger: cfg.Ledger}
	r.Route("/v1", func(sr chi.Router) {
		if cfg.RateLimiter != nil {
			sr.Use(cfg.RateLimiter.Middleware)
		}
		mount := func(pattern, name string, fn http.HandlerFunc) {
			var handler http.Handler = fn
			if obs != nil {
				handler = obs.Middleware(name)(handler)
			}
			sr.Method(http.MethodGet, pattern, handler)
		}
		mount("/escrow/params", "escrow.params", h.escrowParams)
		mount("/escrow/locks/{addr}", "escrow.lock", h.lock)
		mount("/rewards/tokens", "rewards.tokens", h.rewardTokens)
		mount("/rewards/data/{token}", "rewards.data", h.rewardData)
		mount("/rewards/claimable/{addr}", "rewards.claimable", h.claimable)
		mount("/tokens/{token}/balances/{addr}", "tokens.balance", h.balance)
	})
	return r
}
