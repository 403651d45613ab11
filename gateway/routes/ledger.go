package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"veledger/core"
	coreerrors "veledger/core/errors"
	"veledger/crypto"
	"veledger/native/bank"
	"veledger/native/multifee"
	"veledger/native/voteescrow"
)

// LedgerReader is the read side of the ledger served over HTTP.
type LedgerReader interface {
	EscrowParams() (*core.EscrowParams, error)
	Lock(addr crypto.Address) (*voteescrow.Lock, error)
	GetRewardTokens() ([]crypto.Address, error)
	RewardData(token crypto.Address) (*multifee.RewardData, error)
	ClaimableRewards(addr crypto.Address) ([]multifee.Claimable, error)
	Token(addr crypto.Address) (*bank.Token, error)
	BalanceOf(token, addr crypto.Address) (*big.Int, error)
}

type ledgerRoutes struct {
	ledger LedgerReader
}

type escrowParamsResponse struct {
	Name                     string         `json:"name"`
	Symbol                   string         `json:"symbol"`
	Decimals                 uint8          `json:"decimals"`
	LockedToken              crypto.Address `json:"lockedToken"`
	Custody                  crypto.Address `json:"custody"`
	Owner                    crypto.Address `json:"owner"`
	PenaltyCollector         string         `json:"penaltyCollector,omitempty"`
	Distributor              string         `json:"multiFeeDistribution,omitempty"`
	MinDays                  uint64         `json:"minDays"`
	MaxDays                  uint64         `json:"maxDays"`
	Precision                uint64         `json:"precision"`
	MinLockedAmount          string         `json:"minLockedAmount"`
	EarlyWithdrawPenaltyRate uint64         `json:"earlyWithdrawPenaltyRate"`
	TotalLocked              string         `json:"totalLocked"`
	TotalSupply              string         `json:"totalSupply"`
	RewardsDuration          uint64         `json:"rewardsDuration"`
}

type lockResponse struct {
	Owner  crypto.Address `json:"owner"`
	Amount string         `json:"amount"`
	Start  uint64         `json:"start"`
	End    uint64         `json:"end"`
	Power  string         `json:"power"`
	Active bool           `json:"active"`
}

type rewardDataResponse struct {
	Token                crypto.Address `json:"token"`
	Symbol               string         `json:"symbol,omitempty"`
	LastUpdateTime       uint64         `json:"lastUpdateTime"`
	RewardPerShareStored string         `json:"rewardPerTokenStored"`
	RewardRate           string         `json:"rewardRate"`
	PeriodFinish         uint64         `json:"periodFinish"`
	Balance              string         `json:"balance"`
}

type claimableResponse struct {
	Token  crypto.Address `json:"token"`
	Amount string         `json:"amount"`
}

type balanceResponse struct {
	Token    crypto.Address `json:"token"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
	Account  crypto.Address `json:"account"`
	Balance  string         `json:"balance"`
}

func (h *ledgerRoutes) escrowParams(w http.ResponseWriter, r *http.Request) {
	params, err := h.ledger.EscrowParams()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	resp := escrowParamsResponse{
		Name:                     params.Name,
		Symbol:                   params.Symbol,
		Decimals:                 params.Decimals,
		LockedToken:              params.LockedToken,
		Custody:                  params.Custody,
		Owner:                    params.Owner,
		MinDays:                  params.MinDays,
		MaxDays:                  params.MaxDays,
		Precision:                params.Precision,
		MinLockedAmount:          amountString(params.MinLockedAmount),
		EarlyWithdrawPenaltyRate: params.EarlyWithdrawPenaltyRate,
		TotalLocked:              amountString(params.TotalLocked),
		TotalSupply:              amountString(params.TotalSupply),
		RewardsDuration:          params.RewardsDuration,
	}
	if !params.PenaltyCollector.IsZero() {
		resp.PenaltyCollector = params.PenaltyCollector.String()
	}
	if params.DistributorLinked {
		resp.Distributor = params.Distributor.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ledgerRoutes) lock(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "addr")
	if !ok {
		return
	}
	lock, err := h.ledger.Lock(addr)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lockResponse{
		Owner:  addr,
		Amount: amountString(lock.Amount),
		Start:  lock.Start,
		End:    lock.End,
		Power:  amountString(lock.Power),
		Active: lock.Active(),
	})
}

func (h *ledgerRoutes) rewardTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.ledger.GetRewardTokens()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if tokens == nil {
		tokens = []crypto.Address{}
	}
	writeJSON(w, http.StatusOK, map[string][]crypto.Address{"tokens": tokens})
}

func (h *ledgerRoutes) rewardData(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenParam(w, r)
	if !ok {
		return
	}
	data, err := h.ledger.RewardData(token)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	resp := rewardDataResponse{
		Token:                token,
		LastUpdateTime:       data.LastUpdateTime,
		RewardPerShareStored: amountString(data.RewardPerShareStored),
		RewardRate:           amountString(data.RewardRate),
		PeriodFinish:         data.PeriodFinish,
		Balance:              amountString(data.Balance),
	}
	if meta, err := h.ledger.Token(token); err == nil {
		resp.Symbol = meta.Symbol
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ledgerRoutes) claimable(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r, "addr")
	if !ok {
		return
	}
	claimable, err := h.ledger.ClaimableRewards(addr)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	out := make([]claimableResponse, 0, len(claimable))
	for _, c := range claimable {
		out = append(out, claimableResponse{Token: c.Token, Amount: amountString(c.Amount)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": addr, "rewards": out})
}

func (h *ledgerRoutes) balance(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenParam(w, r)
	if !ok {
		return
	}
	addr, ok := addressParam(w, r, "addr")
	if !ok {
		return
	}
	meta, err := h.ledger.Token(token)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	balance, err := h.ledger.BalanceOf(token, addr)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		Token:    token,
		Symbol:   meta.Symbol,
		Decimals: meta.Decimals,
		Account:  addr,
		Balance:  amountString(balance),
	})
}

func addressParam(w http.ResponseWriter, r *http.Request, name string) (crypto.Address, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		writeJSONError(w, http.StatusBadRequest, fmt.Errorf("%s is required", name))
		return crypto.ZeroAddress, false
	}
	addr, err := crypto.ParseAddress(raw)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Errorf("invalid %s: %w", name, err))
		return crypto.ZeroAddress, false
	}
	return addr, true
}

// tokenParam accepts a token address or a ticker symbol.
func tokenParam(w http.ResponseWriter, r *http.Request) (crypto.Address, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "token"))
	if raw == "" {
		writeJSONError(w, http.StatusBadRequest, errors.New("token is required"))
		return crypto.ZeroAddress, false
	}
	if addr, err := crypto.ParseAddress(raw); err == nil {
		return addr, true
	}
	return bank.TokenAddress(raw), true
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coreerrors.ErrUnknownRewardToken), errors.Is(err, bank.ErrTokenNotFound):
		writeJSONError(w, http.StatusNotFound, err)
	default:
		writeJSONError(w, http.StatusInternalServerError, err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
}
