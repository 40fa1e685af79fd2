package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	appbattle "prompt-battle/internal/app/battle"
	"prompt-battle/internal/chain"
	"prompt-battle/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type BattleHandlers struct {
	svc *appbattle.Service
	cfg config.ServerConfig
}

func NewBattleHandlers(svc *appbattle.Service, cfg config.ServerConfig) *BattleHandlers {
	return &BattleHandlers{svc: svc, cfg: cfg}
}

func (h *BattleHandlers) Config() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":            true,
			"chainId":       h.cfg.ChainID,
			"escrowAddress": h.cfg.EscrowAddress,
			"tokenAddress":  h.cfg.TokenAddress,
			"tokenDecimals": h.cfg.TokenDecimals,
			"explorer":      h.cfg.ChainExplorer,
		})
	}
}

func (h *BattleHandlers) Play() http.HandlerFunc {
	type request struct {
		Address string `json:"address"`
		Stake   int64  `json:"stake"`
		Prompt  string `json:"prompt"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		resp, err := h.svc.Play(r.Context(), appbattle.PlayInput{
			Address: req.Address,
			Stake:   req.Stake,
			Prompt:  req.Prompt,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *BattleHandlers) Match() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := r.URL.Query().Get("address")
		stake, _ := strconv.ParseInt(r.URL.Query().Get("stake"), 10, 64)
		resp, err := h.svc.Match(r.Context(), address, stake)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *BattleHandlers) ConfirmDeposit() http.HandlerFunc {
	type request struct {
		Address string `json:"address"`
		TxHash  string `json:"txHash"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		battleID, ok := battleIDParam(w, r)
		if !ok {
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		resp, err := h.svc.ConfirmDeposit(r.Context(), appbattle.ConfirmDepositInput{
			BattleID: battleID,
			Address:  req.Address,
			TxHash:   req.TxHash,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *BattleHandlers) SubmitPrompt() http.HandlerFunc {
	type request struct {
		Address string `json:"address"`
		Prompt  string `json:"prompt"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		battleID, ok := battleIDParam(w, r)
		if !ok {
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if err := h.svc.SubmitPrompt(r.Context(), appbattle.SubmitPromptInput{
			BattleID: battleID,
			Address:  req.Address,
			Prompt:   req.Prompt,
		}); err != nil {
			writeServiceError(w, r, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func (h *BattleHandlers) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		battleID, ok := battleIDParam(w, r)
		if !ok {
			return
		}
		resp, err := h.svc.Status(r.Context(), battleID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *BattleHandlers) State() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		battleID, ok := battleIDParam(w, r)
		if !ok {
			return
		}
		resp, err := h.svc.State(r.Context(), battleID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func battleIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "battle_id"), 10, 64)
	if err != nil || id <= 0 {
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
		return 0, false
	}
	return id, true
}

// writeServiceError maps service and chain sentinels onto HTTP codes. A
// rejected deposit keeps its specific code so clients can tell a reverted
// transaction from a wrong stake.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, appbattle.ErrInvalidRequest):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
	case errors.Is(err, appbattle.ErrBattleNotFound):
		WriteHTTPError(w, http.StatusNotFound, "battle_not_found")
	case errors.Is(err, appbattle.ErrNotAPlayer):
		WriteHTTPError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, appbattle.ErrInvalidWinner):
		WriteHTTPError(w, http.StatusForbidden, "invalid_winner")
	case errors.Is(err, appbattle.ErrChainDisabled):
		WriteHTTPError(w, http.StatusServiceUnavailable, "chain_disabled")
	case errors.Is(err, chain.ErrTxNotFound):
		WriteHTTPError(w, http.StatusNotFound, "tx_not_found")
	case errors.Is(err, chain.ErrReceiptNotFound):
		WriteHTTPError(w, http.StatusNotFound, "receipt_not_found")
	case errors.Is(err, chain.ErrTxReverted):
		WriteHTTPError(w, http.StatusBadRequest, "tx_reverted")
	case errors.Is(err, chain.ErrAddressMismatch):
		WriteHTTPError(w, http.StatusBadRequest, "address_mismatch")
	case errors.Is(err, chain.ErrCalldataMismatch):
		WriteHTTPError(w, http.StatusBadRequest, "calldata_mismatch")
	case errors.Is(err, chain.ErrBadStake):
		WriteHTTPError(w, http.StatusBadRequest, "bad_stake")
	case errors.Is(err, chain.ErrTransferNotFound):
		WriteHTTPError(w, http.StatusBadRequest, "transfer_not_found")
	default:
		log.Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}
