package httptransport

import (
	"encoding/json"
	"net/http"
	"strconv"

	appbattle "prompt-battle/internal/app/battle"
	"prompt-battle/internal/store"
)

type AdminHandlers struct {
	store *store.Store
	svc   *appbattle.Service
}

func NewAdminHandlers(st *store.Store, svc *appbattle.Service) *AdminHandlers {
	return &AdminHandlers{store: st, svc: svc}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "db": "down"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "db": "up"})
	}
}

func (h *AdminHandlers) Battles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		resp, err := h.svc.List(r.Context(), r.URL.Query().Get("status"), limit)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *AdminHandlers) Deposits() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		battleID, ok := battleIDParam(w, r)
		if !ok {
			return
		}
		resp, err := h.svc.Deposits(r.Context(), battleID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *AdminHandlers) Close() http.HandlerFunc {
	type request struct {
		Winner string `json:"winner"`
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
		resp, err := h.svc.Close(r.Context(), battleID, req.Winner)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *AdminHandlers) ResetGeneration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		battleID, ok := battleIDParam(w, r)
		if !ok {
			return
		}
		resp, err := h.svc.ResetGeneration(r.Context(), battleID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
