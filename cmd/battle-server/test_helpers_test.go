package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	appbattle "prompt-battle/internal/app/battle"
	"prompt-battle/internal/chain"
	"prompt-battle/internal/config"
	"prompt-battle/internal/matchmaker"
	"prompt-battle/internal/store"

	"github.com/go-chi/chi/v5"
)

const (
	testPlayer1 = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
	testPlayer2 = "0xCd2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"
)

type stubVerifier struct {
	err error
}

func (s *stubVerifier) VerifyDeposit(_ context.Context, _ int64, _, _ string) (*chain.VerifiedDeposit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &chain.VerifiedDeposit{
		Amount:        big.NewInt(1_000_000),
		ChainID:       5042002,
		TokenAddress:  "0x3600000000000000000000000000000000000000",
		EscrowAddress: "0x1d4578929a2779Bb364fA7d56be3b053A6c6140b",
	}, nil
}

type noopRunner struct{}

func (noopRunner) MaybeStart(context.Context, int64) (bool, error) { return false, nil }

func newTestRouter(st *store.Store, cfg config.ServerConfig, verifier appbattle.Verifier) *chi.Mux {
	svc := appbattle.NewService(st, matchmaker.New(st), verifier, noopRunner{})
	return newRouter(st, cfg, svc)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// matchBattle plays both players at stake 1 and returns the battle id.
func matchBattle(t *testing.T, router http.Handler) int64 {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/battles/play",
		map[string]any{"address": testPlayer1, "stake": 1, "prompt": "a fox"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("play p1: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, router, http.MethodPost, "/api/battles/play",
		map[string]any{"address": testPlayer2, "stake": 1, "prompt": "a wolf"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("play p2: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Status   string `json:"status"`
		BattleID int64  `json:"battleId"`
	}
	decodeJSON(t, w, &resp)
	if resp.Status != "matched" || resp.BattleID == 0 {
		t.Fatalf("expected match, got %+v", resp)
	}
	return resp.BattleID
}
