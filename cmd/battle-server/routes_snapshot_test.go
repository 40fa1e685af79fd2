package main

import (
	"net/http"
	"reflect"
	"sort"
	"testing"

	"prompt-battle/internal/config"
	"prompt-battle/internal/testutil"

	"github.com/go-chi/chi/v5"
)

func TestRouteSnapshot(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	router := newTestRouter(st, config.ServerConfig{AdminAPIKey: "admin-key"}, nil)

	var routes []string
	err := chi.Walk(router, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, method+" "+route)
		return nil
	})
	if err != nil {
		t.Fatalf("walk routes: %v", err)
	}
	sort.Strings(routes)

	expected := []string{
		"GET /api/battles",
		"GET /api/battles/match",
		"GET /api/battles/{battle_id}/deposits",
		"GET /api/battles/{battle_id}/state",
		"GET /api/battles/{battle_id}/status",
		"GET /api/config",
		"GET /healthz",
		"POST /api/battles/play",
		"POST /api/battles/{battle_id}/close",
		"POST /api/battles/{battle_id}/confirm-deposit",
		"POST /api/battles/{battle_id}/reset-generation",
		"POST /api/battles/{battle_id}/submit-prompt",
	}
	if !reflect.DeepEqual(routes, expected) {
		t.Fatalf("routes changed:\n got: %v\nwant: %v", routes, expected)
	}
}
