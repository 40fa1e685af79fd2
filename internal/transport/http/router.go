package httptransport

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	appbattle "prompt-battle/internal/app/battle"
	"prompt-battle/internal/config"
	"prompt-battle/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(st *store.Store, cfg config.ServerConfig, svc *appbattle.Service) *chi.Mux {
	battleHandlers := NewBattleHandlers(svc, cfg)
	adminHandlers := NewAdminHandlers(st, svc)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/config", battleHandlers.Config())
		r.Post("/battles/play", battleHandlers.Play())
		r.Get("/battles/match", battleHandlers.Match())
		r.Post("/battles/{battle_id}/confirm-deposit", battleHandlers.ConfirmDeposit())
		r.Post("/battles/{battle_id}/submit-prompt", battleHandlers.SubmitPrompt())
		r.Get("/battles/{battle_id}/status", battleHandlers.Status())
		r.Get("/battles/{battle_id}/state", battleHandlers.State())

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Use(BodyCaptureMiddleware(4096))
			r.Get("/battles", adminHandlers.Battles())
			r.Get("/battles/{battle_id}/deposits", adminHandlers.Deposits())
			r.Post("/battles/{battle_id}/close", adminHandlers.Close())
			r.Post("/battles/{battle_id}/reset-generation", adminHandlers.ResetGeneration())
		})
	})

	if info, err := os.Stat(cfg.GeneratedDir); err == nil && info.IsDir() {
		fileServer := http.StripPrefix(cfg.GeneratedBaseURL+"/", http.FileServer(http.Dir(cfg.GeneratedDir)))
		r.Handle(cfg.GeneratedBaseURL+"/*", fileServer)
	} else {
		log.Warn().Str("path", cfg.GeneratedDir).Msg("generated directory not found; skipping static image route")
	}
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 64)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
