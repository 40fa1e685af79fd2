package main

import (
	appbattle "prompt-battle/internal/app/battle"
	"prompt-battle/internal/config"
	"prompt-battle/internal/store"
	httptransport "prompt-battle/internal/transport/http"

	"github.com/go-chi/chi/v5"
)

func newRouter(st *store.Store, cfg config.ServerConfig, svc *appbattle.Service) *chi.Mux {
	return httptransport.NewRouter(st, cfg, svc)
}

func logRoutes(r chi.Router) {
	httptransport.LogRoutes(r)
}
