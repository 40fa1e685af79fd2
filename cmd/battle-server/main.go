package main

import (
	"context"
	"net/http"
	"os"
	"time"

	appbattle "prompt-battle/internal/app/battle"
	"prompt-battle/internal/chain"
	"prompt-battle/internal/config"
	"prompt-battle/internal/genrunner"
	"prompt-battle/internal/imagegen"
	"prompt-battle/internal/logging"
	"prompt-battle/internal/matchmaker"
	"prompt-battle/internal/store"

	"github.com/rs/zerolog/log"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
	}
	genCfg, err := config.LoadGen()
	if err != nil {
		log.Fatal().Err(err).Msg("load generation config failed")
	}

	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}

	if err := os.MkdirAll(cfg.GeneratedDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("path", cfg.GeneratedDir).Msg("create generated dir failed")
	}

	verifier := newVerifier(cfg)
	runner := genrunner.New(st, imagegen.NewOpenAI(genCfg), cfg.GeneratedDir, cfg.GeneratedBaseURL)
	svc := appbattle.NewService(st, matchmaker.New(st), verifier, runner)

	r := newRouter(st, cfg, svc)
	logRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

// newVerifier returns nil when no chain RPC is configured; deposit
// confirmation is then disabled rather than trusting the client.
func newVerifier(cfg config.ServerConfig) appbattle.Verifier {
	if cfg.ChainRPCURL == "" {
		log.Warn().Msg("CHAIN_RPC_URL not set; deposit confirmation disabled")
		return nil
	}
	client, err := chain.Dial(cfg.ChainRPCURL)
	if err != nil {
		log.Fatal().Err(err).Msg("chain rpc dial failed")
	}
	v, err := chain.NewVerifier(client, cfg.EscrowAddress, cfg.TokenAddress, cfg.TokenDecimals)
	if err != nil {
		log.Fatal().Err(err).Msg("verifier init failed")
	}
	return v
}
