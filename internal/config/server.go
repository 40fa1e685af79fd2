package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`

	ChainRPCURL   string `env:"CHAIN_RPC_URL"`
	ChainID       int64  `env:"CHAIN_ID" envDefault:"5042002"`
	ChainExplorer string `env:"CHAIN_EXPLORER" envDefault:"https://testnet.arcscan.app"`
	EscrowAddress string `env:"ESCROW_ADDRESS"`
	TokenAddress  string `env:"TOKEN_ADDRESS"`
	TokenDecimals int    `env:"TOKEN_DECIMALS" envDefault:"6"`

	GeneratedDir     string `env:"GENERATED_DIR" envDefault:"public/generated"`
	GeneratedBaseURL string `env:"GENERATED_BASE_URL" envDefault:"/generated"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
