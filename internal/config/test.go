package config

import "github.com/caarlos0/env/v11"

// TestConfig points DB-backed tests at a disposable Postgres instance;
// suites skip themselves when the DSN is absent.
type TestConfig struct {
	PostgresDSN string `env:"TEST_POSTGRES_DSN,required,notEmpty"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	err := env.Parse(&cfg)
	return cfg, err
}
