package config

import "github.com/caarlos0/env/v11"

type GenConfig struct {
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model         string `env:"OPENAI_MODEL" envDefault:"gpt-5"`
	ImageSize     string `env:"OPENAI_IMAGE_SIZE" envDefault:"1024x1024"`
	ImageQuality  string `env:"OPENAI_IMAGE_QUALITY" envDefault:"high"`
	TimeoutSecs   int    `env:"OPENAI_TIMEOUT_SECONDS" envDefault:"120"`
}

func LoadGen() (GenConfig, error) {
	var cfg GenConfig
	err := env.Parse(&cfg)
	return cfg, err
}
