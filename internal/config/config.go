package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the onboarding engine reads from the environment.
type Config struct {
	DBConnStr    string
	Port         string
	LLMProvider  string
	LLMAPIKey    string
	LLMModel     string
	PollInterval time.Duration
	SeedData     bool
}

// Load reads configuration from the environment, with a .env file as a dev
// convenience. A missing LLM API key is not an error; the engine falls back
// to the deterministic mock client.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("llm_provider", "openai")
	v.SetDefault("poll_interval", "2s")
	v.SetDefault("seed_data", true)
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_sslmode", "disable")
	v.AutomaticEnv()

	cfg := Config{
		DBConnStr:   v.GetString("db_conn_str"),
		Port:        v.GetString("port"),
		LLMProvider: v.GetString("llm_provider"),
		LLMAPIKey:   v.GetString("llm_api_key"),
		LLMModel:    v.GetString("llm_model"),
		SeedData:    v.GetBool("seed_data"),
	}

	if cfg.DBConnStr == "" {
		username := v.GetString("db_username")
		password := v.GetString("db_password")
		host := v.GetString("db_host")
		port := v.GetString("db_port")
		name := v.GetString("db_name")
		if username != "" && host != "" && name != "" {
			cfg.DBConnStr = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
				username, password, host, port, name, v.GetString("db_sslmode"))
		}
	}

	interval, err := time.ParseDuration(v.GetString("poll_interval"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid poll_interval: %w", err)
	}
	cfg.PollInterval = interval
	return cfg, nil
}
