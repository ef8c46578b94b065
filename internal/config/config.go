package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

type StorageConfig struct {
	// Backend is "neo4j" or "memory".
	Backend  string `toml:"backend"`
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type ClusteringConfig struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	WindowDays          int     `toml:"window_days"`
	MinClusterSize      int     `toml:"min_cluster_size"`
	MaxClusterSize      int     `toml:"max_cluster_size"`
}

type PromptsConfig struct {
	ClusterTitle string `toml:"cluster_title"`
}

type SchedulerConfig struct {
	// Cron is a standard 5-field cron spec; empty disables scheduled runs.
	Cron string `toml:"cron"`
}

type Config struct {
	LLM        LLMConfig        `toml:"llm"`
	Storage    StorageConfig    `toml:"storage"`
	Clustering ClusteringConfig `toml:"clustering"`
	Prompts    PromptsConfig    `toml:"prompts"`
	Scheduler  SchedulerConfig  `toml:"scheduler"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "gpt-oss:latest",
			BaseURL:  "http://localhost:11434",
		},
		Storage: StorageConfig{
			Backend: "neo4j",
			URI:     "bolt://localhost:7687",
		},
		Clustering: ClusteringConfig{
			SimilarityThreshold: 0.85,
			WindowDays:          30,
			MinClusterSize:      2,
			MaxClusterSize:      20,
		},
	}
}

// Load reads the TOML config at path, falling back to defaults when the
// file does not exist, then applies environment overrides. Parameter
// validation is left to the components the values are handed to.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
	} else if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("NEO4J_URI"); v != "" {
		cfg.Storage.URI = v
	}
	if v := os.Getenv("NEO4J_USER"); v != "" {
		cfg.Storage.User = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		cfg.Storage.Password = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
}
