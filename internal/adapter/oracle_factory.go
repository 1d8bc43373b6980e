package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Supported oracle providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// OracleConfig describes the oracle pool to build, one member per API key.
type OracleConfig struct {
	Provider string
	Model    string
	APIKeys  []string
	BaseURL  string
	Timeout  time.Duration
}

// BuildOraclePool creates one oracle per configured key, preserving key order.
// A config without keys yields an empty pool; the synthesizer reports that as
// a missing configuration when a proposal is requested.
func BuildOraclePool(ctx context.Context, cfg OracleConfig) (*OraclePool, error) {
	keys := make([]string, 0, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		if k := strings.TrimSpace(key); k != "" {
			keys = append(keys, k)
		}
	}

	if len(keys) == 0 || strings.TrimSpace(cfg.Model) == "" {
		slog.Warn("No oracle configured", "provider", cfg.Provider, "keys", len(keys), "model", cfg.Model)
		return NewOraclePool(), nil
	}

	oracles := make([]Oracle, 0, len(keys))

	for i, key := range keys {
		label := fmt.Sprintf("%s#%d", cfg.Provider, i+1)

		oracle, err := newOracle(ctx, cfg, key, label)
		if err != nil {
			return nil, err
		}

		oracles = append(oracles, oracle)
	}

	slog.Info("Oracle pool ready", "provider", cfg.Provider, "model", cfg.Model, "size", len(oracles))

	return NewOraclePool(oracles...), nil
}

func newOracle(ctx context.Context, cfg OracleConfig, key, label string) (Oracle, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGemini, "":
		return NewGeminiOracle(ctx, GeminiOptions{APIKey: key, Model: cfg.Model, BaseURL: cfg.BaseURL, Label: label})
	case ProviderOpenAI:
		return NewOpenAIOracle(OpenAIOptions{APIKey: key, Model: cfg.Model, BaseURL: cfg.BaseURL, Timeout: cfg.Timeout, Label: label})
	default:
		return nil, fmt.Errorf("unknown oracle provider %q: %w", cfg.Provider, ErrOracleMisconfigured)
	}
}
