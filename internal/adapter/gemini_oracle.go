package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured for the gemini provider.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiOptions configures a GeminiOracle.
type GeminiOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	// Label distinguishes pool members in logs (never the key itself).
	Label string
}

// GeminiOracle calls the Gemini API through google.golang.org/genai.
type GeminiOracle struct {
	client *genai.Client
	model  string
	label  string
}

// NewGeminiOracle creates a Gemini-backed oracle. A missing key or model is a
// configuration error.
func NewGeminiOracle(ctx context.Context, opts GeminiOptions) (*GeminiOracle, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("gemini: %w: missing api key", ErrOracleMisconfigured)
	}

	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("gemini: %w: missing model", ErrOracleMisconfigured)
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	label := opts.Label
	if label == "" {
		label = "gemini"
	}

	return &GeminiOracle{client: client, model: opts.Model, label: label}, nil
}

// Name identifies the oracle in logs.
func (o *GeminiOracle) Name() string {
	return o.label
}

// Generate sends one GenerateContent request and returns the reply text.
func (o *GeminiOracle) Generate(ctx context.Context, req OracleRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.SystemRole != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemRole, genai.RoleUser)
	}

	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens) // #nosec G115 - bounded by config
	}

	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(req.UserPrompt), cfg)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		slog.Debug("gemini request failed", "oracle", o.label, "model", o.model, "error", err)

		return "", classifyGeminiError(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyReply
	}

	return text, nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("gemini: %w: %w", ErrOracleUnavailable, err)
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("gemini: %w: %s", ErrRateLimited, apiErr.Message)
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
		return fmt.Errorf("gemini %d: %w: %s", apiErr.Code, ErrOracleMisconfigured, apiErr.Message)
	default:
		return fmt.Errorf("gemini %d: %w: %s", apiErr.Code, ErrOracleUnavailable, apiErr.Message)
	}
}
