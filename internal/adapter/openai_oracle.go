package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Defaults for OpenAI-compatible chat-completions endpoints.
const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4.1-mini"
)

// OpenAIOptions configures an OpenAIOracle.
type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Label   string
	// HTTPClient overrides the default client; used by tests.
	HTTPClient *http.Client
}

// OpenAIOracle talks to any OpenAI-compatible /chat/completions endpoint.
type OpenAIOracle struct {
	hc     *http.Client
	url    string
	apiKey string
	model  string
	label  string
}

// NewOpenAIOracle creates an oracle for an OpenAI-compatible endpoint.
func NewOpenAIOracle(opts OpenAIOptions) (*OpenAIOracle, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("openai: %w: missing api key", ErrOracleMisconfigured)
	}

	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("openai: %w: missing model", ErrOracleMisconfigured)
	}

	base := opts.BaseURL
	if base == "" {
		base = DefaultOpenAIBaseURL
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}

		hc = &http.Client{Timeout: timeout}
	}

	label := opts.Label
	if label == "" {
		label = "openai"
	}

	return &OpenAIOracle{
		hc:     hc,
		url:    strings.TrimRight(base, "/") + "/chat/completions",
		apiKey: opts.APIKey,
		model:  opts.Model,
		label:  label,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Temperature    float32             `json:"temperature"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Name identifies the oracle in logs.
func (o *OpenAIOracle) Name() string {
	return o.label
}

// Generate posts one chat-completions request and returns the first choice.
func (o *OpenAIOracle) Generate(ctx context.Context, req OracleRequest) (string, error) {
	body, err := json.Marshal(o.encode(req))
	if err != nil {
		return "", fmt.Errorf("openai: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: new request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := o.hc.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
		}

		return "", fmt.Errorf("openai: %w: %w", ErrOracleUnavailable, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if err := classifyHTTPStatus(resp); err != nil {
		slog.Debug("openai request rejected", "oracle", o.label, "status", resp.StatusCode, "error", err)
		return "", err
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("openai: decode response: %w: %w", ErrOracleUnavailable, err)
	}

	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", ErrEmptyReply
	}

	return decoded.Choices[0].Message.Content, nil
}

func (o *OpenAIOracle) encode(req OracleRequest) chatRequest {
	out := chatRequest{
		Model:       o.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxOutputTokens,
	}

	if req.SystemRole != "" {
		out.Messages = append(out.Messages, chatMessage{Role: "system", Content: req.SystemRole})
	}

	out.Messages = append(out.Messages, chatMessage{Role: "user", Content: req.UserPrompt})

	if req.JSONMode {
		out.ResponseFormat = &chatResponseFormat{Type: "json_object"}
	}

	return out
}

func classifyHTTPStatus(resp *http.Response) error {
	if resp.StatusCode/100 == 2 {
		return nil
	}

	slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	msg := strings.TrimSpace(string(slurp))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("openai 429: %w: %s", ErrRateLimited, msg)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("openai %d: %w: %s", resp.StatusCode, ErrOracleMisconfigured, msg)
	default:
		return fmt.Errorf("openai %d: %w: %s", resp.StatusCode, ErrOracleUnavailable, msg)
	}
}
