package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"a11yfix.dev/pkg/a11yfix/internal/adapter"
	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

// DefaultOracleTimeout bounds a single generation call.
const DefaultOracleTimeout = 60 * time.Second

// Synthesizer turns a code scope and issue into a validated ProposedEdit by
// way of one oracle call.
type Synthesizer interface {
	Synthesize(ctx context.Context, in SynthesisInput) (m.ProposedEdit, error)
}

// SynthesizerOptions configures request sampling and the per-call timeout.
type SynthesizerOptions struct {
	Timeout         time.Duration
	Temperature     float32
	MaxOutputTokens int
}

type synthesizer struct {
	pool *adapter.OraclePool
	opts SynthesizerOptions
}

// NewSynthesizer returns a Synthesizer that calls the pool's current oracle.
// Rotation between attempts is the caller's decision.
func NewSynthesizer(pool *adapter.OraclePool, opts SynthesizerOptions) Synthesizer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOracleTimeout
	}

	return &synthesizer{pool: pool, opts: opts}
}

func (s *synthesizer) Synthesize(ctx context.Context, in SynthesisInput) (m.ProposedEdit, error) {
	const op = "synthesize"

	oracle, ok := s.pool.Current()
	if !ok {
		return m.ProposedEdit{}, m.Errorf(m.KindConfigurationMissing, op,
			"no oracle configured; set oracle.api_keys and oracle.model")
	}

	req, err := BuildRequest(in, PromptOptions{Temperature: s.opts.Temperature, MaxOutputTokens: s.opts.MaxOutputTokens})
	if err != nil {
		return m.ProposedEdit{}, m.NewError(m.KindGenerationFailed, op, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	started := time.Now()
	reply, err := oracle.Generate(callCtx, req)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return m.ProposedEdit{}, m.NewError(m.KindCancelled, op, ctxErr)
		}

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("oracle %s timed out after %s: %w", oracle.Name(), s.opts.Timeout, err)
		}

		slog.Error("Failed to generate edit", "oracle", oracle.Name(), "issue", in.Issue.ID, "error", err)

		return m.ProposedEdit{}, m.NewError(m.KindGenerationFailed, op, err)
	}

	slog.Debug("oracle replied", "oracle", oracle.Name(), "issue", in.Issue.ID,
		"elapsed", time.Since(started), "bytes", len(reply))

	edit, err := ParseReply(reply)
	if err != nil {
		slog.Warn("Oracle reply rejected", "oracle", oracle.Name(), "issue", in.Issue.ID, "error", err)
		return m.ProposedEdit{}, err
	}

	if err := validateEdit(edit, in.Scope); err != nil {
		slog.Warn("Oracle edit out of bounds", "oracle", oracle.Name(), "issue", in.Issue.ID, "error", err)
		return m.ProposedEdit{}, err
	}

	edit.File = in.File

	return edit, nil
}
