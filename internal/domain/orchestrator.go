package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"a11yfix.dev/pkg/a11yfix/internal/adapter"
	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

// Retry defaults for generation failures.
const (
	DefaultMaxAttempts  = 3
	DefaultRetryBackoff = 500 * time.Millisecond
)

// Orchestrator sequences resolution, scope extraction, synthesis and apply,
// and converts every outcome into a response message. No error or panic
// escapes either method.
type Orchestrator interface {
	GenerateProposal(ctx context.Context, req m.ProposalRequest) m.ProposalResponse
	ApplyProposal(ctx context.Context, req m.ApplyRequest) m.ApplyResponse
}

// StateObserver is notified of every pipeline transition.
type StateObserver func(issueID string, from, to m.PipelineState)

// Dependencies are the pipeline stages an Orchestrator drives.
type Dependencies struct {
	Resolver    LocationResolver
	Scopes      ScopeExtractor
	Metadata    MetadataCollector
	Synthesizer Synthesizer
	Applier     Applier
	Heuristics  HeuristicSuggester
	// Pool is rotated between generation attempts. It may be nil.
	Pool *adapter.OraclePool
}

// OrchestratorOptions tunes retry and language selection.
type OrchestratorOptions struct {
	MaxAttempts  int
	RetryBackoff time.Duration
	// Language overrides extension-based detection for every request.
	Language string
	Observer StateObserver
}

// NewDependencies wires the default stages over a filesystem adapter and an
// oracle pool.
func NewDependencies(fsAdapter adapter.SourceFSAdapter, pool *adapter.OraclePool, scopeRadius int, synth SynthesizerOptions) Dependencies {
	return Dependencies{
		Resolver:    NewLocationResolver(),
		Scopes:      NewScopeExtractor(fsAdapter, scopeRadius),
		Metadata:    NewMetadataCollector(),
		Synthesizer: NewSynthesizer(pool, synth),
		Applier:     NewApplier(fsAdapter, nil),
		Heuristics:  NewHeuristicSuggester(),
		Pool:        pool,
	}
}

type orchestrator struct {
	deps  Dependencies
	opts  OrchestratorOptions
	group singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the context shared by the callers waiting on one proposal. It is
// cancelled once every waiter has gone.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewOrchestrator constructs an Orchestrator. Missing resolver, metadata and
// heuristic stages fall back to the defaults.
func NewOrchestrator(deps Dependencies, opts OrchestratorOptions) Orchestrator {
	if deps.Resolver == nil {
		deps.Resolver = NewLocationResolver()
	}

	if deps.Metadata == nil {
		deps.Metadata = NewMetadataCollector()
	}

	if deps.Heuristics == nil {
		deps.Heuristics = NewHeuristicSuggester()
	}

	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}

	if opts.RetryBackoff < 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}

	return &orchestrator{deps: deps, opts: opts, flights: map[string]*flight{}}
}

// tracker walks one request through the state machine.
type tracker struct {
	issueID  string
	state    m.PipelineState
	observer StateObserver
}

func (t *tracker) moveTo(next m.PipelineState) {
	if !m.CanTransition(t.state, next) {
		slog.Error("Invalid pipeline transition", "issue", t.issueID, "from", t.state, "to", next)
	}

	prev := t.state
	t.state = next

	if t.observer != nil {
		t.observer(t.issueID, prev, next)
	}
}

// GenerateProposal collapses concurrent requests for the same issue, active
// file and language into one pipeline run. Each caller keeps its own request
// id and may cancel without affecting the others.
func (o *orchestrator) GenerateProposal(ctx context.Context, req m.ProposalRequest) m.ProposalResponse {
	requestID := uuid.NewString()

	if req.Language == "" {
		req.Language = o.opts.Language
	}

	if req.Issue.ID == "" {
		return o.generate(ctx, requestID, req)
	}

	if err := ctx.Err(); err != nil {
		return o.cancelled(requestID, req.Issue, err)
	}

	key := proposalKey(req)

	// A run whose every waiter left may still be finishing; a caller that
	// joins it late gets one fresh attempt.
	for retried := false; ; retried = true {
		resp, shared := o.awaitShared(ctx, key, requestID, req)
		if !shared || resp.Kind != m.KindCancelled || ctx.Err() != nil || retried {
			return resp
		}
	}
}

func (o *orchestrator) awaitShared(ctx context.Context, key, requestID string, req m.ProposalRequest) (m.ProposalResponse, bool) {
	f := o.join(ctx, key)
	defer o.leave(key, f)

	ch := o.group.DoChan(key, func() (any, error) {
		return o.generate(f.ctx, requestID, req), nil
	})

	select {
	case <-ctx.Done():
		return o.cancelled(requestID, req.Issue, ctx.Err()), false
	case res := <-ch:
		resp := res.Val.(m.ProposalResponse)
		if resp.RequestID != requestID {
			slog.Debug("proposal shared with in-flight request", "issue", req.Issue.ID, "leader", resp.RequestID)
			resp.RequestID = requestID

			return resp, true
		}

		return resp, false
	}
}

func (o *orchestrator) join(ctx context.Context, key string) *flight {
	o.mu.Lock()
	defer o.mu.Unlock()

	f, ok := o.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		o.flights[key] = f
	}

	f.waiters++

	return f
}

func (o *orchestrator) leave(key string, f *flight) {
	o.mu.Lock()
	defer o.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}

	f.cancel()

	if o.flights[key] == f {
		delete(o.flights, key)
	}
}

// proposalKey identifies requests that would produce the same proposal.
func proposalKey(req m.ProposalRequest) string {
	return strings.Join([]string{req.Issue.ID, string(req.ActiveFile), req.Language}, "\x00")
}

// cancelled answers a caller that gave up while its proposal was in flight.
func (o *orchestrator) cancelled(requestID string, issue m.Issue, err error) m.ProposalResponse {
	err = m.NewError(m.KindCancelled, "generate proposal", err)

	slog.Warn("Proposal request cancelled", "request", requestID, "issue", issue.ID, "error", err)

	return m.ProposalResponse{
		RequestID: requestID,
		IssueID:   issue.ID,
		State:     m.StateFailed,
		Rationale: err.Error(),
		Kind:      m.KindCancelled,
	}
}

func (o *orchestrator) generate(ctx context.Context, requestID string, req m.ProposalRequest) (resp m.ProposalResponse) {
	issue := req.Issue
	t := &tracker{issueID: issue.ID, state: m.StateIdle, observer: o.opts.Observer}
	log := slog.With("request", requestID, "issue", issue.ID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic while generating proposal", "panic", r)
			resp = o.proposalFailure(requestID, issue, t, m.Errorf(m.KindGenerationFailed, "generate proposal", "internal error: %v", r))
		}
	}()

	t.moveTo(m.StateResolving)

	if err := ctx.Err(); err != nil {
		return o.proposalFailure(requestID, issue, t, m.NewError(m.KindCancelled, "generate proposal", err))
	}

	loc, ok := o.deps.Resolver.Resolve(issue, req.ActiveFile)
	if !ok {
		log.Warn("No usable location for issue")
		return o.proposalFailure(requestID, issue, t, m.Errorf(m.KindLocationUnresolved, "resolve location", "issue %q has no usable location hint", issue.ID))
	}

	scope, err := o.deps.Scopes.ExtractScope(ctx, loc.File, loc.Line, loc.Column)
	if err != nil {
		return o.proposalFailure(requestID, issue, t, err)
	}

	t.moveTo(m.StateScopeLoaded)

	in := SynthesisInput{
		Language: DetectLanguage(loc.File, req.Language),
		File:     loc.File,
		Scope:    scope,
		Issue:    issue,
		Metadata: o.deps.Metadata.Collect(issue),
	}

	t.moveTo(m.StateSynthesizing)

	edit, err := o.synthesizeWithRetry(ctx, log, in)
	if err != nil {
		return o.proposalFailure(requestID, issue, t, err)
	}

	t.moveTo(m.StateProposed)

	proposal := &m.Proposal{ProposedEdit: edit, Language: in.Language.Name}
	if edit.RangeKnown {
		proposal.OriginalCode = strings.Join(scope.Slice(edit.StartLine, edit.EndLine), "\n")
	}

	log.Info("proposal ready", "file", edit.File, "start", edit.StartLine, "end", edit.EndLine, "rangeKnown", edit.RangeKnown)

	return m.ProposalResponse{
		RequestID: requestID,
		IssueID:   issue.ID,
		OK:        true,
		State:     t.state,
		Proposal:  proposal,
		Rationale: edit.Rationale,
	}
}

// synthesizeWithRetry retries only generation failures, rotating the oracle
// pool between attempts.
func (o *orchestrator) synthesizeWithRetry(ctx context.Context, log *slog.Logger, in SynthesisInput) (m.ProposedEdit, error) {
	var lastErr error

	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		edit, err := o.deps.Synthesizer.Synthesize(ctx, in)
		if err == nil {
			return edit, nil
		}

		lastErr = err

		if errKindOr(err, m.KindGenerationFailed) != m.KindGenerationFailed || attempt == o.opts.MaxAttempts {
			break
		}

		if next, ok := o.deps.Pool.Advance(); ok && o.deps.Pool.Len() > 1 {
			log.Info("rotating oracle", "attempt", attempt, "next", next.Name())
		}

		log.Warn("Generation attempt failed, retrying", "attempt", attempt, "error", err)

		if err := sleepCtx(ctx, o.opts.RetryBackoff); err != nil {
			return m.ProposedEdit{}, m.NewError(m.KindCancelled, "synthesize", err)
		}
	}

	return m.ProposedEdit{}, lastErr
}

func (o *orchestrator) proposalFailure(requestID string, issue m.Issue, t *tracker, err error) m.ProposalResponse {
	kind := errKindOr(err, m.KindGenerationFailed)

	if !t.state.Terminal() {
		t.moveTo(m.StateFailed)
	}

	slog.Error("Failed to generate proposal", "request", requestID, "issue", issue.ID, "kind", kind, "error", err)

	resp := m.ProposalResponse{
		RequestID: requestID,
		IssueID:   issue.ID,
		State:     t.state,
		Rationale: err.Error(),
		Kind:      kind,
	}

	if kind == m.KindGenerationFailed || kind == m.KindConfigurationMissing {
		suggestion := o.deps.Heuristics.Suggest(issue)
		resp.FallbackAvailable = true
		resp.HeuristicSuggestion = &suggestion
	}

	return resp
}

func (o *orchestrator) ApplyProposal(ctx context.Context, req m.ApplyRequest) (resp m.ApplyResponse) {
	requestID := uuid.NewString()
	t := &tracker{issueID: req.IssueID, state: m.StateIdle, observer: o.opts.Observer}
	log := slog.With("request", requestID, "issue", req.IssueID)

	resp = m.ApplyResponse{RequestID: requestID, IssueID: req.IssueID, State: m.StateIdle}

	if err := ctx.Err(); err != nil {
		resp.Kind = m.KindCancelled
		resp.Error = m.NewError(m.KindCancelled, "apply proposal", err).Error()

		return resp
	}

	t.moveTo(m.StateApplying)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic while applying", "panic", r)
			if !t.state.Terminal() {
				t.moveTo(m.StateApplyFailed)
			}
			resp.OK = false
			resp.State = t.state
			resp.Kind = m.KindApplyFailed
			resp.Error = m.Errorf(m.KindApplyFailed, "apply proposal", "internal error: %v", r).Error()
		}
	}()

	// Once applying starts it runs to completion; there is no safe point
	// between backup and write to abort at.
	result := o.deps.Applier.Apply(context.WithoutCancel(ctx), req)

	resp.BackupPath = result.BackupPath

	if !result.OK {
		t.moveTo(m.StateApplyFailed)
		resp.State = t.state
		resp.Error = result.Error
		resp.Kind = result.Kind

		log.Error("Failed to apply proposal", "file", req.File, "kind", result.Kind, "error", result.Error)

		return resp
	}

	t.moveTo(m.StateApplied)
	resp.OK = true
	resp.State = t.state

	return resp
}

// ErrRangeUnknown is returned for proposals whose edited range could not be
// recovered from the oracle reply.
var ErrRangeUnknown = errors.New("proposal has no known line range")

// ApplyRequestFromProposal converts a successful proposal into the request
// that applies it.
func ApplyRequestFromProposal(resp m.ProposalResponse) (m.ApplyRequest, error) {
	if !resp.OK || resp.Proposal == nil {
		return m.ApplyRequest{}, fmt.Errorf("issue %q has no proposal to apply", resp.IssueID)
	}

	if !resp.Proposal.RangeKnown {
		return m.ApplyRequest{}, fmt.Errorf("issue %q: %w", resp.IssueID, ErrRangeUnknown)
	}

	return m.ApplyRequest{
		IssueID:   resp.IssueID,
		File:      resp.Proposal.File,
		StartLine: resp.Proposal.StartLine,
		EndLine:   resp.Proposal.EndLine,
		NewCode:   resp.Proposal.NewCode,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// errKindOr returns the EngineError kind of err, or fallback.
func errKindOr(err error, fallback m.ErrorKind) m.ErrorKind {
	if kind := m.KindOf(err); kind != "" {
		return kind
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return m.KindCancelled
	}

	return fallback
}
