package adapter

import (
	"context"
	"errors"
	"sync/atomic"
)

// Oracle errors. Providers wrap transport and upstream details around these.
var (
	ErrOracleMisconfigured = errors.New("oracle misconfigured")
	ErrOracleUnavailable   = errors.New("oracle unavailable")
	ErrRateLimited         = errors.New("oracle rate limited")
	ErrEmptyReply          = errors.New("oracle returned an empty reply")
)

// OracleRequest is the provider-neutral "text in" half of a generation call.
type OracleRequest struct {
	SystemRole      string
	UserPrompt      string
	Temperature     float32
	MaxOutputTokens int
	// JSONMode asks providers that support it to constrain output to JSON.
	JSONMode bool
}

// Oracle is an external text-generation service: one synchronous request,
// one text reply. Implementations must honour ctx cancellation.
type Oracle interface {
	Name() string
	Generate(ctx context.Context, req OracleRequest) (string, error)
}

// OraclePool is an ordered set of interchangeable oracles (typically one per
// credential) with round-robin rotation. It is safe for concurrent use.
type OraclePool struct {
	oracles []Oracle
	next    atomic.Uint64
}

// NewOraclePool builds a pool; nil oracles are dropped.
func NewOraclePool(oracles ...Oracle) *OraclePool {
	pool := &OraclePool{oracles: make([]Oracle, 0, len(oracles))}

	for _, oracle := range oracles {
		if oracle != nil {
			pool.oracles = append(pool.oracles, oracle)
		}
	}

	return pool
}

// Len returns the number of configured oracles.
func (p *OraclePool) Len() int {
	if p == nil {
		return 0
	}

	return len(p.oracles)
}

// Current returns the oracle currently selected, or false when the pool is empty.
func (p *OraclePool) Current() (Oracle, bool) {
	if p.Len() == 0 {
		return nil, false
	}

	idx := p.next.Load() % uint64(len(p.oracles))

	return p.oracles[idx], true
}

// Advance rotates to the next oracle and returns it.
func (p *OraclePool) Advance() (Oracle, bool) {
	if p.Len() == 0 {
		return nil, false
	}

	idx := p.next.Add(1) % uint64(len(p.oracles))

	return p.oracles[idx], true
}
