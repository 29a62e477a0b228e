package cutter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// VersionProber reports the installed tool version.
type VersionProber interface {
	Version(ctx context.Context) (string, error)
}

// CachedProbe caches tool probes with a TTL so health checks do not spawn a
// subprocess on every request.
type CachedProbe struct {
	prober VersionProber
	binary string
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

// NewCachedProbe creates a caching wrapper around version probes. A nil
// prober yields a probe that always reports the tool as unavailable.
func NewCachedProbe(prober VersionProber, binary string, logger *slog.Logger) *CachedProbe {
	return &CachedProbe{
		prober: prober,
		binary: binary,
		ttl:    defaultCacheTTL,
		logger: logger,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (p *CachedProbe) Get(ctx context.Context) *Capabilities {
	p.mu.RLock()
	if p.cached != nil && time.Since(p.cached.ProbedAt) < p.ttl {
		caps := *p.cached
		p.mu.RUnlock()
		return &caps
	}
	p.mu.RUnlock()

	return p.Refresh(ctx)
}

// Refresh forces a new probe regardless of cache freshness.
func (p *CachedProbe) Refresh(ctx context.Context) *Capabilities {
	p.mu.Lock()
	defer p.mu.Unlock()

	caps := &Capabilities{Binary: p.binary, ProbedAt: time.Now()}
	if p.prober == nil {
		caps.Error = "ffmpeg not found"
	} else if version, err := p.prober.Version(ctx); err != nil {
		p.logger.Warn("ffmpeg probe failed", "error", err)
		caps.Error = err.Error()
	} else {
		caps.Available = true
		caps.Version = version
	}

	p.cached = caps
	out := *caps
	return &out
}

// Invalidate clears the cached capabilities.
func (p *CachedProbe) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
}
