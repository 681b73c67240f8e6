package alert

import (
	"context"
	"sync"
	"time"
)

type cooldownProvider struct {
	next     Provider
	cooldown time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// WithCooldown forwards at most one alert per operation and error code
// within cooldown to next. Suppressed alerts are dropped silently.
func WithCooldown(next Provider, cooldown time.Duration) Provider {
	return &cooldownProvider{
		next:     next,
		cooldown: cooldown,
		now:      time.Now,
		last:     make(map[string]time.Time),
	}
}

func (p *cooldownProvider) SendError(
	ctx context.Context,
	errCode, msg, operation string,
	details map[string]string,
) error {
	key := operation + "|" + errCode
	now := p.now()

	p.mu.Lock()
	if last, ok := p.last[key]; ok && now.Sub(last) < p.cooldown {
		p.mu.Unlock()
		return nil
	}
	p.prune(now)
	p.last[key] = now
	p.mu.Unlock()

	return p.next.SendError(ctx, errCode, msg, operation, details)
}

// prune drops entries whose cooldown has passed. p.mu must be held.
func (p *cooldownProvider) prune(now time.Time) {
	for key, last := range p.last {
		if now.Sub(last) >= p.cooldown {
			delete(p.last, key)
		}
	}
}
