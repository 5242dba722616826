// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package tools

import (
	"fmt"
	"sync"
	"time"
)

// RateLimitConfig caps how often each tool may run. Zero values mean no limit.
type RateLimitConfig struct {
	DefaultPerMinute int
	PerTool          map[string]int
	Cooldowns        map[string]time.Duration
}

// DefaultRateLimitConfig imposes no limits.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{}
}

func (c RateLimitConfig) perMinute(id string) int {
	if n, ok := c.PerTool[id]; ok {
		return n
	}
	return c.DefaultPerMinute
}

func (c RateLimitConfig) empty() bool {
	if c.DefaultPerMinute > 0 {
		return false
	}
	for _, n := range c.PerTool {
		if n > 0 {
			return false
		}
	}
	for _, d := range c.Cooldowns {
		if d > 0 {
			return false
		}
	}
	return true
}

// bucket refills continuously at rate tokens per minute up to rate.
type bucket struct {
	rate        int
	tokens      float64
	last        time.Time
	cooldown    time.Duration
	nextAllowed time.Time
}

// rateLimiter keeps one bucket per tool, created on first use.
type rateLimiter struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	buckets map[string]*bucket
	now     func() time.Time
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.empty() {
		return nil
	}
	return &rateLimiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow takes one token for tool id or reports why it cannot run yet.
func (r *rateLimiter) Allow(id string) error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	b, ok := r.buckets[id]
	if !ok {
		rate := r.cfg.perMinute(id)
		b = &bucket{rate: rate, tokens: float64(rate), last: now, cooldown: r.cfg.Cooldowns[id]}
		r.buckets[id] = b
	}

	if now.Before(b.nextAllowed) {
		return fmt.Errorf("%w: retry after %s", ErrToolInCooldown, b.nextAllowed.Sub(now).Round(time.Second))
	}

	if b.rate > 0 {
		elapsed := now.Sub(b.last)
		b.last = now
		b.tokens += elapsed.Minutes() * float64(b.rate)
		if b.tokens > float64(b.rate) {
			b.tokens = float64(b.rate)
		}
		if b.tokens < 1 {
			return fmt.Errorf("%w: %s allows %d calls per minute", ErrToolRateLimited, id, b.rate)
		}
		b.tokens--
	}

	if b.cooldown > 0 {
		b.nextAllowed = now.Add(b.cooldown)
	}
	return nil
}
