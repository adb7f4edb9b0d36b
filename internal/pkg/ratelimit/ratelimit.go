package ratelimit

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"
)

// Tier selects the limit profile for an endpoint class.
type Tier string

const (
	// TierPublic covers anonymous detection/action pings.
	TierPublic Tier = "public"
	// TierProtected covers authenticated dashboard API calls.
	TierProtected Tier = "protected"
	// TierCritical covers sensitive reads like plan-usage lookups.
	TierCritical Tier = "critical"
)

// TierConfig is a fixed-window limit with a hard block period once exceeded.
type TierConfig struct {
	MaxRequests   int
	Window        time.Duration
	BlockDuration time.Duration
}

// DefaultTiers returns the production limit profiles.
func DefaultTiers() map[Tier]TierConfig {
	return map[Tier]TierConfig{
		TierPublic:    {MaxRequests: 50, Window: time.Minute, BlockDuration: 5 * time.Minute},
		TierProtected: {MaxRequests: 200, Window: time.Minute, BlockDuration: 2 * time.Minute},
		TierCritical:  {MaxRequests: 10, Window: time.Minute, BlockDuration: 10 * time.Minute},
	}
}

// Result is the outcome of a single limiter check.
type Result struct {
	Allowed   bool
	ResetTime time.Time
	Remaining int
}

type entry struct {
	Count     int       `json:"count"`
	ResetTime time.Time `json:"reset_time"`
	Blocked   bool      `json:"blocked"`
}

// Store is an optional shared backing store for multi-instance deployments.
// gofiber/storage implementations (e.g. the Redis one) satisfy it directly.
// Reads and writes through a Store are not atomic; the limiter stays advisory
// either way.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
}

// Limiter is a tiered fixed-window request throttle. It is constructed
// explicitly and injected, never a package-level singleton, so tests can run
// isolated instances.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	tiers   map[Tier]TierConfig
	store   Store
	now     func() time.Time
	stopCh  chan struct{}
	stopped sync.Once
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithStore makes the limiter keep its state in a shared store instead of
// process memory.
func WithStore(s Store) Option {
	return func(l *Limiter) { l.store = s }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter with the given tier profiles.
func New(tiers map[Tier]TierConfig, opts ...Option) *Limiter {
	if tiers == nil {
		tiers = DefaultTiers()
	}
	l := &Limiter{
		entries: make(map[string]*entry),
		tiers:   tiers,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check applies one request against the tier's window for the identifier.
func (l *Limiter) Check(identifier string, tier Tier) Result {
	cfg, ok := l.tiers[tier]
	if !ok {
		cfg = l.tiers[TierPublic]
	}
	key := fmt.Sprintf("%s:%s", tier, identifier)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.load(key)

	// Fresh window: no entry yet, or the previous window elapsed without a block.
	if e == nil || (!e.Blocked && !now.Before(e.ResetTime)) {
		e = &entry{Count: 1, ResetTime: now.Add(cfg.Window)}
		l.save(key, e, cfg)
		return Result{Allowed: true, ResetTime: e.ResetTime, Remaining: cfg.MaxRequests - 1}
	}

	if e.Blocked {
		blockedUntil := e.ResetTime.Add(cfg.BlockDuration)
		if now.Before(blockedUntil) {
			return Result{Allowed: false, ResetTime: blockedUntil, Remaining: 0}
		}
		// Block period elapsed, start over.
		e = &entry{Count: 1, ResetTime: now.Add(cfg.Window)}
		l.save(key, e, cfg)
		return Result{Allowed: true, ResetTime: e.ResetTime, Remaining: cfg.MaxRequests - 1}
	}

	if e.Count >= cfg.MaxRequests {
		e.Blocked = true
		l.save(key, e, cfg)
		return Result{Allowed: false, ResetTime: e.ResetTime.Add(cfg.BlockDuration), Remaining: 0}
	}

	e.Count++
	l.save(key, e, cfg)
	return Result{Allowed: true, ResetTime: e.ResetTime, Remaining: cfg.MaxRequests - e.Count}
}

func (l *Limiter) load(key string) *entry {
	if l.store != nil {
		raw, err := l.store.Get(key)
		if err != nil || len(raw) == 0 {
			return nil
		}
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil
		}
		return &e
	}
	return l.entries[key]
}

func (l *Limiter) save(key string, e *entry, cfg TierConfig) {
	if l.store != nil {
		raw, err := json.Marshal(e)
		if err != nil {
			return
		}
		// Keep the record around for the whole window plus the block period,
		// then let the store expire it.
		if err := l.store.Set(key, raw, cfg.Window+cfg.BlockDuration); err != nil {
			log.Printf("ratelimit: shared store write failed: %v", err)
		}
		return
	}
	l.entries[key] = e
}

// StartSweeper periodically removes fully-elapsed entries to bound memory.
// Only useful for the in-memory mode of a long-lived server process; shared
// stores expire entries themselves.
func (l *Limiter) StartSweeper(interval time.Duration) {
	if l.store != nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.sweep()
			case <-l.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the sweeper goroutine.
func (l *Limiter) Stop() {
	l.stopped.Do(func() { close(l.stopCh) })
}

func (l *Limiter) sweep() {
	now := l.now()
	maxBlock := time.Duration(0)
	for _, cfg := range l.tiers {
		if cfg.BlockDuration > maxBlock {
			maxBlock = cfg.BlockDuration
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.entries {
		if now.After(e.ResetTime.Add(maxBlock)) {
			delete(l.entries, key)
		}
	}
}

// ClientKey derives the caller identity from the forwarded IP and a truncated
// user-agent, so distinct browsers behind one IP are tracked separately.
func ClientKey(ip, userAgent string) string {
	if len(userAgent) > 48 {
		userAgent = userAgent[:48]
	}
	return ip + "|" + userAgent
}
