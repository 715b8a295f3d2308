// Package search debounces query input and guards the lookup results against
// out-of-order completion.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/engine"
)

// State is the coordinator's position in the debounce/lookup cycle.
type State int

const (
	Idle State = iota
	PendingDebounce
	InFlight
	Settled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingDebounce:
		return "pending"
	case InFlight:
		return "in_flight"
	case Settled:
		return "settled"
	}
	return "unknown"
}

// Timer is a cancellable scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules with time.AfterFunc.
type RealScheduler struct{}

// AfterFunc implements Scheduler.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Coordinator turns keystrokes into at most one applied lookup.
//
// Every Input bumps a generation counter, stops the pending timer and cancels
// the in-flight lookup. A lookup only publishes when its generation is still
// current, so stale completions are dropped. The lookup uses the query text
// current when the timer fires.
type Coordinator struct {
	Searcher  engine.Searcher
	Scheduler Scheduler
	Delay     time.Duration

	// OnResults receives every published result set, including the empty set
	// on clear or error. It is called with the coordinator lock held and must
	// not call back into the Coordinator.
	OnResults func([]engine.SearchResult)

	ctx context.Context

	mu      sync.Mutex
	state   State
	query   string
	gen     uint64
	timer   Timer
	cancel  context.CancelFunc
	results []engine.SearchResult
}

// NewCoordinator builds a Coordinator whose lookups derive from ctx.
func NewCoordinator(ctx context.Context, searcher engine.Searcher, delay time.Duration, onResults func([]engine.SearchResult)) *Coordinator {
	if delay <= 0 {
		delay = config.DefaultDebounce
	}
	return &Coordinator{
		Searcher:  searcher,
		Scheduler: RealScheduler{},
		Delay:     delay,
		OnResults: onResults,
		ctx:       ctx,
	}
}

// Input records a new query text.
func (c *Coordinator) Input(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.supersede()
	c.query = strings.TrimSpace(query)

	if c.query == "" {
		c.state = Idle
		c.publish([]engine.SearchResult{})
		slog.Debug(config.MsgSearchCleared, config.LogKeyComponent, config.CompSearch)
		return
	}

	gen := c.gen
	c.state = PendingDebounce
	c.timer = c.Scheduler.AfterFunc(c.Delay, func() { c.fire(gen) })

	slog.Debug(config.MsgSearchScheduled,
		config.LogKeyComponent, config.CompSearch,
		config.LogKeyQuery, c.query,
		config.LogKeySeq, gen)
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Results returns the last published results.
func (c *Coordinator) Results() []engine.SearchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]engine.SearchResult(nil), c.results...)
}

// Close stops the timer and abandons any in-flight lookup.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersede()
	c.state = Idle
}

// supersede invalidates everything scheduled or running. Caller holds mu.
func (c *Coordinator) supersede() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.query == "" {
		c.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	c.timer = nil
	c.state = InFlight
	query := c.query
	c.mu.Unlock()

	slog.Debug(config.MsgSearchIssued,
		config.LogKeyComponent, config.CompSearch,
		config.LogKeyQuery, query,
		config.LogKeySeq, gen)

	go c.lookup(ctx, cancel, gen, query)
}

func (c *Coordinator) lookup(ctx context.Context, cancel context.CancelFunc, gen uint64, query string) {
	defer cancel()

	results, err := c.Searcher.Search(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		slog.Debug(config.MsgSearchStale,
			config.LogKeyComponent, config.CompSearch,
			config.LogKeyQuery, query,
			config.LogKeySeq, gen)
		return
	}

	c.cancel = nil
	c.state = Settled
	if err != nil {
		slog.Warn(config.MsgSearchFailed,
			config.LogKeyComponent, config.CompSearch,
			config.LogKeyQuery, query,
			config.LogKeyError, err)
		results = []engine.SearchResult{}
	}
	if results == nil {
		results = []engine.SearchResult{}
	}
	c.publish(results)
}

// publish stores and forwards results. Caller holds mu.
func (c *Coordinator) publish(results []engine.SearchResult) {
	c.results = results
	if c.OnResults != nil {
		c.OnResults(append([]engine.SearchResult(nil), results...))
	}
}
