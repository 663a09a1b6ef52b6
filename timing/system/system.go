// Package system provides the chip-level pacer. It runs a hub — and
// through it every cog — as a ticking component on an Akita serial
// engine, one hub step per clock tick at the configured crystal
// frequency.
package system

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/Sh1nyAnd3o3/gear-emu/hub"
)

// DefaultFrequency is the usual crystal-multiplied system clock.
const DefaultFrequency = 80 * sim.MHz

// Stats holds simulation statistics.
type Stats struct {
	// Ticks is the number of hub steps performed.
	Ticks uint64
	// BreakpointHit is true when the run stopped on a breakpoint.
	BreakpointHit bool
}

// Simulation drives a hub on a simulation engine.
type Simulation struct {
	engine sim.Engine
	pacer  *pacer
}

// pacer adapts a hub to the engine's ticker contract.
type pacer struct {
	*sim.TickingComponent
	hub      *hub.Hub
	maxTicks uint64
	stats    Stats
}

// Tick performs one hub step. It reports false — letting the engine
// drain — when the tick budget is exhausted, every cog slot is empty,
// or a breakpoint is reached.
func (p *pacer) Tick() bool {
	if p.maxTicks > 0 && p.stats.Ticks >= p.maxTicks {
		return false
	}
	if p.hub.Idle() {
		return false
	}
	hit := p.hub.Step()
	p.stats.Ticks++
	if hit {
		p.stats.BreakpointHit = true
		return false
	}
	return true
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithMaxTicks bounds the run; zero means unbounded.
func WithMaxTicks(n uint64) Option {
	return func(s *Simulation) {
		s.pacer.maxTicks = n
	}
}

// WithFrequency sets the simulated clock frequency.
func WithFrequency(f sim.Freq) Option {
	return func(s *Simulation) {
		s.pacer.TickingComponent = sim.NewTickingComponent(
			"Gear", s.engine, f, s.pacer)
	}
}

// New creates a simulation around the given hub.
func New(h *hub.Hub, opts ...Option) *Simulation {
	engine := sim.NewSerialEngine()
	s := &Simulation{engine: engine}
	s.pacer = &pacer{hub: h}
	s.pacer.TickingComponent = sim.NewTickingComponent(
		"Gear", engine, DefaultFrequency, s.pacer)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes until the pacer stops ticking.
func (s *Simulation) Run() error {
	s.pacer.TickLater()
	return s.engine.Run()
}

// Stats returns the statistics of the completed run.
func (s *Simulation) Stats() Stats {
	return s.pacer.stats
}

// Time returns the simulated time reached, in seconds.
func (s *Simulation) Time() sim.VTimeInSec {
	return s.engine.CurrentTime()
}
