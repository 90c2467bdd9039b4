package shower

import (
	"context"
	"fmt"
)

// SimulationConfig carries the static parameters of a simulated production
// run: the primary spectrum, geometry, and scatter volume used to throw
// showers, as opposed to SimulatedShower which is the per-shower truth of
// one thrown event.
type SimulationConfig struct {
	RunID             int
	NumShowers        int
	EnergyRangeMin    float64 // TeV
	EnergyRangeMax    float64 // TeV
	SpectralIndex     float64
	MaxScatterRangeM  float64
	MaxViewconeDeg    float64
	ObservationLevelM float64
	PrimaryParticleID int
}

// EventSource iterates the events of one input file, exposing the static
// metadata a pipeline needs once up front alongside the per-event stream.
// The real parser for any concrete telescope data format is an external
// collaborator out of scope here; InMemoryEventSource below is a minimal
// implementation used for tests and as a template for a real one.
type EventSource interface {
	Subarray() *SubarrayDescription
	AtmosphereModel() AtmosphereProfile
	Metaparam() map[string]string
	RunMetadata() RunMetadata

	// SimulationConfig reports the static production parameters of a
	// simulated run; the zero value when the source isn't simulation-backed.
	SimulationConfig() SimulationConfig

	// GetShowerArray returns the per-shower simulation truth for every shower
	// thrown in the run, independent of which (if any) triggered telescopes
	// and were streamed as events.
	GetShowerArray() []SimulatedShower

	// Events streams events until ctx is done or the source is exhausted.
	// The returned channel is closed when iteration ends; a non-nil error
	// is only meaningful after the channel closes.
	Events(ctx context.Context) (<-chan *ArrayEvent, <-chan error)
}

// InMemoryEventSource replays a fixed slice of pre-built events, standing in
// for a file-backed EventSource in tests and examples.
type InMemoryEventSource struct {
	sub       *SubarrayDescription
	atm       AtmosphereProfile
	meta      map[string]string
	run       RunMetadata
	simConfig SimulationConfig
	showers   []SimulatedShower
	events    []*ArrayEvent
}

// NewInMemoryEventSource builds a source over an already-assembled event
// slice and static metadata.
func NewInMemoryEventSource(sub *SubarrayDescription, atm AtmosphereProfile, events []*ArrayEvent) *InMemoryEventSource {
	if atm == nil {
		atm = NewExponentialAtmosphere()
	}
	return &InMemoryEventSource{
		sub:    sub,
		atm:    atm,
		meta:   map[string]string{"source": "in_memory"},
		events: events,
	}
}

// WithRunMetadata attaches a reference time and software version to the
// source, as a real file reader would parse from the run header.
func (s *InMemoryEventSource) WithRunMetadata(run RunMetadata) *InMemoryEventSource {
	s.run = run
	return s
}

// WithSimulationConfig attaches the static production parameters of a
// simulated run.
func (s *InMemoryEventSource) WithSimulationConfig(cfg SimulationConfig) *InMemoryEventSource {
	s.simConfig = cfg
	return s
}

// WithShowerArray attaches the bulk per-shower simulation truth, independent
// of the triggered events streamed by Events.
func (s *InMemoryEventSource) WithShowerArray(showers []SimulatedShower) *InMemoryEventSource {
	s.showers = showers
	return s
}

func (s *InMemoryEventSource) Subarray() *SubarrayDescription     { return s.sub }
func (s *InMemoryEventSource) AtmosphereModel() AtmosphereProfile { return s.atm }
func (s *InMemoryEventSource) Metaparam() map[string]string       { return s.meta }
func (s *InMemoryEventSource) RunMetadata() RunMetadata           { return s.run }
func (s *InMemoryEventSource) SimulationConfig() SimulationConfig { return s.simConfig }
func (s *InMemoryEventSource) GetShowerArray() []SimulatedShower  { return s.showers }

// OpenEventSource resolves uri to a concrete EventSource. It is a package
// variable rather than a fixed function so a real format-specific reader
// (simtel, a camera's native DL0 container, etc.) can be registered by
// whatever program links this package; the reader itself is an external
// collaborator and out of scope here, so the default implementation reports
// that no such registration has happened.
var OpenEventSource = func(uri string) (EventSource, error) {
	return nil, fmt.Errorf("%w: no EventSource reader registered for %s", ErrOpenInput, uri)
}

func (s *InMemoryEventSource) Events(ctx context.Context) (<-chan *ArrayEvent, <-chan error) {
	out := make(chan *ArrayEvent)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)
		for _, e := range s.events {
			select {
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			case out <- e:
			}
		}
	}()

	return out, errc
}
