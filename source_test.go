package shower

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryEventSourceStreamsAllEvents(t *testing.T) {
	sub := NewSubarrayDescription(Position3{})
	events := []*ArrayEvent{NewArrayEvent(1, 1), NewArrayEvent(2, 1), NewArrayEvent(3, 1)}
	src := NewInMemoryEventSource(sub, nil, events)

	if src.Subarray() != sub {
		t.Errorf("Subarray() did not return the constructed subarray")
	}
	if src.AtmosphereModel() == nil {
		t.Errorf("AtmosphereModel() should default to a non-nil profile when atm is nil")
	}

	ctx := context.Background()
	out, errc := src.Events(ctx)

	var got []int
	for e := range out {
		got = append(got, e.EventID)
	}
	if err := <-errc; err != nil {
		t.Fatalf("Events returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("streamed %d events, want 3", len(got))
	}
	for i, id := range got {
		if id != i+1 {
			t.Errorf("event %d has id %d, want %d", i, id, i+1)
		}
	}
}

func TestInMemoryEventSourceCancellation(t *testing.T) {
	sub := NewSubarrayDescription(Position3{})
	events := []*ArrayEvent{NewArrayEvent(1, 1), NewArrayEvent(2, 1)}
	src := NewInMemoryEventSource(sub, nil, events)

	// cancel ctx before Events is called and before anything drains the
	// output channel, so the unbuffered send can never proceed and the
	// first select is forced onto the ctx.Done() branch.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, errc := src.Events(ctx)

	select {
	case err := <-errc:
		if err == nil {
			t.Errorf("expected a non-nil error after cancellation")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the error channel after cancellation")
	}
}

func TestSimulationConfigAndShowerArrayAttachment(t *testing.T) {
	sub := NewSubarrayDescription(Position3{})
	src := NewInMemoryEventSource(sub, nil, nil)

	simCfg := SimulationConfig{NumShowers: 1000, EnergyRangeMin: 0.01, EnergyRangeMax: 100, SpectralIndex: -2.0}
	showers := []SimulatedShower{{Energy: 1.0}, {Energy: 2.0}, {Energy: 3.0}}

	src.WithSimulationConfig(simCfg).WithShowerArray(showers)

	if got := src.SimulationConfig(); got != simCfg {
		t.Errorf("SimulationConfig() = %+v, want %+v", got, simCfg)
	}
	if got := src.GetShowerArray(); len(got) != 3 {
		t.Fatalf("GetShowerArray() returned %d showers, want 3", len(got))
	}
}

func TestOpenEventSourceDefaultReportsUnregistered(t *testing.T) {
	_, err := OpenEventSource("some/uri")
	if err == nil {
		t.Errorf("expected the default OpenEventSource to report that no reader is registered")
	}
}

func TestRunMetadataAttachment(t *testing.T) {
	sub := NewSubarrayDescription(Position3{})
	src := NewInMemoryEventSource(sub, nil, nil)

	ref, err := ParseReferenceTime("2020/060 12:30:45")
	if err != nil {
		t.Fatalf("ParseReferenceTime returned error: %v", err)
	}
	src.WithRunMetadata(RunMetadata{ObservationID: 42, SoftwareVersion: "v1", ReferenceTime: ref})

	run := src.RunMetadata()
	if run.ObservationID != 42 || run.SoftwareVersion != "v1" {
		t.Errorf("RunMetadata() = %+v, want ObservationID=42 SoftwareVersion=v1", run)
	}
}
