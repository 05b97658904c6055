package telemetry

import (
	"context"
	"testing"
)

func TestDisabledProviderIsNoop(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatal(err)
	}
	if p.Enabled {
		t.Error("provider should report disabled")
	}
	// Instruments must be usable even when disabled.
	p.RecordAnalysis("high", true, false, 12.5, 3.1, 1)
	p.RecordAnalysis("low", false, true, 0.4, 0, 0)
	if p.Tracer() == nil {
		t.Error("tracer must never be nil")
	}
	p.Shutdown(context.Background())
}

func TestNilProviderIsSafe(t *testing.T) {
	var p *Provider
	p.RecordAnalysis("low", false, false, 1, 0, 0)
	p.Shutdown(context.Background())
	if p.Tracer() == nil {
		t.Error("nil provider tracer must fall back to noop")
	}
}
