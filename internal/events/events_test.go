package events

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/policyxray/policyxray/internal/analysis"
)

// memorySink captures delivered events for assertions.
type memorySink struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (m *memorySink) Name() string { return "memory" }

func (m *memorySink) Deliver(_ context.Context, ev *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *memorySink) Close(context.Context) error { return nil }

func (m *memorySink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func sampleResult() *analysis.Result {
	return &analysis.Result{
		Categories: map[string]*analysis.CategoryResult{
			"biometric": {Score: 70, RiskLevel: analysis.LevelHigh, TotalMatches: 2, Matches: []*analysis.Match{}},
		},
		Overall: analysis.OverallResult{Score: 18, RiskLevel: analysis.LevelLow},
	}
}

func sampleEvent() *Event {
	return NewEvent("req-1", 1200, true, false, sampleResult(), 1, 42*time.Millisecond)
}

func TestNewEventSummarizesResult(t *testing.T) {
	ev := sampleEvent()
	if ev.ID == "" {
		t.Error("event id not assigned")
	}
	if ev.OverallScore != 18 || ev.OverallRiskLevel != "low" {
		t.Errorf("overall: %d/%s", ev.OverallScore, ev.OverallRiskLevel)
	}
	cs, ok := ev.Categories["biometric"]
	if !ok || cs.Score != 70 || cs.Matches != 2 || cs.RiskLevel != "high" {
		t.Errorf("category summary: %+v", cs)
	}
	if ev.LatencyMS != 42 {
		t.Errorf("latency_ms = %v, want 42", ev.LatencyMS)
	}
}

func TestEmitterDeliversToSink(t *testing.T) {
	sink := &memorySink{}
	em := NewEmitter(EmitterConfig{QueueSize: 8, Workers: 1}, []Sink{sink})

	em.Emit(sampleEvent())
	em.Emit(sampleEvent())
	em.Close(context.Background())

	if got := sink.count(); got != 2 {
		t.Fatalf("delivered %d events, want 2", got)
	}
	m := em.MetricsSnapshot()
	if m.Enqueued() != 2 || m.Dropped() != 0 {
		t.Errorf("enqueued=%d dropped=%d", m.Enqueued(), m.Dropped())
	}
	if m.SinkSuccess("memory") != 2 {
		t.Errorf("sink success = %d, want 2", m.SinkSuccess("memory"))
	}
}

func TestEmitterCountsSinkFailures(t *testing.T) {
	sink := &memorySink{err: errors.New("sink down")}
	em := NewEmitter(EmitterConfig{QueueSize: 8, Workers: 1}, []Sink{sink})

	em.Emit(sampleEvent())
	em.Close(context.Background())

	if got := em.MetricsSnapshot().SinkFailure("memory"); got != 1 {
		t.Errorf("sink failure = %d, want 1", got)
	}
}

func TestEmitterDropsAfterClose(t *testing.T) {
	em := NewEmitter(EmitterConfig{QueueSize: 8, Workers: 1}, nil)
	em.Close(context.Background())

	em.Emit(sampleEvent())
	if got := em.MetricsSnapshot().Dropped(); got != 1 {
		t.Errorf("dropped = %d, want 1", got)
	}
}

func TestEmitterNilReceiverIsSafe(t *testing.T) {
	var em *Emitter
	em.Emit(sampleEvent())
	em.Close(context.Background())
}

func TestFileSinkWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "events.jsonl")
	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := sink.Deliver(context.Background(), sampleEvent()); err != nil {
			t.Fatal(err)
		}
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("line %d not valid JSON: %v", lines, err)
		}
		if ev.RequestID != "req-1" {
			t.Errorf("line %d request_id = %q", lines, ev.RequestID)
		}
		lines++
	}
	if lines != 3 {
		t.Errorf("wrote %d lines, want 3", lines)
	}
}

func TestWebhookSinkPostsAndRetries(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Error("auth header missing")
		}
		if n == 1 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	sink, err := NewWebhookSink(ts.URL, map[string]string{"Authorization": "Bearer token"}, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := sink.Deliver(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("deliver should succeed on retry: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}
