package hub

import (
	"encoding/json"
	"sync"
	"testing"
)

type fakePusher struct {
	mu       sync.Mutex
	messages [][]byte
	full     bool
}

func (f *fakePusher) Push(message []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.messages = append(f.messages, message)
	return true
}

func (f *fakePusher) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.messages))
	copy(out, f.messages)
	return out
}

func TestJoinIsIdempotent(t *testing.T) {
	r := NewRegistry()
	p := &fakePusher{}

	r.Join("ann@example.com", p)
	r.Join("ann@example.com", p)

	if got := len(r.Lookup("ann@example.com")); got != 1 {
		t.Fatalf("expected 1 connection, got %d", got)
	}
}

func TestMultipleConnectionsPerIdentity(t *testing.T) {
	r := NewRegistry()
	r.Join("ann@example.com", &fakePusher{})
	r.Join("ann@example.com", &fakePusher{})

	if got := len(r.Lookup("ann@example.com")); got != 2 {
		t.Fatalf("expected 2 connections, got %d", got)
	}
}

func TestLeaveRemovesConnection(t *testing.T) {
	r := NewRegistry()
	p := &fakePusher{}
	r.Join("ann@example.com", p)

	r.Leave(p)

	if got := len(r.Lookup("ann@example.com")); got != 0 {
		t.Fatalf("expected empty set after leave, got %d", got)
	}
	// Leaving twice, or leaving a connection that never joined, is a no-op.
	r.Leave(p)
	r.Leave(&fakePusher{})
}

func TestLookupUnknownIdentityIsEmpty(t *testing.T) {
	r := NewRegistry()
	if got := r.Lookup("nobody@example.com"); len(got) != 0 {
		t.Fatalf("expected no connections, got %d", len(got))
	}
}

func TestJoinRehomesConnection(t *testing.T) {
	r := NewRegistry()
	p := &fakePusher{}
	r.Join("ann@example.com", p)
	r.Join("bob@example.com", p)

	if got := len(r.Lookup("ann@example.com")); got != 0 {
		t.Fatalf("expected ann's set to be empty, got %d", got)
	}
	if got := len(r.Lookup("bob@example.com")); got != 1 {
		t.Fatalf("expected bob to hold the connection, got %d", got)
	}
}

func TestConcurrentJoinsAndLeaves(t *testing.T) {
	r := NewRegistry()
	const n = 64

	pushers := make([]*fakePusher, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		pushers[i] = &fakePusher{}
		wg.Add(1)
		go func(p *fakePusher) {
			defer wg.Done()
			r.Join("ann@example.com", p)
		}(pushers[i])
	}
	wg.Wait()

	if got := len(r.Lookup("ann@example.com")); got != n {
		t.Fatalf("expected %d connections, got %d", n, got)
	}

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(p *fakePusher) {
			defer wg.Done()
			r.Leave(p)
		}(pushers[i])
	}
	wg.Wait()

	if got := len(r.Lookup("ann@example.com")); got != 0 {
		t.Fatalf("expected no connections after leaves, got %d", got)
	}
}

func TestEmitToDeliversInOrder(t *testing.T) {
	r := NewRegistry()
	p := &fakePusher{}
	r.Join("ann@example.com", p)

	r.EmitTo("ann@example.com", EventNotificationNew, map[string]string{"seq": "first"})
	r.EmitTo("ann@example.com", EventNotificationNew, map[string]string{"seq": "second"})
	r.EmitTo("ann@example.com", EventNotificationNew, map[string]string{"seq": "third"})

	messages := p.received()
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	want := []string{"first", "second", "third"}
	for i, raw := range messages {
		var event struct {
			Event string            `json:"event"`
			Data  map[string]string `json:"data"`
		}
		if err := json.Unmarshal(raw, &event); err != nil {
			t.Fatalf("unmarshal message %d: %v", i, err)
		}
		if event.Event != EventNotificationNew {
			t.Errorf("message %d: expected event %q, got %q", i, EventNotificationNew, event.Event)
		}
		if event.Data["seq"] != want[i] {
			t.Errorf("message %d: expected seq %q, got %q", i, want[i], event.Data["seq"])
		}
	}
}

func TestEmitToWithNoConnectionsIsSilent(t *testing.T) {
	r := NewRegistry()
	// Must not panic or error; unreachable recipients just receive nothing.
	r.EmitTo("nobody@example.com", EventNotificationNew, map[string]string{"x": "y"})
}

func TestBroadcastIsolatesFailingConnections(t *testing.T) {
	r := NewRegistry()
	stuck := &fakePusher{full: true}
	healthy := &fakePusher{}
	r.Join("ann@example.com", stuck)
	r.Join("bob@example.com", healthy)

	r.Broadcast([]string{"ann@example.com", "bob@example.com"}, EventNotificationNew, "hello")

	if got := len(healthy.received()); got != 1 {
		t.Fatalf("expected healthy connection to receive 1 message, got %d", got)
	}
}

func TestBroadcastSkipsConnectionlessIdentities(t *testing.T) {
	r := NewRegistry()
	p := &fakePusher{}
	r.Join("bob@example.com", p)

	r.Broadcast([]string{"ann@example.com", "bob@example.com", "carol@example.com"}, EventNotificationNew, "hello")

	if got := len(p.received()); got != 1 {
		t.Fatalf("expected 1 message, got %d", got)
	}
}
