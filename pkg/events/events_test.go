package events

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// recordingSink captures every published event.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
	ids    []uuid.UUID
}

func (s *recordingSink) Publish(requestID uuid.UUID, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, requestID)
	s.events = append(s.events, ev)
}

func TestLogAppendAndSnapshot(t *testing.T) {
	l := NewLog()
	l.Append(Event{Type: TypeIntentClassified})
	l.Append(Event{Type: TypeCompleted})

	snap := l.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot len = %d, want 2", len(snap))
	}
	if snap[0].Type != TypeIntentClassified || snap[1].Type != TypeCompleted {
		t.Errorf("Snapshot order wrong: %v", snap)
	}

	// Snapshot is a copy; later appends must not show up in it.
	l.Append(Event{Type: TypeRetry})
	if len(snap) != 2 {
		t.Error("Snapshot mutated by later append")
	}
	if l.Len() != 3 {
		t.Errorf("Len = %d, want 3", l.Len())
	}
}

func TestLogConcurrentAppend(t *testing.T) {
	l := NewLog()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append(Event{Type: TypeValidation})
			l.Snapshot()
		}()
	}
	wg.Wait()
	if l.Len() != 50 {
		t.Errorf("Len = %d, want 50", l.Len())
	}
}

func TestEmitterDisabledIsNoop(t *testing.T) {
	l := NewLog()
	sink := &recordingSink{}
	e := NewEmitter(uuid.New(), time.Now(), l, sink, false)

	e.Emit(TypeIntentClassified, nil)
	e.Emit(TypeCompleted, nil)

	if l.Len() != 0 {
		t.Errorf("disabled emitter appended %d events", l.Len())
	}
	if len(sink.events) != 0 {
		t.Errorf("disabled emitter published %d events", len(sink.events))
	}
}

func TestEmitterNilReceiverIsNoop(t *testing.T) {
	var e *Emitter
	e.Emit(TypeCompleted, nil) // must not panic
}

func TestEmitterOffsetsMonotonic(t *testing.T) {
	l := NewLog()
	// start in the future so raw offsets would be negative without clamping
	e := NewEmitter(uuid.New(), time.Now().Add(time.Hour), l, nil, true)

	e.Emit(TypeIntentClassified, nil)
	e.Emit(TypeContextEnriched, nil)
	e.Emit(TypeCompleted, nil)

	snap := l.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("len = %d, want 3", len(snap))
	}
	var last int64
	for i, ev := range snap {
		if ev.OffsetMS < last {
			t.Errorf("offset %d decreased: %d after %d", i, ev.OffsetMS, last)
		}
		last = ev.OffsetMS
	}
}

func TestEmitterForwardsToSink(t *testing.T) {
	l := NewLog()
	sink := &recordingSink{}
	id := uuid.New()
	e := NewEmitter(id, time.Now(), l, sink, true)

	e.Emit(TypeDraftGenerated, map[string]any{"runes": 120})

	if len(sink.events) != 1 {
		t.Fatalf("sink received %d events, want 1", len(sink.events))
	}
	if sink.ids[0] != id {
		t.Errorf("sink request id = %s, want %s", sink.ids[0], id)
	}
	if sink.events[0].Type != TypeDraftGenerated {
		t.Errorf("sink event type = %s", sink.events[0].Type)
	}
	if sink.events[0].Payload["runes"] != 120 {
		t.Errorf("payload not forwarded: %v", sink.events[0].Payload)
	}
}
