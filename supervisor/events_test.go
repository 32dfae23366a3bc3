package supervisor

import "testing"

func TestOnRejectsUnknownEvent(t *testing.T) {
	b := newEventBus()
	_, err := b.On("not-a-real-event", DataListener(func(string, DataChunk) {}))
	if err == nil {
		t.Fatalf("expected error for unknown event name")
	}
}

func TestOnRejectsMismatchedListenerType(t *testing.T) {
	b := newEventBus()
	_, err := b.On(EventExit, DataListener(func(string, DataChunk) {}))
	if err == nil {
		t.Fatalf("expected error for mismatched listener type")
	}
}

func TestEmitDataInvokesRegisteredListener(t *testing.T) {
	b := newEventBus()
	var gotID string
	var gotChunk DataChunk
	sub, err := b.On(EventRawPTYData, DataListener(func(sessionID string, chunk DataChunk) {
		gotID = sessionID
		gotChunk = chunk
	}))
	if err != nil {
		t.Fatalf("On returned error: %v", err)
	}
	defer sub.Unsubscribe()

	b.emitData("sess-1", DataChunk{Data: []byte("hi")})

	if gotID != "sess-1" || string(gotChunk.Data) != "hi" {
		t.Fatalf("listener did not receive expected event, got id=%q data=%q", gotID, gotChunk.Data)
	}
}

func TestUnsubscribeStopsFurtherDelivery(t *testing.T) {
	b := newEventBus()
	calls := 0
	sub, err := b.On(EventExit, ExitListener(func(string, int, string) { calls++ }))
	if err != nil {
		t.Fatalf("On returned error: %v", err)
	}

	b.emitExit("sess-1", 0, "")
	sub.Unsubscribe()
	b.emitExit("sess-1", 0, "")

	if calls != 1 {
		t.Fatalf("expected exactly 1 call before unsubscribe, got %d", calls)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := newEventBus()
	sub, err := b.On(EventNameChanged, NameChangedListener(func(string, string) {}))
	if err != nil {
		t.Fatalf("On returned error: %v", err)
	}
	sub.Unsubscribe()
	sub.Unsubscribe()
}

func TestMultipleListenersOnSameEventAllFire(t *testing.T) {
	b := newEventBus()
	var a, c bool
	sub1, _ := b.On(EventError, ErrorListener(func(string, error) { a = true }))
	sub2, _ := b.On(EventError, ErrorListener(func(string, error) { c = true }))
	defer sub1.Unsubscribe()
	defer sub2.Unsubscribe()

	b.emitError("sess-1", errSessionClosed)

	if !a || !c {
		t.Fatalf("expected both listeners to fire, got a=%v c=%v", a, c)
	}
}

func TestNilSubscriptionUnsubscribeIsSafe(t *testing.T) {
	var sub *Subscription
	sub.Unsubscribe()
}
