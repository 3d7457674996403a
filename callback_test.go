package querystate_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/zoobzio/querystate"
	"github.com/zoobzio/querystate/json"
	qst "github.com/zoobzio/querystate/testing"
)

func newCallbackSerializer(t *testing.T) *querystate.Serializer[qst.TaggedRoute] {
	t.Helper()
	s, err := querystate.NewSerializer[qst.TaggedRoute](
		json.New(),
		querystate.WithCallbackRegistry(querystate.NewCallbackRegistry()),
	)
	if err != nil {
		t.Fatalf("NewSerializer() error: %v", err)
	}
	return s
}

func TestRegister_SetsFirstID(t *testing.T) {
	s := newCallbackSerializer(t)
	route := &qst.TaggedRoute{}

	s.Register(route, func(context.Context, ...any) error { return nil })

	if route.Done != "1" {
		t.Errorf("first callback id = %q, want %q", route.Done, "1")
	}
}

func TestRegister_IDsAreBase16(t *testing.T) {
	s := newCallbackSerializer(t)

	var route qst.TaggedRoute
	for i := 0; i < 15; i++ {
		s.Register(&route, func(context.Context, ...any) error { return nil })
	}
	if route.Done != "f" {
		t.Errorf("15th id = %q, want %q", route.Done, "f")
	}

	s.Register(&route, func(context.Context, ...any) error { return nil })
	if route.Done != "10" {
		t.Errorf("16th id = %q, want %q", route.Done, "10")
	}
}

func TestRegister_ReturnsSameInstance(t *testing.T) {
	s := newCallbackSerializer(t)
	route := &qst.TaggedRoute{}

	got := s.Register(route, func(context.Context, ...any) error { return nil })
	if got != route {
		t.Error("Register() should return the instance it was called on")
	}
}

func TestInvoke_RunsAndClears(t *testing.T) {
	s := newCallbackSerializer(t)
	route := &qst.TaggedRoute{}

	ran := false
	s.Register(route, func(ctx context.Context, args ...any) error {
		ran = true
		return nil
	})

	s.Invoke(context.Background(), route)

	if !ran {
		t.Error("Invoke() should run the registered callback")
	}
	if route.Done != "" {
		t.Errorf("carrier field = %q, want cleared", route.Done)
	}
	if s.HasPending(route) {
		t.Error("HasPending() should be false after Invoke")
	}
}

func TestInvoke_ForwardsArgs(t *testing.T) {
	s := newCallbackSerializer(t)
	route := &qst.TaggedRoute{}

	var got []any
	s.Register(route, func(ctx context.Context, args ...any) error {
		got = args
		return nil
	})

	s.Invoke(context.Background(), route, "a", 2)

	if len(got) != 2 || got[0] != "a" || got[1] != 2 {
		t.Errorf("callback args = %v, want [a 2]", got)
	}
}

func TestInvoke_SecondCallIsNoop(t *testing.T) {
	s := newCallbackSerializer(t)
	route := &qst.TaggedRoute{}

	count := 0
	s.Register(route, func(context.Context, ...any) error {
		count++
		return nil
	})

	s.Invoke(context.Background(), route)
	s.Invoke(context.Background(), route)

	if count != 1 {
		t.Errorf("callback ran %d times, want exactly once", count)
	}
}

func TestInvoke_UnknownIDIsNoop(t *testing.T) {
	s := newCallbackSerializer(t)
	route := &qst.TaggedRoute{Done: "deadbeef"}

	// Must not panic or error; the id is treated as already consumed.
	s.Invoke(context.Background(), route)
}

func TestInvoke_AbsentIDIsNoop(t *testing.T) {
	s := newCallbackSerializer(t)
	s.Invoke(context.Background(), &qst.TaggedRoute{})
	s.Invoke(context.Background(), nil)
}

func TestInvoke_ErrorSwallowedCleanupRuns(t *testing.T) {
	s := newCallbackSerializer(t)
	route := &qst.TaggedRoute{}

	s.Register(route, func(context.Context, ...any) error {
		return errors.New("boom")
	})

	s.Invoke(context.Background(), route)

	if route.Done != "" {
		t.Errorf("carrier field = %q, want cleared after callback failure", route.Done)
	}
}

func TestInvoke_PanicSwallowedCleanupRuns(t *testing.T) {
	s := newCallbackSerializer(t)
	route := &qst.TaggedRoute{}

	s.Register(route, func(context.Context, ...any) error {
		panic("boom")
	})

	s.Invoke(context.Background(), route)

	if route.Done != "" {
		t.Errorf("carrier field = %q, want cleared after callback panic", route.Done)
	}
}

func TestInvoke_PendingDuringCallback(t *testing.T) {
	s := newCallbackSerializer(t)
	route := &qst.TaggedRoute{}

	pendingInside := false
	s.Register(route, func(context.Context, ...any) error {
		pendingInside = s.HasPending(route)
		return nil
	})

	s.Invoke(context.Background(), route)

	if !pendingInside {
		t.Error("carrier should still be set while the callback runs")
	}
}

func TestInvoke_ReregisterDuringCallbackKeepsFreshID(t *testing.T) {
	s := newCallbackSerializer(t)
	route := &qst.TaggedRoute{}

	s.Register(route, func(context.Context, ...any) error {
		s.Register(route, func(context.Context, ...any) error { return nil })
		return nil
	})

	s.Invoke(context.Background(), route)

	if route.Done != "2" {
		t.Errorf("carrier = %q, want fresh id %q to survive cleanup", route.Done, "2")
	}
	if !s.HasPending(route) {
		t.Error("re-registered callback should stay pending")
	}
}

func TestHasPending(t *testing.T) {
	s := newCallbackSerializer(t)
	route := &qst.TaggedRoute{}

	if s.HasPending(route) {
		t.Error("fresh instance should have no pending callback")
	}

	s.Register(route, func(context.Context, ...any) error { return nil })
	if !s.HasPending(route) {
		t.Error("HasPending() should be true after Register")
	}

	if s.HasPending(nil) {
		t.Error("HasPending(nil) should be false")
	}
}

func TestCallbackIDTravelsThroughQuery(t *testing.T) {
	s := newCallbackSerializer(t)
	route := &qst.TaggedRoute{ID: "7"}

	ran := false
	s.Register(route, func(context.Context, ...any) error {
		ran = true
		return nil
	})

	params, err := s.Serialize(context.Background(), route)
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	if params["cb"] != route.Done {
		t.Fatalf("callback id %q should travel as a simple key, got %v", route.Done, params)
	}

	restored, err := s.Deserialize(context.Background(), params)
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}

	s.Invoke(context.Background(), restored)
	if !ran {
		t.Error("callback should be reachable from a deserialized instance")
	}
}

func TestRegister_Concurrent(t *testing.T) {
	s := newCallbackSerializer(t)

	const n = 100
	ids := make([]string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			route := &qst.TaggedRoute{}
			s.Register(route, func(context.Context, ...any) error { return nil })
			ids[i] = route.Done
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, id := range ids {
		if id == "" {
			t.Fatal("concurrent Register left an empty id")
		}
		if seen[id] {
			t.Fatalf("id %q issued twice", id)
		}
		seen[id] = true
	}
}

func TestInvoke_ConcurrentSameID(t *testing.T) {
	s := newCallbackSerializer(t)
	route := &qst.TaggedRoute{}

	count := 0
	var mu sync.Mutex
	s.Register(route, func(context.Context, ...any) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})
	id := route.Done

	// Each goroutine holds its own deserialized copy carrying the same id.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inst := &qst.TaggedRoute{Done: id}
			s.Invoke(context.Background(), inst)
		}()
	}
	wg.Wait()

	if count != 1 {
		t.Errorf("callback ran %d times under concurrent Invoke, want exactly once", count)
	}
}
