package idgen

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid"
)

func TestULIDGenerator_Monotonic(t *testing.T) {
	fixed := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	g := newULIDGenerator(bytes.NewReader(bytes.Repeat([]byte{0x42}, 4096)), func() time.Time { return fixed })

	var prev string
	for i := 0; i < 100; i++ {
		id := g.NewID()
		if !Valid(id) {
			t.Fatalf("NewID() = %q, not a valid ULID", id)
		}
		if id <= prev {
			t.Fatalf("NewID() = %q, want greater than %q", id, prev)
		}
		prev = id
	}
}

func TestULIDGenerator_ClockStepsBack(t *testing.T) {
	times := []time.Time{
		time.Date(2025, 8, 1, 12, 0, 1, 0, time.UTC),
		time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	i := 0
	g := newULIDGenerator(bytes.NewReader(bytes.Repeat([]byte{0x01}, 4096)), func() time.Time {
		tm := times[i]
		i++
		return tm
	})

	first := g.NewID()
	second := g.NewID()
	if second <= first {
		t.Errorf("second id %q should sort after %q", second, first)
	}

	id, err := ulid.ParseStrict(second)
	if err != nil {
		t.Fatalf("ParseStrict() error = %v", err)
	}
	if ts := ulid.Time(id.Time()); !ts.Equal(times[0]) {
		t.Errorf("second id timestamp = %v, want %v", ts, times[0])
	}
}

func TestULIDGenerator_Concurrent(t *testing.T) {
	g := NewULIDGenerator()

	const workers, perWorker = 8, 200
	ids := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ids <- g.NewID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	var all []string
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
		all = append(all, id)
	}
	if len(all) != workers*perWorker {
		t.Fatalf("got %d ids, want %d", len(all), workers*perWorker)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{name: "valid", id: "01ARZ3NDEKTSV4RRFFQ69G5FAV", want: true},
		{name: "too short", id: "01ARZ3NDEK", want: false},
		{name: "invalid character", id: "01ARZ3NDEKTSV4RRFFQ69G5FAU!", want: false},
		{name: "hex digest", id: "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", want: false},
		{name: "empty", id: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.id); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestUUIDRoundTrip(t *testing.T) {
	id := NewULIDGenerator().NewID()

	u, err := UUID(id)
	if err != nil {
		t.Fatalf("UUID() error = %v", err)
	}
	if got := ulid.ULID(u).String(); got != id {
		t.Errorf("UUID(%q) = %s, which holds %q", id, u, got)
	}

	if _, err := UUID("not-a-ulid"); err == nil {
		t.Error("UUID() expected error for invalid input")
	}
}
