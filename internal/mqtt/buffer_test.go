package mqtt

import "testing"

func TestBacklogEmptyDrain(t *testing.T) {
	b := newBacklog(10)
	if got := b.drain(); got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestBacklogPushAndDrain(t *testing.T) {
	b := newBacklog(10)
	for i := 0; i < 5; i++ {
		b.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	if b.len() != 5 {
		t.Fatalf("len: got %d, want 5", b.len())
	}

	got := b.drain()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	if b.len() != 0 {
		t.Errorf("len after drain: got %d, want 0", b.len())
	}
	if got2 := b.drain(); got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestBacklogDropsOldestWhenFull(t *testing.T) {
	b := newBacklog(3)
	for i := 0; i < 5; i++ {
		b.push(bufferedMsg{payload: []byte{byte(i)}})
	}
	if b.dropped != 2 {
		t.Errorf("dropped: got %d, want 2", b.dropped)
	}

	got := b.drain()
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	for i, want := range []byte{2, 3, 4} {
		if got[i].payload[0] != want {
			t.Errorf("item %d: got %d, want %d", i, got[i].payload[0], want)
		}
	}
	if b.dropped != 0 {
		t.Error("drain should reset the drop counter")
	}
}

func TestBacklogPreservesFields(t *testing.T) {
	b := newBacklog(2)
	b.push(bufferedMsg{topic: TopicSystem, payload: []byte("x"), qos: 1, retained: true})

	got := b.drain()
	if got[0].topic != TopicSystem || got[0].qos != 1 || !got[0].retained {
		t.Errorf("fields not preserved: %+v", got[0])
	}
}
