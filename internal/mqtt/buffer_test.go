package mqtt

import "testing"

func payloads(msgs []bufferedMsg) []byte {
	var out []byte
	for _, m := range msgs {
		out = append(out, m.payload[0])
	}
	return out
}

func TestOutboxEmptyDrain(t *testing.T) {
	o := newOutbox(10)
	if got := o.drain(); got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestOutboxKeepsOrder(t *testing.T) {
	o := newOutbox(10)
	for i := 0; i < 5; i++ {
		o.add(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	if o.len() != 5 {
		t.Fatalf("len: got %d, want 5", o.len())
	}

	got := payloads(o.drain())
	want := []byte{0, 1, 2, 3, 4}
	if string(got) != string(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if o.drain() != nil {
		t.Error("second drain should be empty")
	}
}

func TestOutboxDropsOldestWhenFull(t *testing.T) {
	o := newOutbox(5)
	for i := 0; i < 8; i++ {
		o.add(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	if o.len() != 5 {
		t.Fatalf("len: got %d, want 5", o.len())
	}
	if o.dropped != 3 {
		t.Errorf("dropped: got %d, want 3", o.dropped)
	}

	got := payloads(o.drain())
	want := []byte{3, 4, 5, 6, 7}
	if string(got) != string(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if o.dropped != 0 {
		t.Error("drain should reset the dropped count")
	}
}

func TestOutboxReuseAfterDrain(t *testing.T) {
	o := newOutbox(3)
	for i := 0; i < 4; i++ {
		o.add(bufferedMsg{payload: []byte{byte(i)}})
	}
	o.drain()

	o.add(bufferedMsg{payload: []byte{9}})
	got := payloads(o.drain())
	if len(got) != 1 || got[0] != 9 {
		t.Errorf("got %v, want [9]", got)
	}
}
