package mqtt

import "github.com/rs/zerolog/log"

// bufferedMsg is a serialized message waiting for a broker connection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox keeps the most recent messages queued while disconnected, dropping
// the oldest once full. Callers synchronize.
type outbox struct {
	slots   []bufferedMsg
	first   int // index of the oldest message
	size    int
	dropped int // messages lost since the last drain
}

func newOutbox(capacity int) *outbox {
	return &outbox{slots: make([]bufferedMsg, capacity)}
}

func (o *outbox) add(msg bufferedMsg) {
	capacity := len(o.slots)
	if o.size < capacity {
		o.slots[(o.first+o.size)%capacity] = msg
		o.size++
		return
	}
	if o.dropped == 0 {
		log.Warn().Int("capacity", capacity).Msg("mqtt outbox full, dropping oldest")
	}
	o.dropped++
	o.slots[o.first] = msg
	o.first = (o.first + 1) % capacity
}

// drain returns the queued messages oldest first and empties the outbox.
func (o *outbox) drain() []bufferedMsg {
	if o.size == 0 {
		return nil
	}
	out := make([]bufferedMsg, 0, o.size)
	for i := 0; i < o.size; i++ {
		out = append(out, o.slots[(o.first+i)%len(o.slots)])
	}
	if o.dropped > 0 {
		log.Warn().Int("dropped", o.dropped).Msg("mqtt messages lost while disconnected")
	}
	o.first, o.size, o.dropped = 0, 0, 0
	return out
}

func (o *outbox) len() int {
	return o.size
}
