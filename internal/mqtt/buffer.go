package mqtt

import "log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog is a bounded FIFO of messages queued while disconnected. When
// full, the oldest message is dropped: a fresh fault alert matters more than
// a stale one. Not safe for concurrent use; the caller must synchronize.
type backlog struct {
	msgs    []bufferedMsg
	limit   int
	dropped int // dropped since last drain
}

func newBacklog(limit int) *backlog {
	return &backlog{limit: limit}
}

func (b *backlog) push(msg bufferedMsg) {
	if len(b.msgs) >= b.limit {
		if b.dropped == 0 {
			log.Printf("mqtt: backlog full (%d messages), dropping oldest", b.limit)
		}
		b.dropped++
		b.msgs = b.msgs[1:]
	}
	b.msgs = append(b.msgs, msg)
}

// drain returns queued messages oldest first and empties the backlog.
func (b *backlog) drain() []bufferedMsg {
	if len(b.msgs) == 0 {
		return nil
	}
	if b.dropped > 0 {
		log.Printf("mqtt: %d messages were dropped while disconnected", b.dropped)
	}
	out := b.msgs
	b.msgs = nil
	b.dropped = 0
	return out
}

func (b *backlog) len() int {
	return len(b.msgs)
}
