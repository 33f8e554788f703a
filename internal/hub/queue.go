package hub

import (
	"sync"

	"github.com/muurk/controlpet/internal/protocol"
)

// outboundQueue is the FIFO of messages waiting for the writer. It never
// blocks the caller; the writer drains it in order.
type outboundQueue struct {
	mu     sync.Mutex
	items  []protocol.Message
	notify chan struct{}

	// pending counts messages pushed but not yet written
	pending int
	idle    []chan struct{}
}

func newOutboundQueue() *outboundQueue {
	return &outboundQueue{notify: make(chan struct{}, 1)}
}

func (q *outboundQueue) push(msg protocol.Message) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.pending++
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// pop blocks until a message is available or done is closed
func (q *outboundQueue) pop(done <-chan struct{}) (protocol.Message, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items[0] = protocol.Message{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return msg, true
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-done:
			return protocol.Message{}, false
		}
	}
}

// sent is called by the writer once a popped message is on the wire
func (q *outboundQueue) sent() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending > 0 {
		q.pending--
	}
	if q.pending == 0 {
		for _, ch := range q.idle {
			close(ch)
		}
		q.idle = nil
	}
}

// drained returns a channel that is closed once every pushed message has
// been written
func (q *outboundQueue) drained() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()

	ch := make(chan struct{})
	if q.pending == 0 {
		close(ch)
		return ch
	}
	q.idle = append(q.idle, ch)
	return ch
}

func (q *outboundQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
