// Package broker implements §4.7's message broker and §5's ordering
// guarantees: one FIFO inbox per registered spirit, delivered strictly in
// send order both per-(sender,receiver) pair and per receiver overall (§8
// invariant 6).
package broker

import (
	"sync"

	"github.com/gammazero/deque"
	"github.com/google/uuid"

	"github.com/vudoc/vudoc/internal/hostabi"
)

// Broker owns one deque.Deque per registered spirit identity. A deque
// gives O(1) push-back/pop-front, the ring-buffer shape a FIFO inbox
// needs; a plain slice would need to either leak (append-only) or pay
// O(n) on every pop (slice re-slicing from the front still holds the
// backing array).
type Broker struct {
	mu      sync.Mutex
	inboxes map[string]*deque.Deque[hostabi.Message]
}

// New creates an empty Broker.
func New() *Broker {
	return &Broker{inboxes: map[string]*deque.Deque[hostabi.Message]{}}
}

// Register creates id's inbox. Calling Register on an already-registered
// id is a no-op (idempotent registration, matching the teacher's Grant).
func (br *Broker) Register(id string) {
	br.mu.Lock()
	defer br.mu.Unlock()
	if _, ok := br.inboxes[id]; !ok {
		br.inboxes[id] = new(deque.Deque[hostabi.Message])
	}
}

// Unregister tears down id's inbox, draining and discarding all pending
// messages (§4.7: "drains and frees all pending messages").
func (br *Broker) Unregister(id string) {
	br.mu.Lock()
	defer br.mu.Unlock()
	delete(br.inboxes, id)
}

// Send implements hostabi.Broker: pushes a copy of msg onto target's
// inbox. A target with no registered inbox is NotFound, not a silent
// drop — §4.6's result-code table distinguishes the two.
func (br *Broker) Send(sender, target string, msg hostabi.Message) hostabi.ResultCode {
	br.mu.Lock()
	defer br.mu.Unlock()
	q, ok := br.inboxes[target]
	if !ok {
		return hostabi.NotFound
	}
	msg.Sender = sender
	q.PushBack(msg)
	return hostabi.Ok
}

// Broadcast implements hostabi.Broker: one copy to every other registered
// spirit. No receivers still succeeds (§4.6 primitive #14).
func (br *Broker) Broadcast(sender string, msg hostabi.Message) (hostabi.ResultCode, int) {
	br.mu.Lock()
	defer br.mu.Unlock()
	n := 0
	for id, q := range br.inboxes {
		if id == sender {
			continue
		}
		m := msg
		m.Sender = sender
		q.PushBack(m)
		n++
	}
	return hostabi.Ok, n
}

// Peek implements hostabi.Broker: the head of receiver's inbox without
// dequeuing it, so Recv can apply the buffer-too-small contract (§8
// invariant 7) before committing to a pop.
func (br *Broker) Peek(receiver string) (hostabi.Message, bool) {
	br.mu.Lock()
	defer br.mu.Unlock()
	q, ok := br.inboxes[receiver]
	if !ok || q.Len() == 0 {
		return hostabi.Message{}, false
	}
	return q.Front(), true
}

// Pop implements hostabi.Broker: dequeues the head of receiver's inbox,
// matching a prior Peek.
func (br *Broker) Pop(receiver string) {
	br.mu.Lock()
	defer br.mu.Unlock()
	q, ok := br.inboxes[receiver]
	if !ok || q.Len() == 0 {
		return
	}
	q.PopFront()
}

// Pending implements hostabi.Broker.
func (br *Broker) Pending(receiver string) int32 {
	br.mu.Lock()
	defer br.mu.Unlock()
	q, ok := br.inboxes[receiver]
	if !ok {
		return 0
	}
	return int32(q.Len())
}

// NewMessageID mints a message identity distinct from the sender/receiver
// identities, for a host-side message registry (e.g. a future
// vudo_free_message that tracks host-lent pointers rather than copies).
func NewMessageID() string { return uuid.NewString() }
