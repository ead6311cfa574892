package duel

import "sync"

// Transport carries protocol messages to and from the peer.
type Transport interface {
	// Send queues msg for the peer. Must be non-blocking; delivery is best effort.
	Send(msg Message)

	// Messages returns the ordered inbound stream. It is closed when the
	// stream ends.
	Messages() <-chan Message

	// Close ends the session gracefully. Safe to call multiple times.
	Close() error
}

// DefaultPipeBuffer is the per-direction buffer of a Pipe.
const DefaultPipeBuffer = 16

// pipeLink is the state shared by both ends of a Pipe.
type pipeLink struct {
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	aToB   chan Message
	bToA   chan Message
}

// PipeEnd is one side of an in-memory Transport.
type PipeEnd struct {
	link *pipeLink
	in   chan Message
	out  chan Message
}

// Pipe creates a connected pair of in-memory transports. Closing either
// end ends the stream for both.
func Pipe(buffer int) (*PipeEnd, *PipeEnd) {
	if buffer < 1 {
		buffer = DefaultPipeBuffer
	}
	link := &pipeLink{
		done: make(chan struct{}),
		aToB: make(chan Message, buffer),
		bToA: make(chan Message, buffer),
	}
	a := &PipeEnd{link: link, in: link.bToA, out: link.aToB}
	b := &PipeEnd{link: link, in: link.aToB, out: link.bToA}
	return a, b
}

// Send queues msg for the other end.
// If the buffer is full, the oldest queued message is dropped.
func (p *PipeEnd) Send(msg Message) {
	p.link.mu.RLock()
	defer p.link.mu.RUnlock()

	if p.link.closed {
		return
	}

	pushDropOldest(p.out, msg)
}

// Messages returns the inbound stream.
func (p *PipeEnd) Messages() <-chan Message {
	return p.in
}

// Done returns a channel that closes when the pipe is closed.
func (p *PipeEnd) Done() <-chan struct{} {
	return p.link.done
}

// Close closes both directions. Queued messages stay readable.
func (p *PipeEnd) Close() error {
	p.link.mu.Lock()
	defer p.link.mu.Unlock()

	if p.link.closed {
		return nil
	}
	p.link.closed = true
	close(p.link.done)
	close(p.link.aToB)
	close(p.link.bToA)
	return nil
}
