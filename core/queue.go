package core

import (
	"sync"
	"sync/atomic"
)

type popState int

const (
	popOK popState = iota
	popEmpty
	popClosed
)

// queue is an unbounded FIFO with many producers and a single consumer.
// Producers never block; ready carries at most one pending wakeup.
type queue struct {
	mu      sync.Mutex
	items   []ReceivedMessage
	head    int
	senders int
	closed  bool // every Sender was closed
	stopped bool // the consumer is gone
	ready   chan struct{}
}

func newQueue() *queue {
	return &queue{
		senders: 1,
		ready:   make(chan struct{}, 1),
	}
}

func (q *queue) wake() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *queue) push(msg ReceivedMessage) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return ErrChannelClosed
	}
	q.items = append(q.items, msg)
	q.mu.Unlock()
	q.wake()
	return nil
}

func (q *queue) pop() (ReceivedMessage, popState) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head < len(q.items) {
		msg := q.items[q.head]
		q.items[q.head] = ReceivedMessage{}
		q.head++
		if q.head == len(q.items) {
			q.items = q.items[:0]
			q.head = 0
		}
		return msg, popOK
	}
	if q.closed {
		return ReceivedMessage{}, popClosed
	}
	return ReceivedMessage{}, popEmpty
}

func (q *queue) addSender() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.senders++
	return true
}

func (q *queue) dropSender() {
	q.mu.Lock()
	q.senders--
	if q.senders == 0 {
		q.closed = true
	}
	q.mu.Unlock()
	q.wake()
}

func (q *queue) stop() {
	q.mu.Lock()
	q.stopped = true
	q.items = nil
	q.head = 0
	q.mu.Unlock()
}

// Sender pushes received publications into a MessageChannel.
// It is safe for concurrent use and Send never blocks.
//
// Every Sender obtained from NewMessageChannel or Clone must be closed
// once its owner stops producing; when the last one is closed the
// channel stops with ErrListenForIncomingPublications.
type Sender struct {
	q      *queue
	closed atomic.Bool
	once   sync.Once
}

// Send enqueues msg.
func (s *Sender) Send(msg ReceivedMessage) error {
	if s.closed.Load() {
		return ErrSenderClosed
	}
	return s.q.push(msg)
}

// Clone returns a new Sender feeding the same channel.
// Cloning a closed Sender yields a closed Sender.
func (s *Sender) Clone() *Sender {
	c := &Sender{q: s.q}
	if s.closed.Load() || !s.q.addSender() {
		c.closed.Store(true)
	}
	return c
}

// Close releases this Sender. It is idempotent.
func (s *Sender) Close() {
	s.once.Do(func() {
		if s.closed.Swap(true) {
			return
		}
		s.q.dropSender()
	})
}
