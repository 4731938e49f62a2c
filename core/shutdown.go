package core

import (
	"sync"
	"sync/atomic"
)

// shutdownSignal is the capacity-1 channel shared by every ShutdownHandle
// clone and the MessageChannel.
type shutdownSignal struct {
	mu      sync.Mutex
	ch      chan struct{}
	handles int
	closed  bool
}

func newShutdownSignal() *shutdownSignal {
	return &shutdownSignal{
		ch:      make(chan struct{}, 1),
		handles: 1,
	}
}

func (s *shutdownSignal) send() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *shutdownSignal) addHandle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.handles++
	return true
}

func (s *shutdownSignal) dropHandle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles--
	if s.handles == 0 {
		s.closed = true
		close(s.ch)
	}
}

// ShutdownHandle asks a running MessageChannel to stop.
// Clones share the same underlying signal.
type ShutdownHandle struct {
	sig    *shutdownSignal
	closed atomic.Bool
	once   sync.Once
}

// Shutdown signals the channel to stop. It never blocks and may be called
// any number of times from any goroutine; only the first signal matters.
// Shutdown on a closed handle does nothing.
func (h *ShutdownHandle) Shutdown() {
	if h.closed.Load() {
		return
	}
	h.sig.send()
}

// Clone returns a new handle sharing the same signal.
func (h *ShutdownHandle) Clone() *ShutdownHandle {
	c := &ShutdownHandle{sig: h.sig}
	if h.closed.Load() || !h.sig.addHandle() {
		c.closed.Store(true)
	}
	return c
}

// Close releases this handle. When every handle has been closed without a
// shutdown being signalled, the channel stops with ErrListenForShutdown.
func (h *ShutdownHandle) Close() {
	h.once.Do(func() {
		if h.closed.Swap(true) {
			return
		}
		h.sig.dropHandle()
	})
}
