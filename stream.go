package tilegemm

import (
	"context"
	"sync"
)

// Stream represents an ordered sequence of launches that execute
// asynchronously. Launches within a stream run in submission order;
// launches in different streams may run concurrently.
type Stream struct {
	launcher *Launcher
	tasks    chan func()
	done     chan struct{}

	// sendMu orders submissions and keeps Close from closing tasks under
	// a pending send
	sendMu sync.Mutex
	closed bool

	// submitted and completed count launches in queue order; idle is
	// signalled on every completion
	mu        sync.Mutex
	idle      *sync.Cond
	submitted uint64
	completed uint64
	err       error
}

// NewStream creates a stream that submits to launcher. A nil launcher uses
// the package default.
func NewStream(launcher *Launcher) *Stream {
	if launcher == nil {
		launcher = defaultLauncher
	}
	s := &Stream{
		launcher: launcher,
		tasks:    make(chan func(), 64),
		done:     make(chan struct{}),
	}
	s.idle = sync.NewCond(&s.mu)
	go s.worker()
	return s
}

func (s *Stream) worker() {
	for task := range s.tasks {
		task()
		s.mu.Lock()
		s.completed++
		s.idle.Broadcast()
		s.mu.Unlock()
	}
	close(s.done)
}

// Launch queues plan for execution after everything already submitted.
// Validation errors surface from Synchronize like execution errors. Once a
// launch has failed, later launches in the stream are skipped. Launch may
// be called from several goroutines; concurrent calls are queued in the
// order they acquire the stream.
func (s *Stream) Launch(ctx context.Context, plan *ExecutionPlan, ops Operands, workspace []byte) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closed {
		panic("tilegemm: Launch on closed stream")
	}
	s.mu.Lock()
	s.submitted++
	s.mu.Unlock()
	s.tasks <- func() {
		if s.Err() != nil {
			return
		}
		if err := s.launcher.Launch(ctx, plan, ops, workspace); err != nil {
			s.mu.Lock()
			if s.err == nil {
				s.err = err
			}
			s.mu.Unlock()
		}
	}
}

// Err returns the first launch error seen so far without waiting
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Synchronize waits for every launch submitted before the call and returns
// the first error. Launches submitted while it waits are not waited for.
func (s *Stream) Synchronize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for target := s.submitted; s.completed < target; {
		s.idle.Wait()
	}
	return s.err
}

// Close waits for pending launches and stops the stream worker
func (s *Stream) Close() error {
	s.sendMu.Lock()
	if s.closed {
		s.sendMu.Unlock()
		return s.Err()
	}
	s.closed = true
	close(s.tasks)
	s.sendMu.Unlock()

	<-s.done
	return s.Err()
}
