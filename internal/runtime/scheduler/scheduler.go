// Package scheduler implements §5's cooperative concurrency model: each
// spirit is a single logical executor running on one goroutine at a time,
// pulled from a panjf2000/ants/v2 pool so the host reuses OS threads
// instead of spawning one per spirit. There is no pre-emption — a spirit
// only yields at vudo_sleep or a synchronous vudo_recv wait, and otherwise
// runs to completion, a panic, or a host-initiated unload.
package scheduler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/vudoc/vudoc/internal/hostabi"
)

// Outcome records how one spirit's run ended.
type Outcome struct {
	SpiritID string
	Panic    *hostabi.SpiritPanic // non-nil if the spirit called vudo_panic or a failed vudo_assert
	Err      error                // any other host-side failure (e.g. a trap)
}

// Scheduler runs spirit entry points cooperatively over a bounded pool.
type Scheduler struct {
	pool *ants.Pool

	mu       sync.Mutex
	wg       sync.WaitGroup
	outcomes []Outcome
}

// New creates a Scheduler with poolSize concurrently-running spirits; a
// spirit beyond that count queues until a slot frees, rather than
// spawning an unbounded number of goroutines.
func New(poolSize int) (*Scheduler, error) {
	pool, err := ants.NewPool(poolSize, ants.WithPanicHandler(func(r interface{}) {
		// ants' own panic handler only prevents a wayward goroutine from
		// crashing the process; Run's recover below is what turns the
		// panic into a structured Outcome for the caller.
		fmt.Printf("scheduler: unrecovered panic in pool goroutine: %v\n", r)
	}))
	if err != nil {
		return nil, err
	}
	return &Scheduler{pool: pool}, nil
}

// Run submits one spirit's entry point to the pool. entry is expected to
// return a *hostabi.SpiritPanic (via errors.As) when the spirit's
// vudo_panic/vudo_assert fired; any other error is a host-side failure.
// Run does not block; call Wait to block until every submitted spirit has
// finished.
func (s *Scheduler) Run(spiritID string, entry func() error) error {
	s.wg.Add(1)
	err := s.pool.Submit(func() {
		defer s.wg.Done()
		outcome := Outcome{SpiritID: spiritID}
		func() {
			defer func() {
				if r := recover(); r != nil {
					outcome.Err = fmt.Errorf("spirit %s: unrecovered panic: %v", spiritID, r)
				}
			}()
			if err := entry(); err != nil {
				var sp *hostabi.SpiritPanic
				if errors.As(err, &sp) {
					outcome.Panic = sp
				} else {
					outcome.Err = err
				}
			}
		}()
		s.mu.Lock()
		s.outcomes = append(s.outcomes, outcome)
		s.mu.Unlock()
	})
	if err != nil {
		// The closure above never ran, so it never calls wg.Done(); undo
		// the Add here or Wait would block forever on a submission that
		// was rejected outright (e.g. the pool is already Release()d).
		s.wg.Done()
	}
	return err
}

// Wait blocks until every spirit submitted via Run has finished, then
// returns every Outcome in completion order.
func (s *Scheduler) Wait() []Outcome {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Outcome, len(s.outcomes))
	copy(out, s.outcomes)
	return out
}

// Running reports the number of spirits currently executing.
func (s *Scheduler) Running() int { return s.pool.Running() }

// Release shuts the pool down. No further Run calls are valid afterward.
func (s *Scheduler) Release() { s.pool.Release() }
