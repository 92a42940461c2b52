package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/graph"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine's limit.
	ErrTimeout = errors.New("evaluation timed out")

	// ErrSuperseded is returned when a newer evaluation started on the
	// same engine before this one finished.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// evalResult carries one sandbox run back to the waiting caller.
type evalResult struct {
	graph  *graph.SceneGraph
	errors []EvalError
	err    error
}

// begin opens a new generation and returns it with the limit it runs
// under. Results of every older generation are stale from here on.
func (e *Engine) begin() (uint64, time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	if e.timeout <= 0 {
		return e.generation, EvalTimeout
	}
	return e.generation, e.timeout
}

// current reports whether gen is still the latest generation.
func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}

// spawn evaluates source on its own goroutine. The graph is stamped with
// gen so callers can tell scenes apart; interpreter panics come back as
// fatal errors.
func (e *Engine) spawn(source string, gen uint64) <-chan evalResult {
	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		g, evalErrs, err := e.evaluate(source)
		if g != nil {
			g.Version = gen
		}
		ch <- evalResult{graph: g, errors: evalErrs, err: err}
	}()
	return ch
}

// await waits up to limit for generation gen. On timeout
// the goroutine is left running; its buffered send lets it finish and the
// result is dropped.
func (e *Engine) await(ch <-chan evalResult, gen uint64, limit time.Duration) (*graph.SceneGraph, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !e.current(gen) {
			return nil, nil, fmt.Errorf("generation %d: %w", gen, ErrSuperseded)
		}
		return res.graph, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, limit)
	}
}
