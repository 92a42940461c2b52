// Package engine evaluates scene scripts. It wraps zygomys in a sandboxed
// environment and produces a graph.SceneGraph from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/config"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/graph"
)

var log = config.NamedLogger("engine")

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	NodeID  graph.NodeID
}

// EvalResult bundles the full output of an evaluation. Graph is nil
// whenever Errors is non-empty.
type EvalResult struct {
	Graph    *graph.SceneGraph
	Errors   []EvalError
	Warnings []EvalWarning
}

// OK reports whether the evaluation produced a usable graph.
func (r *EvalResult) OK() bool {
	return r.Graph != nil && len(r.Errors) == 0
}

// Engine wraps the zygomys interpreter for scene evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewEngine creates a new Engine with the default EvalTimeout.
func NewEngine() *Engine {
	return &Engine{timeout: EvalTimeout}
}

// SetTimeout changes the limit for later evaluations. Non-positive values
// restore EvalTimeout.
func (e *Engine) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = EvalTimeout
	}
	e.mu.Lock()
	e.timeout = d
	e.mu.Unlock()
}

// Evaluate takes Lisp source code and produces a new SceneGraph.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns graph + nil errors + nil error
//   - On parse/eval failure: returns nil graph + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*graph.SceneGraph, []EvalError, error) {
	gen, limit := e.begin()
	g, evalErrs, err := e.await(e.spawn(source, gen), gen, limit)
	switch {
	case err != nil:
		log.Warnf("evaluation %d failed: %v", gen, err)
	case len(evalErrs) > 0:
		log.Debugf("evaluation %d: %d errors", gen, len(evalErrs))
	default:
		log.Debugf("evaluation %d: %d nodes, %d roots", gen, g.NodeCount(), len(g.Roots))
	}
	return g, evalErrs, err
}

// Run evaluates source and validates the resulting graph with
// graph.ValidateAll. Blocking findings are reported as errors and drop the
// graph; structural and geometric advisories become warnings. The error
// return is reserved for fatal failures.
func (e *Engine) Run(source string) (*EvalResult, error) {
	g, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return nil, err
	}

	res := &EvalResult{Errors: evalErrs}
	if len(evalErrs) > 0 {
		return res, nil
	}

	vr := graph.ValidateAll(g)
	for _, v := range vr.Errors {
		res.Errors = append(res.Errors, EvalError{Message: v.Error()})
	}
	for _, w := range vr.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Message: w.Message, NodeID: w.NodeID})
	}
	if len(res.Errors) == 0 {
		res.Graph = g
	}
	return res, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*graph.SceneGraph, []EvalError, error) {
	// Empty source is a valid program that produces an empty graph.
	if strings.TrimSpace(source) == "" {
		return graph.New(), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := newBuilder()
	registerBuiltins(env, b)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	_, err = env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	return b.finish(), nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
