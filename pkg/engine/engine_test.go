package engine

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine()

	g, evalErrs, err := eng.Evaluate("")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	if g.NodeCount() != 0 {
		t.Errorf("expected empty graph, got %d nodes", g.NodeCount())
	}
}

func TestEvaluateWhitespaceOnly(t *testing.T) {
	eng := NewEngine()

	g, evalErrs, err := eng.Evaluate("   \n\t  \n  ")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	if g.NodeCount() != 0 {
		t.Errorf("expected empty graph, got %d nodes", g.NodeCount())
	}
}

func TestEvaluateValidExpression(t *testing.T) {
	eng := NewEngine()

	// (+ 1 2) is valid Lisp that zygomys can evaluate.
	// It defines nothing, so the graph should be empty.
	g, evalErrs, err := eng.Evaluate("(+ 1 2)")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	if g.NodeCount() != 0 {
		t.Errorf("expected empty graph, got %d nodes", g.NodeCount())
	}
}

func TestEvaluateMultipleExpressions(t *testing.T) {
	eng := NewEngine()

	source := `
(def x 10)
(def y 20)
(+ x y)
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	// Unmatched paren is a parse error.
	g, evalErrs, err := eng.Evaluate("(+ 1 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}

	// The error message should contain something meaningful.
	msg := evalErrs[0].Message
	if msg == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine()

	// Referencing an undefined symbol should produce an eval error.
	g, evalErrs, err := eng.Evaluate("(+ 1 undefined-symbol)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvaluateSyntaxErrorHasLineInfo(t *testing.T) {
	eng := NewEngine()

	// Put the error on line 2.
	source := "(+ 1 2)\n(+ 3"
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}

	// We expect the line number to be extracted from the zygomys error.
	// Line info may or may not be available depending on the error format;
	// we just check the error is populated.
	e := evalErrs[0]
	if e.Message == "" {
		t.Error("eval error message should not be empty")
	}
	// If line info was extracted, verify it's positive.
	if e.Line > 0 {
		t.Logf("extracted line info: line=%d, message=%q", e.Line, e.Message)
	} else {
		t.Logf("no line info extracted (line=0), message=%q", e.Message)
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Col: 0, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	// No line info.
	e2 := EvalError{Line: 0, Col: 0, Message: "no location"}
	s2 := e2.Error()
	if strings.Contains(s2, "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", s2)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()

	// Multiple evaluations of the same source should produce equivalent results.
	for i := 0; i < 5; i++ {
		g, evalErrs, err := eng.Evaluate("(+ 1 2)")
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		if g == nil {
			t.Fatalf("iteration %d: expected non-nil graph", i)
		}
		if g.NodeCount() != 0 {
			t.Errorf("iteration %d: expected empty graph, got %d nodes", i, g.NodeCount())
		}
	}
}

func TestEvaluateTimeout(t *testing.T) {
	// A channel that never sends stands in for a runaway script, so no
	// sandbox goroutine is left behind.
	eng := NewEngine()
	gen, _ := eng.begin()
	ch := make(chan evalResult)

	start := time.Now()
	_, _, err := eng.await(ch, gen, 50*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got: %v", err)
	}
	if !strings.Contains(err.Error(), "50ms") {
		t.Errorf("error %q does not name the limit", err)
	}
	if elapsed := time.Since(start); elapsed > EvalTimeout {
		t.Errorf("await took %s, longer than the default limit", elapsed)
	}
}

func TestSetTimeout(t *testing.T) {
	eng := NewEngine()

	if _, limit := eng.begin(); limit != EvalTimeout {
		t.Errorf("default limit = %s, want %s", limit, EvalTimeout)
	}

	eng.SetTimeout(20 * time.Millisecond)
	if _, limit := eng.begin(); limit != 20*time.Millisecond {
		t.Errorf("limit = %s, want 20ms", limit)
	}

	eng.SetTimeout(0)
	if _, limit := eng.begin(); limit != EvalTimeout {
		t.Errorf("limit after reset = %s, want %s", limit, EvalTimeout)
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	eng := NewEngine()
	stale, _ := eng.begin()
	latest, _ := eng.begin()

	if eng.current(stale) || !eng.current(latest) {
		t.Fatalf("current(%d) / current(%d) disagree with the latest generation", stale, latest)
	}

	ch := make(chan evalResult, 1)
	ch <- evalResult{graph: nil, errors: nil, err: nil}

	_, _, err := eng.await(ch, stale, time.Second)
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got: %v", err)
	}
}

func TestSpawnStampsGeneration(t *testing.T) {
	eng := NewEngine()
	gen, limit := eng.begin()

	g, evalErrs, err := eng.await(eng.spawn(`(defsolid "c" (cube))`, gen), gen, limit)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("unexpected failure: %v %v", err, evalErrs)
	}
	if g.Version != gen {
		t.Errorf("Version = %d, want %d", g.Version, gen)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "some generic error",
			wantLine: 0,
			wantMsg:  "some generic error",
		},
		{
			name:     "short line format",
			msg:      "line 3: bad keyword",
			wantLine: 3,
			wantMsg:  "bad keyword",
		},
		{
			name:     "line format lowercase",
			msg:      "error on line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

func TestEvaluateStampsVersion(t *testing.T) {
	eng := NewEngine()

	var last uint64
	for i := 0; i < 3; i++ {
		g, _, err := eng.Evaluate(`(defsolid "ball" (sphere))`)
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		if g.Version <= last {
			t.Errorf("iteration %d: version %d not after %d", i, g.Version, last)
		}
		last = g.Version
	}
}

func TestRunValidScene(t *testing.T) {
	eng := NewEngine()

	res, err := eng.Run(`
(defsolid "ball" (sphere :radius 2))
(defsolid "spare" (cube))
(assembly "scene" (place (solid "ball") :at (vec3 0 0 2)))
`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if !res.OK() {
		t.Fatalf("eval errors: %v", res.Errors)
	}
	// "spare" is defined but never placed.
	if len(res.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", res.Warnings)
	}
	if !strings.Contains(res.Warnings[0].Message, "orphan") {
		t.Errorf("warning = %q, want orphan", res.Warnings[0].Message)
	}
	if res.Warnings[0].NodeID != res.Graph.Lookup("spare").ID {
		t.Errorf("warning does not point at the orphan node")
	}
}

func TestRunReportsEvalErrors(t *testing.T) {
	eng := NewEngine()

	res, err := eng.Run(`(sphere :segments 5)`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if res.OK() || res.Graph != nil {
		t.Fatal("expected a failed result without a graph")
	}
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0].Message, "must be even") {
		t.Errorf("errors = %v, want the segment parity failure", res.Errors)
	}
}

func TestRunEmptyGroupWarns(t *testing.T) {
	eng := NewEngine()

	res, err := eng.Run(`(assembly "nothing")`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if !res.OK() {
		t.Fatalf("eval errors: %v", res.Errors)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected 1 warning for the empty group, got %v", res.Warnings)
	}
}

func TestRunWarnsSelfIntersectingRing(t *testing.T) {
	eng := NewEngine()

	res, err := eng.Run(`(defsolid "r" (ring :ring-radius 0.5 :section-radius 1))`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if !res.OK() || res.Graph == nil {
		t.Fatalf("self-intersection should not block: %v", res.Errors)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0].Message, "self-intersects") {
		t.Fatalf("warnings = %v, want one self-intersection warning", res.Warnings)
	}
	if res.Warnings[0].NodeID != res.Graph.Lookup("r").ID {
		t.Errorf("warning does not point at the ring node")
	}
}

func TestRunWarnsOverlappingTurns(t *testing.T) {
	eng := NewEngine()

	res, err := eng.Run(`(defsolid "coil" (ring :segments 24 :count 48 :section-radius 0.3 :slope 0.01))`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0].Message, "turns overlap") {
		t.Errorf("warnings = %v, want one overlap warning", res.Warnings)
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
