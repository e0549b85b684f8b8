// Package engine provides the Lisp evaluation engine for world scripts.
// It wraps zygomys in a sandboxed environment and produces a World
// from user source code.
package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/hullworld/pkg/world"
	zygo "github.com/glycerine/zygomys/zygo"
)

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

// EvalWarning is a world mutation the script asked for that was refused
// or that reported a topology warning.
type EvalWarning struct {
	Op      string
	Message string
	Solid   world.Handle
}

func (w EvalWarning) String() string {
	if w.Solid != 0 {
		return fmt.Sprintf("%s solid %d: %s", w.Op, w.Solid, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Op, w.Message)
}

// EvalResult bundles the full output of an evaluation.
type EvalResult struct {
	World    *world.World
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for world scripts.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment and a fresh world for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
	worldOpts  []world.Option
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the hard limit for a single evaluation.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithWorldOptions sets the options every evaluated world is created with.
func WithWorldOptions(opts ...world.Option) Option {
	return func(e *Engine) { e.worldOpts = append(e.worldOpts, opts...) }
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate takes Lisp source code and produces a new World.
//
// Return semantics:
//   - On success: returns world + nil errors + nil error
//   - On parse/eval failure: returns nil world + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*world.World, []EvalError, error) {
	res, err := e.Run(source)
	if err != nil {
		return nil, nil, err
	}
	return res.World, res.Errors, nil
}

// Run is Evaluate with the refused-mutation warnings included.
func (e *Engine) Run(source string) (*EvalResult, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	// stop is closed once the caller stops waiting, which aborts a
	// runaway evaluation at its next function call.
	stop := make(chan struct{})
	defer close(stop)

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res := e.evaluate(source, stop)
		ch <- evalResult{res: res}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation, e.timeout)
}

// zygoMu serializes sandbox creation and evaluation; zygomys keeps global
// state that is not safe for concurrent environments. An evaluation holds
// it only until its stop channel closes.
var zygoMu sync.Mutex

// errAborted unwinds an evaluation whose caller has stopped waiting.
var errAborted = errors.New("evaluation aborted")

func stopped(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox,
// giving up at the first function call after stop is closed.
func (e *Engine) evaluate(source string, stop <-chan struct{}) (res *EvalResult) {
	s := &session{w: world.New(e.worldOpts...)}

	// Empty source is a valid program that produces an empty world.
	if strings.TrimSpace(source) == "" {
		return &EvalResult{World: s.w}
	}

	zygoMu.Lock()
	defer zygoMu.Unlock()

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, s)

	aborted := func() *EvalResult {
		return &EvalResult{Errors: []EvalError{{Message: errAborted.Error()}}, Warnings: s.warnings}
	}
	defer func() {
		if r := recover(); r != nil {
			if r != errAborted {
				panic(r)
			}
			res = aborted()
		}
	}()
	env.AddPreHook(func(*zygo.Zlisp, string, []zygo.Sexp) {
		if stopped(stop) {
			panic(errAborted)
		}
	})

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return &EvalResult{Errors: parseZygomysError(err), Warnings: s.warnings}
	}
	if _, err := env.Run(); err != nil {
		// Hooks fired inside a builtin surface as call errors.
		if stopped(stop) {
			return aborted()
		}
		return &EvalResult{Errors: parseZygomysError(err), Warnings: s.warnings}
	}
	return &EvalResult{World: s.w, Warnings: s.warnings}
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
	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
