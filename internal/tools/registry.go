// Package tools exposes the desktop, window and recovery operations as named
// tools with declared parameters. Invoking a tool always yields a report
// string; failures are described in the report, never returned as errors.
package tools

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xkilldash9x/otto-cli/internal/action"
	"github.com/xkilldash9x/otto-cli/internal/store"
	"go.uber.org/zap"
)

// Result is what a handler produces. Err is set when the call failed, in
// which case Report already describes the failure.
type Result struct {
	Report string
	Err    error
}

func ok(report string) Result { return Result{Report: report} }

func failed(report string, err error) Result {
	if err == nil {
		err = errors.New(report)
	}
	return Result{Report: report, Err: err}
}

// Handler runs one tool with bound arguments.
type Handler func(ctx context.Context, args Args) Result

// Tool is a named operation callable by the agent runtime.
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"parameters"`
	handler     Handler
}

// Invocation is the record of one call.
type Invocation struct {
	ID      string           `json:"invocation_id"`
	Tool    string           `json:"tool"`
	Report  string           `json:"report"`
	Outcome string           `json:"outcome"`
	Code    action.ErrorCode `json:"error_code,omitempty"`
	Elapsed time.Duration    `json:"elapsed"`
	// Rejected is set when the call never reached a handler: the tool is
	// unknown or its arguments did not bind.
	Rejected bool `json:"rejected,omitempty"`
}

// Succeeded reports whether the tool ran without failure.
func (i Invocation) Succeeded() bool { return i.Outcome == store.OutcomeSucceeded }

// Registry holds the tool set and runs calls one at a time: only one logical
// actor ever drives the input devices.
type Registry struct {
	logger  *zap.Logger
	journal store.Journal
	tools   map[string]Tool

	mu sync.Mutex
}

// NewRegistry creates an empty registry. journal may be store.Nop{}.
func NewRegistry(journal store.Journal, logger *zap.Logger) *Registry {
	if journal == nil {
		journal = store.Nop{}
	}
	return &Registry{
		logger:  logger.Named("tool_registry"),
		journal: journal,
		tools:   make(map[string]Tool),
	}
}

// Register adds a tool. Registering a name twice replaces the earlier tool.
func (r *Registry) Register(t Tool, h Handler) {
	t.handler = h
	r.tools[t.Name] = t
}

// Tools lists the registered tools sorted by name.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the named tool.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Invoke runs the named tool. It never fails: unknown tools, bad arguments,
// OS errors and panics all come back as an Invocation describing them.
func (r *Registry) Invoke(ctx context.Context, name string, args Args) Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv := Invocation{ID: uuid.NewString(), Tool: name}
	log := r.logger.With(zap.String("tool", name), zap.String("invocation_id", inv.ID))
	start := time.Now()

	var (
		res   Result
		bound = args
	)
	t, found := r.tools[name]
	switch {
	case !found:
		inv.Rejected = true
		res = failed(fmt.Sprintf("Unknown tool: %s", name), fmt.Errorf("%w: tool %s", action.ErrUnknownActionType, name))
	default:
		var err error
		bound, err = bind(t.Params, args)
		if err != nil {
			inv.Rejected = true
			res = failed(fmt.Sprintf("Invalid arguments for %s: %v", name, err), fmt.Errorf("%w: %w", action.ErrInvalidParameters, err))
			bound = args
		} else {
			log.Info("Invoking tool.")
			res = r.run(ctx, t, bound, log)
		}
	}

	inv.Report = res.Report
	inv.Elapsed = time.Since(start)
	inv.Outcome = store.OutcomeSucceeded
	if res.Err != nil {
		inv.Outcome = store.OutcomeFailed
		inv.Code = action.ClassifyError(res.Err)
		if IsPanic(res.Err) {
			inv.Code = action.ErrCodeExecutorPanic
		}
		log.Warn("Tool call failed.", zap.String("error_code", string(inv.Code)), zap.Error(res.Err))
	}

	rec := store.Record{
		ID:        inv.ID,
		Tool:      name,
		Arguments: redacted(bound),
		Outcome:   inv.Outcome,
		ErrorCode: string(inv.Code),
		Elapsed:   inv.Elapsed,
		CreatedAt: start,
	}
	if res.Err != nil {
		rec.Message = res.Err.Error()
	}
	// Journal even when the request was cancelled; a journal error never fails the call.
	if err := r.journal.Record(context.WithoutCancel(ctx), rec); err != nil {
		log.Error("Failed to journal tool call.", zap.Error(err))
	}
	return inv
}

// run calls the handler, converting a panic into a failed result.
func (r *Registry) run(ctx context.Context, t Tool, args Args, log *zap.Logger) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("Tool handler panicked.", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			err := fmt.Errorf("%v", p)
			res = Result{
				Report: fmt.Sprintf("Failed to run %s: %v", t.Name, err),
				Err:    &panicError{err: err},
			}
		}
	}()
	return t.handler(ctx, args)
}

type panicError struct{ err error }

func (p *panicError) Error() string { return "panic: " + p.err.Error() }
func (p *panicError) Unwrap() error { return p.err }

// IsPanic reports whether err came from a recovered handler panic.
func IsPanic(err error) bool {
	var p *panicError
	return errors.As(err, &p)
}
