package replay

import (
	"errors"
	"fmt"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/internal/logger"
)

var (
	// ErrUnknownID indicates a free of an id that names no live allocation.
	ErrUnknownID = errors.New("replay: unknown id")

	// ErrDuplicateID indicates an alloc reusing an id that is still live.
	ErrDuplicateID = errors.New("replay: id already live")

	// ErrClearUnsupported indicates a clear against an allocator without Clear.
	ErrClearUnsupported = errors.New("replay: allocator cannot clear")

	// ErrCorrupted indicates a payload changed between its alloc and its free.
	ErrCorrupted = errors.New("replay: payload corrupted")
)

// OpError ties a failure to the trace operation that caused it.
type OpError struct {
	Op  Op
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("replay: line %d: %s: %v", e.Op.Line, e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Options controls Run.
type Options struct {
	// ContinueOnError records failing operations in Result.Errors and keeps
	// going instead of stopping at the first one.
	ContinueOnError bool

	// Verify fills every payload with a pattern and checks it before the
	// payload is freed.
	Verify bool
}

// Result summarises a replay.
type Result struct {
	Ops            int // operations executed
	Allocs         int // successful allocations
	Frees          int // successful frees
	Clears         int // successful clears
	Failed         int // operations that returned an error
	BytesRequested int // sum of successful allocation sizes
	PeakUsage      int // highest MemoryUsage seen after any operation
	FinalUsage     int // MemoryUsage after the last operation
	FinalCount     int // AllocationCount after the last operation
	Live           int // ids still allocated at the end

	// Errors holds every failure when ContinueOnError is set.
	Errors []error
}

type liveBlock struct {
	ref     alloc.Ref
	payload []byte
	pattern byte
}

// Run executes ops against a in order. Without ContinueOnError it stops at
// the first failing operation and returns it as an *OpError alongside the
// partial result.
func Run(a alloc.Allocator, ops []Op, opts Options) (Result, error) {
	var res Result
	live := make(map[string]liveBlock)

	for i, op := range ops {
		res.Ops++
		err := step(a, op, i, live, opts, &res)
		res.PeakUsage = max(res.PeakUsage, a.MemoryUsage())
		if err == nil {
			continue
		}

		res.Failed++
		opErr := &OpError{Op: op, Err: err}
		if logger.DebugEnabled() {
			logger.Debug("replay: op failed", "line", op.Line, "op", op.String(), "err", err)
		}
		if !opts.ContinueOnError {
			finish(a, live, &res)
			return res, opErr
		}
		res.Errors = append(res.Errors, opErr)
	}

	finish(a, live, &res)
	return res, nil
}

func step(a alloc.Allocator, op Op, index int, live map[string]liveBlock, opts Options, res *Result) error {
	switch op.Kind {
	case OpAlloc:
		if _, ok := live[op.ID]; ok {
			return ErrDuplicateID
		}
		ref, payload, err := a.Alloc(op.Size, op.Align)
		if err != nil {
			return err
		}
		blk := liveBlock{ref: ref, payload: payload}
		if opts.Verify {
			blk.pattern = byte(index*31+7) | 1
			for j := range payload {
				payload[j] = blk.pattern
			}
		}
		live[op.ID] = blk
		res.Allocs++
		res.BytesRequested += op.Size
		return nil

	case OpFree:
		blk, ok := live[op.ID]
		if !ok {
			return ErrUnknownID
		}
		if opts.Verify {
			for j, b := range blk.payload {
				if b != blk.pattern {
					return fmt.Errorf("%w: byte %d = %#x, want %#x", ErrCorrupted, j, b, blk.pattern)
				}
			}
		}
		if err := a.Free(blk.ref); err != nil {
			return err
		}
		delete(live, op.ID)
		res.Frees++
		return nil

	case OpClear:
		r, ok := a.(alloc.Resetter)
		if !ok {
			return ErrClearUnsupported
		}
		r.Clear()
		clear(live)
		res.Clears++
		return nil

	default:
		return fmt.Errorf("%w: unknown operation kind %d", ErrSyntax, op.Kind)
	}
}

func finish(a alloc.Allocator, live map[string]liveBlock, res *Result) {
	res.FinalUsage = a.MemoryUsage()
	res.FinalCount = a.AllocationCount()
	res.Live = len(live)
}
