// Package replay reads allocation traces and drives an allocator with them.
//
// A trace is line oriented. Each non-blank line is one operation:
//
//	alloc <id> <size> [align]   # allocate size bytes and name the result id
//	free <id>                   # free the allocation named id
//	clear                       # release everything (Resetter allocators only)
//
// Text after '#' is a comment. IDs are arbitrary tokens; an id may be reused
// once the allocation it named has been freed. Traces may be UTF-8 or, with a
// byte order mark, UTF-16.
package replay

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrSyntax indicates a malformed trace line.
var ErrSyntax = errors.New("replay: syntax error")

// Kind is the type of a trace operation.
type Kind uint8

const (
	// OpAlloc allocates and names a block.
	OpAlloc Kind = iota + 1
	// OpFree frees a named block.
	OpFree
	// OpClear releases every block at once.
	OpClear
)

func (k Kind) String() string {
	switch k {
	case OpAlloc:
		return KeywordAlloc
	case OpFree:
		return KeywordFree
	case OpClear:
		return KeywordClear
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Op is one parsed trace operation.
type Op struct {
	Kind  Kind
	ID    string // empty for OpClear
	Size  int    // OpAlloc only
	Align int    // OpAlloc only; 0 selects the allocator default
	Line  int    // 1-based source line
}

func (op Op) String() string {
	switch op.Kind {
	case OpAlloc:
		if op.Align != 0 {
			return fmt.Sprintf("%s %s %d %d", op.Kind, op.ID, op.Size, op.Align)
		}
		return fmt.Sprintf("%s %s %d", op.Kind, op.ID, op.Size)
	case OpFree:
		return fmt.Sprintf("%s %s", op.Kind, op.ID)
	default:
		return op.Kind.String()
	}
}

// ParseError reports where a trace is malformed.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("replay: line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads a whole trace. Malformed lines are reported as *ParseError,
// which matches ErrSyntax with errors.Is.
func Parse(r io.Reader) ([]Op, error) {
	// UTF-8 unless a byte order mark says otherwise.
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	scanner := bufio.NewScanner(transform.NewReader(r, decoder))
	buf := make([]byte, 0, ScannerInitialBufferSize)
	scanner.Buffer(buf, ScannerMaxLineSize)

	var ops []Op
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.Index(line, CommentPrefix); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		op, err := parseFields(fields)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Text: strings.TrimSpace(line), Err: err}
		}
		op.Line = lineNo
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("replay: read trace: %w", err)
	}
	return ops, nil
}

// ParseString parses a trace held in memory.
func ParseString(s string) ([]Op, error) {
	return Parse(strings.NewReader(s))
}

func parseFields(fields []string) (Op, error) {
	switch strings.ToLower(fields[0]) {
	case KeywordAlloc:
		if len(fields) < 3 || len(fields) > 4 {
			return Op{}, fmt.Errorf("%w: want alloc <id> <size> [align]", ErrSyntax)
		}
		size, err := parseCount(fields[2], "size")
		if err != nil {
			return Op{}, err
		}
		op := Op{Kind: OpAlloc, ID: fields[1], Size: size}
		if len(fields) == 4 {
			if op.Align, err = parseCount(fields[3], "align"); err != nil {
				return Op{}, err
			}
		}
		return op, nil

	case KeywordFree:
		if len(fields) != 2 {
			return Op{}, fmt.Errorf("%w: want free <id>", ErrSyntax)
		}
		return Op{Kind: OpFree, ID: fields[1]}, nil

	case KeywordClear:
		if len(fields) != 1 {
			return Op{}, fmt.Errorf("%w: clear takes no arguments", ErrSyntax)
		}
		return Op{Kind: OpClear}, nil

	default:
		return Op{}, fmt.Errorf("%w: unknown operation %q", ErrSyntax, fields[0])
	}
}

// parseCount accepts decimal or 0x-prefixed hex.
func parseCount(s, what string) (int, error) {
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil || n < 0 || int64(int(n)) != n {
		return 0, fmt.Errorf("%w: bad %s %q", ErrSyntax, what, s)
	}
	return int(n), nil
}
