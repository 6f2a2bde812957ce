package protocol

import (
	"strings"
	"unicode"

	"github.com/matzehuels/revgraph/pkg/errors"
)

// DefaultDelimiter separates the fields of an input line.
const DefaultDelimiter = "\b"

// Tag identifies an input command.
type Tag string

// Input command tags.
const (
	TagDraw        Tag = "draw"
	TagRun         Tag = "run"
	TagDelete      Tag = "delete"
	TagUnselectAll Tag = "unselect-all"
)

// Keep-selection flag values of the draw command.
const (
	KeepYes = "yes"
	KeepNo  = "no"
)

// Command is a parsed input line.
type Command interface {
	Tag() Tag
}

// Draw replaces the rendered graph with DOT and activates Flow.
type Draw struct {
	Flow string
	// Keep is false when the selection of the flow being left must be cleared.
	Keep bool
	DOT  string
}

// Run requests the sorted run list of the current selection.
type Run struct {
	Mode  string
	Style string
}

// Delete requests deletion of the current selection. ID is carried by the
// protocol but not used.
type Delete struct {
	ID string
}

// UnselectAll clears the current flow's selection.
type UnselectAll struct{}

func (Draw) Tag() Tag        { return TagDraw }
func (Run) Tag() Tag         { return TagRun }
func (Delete) Tag() Tag      { return TagDelete }
func (UnselectAll) Tag() Tag { return TagUnselectAll }

// Parser splits input lines into commands.
// The zero value uses [DefaultDelimiter].
type Parser struct {
	Delimiter string
}

// NewParser returns a parser for the given field delimiter.
// An empty delimiter selects [DefaultDelimiter].
func NewParser(delim string) Parser {
	return Parser{Delimiter: delim}
}

func (p Parser) delimiter() string {
	if p.Delimiter == "" {
		return DefaultDelimiter
	}
	return p.Delimiter
}

// Split breaks line into its tag and argument fields. Trailing whitespace,
// including the line terminator, is removed from the last field.
func (p Parser) Split(line string) (Tag, []string) {
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	fields := strings.Split(line, p.delimiter())
	return Tag(fields[0]), fields[1:]
}

// Parse converts one input line into a Command.
//
// Lines with an unknown tag return an error with code UNKNOWN_COMMAND; lines
// with too few fields or an invalid keep flag return MALFORMED_LINE. Extra
// fields are ignored, except for draw where they belong to the graph source.
func (p Parser) Parse(line string) (Command, error) {
	tag, args := p.Split(line)

	switch tag {
	case TagDraw:
		if len(args) < 3 {
			return nil, errors.New(errors.ErrCodeMalformedLine, "draw: want 3 fields, got %d", len(args))
		}
		keep, err := parseKeep(args[1])
		if err != nil {
			return nil, err
		}
		if args[0] == "" {
			return nil, errors.New(errors.ErrCodeMalformedLine, "draw: empty flow id")
		}
		// The graph source is the remainder of the line.
		return Draw{Flow: args[0], Keep: keep, DOT: strings.Join(args[2:], p.delimiter())}, nil

	case TagRun:
		if len(args) < 2 {
			return nil, errors.New(errors.ErrCodeMalformedLine, "run: want 2 fields, got %d", len(args))
		}
		return Run{Mode: args[0], Style: args[1]}, nil

	case TagDelete:
		var d Delete
		if len(args) > 0 {
			d.ID = args[0]
		}
		return d, nil

	case TagUnselectAll:
		return UnselectAll{}, nil

	case "":
		return nil, errors.New(errors.ErrCodeMalformedLine, "empty line")
	}

	return nil, errors.New(errors.ErrCodeUnknownCommand, "unknown command %q", string(tag))
}

func parseKeep(s string) (bool, error) {
	switch s {
	case KeepYes:
		return true, nil
	case KeepNo:
		return false, nil
	}
	return false, errors.New(errors.ErrCodeMalformedLine, "draw: keep flag must be %q or %q, got %q", KeepYes, KeepNo, s)
}
