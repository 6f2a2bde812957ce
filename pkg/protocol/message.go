package protocol

import (
	"strings"

	"github.com/matzehuels/revgraph/pkg/errors"
)

// Kind identifies an output message.
type Kind string

// Output message kinds.
const (
	KindSelect   Kind = "select"
	KindUnselect Kind = "unselect"
	KindDelete   Kind = "delete"
	KindRevert   Kind = "revert"
	KindSnapshot Kind = "snapshot"
	KindRun      Kind = "run"
	KindFocusIn  Kind = "focus-in"
	KindFocusOut Kind = "focus-out"
)

// Message is one user intent reported to the parent process.
type Message struct {
	Kind Kind
	// Mode and Style are set for run messages only.
	Mode  string
	Style string
	// IDs lists snapshot ids for delete, revert and run messages.
	IDs []string
}

// SelectMsg reports that the selection is non-empty.
func SelectMsg() Message { return Message{Kind: KindSelect} }

// UnselectMsg reports that the selection became empty.
func UnselectMsg() Message { return Message{Kind: KindUnselect} }

// DeleteMsg requests deletion of ids.
func DeleteMsg(ids ...string) Message { return Message{Kind: KindDelete, IDs: ids} }

// RevertMsg requests a revert to id.
func RevertMsg(id string) Message { return Message{Kind: KindRevert, IDs: []string{id}} }

// SnapshotMsg requests a new snapshot of head.
func SnapshotMsg() Message { return Message{Kind: KindSnapshot} }

// RunMsg requests execution of ids. Callers pass ids in the order they must
// appear on the wire.
func RunMsg(mode, style string, ids ...string) Message {
	return Message{Kind: KindRun, Mode: mode, Style: style, IDs: ids}
}

// FocusMsg reports a focus transition of the viewer.
func FocusMsg(in bool) Message {
	if in {
		return Message{Kind: KindFocusIn}
	}
	return Message{Kind: KindFocusOut}
}

// String encodes the message without the trailing newline.
func (m Message) String() string {
	ids := strings.Join(m.IDs, ",")
	switch m.Kind {
	case KindSnapshot:
		return string(m.Kind)
	case KindRun:
		return strings.Join([]string{string(m.Kind), m.Mode, m.Style, ids}, ":")
	default:
		return string(m.Kind) + ":" + ids
	}
}

// ParseMessage decodes an output line. It is the inverse of [Message.String]
// and is used by consumers of the output stream and its mirrors.
func ParseMessage(line string) (Message, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == string(KindSnapshot) {
		return SnapshotMsg(), nil
	}

	kind, rest, ok := strings.Cut(line, ":")
	if !ok {
		return Message{}, errors.New(errors.ErrCodeMalformedLine, "message %q has no kind separator", line)
	}

	switch k := Kind(kind); k {
	case KindSelect, KindUnselect, KindFocusIn, KindFocusOut:
		return Message{Kind: k}, nil
	case KindDelete, KindRevert:
		return Message{Kind: k, IDs: splitIDs(rest)}, nil
	case KindRun:
		parts := strings.SplitN(rest, ":", 3)
		if len(parts) != 3 {
			return Message{}, errors.New(errors.ErrCodeMalformedLine, "run message %q: want mode, style and ids", line)
		}
		return RunMsg(parts[0], parts[1], splitIDs(parts[2])...), nil
	}

	return Message{}, errors.New(errors.ErrCodeUnknownCommand, "unknown message kind %q", kind)
}

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
