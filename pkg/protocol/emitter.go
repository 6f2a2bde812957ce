package protocol

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/revgraph/pkg/errors"
	"github.com/matzehuels/revgraph/pkg/observability"
)

// Sink receives a copy of every emitted line. Sink failures never affect the
// primary output stream.
type Sink interface {
	Publish(ctx context.Context, line string) error
}

// Emitter writes messages to the output stream, one per line.
//
// Writes are fire-and-forget: the stream is assumed reliable and ordered.
// Emitter is not safe for concurrent use; the viewer emits from its event loop
// only.
type Emitter struct {
	w      io.Writer
	sinks  []Sink
	logger *log.Logger
}

// NewEmitter creates an emitter writing to w. A nil logger discards logs.
func NewEmitter(w io.Writer, logger *log.Logger, sinks ...Sink) *Emitter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Emitter{w: w, sinks: sinks, logger: logger}
}

// Emit writes m followed by a newline and mirrors it to every sink.
// Only a failure of the primary stream is returned.
func (e *Emitter) Emit(m Message) error {
	ctx := context.Background()
	line := m.String()
	hooks := observability.Emit()

	if _, err := io.WriteString(e.w, line+"\n"); err != nil {
		hooks.OnEmitError(ctx, string(m.Kind), err)
		return errors.Wrap(errors.ErrCodeEmitFailed, err, "write %q", line)
	}
	hooks.OnEmit(ctx, string(m.Kind))
	e.logger.Debug("emitted", "line", line)

	for _, s := range e.sinks {
		if err := s.Publish(ctx, line); err != nil {
			hooks.OnEmitError(ctx, string(m.Kind), err)
			e.logger.Warn("mirror failed", "line", line, "err", err)
		}
	}
	return nil
}
