package dispatch

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/revgraph/pkg/errors"
	"github.com/matzehuels/revgraph/pkg/observability"
	"github.com/matzehuels/revgraph/pkg/protocol"
	"github.com/matzehuels/revgraph/pkg/selection"
)

// Canvas is the rendering collaborator of the dispatcher.
type Canvas interface {
	selection.Highlighter
	// Load replaces the graph. On error the previous graph stays.
	Load(dot string) error
	// Fit brings the whole graph into view.
	Fit()
}

// Flusher is implemented by canvases that publish their state after each
// handled input.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Options configures a Dispatcher.
type Options struct {
	// Delimiter separates input fields. Empty selects protocol.DefaultDelimiter.
	Delimiter string
	// Logger receives debug and warning logs. Nil discards them.
	Logger *log.Logger
}

// Dispatcher applies commands and events to a controller and its canvas.
type Dispatcher struct {
	ctl    *selection.Controller
	canvas Canvas
	out    selection.Emitter
	parser protocol.Parser
	logger *log.Logger
}

// New creates a dispatcher. out receives the focus messages the controller
// does not produce itself.
func New(ctl *selection.Controller, canvas Canvas, out selection.Emitter, opts Options) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Dispatcher{
		ctl:    ctl,
		canvas: canvas,
		out:    out,
		parser: protocol.NewParser(opts.Delimiter),
		logger: opts.Logger,
	}
}

// Controller returns the controller driven by d.
func (d *Dispatcher) Controller() *selection.Controller { return d.ctl }

// OnLine parses and applies one input line. Malformed lines and unknown
// commands are logged and dropped; the returned error reports why, and
// callers may ignore it.
func (d *Dispatcher) OnLine(ctx context.Context, line string) error {
	start := time.Now()
	hooks := observability.Dispatch()

	cmd, err := d.parser.Parse(line)
	if err != nil {
		tag, _ := d.parser.Split(line)
		hooks.OnDrop(ctx, string(tag), err)
		if errors.Is(err, errors.ErrCodeUnknownCommand) {
			d.logger.Debug("ignoring unknown command", "tag", string(tag))
		} else {
			d.logger.Warn("dropping malformed line", "err", err)
		}
		return err
	}

	err = d.apply(cmd)
	hooks.OnCommand(ctx, string(cmd.Tag()), time.Since(start), err)
	d.flush(ctx)
	return err
}

// OnOversized records an input line of size bytes that was discarded for
// exceeding limit. The line is never parsed, so its command tag is unknown.
func (d *Dispatcher) OnOversized(ctx context.Context, size, limit int) error {
	err := errors.New(errors.ErrCodeMalformedLine, "line of %d bytes exceeds limit of %d", size, limit)
	observability.Dispatch().OnDrop(ctx, "", err)
	d.logger.Warn("dropping oversized line", "bytes", size, "limit", limit)
	return err
}

func (d *Dispatcher) apply(cmd protocol.Command) error {
	switch c := cmd.(type) {
	case protocol.Draw:
		return d.draw(c)
	case protocol.Run:
		d.ctl.BuildRunList(c.Mode, c.Style)
	case protocol.Delete:
		d.ctl.DeleteSelected(d.ctl.Current())
	case protocol.UnselectAll:
		d.ctl.UnselectAll(d.ctl.Current())
	}
	return nil
}

// draw switches the canvas to c.Flow. The outgoing flow loses its selection
// unless c.Keep is set; the incoming flow's stored selection is re-applied
// to the fresh graph. A graph that fails to load changes nothing.
func (d *Dispatcher) draw(c protocol.Draw) error {
	if err := d.canvas.Load(c.DOT); err != nil {
		d.logger.Warn("dropping draw with invalid graph", "flow", c.Flow, "err", err)
		return err
	}

	prev := d.ctl.Current()
	if !c.Keep && prev != "" {
		d.ctl.UnselectAll(prev)
	}
	d.canvas.Fit()
	d.ctl.Restore(c.Flow)
	d.ctl.SetCurrent(c.Flow)
	d.logger.Debug("flow drawn", "flow", c.Flow, "previous", prev, "keep", c.Keep)
	return nil
}

// OnClick applies a left click on node id of the current flow.
func (d *Dispatcher) OnClick(ctx context.Context, id string, multi bool) {
	if !d.validNode(id) {
		return
	}
	d.ctl.Click(d.ctl.Current(), selection.SnapshotID(id), multi)
	d.flush(ctx)
}

// OnMenu computes the context menu for a right click on node id.
func (d *Dispatcher) OnMenu(ctx context.Context, id string) (selection.Menu, bool) {
	if !d.validNode(id) {
		return selection.Menu{}, false
	}
	m := d.ctl.ClickMenu(d.ctl.Current(), selection.SnapshotID(id))
	d.flush(ctx)
	return m, true
}

// OnChoose performs an action picked from a context menu.
func (d *Dispatcher) OnChoose(ctx context.Context, m selection.Menu, a selection.Action) error {
	if err := d.ctl.Choose(m, a); err != nil {
		d.logger.Warn("menu action rejected", "action", a.Label(), "err", err)
		return err
	}
	d.flush(ctx)
	return nil
}

// Keys understood by OnKey.
const (
	KeyDelete = "delete"
	KeyEscape = "escape"
)

// OnKey applies a keyboard shortcut to the current flow. Other keys are
// ignored.
func (d *Dispatcher) OnKey(ctx context.Context, key string) {
	switch key {
	case KeyDelete:
		d.ctl.DeleteSelected(d.ctl.Current())
	case KeyEscape:
		d.ctl.UnselectAll(d.ctl.Current())
	default:
		return
	}
	d.flush(ctx)
}

// OnFocus reports the viewer gaining or losing keyboard focus.
func (d *Dispatcher) OnFocus(in bool) {
	if err := d.out.Emit(protocol.FocusMsg(in)); err != nil {
		d.logger.Warn("emit failed", "err", err)
	}
}

func (d *Dispatcher) validNode(id string) bool {
	if d.ctl.Current() == "" {
		d.logger.Debug("event ignored: no flow drawn", "id", id)
		return false
	}
	if err := errors.ValidateID(id); err != nil {
		d.logger.Debug("event ignored", "err", err)
		return false
	}
	return true
}

func (d *Dispatcher) flush(ctx context.Context) {
	f, ok := d.canvas.(Flusher)
	if !ok {
		return
	}
	if err := f.Flush(ctx); err != nil {
		d.logger.Warn("publish frame failed", "err", err)
	}
}
