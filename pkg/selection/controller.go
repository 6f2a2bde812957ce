package selection

import (
	"errors"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/revgraph/pkg/protocol"
)

// DefaultRunStyle is the execution style of runs started from the context menu.
const DefaultRunStyle = "default"

// ErrNotOffered is returned by [Controller.Choose] for an action the menu does
// not contain.
var ErrNotOffered = errors.New("action not offered by menu")

// ErrStaleMenu is returned by [Controller.Choose] when the selection changed
// after the menu was computed.
var ErrStaleMenu = errors.New("menu no longer matches the selection")

// Op selects the direction of [Controller.Select].
type Op int

const (
	OpSelect Op = iota
	OpUnselect
)

// Highlighter is the part of the rendering collaborator the controller drives.
// Calls for ids absent from the rendered graph must be ignored.
type Highlighter interface {
	Highlight(id string)
	Unhighlight(id string)
}

// Emitter writes protocol messages to the parent process.
type Emitter interface {
	Emit(m protocol.Message) error
}

// Options configures a Controller.
type Options struct {
	// Logger receives debug and warning logs. Nil discards them.
	Logger *log.Logger
	// RunStyle is the execution style of runs chosen from the context menu.
	// Empty selects DefaultRunStyle.
	RunStyle string
}

// Controller owns the per-flow selection sets and the current flow.
//
// A flow without an entry is equivalent to a flow with an empty selection.
// Selections keep insertion order; run lists are sorted.
//
// Controller is not safe for concurrent use. All calls must come from the
// single event loop.
type Controller struct {
	flows   map[string][]SnapshotID
	current string
	canvas  Highlighter
	out     Emitter
	logger  *log.Logger
	style   string
}

// New creates a controller reporting to out and highlighting on canvas.
func New(out Emitter, canvas Highlighter, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.RunStyle == "" {
		opts.RunStyle = DefaultRunStyle
	}
	return &Controller{
		flows:  make(map[string][]SnapshotID),
		canvas: canvas,
		out:    out,
		logger: opts.Logger,
		style:  opts.RunStyle,
	}
}

// Current returns the active flow, or "" before the first draw.
func (c *Controller) Current() string { return c.current }

// SetCurrent makes flow the active flow.
func (c *Controller) SetCurrent(flow string) { c.current = flow }

// Known reports whether flow has been drawn or selected into.
func (c *Controller) Known(flow string) bool {
	_, ok := c.flows[flow]
	return ok
}

// Selection returns a copy of flow's selection in insertion order.
func (c *Controller) Selection(flow string) []SnapshotID {
	return slices.Clone(c.flows[flow])
}

// Select adds or removes id from flow's selection, creating the flow's entry
// if needed, then emits select when the selection is non-empty and unselect
// otherwise. Selecting an already selected id leaves the list unchanged but
// still emits.
func (c *Controller) Select(flow string, id SnapshotID, op Op) {
	sel := c.flows[flow]

	switch op {
	case OpSelect:
		if !slices.Contains(sel, id) {
			sel = append(sel, id)
			c.highlight(flow, id)
		}
	case OpUnselect:
		if i := slices.Index(sel, id); i >= 0 {
			sel = slices.Delete(sel, i, i+1)
			c.unhighlight(flow, id)
		}
	}
	if sel == nil {
		sel = []SnapshotID{}
	}
	c.flows[flow] = sel

	if len(sel) > 0 {
		c.emit(protocol.SelectMsg())
	} else {
		c.emit(protocol.UnselectMsg())
	}
}

// UnselectAll clears flow's selection and emits unselect. Nothing happens for
// a flow that has no selection.
func (c *Controller) UnselectAll(flow string) {
	if !c.clear(flow) {
		return
	}
	c.emit(protocol.UnselectMsg())
}

// clear empties flow's selection without emitting and reports whether
// anything was selected.
func (c *Controller) clear(flow string) bool {
	sel := c.flows[flow]
	if len(sel) == 0 {
		return false
	}
	for _, id := range sel {
		c.unhighlight(flow, id)
	}
	c.flows[flow] = []SnapshotID{}
	return true
}

// DeleteSelected requests deletion of flow's selection in selection order.
// Head cannot be deleted: a selection containing it is refused without
// emission. An empty selection emits nothing either, since there is no id to
// name. The selection itself is kept until the parent redraws.
func (c *Controller) DeleteSelected(flow string) {
	sel := c.flows[flow]
	if len(sel) == 0 {
		c.logger.Debug("delete ignored: empty selection", "flow", flow)
		return
	}
	if containsHead(sel) {
		c.logger.Debug("delete refused: selection contains head", "flow", flow)
		return
	}
	c.emit(protocol.DeleteMsg(toStrings(sel)...))
}

// Click applies a left click on id. A plain click replaces the selection with
// id; a multi click toggles id.
func (c *Controller) Click(flow string, id SnapshotID, multi bool) {
	if multi {
		op := OpSelect
		if slices.Contains(c.flows[flow], id) {
			op = OpUnselect
		}
		c.Select(flow, id, op)
		return
	}
	c.clear(flow)
	c.Select(flow, id, OpSelect)
}

// ClickMenu computes the context menu for a right click on target. When target
// is not part of the selection, the selection is cleared first; the click
// does not select target.
func (c *Controller) ClickMenu(flow string, target SnapshotID) Menu {
	if !slices.Contains(c.flows[flow], target) {
		c.UnselectAll(flow)
	}

	return menuFor(flow, target, c.involved(flow, target))
}

// involved returns the ids a menu on target acts on: the selection, or target
// alone when nothing is selected.
func (c *Controller) involved(flow string, target SnapshotID) []SnapshotID {
	if sel := c.Selection(flow); len(sel) > 0 {
		return sel
	}
	return []SnapshotID{target}
}

// MenuValid reports whether m still acts on the live selection of its flow.
func (c *Controller) MenuValid(m Menu) bool {
	return slices.Equal(c.involved(m.Flow, m.Target), m.involved)
}

// Choose performs a context menu action. A menu whose selection changed since
// it was computed is refused with ErrStaleMenu, so one menu never acts on two
// different id sets.
func (c *Controller) Choose(m Menu, a Action) error {
	if !m.Offers(a) {
		return ErrNotOffered
	}
	if !c.MenuValid(m) {
		c.logger.Debug("menu action refused: selection changed", "flow", m.Flow, "target", m.Target)
		return ErrStaleMenu
	}

	switch a.Kind {
	case ActionSnapshot:
		c.emit(protocol.SnapshotMsg())
	case ActionRevert:
		c.emit(protocol.RevertMsg(string(m.Target)))
	case ActionDelete:
		if len(c.flows[m.Flow]) > 0 {
			c.DeleteSelected(m.Flow)
		} else {
			c.emit(protocol.DeleteMsg(string(m.Target)))
		}
	case ActionRun:
		c.emitRun(a.Mode, c.style, m.involved)
	}
	return nil
}

// BuildRunList emits the current flow's selection sorted by id. Nothing is
// emitted for an empty selection.
func (c *Controller) BuildRunList(mode, style string) {
	sel := c.flows[c.current]
	if len(sel) == 0 {
		c.logger.Debug("run ignored: empty selection", "flow", c.current)
		return
	}
	c.emitRun(mode, style, sel)
}

func (c *Controller) emitRun(mode, style string, ids []SnapshotID) {
	sorted := toStrings(ids)
	slices.Sort(sorted)
	c.emit(protocol.RunMsg(mode, style, sorted...))
}

// Restore re-applies flow's stored selection to the canvas, creating an empty
// entry for a flow seen for the first time.
func (c *Controller) Restore(flow string) {
	sel, ok := c.flows[flow]
	if !ok {
		c.flows[flow] = []SnapshotID{}
		return
	}
	for _, id := range sel {
		c.canvas.Highlight(string(id))
	}
}

func (c *Controller) highlight(flow string, id SnapshotID) {
	if flow == c.current {
		c.canvas.Highlight(string(id))
	}
}

func (c *Controller) unhighlight(flow string, id SnapshotID) {
	if flow == c.current {
		c.canvas.Unhighlight(string(id))
	}
}

func (c *Controller) emit(m protocol.Message) {
	if err := c.out.Emit(m); err != nil {
		c.logger.Warn("emit failed", "err", err)
	}
}
