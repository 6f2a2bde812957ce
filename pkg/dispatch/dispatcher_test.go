package dispatch

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/revgraph/pkg/errors"
	"github.com/matzehuels/revgraph/pkg/protocol"
	"github.com/matzehuels/revgraph/pkg/selection"
)

type recorder struct {
	lines []string
}

func (r *recorder) Emit(m protocol.Message) error {
	r.lines = append(r.lines, m.String())
	return nil
}

// fakeCanvas accepts any DOT except "invalid" and tracks highlights per load.
type fakeCanvas struct {
	dot     string
	lit     map[string]bool
	fits    int
	flushes int
}

func (f *fakeCanvas) Load(dot string) error {
	if dot == "invalid" {
		return errors.New(errors.ErrCodeInvalidDOT, "bad graph")
	}
	f.dot = dot
	f.lit = map[string]bool{}
	return nil
}

func (f *fakeCanvas) Fit()                  { f.fits++ }
func (f *fakeCanvas) Highlight(id string)   { f.lit[id] = true }
func (f *fakeCanvas) Unhighlight(id string) { delete(f.lit, id) }

func (f *fakeCanvas) Flush(context.Context) error {
	f.flushes++
	return nil
}

func (f *fakeCanvas) highlighted() []string {
	var ids []string
	for id := range f.lit {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func newTestDispatcher() (*Dispatcher, *recorder, *fakeCanvas) {
	rec := &recorder{}
	canvas := &fakeCanvas{lit: map[string]bool{}}
	ctl := selection.New(rec, canvas, selection.Options{})
	return New(ctl, canvas, rec, Options{}), rec, canvas
}

// line joins fields with the default delimiter.
func line(fields ...string) string {
	return strings.Join(fields, protocol.DefaultDelimiter) + "\n"
}

func feed(t *testing.T, d *Dispatcher, lines ...string) {
	t.Helper()
	for _, l := range lines {
		_ = d.OnLine(context.Background(), l)
	}
}

func assertLines(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(want) == 0 {
		want = nil
	}
	if !slices.Equal(got, want) {
		t.Errorf("emitted %q, want %q", got, want)
	}
}

func TestDrawActivatesFlow(t *testing.T) {
	d, rec, canvas := newTestDispatcher()

	feed(t, d, line("draw", "flowA", "yes", "digraph { 1 -> head }"))

	if got := d.Controller().Current(); got != "flowA" {
		t.Errorf("Current() = %q, want flowA", got)
	}
	if canvas.dot != "digraph { 1 -> head }" {
		t.Errorf("canvas DOT = %q", canvas.dot)
	}
	if canvas.fits != 1 {
		t.Errorf("Fit called %d times, want 1", canvas.fits)
	}
	if !d.Controller().Known("flowA") {
		t.Error("flowA should have a selection entry after draw")
	}
	assertLines(t, rec.lines)
}

func TestDrawKeepsDelimiterInsideGraph(t *testing.T) {
	d, _, canvas := newTestDispatcher()

	feed(t, d, line("draw", "flowA", "yes", "digraph {", "}"))

	if want := "digraph {" + protocol.DefaultDelimiter + "}"; canvas.dot != want {
		t.Errorf("canvas DOT = %q, want %q", canvas.dot, want)
	}
}

func TestDrawWithoutKeepClearsOutgoingFlow(t *testing.T) {
	d, rec, _ := newTestDispatcher()
	ctx := context.Background()

	feed(t, d, line("draw", "flowA", "yes", "digraph {}"))
	d.OnClick(ctx, "1", false)
	rec.lines = nil

	feed(t, d, line("draw", "flowB", "no", "digraph {}"))
	assertLines(t, rec.lines, "unselect:")

	feed(t, d, line("draw", "flowA", "yes", "digraph {}"))
	if sel := d.Controller().Selection("flowA"); len(sel) != 0 {
		t.Errorf("Selection(flowA) = %v, want empty", sel)
	}
}

func TestDrawWithKeepRestoresSelection(t *testing.T) {
	d, _, canvas := newTestDispatcher()
	ctx := context.Background()

	feed(t, d, line("draw", "flowA", "yes", "digraph {}"))
	d.OnClick(ctx, "1", false)
	d.OnClick(ctx, "2", true)

	feed(t, d, line("draw", "flowB", "yes", "digraph {}"))
	if got := canvas.highlighted(); len(got) != 0 {
		t.Errorf("flowB highlights = %v, want none", got)
	}

	feed(t, d, line("draw", "flowA", "yes", "digraph {}"))
	if got := canvas.highlighted(); !slices.Equal(got, []string{"1", "2"}) {
		t.Errorf("restored highlights = %v, want [1 2]", got)
	}
	if got := d.Controller().Selection("flowA"); !slices.Equal(got, []selection.SnapshotID{"1", "2"}) {
		t.Errorf("Selection(flowA) = %v", got)
	}
}

func TestDrawInvalidGraphIsDropped(t *testing.T) {
	d, _, canvas := newTestDispatcher()
	ctx := context.Background()

	feed(t, d, line("draw", "flowA", "yes", "digraph {}"))
	d.OnClick(ctx, "1", false)

	err := d.OnLine(ctx, line("draw", "flowB", "no", "invalid"))
	if !errors.Is(err, errors.ErrCodeInvalidDOT) {
		t.Errorf("OnLine() error = %v, want INVALID_DOT", err)
	}
	if got := d.Controller().Current(); got != "flowA" {
		t.Errorf("Current() = %q, want flowA", got)
	}
	if canvas.dot != "digraph {}" {
		t.Errorf("canvas DOT = %q, want previous graph", canvas.dot)
	}
	if got := d.Controller().Selection("flowA"); len(got) != 1 {
		t.Errorf("Selection(flowA) = %v, want untouched", got)
	}
}

func TestRunIsSortedRegardlessOfClickOrder(t *testing.T) {
	tests := []struct {
		name   string
		clicks []string
	}{
		{"ascending", []string{"1", "2"}},
		{"descending", []string{"2", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, rec, _ := newTestDispatcher()
			ctx := context.Background()
			feed(t, d, line("draw", "flowA", "yes", "digraph {}"))
			for i, id := range tt.clicks {
				d.OnClick(ctx, id, i > 0)
			}
			rec.lines = nil

			feed(t, d, line("run", "single", "default"))
			assertLines(t, rec.lines, "run:single:default:1,2")
		})
	}
}

func TestRunWithEmptySelectionEmitsNothing(t *testing.T) {
	d, rec, _ := newTestDispatcher()
	feed(t, d,
		line("draw", "flowA", "yes", "digraph {}"),
		line("run", "single", "default"),
	)
	assertLines(t, rec.lines)
}

func TestDeleteCommand(t *testing.T) {
	d, rec, _ := newTestDispatcher()
	ctx := context.Background()

	feed(t, d, line("draw", "flowA", "yes", "digraph {}"))
	d.OnClick(ctx, "3", false)
	d.OnClick(ctx, "1", true)
	rec.lines = nil

	feed(t, d, line("delete", "ignored"))
	assertLines(t, rec.lines, "delete:3,1")

	rec.lines = nil
	d.OnClick(ctx, "head", true)
	rec.lines = nil
	feed(t, d, "delete\n")
	assertLines(t, rec.lines)
}

func TestUnselectAllCommand(t *testing.T) {
	d, rec, canvas := newTestDispatcher()
	ctx := context.Background()

	feed(t, d, line("draw", "flowA", "yes", "digraph {}"))
	d.OnClick(ctx, "1", false)
	rec.lines = nil

	feed(t, d, "unselect-all\n")
	assertLines(t, rec.lines, "unselect:")
	if got := canvas.highlighted(); len(got) != 0 {
		t.Errorf("highlights = %v, want none", got)
	}

	rec.lines = nil
	feed(t, d, "unselect-all\n")
	assertLines(t, rec.lines)
}

func TestBadLinesAreDropped(t *testing.T) {
	tests := []struct {
		name string
		line string
		code errors.Code
	}{
		{"unknown tag", line("zoom", "in"), errors.ErrCodeUnknownCommand},
		{"short draw", line("draw", "flowA"), errors.ErrCodeMalformedLine},
		{"bad keep flag", line("draw", "flowA", "maybe", "digraph {}"), errors.ErrCodeMalformedLine},
		{"short run", line("run", "single"), errors.ErrCodeMalformedLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, rec, canvas := newTestDispatcher()
			err := d.OnLine(context.Background(), tt.line)
			if !errors.Is(err, tt.code) {
				t.Errorf("OnLine() error = %v, want %s", err, tt.code)
			}
			assertLines(t, rec.lines)
			if canvas.flushes != 0 {
				t.Errorf("dropped line flushed the canvas")
			}
		})
	}
}

func TestEventsBeforeFirstDrawAreIgnored(t *testing.T) {
	d, rec, _ := newTestDispatcher()
	ctx := context.Background()

	d.OnClick(ctx, "1", false)
	if _, ok := d.OnMenu(ctx, "1"); ok {
		t.Error("OnMenu() should refuse before any draw")
	}
	assertLines(t, rec.lines)
}

func TestKeys(t *testing.T) {
	d, rec, _ := newTestDispatcher()
	ctx := context.Background()

	feed(t, d, line("draw", "flowA", "yes", "digraph {}"))
	d.OnClick(ctx, "2", false)
	rec.lines = nil

	d.OnKey(ctx, KeyDelete)
	d.OnKey(ctx, "f5")
	d.OnKey(ctx, KeyEscape)
	assertLines(t, rec.lines, "delete:2", "unselect:")
}

func TestHandleEvents(t *testing.T) {
	d, rec, canvas := newTestDispatcher()
	ctx := context.Background()
	feed(t, d, line("draw", "flowA", "yes", "digraph {}"))

	d.Handle(ctx, FocusEvent{In: true})
	d.Handle(ctx, ClickEvent{ID: "1"})

	var menu selection.Menu
	d.Handle(ctx, MenuEvent{ID: "1", Reply: func(m selection.Menu) { menu = m }})
	if menu.Target != "1" {
		t.Fatalf("menu target = %q, want 1", menu.Target)
	}
	if err := d.Handle(ctx, ChooseEvent{Menu: menu, Action: selection.Action{Kind: selection.ActionRevert}}); err != nil {
		t.Fatalf("Handle(ChooseEvent) error: %v", err)
	}
	d.Handle(ctx, FocusEvent{In: false})

	assertLines(t, rec.lines, "focus-in:", "select:", "revert:1", "focus-out:")
	if canvas.flushes == 0 {
		t.Error("handled events should flush the canvas")
	}
}

func TestOnChooseRejectsForeignAction(t *testing.T) {
	d, rec, _ := newTestDispatcher()
	ctx := context.Background()
	feed(t, d, line("draw", "flowA", "yes", "digraph {}"))

	m, ok := d.OnMenu(ctx, "head")
	if !ok {
		t.Fatal("OnMenu() refused a drawn flow")
	}
	err := d.OnChoose(ctx, m, selection.Action{Kind: selection.ActionDelete})
	if err != selection.ErrNotOffered {
		t.Errorf("OnChoose() error = %v, want ErrNotOffered", err)
	}
	err = d.Handle(ctx, ChooseEvent{Menu: m, Action: selection.Action{Kind: selection.ActionDelete}})
	if err != selection.ErrNotOffered {
		t.Errorf("Handle(ChooseEvent) error = %v, want ErrNotOffered", err)
	}
	assertLines(t, rec.lines)
}

func TestHandleReportsStaleMenu(t *testing.T) {
	d, rec, _ := newTestDispatcher()
	ctx := context.Background()
	feed(t, d, line("draw", "flowA", "yes", "digraph {}"))
	d.OnClick(ctx, "2", false)
	d.OnClick(ctx, "1", true)

	m, _ := d.OnMenu(ctx, "1")
	feed(t, d, "unselect-all\n")
	rec.lines = nil

	err := d.Handle(ctx, ChooseEvent{Menu: m, Action: selection.Action{Kind: selection.ActionRun, Mode: selection.ModeSequential}})
	if err != selection.ErrStaleMenu {
		t.Errorf("Handle(ChooseEvent) error = %v, want ErrStaleMenu", err)
	}
	assertLines(t, rec.lines)
}

func TestOnOversizedReportsMalformedLine(t *testing.T) {
	d, rec, canvas := newTestDispatcher()
	err := d.OnOversized(context.Background(), 3000, 1024)
	if !errors.Is(err, errors.ErrCodeMalformedLine) {
		t.Errorf("OnOversized() error = %v, want %s", err, errors.ErrCodeMalformedLine)
	}
	assertLines(t, rec.lines)
	if canvas.flushes != 0 {
		t.Errorf("dropped line flushed the canvas")
	}
}
