package dispatch

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	rgerrors "github.com/matzehuels/revgraph/pkg/errors"
	"github.com/matzehuels/revgraph/pkg/observability"
	"github.com/matzehuels/revgraph/pkg/selection"
)

type dropRecorder struct {
	observability.NoopDispatchHooks
	errs []error
}

func (r *dropRecorder) OnDrop(_ context.Context, _ string, err error) {
	r.errs = append(r.errs, err)
}

// waitDrawn sends menu events to the loop until one is answered. Menus are
// only computed once a flow has been drawn.
func waitDrawn(t *testing.T, events chan<- Event) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		got := make(chan struct{}, 1)
		events <- MenuEvent{ID: "head", Reply: func(selection.Menu) { got <- struct{}{} }}
		select {
		case <-got:
			return
		case <-deadline:
			t.Fatal("flow was never drawn")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestScanLines(t *testing.T) {
	var got []string
	err := ScanLines(strings.NewReader("a\nb\r\n\nc"), 0, func(l string) bool {
		got = append(got, l)
		return true
	}, nil)
	if err != nil {
		t.Fatalf("ScanLines() error: %v", err)
	}
	if strings.Join(got, "|") != "a|b||c" {
		t.Errorf("lines = %q", got)
	}
}

func TestScanLinesStops(t *testing.T) {
	n := 0
	err := ScanLines(strings.NewReader("a\nb\nc\n"), 0, func(string) bool {
		n++
		return n < 2
	}, nil)
	if err != nil || n != 2 {
		t.Errorf("ScanLines() = %v after %d lines, want nil after 2", err, n)
	}
}

func TestScanLinesSkipsOversizedLines(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		dropped []int
	}{
		{"oversized then valid", strings.Repeat("x", 3000) + "\nok\n", "ok", []int{3000}},
		{"oversized crlf", "a\r\n" + strings.Repeat("x", 1025) + "\r\nb", "a|b", []int{1025}},
		{"oversized final line", "a\n" + strings.Repeat("x", 2048), "a", []int{2048}},
		{"exactly at limit", strings.Repeat("y", 1024) + "\n", strings.Repeat("y", 1024), nil},
		{"several oversized", strings.Repeat("x", 1500) + "\n" + strings.Repeat("z", 70000) + "\nc\n", "c", []int{1500, 70000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			var dropped []int
			err := ScanLines(strings.NewReader(tt.input), 1024,
				func(l string) bool { got = append(got, l); return true },
				func(n int) bool { dropped = append(dropped, n); return true },
			)
			if err != nil {
				t.Fatalf("ScanLines() error: %v", err)
			}
			if strings.Join(got, "|") != tt.want {
				t.Errorf("lines = %q, want %q", strings.Join(got, "|"), tt.want)
			}
			if !slices.Equal(dropped, tt.dropped) {
				t.Errorf("dropped = %v, want %v", dropped, tt.dropped)
			}
		})
	}
}

func TestScanLinesOversizedCanStop(t *testing.T) {
	n := 0
	err := ScanLines(strings.NewReader(strings.Repeat("x", 2048)+"\nb\n"), 1024,
		func(string) bool { n++; return true },
		func(int) bool { return false },
	)
	if err != nil || n != 0 {
		t.Errorf("ScanLines() = %v after %d lines, want nil after 0", err, n)
	}
}

func TestLoopContinuesAfterOversizedLine(t *testing.T) {
	d, rec, _ := newTestDispatcher()
	drops := &dropRecorder{}
	observability.SetDispatchHooks(drops)
	t.Cleanup(observability.Reset)

	input := line("draw", "f", "yes", "digraph {}") +
		line("draw", "big", "yes", "digraph {"+strings.Repeat("a;", 1500)+"}") +
		line("draw", "g", "yes", "digraph {}")

	loop := &Loop{D: d, MaxLine: 1024}
	if err := loop.Run(context.Background(), strings.NewReader(input), nil); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := d.Controller().Current(); got != "g" {
		t.Errorf("Current() = %q, want g", got)
	}
	if len(drops.errs) != 1 || !rgerrors.Is(drops.errs[0], rgerrors.ErrCodeMalformedLine) {
		t.Errorf("drops = %v, want one malformed line", drops.errs)
	}
	assertLines(t, rec.lines)
}

func TestLoopRunsUntilEOF(t *testing.T) {
	d, rec, _ := newTestDispatcher()
	input := line("draw", "flowA", "yes", "digraph {}") +
		line("bogus") +
		"unselect-all\n"

	loop := &Loop{D: d}
	if err := loop.Run(context.Background(), strings.NewReader(input), nil); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := d.Controller().Current(); got != "flowA" {
		t.Errorf("Current() = %q, want flowA", got)
	}
	assertLines(t, rec.lines)
}

func TestLoopInterleavesEvents(t *testing.T) {
	d, rec, _ := newTestDispatcher()
	pr, pw := io.Pipe()
	events := make(chan Event)
	errc := make(chan error, 1)

	loop := &Loop{D: d}
	go func() { errc <- loop.Run(context.Background(), pr, events) }()

	if _, err := io.WriteString(pw, line("draw", "flowA", "yes", "digraph {}")); err != nil {
		t.Fatal(err)
	}
	waitDrawn(t, events)
	events <- ClickEvent{ID: "2"}
	events <- ClickEvent{ID: "1", Multi: true}
	if _, err := io.WriteString(pw, line("run", "parallel", "mpi")); err != nil {
		t.Fatal(err)
	}
	pw.Close()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after EOF")
	}
	assertLines(t, rec.lines, "select:", "select:", "run:parallel:mpi:1,2")
}

func TestLoopStopsOnCancel(t *testing.T) {
	d, _, _ := newTestDispatcher()
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- (&Loop{D: d}).Run(ctx, pr, nil) }()
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
