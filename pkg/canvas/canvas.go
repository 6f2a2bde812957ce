package canvas

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/revgraph/pkg/errors"
	"github.com/matzehuels/revgraph/pkg/observability"
)

// DefaultHighlightColor fills selected nodes in rendered SVG.
const DefaultHighlightColor = "#8ecae6"

// Node is a vertex of the rendered graph.
type Node struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Edge is a directed connection between two nodes.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// View is the viewport over the node list.
type View struct {
	// Offset is the index of the first visible node.
	Offset int
}

// Frame is an immutable rendering of the canvas, published for readers
// outside the event loop.
type Frame struct {
	Generation int
	SVG        []byte
	Nodes      []Node
	Edges      []Edge
}

// Options configures a Canvas.
type Options struct {
	// HighlightColor fills selected nodes. Empty selects DefaultHighlightColor.
	HighlightColor string
	// Publish renders an SVG [Frame] on every [Canvas.Flush] for HTTP preview.
	Publish bool
	// Logger receives debug logs. Nil discards them.
	Logger *log.Logger
}

// Canvas holds the graph currently shown and its highlighted nodes.
//
// All methods except [Canvas.Frame] must be called from the event loop.
type Canvas struct {
	gv    *graphviz.Graphviz
	opts  Options
	log   *log.Logger
	dot   string
	nodes []Node
	index map[string]int
	edges []Edge
	view  View
	gen   int
	dirty bool
	frame atomic.Pointer[Frame]
}

// New creates an empty canvas backed by an in-process Graphviz instance.
func New(ctx context.Context, opts Options) (*Canvas, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	if opts.HighlightColor == "" {
		opts.HighlightColor = DefaultHighlightColor
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	c := &Canvas{
		gv:    gv,
		opts:  opts,
		log:   opts.Logger,
		index: map[string]int{},
	}
	c.frame.Store(&Frame{})
	return c, nil
}

// Close releases the Graphviz instance.
func (c *Canvas) Close() error {
	return c.gv.Close()
}

// Load replaces the graph with dot. On a parse error the previous graph is
// kept. Highlights do not survive a load.
func (c *Canvas) Load(dot string) error {
	ctx := context.Background()
	start := time.Now()

	nodes, edges, err := parseGraph(dot)
	observability.Canvas().OnLoad(ctx, len(nodes), len(edges), time.Since(start), err)
	if err != nil {
		return err
	}

	c.dot = dot
	c.nodes = nodes
	c.edges = edges
	c.index = make(map[string]int, len(nodes))
	for i, n := range nodes {
		c.index[n.ID] = i
	}
	c.gen++
	c.dirty = true
	c.log.Debug("graph loaded", "nodes", len(nodes), "edges", len(edges))
	return nil
}

// parseGraph extracts nodes in declaration order and edges.
func parseGraph(dot string) ([]Node, []Edge, error) {
	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidDOT, err, "parse DOT")
	}
	defer g.Close()

	var (
		nodes []Node
		edges []Edge
	)
	n, err := g.FirstNode()
	for n != nil && err == nil {
		name, nerr := n.Name()
		if nerr != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidDOT, nerr, "read node name")
		}
		nodes = append(nodes, Node{ID: name, Label: nodeLabel(name, n.GetStr("label"))})

		e, eerr := g.FirstOut(n)
		for e != nil && eerr == nil {
			head, herr := e.Head()
			if herr != nil {
				return nil, nil, errors.Wrap(errors.ErrCodeInvalidDOT, herr, "read edge head")
			}
			to, terr := head.Name()
			if terr != nil {
				return nil, nil, errors.Wrap(errors.ErrCodeInvalidDOT, terr, "read edge head name")
			}
			edges = append(edges, Edge{From: name, To: to})
			e, eerr = g.NextOut(e)
		}
		if eerr != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidDOT, eerr, "walk edges")
		}

		n, err = g.NextNode(n)
	}
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidDOT, err, "walk nodes")
	}
	return nodes, edges, nil
}

// nodeLabel resolves the Graphviz default label "\N" to the node name.
func nodeLabel(name, label string) string {
	if label == "" || label == `\N` {
		return name
	}
	return label
}

// Fit resets the viewport so the whole graph is in view.
func (c *Canvas) Fit() {
	c.view = View{}
}

// View returns the current viewport.
func (c *Canvas) View() View { return c.view }

// ScrollTo moves the viewport so index is visible in a window of height rows.
func (c *Canvas) ScrollTo(index, height int) {
	if height <= 0 {
		return
	}
	switch {
	case index < c.view.Offset:
		c.view.Offset = index
	case index >= c.view.Offset+height:
		c.view.Offset = index - height + 1
	}
	if c.view.Offset < 0 {
		c.view.Offset = 0
	}
}

// Highlight marks id as selected. Unknown ids are ignored.
func (c *Canvas) Highlight(id string) { c.mark(id, true) }

// Unhighlight clears the selection mark of id. Unknown ids are ignored.
func (c *Canvas) Unhighlight(id string) { c.mark(id, false) }

func (c *Canvas) mark(id string, on bool) {
	i, ok := c.index[id]
	if !ok {
		c.log.Debug("mark ignored: node not in graph", "id", id)
		return
	}
	if c.nodes[i].Selected != on {
		c.nodes[i].Selected = on
		c.dirty = true
	}
}

// Generation increases on every successful Load.
func (c *Canvas) Generation() int { return c.gen }

// DOT returns the source of the current graph.
func (c *Canvas) DOT() string { return c.dot }

// Nodes returns the nodes in declaration order.
func (c *Canvas) Nodes() []Node { return slices.Clone(c.nodes) }

// Edges returns the edges of the current graph.
func (c *Canvas) Edges() []Edge { return slices.Clone(c.edges) }

// NodeAt hit-tests the node list: it returns the node shown at row index.
func (c *Canvas) NodeAt(index int) (Node, bool) {
	if index < 0 || index >= len(c.nodes) {
		return Node{}, false
	}
	return c.nodes[index], true
}

// Highlighted returns the ids of selected nodes in declaration order.
func (c *Canvas) Highlighted() []string {
	var ids []string
	for _, n := range c.nodes {
		if n.Selected {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// RenderSVG renders the current graph with highlighted nodes filled.
func (c *Canvas) RenderSVG(ctx context.Context) ([]byte, error) {
	if c.dot == "" {
		return nil, errors.New(errors.ErrCodeInvalidDOT, "no graph loaded")
	}
	return c.render(ctx, c.dot, c.Highlighted())
}

func (c *Canvas) render(ctx context.Context, dot string, selected []string) ([]byte, error) {
	start := time.Now()
	out, err := renderSVG(ctx, c.gv, dot, selected, c.opts.HighlightColor)
	observability.Canvas().OnRender(ctx, len(out), time.Since(start), err)
	return out, err
}

// Flush publishes a new Frame when the canvas changed and publishing is on.
func (c *Canvas) Flush(ctx context.Context) error {
	if !c.opts.Publish || !c.dirty || c.dot == "" {
		return nil
	}
	svg, err := c.RenderSVG(ctx)
	if err != nil {
		return err
	}
	c.dirty = false
	c.frame.Store(&Frame{
		Generation: c.gen,
		SVG:        svg,
		Nodes:      c.Nodes(),
		Edges:      c.Edges(),
	})
	return nil
}

// Frame returns the last published frame. It is safe to call from any
// goroutine.
func (c *Canvas) Frame() *Frame {
	return c.frame.Load()
}

// RenderFile renders dot with the given ids highlighted, without touching any
// canvas state. It is used by one-shot rendering.
func RenderFile(ctx context.Context, dot string, selected []string, color string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()
	if color == "" {
		color = DefaultHighlightColor
	}
	return renderSVG(ctx, gv, dot, selected, color)
}

func renderSVG(ctx context.Context, gv *graphviz.Graphviz, dot string, selected []string, color string) ([]byte, error) {
	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDOT, err, "parse DOT")
	}
	defer g.Close()

	n, err := g.FirstNode()
	for n != nil && err == nil {
		name, nerr := n.Name()
		if nerr == nil && slices.Contains(selected, name) {
			n.SetStyle(graphviz.FilledNodeStyle)
			n.SetFillColor(color)
		}
		n, err = g.NextNode(n)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDOT, err, "walk nodes")
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDOT, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing starts at the
// origin and scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
