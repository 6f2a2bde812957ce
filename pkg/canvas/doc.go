// Package canvas is the rendering side of the revision graph viewer.
//
// A [Canvas] holds the graph currently shown, parsed from Graphviz DOT source
// with [github.com/goccy/go-graphviz], and the set of highlighted nodes. The
// selection controller drives it through Highlight and Unhighlight; the
// interactive front end reads its node list for hit-testing and its viewport
// for scrolling.
//
// # Rendering
//
// [Canvas.RenderSVG] lays the graph out with the dot engine and fills
// highlighted nodes with the configured color:
//
//	c, err := canvas.New(ctx, canvas.Options{})
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//	if err := c.Load(`digraph { head; r1 -> head }`); err != nil {
//	    return err
//	}
//	c.Highlight("r1")
//	svg, err := c.RenderSVG(ctx)
//
// # Preview
//
// With [Options.Publish] set, [Canvas.Flush] renders an immutable [Frame]
// after each change. [NewHandler] serves the latest frame over HTTP so the
// graph can be watched from a browser while the viewer runs headless.
package canvas
