package canvas

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const previewPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>revgraph</title>
<style>body{margin:0;font-family:sans-serif}img{max-width:100%;height:auto}</style>
</head>
<body>
<img id="graph" src="graph.svg" alt="revision graph">
<script>
let gen = null;
setInterval(async () => {
  const r = await fetch("nodes");
  const g = r.headers.get("X-Generation") + ":" + (await r.text());
  if (g !== gen) { gen = g; document.getElementById("graph").src = "graph.svg?" + Date.now(); }
}, 1000);
</script>
</body>
</html>
`

// FrameSource provides the latest published frame.
type FrameSource interface {
	Frame() *Frame
}

// NewHandler returns a read-only HTTP preview of the frames published by src:
//
//	GET /           page that polls and displays the graph
//	GET /graph.svg  current SVG, 204 before the first frame
//	GET /nodes      current nodes and edges as JSON
func NewHandler(src FrameSource) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(previewPage))
	})

	r.Get("/graph.svg", func(w http.ResponseWriter, _ *http.Request) {
		f := src.Frame()
		if f == nil || len(f.SVG) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Generation", strconv.Itoa(f.Generation))
		_, _ = w.Write(f.SVG)
	})

	r.Get("/nodes", func(w http.ResponseWriter, _ *http.Request) {
		f := src.Frame()
		if f == nil {
			f = &Frame{}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Generation", strconv.Itoa(f.Generation))
		_ = json.NewEncoder(w).Encode(struct {
			Nodes []Node `json:"nodes"`
			Edges []Edge `json:"edges"`
		}{f.Nodes, f.Edges})
	})

	return r
}
