package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/revgraph/pkg/cache"
	"github.com/matzehuels/revgraph/pkg/canvas"
	"github.com/matzehuels/revgraph/pkg/errors"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path; defaults to the input with .svg
	selected []string // node ids to highlight
	color    string   // highlight fill color
	noCache  bool     // bypass the artifact cache
}

// renderCacheTTL bounds how long a rendered artifact is reused.
const renderCacheTTL = 7 * 24 * time.Hour

// renderCommand creates the render command for one-shot SVG output of a DOT
// file, with the given snapshots drawn as selected.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file.dot]",
		Short: "Render a revision graph to SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.color == "" {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				opts.color = cfg.HighlightColor
			}
			for _, id := range opts.selected {
				if err := errors.ValidateID(id); err != nil {
					return err
				}
			}
			return c.runRender(withLogger(cmd.Context(), c.Logger), args[0], opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input with .svg extension)")
	cmd.Flags().StringSliceVarP(&opts.selected, "select", "s", nil, "snapshot ids to highlight (comma-separated)")
	cmd.Flags().StringVar(&opts.color, "color", "", "highlight fill color (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "always render, ignoring cached output")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts, cmd *cobra.Command) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	store := newCache(ctx, opts.noCache)
	defer store.Close()

	key := cache.RenderKey(string(data), opts.selected, opts.color)
	svg, hit, err := store.Get(ctx, key)
	if err != nil {
		logger.Debug("cache read failed", "err", err)
	}
	if !hit {
		if svg, err = canvas.RenderFile(ctx, string(data), opts.selected, opts.color); err != nil {
			return err
		}
		if err := store.Set(ctx, key, svg); err != nil {
			logger.Debug("cache write failed", "err", err)
		}
	} else {
		logger.Debug("using cached rendering", "key", key)
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + ".svg"
	}
	if err := os.WriteFile(out, svg, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	prog.done(fmt.Sprintf("Rendered %d bytes of SVG", len(svg)))
	w := cmd.OutOrStdout()
	printSuccess(w, "Rendered %s (%d selected)", filepath.Base(input), len(opts.selected))
	printFile(w, out)
	return nil
}

// newCache opens the artifact cache, falling back to no caching when the
// cache directory is unavailable.
func newCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cache.Dir()
	if err == nil {
		var fc *cache.FileCache
		if fc, err = cache.NewFileCache(dir, renderCacheTTL); err == nil {
			return fc
		}
	}
	loggerFromContext(ctx).Debug("render cache disabled", "err", err)
	return cache.NewNullCache()
}
