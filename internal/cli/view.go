package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/revgraph/pkg/canvas"
	"github.com/matzehuels/revgraph/pkg/config"
	"github.com/matzehuels/revgraph/pkg/dispatch"
	"github.com/matzehuels/revgraph/pkg/protocol"
	"github.com/matzehuels/revgraph/pkg/selection"
)

// viewOpts holds the command-line flags for the view command.
type viewOpts struct {
	headless     bool   // read commands without a terminal UI
	httpAddr     string // preview server address
	redisAddr    string // intent mirror server
	redisChannel string // intent mirror channel
	logStderr    bool   // log to stderr alongside protocol lines
}

// viewCommand creates the view command that runs the viewer process.
//
// The parent editor starts it with its window handle and locale directory,
// writes commands to stdin and reads intents from stderr.
func (c *CLI) viewCommand() *cobra.Command {
	var opts viewOpts

	cmd := &cobra.Command{
		Use:   "view [window-handle] [locale-dir]",
		Short: "Run the graph viewer on stdin/stderr",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("http") {
				cfg.HTTPAddr = opts.httpAddr
			}
			if flags.Changed("redis") {
				cfg.RedisAddr = opts.redisAddr
			}
			if flags.Changed("redis-channel") {
				cfg.RedisChannel = opts.redisChannel
			}
			return c.runView(cmd.Context(), args, cfg, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.headless, "headless", false, "run without the terminal canvas")
	cmd.Flags().StringVar(&opts.httpAddr, "http", "", "serve an SVG preview on this address")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", "", "mirror emitted intents to this Redis server")
	cmd.Flags().StringVar(&opts.redisChannel, "redis-channel", protocol.DefaultRedisChannel, "Redis channel for mirrored intents")
	cmd.Flags().BoolVar(&opts.logStderr, "log-stderr", false, "log to stderr, interleaved with protocol output")

	return cmd
}

// viewer is one running viewer process and what it owns.
type viewer struct {
	session string
	logger  *log.Logger
	canvas  *canvas.Canvas
	d       *dispatch.Dispatcher
	closers []func() error
}

func (v *viewer) close() {
	for i := len(v.closers) - 1; i >= 0; i-- {
		if err := v.closers[i](); err != nil {
			v.logger.Debug("close failed", "err", err)
		}
	}
}

// newViewer wires the selection stack: output intents go to out and are
// mirrored to Redis when configured.
func (c *CLI) newViewer(ctx context.Context, cfg config.Config, out io.Writer, logw io.Writer) (*viewer, error) {
	session := uuid.NewString()
	logger := newLogger(logw, c.Logger.GetLevel()).With("session", session[:8])
	v := &viewer{session: session, logger: logger}

	var sinks []protocol.Sink
	if cfg.RedisAddr != "" {
		sink := protocol.NewRedisSink(cfg.RedisAddr, cfg.RedisChannel, session)
		sinks = append(sinks, sink)
		v.closers = append(v.closers, sink.Close)
		logger.Info("mirroring intents", "redis", cfg.RedisAddr, "channel", sink.Channel())
	}
	emitter := protocol.NewEmitter(out, logger, sinks...)

	cv, err := canvas.New(ctx, canvas.Options{
		HighlightColor: cfg.HighlightColor,
		Publish:        cfg.HTTPAddr != "",
		Logger:         logger,
	})
	if err != nil {
		v.close()
		return nil, err
	}
	v.canvas = cv
	v.closers = append(v.closers, cv.Close)

	ctl := selection.New(emitter, cv, selection.Options{Logger: logger, RunStyle: cfg.RunStyle})
	v.d = dispatch.New(ctl, cv, emitter, dispatch.Options{Delimiter: cfg.Delimiter, Logger: logger})
	return v, nil
}

func (c *CLI) runView(ctx context.Context, args []string, cfg config.Config, opts viewOpts) error {
	tty, ttyErr := openTTY(opts.headless)
	interactive := tty != nil
	if interactive {
		defer tty.Close()
	}

	logw, closeLog, err := logSink(cfg.LogFile, opts.logStderr, interactive)
	if err != nil {
		return err
	}
	defer closeLog()

	v, err := c.newViewer(ctx, cfg, os.Stderr, logw)
	if err != nil {
		return err
	}
	defer v.close()
	ctx = withLogger(ctx, v.logger)

	if len(args) > 0 {
		v.logger.Debug("launched by editor", "window", args[0], "locale", argOr(args, 1))
	}
	if ttyErr != nil {
		v.logger.Warn("no terminal, running headless", "err", ttyErr)
	}

	if cfg.HTTPAddr != "" {
		stop := servePreview(ctx, cfg.HTTPAddr, v.canvas)
		defer stop()
	}

	if !interactive {
		loop := &dispatch.Loop{D: v.d, MaxLine: cfg.MaxLineBytes}
		err = loop.Run(ctx, os.Stdin, nil)
	} else {
		err = runInteractive(ctx, v, os.Stdin, tty, cfg.MaxLineBytes)
	}
	v.logger.Info("viewer stopped")
	return err
}

// openTTY opens the controlling terminal for the interactive canvas. stdin
// and stderr belong to the protocol, so the canvas cannot use them.
func openTTY(headless bool) (*os.File, error) {
	if headless {
		return nil, nil
	}
	return os.OpenFile("/dev/tty", os.O_RDWR, 0)
}

// runInteractive drives the dispatcher from a bubbletea program. A reader
// goroutine forwards input lines into the program so lines and terminal
// events are handled by the same loop.
func runInteractive(ctx context.Context, v *viewer, in io.Reader, tty *os.File, maxLine int) error {
	model := NewViewerModel(ctx, v.d, v.canvas)
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(tty),
		tea.WithOutput(tty),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)

	go func() {
		if maxLine <= 0 {
			maxLine = dispatch.DefaultMaxLine
		}
		err := dispatch.ScanLines(in, maxLine,
			func(line string) bool {
				p.Send(lineMsg(line))
				return true
			},
			func(size int) bool {
				p.Send(oversizedLineMsg{size: size, limit: maxLine})
				return true
			},
		)
		p.Send(inputClosedMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if m, ok := final.(ViewerModel); ok {
		return m.Err
	}
	return nil
}

// servePreview starts the HTTP preview server and returns a function that
// shuts it down.
func servePreview(ctx context.Context, addr string, src canvas.FrameSource) func() {
	logger := loggerFromContext(ctx)
	srv := &http.Server{
		Addr:              addr,
		Handler:           canvas.NewHandler(src),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving preview", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("preview server failed", "err", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

func argOr(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
