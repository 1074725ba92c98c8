package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/codefionn/bbqterm/internal/auth"
	"github.com/codefionn/bbqterm/internal/config"
	"github.com/codefionn/bbqterm/internal/debugserver"
	"github.com/codefionn/bbqterm/internal/diag"
	"github.com/codefionn/bbqterm/internal/logger"
	"github.com/codefionn/bbqterm/internal/notify"
	"github.com/codefionn/bbqterm/internal/pipeline"
	"github.com/codefionn/bbqterm/internal/securemem"
	"github.com/codefionn/bbqterm/internal/theme"
	"github.com/codefionn/bbqterm/internal/transport"
	"github.com/codefionn/bbqterm/internal/tui"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) (err error) {
	flags := pflag.NewFlagSet("bbqterm", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bbqterm [flags]\n\nLive view of student questions and feedback.\n\nFlags:\n")
		flags.PrintDefaults()
	}
	config.RegisterFlags(flags)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	interactive := !cfg.Plain && term.IsTerminal(int(os.Stdout.Fd()))

	// The full screen UI owns the terminal, so stderr logging is only
	// honoured in plain mode.
	logPath := cfg.LogPath
	if interactive && logPath == logger.StderrPath {
		logPath = ""
	}
	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), logPath); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err != nil {
			logger.Error("Fatal error: %v", err)
		}
		if closeErr := logger.Global().Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close logger: %v\n", closeErr)
		}
	}()

	session := uuid.NewString()[:8]
	log := logger.Global().WithPrefix(session)
	log.Info("starting bbqterm (server %s, queue capacity %d)", cfg.ServerURL, cfg.QueueCapacity)

	cred, err := auth.Load(cfg.CredentialPath)
	if err != nil {
		return err
	}
	defer securemem.Purge()
	defer cred.Destroy()
	log.Info("loaded credentials for user %s", cred.UserID)

	endpoint, err := cred.TeacherURL(cfg.ServerURL)
	if err != nil {
		return err
	}
	redacted := transport.RedactURL(endpoint)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := transport.DefaultOptions()
	opts.HandshakeTimeout = cfg.ConnectTimeout
	log.Info("connecting to %s", redacted)
	conn, err := transport.Dial(ctx, endpoint, opts)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info("connected to %s (%s)", redacted, conn.RemoteAddr())

	queue, err := pipeline.NewQueue(cfg.QueueCapacity)
	if err != nil {
		return err
	}

	var connected atomic.Bool
	connected.Store(true)

	if cfg.DebugAddr != "" {
		srv := debugserver.New(cfg.DebugAddr, func() debugserver.Health {
			h := debugserver.Health{Status: "ok", Session: session, Connected: connected.Load(), QueueDepth: queue.Len()}
			if !h.Connected {
				h.Status = "disconnected"
			}
			return h
		})
		if err := srv.Start(); err != nil {
			return err
		}
		defer srv.Stop()
		log.Info("debug server listening on %s", srv.Addr())
	}

	t, themeErr := theme.Load(cfg.ThemePath)
	if themeErr != nil {
		log.Warn("theme %s: %v, using defaults", cfg.ThemePath, themeErr)
	}

	var (
		renderer pipeline.Renderer
		ui       *tui.Renderer
		diagOut  io.Writer = os.Stderr
	)
	if interactive {
		ui = tui.NewRenderer(tui.New(tui.Options{
			Session:  session,
			Server:   transport.RedactURL(cfg.ServerURL),
			Theme:    t,
			Markdown: cfg.Markdown,
		}))
		renderer = ui
		diagOut = io.Discard
	} else {
		renderer = tui.NewPlainRenderer(os.Stdout)
	}

	stream := diag.NewStream(diagOut, log)
	if ui != nil {
		stream.SetTap(ui.Diagnostic)
	}

	aggOpts := []pipeline.AggregatorOption{pipeline.WithDiagnostics(stream), pipeline.WithLogger(log)}
	var notifier *notify.Notifier
	if cfg.Notify {
		notifier = notify.New()
		aggOpts = append(aggOpts, pipeline.WithNotifier(notifier))
		defer notifier.Wait()
	}

	receiver := pipeline.NewReceiver(conn, queue, stream, log)
	aggregator := pipeline.NewAggregator(queue, renderer, aggOpts...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// A blocked read only returns once the socket is closed.
	stopRead := context.AfterFunc(gctx, func() { _ = conn.Close() })
	defer stopRead()

	var streamErr error
	g.Go(func() error {
		err := receiver.Run(gctx)
		connected.Store(false)
		switch {
		case gctx.Err() != nil:
			return nil
		case err != nil:
			log.Error("stream failed: %v", err)
			streamErr = err
			if ui != nil {
				ui.SetStatus(tui.StatusFailed, err)
			}
		case ui != nil:
			ui.SetStatus(tui.StatusEnded, nil)
		}
		return nil
	})

	g.Go(func() error {
		err := aggregator.Run(gctx)
		if ui == nil {
			// Nothing left to show once the stream is drained.
			cancel()
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if ui != nil {
		g.Go(func() error {
			err := theme.Watch(gctx, cfg.ThemePath, func(t theme.Theme, err error) {
				if err != nil {
					log.Warn("theme reload failed: %v", err)
				}
				ui.SetTheme(t, err)
			})
			if err != nil {
				log.Warn("theme watcher stopped: %v", err)
			}
			return nil
		})

		g.Go(func() error {
			defer cancel()
			return ui.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("shutting down")
	return streamErr
}
