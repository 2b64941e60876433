package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/Swind/go-minirtos/core"
	"github.com/Swind/go-minirtos/demo"
	"github.com/Swind/go-minirtos/led"
	promexporter "github.com/Swind/go-minirtos/observability/prometheus"
	"github.com/Swind/go-minirtos/script"
)

const (
	displayAuto     = "auto"
	displayTerminal = "terminal"
	displayLog      = "log"
	displayNone     = "none"
)

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the blinking-LED demo",

		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Usage:   "Stop after this long (0 runs until interrupted)",
			},
			&cli.StringFlag{
				Name:  "display",
				Value: displayAuto,
				Usage: "LED display: auto, terminal, log or none",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (e.g. :9100)",
			},
			&cli.StringFlag{
				Name:    "script",
				Aliases: []string{"s"},
				Usage:   "Lua script to run as the body of every LED task",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Trace context switches on the debug channel",
			},
		},

		Action: RunAction,
	}
}

func RunAction(c *cli.Context) error {
	// 1. Get flags
	display := c.String("display")
	if display == displayAuto {
		display = displayLog
		if term.IsTerminal(int(os.Stdout.Fd())) {
			display = displayTerminal
		}
	}

	// 2. Validate (format only)
	switch display {
	case displayTerminal, displayLog, displayNone:
	default:
		return cli.Exit(fmt.Sprintf("unknown display %q", display), 1)
	}

	// 3. Wire the kernel
	var logger core.Logger = core.NewDefaultLogger()
	if c.Bool("debug") || display == displayLog {
		logger = core.NewDebugLogger(log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds))
	}

	var sinks []led.Sink
	var panel *led.TerminalPanel
	switch display {
	case displayTerminal:
		var err error
		if panel, err = led.OpenTerminalPanel(led.DefaultPalette()); err != nil {
			return cli.Exit(fmt.Sprintf("Failed to open terminal: %v", err), 1)
		}
		defer panel.Close()
		sinks = append(sinks, panel)
		// Keep log lines off the panel.
		logger = core.NewNoOpLogger()
	case displayLog:
		sinks = append(sinks, led.NewLogSink(logger))
	}
	out := led.NewDriver(sinks...)

	config := core.DefaultKernelConfig()
	config.Logger = logger
	config.IdleHook = demo.IdleHook(out)

	reg := prom.NewRegistry()
	if addr := c.String("metrics-addr"); addr != "" {
		exporter, err := promexporter.NewMetricsExporter("minirtos", reg, promexporter.ExporterOptions{})
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to register metrics: %v", err), 1)
		}
		config.Metrics = exporter
	}

	k := core.NewKernelWithConfig(config)
	defer k.Shutdown()

	body := demo.BlinkingLED(out, logger)
	if path := c.String("script"); path != "" {
		prog, err := script.CompileFile(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to load script: %v", err), 1)
		}
		body = prog.Task(script.Env{LED: out, Logger: logger})
	}
	if _, err := demo.InstallTasks(k, body); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := c.Duration("duration"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	if addr := c.String("metrics-addr"); addr != "" {
		poller, err := promexporter.NewSnapshotPoller(reg, time.Second)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to register metrics: %v", err), 1)
		}
		poller.AddKernel("demo", k)
		poller.Start(ctx)
		defer poller.Stop()

		server := &http.Server{Addr: addr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", core.F("addr", addr), core.F("error", err))
			}
		}()
		defer server.Close()
	}

	if panel != nil {
		go panel.WatchQuit(stop)
		go showStatus(ctx, panel, k)
	}

	// 4. Run
	if err := k.StartScheduler(); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to start: %v", err), 1)
	}
	waitForHalt(ctx, k)

	if err := k.Err(); err != nil {
		return cli.Exit(fmt.Sprintf("kernel halted: %v", err), 1)
	}

	// 5. Format output
	if panel == nil {
		stats := k.Stats()
		fmt.Printf("✓ Stopped at tick %d after %d context switches (LED changed %d times)\n",
			stats.Clock, stats.SwitchesCompleted, out.Changes())
	}
	return nil
}

func showStatus(ctx context.Context, panel *led.TerminalPanel, k *core.Kernel) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := k.Stats()
			name := "-"
			if ts, ok := stats.Task(stats.Current); ok {
				name = ts.Name
			}
			panel.SetStatus(fmt.Sprintf("tick %d  running %s  switches %d  (q to quit)",
				stats.Clock, name, stats.SwitchesCompleted))
		}
	}
}

// waitForHalt returns when ctx is done or the kernel halts.
func waitForHalt(ctx context.Context, k *core.Kernel) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if k.Halted() {
				return
			}
		}
	}
}
