package main

import (
	"fmt"
	"time"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"github.com/urfave/cli/v2"

	"github.com/Swind/go-minirtos/core"
	"github.com/Swind/go-minirtos/demo"
	"github.com/Swind/go-minirtos/led"
)

func DumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Run the demo for a number of ticks and print a kernel snapshot as JSON",

		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "ticks",
				Aliases: []string{"n"},
				Value:   100,
				Usage:   "Number of ticks to deliver before the snapshot",
			},
			&cli.IntFlag{
				Name:  "recent",
				Value: 8,
				Usage: "Number of recent context switches to include",
			},
			&cli.BoolFlag{
				Name:  "compact",
				Usage: "Print the snapshot on one line",
			},
		},

		Action: DumpAction,
	}
}

func DumpAction(c *cli.Context) error {
	// 1. Get flags
	n := c.Int("ticks")
	recent := c.Int("recent")

	// 2. Validate (format only)
	if n < 0 {
		return cli.Exit("ticks must not be negative", 1)
	}

	// 3. Run the demo on manual ticks
	ticks := core.NewManualTickSource()
	out := led.NewDriver()
	k := core.NewKernelWithConfig(&core.KernelConfig{
		Logger:     core.NewNoOpLogger(),
		TickSource: ticks,
		IdleHook:   demo.IdleHook(out),
	})
	defer k.Shutdown()

	if _, err := demo.Install(k, out, nil); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	if err := k.StartScheduler(); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to start: %v", err), 1)
	}
	for i := 0; i < n; i++ {
		ticks.Tick()
		settle(k)
	}

	// 4. Format output
	doc, err := k.SnapshotJSON()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	var records []core.SwitchRecord
	if recent > 0 {
		records = k.RecentSwitches(recent)
	}
	if doc, err = appendSwitches(doc, records); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	if doc, err = sjson.Set(doc, "led", out.Color().String()); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	if c.Bool("compact") {
		fmt.Println(doc)
		return nil
	}
	fmt.Print(string(pretty.Pretty([]byte(doc))))
	return nil
}

// settle waits for the switch chosen by the last tick to complete, so that the
// next tick sees the tasks where they parked.
func settle(k *core.Kernel) {
	deadline := time.Now().Add(time.Second)
	quiet := 0
	for quiet < 3 && time.Now().Before(deadline) {
		if k.Stats().SwitchPending {
			quiet = 0
		} else {
			quiet++
		}
		time.Sleep(100 * time.Microsecond)
	}
}

func appendSwitches(doc string, records []core.SwitchRecord) (string, error) {
	doc, err := sjson.SetRaw(doc, "recent", "[]")
	if err != nil {
		return "", err
	}
	for _, r := range records {
		entry := "{}"
		for _, kv := range []struct {
			path  string
			value any
		}{
			{"seq", r.Seq},
			{"clock", r.Clock},
			{"from", int(r.From)},
			{"to", int(r.To)},
			{"origin", r.Origin.String()},
		} {
			if entry, err = sjson.Set(entry, kv.path, kv.value); err != nil {
				return "", err
			}
		}
		if doc, err = sjson.SetRaw(doc, "recent.-1", entry); err != nil {
			return "", err
		}
	}
	return doc, nil
}
