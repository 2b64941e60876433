// Command minirtos runs the blinking-LED demo on the kernel and dumps kernel
// snapshots for debugging.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "minirtos",
		Usage: "preemptive priority task kernel demo",
		Commands: []*cli.Command{
			RunCommand(),
			DumpCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
