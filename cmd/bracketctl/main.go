package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "bracketctl",
		Usage: "manage start.gg bracket sets from the terminal",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log start.gg requests",
			},
		},
		Commands: []*cli.Command{
			tournamentsCommand(),
			eventsCommand(),
			setsCommand(),
			startCommand(),
			resetCommand(),
			reportCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
