package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/jeff-stratofied/loan-dashboard/cmd"
)

func main() {
	// Shell completion: exits early when invoked by the completion hook.
	completion()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func completion() {
	reportFlags := map[string]complete.Predictor{
		"d":  predict.Nothing,
		"id": predict.Nothing,
	}
	root := &complete.Command{
		Sub: map[string]*complete.Command{
			"fetch":     {},
			"push":      {},
			"schedule":  {Flags: reportFlags},
			"earnings":  {Flags: reportFlags},
			"roi":       {Flags: reportFlags},
			"portfolio": {Flags: reportFlags},
			"serve":     {},
			"assist":    {Flags: reportFlags},
		},
		Flags: map[string]complete.Predictor{
			"loans-file": predict.Files("*.json"),
			"store-url":  predict.Nothing,
		},
	}
	root.Complete("loandash")
}
