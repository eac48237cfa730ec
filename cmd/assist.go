package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"google.golang.org/genai"

	loans "github.com/jeff-stratofied/loan-dashboard"
	"github.com/jeff-stratofied/loan-dashboard/agent"
	"github.com/jeff-stratofied/loan-dashboard/renderer"
)

// assistCmd is the subcommand for the AI portfolio analyst.
type assistCmd struct {
	date string
}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "start an interactive session with the portfolio analyst" }
func (*assistCmd) Usage() string {
	return `loandash assist [-d <date>] [question]

  Starts an interactive session with the AI analyst, seeded with the current
  portfolio reports. Requires Gemini credentials in the environment.
`
}

func (c *assistCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", loans.Today().String(), "Reference date for the seeded reports.")
}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	today, err := parseToday(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	all, err := loadLoans()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading loans: %v\n", err)
		return subcommands.ExitFailure
	}

	// Seed the analyst with the same reports the other commands display.
	tl, _ := loans.BuildProjectedTimeline(all)
	kpis, _ := loans.ComputeKPIs(all, today)
	totals, _ := loans.Totals(all, today)
	income, _ := loans.ExpectedIncome(all, today)
	tpv, _ := loans.BuildTPV(all)
	report := renderer.ROIMarkdown(tl, kpis) + "\n" + renderer.PortfolioMarkdown(totals, income, tpv)

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini client:", err)
		return subcommands.ExitFailure
	}

	var prompts []string
	if f.NArg() > 0 {
		prompts = append(prompts, strings.Join(f.Args(), " "))
	}

	a := agent.NewAnalyst(report)
	if err := a.Run(ctx, client, os.Stdout, os.Stdin, prompts...); err != nil {
		fmt.Fprintln(os.Stderr, "Analyst failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
