package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	loans "github.com/jeff-stratofied/loan-dashboard"
	"github.com/jeff-stratofied/loan-dashboard/renderer"
)

// roiCmd holds the flags for the 'roi' subcommand.
type roiCmd struct {
	date string
}

func (*roiCmd) Name() string     { return "roi" }
func (*roiCmd) Synopsis() string { return "display the portfolio ROI timeline and KPIs" }
func (*roiCmd) Usage() string {
	return `loandash roi [-d <date>]

  Aligns every loan's ROI onto a shared monthly calendar and displays the
  invested-capital-weighted timeline and portfolio KPIs.
`
}

func (c *roiCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", loans.Today().String(), "Reference date for the KPIs.")
}

func (c *roiCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	tl, err := loans.BuildProjectedTimeline(all)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: some loans were skipped:\n%v\n", err)
	}
	kpis, _ := loans.ComputeKPIs(all, today)

	printMarkdown(renderer.ROIMarkdown(tl, kpis))
	return subcommands.ExitSuccess
}

// portfolioCmd holds the flags for the 'portfolio' subcommand.
type portfolioCmd struct {
	date string
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "display portfolio totals, expected income and TPV" }
func (*portfolioCmd) Usage() string {
	return `loandash portfolio [-d <date>]

  Displays the portfolio totals, the forward-looking expected-income
  projection and the Total-Portfolio-Value timeline.
`
}

func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", loans.Today().String(), "Reference date for the projection.")
}

func (c *portfolioCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	totals, err := loans.Totals(all, today)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: some loans were skipped:\n%v\n", err)
	}
	income, _ := loans.ExpectedIncome(all, today)
	tpv, _ := loans.BuildTPV(all)

	printMarkdown(renderer.PortfolioMarkdown(totals, income, tpv))
	return subcommands.ExitSuccess
}
