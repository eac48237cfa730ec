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

// scheduleCmd holds the flags for the 'schedule' subcommand.
type scheduleCmd struct {
	id string
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "display a loan's amortization schedule" }
func (*scheduleCmd) Usage() string {
	return `loandash schedule -id <loan>

  Rebuilds and displays the month-by-month amortization schedule of a loan,
  including grace, deferral and default months.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Loan id to report on.")
}

func (c *scheduleCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	all, err := loadLoans()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading loans: %v\n", err)
		return subcommands.ExitFailure
	}
	loan, err := findLoan(all, c.id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	rows, err := loans.BuildSchedule(loan)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building schedule: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.ScheduleMarkdown(loan, rows))
	return subcommands.ExitSuccess
}

// earningsCmd holds the flags for the 'earnings' subcommand.
type earningsCmd struct {
	id   string
	date string
}

func (*earningsCmd) Name() string     { return "earnings" }
func (*earningsCmd) Synopsis() string { return "display a loan's earnings timeline" }
func (*earningsCmd) Usage() string {
	return `loandash earnings -id <loan> [-d <date>]

  Derives and displays the earnings timeline of a loan, with the canonical
  current row as of the given date.
`
}

func (c *earningsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Loan id to report on.")
	f.StringVar(&c.date, "d", loans.Today().String(), "Reference date for the report.")
}

func (c *earningsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	loan, err := findLoan(all, c.id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	schedule, err := loans.BuildSchedule(loan)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building schedule: %v\n", err)
		return subcommands.ExitFailure
	}

	rows := loans.BuildEarnings(loan, schedule)
	printMarkdown(renderer.EarningsMarkdown(loan, rows, today))
	return subcommands.ExitSuccess
}
