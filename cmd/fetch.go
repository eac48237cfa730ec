package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// fetchCmd pulls the loan records from the remote store into the local file.
type fetchCmd struct{}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "download loan records from the remote store" }
func (*fetchCmd) Usage() string {
	return `loandash fetch

  Downloads the loan-record array from the remote store and writes it to the
  local loans file.
`
}

func (*fetchCmd) SetFlags(_ *flag.FlagSet) {}

func (c *fetchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	st, err := newStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	records, err := st.FetchLoans(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching loans: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := EncodeLoanFile(records); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing loans: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Fetched %d loans into %s\n", len(records), *loansFile)
	return subcommands.ExitSuccess
}

// pushCmd uploads the local loan records to the remote store.
type pushCmd struct{}

func (*pushCmd) Name() string     { return "push" }
func (*pushCmd) Synopsis() string { return "upload the local loan records to the remote store" }
func (*pushCmd) Usage() string {
	return `loandash push

  Reads the local loans file and saves it to the remote store.
`
}

func (*pushCmd) SetFlags(_ *flag.FlagSet) {}

func (c *pushCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	st, err := newStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	records, err := DecodeLoanFile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading loans: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := st.SaveLoans(ctx, records); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving loans: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Saved %d loans to the store\n", len(records))
	return subcommands.ExitSuccess
}
