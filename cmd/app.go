// Package cmd implements the CLI application to manage the loan dashboard.
package cmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"go.uber.org/zap"

	loans "github.com/jeff-stratofied/loan-dashboard"
	"github.com/jeff-stratofied/loan-dashboard/store"
)

// Commands lists the subcommands a main package registers.
var Commands = []subcommands.Command{
	&fetchCmd{},
	&pushCmd{},
	&scheduleCmd{},
	&earningsCmd{},
	&roiCmd{},
	&portfolioCmd{},
	&serveCmd{},
	&assistCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var loansFile = flag.String("loans-file", "loans.json", "Path to the local loan-record file (JSON array)")
var storeURL = flag.String("store-url", os.Getenv("LOANDASH_STORE_URL"), "URL of the remote loan store")
var storeKey = flag.String("store-key", os.Getenv("LOANDASH_STORE_KEY"), "Access key for the remote loan store")
var verbose = flag.Bool("v", false, "Verbose logging for store operations")

// logger returns the CLI logger for store operations.
func logger() *zap.Logger {
	if !*verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// newStore creates the store client from the global flags.
func newStore() (*store.Client, error) {
	if *storeURL == "" {
		return nil, fmt.Errorf("no store URL: set -store-url or LOANDASH_STORE_URL")
	}
	return store.New(store.Config{BaseURL: *storeURL, APIKey: *storeKey}, logger()), nil
}

// DecodeLoanFile reads the local loan-record file.
func DecodeLoanFile() ([]loans.LoanRecord, error) {
	data, err := os.ReadFile(*loansFile)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", *loansFile, err)
	}
	var records []loans.LoanRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%q is not a loan-record array: %w", *loansFile, err)
	}
	return records, nil
}

// EncodeLoanFile writes the local loan-record file.
func EncodeLoanFile(records []loans.LoanRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(*loansFile, data, 0644); err != nil {
		return fmt.Errorf("writing %q: %w", *loansFile, err)
	}
	return nil
}

// loadLoans reads and normalizes the local loan file. Per-loan normalization
// failures are reported to stderr but do not abort the batch.
func loadLoans() ([]*loans.Loan, error) {
	records, err := DecodeLoanFile()
	if err != nil {
		return nil, err
	}
	normalized, err := loans.NormalizeAll(records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: some loans were skipped:\n%v\n", err)
	}
	return normalized, nil
}

// findLoan returns the loan with the given id.
func findLoan(all []*loans.Loan, id string) (*loans.Loan, error) {
	for _, l := range all {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, fmt.Errorf("no loan with id %q in %q", id, *loansFile)
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when rendering fails (e.g. no TTY).
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}

// parseToday parses the -d flag shared by report commands.
func parseToday(str string) (loans.Date, error) {
	on, err := loans.ParseDate(str)
	if err != nil {
		return loans.Date{}, fmt.Errorf("invalid date: %w", err)
	}
	return on, nil
}
