package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qanoonbuddy/backend/internal/cli/ui"
	"github.com/qanoonbuddy/backend/internal/model/caselaw"
)

func newSearchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "search the case law catalog",
		Example: `  $ qanoonctl search PECA
  $ qanoonctl search "income tax"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			results, err := opts.app.Legal.SearchCases(strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(results) == 0 {
				ui.PrintWarning(out, "No cases found. Try keywords like 'family', 'tax', 'cyber', or 'khula'.")
				return nil
			}
			ui.PrintSuccess(out, "Found %d case(s)", len(results))
			printRecords(out, results)
			return nil
		},
	}
}

func newCasesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cases",
		Short: "list the whole case law catalog with its index numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for i, rec := range opts.app.Legal.Cases() {
				fmt.Fprintf(out, "[%d] %s (%d), %s\n", i, rec.Title, rec.Year, rec.Citation)
			}
			return nil
		},
	}
}

func newExplainCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <index>",
		Short: "explain a catalog case in plain language",
		Example: `  $ qanoonctl cases
  $ qanoonctl explain 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index must be a number, got %q", args[0])
			}
			explanation, err := opts.app.Legal.ExplainCase(cmd.Context(), index, opts.apiKey)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ui.PrintBold(out, "%s (%d)", explanation.Case.Title, explanation.Case.Year)
			fmt.Fprintln(out, explanation.Explanation)
			return nil
		},
	}
}

func printRecords(out io.Writer, records []caselaw.Record) {
	for _, rec := range records {
		fmt.Fprintln(out)
		ui.PrintBold(out, "%s (%d)", rec.Title, rec.Year)
		fmt.Fprintf(out, "  Citation: %s\n", rec.Citation)
		fmt.Fprintf(out, "  Tags: %s\n", strings.Join(rec.Tags, ", "))
		fmt.Fprintf(out, "  %s\n", rec.Summary)
	}
}
