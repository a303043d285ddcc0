package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qanoonbuddy/backend/internal/cli/ui"
	"github.com/qanoonbuddy/backend/internal/service/ai"
	"github.com/qanoonbuddy/backend/internal/service/legal"
)

func newSummarizeCmd(opts *options) *cobra.Command {
	var (
		lang        string
		chunked     bool
		showPreview bool
	)

	cmd := &cobra.Command{
		Use:   "summarize <file.pdf>",
		Short: "summarize a PDF judgment or legal document",
		Example: `  $ qanoonctl summarize order.pdf
  $ qanoonctl summarize order.pdf --lang ur --chunked`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			language, err := ai.ParseLanguage(lang)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			summary, err := opts.app.Legal.SummarizeDocument(cmd.Context(), data, legal.SummaryRequest{
				Language:   language,
				Chunked:    chunked,
				Credential: opts.apiKey,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ui.PrintInfo(out, "Extracted %d characters", summary.ExtractedChars)
			if summary.Truncated {
				ui.PrintWarning(out, "Only the first %d characters were summarized; use --chunked for the full text", summary.UsedChars)
			}
			if showPreview {
				ui.PrintBold(out, "Preview")
				fmt.Fprintln(out, summary.Preview)
				fmt.Fprintln(out)
			}
			ui.PrintBold(out, "Summary")
			fmt.Fprintln(out, summary.Text)
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "en", "summary language: en or ur")
	cmd.Flags().BoolVar(&chunked, "chunked", false, "summarize the whole document part by part")
	cmd.Flags().BoolVar(&showPreview, "preview", false, "print the first part of the extracted text")
	return cmd
}

func newTranslateCmd(opts *options) *cobra.Command {
	var direction string

	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "translate legal text between English and Urdu",
		Example: `  $ qanoonctl translate "The bail application is accepted."
  $ qanoonctl translate --direction ur-en "ضمانت منظور کی جاتی ہے"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := ai.ParseDirection(direction)
			if err != nil {
				return err
			}
			out, err := opts.app.Legal.Translate(cmd.Context(), strings.Join(args, " "), dir, opts.apiKey)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&direction, "direction", "d", string(ai.EnglishToUrdu), "en-ur or ur-en")
	return cmd
}
