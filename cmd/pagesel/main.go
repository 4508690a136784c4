// Command pagesel normalizes page range expressions and extracts pages from
// PDF files without running the server.
package main

import (
	"fmt"
	"os"

	"pagepicker/logging"
	"pagepicker/pagerange"
	"pagepicker/pdf"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  zerolog.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pagesel",
		Short: "Select and extract PDF pages by range expression",
		Long: `pagesel works with page range expressions such as "1-3, 5, 8-10".

Pages are 1-indexed. Tokens are separated by commas and are either a single
page or an inclusive range. Output is always in canonical form: ascending,
with consecutive pages merged into ranges.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if verbose {
				level = "debug"
			}
			logger = logging.New(logging.Config{
				Level:       level,
				Format:      "console",
				Output:      cmd.ErrOrStderr(),
				ServiceName: "pagesel",
			})
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(newNormalizeCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newRemoveCmd())

	return root
}

func newNormalizeCmd() *cobra.Command {
	var pageCount int

	cmd := &cobra.Command{
		Use:   "normalize EXPR",
		Short: "Validate an expression and print its canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			canonical, err := pagerange.Normalize(args[0], pageCount)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), canonical)
			return nil
		},
	}

	cmd.Flags().IntVarP(&pageCount, "count", "n", 0, "number of pages in the document")
	_ = cmd.MarkFlagRequired("count")

	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "Print the page count of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := processor().PageCount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pages: %d\nexample: %s\n", count, pagerange.Hint(count))
			return nil
		},
	}
}

func newExtractCmd() *cobra.Command {
	var pages string

	cmd := &cobra.Command{
		Use:   "extract IN OUT",
		Short: "Write a PDF containing only the selected pages",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc := processor()
			set, err := parseForFile(cmd, proc, args[0], pages)
			if err != nil {
				return err
			}
			if err := proc.Extract(cmd.Context(), args[0], args[1], set.Pages()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (pages %s)\n", args[1], set)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pages, "pages", "p", "", "pages to keep, e.g. \"1-3, 5\"")
	_ = cmd.MarkFlagRequired("pages")

	return cmd
}

func newRemoveCmd() *cobra.Command {
	var pages string

	cmd := &cobra.Command{
		Use:   "remove IN OUT",
		Short: "Write a PDF without the selected pages",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc := processor()
			set, err := parseForFile(cmd, proc, args[0], pages)
			if err != nil {
				return err
			}
			if err := proc.RemovePages(cmd.Context(), args[0], args[1], set.Pages()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (removed pages %s)\n", args[1], set)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pages, "pages", "p", "", "pages to remove, e.g. \"2, 4-6\"")
	_ = cmd.MarkFlagRequired("pages")

	return cmd
}

func processor() *pdf.Processor {
	return pdf.NewProcessor(pdf.WithLogger(logger))
}

func parseForFile(cmd *cobra.Command, proc *pdf.Processor, path, expr string) (pagerange.PageSet, error) {
	count, err := proc.PageCount(cmd.Context(), path)
	if err != nil {
		return pagerange.PageSet{}, err
	}
	set, err := pagerange.Parse(expr, count)
	if err != nil {
		return pagerange.PageSet{}, err
	}
	if set.IsEmpty() {
		return pagerange.PageSet{}, &pagerange.Error{Kind: pagerange.MalformedNumber}
	}
	logger.Debug().Str("pages", set.String()).Int("page_count", count).Msg("parsed selection")
	return set, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
