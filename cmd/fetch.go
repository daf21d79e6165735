package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/apodctl/apod"
	"github.com/s0up4200/apodctl/filter"
	"github.com/s0up4200/apodctl/output"
)

var explain bool

// todayCmd represents the today command
var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's picture",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cmd, selection{})
	},
}

// dateCmd represents the date command
var dateCmd = &cobra.Command{
	Use:   "date YYYY-MM-DD",
	Short: "Show the picture for a single date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cmd, selection{date: args[0]})
	},
}

// rangeCmd represents the range command
var rangeCmd = &cobra.Command{
	Use:   "range START [END]",
	Short: "List the pictures between two dates",
	Long: `List the pictures between two dates, inclusive.

END defaults to the latest published date.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sel := selection{start: args[0]}
		if len(args) == 2 {
			sel.end = args[1]
		}
		return runFetch(cmd, sel)
	},
}

// randomCmd represents the random command
var randomCmd = &cobra.Command{
	Use:   "random [N]",
	Short: "Show N random pictures",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := 1
		if len(args) == 1 {
			var err error
			if n, err = strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("invalid count %q: %w", args[0], err)
			}
		}
		return runFetch(cmd, selection{count: n, random: true})
	},
}

// permalinkCmd represents the permalink command
var permalinkCmd = &cobra.Command{
	Use:   "permalink [YYYY-MM-DD]",
	Short: "Print the apod.nasa.gov page for a date",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPermalink,
}

func init() {
	for _, c := range []*cobra.Command{todayCmd, dateCmd, rangeCmd, randomCmd} {
		c.Flags().BoolVarP(&explain, "explain", "e", false, "include the explanation text")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(permalinkCmd)
}

// selection names which entries to fetch. The zero value means today.
type selection struct {
	date   string
	start  string
	end    string
	count  int
	random bool
}

// fetch runs the client operation matching sel
func fetch(ctx context.Context, sel selection) (*apod.Response, error) {
	switch {
	case sel.random:
		return client.FetchByCount(ctx, sel.count)
	case sel.start != "":
		start, err := apod.ParseDate(sel.start)
		if err != nil {
			return nil, err
		}
		var end time.Time
		if sel.end != "" {
			if end, err = apod.ParseDate(sel.end); err != nil {
				return nil, err
			}
		}
		return client.FetchByDateRange(ctx, start, end)
	case sel.date != "":
		d, err := apod.ParseDate(sel.date)
		if err != nil {
			return nil, err
		}
		return client.FetchByDate(ctx, d)
	default:
		return client.FetchToday(ctx)
	}
}

func runFetch(cmd *cobra.Command, sel selection) error {
	entries, err := fetchEntries(cmd, sel)
	if err != nil {
		return err
	}
	return printEntries(cmd, entries)
}

// fetchEntries fetches and filters entries, printing classified API errors
func fetchEntries(cmd *cobra.Command, sel selection) ([]apod.Entry, error) {
	// Compile the filter before spending a request on it
	f, err := filters.Resolve(filterExpr, preset)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}

	resp, err := fetch(cmd.Context(), sel)
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		fmt.Fprint(cmd.ErrOrStderr(), formatter.FormatError(resp.Error))
		return nil, errReported
	}

	entries, err := filter.Apply(f, resp.Entries)
	if err != nil {
		return nil, err
	}

	if f != nil {
		logger.Debug().
			Str("filter", f.Expression()).
			Int("matched", len(entries)).
			Int("total", len(resp.Entries)).
			Msg("Applied filter")
	}

	return entries, nil
}

func printEntries(cmd *cobra.Command, entries []apod.Entry) error {
	w := cmd.OutOrStdout()

	if jsonOutput {
		return output.WriteJSON(w, entries)
	}

	if cfg.Output.Layout == "table" && len(entries) > 0 {
		table := output.NewEntryTable(w)
		table.AddEntries(entries)
		return table.Render()
	}

	fmt.Fprint(w, formatter.FormatEntryList(entries, output.FormatOptions{
		ShowExplanation: explain || cfg.Output.Explanation,
		ShowURLs:        cfg.Output.URLs,
	}))
	return nil
}

func runPermalink(cmd *cobra.Command, args []string) error {
	window := client.Window()

	d := window.Last
	if len(args) == 1 {
		var err error
		if d, err = apod.ParseDate(args[0]); err != nil {
			return err
		}
	}

	if info := apod.NewValidator(window).ValidateDate(d); !info.IsNone() {
		fmt.Fprint(cmd.ErrOrStderr(), formatter.FormatError(info))
		return errReported
	}

	fmt.Fprintln(cmd.OutOrStdout(), apod.PermalinkForDate(d))
	return nil
}
