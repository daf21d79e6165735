package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/apodctl/download"
)

var (
	dlDate        string
	dlStart       string
	dlEnd         string
	dlCount       int
	dlDir         string
	dlHD          bool
	dlConcurrency int
	dlOverwrite   bool
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download pictures to disk",
	Long: `Download the images of the selected entries. Videos are skipped.

Without a selector, today's picture is downloaded. Files are named after the
entry date, e.g. 2019-11-16.jpg.`,
	Example: `  apodctl download --start 2024-01-01 --end 2024-01-31 --dir ./january
  apodctl download --count 10 --filter 'isImage() and hasHD()' --hd`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVar(&dlDate, "date", "", "download a single date (YYYY-MM-DD)")
	downloadCmd.Flags().StringVar(&dlStart, "start", "", "first date of a range (YYYY-MM-DD)")
	downloadCmd.Flags().StringVar(&dlEnd, "end", "", "last date of a range (YYYY-MM-DD, requires --start)")
	downloadCmd.Flags().IntVar(&dlCount, "count", 0, "download N random entries")
	downloadCmd.Flags().StringVar(&dlDir, "dir", "", "target directory (default from config)")
	downloadCmd.Flags().BoolVar(&dlHD, "hd", false, "prefer the high resolution image")
	downloadCmd.Flags().IntVar(&dlConcurrency, "concurrency", 0, "parallel downloads (default from config)")
	downloadCmd.Flags().BoolVar(&dlOverwrite, "overwrite", false, "replace files that already exist")

	downloadCmd.MarkFlagsMutuallyExclusive("date", "start", "count")
	downloadCmd.MarkFlagsMutuallyExclusive("date", "end")
	downloadCmd.MarkFlagsMutuallyExclusive("count", "end")
}

func runDownload(cmd *cobra.Command, args []string) error {
	if dlEnd != "" && dlStart == "" {
		return fmt.Errorf("--end requires --start")
	}

	sel := selection{date: dlDate, start: dlStart, end: dlEnd}
	if cmd.Flags().Changed("count") {
		sel.count = dlCount
		sel.random = true
	}

	entries, err := fetchEntries(cmd, sel)
	if err != nil {
		return err
	}

	opts := download.Options{
		Dir:         cfg.Download.Dir,
		Concurrency: cfg.Download.Concurrency,
		HD:          cfg.Download.HD,
		Overwrite:   dlOverwrite,
		Logger:      logger,
	}
	if dlDir != "" {
		opts.Dir = dlDir
	}
	if dlConcurrency > 0 {
		opts.Concurrency = dlConcurrency
	}
	if cmd.Flags().Changed("hd") {
		opts.HD = dlHD
	}

	logger.Info().
		Int("entries", len(entries)).
		Str("dir", opts.Dir).
		Msg("Downloading entries")

	result, err := download.New(opts).Download(cmd.Context(), entries)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDownloadResult(result))

	if len(result.Failed) > 0 {
		return fmt.Errorf("%d of %d downloads failed", len(result.Failed), result.Requested)
	}
	return nil
}
