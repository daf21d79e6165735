package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/apodctl/apod"
	"github.com/s0up4200/apodctl/config"
	"github.com/s0up4200/apodctl/filter"
	"github.com/s0up4200/apodctl/metrics"
	"github.com/s0up4200/apodctl/output"
)

// errReported marks a failure that has already been printed
var errReported = errors.New("reported")

var (
	cfgFile   string
	cfg       *config.Config
	logger    zerolog.Logger
	client    *apod.Client
	filters   *filter.Manager
	recorder  *metrics.Recorder
	formatter *output.ConsoleFormatter

	// Command flags
	filterExpr string
	preset     string
	showStats  bool
	jsonOutput bool
	layout     string

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "apodctl",
	Short: "Browse NASA's Astronomy Picture of the Day from the terminal",
	Long: `apodctl fetches entries from NASA's Astronomy Picture of the Day API.

Entries can be fetched for today, a single date, a date range or at random,
narrowed down with filter expressions and downloaded to disk.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: finalizeApp,
}

// SetVersion sets the build information reported by the version command
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&filterExpr, "filter", "f", "", "filter expression applied to fetched entries")
	rootCmd.PersistentFlags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "print request statistics when done")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print entries as JSON")
	rootCmd.PersistentFlags().StringVar(&layout, "layout", "", "output layout: tree or table (default from config)")
}

// initializeApp initializes the configuration and clients
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)
	if cfg.File != "" {
		logger.Debug().Str("file", cfg.File).Msg("Loaded config")
	}
	if cfg.API.Key == apod.DemoAPIKey {
		logger.Debug().Msg("Using DEMO_KEY, requests are heavily rate limited")
	}

	if layout != "" {
		cfg.Output.Layout = layout
	}
	if cfg.Output.Layout != "tree" && cfg.Output.Layout != "table" {
		return fmt.Errorf("invalid layout: %s (must be 'tree' or 'table')", cfg.Output.Layout)
	}

	colorMode, err := output.ParseColorMode(cfg.Output.Color)
	if err != nil {
		return err
	}
	formatter = output.NewConsoleFormatter(output.ResolveColors(colorMode, os.Stdout))

	filters, err = filter.NewManager(filter.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create filter manager: %w", err)
	}
	if err := filters.RegisterPresets(cfg.Filter.Presets); err != nil {
		return fmt.Errorf("invalid filter preset: %w", err)
	}

	recorder = metrics.NewRecorder()

	client = apod.NewClient(apod.Config{
		APIKey:    cfg.API.Key,
		BaseURL:   cfg.API.URL,
		Thumbs:    cfg.API.Thumbs,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		UserAgent: userAgent(),
		Logger:    &logger,
		Metrics:   recorder,
	})

	return nil
}

// finalizeApp releases the client and prints statistics
func finalizeApp(cmd *cobra.Command, args []string) error {
	if client != nil {
		if err := client.Close(); err != nil {
			logger.Debug().Err(err).Msg("Failed to close client")
		}
	}

	if showStats && recorder != nil {
		samples, err := recorder.Snapshot()
		if err != nil {
			return fmt.Errorf("failed to gather statistics: %w", err)
		}
		fmt.Fprint(os.Stderr, formatter.FormatStats(samples))
	}
	return nil
}

func userAgent() string {
	if cfg.API.UserAgent != "" {
		return cfg.API.UserAgent
	}
	return "apodctl/" + version
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}

	// Console format
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color,
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// skipInit replaces the root pre/post hooks for commands that need no config
func skipInit(*cobra.Command, []string) error { return nil }
