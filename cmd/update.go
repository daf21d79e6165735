package cmd

import (
	"fmt"
	"runtime"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const repositorySlug = "s0up4200/apodctl"

var checkOnly bool

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:                "update",
	Short:              "Update apodctl to the latest release",
	Args:               cobra.NoArgs,
	PersistentPreRunE:  skipInit,
	PersistentPostRunE: skipInit,
	RunE:               runUpdate,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:                "version",
	Short:              "Print version information",
	Args:               cobra.NoArgs,
	PersistentPreRunE:  skipInit,
	PersistentPostRunE: skipInit,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "apodctl %s (built %s, %s/%s)\n", version, buildTime, runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)

	updateCmd.Flags().BoolVar(&checkOnly, "check", false, "only check whether an update is available")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	current, err := semver.ParseTolerant(version)
	if err != nil {
		return fmt.Errorf("cannot update a development build (version %q)", version)
	}

	latest, found, err := selfupdate.DetectLatest(cmd.Context(), selfupdate.ParseSlug(repositorySlug))
	if err != nil {
		return fmt.Errorf("failed to detect latest release: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	latestVersion, err := semver.ParseTolerant(latest.Version())
	if err != nil {
		return fmt.Errorf("invalid release version %q: %w", latest.Version(), err)
	}

	out := cmd.OutOrStdout()
	if latestVersion.LTE(current) {
		fmt.Fprintf(out, "apodctl %s is up to date\n", current)
		return nil
	}

	if checkOnly {
		fmt.Fprintf(out, "apodctl %s is available (current: %s)\n", latestVersion, current)
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}

	if err := selfupdate.UpdateTo(cmd.Context(), latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("failed to update binary: %w", err)
	}

	fmt.Fprintf(out, "Updated apodctl %s -> %s\n", current, latestVersion)
	return nil
}
