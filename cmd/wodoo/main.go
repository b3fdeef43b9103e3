package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wodoo-build/wodoo/internal/buildapi"
	"github.com/wodoo-build/wodoo/internal/output"
	"github.com/wodoo-build/wodoo/internal/version"
)

var (
	addonDir     string
	wheelDir     string
	sdistDir     string
	metadataDir  string
	distInfoOnly bool
	localVersion string
	format       string
	verbose      bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		output.Error(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "wodoo",
		Short:         "Build wheels and sdists of Odoo addons",
		Long:          "Wodoo packages one Odoo addon directory into a source distribution and a wheel installable in the odoo.addons namespace.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetupLogging(verbose)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	buildWheelCmd := &cobra.Command{
		Use:   "build-wheel",
		Short: "Build a wheel of the addon",
		Args:  cobra.NoArgs,
		RunE:  runBuildWheel,
	}
	addAddonDirFlag(buildWheelCmd)
	buildWheelCmd.Flags().StringVarP(&wheelDir, "wheel-dir", "o", "dist", "Output directory")
	buildWheelCmd.Flags().BoolVar(&distInfoOnly, "dist-info-only", false, "Only package the dist-info records")
	buildWheelCmd.Flags().StringVar(&localVersion, "local-version", "", "Local version label appended as +<label>")

	buildSdistCmd := &cobra.Command{
		Use:   "build-sdist",
		Short: "Build a source distribution of the addon",
		Args:  cobra.NoArgs,
		RunE:  runBuildSdist,
	}
	addAddonDirFlag(buildSdistCmd)
	buildSdistCmd.Flags().StringVarP(&sdistDir, "sdist-dir", "o", "dist", "Output directory")

	prepareMetadataCmd := &cobra.Command{
		Use:   "prepare-metadata",
		Short: "Write the dist-info directory of the addon",
		Args:  cobra.NoArgs,
		RunE:  runPrepareMetadata,
	}
	addAddonDirFlag(prepareMetadataCmd)
	prepareMetadataCmd.Flags().StringVarP(&metadataDir, "metadata-dir", "o", ".", "Output directory")

	wheelFromSdistCmd := &cobra.Command{
		Use:   "wheel-from-sdist SDIST",
		Short: "Build a wheel from an sdist archive",
		Args:  cobra.ExactArgs(1),
		RunE:  runWheelFromSdist,
	}
	wheelFromSdistCmd.Flags().StringVarP(&wheelDir, "wheel-dir", "o", "dist", "Output directory")

	metadataCmd := &cobra.Command{
		Use:   "metadata",
		Short: "Print the resolved metadata of the addon",
		Args:  cobra.NoArgs,
		RunE:  runMetadata,
	}
	addAddonDirFlag(metadataCmd)
	metadataCmd.Flags().StringVarP(&format, "format", "f", "pkginfo", "Output format: pkginfo or yaml")
	metadataCmd.Flags().StringVar(&localVersion, "local-version", "", "Local version label appended as +<label>")

	rootCmd.AddCommand(buildWheelCmd, buildSdistCmd, prepareMetadataCmd, wheelFromSdistCmd, metadataCmd)
	return rootCmd
}

func addAddonDirFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&addonDir, "addon-dir", "C", ".", "Addon directory")
}

func runBuildWheel(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(wheelDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	output.Debug("building wheel", "addon_dir", addonDir, "wheel_dir", wheelDir)
	parts, err := buildapi.BuildWheelParts(addonDir, wheelDir, distInfoOnly, localVersion)
	if err != nil {
		return fmt.Errorf("building wheel: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), parts.WheelName)
	return nil
}

func runBuildSdist(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(sdistDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	name, err := buildapi.BuildSdist(addonDir, sdistDir, nil)
	if err != nil {
		return fmt.Errorf("building sdist: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), name)
	return nil
}

func runPrepareMetadata(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(metadataDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	distInfo, err := buildapi.PrepareMetadataForBuildWheel(addonDir, metadataDir, nil)
	if err != nil {
		return fmt.Errorf("preparing metadata: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), distInfo)
	return nil
}

func runWheelFromSdist(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(wheelDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	parts, err := buildapi.BuildWheelFromSdist(args[0], wheelDir)
	if err != nil {
		return fmt.Errorf("building wheel from %s: %w", args[0], err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), parts.WheelName)
	return nil
}
