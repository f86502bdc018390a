package main

import (
	"fmt"

	"github.com/rk/wallify/config"
	"github.com/spf13/cobra"
)

// cascadePath overrides the face cascade location.
var cascadePath string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "wallify",
		Short:        "Rotate the wallpaper with fresh photos",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&cascadePath, "cascade", "",
		"pigo face cascade file (default <data dir>/"+DefaultCascadeName+")")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.AppName, config.AppVersion)
		},
	})
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newRotateCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDetectScreenCmd())
	rootCmd.AddCommand(newFitCmd())
	return rootCmd
}
