package main

import (
	"fmt"

	"github.com/rk/wallify/pkg/rotation"
	"github.com/rk/wallify/pkg/sysinfo"
	"github.com/spf13/cobra"
)

func newDetectScreenCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "detect-screen",
		Short: "Detect the primary screen size",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, h, err := sysinfo.GetScreenDimensions()
			if err != nil {
				return fmt.Errorf("detecting screen: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%dx%d\n", w, h)
			if !save {
				return nil
			}
			p, _, err := openPrefs()
			if err != nil {
				return err
			}
			return rotation.NewConfig(p).SetScreenSize(w, h)
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "store the size as the target")
	return cmd
}
