package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rk/wallify/config"
	"github.com/rk/wallify/pkg/rotation"
	"github.com/spf13/cobra"
)

// newFitCmd runs the face check and composition on a local file so the
// tuning can be inspected without a rotation.
func newFitCmd() *cobra.Command {
	var width, height int
	cmd := &cobra.Command{
		Use:   "fit <input> <output>",
		Short: "Check an image for faces and fit it to the target size",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			tuning := rotation.DefaultTuningConfig()

			if width <= 0 || height <= 0 {
				p, _, err := openPrefs()
				if err != nil {
					return err
				}
				cfg := rotation.NewConfig(p)
				width, height = cfg.GetScreenWidth(), cfg.GetScreenHeight()
			}

			img, err := imaging.Open(args[0], imaging.AutoOrientation(true))
			if err != nil {
				return &rotation.DecodeError{URL: args[0], Err: err}
			}

			path := cascadePath
			if path == "" {
				dataDir, err := config.GetPath()
				if err != nil {
					return err
				}
				path = filepath.Join(dataDir, DefaultCascadeName)
			}
			if detector, err := rotation.LoadPigoDetector(path, tuning); err != nil {
				fmt.Fprintf(out, "Face check skipped: %v\n", err)
			} else {
				dctx, cancel := context.WithTimeout(ctx, rotation.DetectTimeout)
				faces, err := detector.DetectFaces(dctx, img)
				cancel()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Faces: %d (would be rejected: %t)\n", len(faces), len(faces) > 0)
			}

			adj := rotation.NewAdjuster(rotation.NewSmartcropDetector(tuning.Resampler), tuning.Resampler)
			fitted := adj.Fit(ctx, img, width, height)
			if err := imaging.Save(fitted, args[1], imaging.JPEGQuality(tuning.EncodingQuality)); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %dx%d to %s\n", width, height, args[1])
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "target width (default: configured)")
	cmd.Flags().IntVar(&height, "height", 0, "target height (default: configured)")
	return cmd
}
