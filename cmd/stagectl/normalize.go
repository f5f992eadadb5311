package main

import (
	"fmt"
	"os"

	roomimage "room-stager/internal/image"
	"room-stager/internal/logger"

	"github.com/spf13/cobra"
)

func newNormalizeCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "normalize <photo>",
		Short: "Crop a photo to the closest supported aspect ratio and cap its size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			ratios, err := roomimage.ParseRatios(e.cfg.Normalizer.Ratios)
			if err != nil {
				return err
			}
			n := roomimage.NewNormalizer(e.cfg.Normalizer.MaxDimension, ratios, logger.L(cmd.Context()))

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			img, err := n.NormalizeReader(f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%dx%d %s\n", img.Width(), img.Height(), img.AspectLabel())

			if output == "" {
				return nil
			}
			return writePNG(output, img.Image())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the normalized photo as PNG")
	return cmd
}
