package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultDisplayWidth = 800

func newMaskCmd() *cobra.Command {
	var (
		strokesPath  string
		output       string
		displayWidth int
	)
	cmd := &cobra.Command{
		Use:   "mask <photo>",
		Short: "Paint a stroke script over a photo and export the binary mask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			script, err := loadStrokes(strokesPath)
			if err != nil {
				return err
			}
			s, err := e.newSession(false)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := loadPhoto(s, args[0]); err != nil {
				return err
			}

			paintStrokes(s, script, displayWidth)
			exported, err := s.ExportMask()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%dx%d strokes=%d coverage=%.4f\n",
				exported.Width, exported.Height, s.StrokeCount(), exported.Coverage)

			if output == "" {
				return nil
			}
			return os.WriteFile(output, exported.PNG, 0o644)
		},
	}
	cmd.Flags().StringVarP(&strokesPath, "strokes", "s", "", "stroke script (YAML or JSON)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the mask PNG here")
	cmd.Flags().IntVar(&displayWidth, "display-width", defaultDisplayWidth, "width of the canvas the strokes were drawn on")
	_ = cmd.MarkFlagRequired("strokes")
	return cmd
}
