package main

import (
	"fmt"

	"room-stager/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCleanupCmd() *cobra.Command {
	var (
		strokesPath  string
		output       string
		displayWidth int
	)
	cmd := &cobra.Command{
		Use:   "cleanup <photo>",
		Short: "Erase the region marked by a stroke script using the collaborator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			ctx := cmd.Context()
			script, err := loadStrokes(strokesPath)
			if err != nil {
				return err
			}
			s, err := e.newSession(true)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := loadPhoto(s, args[0]); err != nil {
				return err
			}

			paintStrokes(s, script, displayWidth)
			cleaned, err := s.SubmitMask(ctx)
			if err != nil {
				logger.L(ctx).Debug("cleanup failed", zap.Int("strokes_restored", s.StrokeCount()))
				return fmt.Errorf("cleanup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleaned %dx%d room=%s\n", cleaned.Width(), cleaned.Height(), s.RoomID())

			if output == "" {
				return nil
			}
			return writePNG(output, cleaned.Image())
		},
	}
	cmd.Flags().StringVarP(&strokesPath, "strokes", "s", "", "stroke script (YAML or JSON)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the cleaned photo as PNG")
	cmd.Flags().IntVar(&displayWidth, "display-width", defaultDisplayWidth, "width of the canvas the strokes were drawn on")
	_ = cmd.MarkFlagRequired("strokes")
	return cmd
}
