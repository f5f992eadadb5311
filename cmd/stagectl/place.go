package main

import (
	"encoding/json"

	"room-stager/pkg/geometry"

	"github.com/spf13/cobra"
)

func newPlaceCmd() *cobra.Command {
	var (
		productPath  string
		gesturesPath string
		containerArg string
		previewPath  string
	)
	cmd := &cobra.Command{
		Use:   "place <photo>",
		Short: "Replay placement gestures and print the normalized placement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			size, err := parseSize(containerArg)
			if err != nil {
				return err
			}
			var script *gestureScript
			if gesturesPath != "" {
				if script, err = loadGestures(gesturesPath); err != nil {
					return err
				}
			}
			product, err := decodeFile(productPath)
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
			if err := s.BeginPlacement(product, geometry.NewRect(0, 0, size.Width, size.Height)); err != nil {
				return err
			}
			if script != nil {
				playGestures(s, script)
			}

			payload, err := s.PlacementPayload()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(payload); err != nil {
				return err
			}

			if previewPath == "" {
				return nil
			}
			preview, err := s.Preview()
			if err != nil {
				return err
			}
			return writePNG(previewPath, preview)
		},
	}
	cmd.Flags().StringVarP(&productPath, "product", "p", "", "product image (PNG with transparency)")
	cmd.Flags().StringVarP(&gesturesPath, "gestures", "g", "", "gesture script (YAML or JSON)")
	cmd.Flags().StringVar(&containerArg, "container", "800x600", "placement canvas size WxH")
	cmd.Flags().StringVar(&previewPath, "preview", "", "write a composited preview PNG here")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}
