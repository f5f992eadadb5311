package main

import (
	"encoding/json"
	"fmt"

	"room-stager/pkg/geometry"

	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	var (
		productPath  string
		productID    string
		gesturesPath string
		containerArg string
	)
	cmd := &cobra.Command{
		Use:   "render <photo>",
		Short: "Submit a product placement and wait for the rendered image",
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

			s, err := e.newSession(true)
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

			res, err := s.SubmitPlacement(cmd.Context(), productID)
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVarP(&productPath, "product", "p", "", "product image (PNG with transparency)")
	cmd.Flags().StringVar(&productID, "product-id", "", "catalog id of the product")
	cmd.Flags().StringVarP(&gesturesPath, "gestures", "g", "", "gesture script (YAML or JSON)")
	cmd.Flags().StringVar(&containerArg, "container", "800x600", "placement canvas size WxH")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("product-id")
	return cmd
}
