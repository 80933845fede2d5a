// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rubberfate/mk312ctl/pkg/mk312"
)

var favCmd = &cobra.Command{
	Use:   "fav",
	Short: "Start the favorite mode stored on the box",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(dev *mk312.Device) error {
			if err := dev.LoadFavoriteMode(); err != nil {
				return err
			}
			fmt.Println("favorite mode started")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(favCmd)
}
