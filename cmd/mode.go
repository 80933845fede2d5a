// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rubberfate/mk312ctl/pkg/mk312"
)

var modeCmd = &cobra.Command{
	Use:   "mode [name]",
	Short: "Show or set the running mode",
	Long: `Without an argument, prints the mode the box is currently running.
With a mode name (e.g. waves, stroke, user1), switches the box to that
mode and verifies the change. Use "mode list" to see all mode names.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return withDevice(func(dev *mk312.Device) error {
				m, err := dev.Mode()
				if err != nil {
					return err
				}
				fmt.Printf("%s (0x%02x)\n", m, byte(m))
				return nil
			})
		}

		if args[0] == "list" {
			for _, name := range mk312.ModeNames() {
				m, _ := mk312.ModeByName(name)
				fmt.Printf("  %-12s 0x%02x\n", name, byte(m))
			}
			return nil
		}

		m, ok := mk312.ModeByName(args[0])
		if !ok {
			return fmt.Errorf("unknown mode %q (try \"mode list\")", args[0])
		}

		return withDevice(func(dev *mk312.Device) error {
			if err := dev.SetMode(m); err != nil {
				return err
			}
			fmt.Printf("mode set to %s\n", m)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(modeCmd)
}
