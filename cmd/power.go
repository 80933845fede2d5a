// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rubberfate/mk312ctl/pkg/mk312"
)

var powerCmd = &cobra.Command{
	Use:   "power [low|normal|high]",
	Short: "Show or set the power level",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return withDevice(func(dev *mk312.Device) error {
				p, err := dev.PowerLevel()
				if err != nil {
					return err
				}
				fmt.Println(p)
				return nil
			})
		}

		p, ok := mk312.PowerLevelByName(args[0])
		if !ok {
			return fmt.Errorf("unknown power level %q (use low, normal or high)", args[0])
		}

		return withDevice(func(dev *mk312.Device) error {
			if err := dev.SetPowerLevel(p); err != nil {
				return err
			}
			fmt.Printf("power level set to %s\n", p)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(powerCmd)
}
