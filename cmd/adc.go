// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rubberfate/mk312ctl/pkg/mk312"
)

var adcCmd = &cobra.Command{
	Use:   "adc <on|off>",
	Short: "Enable or disable the front-panel level knobs",
	Long: `Gates the front-panel ADC scan. With the ADC off, the knobs on the box
are ignored and the channel levels are controlled over the serial link
only. Turn it back on before disconnecting, or the knobs stay dead until
the box is power-cycled.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(dev *mk312.Device) error {
			switch args[0] {
			case "on":
				if err := dev.EnableADC(); err != nil {
					return err
				}
				fmt.Println("front-panel knobs enabled")
			case "off":
				if err := dev.DisableADC(); err != nil {
					return err
				}
				fmt.Println("front-panel knobs disabled")
			default:
				return fmt.Errorf("unknown argument %q (use on or off)", args[0])
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(adcCmd)
}
