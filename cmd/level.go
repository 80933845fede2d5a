// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rubberfate/mk312ctl/pkg/mk312"
)

var levelCmd = &cobra.Command{
	Use:   "level <a|b|ma> [value]",
	Short: "Show or set a channel level",
	Long: `Show or set channel A, channel B or the multi-adjust level. Values are
0-255 for the channels; the multi-adjust range is read from the box and
enforced before writing.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		channel := args[0]

		if len(args) == 1 {
			return withDevice(func(dev *mk312.Device) error {
				var (
					value byte
					err   error
				)
				switch channel {
				case "a":
					value, err = dev.LevelA()
				case "b":
					value, err = dev.LevelB()
				case "ma":
					value, err = dev.MultiAdjust()
				default:
					return fmt.Errorf("unknown channel %q (use a, b or ma)", channel)
				}
				if err != nil {
					return err
				}
				fmt.Printf("%d\n", value)
				return nil
			})
		}

		value, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil {
			return fmt.Errorf("invalid level %q: %v", args[1], err)
		}

		return withDevice(func(dev *mk312.Device) error {
			switch channel {
			case "a":
				err = dev.SetLevelA(byte(value))
			case "b":
				err = dev.SetLevelB(byte(value))
			case "ma":
				err = dev.SetMultiAdjust(byte(value))
			default:
				return fmt.Errorf("unknown channel %q (use a, b or ma)", channel)
			}
			if err != nil {
				return err
			}
			fmt.Printf("%s = %d\n", channel, value)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(levelCmd)
}
