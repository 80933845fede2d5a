// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rubberfate/mk312ctl/pkg/mk312"
)

var writeCmd = &cobra.Command{
	Use:   "write <register> <value>",
	Short: "Write a device register",
	Long: `Write a register by name (e.g. level-a, ma) or by raw address
(e.g. 0x4064). The value is 0x-prefixed hex or decimal.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := parseRegister(args[0])
		if err != nil {
			return err
		}

		value, err := strconv.ParseUint(args[1], 0, 16)
		if err != nil {
			return fmt.Errorf("invalid value %q: %v", args[1], err)
		}

		return withDevice(func(dev *mk312.Device) error {
			if err := dev.WriteRegister(reg, uint16(value)); err != nil {
				return err
			}
			fmt.Printf("%s <- 0x%0*x\n", reg.Name, reg.Width*2, value)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
}
