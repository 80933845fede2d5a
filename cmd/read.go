// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rubberfate/mk312ctl/pkg/mk312"
)

// parseRegister resolves a command-line register argument. Named registers
// come from the register map; anything else is parsed as a raw address
// (0x-prefixed hex or decimal) and treated as a single read/write byte.
func parseRegister(arg string) (mk312.Register, error) {
	if reg, ok := mk312.RegisterByName(arg); ok {
		return reg, nil
	}

	addr, err := strconv.ParseUint(arg, 0, 16)
	if err != nil {
		return mk312.Register{}, fmt.Errorf("unknown register %q (use a name or a 16-bit address)", arg)
	}

	return mk312.Register{
		Name:   fmt.Sprintf("0x%04x", addr),
		Addr:   uint16(addr),
		Width:  1,
		Access: mk312.ReadWrite,
	}, nil
}

var readCmd = &cobra.Command{
	Use:   "read <register>",
	Short: "Read a device register",
	Long: `Read a register by name (e.g. level-a, mode) or by raw address
(e.g. 0x4064). Named multi-byte registers are read in full. Use
"read list" to see the register table.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "list" {
			for _, reg := range mk312.Registers {
				fmt.Printf("  %-10s 0x%04x  %d byte(s)  %s\n", reg.Name, reg.Addr, reg.Width, reg.Access)
			}
			return nil
		}

		reg, err := parseRegister(args[0])
		if err != nil {
			return err
		}

		return withDevice(func(dev *mk312.Device) error {
			value, err := dev.ReadRegister(reg)
			if err != nil {
				return err
			}
			fmt.Printf("%s = 0x%0*x (%d)\n", reg.Name, reg.Width*2, value, value)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
}
