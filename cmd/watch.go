// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rubberfate/mk312ctl/pkg/mk312"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <register>...",
	Short: "Poll registers and print changes",
	Long: `Polls one or more registers at a fixed interval and prints a line each
time a value changes. Registers are given by name or raw address, like
the read command. Transient read errors (timeouts, corrupt replies) are
logged and polling continues; a transport failure ends the watch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		regs := make([]mk312.Register, len(args))
		for i, arg := range args {
			reg, err := parseRegister(arg)
			if err != nil {
				return err
			}
			regs[i] = reg
		}

		return withDevice(func(dev *mk312.Device) error {
			last := make(map[uint16]uint16)
			seen := make(map[uint16]bool)

			ticker := time.NewTicker(watchInterval)
			defer ticker.Stop()

			for {
				for _, reg := range regs {
					value, err := dev.ReadRegister(reg)
					if err != nil {
						if errors.Is(err, mk312.ErrInvalidLinkState) {
							return err
						}
						var te *mk312.TransportError
						if errors.As(err, &te) {
							return err
						}
						log.Warn().Str("register", reg.Name).Err(err).Msg("read failed, retrying")
						continue
					}
					if seen[reg.Addr] && last[reg.Addr] == value {
						continue
					}
					seen[reg.Addr] = true
					last[reg.Addr] = value
					fmt.Printf("%s %s = 0x%0*x (%d)\n",
						time.Now().Format("15:04:05.000"), reg.Name, reg.Width*2, value, value)
				}
				<-ticker.C
			}
		})
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 250*time.Millisecond, "Polling interval")
	rootCmd.AddCommand(watchCmd)
}
