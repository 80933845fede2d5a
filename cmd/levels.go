// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rubberfate/mk312ctl/pkg/mk312"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Interactive TUI for live level control",
	Long: `Control channel A, channel B and the multi-adjust level from an
interactive terminal UI.

The front-panel ADC scan is disabled while the TUI runs so the knobs on
the box do not fight the serial link, and re-enabled on exit. The session
key is reset on the box when the TUI quits or is interrupted.

Keys:
  tab / left / right   switch channel
  up / down            adjust selected level
  shift+up / shift+down  adjust in large steps
  0                    zero the selected channel
  q / ctrl+c           quit`,
	Args: cobra.NoArgs,
	RunE: runLevels,
}

func init() {
	rootCmd.AddCommand(levelsCmd)
}

func runLevels(cmd *cobra.Command, args []string) error {
	return withDevice(func(dev *mk312.Device) error {
		if err := dev.DisableADC(); err != nil {
			return err
		}
		// The knobs stay dead until this runs, even across reconnects.
		defer dev.EnableADC()

		m, err := initialLevelsModel(dev)
		if err != nil {
			return err
		}

		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	})
}
