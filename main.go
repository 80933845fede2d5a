// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate
//
// mk312ctl - MK-312 serial control tool
//
// A CLI tool for driving an MK-312 stimulation control unit over its
// RS232 link: register access, mode and power selection, and live level
// control.

package main

import (
	"os"

	"github.com/rubberfate/mk312ctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
