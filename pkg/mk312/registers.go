// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package mk312

import (
	"sort"
	"strings"
)

// AccessMode declares which directions a register supports. Access is
// enforced locally, before any bytes reach the wire.
type AccessMode int

const (
	ReadWrite AccessMode = iota
	ReadOnly
	WriteOnly
)

func (m AccessMode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	default:
		return "read-write"
	}
}

// CanRead reports whether the mode permits reads.
func (m AccessMode) CanRead() bool { return m != WriteOnly }

// CanWrite reports whether the mode permits writes.
func (m AccessMode) CanWrite() bool { return m != ReadOnly }

// Register names a unit of device memory: a 2-byte address, a width in
// bytes (1 or 2, multi-byte values are big-endian), and an access mode.
// The table below is static configuration, validated against device
// captures, not runtime state.
type Register struct {
	Name   string
	Addr   uint16
	Width  int
	Access AccessMode
}

// Device register map.
var (
	// RegBoxModel identifies the box model/firmware family.
	RegBoxModel = Register{Name: "boxmodel", Addr: 0x00fd, Width: 1, Access: ReadOnly}

	// RegBoxCommand accepts box commands (menu navigation, module start).
	RegBoxCommand = Register{Name: "command", Addr: 0x4070, Width: 1, Access: WriteOnly}

	// RegCurrentMode holds the running stimulation mode.
	RegCurrentMode = Register{Name: "mode", Addr: 0x407b, Width: 1, Access: ReadWrite}

	// RegLevelA and RegLevelB hold the channel output levels. Writes take
	// effect only while the ADC is disabled; otherwise the front-panel
	// potentiometers overwrite them every tick.
	RegLevelA = Register{Name: "level-a", Addr: 0x4064, Width: 1, Access: ReadWrite}
	RegLevelB = Register{Name: "level-b", Addr: 0x4065, Width: 1, Access: ReadWrite}

	// RegMultiAdjust holds the multi-adjust value; its valid range is
	// mode-dependent and published in RegMultiAdjustMin/Max.
	RegMultiAdjust    = Register{Name: "ma", Addr: 0x420d, Width: 1, Access: ReadWrite}
	RegMultiAdjustMin = Register{Name: "ma-min", Addr: 0x4086, Width: 1, Access: ReadOnly}
	RegMultiAdjustMax = Register{Name: "ma-max", Addr: 0x4087, Width: 1, Access: ReadOnly}

	// RegR15 mirrors CPU register r15; bit 0 gates the ADC scan of the
	// front-panel potentiometers.
	RegR15 = Register{Name: "r15", Addr: 0x400f, Width: 1, Access: ReadWrite}

	// RegPowerLevel holds the power level (low/normal/high).
	RegPowerLevel = Register{Name: "power", Addr: 0x41f4, Width: 1, Access: ReadWrite}

	// RegSystemTimer is the free-running system tick counter.
	RegSystemTimer = Register{Name: "timer", Addr: 0x4074, Width: 2, Access: ReadOnly}

	// RegKey is the device-side session key. Writing 0x00 returns the box
	// to the unkeyed state; reading it back is not supported.
	RegKey = Register{Name: "key", Addr: 0x4213, Width: 1, Access: WriteOnly}
)

// Registers lists every named register, for lookup and CLI enumeration.
var Registers = []Register{
	RegBoxModel,
	RegBoxCommand,
	RegCurrentMode,
	RegLevelA,
	RegLevelB,
	RegMultiAdjust,
	RegMultiAdjustMin,
	RegMultiAdjustMax,
	RegR15,
	RegPowerLevel,
	RegSystemTimer,
	RegKey,
}

// RegisterByName looks up a register by its table name.
func RegisterByName(name string) (Register, bool) {
	name = strings.ToLower(name)
	for _, r := range Registers {
		if r.Name == name {
			return r, true
		}
	}
	return Register{}, false
}

// r15ADCDisable is the bit in RegR15 that stops the front-panel ADC scan.
const r15ADCDisable = 0

// Mode is a stimulation mode value for RegCurrentMode.
type Mode byte

// Stimulation modes.
const (
	ModePowerOn Mode = 0x00
	ModeWaves   Mode = 0x76
	ModeStroke  Mode = 0x77
	ModeClimb   Mode = 0x78
	ModeCombo   Mode = 0x79
	ModeIntense Mode = 0x7a
	ModeRhythm  Mode = 0x7b
	ModeAudio1  Mode = 0x7c
	ModeAudio2  Mode = 0x7d
	ModeAudio3  Mode = 0x7e
	ModeSplit   Mode = 0x7f
	ModeRandom1 Mode = 0x80
	ModeRandom2 Mode = 0x81
	ModeToggle  Mode = 0x82
	ModeOrgasm  Mode = 0x83
	ModeTorment Mode = 0x84
	ModePhase1  Mode = 0x85
	ModePhase2  Mode = 0x86
	ModePhase3  Mode = 0x87
	ModeUser1   Mode = 0x88
	ModeUser2   Mode = 0x89
	ModeUser3   Mode = 0x8a
	ModeUser4   Mode = 0x8b
	ModeUser5   Mode = 0x8c
	ModeUser6   Mode = 0x8d
	ModeUser7   Mode = 0x8e
)

var modeNames = map[Mode]string{
	ModePowerOn: "poweron",
	ModeWaves:   "waves",
	ModeStroke:  "stroke",
	ModeClimb:   "climb",
	ModeCombo:   "combo",
	ModeIntense: "intense",
	ModeRhythm:  "rhythm",
	ModeAudio1:  "audio1",
	ModeAudio2:  "audio2",
	ModeAudio3:  "audio3",
	ModeSplit:   "split",
	ModeRandom1: "random1",
	ModeRandom2: "random2",
	ModeToggle:  "toggle",
	ModeOrgasm:  "orgasm",
	ModeTorment: "torment",
	ModePhase1:  "phase1",
	ModePhase2:  "phase2",
	ModePhase3:  "phase3",
	ModeUser1:   "user1",
	ModeUser2:   "user2",
	ModeUser3:   "user3",
	ModeUser4:   "user4",
	ModeUser5:   "user5",
	ModeUser6:   "user6",
	ModeUser7:   "user7",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ModeNames lists the known mode names ordered by mode value.
func ModeNames() []string {
	modes := make([]Mode, 0, len(modeNames))
	for m := range modeNames {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = modeNames[m]
	}
	return names
}

// ModeByName resolves a mode name as used on the CLI.
func ModeByName(name string) (Mode, bool) {
	name = strings.ToLower(name)
	for m, n := range modeNames {
		if n == name {
			return m, true
		}
	}
	return 0, false
}

// PowerLevel is a value for RegPowerLevel.
type PowerLevel byte

// Power levels.
const (
	PowerLow    PowerLevel = 0x01
	PowerNormal PowerLevel = 0x02
	PowerHigh   PowerLevel = 0x03
)

func (p PowerLevel) String() string {
	switch p {
	case PowerLow:
		return "low"
	case PowerNormal:
		return "normal"
	case PowerHigh:
		return "high"
	default:
		return "unknown"
	}
}

// PowerLevelByName resolves a power level name as used on the CLI.
func PowerLevelByName(name string) (PowerLevel, bool) {
	switch strings.ToLower(name) {
	case "low":
		return PowerLow, true
	case "normal":
		return PowerNormal, true
	case "high":
		return PowerHigh, true
	default:
		return 0, false
	}
}

// BoxCommand is a value for RegBoxCommand.
type BoxCommand byte

// Box commands.
const (
	CommandStartFavorite BoxCommand = 0x00
	CommandExitMenu      BoxCommand = 0x0a
	CommandNewMode       BoxCommand = 0x0c
)
