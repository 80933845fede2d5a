// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package mk312

import (
	"fmt"
	"time"
)

// settleDelay is the pause between chained box commands; the firmware
// needs a beat to redraw the menu between writes.
const settleDelay = 100 * time.Millisecond

// Device is the semantic layer over a Session: named registers instead of
// raw addresses, multi-byte assembly, and the composite operations the
// box expects (mode switching, ADC gating, level control).
type Device struct {
	session *Session
}

// NewDevice wraps an established session.
func NewDevice(s *Session) *Device {
	return &Device{session: s}
}

// Session returns the underlying session.
func (d *Device) Session() *Session {
	return d.session
}

// ReadRegister reads a named register, assembling multi-byte values
// big-endian. Write-only registers are rejected locally with an
// AccessModeError before any bytes reach the wire.
func (d *Device) ReadRegister(reg Register) (uint16, error) {
	if !reg.Access.CanRead() {
		return 0, &AccessModeError{Register: reg, Op: "read"}
	}

	var value uint16
	for i := 0; i < reg.Width; i++ {
		b, err := d.session.ReadAddress(reg.Addr + uint16(i))
		if err != nil {
			return 0, err
		}
		value = value<<8 | uint16(b)
	}
	return value, nil
}

// WriteRegister writes a named register. Read-only registers and values
// wider than the register are rejected locally.
func (d *Device) WriteRegister(reg Register, value uint16) error {
	if !reg.Access.CanWrite() {
		return &AccessModeError{Register: reg, Op: "write"}
	}
	if reg.Width == 1 && value > 0xff {
		return fmt.Errorf("%w: 0x%04X does not fit register %s (1 byte)", ErrValueRange, value, reg.Name)
	}

	if reg.Width == 1 {
		return d.session.WriteAddress(reg.Addr, byte(value))
	}
	return d.session.WriteAddress(reg.Addr, byte(value>>8), byte(value))
}

// boxCommand pushes one command into the command register.
func (d *Device) boxCommand(cmd BoxCommand) error {
	return d.WriteRegister(RegBoxCommand, uint16(cmd))
}

// Mode reads the running stimulation mode.
func (d *Device) Mode() (Mode, error) {
	v, err := d.ReadRegister(RegCurrentMode)
	if err != nil {
		return 0, err
	}
	return Mode(v), nil
}

// SetMode switches the running mode: write the mode register, drive the
// menu (exit, select new mode), then read the mode back to confirm the
// firmware accepted it.
func (d *Device) SetMode(m Mode) error {
	if err := d.WriteRegister(RegCurrentMode, uint16(m)); err != nil {
		return err
	}
	time.Sleep(settleDelay)

	if err := d.boxCommand(CommandExitMenu); err != nil {
		return err
	}
	time.Sleep(settleDelay)

	if err := d.boxCommand(CommandNewMode); err != nil {
		return err
	}
	time.Sleep(settleDelay)

	got, err := d.Mode()
	if err != nil {
		return err
	}
	if got != m {
		return fmt.Errorf("%w: mode read back as %s (0x%02X), want %s (0x%02X)",
			ErrUnexpectedResponse, got, byte(got), m, byte(m))
	}
	return nil
}

// LoadFavoriteMode starts the box's favorite module.
func (d *Device) LoadFavoriteMode() error {
	return d.boxCommand(CommandStartFavorite)
}

// PowerLevel reads the configured power level.
func (d *Device) PowerLevel() (PowerLevel, error) {
	v, err := d.ReadRegister(RegPowerLevel)
	if err != nil {
		return 0, err
	}
	return PowerLevel(v), nil
}

// SetPowerLevel changes the power level and reads it back to confirm.
func (d *Device) SetPowerLevel(p PowerLevel) error {
	if err := d.WriteRegister(RegPowerLevel, uint16(p)); err != nil {
		return err
	}
	time.Sleep(settleDelay)

	got, err := d.PowerLevel()
	if err != nil {
		return err
	}
	if got != p {
		return fmt.Errorf("%w: power level read back as %s, want %s", ErrUnexpectedResponse, got, p)
	}
	return nil
}

// DisableADC stops the front-panel potentiometer scan, handing level
// control to the host. The panel knobs stop working until EnableADC.
func (d *Device) DisableADC() error {
	return d.setADCDisabled(true)
}

// EnableADC returns level control to the front-panel potentiometers.
func (d *Device) EnableADC() error {
	return d.setADCDisabled(false)
}

func (d *Device) setADCDisabled(disabled bool) error {
	r15, err := d.ReadRegister(RegR15)
	if err != nil {
		return err
	}

	if disabled {
		r15 |= 1 << r15ADCDisable
	} else {
		r15 &^= 1 << r15ADCDisable
	}
	return d.WriteRegister(RegR15, r15)
}

// LevelA reads the channel A output level.
func (d *Device) LevelA() (byte, error) {
	v, err := d.ReadRegister(RegLevelA)
	return byte(v), err
}

// SetLevelA sets the channel A output level. Effective only while the ADC
// is disabled.
func (d *Device) SetLevelA(level byte) error {
	return d.WriteRegister(RegLevelA, uint16(level))
}

// LevelB reads the channel B output level.
func (d *Device) LevelB() (byte, error) {
	v, err := d.ReadRegister(RegLevelB)
	return byte(v), err
}

// SetLevelB sets the channel B output level. Effective only while the ADC
// is disabled.
func (d *Device) SetLevelB(level byte) error {
	return d.WriteRegister(RegLevelB, uint16(level))
}

// MultiAdjust reads the multi-adjust value.
func (d *Device) MultiAdjust() (byte, error) {
	v, err := d.ReadRegister(RegMultiAdjust)
	return byte(v), err
}

// MultiAdjustRange reads the valid multi-adjust bounds for the running
// mode. The minimum bound is not necessarily the lower stimulation
// intensity; some modes invert the axis.
func (d *Device) MultiAdjustRange() (min, max byte, err error) {
	lo, err := d.ReadRegister(RegMultiAdjustMin)
	if err != nil {
		return 0, 0, err
	}
	hi, err := d.ReadRegister(RegMultiAdjustMax)
	if err != nil {
		return 0, 0, err
	}
	return byte(lo), byte(hi), nil
}

// SetMultiAdjust sets the multi-adjust value after checking it against
// the mode's published bounds.
func (d *Device) SetMultiAdjust(level byte) error {
	lo, hi, err := d.MultiAdjustRange()
	if err != nil {
		return err
	}
	if level < lo || level > hi {
		return fmt.Errorf("%w: multi-adjust %d outside mode range %d..%d", ErrValueRange, level, lo, hi)
	}
	return d.WriteRegister(RegMultiAdjust, uint16(level))
}

// SystemTimer reads the free-running tick counter.
func (d *Device) SystemTimer() (uint16, error) {
	return d.ReadRegister(RegSystemTimer)
}

// BoxModel reads the box model byte.
func (d *Device) BoxModel() (byte, error) {
	v, err := d.ReadRegister(RegBoxModel)
	return byte(v), err
}
