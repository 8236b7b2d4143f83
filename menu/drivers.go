package menu

import (
	"incircuit-go/board"
	"incircuit-go/cpu"
	"incircuit-go/cpu/m6502"
	"incircuit-go/cpu/m68000"
	"incircuit-go/cpu/m6809"
	"incircuit-go/cpu/z80"
	"incircuit-go/errcode"
)

// NewDriver builds a driver for f. bank is the bank latch location: an I/O
// port on the Z80, a memory address elsewhere.
func NewDriver(f cpu.Family, w cpu.Wire, t cpu.Timing, bank uint32) (cpu.Driver, error) {
	switch f {
	case cpu.FamilyZ80:
		return z80.New(z80.Config{Wire: w, Timing: t, BankPort: uint16(bank)})
	case cpu.Family6502:
		return m6502.New(m6502.Config{Wire: w, Timing: t, BankLatch: uint16(bank)})
	case cpu.Family6809:
		return m6809.New(m6809.Config{Wire: w, Timing: t, BankLatch: uint16(bank)})
	case cpu.Family68000:
		return m68000.New(m68000.Config{Wire: w, Timing: t, BankLatch: bank})
	}
	return nil, errcode.New(errcode.Unsupported, "menu", "family "+string(f))
}

// PinCount is the number of socket pins f's default wiring uses.
func PinCount(f cpu.Family) int {
	switch f {
	case cpu.FamilyZ80:
		return z80.PinCount
	case cpu.Family6502:
		return m6502.PinCount
	case cpu.Family6809:
		return m6809.PinCount
	case cpu.Family68000:
		return m68000.PinCount
	}
	return 0
}

// Families lists the supported processor families.
func Families() []cpu.Family {
	return []cpu.Family{cpu.FamilyZ80, cpu.Family6502, cpu.Family6809, cpu.Family68000}
}

// generic is the factory of a driver-only entry.
func generic(f cpu.Family) Factory {
	return func(w cpu.Wire, t cpu.Timing) (*board.Description, cpu.Driver, error) {
		d, err := NewDriver(f, w, t, 0)
		if err != nil {
			return nil, nil, err
		}
		return &board.Description{Name: string(f) + " generic", Family: f}, d, nil
	}
}

// fixed is the factory of a board with a static description.
func fixed(f cpu.Family, bank uint32, desc func() *board.Description) Factory {
	return func(w cpu.Wire, t cpu.Timing) (*board.Description, cpu.Driver, error) {
		d, err := NewDriver(f, w, t, bank)
		if err != nil {
			return nil, nil, err
		}
		return desc(), d, nil
	}
}
