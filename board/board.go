// Package board describes a target board's memory and I/O map: the regions
// the engine walks, the hooks it runs and the interrupt it expects.
//
// Descriptions are plain values built at start-up (usually by a menu
// factory) and read-only afterwards.
package board

import (
	"context"
	"strconv"

	"incircuit-go/cpu"
	"incircuit-go/errcode"
	"incircuit-go/x/bitx"
	"incircuit-go/x/conv"
)

// Label widths.
const (
	LocWidth  = 3
	NameWidth = 6
)

// Label names a region the way it is printed on the board: a component
// location ("7C") and a short part name ("PROG1").
type Label struct {
	Loc  string
	Name string
}

// String is the label as it appears in results: location padded to its
// width, a space, then the name.
func (l Label) String() string {
	return conv.Fixed(l.Loc, LocWidth) + " " + l.Name
}

func (l Label) validate(what string) error {
	if len(l.Loc) > LocWidth || len(l.Name) > NameWidth {
		return errcode.New(errcode.InvalidParams, "board", what+" label "+l.Loc+"/"+l.Name+" too long")
	}
	return nil
}

// ROMRegion is a read-only region with its expected CRC-32. Data, when set,
// is the expected content and lets a failure name the first bad address.
type ROMRegion struct {
	Bank   cpu.Bank
	Start  uint32
	Length uint32
	CRC    uint32
	Data   []byte
	Label  Label
}

// End is the last address of the region.
func (r ROMRegion) End() uint32 { return r.Start + r.Length - 1 }

// RAMRegion is a read/write region. Mask selects the data bits this chip
// owns; several regions may share addresses when their masks are disjoint.
type RAMRegion struct {
	Bank  cpu.Bank
	Start uint32
	End   uint32
	Mask  uint8
	Label Label
}

// InputRegion is one readable location, such as a switch or joystick latch.
type InputRegion struct {
	Bank    cpu.Bank
	Space   cpu.Space
	Address uint32
	Mask    uint8
	Label   Label
}

// OutputRegion is one writable location, such as a lamp or coin counter
// latch. Default is the safe value to leave it at.
type OutputRegion struct {
	Bank    cpu.Bank
	Space   cpu.Space
	Address uint32
	Mask    uint8
	Default uint8
	Label   Label
}

// Stage says when a hook runs.
type Stage uint8

const (
	BeforeROM Stage = iota
	BeforeRAM
	BeforeInputs
	BeforeOutputs
	BeforeInterrupt
	Manual // only on explicit request
)

func (s Stage) String() string {
	switch s {
	case BeforeROM:
		return "before-rom"
	case BeforeRAM:
		return "before-ram"
	case BeforeInputs:
		return "before-inputs"
	case BeforeOutputs:
		return "before-outputs"
	case BeforeInterrupt:
		return "before-interrupt"
	case Manual:
		return "manual"
	}
	return "stage" + strconv.Itoa(int(s))
}

// Hook is board-specific code run against the driver, for example to unlock
// a watchdog or page in a bank before a check.
type Hook struct {
	Stage Stage
	Label Label
	Run   func(ctx context.Context, d cpu.Driver) error
}

// Interrupt is the expected interrupt behaviour. Line LineNone means the
// board has none to test. Vector 0 skips the vector comparison.
type Interrupt struct {
	Line   cpu.Line
	Auto   bool
	Vector uint32
}

// Description is one board.
type Description struct {
	Name      string
	Family    cpu.Family
	ROM       []ROMRegion
	RAM       []RAMRegion
	Inputs    []InputRegion
	Outputs   []OutputRegion
	Hooks     []Hook
	Interrupt Interrupt
}

// HooksFor returns the hooks registered for stage in declaration order.
func (d *Description) HooksFor(s Stage) []Hook {
	var out []Hook
	for _, h := range d.Hooks {
		if h.Stage == s {
			out = append(out, h)
		}
	}
	return out
}

// Validate checks every table of d.
func (d *Description) Validate() error {
	for i, r := range d.ROM {
		if err := r.Label.validate("rom"); err != nil {
			return err
		}
		if r.Length == 0 {
			return invalid("rom", r.Label, "empty")
		}
		if r.Start+r.Length < r.Start {
			return invalid("rom", r.Label, "wraps")
		}
		if r.Data != nil && uint32(len(r.Data)) != r.Length {
			return invalid("rom", r.Label, "data length "+strconv.Itoa(len(r.Data)))
		}
		for _, p := range d.ROM[:i] {
			if p.Bank == r.Bank && p.Start <= r.End() && r.Start <= p.End() {
				return invalid("rom", r.Label, "overlaps "+p.Label.String())
			}
		}
	}
	for i, r := range d.RAM {
		if err := r.Label.validate("ram"); err != nil {
			return err
		}
		if r.Start > r.End {
			return invalid("ram", r.Label, "start after end")
		}
		if r.Mask == 0 {
			return invalid("ram", r.Label, "empty mask")
		}
		for _, p := range d.RAM[:i] {
			if p.Bank == r.Bank && p.Start <= r.End && r.Start <= p.End && bitx.Overlaps(p.Mask, r.Mask) {
				return invalid("ram", r.Label, "mask overlaps "+p.Label.String())
			}
		}
	}
	for _, r := range d.Inputs {
		if err := r.Label.validate("input"); err != nil {
			return err
		}
		if r.Mask == 0 {
			return invalid("input", r.Label, "empty mask")
		}
	}
	for _, r := range d.Outputs {
		if err := r.Label.validate("output"); err != nil {
			return err
		}
		if r.Mask == 0 {
			return invalid("output", r.Label, "empty mask")
		}
	}
	for _, h := range d.Hooks {
		if err := h.Label.validate("hook"); err != nil {
			return err
		}
		if h.Run == nil {
			return invalid("hook", h.Label, "no function")
		}
	}
	return nil
}

func invalid(what string, l Label, msg string) error {
	return errcode.New(errcode.InvalidParams, "board", what+" "+l.String()+": "+msg)
}
