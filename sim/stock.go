//go:build !rp2040 && !rp2350

package sim

import (
	"incircuit-go/cpu"
	"incircuit-go/errcode"
)

// Pattern returns n bytes of deterministic ROM content for seed.
func Pattern(seed uint32, n int) []byte {
	out := make([]byte, n)
	x := seed*2654435761 + 1
	for i := range out {
		x = x*1664525 + 1013904223
		out[i] = byte(x >> 24)
	}
	return out
}

// Stock is a ready-made board for one family: its target and the interrupt
// it raises periodically.
type Stock struct {
	Target *Target
	IRQ    IntSource
	// RAM chips in declaration order, for fault injection.
	RAM []*RAM
}

// NewStock builds the stock board for f. The layouts match the sample boards
// in the menu.
func NewStock(f cpu.Family) (*Stock, error) {
	switch f {
	case cpu.FamilyZ80:
		return stockZ80(), nil
	case cpu.Family6502:
		return stock6502(), nil
	case cpu.Family6809:
		return stock6809(), nil
	case cpu.Family68000:
		return stock68000(), nil
	}
	return nil, errcode.New(errcode.UnknownBoard, "sim", "no stock board for "+string(f))
}

func stockZ80() *Stock {
	lo := NewRAM(cpu.NoBank, 0x8000, 0x100, 0x0F)
	hi := NewRAM(cpu.NoBank, 0x8000, 0x100, 0xF0)
	work := NewRAM(cpu.NoBank, 0x9000, 0x100, 0xFF)
	t := &Target{HasBank: true, BankSpace: cpu.IO, BankAddr: 0x40, Waits: 1}
	t.Add(
		&ROM{Bank: cpu.NoBank, Base: 0x0000, Data: Pattern(1, 0x800)},
		&ROM{Bank: cpu.NoBank, Base: 0x0800, Data: Pattern(2, 0x800)},
		&ROM{Bank: 0, Base: 0x4000, Data: Pattern(3, 0x400)},
		&ROM{Bank: 1, Base: 0x4000, Data: Pattern(4, 0x400)},
		lo, hi, work,
		&Input{Space: cpu.IO, Addr: 0x10, Mask: 0xFF, Value: 0x5A},
		&Input{Space: cpu.IO, Addr: 0x11, Mask: 0x3F, Value: 0x3F},
		&Latch{Space: cpu.IO, Addr: 0x20, Mask: 0x03},
	)
	return &Stock{
		Target: t,
		IRQ:    IntSource{Line: cpu.LineINT, Vector: 0xE7, Delay: 40, Repeat: true},
		RAM:    []*RAM{lo, hi, work},
	}
}

func stock6502() *Stock {
	zp := NewRAM(cpu.NoBank, 0x0000, 0x100, 0xFF)
	nib := NewRAM(cpu.NoBank, 0x0200, 0x100, 0x0F)
	t := &Target{HasBank: true, BankSpace: cpu.Memory, BankAddr: 0x4000, Waits: 1}
	t.Add(
		&ROM{Bank: cpu.NoBank, Base: 0xF000, Data: Pattern(5, 0x1000)},
		&ROM{Bank: 0, Base: 0x8000, Data: Pattern(6, 0x400)},
		&ROM{Bank: 1, Base: 0x8000, Data: Pattern(7, 0x400)},
		zp, nib,
		&Input{Space: cpu.Memory, Addr: 0x2000, Mask: 0xFF, Value: 0xA5},
		&Latch{Space: cpu.Memory, Addr: 0x3000, Mask: 0x0F},
	)
	return &Stock{
		Target: t,
		IRQ:    IntSource{Line: cpu.LineINT, Auto: true, Delay: 40, Repeat: true},
		RAM:    []*RAM{zp, nib},
	}
}

func stock6809() *Stock {
	lo := NewRAM(cpu.NoBank, 0x0000, 0x100, 0x0F)
	hi := NewRAM(cpu.NoBank, 0x0000, 0x100, 0xF0)
	t := &Target{Waits: 1}
	t.Add(
		&ROM{Bank: cpu.NoBank, Base: 0xE000, Data: Pattern(8, 0x2000)},
		lo, hi,
		&Input{Space: cpu.Memory, Addr: 0xA000, Mask: 0xFF, Value: 0x3C},
		&Latch{Space: cpu.Memory, Addr: 0xA800, Mask: 0xFF},
	)
	return &Stock{
		Target: t,
		IRQ:    IntSource{Line: cpu.LineFIRQ, Auto: true, Delay: 40, Repeat: true},
		RAM:    []*RAM{lo, hi},
	}
}

func stock68000() *Stock {
	ram := NewRAM(cpu.NoBank, 0x100000, 0x100, 0xFF)
	t := &Target{HasBank: true, BankSpace: cpu.Memory, BankAddr: 0x300001, Waits: 2}
	t.Add(
		&ROM{Bank: cpu.NoBank, Base: 0x000000, Data: Pattern(9, 0x1000)},
		&ROM{Bank: 0, Base: 0x010000, Data: Pattern(10, 0x400)},
		&ROM{Bank: 1, Base: 0x010000, Data: Pattern(11, 0x400)},
		ram,
		&Input{Space: cpu.Memory, Addr: 0x200001, Mask: 0xFF, Value: 0x81},
		&Latch{Space: cpu.Memory, Addr: 0x200011, Mask: 0xFF},
	)
	return &Stock{
		Target: t,
		IRQ:    IntSource{Line: cpu.LineINT, Level: 4, Vector: 0x40, Delay: 40, Repeat: true},
		RAM:    []*RAM{ram},
	}
}
