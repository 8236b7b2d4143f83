package menu

import (
	"strings"

	"incircuit-go/board"
	"incircuit-go/cpu"
)

func init() {
	for _, f := range Families() {
		Register(Entry{Name: strings.ToUpper(string(f)) + " GENERIC", Tag: Generic, Family: f, New: generic(f)})
	}
	Register(Entry{Name: "Z80 SAMPLE", Tag: Board, Family: cpu.FamilyZ80, New: fixed(cpu.FamilyZ80, 0x40, z80Sample)})
	Register(Entry{Name: "6502 SAMPLE", Tag: Board, Family: cpu.Family6502, New: fixed(cpu.Family6502, 0x4000, m6502Sample)})
	Register(Entry{Name: "6809 SAMPLE", Tag: Board, Family: cpu.Family6809, New: fixed(cpu.Family6809, 0, m6809Sample)})
	Register(Entry{Name: "68000 SAMPLE", Tag: Board, Family: cpu.Family68000, New: fixed(cpu.Family68000, 0x300001, m68000Sample)})
}

const none = cpu.NoBank

func lbl(loc, name string) board.Label { return board.Label{Loc: loc, Name: name} }

// Z80 board: two program ROMs, a banked pair of graphics ROMs behind port
// 0x40, nibble-wide RAM pair plus work RAM, switches and lamps on I/O ports,
// and a vectored (mode 2) interrupt.
func z80Sample() *board.Description {
	return &board.Description{
		Name:   "Z80 sample",
		Family: cpu.FamilyZ80,
		ROM: []board.ROMRegion{
			{Bank: none, Start: 0x0000, Length: 0x800, CRC: 0x44840B47, Label: lbl("7C", "PROG1")},
			{Bank: none, Start: 0x0800, Length: 0x800, CRC: 0x4BFAEC8B, Label: lbl("7D", "PROG2")},
			{Bank: 0, Start: 0x4000, Length: 0x400, CRC: 0x0AA7FAB4, Label: lbl("8C", "GFX0")},
			{Bank: 1, Start: 0x4000, Length: 0x400, CRC: 0x6FE4DDA8, Label: lbl("8D", "GFX1")},
		},
		RAM: []board.RAMRegion{
			{Bank: none, Start: 0x8000, End: 0x80FF, Mask: 0x0F, Label: lbl("4A", "LO")},
			{Bank: none, Start: 0x8000, End: 0x80FF, Mask: 0xF0, Label: lbl("4B", "HI")},
			{Bank: none, Start: 0x9000, End: 0x90FF, Mask: 0xFF, Label: lbl("5A", "WORK")},
		},
		Inputs: []board.InputRegion{
			{Bank: none, Space: cpu.IO, Address: 0x10, Mask: 0xFF, Label: lbl("3F", "DSW1")},
			{Bank: none, Space: cpu.IO, Address: 0x11, Mask: 0x3F, Label: lbl("3H", "IN0")},
		},
		Outputs: []board.OutputRegion{
			{Bank: none, Space: cpu.IO, Address: 0x20, Mask: 0x03, Default: 0x00, Label: lbl("6K", "LAMPS")},
		},
		Interrupt: board.Interrupt{Line: cpu.LineINT, Vector: 0xE7},
	}
}

func m6502Sample() *board.Description {
	return &board.Description{
		Name:   "6502 sample",
		Family: cpu.Family6502,
		ROM: []board.ROMRegion{
			{Bank: none, Start: 0xF000, Length: 0x1000, CRC: 0xB75780F7, Label: lbl("1F", "PROG")},
			{Bank: 0, Start: 0x8000, Length: 0x400, CRC: 0x4E058B63, Label: lbl("3D", "BANK0")},
			{Bank: 1, Start: 0x8000, Length: 0x400, CRC: 0x55BEE9A2, Label: lbl("3E", "BANK1")},
		},
		RAM: []board.RAMRegion{
			{Bank: none, Start: 0x0000, End: 0x00FF, Mask: 0xFF, Label: lbl("2A", "ZP")},
			{Bank: none, Start: 0x0200, End: 0x02FF, Mask: 0x0F, Label: lbl("2B", "NIB")},
		},
		Inputs: []board.InputRegion{
			{Bank: none, Space: cpu.Memory, Address: 0x2000, Mask: 0xFF, Label: lbl("4C", "IN0")},
		},
		Outputs: []board.OutputRegion{
			{Bank: none, Space: cpu.Memory, Address: 0x3000, Mask: 0x0F, Default: 0x00, Label: lbl("4D", "LEDS")},
		},
		Interrupt: board.Interrupt{Line: cpu.LineINT, Auto: true, Vector: 0x9339},
	}
}

func m6809Sample() *board.Description {
	return &board.Description{
		Name:   "6809 sample",
		Family: cpu.Family6809,
		ROM: []board.ROMRegion{
			{Bank: none, Start: 0xE000, Length: 0x2000, CRC: 0xEDC2E56E, Label: lbl("9A", "PROG")},
		},
		RAM: []board.RAMRegion{
			{Bank: none, Start: 0x0000, End: 0x00FF, Mask: 0x0F, Label: lbl("6A", "LO")},
			{Bank: none, Start: 0x0000, End: 0x00FF, Mask: 0xF0, Label: lbl("6B", "HI")},
		},
		Inputs: []board.InputRegion{
			{Bank: none, Space: cpu.Memory, Address: 0xA000, Mask: 0xFF, Label: lbl("7A", "DSW")},
		},
		Outputs: []board.OutputRegion{
			{Bank: none, Space: cpu.Memory, Address: 0xA800, Mask: 0xFF, Default: 0x00, Label: lbl("7B", "OUT")},
		},
		Interrupt: board.Interrupt{Line: cpu.LineFIRQ, Auto: true, Vector: 0x2153},
	}
}

func m68000Sample() *board.Description {
	return &board.Description{
		Name:   "68000 sample",
		Family: cpu.Family68000,
		ROM: []board.ROMRegion{
			{Bank: none, Start: 0x000000, Length: 0x1000, CRC: 0xA2FEF5A0, Label: lbl("U1", "PROG")},
			{Bank: 0, Start: 0x010000, Length: 0x400, CRC: 0x30AB21B1, Label: lbl("U2", "DATA0")},
			{Bank: 1, Start: 0x010000, Length: 0x400, CRC: 0x6CFF8CF5, Label: lbl("U3", "DATA1")},
		},
		RAM: []board.RAMRegion{
			{Bank: none, Start: 0x100000, End: 0x1000FF, Mask: 0xFF, Label: lbl("U5", "RAM")},
		},
		Inputs: []board.InputRegion{
			{Bank: none, Space: cpu.Memory, Address: 0x200001, Mask: 0xFF, Label: lbl("U6", "IN0")},
		},
		Outputs: []board.OutputRegion{
			{Bank: none, Space: cpu.Memory, Address: 0x200011, Mask: 0xFF, Default: 0x00, Label: lbl("U7", "OUT0")},
		},
		Interrupt: board.Interrupt{Line: cpu.LineINT, Vector: 0x40},
	}
}
