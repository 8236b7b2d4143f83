//go:build !rp2040 && !rp2350

// Package sim is a pin-level simulation of target boards for host builds and
// tests. A Target is the board's address decoding and chips; a Socket wires a
// Target to a bank of host pins and answers the bus protocol of one processor
// family, so the real drivers run unchanged against it.
package sim

import "incircuit-go/cpu"

// Device is one chip on the simulated board.
type Device interface {
	Contains(sp cpu.Space, addr uint32) bool
	// Read returns the value the device drives and the data bits it drives.
	Read(addr uint32) (v, mask uint8)
	Write(addr uint32, v uint8)
}

// banked is implemented by devices that only decode in one bank.
type banked interface {
	InBank() cpu.Bank
}

// ROM is a read-only chip.
type ROM struct {
	Bank cpu.Bank
	Base uint32
	Data []byte
}

func (r *ROM) InBank() cpu.Bank { return r.Bank }

func (r *ROM) Contains(sp cpu.Space, a uint32) bool {
	return sp == cpu.Memory && a >= r.Base && a-r.Base < uint32(len(r.Data))
}

func (r *ROM) Read(a uint32) (uint8, uint8) { return r.Data[a-r.Base], 0xFF }
func (r *ROM) Write(uint32, uint8)          {}

// RAM is a read/write chip driving only the bits in Mask. Stuck0 and Stuck1
// force bits low or high on read.
type RAM struct {
	Bank   cpu.Bank
	Base   uint32
	Mask   uint8
	Stuck0 uint8
	Stuck1 uint8
	data   []byte
}

// NewRAM returns a chip of size bytes at base.
func NewRAM(bank cpu.Bank, base, size uint32, mask uint8) *RAM {
	return &RAM{Bank: bank, Base: base, Mask: mask, data: make([]byte, size)}
}

func (r *RAM) InBank() cpu.Bank { return r.Bank }

func (r *RAM) Contains(sp cpu.Space, a uint32) bool {
	return sp == cpu.Memory && a >= r.Base && a-r.Base < uint32(len(r.data))
}

func (r *RAM) Read(a uint32) (uint8, uint8) {
	v := r.data[a-r.Base]
	v = (v | r.Stuck1) &^ r.Stuck0
	return v & r.Mask, r.Mask
}

func (r *RAM) Write(a uint32, v uint8) { r.data[a-r.Base] = v & r.Mask }

// Peek returns the stored byte without stuck bits applied.
func (r *RAM) Peek(a uint32) uint8 { return r.data[a-r.Base] }

// Input is a readable latch such as a DIP switch bank.
type Input struct {
	Space cpu.Space
	Addr  uint32
	Mask  uint8
	Value uint8
}

func (i *Input) Contains(sp cpu.Space, a uint32) bool { return sp == i.Space && a == i.Addr }
func (i *Input) Read(uint32) (uint8, uint8)           { return i.Value & i.Mask, i.Mask }
func (i *Input) Write(uint32, uint8)                  {}

// Latch is a write-only output latch that records every value written.
type Latch struct {
	Space   cpu.Space
	Addr    uint32
	Mask    uint8
	History []uint8
}

func (l *Latch) Contains(sp cpu.Space, a uint32) bool { return sp == l.Space && a == l.Addr }
func (l *Latch) Read(uint32) (uint8, uint8)           { return 0, 0 }
func (l *Latch) Write(_ uint32, v uint8)              { l.History = append(l.History, v&l.Mask) }

// Target is the board: its devices, bank latch and bus faults.
type Target struct {
	Devices []Device

	// BankSpace/BankAddr locate the bank latch when HasBank is set.
	HasBank   bool
	BankSpace cpu.Space
	BankAddr  uint32

	// Waits is the number of handshake samples each cycle is held off.
	// StuckWait holds every cycle forever.
	Waits     int
	StuckWait bool

	// BusErrorUnmapped answers unmapped 68000 cycles with BERR instead of
	// leaving them without DTACK.
	BusErrorUnmapped bool

	bank     cpu.Bank
	reads    int
	writes   int
	bankSets int
}

// Add appends devices.
func (t *Target) Add(d ...Device) *Target {
	t.Devices = append(t.Devices, d...)
	return t
}

// Bank is the value last written to the bank latch.
func (t *Target) Bank() cpu.Bank { return t.bank }

// Stats reports completed reads, writes and bank latch writes.
func (t *Target) Stats() (reads, writes, bankSets int) { return t.reads, t.writes, t.bankSets }

func (t *Target) visible(d Device) bool {
	b, ok := d.(banked)
	return !ok || b.InBank() == cpu.NoBank || b.InBank() == t.bank
}

// Mapped reports whether anything decodes addr.
func (t *Target) Mapped(sp cpu.Space, addr uint32) bool {
	if t.HasBank && sp == t.BankSpace && addr == t.BankAddr {
		return true
	}
	for _, d := range t.Devices {
		if t.visible(d) && d.Contains(sp, addr) {
			return true
		}
	}
	return false
}

// Read merges the bits every decoding device drives; bits nobody drives read
// high.
func (t *Target) Read(sp cpu.Space, addr uint32) uint8 {
	t.reads++
	v := uint8(0xFF)
	for _, d := range t.Devices {
		if !t.visible(d) || !d.Contains(sp, addr) {
			continue
		}
		dv, m := d.Read(addr)
		v = v&^m | dv&m
	}
	return v
}

// Write delivers v to the bank latch and every decoding device.
func (t *Target) Write(sp cpu.Space, addr uint32, v uint8) {
	t.writes++
	if t.HasBank && sp == t.BankSpace && addr == t.BankAddr {
		t.bank = cpu.Bank(v)
		t.bankSets++
		return
	}
	for _, d := range t.Devices {
		if t.visible(d) && d.Contains(sp, addr) {
			d.Write(addr, v)
		}
	}
}

// IntSource is an interrupt the board raises.
type IntSource struct {
	Line   cpu.Line
	Level  uint8 // 68000 IPL level
	Vector uint8 // put on the bus during acknowledge unless Auto
	Auto   bool  // Z80 mode 1, 68000 VPA
	Delay  int   // tester samples before the line asserts
	Repeat bool  // re-arm after every acknowledge, like a vblank
}
