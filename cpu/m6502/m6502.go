// Package m6502 drives a board through a 6502 socket.
//
// The tester generates PHI2. A cycle puts the address and R/W out while PHI2
// is low, raises PHI2, and either samples the data bus (read) or lets the
// board latch it on the falling edge (write). RDY low stretches read cycles
// by whole clocks; writes are never stretched.
package m6502

import (
	"context"

	"incircuit-go/cpu"
	"incircuit-go/errcode"
	"incircuit-go/pinbus"
)

// Logical pin layout of DefaultWiring.
const (
	PinA0    pinbus.LogicalPin = 0
	PinD0    pinbus.LogicalPin = 16
	PinRW    pinbus.LogicalPin = 24
	PinPHI2  pinbus.LogicalPin = 25
	PinSYNC  pinbus.LogicalPin = 26
	PinRDY   pinbus.LogicalPin = 27
	PinIRQ   pinbus.LogicalPin = 28
	PinNMI   pinbus.LogicalPin = 29
	PinRES   pinbus.LogicalPin = 30
	PinCount                   = 31
)

// Hardware vectors.
const (
	VectorNMI = 0xFFFA
	VectorRES = 0xFFFC
	VectorIRQ = 0xFFFE
)

type Wiring struct {
	Address []pinbus.Connection
	Data    []pinbus.Connection

	RW, PHI2, SYNC pinbus.Connection
	RDY, IRQ, NMI  pinbus.Connection
	RES            pinbus.Connection
}

func DefaultWiring() Wiring {
	return Wiring{
		Address: pinbus.Conns(PinA0, 16, "A"),
		Data:    pinbus.Conns(PinD0, 8, "D"),
		RW:      pinbus.Connection{Pin: PinRW, Label: "RW"},
		PHI2:    pinbus.Connection{Pin: PinPHI2, Label: "PHI2"},
		SYNC:    pinbus.Connection{Pin: PinSYNC, Label: "SYNC"},
		RDY:     pinbus.Connection{Pin: PinRDY, Label: "RDY"},
		IRQ:     pinbus.Connection{Pin: PinIRQ, Label: "IRQ"},
		NMI:     pinbus.Connection{Pin: PinNMI, Label: "NMI"},
		RES:     pinbus.Connection{Pin: PinRES, Label: "RES"},
	}
}

type Config struct {
	Wire   cpu.Wire
	Wiring *Wiring
	Timing cpu.Timing

	// BankLatch is the memory address bank codes are written to.
	BankLatch uint16
}

// Driver is a 6502 bus master.
type Driver struct {
	cpu.Machine
	cfg Config
	t   cpu.Timing

	addr, data pinbus.Bus

	write, phi2, sync pinbus.Signal // write is R/W seen from its low side
	stall, irq, nmi   pinbus.Signal // stall is RDY seen from its low side
	res               pinbus.Signal

	bank      cpu.Bank
	bankKnown bool
}

func New(cfg Config) (*Driver, error) {
	w := DefaultWiring()
	if cfg.Wiring != nil {
		w = *cfg.Wiring
	}
	d := &Driver{Machine: cpu.NewMachine("6502"), cfg: cfg, t: cfg.Timing.WithDefaults()}
	var err error
	if d.addr, err = cfg.Wire.Bus(w.Address); err != nil {
		return nil, err
	}
	if d.data, err = cfg.Wire.Bus(w.Data); err != nil {
		return nil, err
	}
	if d.write, err = cfg.Wire.Signal(w.RW, true); err != nil {
		return nil, err
	}
	if d.phi2, err = cfg.Wire.Signal(w.PHI2, false); err != nil {
		return nil, err
	}
	if d.irq, err = cfg.Wire.Signal(w.IRQ, true); err != nil {
		return nil, err
	}
	if d.nmi, err = cfg.Wire.Signal(w.NMI, true); err != nil {
		return nil, err
	}
	if d.sync, err = cfg.Wire.Optional(w.SYNC, false); err != nil {
		return nil, err
	}
	if d.stall, err = cfg.Wire.Optional(w.RDY, true); err != nil {
		return nil, err
	}
	if d.res, err = cfg.Wire.Optional(w.RES, true); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) Family() cpu.Family { return cpu.Family6502 }

// Idle leaves PHI2 low, R/W high (read) and the data bus released.
func (d *Driver) Idle() error {
	if d.State() == cpu.Idle {
		return nil
	}
	for _, s := range []pinbus.Signal{d.stall, d.irq, d.nmi, d.res} {
		if err := s.Sense(); err != nil {
			return err
		}
	}
	d.data.SetDirection(pinbus.Input)
	for _, s := range []pinbus.Signal{d.phi2, d.write, d.sync} {
		if err := s.Drive(false); err != nil {
			return err
		}
	}
	d.addr.SetDirection(pinbus.Output)
	d.addr.Write(0)
	d.End()
	return nil
}

func (d *Driver) Read(addr uint32) (byte, error) {
	if err := d.Begin("read"); err != nil {
		return 0, err
	}
	defer d.End()
	return d.read("read", addr)
}

func (d *Driver) Write(addr uint32, v byte) error {
	if err := d.Begin("write"); err != nil {
		return err
	}
	defer d.End()
	d.addr.Write(addr & 0xFFFF)
	d.write.Assert()
	d.data.SetDirection(pinbus.Output)
	d.data.Write(uint32(v))
	d.phi2.Assert()
	d.phi2.Release()
	d.write.Release()
	d.data.SetDirection(pinbus.Input)
	return nil
}

// read runs one read cycle; the caller holds the machine.
func (d *Driver) read(op string, addr uint32) (byte, error) {
	d.addr.Write(addr & 0xFFFF)
	d.phi2.Assert()
	ready := cpu.Poll(d.t.MaxPolls, d.ready, d.ClockPulse)
	var v byte
	if ready {
		v = byte(d.data.Read())
	}
	d.phi2.Release()
	if !ready {
		return 0, cpu.TimeoutErr(d.Op(op), "RDY")
	}
	return v, nil
}

func (d *Driver) ready() bool { return !d.stall.Active() }

// ClockPulse runs one full PHI2 period and leaves the clock where it was.
func (d *Driver) ClockPulse() {
	if d.phi2.Active() {
		d.phi2.Release()
		d.phi2.Assert()
		return
	}
	d.phi2.Assert()
	d.phi2.Release()
}

// SelectBank writes b to BankLatch unless it is already selected.
func (d *Driver) SelectBank(b cpu.Bank) error {
	if b == cpu.NoBank || (d.bankKnown && d.bank == b) {
		return nil
	}
	if err := d.Write(uint32(d.cfg.BankLatch), byte(b)); err != nil {
		d.bankKnown = false
		return err
	}
	d.bank, d.bankKnown = b, true
	return nil
}

// Interrupt waits for IRQ or NMI, then fetches the handler address from the
// matching vector. The 6502 has no external vectoring.
func (d *Driver) Interrupt(ctx context.Context, line cpu.Line, auto bool) (cpu.Ack, error) {
	var sig pinbus.Signal
	var vec uint32
	switch line {
	case cpu.LineINT:
		sig, vec = d.irq, VectorIRQ
	case cpu.LineNMI:
		sig, vec = d.nmi, VectorNMI
	default:
		return cpu.Ack{}, &errcode.E{C: errcode.Unsupported, Op: d.Op("interrupt"), Msg: line.String()}
	}
	if !auto {
		return cpu.Ack{}, &errcode.E{C: errcode.Unsupported, Op: d.Op("interrupt"), Msg: "EXT VECTOR"}
	}
	if err := d.Begin("interrupt"); err != nil {
		return cpu.Ack{}, err
	}
	defer d.End()

	ok, err := cpu.PollCtx(ctx, d.t.IntPolls, sig.Active, d.ClockPulse)
	if err != nil {
		return cpu.Ack{}, err
	}
	if !ok {
		return cpu.Ack{}, cpu.TimeoutErr(d.Op("interrupt"), line.String())
	}
	lo, err := d.read("interrupt", vec)
	if err != nil {
		return cpu.Ack{}, err
	}
	hi, err := d.read("interrupt", vec+1)
	if err != nil {
		return cpu.Ack{}, err
	}
	return cpu.Ack{Line: line, Vector: uint32(hi)<<8 | uint32(lo), Auto: true}, nil
}
