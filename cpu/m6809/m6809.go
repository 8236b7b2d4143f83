// Package m6809 drives a board through a 6809E socket.
//
// The tester steps the E/Q quadrature clock itself: Q rises with the address
// valid, E rises, Q falls, and the data bus is sampled (read) or latched by
// the board (write) on the falling edge of E. An optional MRDY line holds E
// high to stretch a cycle. BS and BA report the bus state; BS high with BA
// low marks an interrupt vector fetch.
package m6809

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
	PinE     pinbus.LogicalPin = 25
	PinQ     pinbus.LogicalPin = 26
	PinBS    pinbus.LogicalPin = 27
	PinBA    pinbus.LogicalPin = 28
	PinIRQ   pinbus.LogicalPin = 29
	PinFIRQ  pinbus.LogicalPin = 30
	PinNMI   pinbus.LogicalPin = 31
	PinRESET pinbus.LogicalPin = 32
	PinHALT  pinbus.LogicalPin = 33
	PinMRDY  pinbus.LogicalPin = 34
	PinCount                   = 35
)

// Hardware vectors; each holds a big-endian handler address.
const (
	VectorFIRQ = 0xFFF6
	VectorIRQ  = 0xFFF8
	VectorNMI  = 0xFFFC
)

type Wiring struct {
	Address []pinbus.Connection
	Data    []pinbus.Connection

	RW, E, Q, BS, BA            pinbus.Connection
	IRQ, FIRQ, NMI, RESET, HALT pinbus.Connection
	MRDY                        pinbus.Connection
}

func DefaultWiring() Wiring {
	return Wiring{
		Address: pinbus.Conns(PinA0, 16, "A"),
		Data:    pinbus.Conns(PinD0, 8, "D"),
		RW:      pinbus.Connection{Pin: PinRW, Label: "RW"},
		E:       pinbus.Connection{Pin: PinE, Label: "E"},
		Q:       pinbus.Connection{Pin: PinQ, Label: "Q"},
		BS:      pinbus.Connection{Pin: PinBS, Label: "BS"},
		BA:      pinbus.Connection{Pin: PinBA, Label: "BA"},
		IRQ:     pinbus.Connection{Pin: PinIRQ, Label: "IRQ"},
		FIRQ:    pinbus.Connection{Pin: PinFIRQ, Label: "FIRQ"},
		NMI:     pinbus.Connection{Pin: PinNMI, Label: "NMI"},
		RESET:   pinbus.Connection{Pin: PinRESET, Label: "RESET"},
		HALT:    pinbus.Connection{Pin: PinHALT, Label: "HALT"},
		MRDY:    pinbus.Connection{Pin: PinMRDY, Label: "MRDY"},
	}
}

type Config struct {
	Wire   cpu.Wire
	Wiring *Wiring
	Timing cpu.Timing

	BankLatch uint16
}

// Driver is a 6809E bus master.
type Driver struct {
	cpu.Machine
	cfg Config
	t   cpu.Timing

	addr, data pinbus.Bus

	write, e, q, bs, ba         pinbus.Signal
	irq, firq, nmi, reset, halt pinbus.Signal
	stretch                     pinbus.Signal // MRDY low

	bank      cpu.Bank
	bankKnown bool
}

func New(cfg Config) (*Driver, error) {
	w := DefaultWiring()
	if cfg.Wiring != nil {
		w = *cfg.Wiring
	}
	d := &Driver{Machine: cpu.NewMachine("6809"), cfg: cfg, t: cfg.Timing.WithDefaults()}
	var err error
	if d.addr, err = cfg.Wire.Bus(w.Address); err != nil {
		return nil, err
	}
	if d.data, err = cfg.Wire.Bus(w.Data); err != nil {
		return nil, err
	}
	sigs := []struct {
		dst       *pinbus.Signal
		c         pinbus.Connection
		activeLow bool
		optional  bool
	}{
		{&d.write, w.RW, true, false},
		{&d.e, w.E, false, false},
		{&d.q, w.Q, false, false},
		{&d.bs, w.BS, false, false},
		{&d.ba, w.BA, false, false},
		{&d.irq, w.IRQ, true, false},
		{&d.firq, w.FIRQ, true, false},
		{&d.nmi, w.NMI, true, false},
		{&d.reset, w.RESET, true, true},
		{&d.halt, w.HALT, true, true},
		{&d.stretch, w.MRDY, true, true},
	}
	for _, s := range sigs {
		if s.optional {
			*s.dst, err = cfg.Wire.Optional(s.c, s.activeLow)
		} else {
			*s.dst, err = cfg.Wire.Signal(s.c, s.activeLow)
		}
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Driver) Family() cpu.Family { return cpu.Family6809 }

// Idle leaves both clocks low, R/W high, BS/BA low and the data bus released.
func (d *Driver) Idle() error {
	if d.State() == cpu.Idle {
		return nil
	}
	for _, s := range []pinbus.Signal{d.irq, d.firq, d.nmi, d.reset, d.halt, d.stretch} {
		if err := s.Sense(); err != nil {
			return err
		}
	}
	d.data.SetDirection(pinbus.Input)
	for _, s := range []pinbus.Signal{d.e, d.q, d.write, d.bs, d.ba} {
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
	return d.cycle("read", addr, false, 0)
}

func (d *Driver) Write(addr uint32, v byte) error {
	if err := d.Begin("write"); err != nil {
		return err
	}
	defer d.End()
	_, err := d.cycle("write", addr, true, v)
	return err
}

// cycle runs one E period; the caller holds the machine.
func (d *Driver) cycle(op string, addr uint32, write bool, v byte) (byte, error) {
	d.addr.Write(addr & 0xFFFF)
	if write {
		d.write.Assert()
		d.data.SetDirection(pinbus.Output)
		d.data.Write(uint32(v))
	}
	d.q.Assert()
	d.e.Assert()
	d.q.Release()
	ready := cpu.Poll(d.t.MaxPolls, d.ready, nil)
	var got byte
	if ready && !write {
		got = byte(d.data.Read())
	}
	d.e.Release()
	if write {
		d.write.Release()
		d.data.SetDirection(pinbus.Input)
	}
	if !ready {
		return 0, cpu.TimeoutErr(d.Op(op), "MRDY")
	}
	return got, nil
}

func (d *Driver) ready() bool { return !d.stretch.Active() }

// ClockPulse runs one dead E/Q period with no address decode implied.
func (d *Driver) ClockPulse() {
	d.q.Assert()
	d.e.Assert()
	d.q.Release()
	d.e.Release()
}

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

// Interrupt waits for IRQ, FIRQ or NMI and runs the vector fetch with BS
// high. The 6809 always supplies its own vector address.
func (d *Driver) Interrupt(ctx context.Context, line cpu.Line, auto bool) (cpu.Ack, error) {
	var sig pinbus.Signal
	var vec uint32
	switch line {
	case cpu.LineINT:
		sig, vec = d.irq, VectorIRQ
	case cpu.LineFIRQ:
		sig, vec = d.firq, VectorFIRQ
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
	d.bs.Assert()
	defer d.bs.Release()
	hi, err := d.cycle("interrupt", vec, false, 0)
	if err != nil {
		return cpu.Ack{}, err
	}
	lo, err := d.cycle("interrupt", vec+1, false, 0)
	if err != nil {
		return cpu.Ack{}, err
	}
	return cpu.Ack{Line: line, Vector: uint32(hi)<<8 | uint32(lo), Auto: true}, nil
}
