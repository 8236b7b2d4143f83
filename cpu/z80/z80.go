// Package z80 drives a board through a Z80 socket.
//
// Memory cycles assert MREQ with RD or WR, I/O cycles assert IORQ instead.
// A board may stretch any cycle by holding WAIT low; the driver samples WAIT
// while the strobes are active and gives up after Timing.MaxPolls samples.
//
// Interrupts: the board pulls INT low and the driver answers with an
// acknowledge cycle (M1 and IORQ together, no MREQ). In mode 0 or 2 the board
// puts the vector on the data bus during that cycle; in mode 1 the vector is
// the fixed restart at 0x38 and the data bus is ignored. NMI needs no
// acknowledge and always vectors to 0x66.
package z80

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
	PinMREQ  pinbus.LogicalPin = 24
	PinIORQ  pinbus.LogicalPin = 25
	PinRD    pinbus.LogicalPin = 26
	PinWR    pinbus.LogicalPin = 27
	PinM1    pinbus.LogicalPin = 28
	PinRFSH  pinbus.LogicalPin = 29
	PinHALT  pinbus.LogicalPin = 30
	PinBUSAK pinbus.LogicalPin = 31
	PinWAIT  pinbus.LogicalPin = 32
	PinINT   pinbus.LogicalPin = 33
	PinNMI   pinbus.LogicalPin = 34
	PinRESET pinbus.LogicalPin = 35
	PinBUSRQ pinbus.LogicalPin = 36
	PinCLK   pinbus.LogicalPin = 37
	PinCount                   = 38
)

// Vectors used when the processor supplies its own.
const (
	VectorIM1 = 0x38
	VectorNMI = 0x66
)

// Wiring lists the socket connections. Lines the tester drives are the
// processor's outputs; WAIT, INT, NMI, RESET, BUSRQ and CLK are sensed.
type Wiring struct {
	Address []pinbus.Connection
	Data    []pinbus.Connection

	MREQ, IORQ, RD, WR, M1, RFSH, HALT, BUSAK pinbus.Connection
	WAIT, INT, NMI, RESET, BUSRQ, CLK         pinbus.Connection
}

// DefaultWiring follows the logical layout above.
func DefaultWiring() Wiring {
	return Wiring{
		Address: pinbus.Conns(PinA0, 16, "A"),
		Data:    pinbus.Conns(PinD0, 8, "D"),
		MREQ:    pinbus.Connection{Pin: PinMREQ, Label: "MREQ"},
		IORQ:    pinbus.Connection{Pin: PinIORQ, Label: "IORQ"},
		RD:      pinbus.Connection{Pin: PinRD, Label: "RD"},
		WR:      pinbus.Connection{Pin: PinWR, Label: "WR"},
		M1:      pinbus.Connection{Pin: PinM1, Label: "M1"},
		RFSH:    pinbus.Connection{Pin: PinRFSH, Label: "RFSH"},
		HALT:    pinbus.Connection{Pin: PinHALT, Label: "HALT"},
		BUSAK:   pinbus.Connection{Pin: PinBUSAK, Label: "BUSAK"},
		WAIT:    pinbus.Connection{Pin: PinWAIT, Label: "WAIT"},
		INT:     pinbus.Connection{Pin: PinINT, Label: "INT"},
		NMI:     pinbus.Connection{Pin: PinNMI, Label: "NMI"},
		RESET:   pinbus.Connection{Pin: PinRESET, Label: "RESET"},
		BUSRQ:   pinbus.Connection{Pin: PinBUSRQ, Label: "BUSRQ"},
		CLK:     pinbus.Connection{Pin: PinCLK, Label: "CLK"},
	}
}

// Config for New.
type Config struct {
	Wire   cpu.Wire
	Wiring *Wiring // nil selects DefaultWiring
	Timing cpu.Timing

	// Bank codes are written with OUT to BankPort, or with a memory write to
	// BankPort when BankInMemory is set.
	BankPort     uint16
	BankInMemory bool
}

// Driver is a Z80 bus master.
type Driver struct {
	cpu.Machine
	cfg Config
	t   cpu.Timing

	addr, data pinbus.Bus

	mreq, iorq, rd, wr, m1, rfsh, halt, busak pinbus.Signal
	wait, intr, nmi, reset, busrq, clk        pinbus.Signal

	bank      cpu.Bank
	bankKnown bool
}

// New resolves the wiring. The driver starts Uninitialized; call Idle before
// any bus operation.
func New(cfg Config) (*Driver, error) {
	w := DefaultWiring()
	if cfg.Wiring != nil {
		w = *cfg.Wiring
	}
	d := &Driver{Machine: cpu.NewMachine("z80"), cfg: cfg, t: cfg.Timing.WithDefaults()}
	var err error
	if d.addr, err = cfg.Wire.Bus(w.Address); err != nil {
		return nil, err
	}
	if d.data, err = cfg.Wire.Bus(w.Data); err != nil {
		return nil, err
	}
	required := []struct {
		dst *pinbus.Signal
		c   pinbus.Connection
	}{
		{&d.mreq, w.MREQ}, {&d.iorq, w.IORQ}, {&d.rd, w.RD}, {&d.wr, w.WR},
		{&d.m1, w.M1}, {&d.wait, w.WAIT}, {&d.intr, w.INT}, {&d.nmi, w.NMI},
	}
	for _, r := range required {
		if *r.dst, err = cfg.Wire.Signal(r.c, true); err != nil {
			return nil, err
		}
	}
	optional := []struct {
		dst *pinbus.Signal
		c   pinbus.Connection
	}{
		{&d.rfsh, w.RFSH}, {&d.halt, w.HALT}, {&d.busak, w.BUSAK},
		{&d.reset, w.RESET}, {&d.busrq, w.BUSRQ},
	}
	for _, o := range optional {
		if *o.dst, err = cfg.Wire.Optional(o.c, true); err != nil {
			return nil, err
		}
	}
	if d.clk, err = cfg.Wire.Optional(w.CLK, false); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) Family() cpu.Family { return cpu.FamilyZ80 }

// Idle releases the data bus, senses the board-driven lines and parks every
// strobe inactive with the address bus at zero. A second call is a no-op.
func (d *Driver) Idle() error {
	if d.State() == cpu.Idle {
		return nil
	}
	for _, s := range []pinbus.Signal{d.wait, d.intr, d.nmi, d.reset, d.busrq, d.clk} {
		if err := s.Sense(); err != nil {
			return err
		}
	}
	d.data.SetDirection(pinbus.Input)
	for _, s := range []pinbus.Signal{d.mreq, d.iorq, d.rd, d.wr, d.m1, d.rfsh, d.halt, d.busak} {
		if err := s.Drive(false); err != nil {
			return err
		}
	}
	d.addr.SetDirection(pinbus.Output)
	d.addr.Write(0)
	d.End()
	return nil
}

func (d *Driver) Read(addr uint32) (byte, error) { return d.cycle("read", d.mreq, addr, false, 0) }

func (d *Driver) Write(addr uint32, v byte) error {
	_, err := d.cycle("write", d.mreq, addr, true, v)
	return err
}

func (d *Driver) ReadIO(port uint32) (byte, error) { return d.cycle("in", d.iorq, port, false, 0) }

func (d *Driver) WriteIO(port uint32, v byte) error {
	_, err := d.cycle("out", d.iorq, port, true, v)
	return err
}

// cycle runs one memory or I/O cycle. The strobes are always released before
// returning, also on timeout.
func (d *Driver) cycle(op string, space pinbus.Signal, addr uint32, write bool, v byte) (byte, error) {
	if err := d.Begin(op); err != nil {
		return 0, err
	}
	defer d.End()

	d.addr.Write(addr & 0xFFFF)
	strobe := d.rd
	if write {
		strobe = d.wr
		d.data.SetDirection(pinbus.Output)
		d.data.Write(uint32(v))
	}
	space.Assert()
	strobe.Assert()
	ready := cpu.Poll(d.t.MaxPolls, d.ready, d.ClockPulse)
	var got byte
	if ready && !write {
		got = byte(d.data.Read())
	}
	strobe.Release()
	space.Release()
	if write {
		d.data.SetDirection(pinbus.Input)
	}
	if !ready {
		return 0, cpu.TimeoutErr(d.Op(op), "WAIT")
	}
	return got, nil
}

func (d *Driver) ready() bool { return !d.wait.Active() }

// ClockPulse waits for the next CLK edge from the board. Without a CLK
// connection it returns at once.
func (d *Driver) ClockPulse() {
	if !d.clk.Valid() {
		return
	}
	start := d.clk.Active()
	cpu.Poll(d.t.MaxPolls, func() bool { return d.clk.Active() != start }, nil)
}

// SelectBank writes b to the bank latch unless it is already selected.
func (d *Driver) SelectBank(b cpu.Bank) error {
	if b == cpu.NoBank || (d.bankKnown && d.bank == b) {
		return nil
	}
	var err error
	if d.cfg.BankInMemory {
		err = d.Write(uint32(d.cfg.BankPort), byte(b))
	} else {
		err = d.WriteIO(uint32(d.cfg.BankPort), byte(b))
	}
	if err != nil {
		d.bankKnown = false
		return err
	}
	d.bank, d.bankKnown = b, true
	return nil
}

// Interrupt waits for INT or NMI and acknowledges it.
func (d *Driver) Interrupt(ctx context.Context, line cpu.Line, auto bool) (cpu.Ack, error) {
	var sig pinbus.Signal
	switch line {
	case cpu.LineINT:
		sig = d.intr
	case cpu.LineNMI:
		if !auto {
			return cpu.Ack{}, &errcode.E{C: errcode.Unsupported, Op: d.Op("interrupt"), Msg: "NMI VECTOR"}
		}
		sig = d.nmi
	default:
		return cpu.Ack{}, &errcode.E{C: errcode.Unsupported, Op: d.Op("interrupt"), Msg: line.String()}
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
	if line == cpu.LineNMI {
		return cpu.Ack{Line: line, Vector: VectorNMI, Auto: true}, nil
	}

	d.m1.Assert()
	d.iorq.Assert()
	ready := cpu.Poll(d.t.MaxPolls, d.ready, d.ClockPulse)
	v := byte(d.data.Read())
	d.iorq.Release()
	d.m1.Release()
	if !ready {
		return cpu.Ack{}, cpu.TimeoutErr(d.Op("interrupt"), "WAIT")
	}
	if auto {
		return cpu.Ack{Line: line, Vector: VectorIM1, Auto: true}, nil
	}
	return cpu.Ack{Line: line, Vector: uint32(v)}, nil
}
