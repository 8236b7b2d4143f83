// Package m68000 drives a board through a 68000 socket.
//
// Only byte accesses are issued. An even address uses UDS and D8-D15, an odd
// one LDS and D0-D7; writes place the byte on both lanes. Every cycle is an
// asynchronous AS/DTACK handshake: the driver waits up to Timing.MaxPolls
// samples for DTACK, and BERR ends the cycle with a bus error.
//
// Interrupts arrive as an encoded level on IPL0-2. The driver answers with an
// interrupt acknowledge cycle (FC=7, level on A1-A3). The board either
// returns a vector number with DTACK or asks for an autovector with VPA.
package m68000

import (
	"context"
	"strconv"

	"incircuit-go/cpu"
	"incircuit-go/errcode"
	"incircuit-go/pinbus"
)

// Logical pin layout of DefaultWiring.
const (
	PinA1    pinbus.LogicalPin = 0
	PinD0    pinbus.LogicalPin = 23
	PinAS    pinbus.LogicalPin = 39
	PinUDS   pinbus.LogicalPin = 40
	PinLDS   pinbus.LogicalPin = 41
	PinRW    pinbus.LogicalPin = 42
	PinFC0   pinbus.LogicalPin = 43
	PinVMA   pinbus.LogicalPin = 46
	PinDTACK pinbus.LogicalPin = 47
	PinVPA   pinbus.LogicalPin = 48
	PinBERR  pinbus.LogicalPin = 49
	PinIPL0  pinbus.LogicalPin = 50
	PinRESET pinbus.LogicalPin = 53
	PinHALT  pinbus.LogicalPin = 54
	PinCount                   = 55
)

// Function codes.
const (
	FCUserData     = 1
	FCUserProgram  = 2
	FCSuperData    = 5
	FCSuperProgram = 6
	FCInterruptAck = 7
)

// AutoVectorBase is the vector number of level 0; level n autovectors to
// AutoVectorBase+n.
const AutoVectorBase = 24

// AddressMask covers the 24-bit address space.
const AddressMask = 0xFFFFFF

type Wiring struct {
	Address []pinbus.Connection // A1..A23
	Data    []pinbus.Connection // D0..D15
	FC      []pinbus.Connection // FC0..FC2
	IPL     []pinbus.Connection // IPL0..IPL2

	AS, UDS, LDS, RW, VMA pinbus.Connection
	DTACK, VPA, BERR      pinbus.Connection
	RESET, HALT           pinbus.Connection
}

func DefaultWiring() Wiring {
	addr := make([]pinbus.Connection, 23)
	for i := range addr {
		addr[i] = pinbus.Connection{Pin: PinA1 + pinbus.LogicalPin(i), Label: "A" + strconv.Itoa(i+1)}
	}
	return Wiring{
		Address: addr,
		Data:    pinbus.Conns(PinD0, 16, "D"),
		FC:      pinbus.Conns(PinFC0, 3, "FC"),
		IPL:     pinbus.Conns(PinIPL0, 3, "IPL"),
		AS:      pinbus.Connection{Pin: PinAS, Label: "AS"},
		UDS:     pinbus.Connection{Pin: PinUDS, Label: "UDS"},
		LDS:     pinbus.Connection{Pin: PinLDS, Label: "LDS"},
		RW:      pinbus.Connection{Pin: PinRW, Label: "RW"},
		VMA:     pinbus.Connection{Pin: PinVMA, Label: "VMA"},
		DTACK:   pinbus.Connection{Pin: PinDTACK, Label: "DTACK"},
		VPA:     pinbus.Connection{Pin: PinVPA, Label: "VPA"},
		BERR:    pinbus.Connection{Pin: PinBERR, Label: "BERR"},
		RESET:   pinbus.Connection{Pin: PinRESET, Label: "RESET"},
		HALT:    pinbus.Connection{Pin: PinHALT, Label: "HALT"},
	}
}

type Config struct {
	Wire   cpu.Wire
	Wiring *Wiring
	Timing cpu.Timing

	BankLatch uint32
	// FC is the function code driven during ordinary cycles; zero selects
	// supervisor data.
	FC uint8
}

// Driver is a 68000 bus master.
type Driver struct {
	cpu.Machine
	cfg Config
	t   cpu.Timing
	fc  uint32

	addr, data, fcs, ipl pinbus.Bus

	as, uds, lds, write, vma pinbus.Signal
	dtack, vpa, berr         pinbus.Signal
	reset, halt              pinbus.Signal

	bank      cpu.Bank
	bankKnown bool
}

func New(cfg Config) (*Driver, error) {
	w := DefaultWiring()
	if cfg.Wiring != nil {
		w = *cfg.Wiring
	}
	d := &Driver{Machine: cpu.NewMachine("68000"), cfg: cfg, t: cfg.Timing.WithDefaults(), fc: FCSuperData}
	if cfg.FC != 0 {
		d.fc = uint32(cfg.FC & 7)
	}
	buses := []struct {
		dst   *pinbus.Bus
		conns []pinbus.Connection
	}{
		{&d.addr, w.Address}, {&d.data, w.Data}, {&d.fcs, w.FC}, {&d.ipl, w.IPL},
	}
	var err error
	for _, b := range buses {
		if *b.dst, err = cfg.Wire.Bus(b.conns); err != nil {
			return nil, err
		}
	}
	sigs := []struct {
		dst      *pinbus.Signal
		c        pinbus.Connection
		optional bool
	}{
		{&d.as, w.AS, false}, {&d.uds, w.UDS, false}, {&d.lds, w.LDS, false},
		{&d.write, w.RW, false}, {&d.dtack, w.DTACK, false}, {&d.vpa, w.VPA, false},
		{&d.berr, w.BERR, true}, {&d.vma, w.VMA, true},
		{&d.reset, w.RESET, true}, {&d.halt, w.HALT, true},
	}
	for _, s := range sigs {
		if s.optional {
			*s.dst, err = cfg.Wire.Optional(s.c, true)
		} else {
			*s.dst, err = cfg.Wire.Signal(s.c, true)
		}
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Driver) Family() cpu.Family { return cpu.Family68000 }

// Idle negates AS, both data strobes and VMA, leaves R/W high and releases
// the data bus.
func (d *Driver) Idle() error {
	if d.State() == cpu.Idle {
		return nil
	}
	for _, s := range []pinbus.Signal{d.dtack, d.vpa, d.berr, d.reset, d.halt} {
		if err := s.Sense(); err != nil {
			return err
		}
	}
	d.data.SetDirection(pinbus.Input)
	d.ipl.SetDirection(pinbus.Input)
	for _, s := range []pinbus.Signal{d.as, d.uds, d.lds, d.write, d.vma} {
		if err := s.Drive(false); err != nil {
			return err
		}
	}
	d.addr.SetDirection(pinbus.Output)
	d.addr.Write(0)
	d.fcs.SetDirection(pinbus.Output)
	d.fcs.Write(d.fc)
	d.End()
	return nil
}

func (d *Driver) Read(addr uint32) (byte, error) {
	if err := d.Begin("read"); err != nil {
		return 0, err
	}
	defer d.End()
	addr &= AddressMask
	strobe, shift := d.lane(addr)
	v, err := d.cycle("read", d.fc, addr>>1, strobe, false, 0)
	return byte(v >> shift), err
}

func (d *Driver) Write(addr uint32, v byte) error {
	if err := d.Begin("write"); err != nil {
		return err
	}
	defer d.End()
	addr &= AddressMask
	strobe, _ := d.lane(addr)
	_, err := d.cycle("write", d.fc, addr>>1, strobe, true, uint32(v)<<8|uint32(v))
	return err
}

func (d *Driver) lane(addr uint32) (pinbus.Signal, uint) {
	if addr&1 == 0 {
		return d.uds, 8
	}
	return d.lds, 0
}

// ack is how a cycle terminated.
type ack uint8

const (
	ackNone ack = iota
	ackDTACK
	ackVPA
	ackBERR
)

func (d *Driver) sample() ack {
	switch {
	case d.berr.Active():
		return ackBERR
	case d.dtack.Active():
		return ackDTACK
	case d.vpa.Active():
		return ackVPA
	}
	return ackNone
}

// handshake waits for the cycle to terminate.
func (d *Driver) handshake() ack {
	a := ackNone
	cpu.Poll(d.t.MaxPolls, func() bool { a = d.sample(); return a != ackNone }, nil)
	return a
}

// cycle runs one bus cycle with word address wa; the caller holds the
// machine. Strobes are negated before returning in every case.
func (d *Driver) cycle(op string, fc, wa uint32, strobe pinbus.Signal, write bool, v uint32) (uint32, error) {
	d.fcs.Write(fc)
	d.addr.Write(wa)
	if write {
		d.write.Assert()
	}
	d.as.Assert()
	if write {
		d.data.SetDirection(pinbus.Output)
		d.data.Write(v)
	}
	strobe.Assert()
	a := d.handshake()
	if a == ackVPA {
		// 6800-style peripheral: the cycle completes on VMA.
		d.vma.Assert()
		a = ackDTACK
	}
	var got uint32
	if a == ackDTACK && !write {
		got = d.data.Read()
	}
	strobe.Release()
	d.as.Release()
	d.vma.Release()
	if write {
		d.data.SetDirection(pinbus.Input)
		d.write.Release()
	}
	switch a {
	case ackNone:
		return 0, cpu.TimeoutErr(d.Op(op), "DTACK")
	case ackBERR:
		return 0, &errcode.E{C: errcode.Unexpected, Op: d.Op(op), Msg: "BUS ERROR"}
	}
	return got, nil
}

// ClockPulse is a no-op: the board clocks the 68000 and every cycle is
// terminated by handshake.
func (d *Driver) ClockPulse() {}

func (d *Driver) SelectBank(b cpu.Bank) error {
	if b == cpu.NoBank || (d.bankKnown && d.bank == b) {
		return nil
	}
	if err := d.Write(d.cfg.BankLatch, byte(b)); err != nil {
		d.bankKnown = false
		return err
	}
	d.bank, d.bankKnown = b, true
	return nil
}

// Level returns the interrupt level currently encoded on IPL0-2.
func (d *Driver) Level() uint8 { return uint8(^d.ipl.Read() & 7) }

// Interrupt waits for a non-zero IPL level (level 7 for NMI) and runs the
// acknowledge cycle for it. The returned Ack reports whether the board
// answered with an autovector; auto is not enforced here.
func (d *Driver) Interrupt(ctx context.Context, line cpu.Line, auto bool) (cpu.Ack, error) {
	var min uint8
	switch line {
	case cpu.LineINT:
		min = 1
	case cpu.LineNMI:
		min = 7
	default:
		return cpu.Ack{}, &errcode.E{C: errcode.Unsupported, Op: d.Op("interrupt"), Msg: line.String()}
	}
	if err := d.Begin("interrupt"); err != nil {
		return cpu.Ack{}, err
	}
	defer d.End()

	var level uint8
	ok, err := cpu.PollCtx(ctx, d.t.IntPolls, func() bool { level = d.Level(); return level >= min }, nil)
	if err != nil {
		return cpu.Ack{}, err
	}
	if !ok {
		return cpu.Ack{}, cpu.TimeoutErr(d.Op("interrupt"), "IPL")
	}

	// IACK: A4-A23 high, level on A1-A3, lower byte strobe.
	wa := uint32(0x7FFFF8) | uint32(level)
	d.fcs.Write(FCInterruptAck)
	d.addr.Write(wa)
	d.as.Assert()
	d.lds.Assert()
	a := d.handshake()
	var v uint32
	if a == ackDTACK {
		v = d.data.Read() & 0xFF
	}
	d.lds.Release()
	d.as.Release()
	d.fcs.Write(d.fc)
	switch a {
	case ackNone:
		return cpu.Ack{}, cpu.TimeoutErr(d.Op("interrupt"), "DTACK")
	case ackBERR:
		return cpu.Ack{}, &errcode.E{C: errcode.Unexpected, Op: d.Op("interrupt"), Msg: "SPURIOUS"}
	case ackVPA:
		return cpu.Ack{Line: line, Vector: AutoVectorBase + uint32(level), Level: level, Auto: true}, nil
	}
	return cpu.Ack{Line: line, Vector: v, Level: level}, nil
}
