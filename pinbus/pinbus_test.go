package pinbus

import (
	"testing"

	"incircuit-go/errcode"

	"tinygo.org/x/drivers/tester"
)

// ---- Test doubles ----

// countingPorts wraps a PortMap and counts register accesses per port.
type countingPorts struct {
	PortMap
	in, out, mode map[int]int
}

type countingPort struct {
	Port
	c *countingPorts
	i int
}

func newCounting(pm PortMap) *countingPorts {
	return &countingPorts{PortMap: pm, in: map[int]int{}, out: map[int]int{}, mode: map[int]int{}}
}

func (c *countingPorts) Port(i int) Port { return &countingPort{Port: c.PortMap.Port(i), c: c, i: i} }
func (c *countingPorts) reset() {
	c.in, c.out, c.mode = map[int]int{}, map[int]int{}, map[int]int{}
}

func (p *countingPort) In() uint32       { p.c.in[p.i]++; return p.Port.In() }
func (p *countingPort) SetOut(v uint32)  { p.c.out[p.i]++; p.Port.SetOut(v) }
func (p *countingPort) SetMode(v uint32) { p.c.mode[p.i]++; p.Port.SetMode(v) }

// ---- Tests ----

func TestResolveRejectsDuplicates(t *testing.T) {
	m := Identity(8)
	_, err := m.Resolve([]Connection{{Pin: 1, Label: "D0"}, {Pin: 1, Label: "D1"}})
	if errcode.Of(err) != errcode.PinInUse {
		t.Fatalf("duplicate logical pin: %v", err)
	}
	m2 := PinMap{3, 3}
	_, err = m2.Resolve([]Connection{{Pin: 0, Label: "A"}, {Pin: 1, Label: "B"}})
	if errcode.Of(err) != errcode.PinInUse {
		t.Fatalf("duplicate physical pin: %v", err)
	}
	m3 := PinMap{0, Unmapped}
	if _, err := m3.Physical(1); errcode.Of(err) != errcode.UnknownPin {
		t.Fatalf("unmapped pin: %v", err)
	}
	if _, err := m.Resolve(nil); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("empty bus: %v", err)
	}
}

func TestPortableAndFastAgree(t *testing.T) {
	// Scrambled wiring that spans two ports.
	m := PinMap{40, 3, 7, 33, 2, 60, 5, 31}
	conns := Conns(0, 8, "D")
	for _, v := range []uint32{0x00, 0xFF, 0xA5, 0x5A, 0x01, 0x80} {
		hp := NewHostPins(64)
		pb, err := NewPortable(hp, m, conns)
		if err != nil {
			t.Fatal(err)
		}
		pb.SetDirection(Output)
		pb.Write(v)
		portable := snapshot(hp, m)

		hf := NewHostPins(64)
		fb, err := NewFast(hf.Space(), m, conns)
		if err != nil {
			t.Fatal(err)
		}
		fb.SetDirection(Output)
		fb.Write(v)
		if fast := snapshot(hf, m); fast != portable {
			t.Fatalf("value %#x: fast %#x portable %#x", v, fast, portable)
		}
		if pb.Read() != v || fb.Read() != v {
			t.Fatalf("readback %#x/%#x want %#x", pb.Read(), fb.Read(), v)
		}
	}
}

func snapshot(h *HostPins, m PinMap) uint32 {
	var v uint32
	for i, n := range m {
		if h.Level(n) {
			v |= 1 << uint(i)
		}
	}
	return v
}

func TestFastTouchesEachPortOnce(t *testing.T) {
	hp := NewHostPins(64)
	cp := newCounting(hp)
	m := PinMap{0, 1, 2, 3, 32, 33, 34, 35, 36, 37, 38, 39, 4, 5, 6, 7}
	fb, err := NewFast(Space{Pins: hp, Ports: cp}, m, Conns(0, 16, "A"))
	if err != nil {
		t.Fatal(err)
	}
	if fb.Ports() != 2 {
		t.Fatalf("ports = %d", fb.Ports())
	}
	fb.SetDirection(Output)
	cp.reset()
	fb.Write(0xBEEF)
	if cp.out[0] != 1 || cp.out[1] != 1 {
		t.Fatalf("write touched ports %v", cp.out)
	}
	cp.reset()
	_ = fb.Read()
	if cp.in[0] != 1 || cp.in[1] != 1 {
		t.Fatalf("read touched ports %v", cp.in)
	}
	if got := fb.Read(); got != 0xBEEF {
		t.Fatalf("readback %#x", got)
	}
}

// flakyPins fails configuration of one pin once armed.
type flakyPins struct {
	*HostPins
	bad   int
	armed bool
}

type flakyPin struct {
	Pin
	f *flakyPins
}

var errFlaky = errcode.New(errcode.Unexpected, "pin", "i2c nak")

func (f *flakyPins) ByNumber(n int) (Pin, bool) {
	p, ok := f.HostPins.ByNumber(n)
	if !ok || n != f.bad {
		return p, ok
	}
	return &flakyPin{Pin: p, f: f}, true
}

func (p *flakyPin) ConfigureInput(pull Pull) error {
	if p.f.armed {
		return errFlaky
	}
	return p.Pin.ConfigureInput(pull)
}

func (p *flakyPin) ConfigureOutput(initial bool) error {
	if p.f.armed {
		return errFlaky
	}
	return p.Pin.ConfigureOutput(initial)
}

func TestPortableTurnaroundSurvivesPinFailure(t *testing.T) {
	hp := NewHostPins(32)
	f := &flakyPins{HostPins: hp, bad: 1}
	b, err := NewPortable(f, Identity(4), Conns(0, 4, "D"))
	if err != nil {
		t.Fatal(err)
	}
	f.armed = true
	b.SetDirection(Output)
	if b.Direction() != Output {
		t.Fatal("direction not recorded")
	}
	for _, n := range []int{0, 2, 3} {
		if !hp.IsOutput(n) {
			t.Fatalf("pin %d left as input after pin 1 failed", n)
		}
	}
	if hp.IsOutput(1) {
		t.Fatal("failed pin reported as output")
	}
	b.SetDirection(Input)
	if b.Direction() != Input || hp.IsOutput(0) {
		t.Fatal("turnaround back to input")
	}
}

func TestSetDirectionIsNoOpWhenUnchanged(t *testing.T) {
	hp := NewHostPins(16)
	fb, err := NewFast(hp.Space(), Identity(16), Conns(0, 8, "D"))
	if err != nil {
		t.Fatal(err)
	}
	before := hp.Writes()
	fb.SetDirection(Input)
	if hp.Writes() != before {
		t.Fatal("redundant SetDirection wrote registers")
	}
	pb, _ := NewPortable(hp, Identity(16), Conns(8, 8, "A"))
	pb.SetDirection(Output)
	before = hp.Writes()
	pb.SetDirection(Output)
	if hp.Writes() != before {
		t.Fatal("redundant SetDirection wrote pins")
	}
}

func TestReadSeesBoardDrive(t *testing.T) {
	hp := NewHostPins(16)
	fb, _ := NewFast(hp.Space(), Identity(16), Conns(0, 8, "D"))
	for i := 0; i < 8; i++ {
		hp.Drive(i, i%2 == 0)
	}
	if got := fb.Read(); got != 0x55 {
		t.Fatalf("read %#x", got)
	}
	if hp.Contention() != 0 {
		t.Fatal("input bus reported contention")
	}
	fb.SetDirection(Output)
	if hp.Contention() == 0 {
		t.Fatal("driving against the board must be recorded")
	}
}

func TestSignalPolarity(t *testing.T) {
	hp := NewHostPins(4)
	s, err := NewSignal(hp, Identity(4), Connection{Pin: 2, Label: "RD"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Drive(false); err != nil {
		t.Fatal(err)
	}
	if !hp.Level(2) {
		t.Fatal("inactive active-low line must be high")
	}
	s.Assert()
	if hp.Level(2) || !s.Active() {
		t.Fatal("asserted active-low line must be low")
	}
	var absent Signal
	absent.Assert()
	if absent.Valid() || absent.Active() {
		t.Fatal("absent signal must be inert")
	}
}

func TestExpanderPort(t *testing.T) {
	bus := tester.NewI2CBus(t)
	dev := bus.NewDevice(0x20)
	p, err := NewExpanderPort(bus, 0x20)
	if err != nil {
		t.Fatal(err)
	}
	// IODIR A/B all inputs, pull-ups on.
	if dev.Registers[0x00] != 0xFF || dev.Registers[0x01] != 0xFF || dev.Registers[0x0C] != 0xFF {
		t.Fatalf("modes not applied: %#x %#x %#x", dev.Registers[0x00], dev.Registers[0x01], dev.Registers[0x0C])
	}

	c := &Composite{Expanders: []*ExpanderPort{p}}
	fb, err := NewFast(c.Space(), PinMap{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111}, Conns(0, 12, "A"))
	if err != nil {
		t.Fatal(err)
	}
	fb.SetDirection(Output)
	if dev.Registers[0x00] != 0x00 || dev.Registers[0x01] != 0xF0 {
		t.Fatalf("direction: %#x %#x", dev.Registers[0x00], dev.Registers[0x01])
	}
	fb.Write(0xABC)
	if dev.Registers[0x12] != 0xBC || dev.Registers[0x13]&0x0F != 0x0A {
		t.Fatalf("GPIO registers %#x %#x", dev.Registers[0x12], dev.Registers[0x13])
	}
	if fb.Read() != 0xABC {
		t.Fatalf("readback %#x", fb.Read())
	}
	if p.Err() != nil {
		t.Fatal(p.Err())
	}

	pin, ok := c.ByNumber(115)
	if !ok {
		t.Fatal("expander pin missing")
	}
	if err := pin.ConfigureOutput(true); err != nil {
		t.Fatal(err)
	}
	if dev.Registers[0x13]&0x80 == 0 || !pin.Get() {
		t.Fatal("single expander pin not driven")
	}
	if _, ok := c.ByNumber(140); ok {
		t.Fatal("pin beyond the last expander must be rejected")
	}
}
