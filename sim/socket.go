//go:build !rp2040 && !rp2350

package sim

import (
	"incircuit-go/cpu"
	"incircuit-go/cpu/m6502"
	"incircuit-go/cpu/m68000"
	"incircuit-go/cpu/m6809"
	"incircuit-go/cpu/z80"
	"incircuit-go/errcode"
	"incircuit-go/pinbus"
)

// protocol is the board side of one family's bus.
type protocol interface {
	// change runs after every tester-side pin change.
	change(s *Socket)
	// sample runs before the tester samples pin.
	sample(s *Socket, pin int)
	// interrupt drives (on) or releases the interrupt lines for src.
	interrupt(s *Socket, src IntSource, on bool)
}

// Socket is a Target seen through one processor socket. Physical pin n is
// logical pin n of the family's default wiring.
type Socket struct {
	Pins   *pinbus.HostPins
	Target *Target

	family cpu.Family
	n      int
	proto  protocol

	waitLeft int

	irq      *IntSource
	irqDelay int
	irqOn    bool
	acks     int
}

// New builds a socket for family f in front of t.
func New(f cpu.Family, t *Target) (*Socket, error) {
	s := &Socket{Target: t, family: f}
	switch f {
	case cpu.FamilyZ80:
		s.n, s.proto = z80.PinCount, &z80Socket{}
	case cpu.Family6502:
		s.n, s.proto = m6502.PinCount, new6502Socket()
	case cpu.Family6809:
		s.n, s.proto = m6809.PinCount, new6809Socket()
	case cpu.Family68000:
		s.n, s.proto = m68000.PinCount, &m68000Socket{}
	default:
		return nil, errcode.New(errcode.Unsupported, "sim", "family "+string(f))
	}
	s.Pins = pinbus.NewHostPins(s.n)
	s.Pins.OnChange(func() { s.proto.change(s) })
	s.Pins.OnSample(s.sample)
	return s, nil
}

// Wire is how a driver reaches the socket.
func (s *Socket) Wire(fast bool) cpu.Wire {
	return cpu.Wire{Space: s.Pins.Space(), Map: pinbus.Identity(s.n), Fast: fast}
}

func (s *Socket) Family() cpu.Family { return s.family }

// Raise arms src; its line asserts after src.Delay tester samples.
func (s *Socket) Raise(src IntSource) {
	s.Clear()
	s.irq, s.irqDelay = &src, src.Delay
	if s.irqDelay == 0 {
		s.assertIRQ()
	}
}

// Clear withdraws any armed interrupt.
func (s *Socket) Clear() {
	if s.irq != nil && s.irqOn {
		s.proto.interrupt(s, *s.irq, false)
	}
	s.irq, s.irqOn = nil, false
}

// Acks counts acknowledged interrupts.
func (s *Socket) Acks() int { return s.acks }

// Asserted reports whether an interrupt line is currently driven.
func (s *Socket) Asserted() bool { return s.irqOn }

func (s *Socket) assertIRQ() {
	s.irqOn = true
	s.proto.interrupt(s, *s.irq, true)
}

// acknowledge ends the current interrupt; repeating sources re-arm.
func (s *Socket) acknowledge() {
	if s.irq == nil {
		return
	}
	src := *s.irq
	s.acks++
	s.Clear()
	if src.Repeat {
		s.Raise(src)
	}
}

func (s *Socket) sample(pin int) {
	if s.irq != nil && !s.irqOn {
		if s.irqDelay > 0 {
			s.irqDelay--
		} else {
			s.assertIRQ()
		}
	}
	s.proto.sample(s, pin)
}

// ---- pin helpers ----

func (s *Socket) low(l pinbus.LogicalPin) bool  { return !s.Pins.Level(int(l)) }
func (s *Socket) high(l pinbus.LogicalPin) bool { return s.Pins.Level(int(l)) }

func (s *Socket) value(first pinbus.LogicalPin, n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		if s.Pins.Level(int(first) + i) {
			v |= 1 << uint(i)
		}
	}
	return v
}

func (s *Socket) put(first pinbus.LogicalPin, n int, v uint32) {
	for i := 0; i < n; i++ {
		s.Pins.Drive(int(first)+i, v&(1<<uint(i)) != 0)
	}
}

func (s *Socket) float(first pinbus.LogicalPin, n int) {
	for i := 0; i < n; i++ {
		s.Pins.Float(int(first) + i)
	}
}

// ---- handshake ----

// holdOff arms the wait state counter for a new cycle: the handshake line
// reports not-ready for Target.Waits samples, or forever when stuck.
func (s *Socket) holdOff() {
	s.waitLeft = s.Target.Waits
	if s.Target.StuckWait {
		s.waitLeft = -1
	}
}

// waited consumes one handshake sample and reports whether the cycle may
// complete.
func (s *Socket) waited() bool {
	switch {
	case s.waitLeft < 0:
		if s.Target.StuckWait {
			return false
		}
		s.waitLeft = 0
	case s.waitLeft > 0:
		s.waitLeft--
		return false
	}
	return true
}
