//go:build !rp2040 && !rp2350

package sim

import (
	"incircuit-go/cpu"
	"incircuit-go/cpu/m6502"
	"incircuit-go/cpu/m68000"
	"incircuit-go/cpu/m6809"
	"incircuit-go/cpu/z80"
	"incircuit-go/pinbus"
)

// ---- Z80 ----

type z80Socket struct {
	active bool
	write  bool
	ack    bool
	space  cpu.Space
}

func (z *z80Socket) change(s *Socket) {
	mreq, iorq := s.low(z80.PinMREQ), s.low(z80.PinIORQ)
	rd, wr, m1 := s.low(z80.PinRD), s.low(z80.PinWR), s.low(z80.PinM1)
	ack := m1 && iorq && !mreq
	reading := (mreq || iorq) && rd
	writing := (mreq || iorq) && wr
	active := ack || reading || writing

	switch {
	case active && !z.active:
		z.active, z.write, z.ack = true, writing, ack
		z.space = cpu.Memory
		if iorq {
			z.space = cpu.IO
		}
		s.holdOff()
		if s.waitLeft != 0 {
			s.Pins.Drive(int(z80.PinWAIT), false)
		}
		switch {
		case ack:
			v := uint8(0xFF)
			if s.irq != nil && s.irqOn && !s.irq.Auto {
				v = s.irq.Vector
			}
			s.put(z80.PinD0, 8, uint32(v))
		case reading:
			a := s.value(z80.PinA0, 16)
			if z.space == cpu.IO {
				a &= 0xFF
			}
			s.put(z80.PinD0, 8, uint32(s.Target.Read(z.space, a)))
		}
	case !active && z.active:
		if z.write {
			a := s.value(z80.PinA0, 16)
			if z.space == cpu.IO {
				a &= 0xFF
			}
			s.Target.Write(z.space, a, uint8(s.value(z80.PinD0, 8)))
		}
		s.float(z80.PinD0, 8)
		s.Pins.Float(int(z80.PinWAIT))
		z.active = false
		if z.ack {
			z.ack = false
			s.acknowledge()
		}
	}
}

func (z *z80Socket) sample(s *Socket, pin int) {
	switch pinbus.LogicalPin(pin) {
	case z80.PinWAIT:
		if z.active && s.waited() {
			s.Pins.Float(pin)
		}
	case z80.PinCLK:
		s.Pins.Drive(pin, !s.Pins.Level(pin))
	}
}

func (z *z80Socket) interrupt(s *Socket, src IntSource, on bool) {
	pin := z80.PinINT
	if src.Line == cpu.LineNMI {
		pin = z80.PinNMI
	}
	if on {
		s.Pins.Drive(int(pin), false)
	} else {
		s.Pins.Float(int(pin))
	}
}

// ---- clocked 8-bit families ----

// clocked covers the 6502 and the 6809E, which share the address and data
// layout (A0-A15 on 0-15, D0-D7 on 16-23). A rising clock edge with R/W high
// starts a read; the falling edge ends the cycle and latches writes.
type clocked struct {
	clk, rw, rdy pinbus.LogicalPin
	high         bool
	// stalled is set while a read is held off; clock edges in between
	// belong to the same cycle.
	stalled bool

	// fetching reports whether the bus is in a vector fetch.
	fetching func(s *Socket) bool
	// vectorEnd is the address whose read completes the vector fetch for src.
	vectorEnd func(src IntSource) uint32
	ints      func(line cpu.Line) (pinbus.LogicalPin, bool)
}

func (c *clocked) change(s *Socket) {
	up := s.high(c.clk)
	read := s.high(c.rw)
	switch {
	case up && !c.high:
		if read {
			if !c.stalled {
				s.holdOff()
				if s.waitLeft != 0 {
					c.stalled = true
					s.Pins.Drive(int(c.rdy), false)
				}
			}
			a := s.value(m6502.PinA0, 16)
			s.put(m6502.PinD0, 8, uint32(s.Target.Read(cpu.Memory, a)))
			if s.irq != nil && s.irqOn && c.fetching(s) && a == c.vectorEnd(*s.irq) {
				s.acknowledge()
			}
		}
	case !up && c.high:
		if !read {
			s.Target.Write(cpu.Memory, s.value(m6502.PinA0, 16), uint8(s.value(m6502.PinD0, 8)))
		}
		s.float(m6502.PinD0, 8)
	}
	c.high = up
}

func (c *clocked) sample(s *Socket, pin int) {
	if pin == int(c.rdy) && c.stalled && s.waited() {
		c.stalled = false
		s.Pins.Float(pin)
	}
}

func (c *clocked) interrupt(s *Socket, src IntSource, on bool) {
	pin, ok := c.ints(src.Line)
	if !ok {
		return
	}
	if on {
		s.Pins.Drive(int(pin), false)
	} else {
		s.Pins.Float(int(pin))
	}
}

func new6502Socket() *clocked {
	return &clocked{
		clk: m6502.PinPHI2, rw: m6502.PinRW, rdy: m6502.PinRDY,
		fetching: func(*Socket) bool { return true },
		vectorEnd: func(src IntSource) uint32 {
			if src.Line == cpu.LineNMI {
				return m6502.VectorNMI + 1
			}
			return m6502.VectorIRQ + 1
		},
		ints: func(l cpu.Line) (pinbus.LogicalPin, bool) {
			switch l {
			case cpu.LineINT:
				return m6502.PinIRQ, true
			case cpu.LineNMI:
				return m6502.PinNMI, true
			}
			return 0, false
		},
	}
}

func new6809Socket() *clocked {
	return &clocked{
		clk: m6809.PinE, rw: m6809.PinRW, rdy: m6809.PinMRDY,
		fetching: func(s *Socket) bool { return s.high(m6809.PinBS) && s.low(m6809.PinBA) },
		vectorEnd: func(src IntSource) uint32 {
			switch src.Line {
			case cpu.LineNMI:
				return m6809.VectorNMI + 1
			case cpu.LineFIRQ:
				return m6809.VectorFIRQ + 1
			}
			return m6809.VectorIRQ + 1
		},
		ints: func(l cpu.Line) (pinbus.LogicalPin, bool) {
			switch l {
			case cpu.LineINT:
				return m6809.PinIRQ, true
			case cpu.LineFIRQ:
				return m6809.PinFIRQ, true
			case cpu.LineNMI:
				return m6809.PinNMI, true
			}
			return 0, false
		},
	}
}

// ---- 68000 ----

type m68000Socket struct {
	active bool
	write  bool
	mapped bool
	acked  bool
	dtack  bool
	addr   uint32
}

func (m *m68000Socket) change(s *Socket) {
	as := s.low(m68000.PinAS)
	uds, lds := s.low(m68000.PinUDS), s.low(m68000.PinLDS)
	active := as && (uds || lds)

	switch {
	case active && !m.active:
		*m = m68000Socket{active: true, write: s.low(m68000.PinRW)}
		wa := s.value(m68000.PinA1, 23)
		if s.value(m68000.PinFC0, 3) == m68000.FCInterruptAck {
			m.iackCycle(s, uint8(wa&7))
			return
		}
		m.addr = wa << 1
		if lds && !uds {
			m.addr |= 1
		}
		if !s.Target.Mapped(cpu.Memory, m.addr) {
			if s.Target.BusErrorUnmapped {
				s.Pins.Drive(int(m68000.PinBERR), false)
			}
			return
		}
		m.mapped = true
		if !m.write {
			v := uint32(s.Target.Read(cpu.Memory, m.addr))
			s.put(m68000.PinD0, 16, v<<8|v)
		}
		s.holdOff()
	case !active && m.active:
		if m.write && m.mapped {
			d := s.value(m68000.PinD0, 16)
			v := uint8(d >> 8)
			if m.addr&1 != 0 {
				v = uint8(d)
			}
			s.Target.Write(cpu.Memory, m.addr, v)
		}
		s.float(m68000.PinD0, 16)
		for _, p := range []pinbus.LogicalPin{m68000.PinDTACK, m68000.PinVPA, m68000.PinBERR} {
			s.Pins.Float(int(p))
		}
		acked := m.acked
		*m = m68000Socket{}
		if acked {
			s.acknowledge()
		}
	}
}

func (m *m68000Socket) iackCycle(s *Socket, level uint8) {
	src := s.irq
	if src == nil || !s.irqOn || ipl(*src) != level {
		s.Pins.Drive(int(m68000.PinBERR), false)
		return
	}
	m.acked = true
	if src.Auto {
		s.Pins.Drive(int(m68000.PinVPA), false)
		return
	}
	s.put(m68000.PinD0, 8, uint32(src.Vector))
	s.Pins.Drive(int(m68000.PinDTACK), false)
	m.dtack = true
}

func (m *m68000Socket) sample(s *Socket, pin int) {
	if pin != int(m68000.PinDTACK) || !m.active || !m.mapped || m.dtack {
		return
	}
	if s.waited() {
		s.Pins.Drive(pin, false)
		m.dtack = true
	}
}

// ipl is the level src presents on IPL0-2; NMI is level 7.
func ipl(src IntSource) uint8 {
	if src.Line == cpu.LineNMI {
		return 7
	}
	return src.Level & 7
}

func (m *m68000Socket) interrupt(s *Socket, src IntSource, on bool) {
	lv := ipl(src)
	for i := 0; i < 3; i++ {
		pin := int(m68000.PinIPL0) + i
		if on && lv&(1<<uint(i)) != 0 {
			s.Pins.Drive(pin, false)
		} else {
			s.Pins.Float(pin)
		}
	}
}
