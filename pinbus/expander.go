package pinbus

import (
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/mcp23017"
)

// ExpanderBase is the first physical number served by I/O expanders;
// expander k owns ExpanderBase+16k .. ExpanderBase+16k+15.
const ExpanderBase = 100

// ExpanderPort presents one MCP23017 as a 16-bit Port. Output latch and mode
// are cached so that only register writes cross the I²C bus; inputs are read
// live.
type ExpanderPort struct {
	dev   *mcp23017.Device
	out   uint32
	mode  uint32
	modes [mcp23017.PinCount]mcp23017.PinMode
	err   error
}

// NewExpanderPort attaches to the MCP23017 at addr and makes every pin a
// pulled-up input.
func NewExpanderPort(bus drivers.I2C, addr uint8) (*ExpanderPort, error) {
	dev, err := mcp23017.NewI2C(bus, addr)
	if err != nil {
		return nil, err
	}
	p := &ExpanderPort{dev: dev}
	p.SetMode(0)
	if p.err != nil {
		return nil, p.err
	}
	return p, nil
}

func (p *ExpanderPort) In() uint32 {
	pins, err := p.dev.GetPins()
	if err != nil {
		p.err = err
		return 0xFFFF
	}
	return uint32(pins)
}

func (p *ExpanderPort) Out() uint32 { return p.out }

func (p *ExpanderPort) SetOut(v uint32) {
	v &= 0xFFFF
	if err := p.dev.SetPins(mcp23017.Pins(v), 0xFFFF); err != nil {
		p.err = err
		return
	}
	p.out = v
}

func (p *ExpanderPort) Mode() uint32 { return p.mode }

func (p *ExpanderPort) SetMode(v uint32) {
	v &= 0xFFFF
	for i := range p.modes {
		if v&(1<<uint(i)) != 0 {
			p.modes[i] = mcp23017.Output
		} else {
			p.modes[i] = mcp23017.Input | mcp23017.Pullup
		}
	}
	if err := p.dev.SetModes(p.modes[:]); err != nil {
		p.err = err
		return
	}
	p.mode = v
}

// Err returns the last I²C failure seen by the port, if any.
func (p *ExpanderPort) Err() error { return p.err }

// expanderPin is one bit of an ExpanderPort seen through the Pin contract.
type expanderPin struct {
	port *ExpanderPort
	bit  uint32
	n    int
}

func (e *expanderPin) ConfigureInput(Pull) error {
	e.port.SetMode(e.port.Mode() &^ e.bit)
	return e.port.Err()
}

func (e *expanderPin) ConfigureOutput(initial bool) error {
	e.Set(initial)
	e.port.SetMode(e.port.Mode() | e.bit)
	return e.port.Err()
}

func (e *expanderPin) Set(level bool) {
	if level {
		e.port.SetOut(e.port.Out() | e.bit)
	} else {
		e.port.SetOut(e.port.Out() &^ e.bit)
	}
}

func (e *expanderPin) Get() bool   { return e.port.In()&e.bit != 0 }
func (e *expanderPin) Number() int { return e.n }

// Composite joins native pins (below ExpanderBase) with a chain of expanders.
// Native ports keep their indices; expander k is port Native.Ports()+k.
type Composite struct {
	Native    Space
	Expanders []*ExpanderPort
}

func (c *Composite) ByNumber(n int) (Pin, bool) {
	if n < ExpanderBase {
		if c.Native.Pins == nil {
			return nil, false
		}
		return c.Native.Pins.ByNumber(n)
	}
	k, bit := (n-ExpanderBase)/16, (n-ExpanderBase)%16
	if k >= len(c.Expanders) {
		return nil, false
	}
	return &expanderPin{port: c.Expanders[k], bit: 1 << uint(bit), n: n}, true
}

func (c *Composite) nativePorts() int {
	if c.Native.Ports == nil {
		return 0
	}
	return c.Native.Ports.Ports()
}

func (c *Composite) PortOf(n int) (int, uint8, bool) {
	if n < ExpanderBase {
		if c.Native.Ports == nil {
			return 0, 0, false
		}
		return c.Native.Ports.PortOf(n)
	}
	k, bit := (n-ExpanderBase)/16, (n-ExpanderBase)%16
	if k >= len(c.Expanders) {
		return 0, 0, false
	}
	return c.nativePorts() + k, uint8(bit), true
}

func (c *Composite) Port(i int) Port {
	if np := c.nativePorts(); i >= np {
		return c.Expanders[i-np]
	}
	return c.Native.Ports.Port(i)
}

func (c *Composite) Ports() int { return c.nativePorts() + len(c.Expanders) }

// Space exposes the composite through both views.
func (c *Composite) Space() Space { return Space{Pins: c, Ports: c} }
