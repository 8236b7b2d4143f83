package pinbus

import (
	"strconv"

	"incircuit-go/errcode"
)

// PortableBus drives one pin call per logical bit. It works on any platform
// that can hand out pins.
type PortableBus struct {
	pins []Pin
	dir  Direction
}

// NewPortable resolves conns through m and configures every pin as an input.
func NewPortable(pf PinFactory, m PinMap, conns []Connection) (*PortableBus, error) {
	phys, err := m.Resolve(conns)
	if err != nil {
		return nil, err
	}
	b := &PortableBus{pins: make([]Pin, len(phys)), dir: Input}
	for i, n := range phys {
		p, ok := pf.ByNumber(n)
		if !ok {
			return nil, &errcode.E{C: errcode.UnknownPin, Op: "portable", Msg: conns[i].Label + " pin " + strconv.Itoa(n)}
		}
		if err := p.ConfigureInput(PullUp); err != nil {
			return nil, errcode.Wrap(errcode.Unexpected, "portable", err)
		}
		b.pins[i] = p
	}
	return b, nil
}

func (b *PortableBus) Width() int           { return len(b.pins) }
func (b *PortableBus) Direction() Direction { return b.dir }

// SetDirection reconfigures every pin unless the bus is already in d. Output
// pins start at the level currently sensed, so the turnaround does not glitch.
func (b *PortableBus) SetDirection(d Direction) {
	if d == b.dir {
		return
	}
	// Pin errors are dropped; expander pins keep theirs in ExpanderPort.Err.
	for _, p := range b.pins {
		if d == Output {
			_ = p.ConfigureOutput(p.Get())
		} else {
			_ = p.ConfigureInput(PullUp)
		}
	}
	b.dir = d
}

func (b *PortableBus) Write(v uint32) {
	for i, p := range b.pins {
		p.Set(v&(1<<uint(i)) != 0)
	}
}

func (b *PortableBus) Read() uint32 {
	var v uint32
	for i, p := range b.pins {
		if p.Get() {
			v |= 1 << uint(i)
		}
	}
	return v
}
