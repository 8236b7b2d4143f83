package pinbus

import (
	"strconv"

	"incircuit-go/errcode"
)

// route moves one logical bit to one port bit.
type route struct {
	logical uint32
	port    uint32
}

// portGroup is everything FastBus needs to touch one physical port.
type portGroup struct {
	port  Port
	mask  uint32 // port bits owned by this bus
	lmask uint32 // logical bits carried by this port
	// When every logical bit i sits at port bit i+shift the value moves with
	// a single shift; otherwise routes is walked.
	linear bool
	shift  int
	routes []route
}

// FastBus performs one register access per distinct physical port for each
// Read, Write or SetDirection, independent of how many bits the port carries.
type FastBus struct {
	groups []portGroup
	width  int
	dir    Direction
}

// NewFast resolves conns through m and precomputes per-port masks. Every pin
// is first configured as an input through sp.Pins so that the platform hands
// it to the port registers.
func NewFast(sp Space, m PinMap, conns []Connection) (*FastBus, error) {
	if sp.Ports == nil {
		return nil, &errcode.E{C: errcode.Unsupported, Op: "fast", Msg: "no port access"}
	}
	phys, err := m.Resolve(conns)
	if err != nil {
		return nil, err
	}
	b := &FastBus{width: len(phys), dir: Input}
	index := map[int]int{}
	for i, n := range phys {
		if sp.Pins != nil {
			p, ok := sp.Pins.ByNumber(n)
			if !ok {
				return nil, &errcode.E{C: errcode.UnknownPin, Op: "fast", Msg: conns[i].Label + " pin " + strconv.Itoa(n)}
			}
			if err := p.ConfigureInput(PullUp); err != nil {
				return nil, errcode.Wrap(errcode.Unexpected, "fast", err)
			}
		}
		pi, bit, ok := sp.Ports.PortOf(n)
		if !ok {
			return nil, &errcode.E{C: errcode.UnknownPin, Op: "fast", Msg: conns[i].Label + " has no port"}
		}
		gi, seen := index[pi]
		if !seen {
			gi = len(b.groups)
			index[pi] = gi
			b.groups = append(b.groups, portGroup{port: sp.Ports.Port(pi)})
		}
		g := &b.groups[gi]
		r := route{logical: 1 << uint(i), port: 1 << bit}
		g.mask |= r.port
		g.lmask |= r.logical
		g.routes = append(g.routes, r)
	}
	for i := range b.groups {
		b.groups[i].linearize()
	}
	for _, g := range b.groups {
		g.port.SetMode(g.port.Mode() &^ g.mask)
	}
	return b, nil
}

func (g *portGroup) linearize() {
	first := g.routes[0]
	shift := trailing(first.port) - trailing(first.logical)
	for _, r := range g.routes {
		if trailing(r.port)-trailing(r.logical) != shift {
			return
		}
	}
	g.linear, g.shift = true, shift
}

func trailing(v uint32) int {
	n := 0
	for v&1 == 0 && n < 32 {
		v >>= 1
		n++
	}
	return n
}

func (g *portGroup) toPort(v uint32) uint32 {
	v &= g.lmask
	if g.linear {
		if g.shift >= 0 {
			return v << uint(g.shift)
		}
		return v >> uint(-g.shift)
	}
	var out uint32
	for _, r := range g.routes {
		if v&r.logical != 0 {
			out |= r.port
		}
	}
	return out
}

func (g *portGroup) fromPort(v uint32) uint32 {
	v &= g.mask
	if g.linear {
		if g.shift >= 0 {
			return v >> uint(g.shift)
		}
		return v << uint(-g.shift)
	}
	var out uint32
	for _, r := range g.routes {
		if v&r.port != 0 {
			out |= r.logical
		}
	}
	return out
}

func (b *FastBus) Width() int           { return b.width }
func (b *FastBus) Direction() Direction { return b.dir }

// Ports reports how many distinct physical ports the bus spans.
func (b *FastBus) Ports() int { return len(b.groups) }

// SetDirection updates each port's mode register once. Switching to output
// first loads the output latch with the sensed levels.
func (b *FastBus) SetDirection(d Direction) {
	if d == b.dir {
		return
	}
	for _, g := range b.groups {
		p := g.port
		if d == Output {
			p.SetOut(p.Out()&^g.mask | p.In()&g.mask)
			p.SetMode(p.Mode() | g.mask)
		} else {
			p.SetMode(p.Mode() &^ g.mask)
		}
	}
	b.dir = d
}

func (b *FastBus) Write(v uint32) {
	for _, g := range b.groups {
		p := g.port
		p.SetOut(p.Out()&^g.mask | g.toPort(v))
	}
}

func (b *FastBus) Read() uint32 {
	var v uint32
	for _, g := range b.groups {
		v |= g.fromPort(g.port.In())
	}
	return v
}
