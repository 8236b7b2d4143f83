package cpu

import (
	"incircuit-go/pinbus"
)

// Wire is how a driver reaches the socket: a pin space, the logical to
// physical map and whether buses should use port-level access.
type Wire struct {
	Space pinbus.Space
	Map   pinbus.PinMap
	Fast  bool
}

// Bus builds a bus over conns; FastBus when requested and the space has
// ports, PortableBus otherwise.
func (w Wire) Bus(conns []pinbus.Connection) (pinbus.Bus, error) {
	if w.Fast && w.Space.Ports != nil {
		return pinbus.NewFast(w.Space, w.Map, conns)
	}
	return pinbus.NewPortable(w.Space.Pins, w.Map, conns)
}

// Signal builds a required control line.
func (w Wire) Signal(c pinbus.Connection, activeLow bool) (pinbus.Signal, error) {
	return pinbus.NewSignal(w.Space.Pins, w.Map, c, activeLow)
}

// Optional builds a control line that may be left unmapped; the result is
// the absent Signal in that case.
func (w Wire) Optional(c pinbus.Connection, activeLow bool) (pinbus.Signal, error) {
	if int(c.Pin) >= len(w.Map) || w.Map[c.Pin] == pinbus.Unmapped {
		return pinbus.Signal{}, nil
	}
	return w.Signal(c, activeLow)
}

// Signals builds several lines, stopping at the first error.
func (w Wire) Signals(conns []pinbus.Connection, activeLow bool) ([]pinbus.Signal, error) {
	out := make([]pinbus.Signal, len(conns))
	for i, c := range conns {
		s, err := w.Signal(c, activeLow)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
