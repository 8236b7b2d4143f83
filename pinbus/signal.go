package pinbus

import (
	"strconv"

	"incircuit-go/errcode"
)

// Signal is one control line with a polarity. The zero Signal is absent:
// Valid reports false and every method is a no-op.
type Signal struct {
	pin       Pin
	activeLow bool
	Label     string
}

// NewSignal resolves c through m. The pin is left unconfigured until Drive
// or Sense.
func NewSignal(pf PinFactory, m PinMap, c Connection, activeLow bool) (Signal, error) {
	n, err := m.Physical(c.Pin)
	if err != nil {
		return Signal{}, err
	}
	p, ok := pf.ByNumber(n)
	if !ok {
		return Signal{}, &errcode.E{C: errcode.UnknownPin, Op: "signal", Msg: c.Label + " pin " + strconv.Itoa(n)}
	}
	return Signal{pin: p, activeLow: activeLow, Label: c.Label}, nil
}

func (s Signal) Valid() bool { return s.pin != nil }

// Drive makes the line a tester output at the given logical state.
func (s Signal) Drive(active bool) error {
	if s.pin == nil {
		return nil
	}
	return s.pin.ConfigureOutput(active != s.activeLow)
}

// Sense makes the line a tester input, biased to its inactive level.
func (s Signal) Sense() error {
	if s.pin == nil {
		return nil
	}
	pull := PullDown
	if s.activeLow {
		pull = PullUp
	}
	return s.pin.ConfigureInput(pull)
}

func (s Signal) Assert() {
	if s.pin != nil {
		s.pin.Set(!s.activeLow)
	}
}

func (s Signal) Release() {
	if s.pin != nil {
		s.pin.Set(s.activeLow)
	}
}

// Active samples the line. An absent signal is never active.
func (s Signal) Active() bool {
	if s.pin == nil {
		return false
	}
	return s.pin.Get() != s.activeLow
}
