package cpu

import "incircuit-go/errcode"

// State of a driver.
type State uint8

const (
	Uninitialized State = iota
	Idle
	Busy
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Busy:
		return "busy"
	default:
		return "uninitialized"
	}
}

// Machine tracks the Uninitialized -> Idle -> operation -> Idle cycle shared
// by every driver. Drivers embed it.
type Machine struct {
	state State
	op    string
	name  string
}

// NewMachine returns an uninitialized machine labelled name for errors.
func NewMachine(name string) Machine { return Machine{name: name} }

func (m *Machine) State() State { return m.state }

// Begin enters an operation. It fails before Idle has been reached and on
// re-entry.
func (m *Machine) Begin(op string) error {
	switch m.state {
	case Idle:
		m.state, m.op = Busy, op
		return nil
	case Busy:
		return &errcode.E{C: errcode.Unexpected, Op: m.name + "." + op, Msg: "busy in " + m.op}
	default:
		return &errcode.E{C: errcode.Unexpected, Op: m.name + "." + op, Msg: "not idle"}
	}
}

// End returns to Idle.
func (m *Machine) End() { m.state, m.op = Idle, "" }

// Op prefixes op with the driver name for error reports.
func (m *Machine) Op(op string) string { return m.name + "." + op }
