// Package pinbus maps logical pins onto physical ones and drives groups of
// pins as one bit-packed value.
//
// Two Bus implementations share one contract: PortableBus issues one pin call
// per logical bit, FastBus touches each distinct physical port register once
// per operation using masks computed at construction.
package pinbus

import (
	"strconv"

	"incircuit-go/errcode"
)

// LogicalPin indexes a PinMap.
type LogicalPin uint8

// Unmapped marks a logical pin with no physical counterpart.
const Unmapped = -1

// MaxWidth is the widest bus a single value can carry.
const MaxWidth = 32

// PinMap maps logical pins to physical pin numbers. It is built once at
// start-up and shared read-only.
type PinMap []int

// Identity returns a map where logical pin i is physical pin i.
func Identity(n int) PinMap {
	m := make(PinMap, n)
	for i := range m {
		m[i] = i
	}
	return m
}

// Physical resolves l.
func (m PinMap) Physical(l LogicalPin) (int, error) {
	if int(l) >= len(m) || m[l] == Unmapped {
		return 0, &errcode.E{C: errcode.UnknownPin, Op: "pinmap", Msg: "logical " + strconv.Itoa(int(l))}
	}
	return m[l], nil
}

// Connection binds a logical pin to a label ("A0", "MREQ", ...).
type Connection struct {
	Pin   LogicalPin
	Label string
}

// Conns builds connections for consecutive logical pins starting at first,
// labelled prefix0..prefixN-1.
func Conns(first LogicalPin, n int, prefix string) []Connection {
	out := make([]Connection, n)
	for i := range out {
		out[i] = Connection{Pin: first + LogicalPin(i), Label: prefix + strconv.Itoa(i)}
	}
	return out
}

// Resolve maps conns to physical pins, rejecting duplicates and buses wider
// than MaxWidth.
func (m PinMap) Resolve(conns []Connection) ([]int, error) {
	if len(conns) == 0 || len(conns) > MaxWidth {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "pinmap", Msg: "bus width " + strconv.Itoa(len(conns))}
	}
	phys := make([]int, len(conns))
	for i, c := range conns {
		for _, prev := range conns[:i] {
			if prev.Pin == c.Pin {
				return nil, &errcode.E{C: errcode.PinInUse, Op: "pinmap", Msg: c.Label + " duplicates " + prev.Label}
			}
		}
		p, err := m.Physical(c.Pin)
		if err != nil {
			return nil, err
		}
		for j := 0; j < i; j++ {
			if phys[j] == p {
				return nil, &errcode.E{C: errcode.PinInUse, Op: "pinmap", Msg: c.Label + " shares pin with " + conns[j].Label}
			}
		}
		phys[i] = p
	}
	return phys, nil
}

// Direction of a bus from the tester's point of view.
type Direction uint8

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "out"
	}
	return "in"
}

// Pull selects the input bias.
type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Pin is one GPIO.
type Pin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Number() int
}

// PinFactory supplies pins by physical number.
type PinFactory interface {
	ByNumber(n int) (Pin, bool)
}

// Port is one group of GPIOs sharing input, output and mode registers.
// Mode bits set to 1 are outputs.
type Port interface {
	In() uint32
	Out() uint32
	SetOut(v uint32)
	Mode() uint32
	SetMode(v uint32)
}

// PortMap locates physical pins in port registers.
type PortMap interface {
	PortOf(physical int) (port int, bit uint8, ok bool)
	Port(i int) Port
	Ports() int
}

// Space is everything a platform offers for reaching pins. Ports is nil when
// the platform has no register-level access.
type Space struct {
	Pins  PinFactory
	Ports PortMap
}

// Bus drives or samples a group of pins as one value; bit i of the value is
// the i-th connection.
type Bus interface {
	Width() int
	Direction() Direction
	SetDirection(d Direction)
	Write(v uint32)
	Read() uint32
}
