// Package cpu defines the contract every processor-family driver implements.
//
// The tester sits in the processor socket and reproduces that processor's
// external bus protocol on the board. A Driver owns every socket pin for the
// duration of a test run; between operations it is always Idle, with the
// data bus released and all strobes inactive.
package cpu

import (
	"context"
	"strconv"

	"incircuit-go/errcode"
)

// Family identifies a processor family.
type Family string

const (
	FamilyZ80   Family = "z80"
	Family6502  Family = "6502"
	Family6809  Family = "6809"
	Family68000 Family = "68000"
)

// Bank selects a memory bank before an access. NoBank leaves the current
// mapping untouched; any other value is a family-specific code written to
// the driver's bank latch.
type Bank int32

const NoBank Bank = -1

func (b Bank) String() string {
	if b == NoBank {
		return "-"
	}
	return strconv.Itoa(int(b))
}

// Space selects the address space of an access.
type Space uint8

const (
	Memory Space = iota
	IO
)

// Line is an interrupt input of the processor.
type Line uint8

const (
	LineNone Line = iota
	LineINT       // INT / IRQ / any 68000 IPL level
	LineNMI
	LineFIRQ
)

func (l Line) String() string {
	switch l {
	case LineINT:
		return "INT"
	case LineNMI:
		return "NMI"
	case LineFIRQ:
		return "FIRQ"
	default:
		return "none"
	}
}

// Ack describes how an interrupt was acknowledged.
type Ack struct {
	Line   Line
	Vector uint32 // vector byte/number or fetched handler address
	Level  uint8  // 68000 IPL level
	Auto   bool   // vector came from inside the processor
}

// Driver is one processor family's bus protocol.
type Driver interface {
	Family() Family
	// Idle releases the bus: strobes inactive, data lines inputs. It is the
	// only way out of the Uninitialized state and is idempotent.
	Idle() error
	Read(addr uint32) (byte, error)
	Write(addr uint32, v byte) error
	// ClockPulse advances one bus clock; a no-op where the board clocks
	// itself and the driver has no clock line.
	ClockPulse()
	SelectBank(b Bank) error
	// Interrupt waits for the board to raise line and acknowledges it the
	// way the processor would. auto states whether the processor supplies
	// the vector itself.
	Interrupt(ctx context.Context, line Line, auto bool) (Ack, error)
}

// IOSpace is implemented by families with a separate I/O address space.
type IOSpace interface {
	ReadIO(port uint32) (byte, error)
	WriteIO(port uint32, v byte) error
}

// ReadSpace reads from the given space, failing with Unsupported when the
// driver has no I/O space.
func ReadSpace(d Driver, sp Space, addr uint32) (byte, error) {
	if sp == Memory {
		return d.Read(addr)
	}
	io, ok := d.(IOSpace)
	if !ok {
		return 0, &errcode.E{C: errcode.Unsupported, Op: string(d.Family()), Msg: "no io space"}
	}
	return io.ReadIO(addr)
}

// WriteSpace is the write counterpart of ReadSpace.
func WriteSpace(d Driver, sp Space, addr uint32, v byte) error {
	if sp == Memory {
		return d.Write(addr, v)
	}
	io, ok := d.(IOSpace)
	if !ok {
		return &errcode.E{C: errcode.Unsupported, Op: string(d.Family()), Msg: "no io space"}
	}
	return io.WriteIO(addr, v)
}

// Timing bounds every busy-poll of a driver.
type Timing struct {
	MaxPolls int // handshake polls per bus cycle (WAIT, RDY, DTACK)
	IntPolls int // polls while waiting for an interrupt line
}

// DefaultTiming is used for zero fields.
var DefaultTiming = Timing{MaxPolls: 1000, IntPolls: 200000}

// WithDefaults fills zero fields from DefaultTiming.
func (t Timing) WithDefaults() Timing {
	if t.MaxPolls <= 0 {
		t.MaxPolls = DefaultTiming.MaxPolls
	}
	if t.IntPolls <= 0 {
		t.IntPolls = DefaultTiming.IntPolls
	}
	return t
}

// Poll calls done up to max times, running step between attempts. It reports
// whether done became true.
func Poll(max int, done func() bool, step func()) bool {
	for i := 0; i < max; i++ {
		if done() {
			return true
		}
		if step != nil {
			step()
		}
	}
	return false
}

// PollCtx is Poll for long waits; ctx is checked every 256 attempts.
func PollCtx(ctx context.Context, max int, done func() bool, step func()) (bool, error) {
	for i := 0; i < max; i++ {
		if i&0xFF == 0 {
			if err := ctx.Err(); err != nil {
				return false, &errcode.E{C: errcode.Aborted, Err: err}
			}
		}
		if done() {
			return true, nil
		}
		if step != nil {
			step()
		}
	}
	return false, nil
}

// TimeoutErr reports a handshake line that never completed.
func TimeoutErr(op, line string) error {
	return &errcode.E{C: errcode.Timeout, Op: op, Msg: line + " TIMEOUT"}
}
