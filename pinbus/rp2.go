//go:build rp2040 || rp2350

package pinbus

import (
	"device/rp"
	"machine"
)

// gpioCount is the number of user GPIOs routed to SIO bank 0.
const gpioCount = 30

// MachinePins hands out RP2 GPIOs by GP number and exposes SIO bank 0 as a
// single 32-bit port.
type MachinePins struct{}

type rp2Pin struct {
	p machine.Pin
	n int
}

func (MachinePins) ByNumber(n int) (Pin, bool) {
	if n < 0 || n >= gpioCount {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

func (r *rp2Pin) ConfigureInput(p Pull) error {
	var mode machine.PinMode
	switch p {
	case PullUp:
		mode = machine.PinInputPullup
	case PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Set(initial)
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}
func (r *rp2Pin) Set(b bool)  { r.p.Set(b) }
func (r *rp2Pin) Get() bool   { return r.p.Get() }
func (r *rp2Pin) Number() int { return r.n }

// sioPort drives GPIO_IN / GPIO_OUT / GPIO_OE directly. Pins must already be
// assigned to SIO, which Configure does.
type sioPort struct{}

func (sioPort) In() uint32       { return rp.SIO.GPIO_IN.Get() }
func (sioPort) Out() uint32      { return rp.SIO.GPIO_OUT.Get() }
func (sioPort) SetOut(v uint32)  { rp.SIO.GPIO_OUT.Set(v) }
func (sioPort) Mode() uint32     { return rp.SIO.GPIO_OE.Get() }
func (sioPort) SetMode(v uint32) { rp.SIO.GPIO_OE.Set(v) }

func (MachinePins) PortOf(n int) (int, uint8, bool) {
	if n < 0 || n >= gpioCount {
		return 0, 0, false
	}
	return 0, uint8(n), true
}

func (MachinePins) Port(int) Port { return sioPort{} }
func (MachinePins) Ports() int    { return 1 }

// NativeSpace returns the RP2 GPIO space.
func NativeSpace() Space { return Space{Pins: MachinePins{}, Ports: MachinePins{}} }
