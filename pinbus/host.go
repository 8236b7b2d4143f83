//go:build !rp2040 && !rp2350

package pinbus

import "sync"

// HostPins simulates a bank of GPIOs for host builds and tests. Every pin
// has a mode, an output latch and an external drive that stands in for the
// target board. Undriven inputs read high (pull-up).
//
// The bank serves both the per-pin (ByNumber) and register (Port) views
// over the same state, so PortableBus and FastBus can be compared directly.
type HostPins struct {
	mu    sync.Mutex
	n     int
	mode  []uint32
	out   []uint32
	ext   []uint32
	extEn []uint32

	contention int
	writes     int
	onChange   func()
	onSample   func(pin int)
}

// NewHostPins creates a bank of n pins, all inputs.
func NewHostPins(n int) *HostPins {
	ports := (n + 31) / 32
	return &HostPins{
		n:     n,
		mode:  make([]uint32, ports),
		out:   make([]uint32, ports),
		ext:   make([]uint32, ports),
		extEn: make([]uint32, ports),
	}
}

// OnChange registers fn to run after every tester-side change of a level or
// mode. fn may call Drive/Float; those never re-trigger it.
func (h *HostPins) OnChange(fn func()) { h.mu.Lock(); h.onChange = fn; h.mu.Unlock() }

// PortSample is passed to the OnSample hook for whole-port reads.
const PortSample = -1

// OnSample registers fn to run before the tester samples a pin, or a whole
// port (pin PortSample).
func (h *HostPins) OnSample(fn func(pin int)) { h.mu.Lock(); h.onSample = fn; h.mu.Unlock() }

func (h *HostPins) notify() {
	h.mu.Lock()
	fn := h.onChange
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func split(n int) (int, uint32) { return n / 32, 1 << uint(n%32) }

// level computes the net level; caller holds mu.
func (h *HostPins) level(n int) bool {
	p, m := split(n)
	switch {
	case h.mode[p]&m != 0:
		return h.out[p]&m != 0
	case h.extEn[p]&m != 0:
		return h.ext[p]&m != 0
	default:
		return true
	}
}

// Level returns the net level on pin n as the board sees it.
func (h *HostPins) Level(n int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level(n)
}

// IsOutput reports whether the tester drives pin n.
func (h *HostPins) IsOutput(n int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, m := split(n)
	return h.mode[p]&m != 0
}

// Drive makes the board side drive pin n.
func (h *HostPins) Drive(n int, level bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, m := split(n)
	h.extEn[p] |= m
	if level {
		h.ext[p] |= m
	} else {
		h.ext[p] &^= m
	}
	if h.mode[p]&m != 0 {
		h.contention++
	}
}

// Float stops the board side driving pin n.
func (h *HostPins) Float(n int) {
	h.mu.Lock()
	p, m := split(n)
	h.extEn[p] &^= m
	h.mu.Unlock()
}

// Contention counts moments where tester and board drove the same pin.
func (h *HostPins) Contention() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.contention
}

// Writes counts tester-side level and mode changes.
func (h *HostPins) Writes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.writes
}

func (h *HostPins) setMode(p int, mask, v uint32) {
	h.mu.Lock()
	old := h.mode[p]
	h.mode[p] = old&^mask | v&mask
	if h.mode[p]&^old&h.extEn[p] != 0 {
		h.contention++
	}
	h.writes++
	h.mu.Unlock()
	h.notify()
}

func (h *HostPins) setOut(p int, mask, v uint32) {
	h.mu.Lock()
	h.out[p] = h.out[p]&^mask | v&mask
	h.writes++
	h.mu.Unlock()
	h.notify()
}

// ---- per-pin view ----

// FakePin implements Pin on top of a HostPins bank.
type FakePin struct {
	h *HostPins
	n int
}

func (h *HostPins) ByNumber(n int) (Pin, bool) {
	if n < 0 || n >= h.n {
		return nil, false
	}
	return &FakePin{h: h, n: n}, true
}

func (f *FakePin) ConfigureInput(_ Pull) error {
	p, m := split(f.n)
	f.h.setMode(p, m, 0)
	return nil
}

func (f *FakePin) ConfigureOutput(initial bool) error {
	p, m := split(f.n)
	var v uint32
	if initial {
		v = m
	}
	h := f.h
	h.mu.Lock()
	h.out[p] = h.out[p]&^m | v
	h.mu.Unlock()
	h.setMode(p, m, m)
	return nil
}

func (f *FakePin) Set(level bool) {
	p, m := split(f.n)
	var v uint32
	if level {
		v = m
	}
	f.h.setOut(p, m, v)
}

func (f *FakePin) Get() bool {
	f.h.mu.Lock()
	fn := f.h.onSample
	f.h.mu.Unlock()
	if fn != nil {
		fn(f.n)
	}
	return f.h.Level(f.n)
}

func (f *FakePin) Number() int { return f.n }

// ---- register view ----

type hostPort struct {
	h *HostPins
	p int
}

func (h *HostPins) PortOf(n int) (int, uint8, bool) {
	if n < 0 || n >= h.n {
		return 0, 0, false
	}
	return n / 32, uint8(n % 32), true
}

func (h *HostPins) Port(i int) Port { return &hostPort{h: h, p: i} }
func (h *HostPins) Ports() int      { return len(h.mode) }

// Space exposes both views of the bank.
func (h *HostPins) Space() Space { return Space{Pins: h, Ports: h} }

func (hp *hostPort) In() uint32 {
	h := hp.h
	h.mu.Lock()
	fn := h.onSample
	h.mu.Unlock()
	if fn != nil {
		fn(PortSample)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	var v uint32
	for b := 0; b < 32; b++ {
		n := hp.p*32 + b
		if n >= h.n {
			break
		}
		if h.level(n) {
			v |= 1 << uint(b)
		}
	}
	return v
}

func (hp *hostPort) Out() uint32 {
	hp.h.mu.Lock()
	defer hp.h.mu.Unlock()
	return hp.h.out[hp.p]
}

func (hp *hostPort) SetOut(v uint32) { hp.h.setOut(hp.p, 0xFFFFFFFF, v) }

func (hp *hostPort) Mode() uint32 {
	hp.h.mu.Lock()
	defer hp.h.mu.Unlock()
	return hp.h.mode[hp.p]
}

func (hp *hostPort) SetMode(v uint32) { hp.h.setMode(hp.p, 0xFFFFFFFF, v) }
