package cpu

import (
	"context"
	"errors"
	"testing"

	"incircuit-go/errcode"
	"incircuit-go/pinbus"
)

func TestMachineLifecycle(t *testing.T) {
	m := NewMachine("z80")
	if m.State() != Uninitialized {
		t.Fatalf("initial state %v", m.State())
	}
	if err := m.Begin("read"); errcode.Of(err) != errcode.Unexpected {
		t.Fatalf("begin before idle: %v", err)
	}
	m.End()
	if m.State() != Idle {
		t.Fatalf("state after End = %v", m.State())
	}
	if err := m.Begin("read"); err != nil {
		t.Fatal(err)
	}
	err := m.Begin("write")
	var e *errcode.E
	if !errors.As(err, &e) || e.Op != "z80.write" || e.Msg != "busy in read" {
		t.Fatalf("re-entry: %v", err)
	}
	m.End()
	if m.State() != Idle {
		t.Fatal("End must return to idle")
	}
}

func TestPollIsBounded(t *testing.T) {
	calls, steps := 0, 0
	ok := Poll(10, func() bool { calls++; return false }, func() { steps++ })
	if ok || calls != 10 || steps != 10 {
		t.Fatalf("ok=%v calls=%d steps=%d", ok, calls, steps)
	}
	calls = 0
	if !Poll(10, func() bool { calls++; return calls == 3 }, nil) || calls != 3 {
		t.Fatalf("early completion: calls=%d", calls)
	}
	if Poll(0, func() bool { return true }, nil) {
		t.Fatal("zero budget must not poll")
	}
}

func TestPollCtxAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err := PollCtx(ctx, 1000, func() bool { return false }, nil)
	if ok || errcode.Of(err) != errcode.Aborted || !errors.Is(err, context.Canceled) {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	ok, err = PollCtx(context.Background(), 300, func() bool { return false }, nil)
	if ok || err != nil {
		t.Fatalf("exhausted poll: ok=%v err=%v", ok, err)
	}
}

func TestTimeoutErr(t *testing.T) {
	err := TimeoutErr("z80.read", "WAIT")
	if errcode.Of(err) != errcode.Timeout {
		t.Fatalf("code %v", errcode.Of(err))
	}
	var e *errcode.E
	if !errors.As(err, &e) || e.Msg != "WAIT TIMEOUT" {
		t.Fatalf("msg %v", err)
	}
}

func TestTimingDefaults(t *testing.T) {
	got := Timing{MaxPolls: 5}.WithDefaults()
	if got.MaxPolls != 5 || got.IntPolls != DefaultTiming.IntPolls {
		t.Fatalf("%+v", got)
	}
}

type memOnly struct{}

func (memOnly) Family() Family            { return Family6502 }
func (memOnly) Idle() error               { return nil }
func (memOnly) Read(uint32) (byte, error) { return 0x42, nil }
func (memOnly) Write(uint32, byte) error  { return nil }
func (memOnly) ClockPulse()               {}
func (memOnly) SelectBank(Bank) error     { return nil }
func (memOnly) Interrupt(context.Context, Line, bool) (Ack, error) {
	return Ack{}, nil
}

func TestSpaceHelpers(t *testing.T) {
	d := memOnly{}
	if v, err := ReadSpace(d, Memory, 0); err != nil || v != 0x42 {
		t.Fatalf("memory read %#x %v", v, err)
	}
	if _, err := ReadSpace(d, IO, 0); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("io read on memory-only driver: %v", err)
	}
	if err := WriteSpace(d, IO, 0, 1); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("io write on memory-only driver: %v", err)
	}
}

func TestWireOptional(t *testing.T) {
	hp := pinbus.NewHostPins(4)
	w := Wire{Space: hp.Space(), Map: pinbus.PinMap{0, 1, pinbus.Unmapped}}
	s, err := w.Optional(pinbus.Connection{Pin: 2, Label: "NMI"}, true)
	if err != nil || s.Valid() {
		t.Fatalf("unmapped optional: %v valid=%v", err, s.Valid())
	}
	s, err = w.Optional(pinbus.Connection{Pin: 9, Label: "CLK"}, false)
	if err != nil || s.Valid() {
		t.Fatalf("out of range optional: %v", err)
	}
	if _, err := w.Signal(pinbus.Connection{Pin: 2, Label: "NMI"}, true); errcode.Of(err) != errcode.UnknownPin {
		t.Fatalf("required unmapped: %v", err)
	}
	b, err := w.Bus(pinbus.Conns(0, 2, "D"))
	if err != nil || b.Width() != 2 {
		t.Fatalf("bus: %v", err)
	}
}
