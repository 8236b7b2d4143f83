package m6809_test

import (
	"context"
	"testing"

	"incircuit-go/cpu"
	"incircuit-go/cpu/m6809"
	"incircuit-go/errcode"
	"incircuit-go/sim"
)

func setup(t *testing.T, tgt *sim.Target) (*m6809.Driver, *sim.Socket) {
	t.Helper()
	s, err := sim.New(cpu.Family6809, tgt)
	if err != nil {
		t.Fatal(err)
	}
	d, err := m6809.New(m6809.Config{
		Wire:   s.Wire(false),
		Timing: cpu.Timing{MaxPolls: 20, IntPolls: 300},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Idle(); err != nil {
		t.Fatal(err)
	}
	return d, s
}

func TestReadWriteWithMRDY(t *testing.T) {
	ram := sim.NewRAM(cpu.NoBank, 0x0000, 0x100, 0xFF)
	tgt := (&sim.Target{Waits: 4}).Add(ram, &sim.ROM{Bank: cpu.NoBank, Base: 0xE000, Data: []byte{0x12, 0x34}})
	d, s := setup(t, tgt)
	if err := d.Write(0x20, 0xC3); err != nil {
		t.Fatal(err)
	}
	if ram.Peek(0x20) != 0xC3 {
		t.Fatalf("ram holds %#x", ram.Peek(0x20))
	}
	for addr, want := range map[uint32]byte{0x20: 0xC3, 0xE001: 0x34} {
		if v, err := d.Read(addr); err != nil || v != want {
			t.Fatalf("read %#x: %#x %v", addr, v, err)
		}
	}
	if s.Pins.Contention() != 0 {
		t.Fatal("bus contention")
	}
	if s.Pins.Level(int(m6809.PinE)) || s.Pins.Level(int(m6809.PinQ)) {
		t.Fatal("clocks left high")
	}
}

func TestStuckMRDY(t *testing.T) {
	tgt := (&sim.Target{StuckWait: true}).Add(sim.NewRAM(cpu.NoBank, 0, 0x10, 0xFF))
	d, s := setup(t, tgt)
	_, err := d.Read(4)
	if errcode.Of(err) != errcode.Timeout {
		t.Fatalf("got %v", err)
	}
	if e, ok := err.(*errcode.E); !ok || e.Msg != "MRDY TIMEOUT" {
		t.Fatalf("message: %v", err)
	}
	if s.Pins.Level(int(m6809.PinE)) {
		t.Fatal("E left high after timeout")
	}
}

func TestFIRQVectorIsBigEndian(t *testing.T) {
	vec := make([]byte, 0x10)
	vec[0x6], vec[0x7] = 0x21, 0x53 // FIRQ
	vec[0x8], vec[0x9] = 0x64, 0x7B // IRQ
	tgt := (&sim.Target{}).Add(&sim.ROM{Bank: cpu.NoBank, Base: 0xFFF0, Data: vec})
	d, s := setup(t, tgt)

	s.Raise(sim.IntSource{Line: cpu.LineFIRQ, Auto: true, Delay: 3})
	ack, err := d.Interrupt(context.Background(), cpu.LineFIRQ, true)
	if err != nil || ack.Vector != 0x2153 || ack.Line != cpu.LineFIRQ {
		t.Fatalf("firq %+v %v", ack, err)
	}
	if s.Acks() != 1 {
		t.Fatal("board did not see BS during the fetch")
	}
	if s.Pins.Level(int(m6809.PinBS)) {
		t.Fatal("BS left high")
	}

	s.Raise(sim.IntSource{Line: cpu.LineINT, Auto: true})
	if ack, err := d.Interrupt(context.Background(), cpu.LineINT, true); err != nil || ack.Vector != 0x647B {
		t.Fatalf("irq %+v %v", ack, err)
	}
}

func TestInterruptErrors(t *testing.T) {
	d, _ := setup(t, &sim.Target{})
	if _, err := d.Interrupt(context.Background(), cpu.LineINT, false); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("external vector: %v", err)
	}
	if _, err := d.Interrupt(context.Background(), cpu.LineNMI, true); errcode.Of(err) != errcode.Timeout {
		t.Fatalf("silent line: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Interrupt(ctx, cpu.LineFIRQ, true); errcode.Of(err) != errcode.Aborted {
		t.Fatalf("canceled: %v", err)
	}
}
