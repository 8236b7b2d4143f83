package m68000_test

import (
	"context"
	"testing"

	"incircuit-go/cpu"
	"incircuit-go/cpu/m68000"
	"incircuit-go/errcode"
	"incircuit-go/sim"
)

func setup(t *testing.T, tgt *sim.Target, fast bool) (*m68000.Driver, *sim.Socket) {
	t.Helper()
	s, err := sim.New(cpu.Family68000, tgt)
	if err != nil {
		t.Fatal(err)
	}
	d, err := m68000.New(m68000.Config{
		Wire:      s.Wire(fast),
		Timing:    cpu.Timing{MaxPolls: 20, IntPolls: 300},
		BankLatch: 0x300001,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Idle(); err != nil {
		t.Fatal(err)
	}
	return d, s
}

func TestByteLanes(t *testing.T) {
	for _, fast := range []bool{false, true} {
		ram := sim.NewRAM(cpu.NoBank, 0x100000, 0x10, 0xFF)
		tgt := (&sim.Target{Waits: 2}).Add(ram)
		d, s := setup(t, tgt, fast)
		if err := d.Write(0x100004, 0x12); err != nil {
			t.Fatal(err)
		}
		if err := d.Write(0x100005, 0x34); err != nil {
			t.Fatal(err)
		}
		if ram.Peek(0x100004) != 0x12 || ram.Peek(0x100005) != 0x34 {
			t.Fatalf("fast=%v lanes crossed: %#x %#x", fast, ram.Peek(0x100004), ram.Peek(0x100005))
		}
		for addr, want := range map[uint32]byte{0x100004: 0x12, 0x100005: 0x34} {
			if v, err := d.Read(addr); err != nil || v != want {
				t.Fatalf("fast=%v read %#x: %#x %v", fast, addr, v, err)
			}
		}
		if s.Pins.Contention() != 0 {
			t.Fatal("bus contention")
		}
		if !s.Pins.Level(int(m68000.PinAS)) {
			t.Fatal("AS left asserted")
		}
	}
}

func TestUnmappedAccess(t *testing.T) {
	tgt := &sim.Target{}
	d, _ := setup(t, tgt, true)
	if _, err := d.Read(0x800000); errcode.Of(err) != errcode.Timeout {
		t.Fatalf("no DTACK: %v", err)
	}
	tgt.BusErrorUnmapped = true
	_, err := d.Read(0x800000)
	if e, ok := err.(*errcode.E); !ok || e.C != errcode.Unexpected || e.Msg != "BUS ERROR" {
		t.Fatalf("bus error: %v", err)
	}
	if d.State() != cpu.Idle {
		t.Fatal("driver stuck after bus error")
	}
}

func TestBankLatch(t *testing.T) {
	tgt := (&sim.Target{HasBank: true, BankSpace: cpu.Memory, BankAddr: 0x300001}).Add(
		&sim.ROM{Bank: 0, Base: 0x010000, Data: []byte{0xAA}},
		&sim.ROM{Bank: 1, Base: 0x010000, Data: []byte{0xBB}},
	)
	d, _ := setup(t, tgt, false)
	if err := d.SelectBank(1); err != nil {
		t.Fatal(err)
	}
	if v, _ := d.Read(0x010000); v != 0xBB {
		t.Fatalf("bank 1 read %#x", v)
	}
	if tgt.Bank() != 1 {
		t.Fatalf("latched bank %d", tgt.Bank())
	}
}

func TestInterruptAcknowledge(t *testing.T) {
	d, s := setup(t, &sim.Target{}, true)

	s.Raise(sim.IntSource{Line: cpu.LineINT, Level: 4, Vector: 0x40, Delay: 5})
	ack, err := d.Interrupt(context.Background(), cpu.LineINT, false)
	if err != nil || ack.Vector != 0x40 || ack.Auto || ack.Level != 4 {
		t.Fatalf("vectored %+v %v", ack, err)
	}

	s.Raise(sim.IntSource{Line: cpu.LineINT, Level: 4, Auto: true})
	ack, err = d.Interrupt(context.Background(), cpu.LineINT, true)
	if err != nil || ack.Vector != m68000.AutoVectorBase+4 || !ack.Auto {
		t.Fatalf("autovector %+v %v", ack, err)
	}
	if s.Acks() != 2 {
		t.Fatalf("acks %d", s.Acks())
	}

	s.Raise(sim.IntSource{Line: cpu.LineNMI, Auto: true})
	ack, err = d.Interrupt(context.Background(), cpu.LineNMI, true)
	if err != nil || ack.Level != 7 || ack.Vector != m68000.AutoVectorBase+7 {
		t.Fatalf("nmi %+v %v", ack, err)
	}
}

func TestInterruptLevelTooLow(t *testing.T) {
	d, s := setup(t, &sim.Target{}, true)
	s.Raise(sim.IntSource{Line: cpu.LineINT, Level: 3, Auto: true})
	if d.Level() != 3 {
		t.Fatalf("level %d", d.Level())
	}
	if _, err := d.Interrupt(context.Background(), cpu.LineNMI, true); errcode.Of(err) != errcode.Timeout {
		t.Fatalf("level 3 as NMI: %v", err)
	}
	if _, err := d.Interrupt(context.Background(), cpu.LineFIRQ, true); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("FIRQ: %v", err)
	}
}
