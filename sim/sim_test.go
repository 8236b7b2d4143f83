//go:build !rp2040 && !rp2350

package sim

import (
	"bytes"
	"hash/crc32"
	"testing"

	"incircuit-go/cpu"
	"incircuit-go/cpu/z80"
	"incircuit-go/errcode"
)

func TestPatternIsDeterministic(t *testing.T) {
	a, b := Pattern(7, 64), Pattern(7, 64)
	if !bytes.Equal(a, b) {
		t.Fatal("same seed gave different content")
	}
	if bytes.Equal(a, Pattern(8, 64)) {
		t.Fatal("different seeds gave the same content")
	}
}

func TestStockROMChecksums(t *testing.T) {
	cases := []struct {
		seed uint32
		n    int
		crc  uint32
	}{
		{1, 0x800, 0x44840B47},
		{2, 0x800, 0x4BFAEC8B},
		{3, 0x400, 0x0AA7FAB4},
		{4, 0x400, 0x6FE4DDA8},
		{5, 0x1000, 0xB75780F7},
		{6, 0x400, 0x4E058B63},
		{7, 0x400, 0x55BEE9A2},
		{8, 0x2000, 0xEDC2E56E},
		{9, 0x1000, 0xA2FEF5A0},
		{10, 0x400, 0x30AB21B1},
		{11, 0x400, 0x6CFF8CF5},
	}
	for _, tc := range cases {
		if got := crc32.ChecksumIEEE(Pattern(tc.seed, tc.n)); got != tc.crc {
			t.Errorf("seed %d: crc %08X want %08X", tc.seed, got, tc.crc)
		}
	}
}

func TestReadMergesMaskedChips(t *testing.T) {
	lo := NewRAM(cpu.NoBank, 0, 4, 0x0F)
	hi := NewRAM(cpu.NoBank, 0, 4, 0xF0)
	tg := (&Target{}).Add(lo, hi)
	tg.Write(cpu.Memory, 1, 0xA5)
	if lo.Peek(1) != 0x05 || hi.Peek(1) != 0xA0 {
		t.Fatalf("chips hold %#x %#x", lo.Peek(1), hi.Peek(1))
	}
	if v := tg.Read(cpu.Memory, 1); v != 0xA5 {
		t.Fatalf("merged read %#x", v)
	}
	if v := tg.Read(cpu.Memory, 9); v != 0xFF {
		t.Fatalf("open bus %#x", v)
	}
	if v := tg.Read(cpu.IO, 1); v != 0xFF {
		t.Fatalf("io space decoded memory chip: %#x", v)
	}
}

func TestStuckBits(t *testing.T) {
	r := NewRAM(cpu.NoBank, 0, 1, 0xFF)
	r.Stuck0, r.Stuck1 = 0x01, 0x80
	tg := (&Target{}).Add(r)
	tg.Write(cpu.Memory, 0, 0x01)
	if v := tg.Read(cpu.Memory, 0); v != 0x80 {
		t.Fatalf("read %#x", v)
	}
	if r.Peek(0) != 0x01 {
		t.Fatal("stuck bits leaked into storage")
	}
}

func TestBankLatchSelectsDevices(t *testing.T) {
	tg := (&Target{HasBank: true, BankSpace: cpu.IO, BankAddr: 0x40}).Add(
		&ROM{Bank: 0, Base: 0x100, Data: []byte{1}},
		&ROM{Bank: 1, Base: 0x100, Data: []byte{2}},
	)
	if v := tg.Read(cpu.Memory, 0x100); v != 1 {
		t.Fatalf("bank 0 read %d", v)
	}
	tg.Write(cpu.IO, 0x40, 1)
	if v := tg.Read(cpu.Memory, 0x100); v != 2 {
		t.Fatalf("bank 1 read %d", v)
	}
	if !tg.Mapped(cpu.IO, 0x40) || tg.Mapped(cpu.IO, 0x41) {
		t.Fatal("latch decode")
	}
	if _, _, sets := tg.Stats(); sets != 1 {
		t.Fatalf("bank sets %d", sets)
	}
}

func TestStockBoards(t *testing.T) {
	for _, f := range []cpu.Family{cpu.FamilyZ80, cpu.Family6502, cpu.Family6809, cpu.Family68000} {
		st, err := NewStock(f)
		if err != nil {
			t.Fatal(err)
		}
		if len(st.RAM) == 0 || st.IRQ.Delay == 0 {
			t.Fatalf("%s: incomplete stock board", f)
		}
		if _, err := New(f, st.Target); err != nil {
			t.Fatalf("%s socket: %v", f, err)
		}
	}
	if _, err := NewStock("8080"); errcode.Of(err) != errcode.UnknownBoard {
		t.Fatalf("unknown family: %v", err)
	}
	if _, err := New("8080", &Target{}); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("unknown socket: %v", err)
	}
}

func TestRaiseCountsSamples(t *testing.T) {
	s, err := New(cpu.FamilyZ80, &Target{})
	if err != nil {
		t.Fatal(err)
	}
	s.Raise(IntSource{Line: cpu.LineINT, Delay: 2})
	for i := 0; i < 2; i++ {
		s.sample(0)
		if s.Asserted() {
			t.Fatalf("asserted after %d samples", i+1)
		}
	}
	s.sample(0)
	if !s.Asserted() || s.Pins.Level(int(z80.PinINT)) {
		t.Fatal("INT not driven low")
	}
	s.Clear()
	if s.Asserted() || !s.Pins.Level(int(z80.PinINT)) {
		t.Fatal("INT still driven after Clear")
	}
}
