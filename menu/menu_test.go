//go:build !rp2040 && !rp2350

package menu

import (
	"context"
	"strings"
	"testing"

	"incircuit-go/cpu"
	"incircuit-go/engine"
	"incircuit-go/errcode"
	"incircuit-go/sim"
)

func TestEntries(t *testing.T) {
	es := Entries()
	if len(es) != 8 {
		t.Fatalf("%d entries", len(es))
	}
	if es[0].Name != "Z80 GENERIC" || es[0].Tag != Generic {
		t.Fatalf("first entry %+v", es[0])
	}
	for _, e := range es {
		if len(e.Name) > NameWidth {
			t.Fatalf("%q too long", e.Name)
		}
		if _, ok := Lookup(e.Name); !ok {
			t.Fatalf("lookup %q", e.Name)
		}
	}
	if _, _, _, err := Build("PAC-MAN", cpu.Wire{}, cpu.Timing{}); errcode.Of(err) != errcode.UnknownBoard {
		t.Fatalf("unknown entry: %v", err)
	}
}

func mustPanic(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s did not panic", what)
		}
	}()
	fn()
}

func TestRegisterRejects(t *testing.T) {
	f := generic(cpu.FamilyZ80)
	mustPanic(t, "duplicate", func() { Register(Entry{Name: "Z80 SAMPLE", New: f}) })
	mustPanic(t, "long name", func() { Register(Entry{Name: strings.Repeat("X", NameWidth+1), New: f}) })
	mustPanic(t, "empty name", func() { Register(Entry{New: f}) })
	mustPanic(t, "no factory", func() { Register(Entry{Name: "NO FACTORY"}) })
}

// Every sample board passes a full run against the matching stock board.
func TestSamplesMatchStockBoards(t *testing.T) {
	for _, e := range Entries() {
		if e.Tag != Board {
			continue
		}
		t.Run(e.Name, func(t *testing.T) {
			st, err := sim.NewStock(e.Family)
			if err != nil {
				t.Fatal(err)
			}
			s, err := sim.New(e.Family, st.Target)
			if err != nil {
				t.Fatal(err)
			}
			s.Raise(st.IRQ)
			_, desc, drv, err := Build(e.Name, s.Wire(true), cpu.Timing{MaxPolls: 50, IntPolls: 5000})
			if err != nil {
				t.Fatal(err)
			}
			eng, err := engine.New(drv, desc)
			if err != nil {
				t.Fatal(err)
			}
			for _, r := range eng.RunAll(context.Background()) {
				if !r.OK() {
					t.Fatalf("%s: %v %q %+v", r.Check, r.Code, r.Description(), r.Detail)
				}
			}
		})
	}
}

func TestGenericEntriesHaveEmptyMaps(t *testing.T) {
	for _, f := range Families() {
		s, err := sim.New(f, &sim.Target{})
		if err != nil {
			t.Fatal(err)
		}
		e, desc, drv, err := Build(strings.ToUpper(string(f))+" GENERIC", s.Wire(false), cpu.Timing{})
		if err != nil {
			t.Fatal(err)
		}
		if drv.Family() != f || desc.Family != f || e.Tag != Generic {
			t.Fatalf("%s: family %s/%s", f, drv.Family(), desc.Family)
		}
		if len(desc.ROM)+len(desc.RAM)+len(desc.Inputs)+len(desc.Outputs) != 0 {
			t.Fatalf("%s: generic entry has regions", f)
		}
		if PinCount(f) == 0 {
			t.Fatalf("%s: no pin count", f)
		}
	}
}
