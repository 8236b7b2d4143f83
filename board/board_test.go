package board

import (
	"context"
	"testing"

	"incircuit-go/cpu"
	"incircuit-go/errcode"
)

func valid() *Description {
	return &Description{
		Name:   "sample",
		Family: cpu.FamilyZ80,
		ROM: []ROMRegion{
			{Bank: cpu.NoBank, Start: 0x0000, Length: 0x1000, Label: Label{"7C", "PROG1"}},
			{Bank: cpu.NoBank, Start: 0x1000, Length: 0x1000, Label: Label{"7D", "PROG2"}},
		},
		RAM: []RAMRegion{
			{Bank: cpu.NoBank, Start: 0x8000, End: 0x83FF, Mask: 0x0F, Label: Label{"4A", "LO"}},
			{Bank: cpu.NoBank, Start: 0x8000, End: 0x83FF, Mask: 0xF0, Label: Label{"4B", "HI"}},
		},
		Inputs:  []InputRegion{{Space: cpu.IO, Address: 0x10, Mask: 0xFF, Label: Label{"", "DSW1"}}},
		Outputs: []OutputRegion{{Space: cpu.IO, Address: 0x20, Mask: 0x03, Label: Label{"", "LAMPS"}}},
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := valid().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		mut  func(d *Description)
	}{
		{"long loc", func(d *Description) { d.ROM[0].Label.Loc = "12AB" }},
		{"long name", func(d *Description) { d.RAM[0].Label.Name = "SPRITES" }},
		{"empty rom", func(d *Description) { d.ROM[0].Length = 0 }},
		{"rom data length", func(d *Description) { d.ROM[0].Data = make([]byte, 3) }},
		{"rom overlap", func(d *Description) { d.ROM[1].Start = 0x0800 }},
		{"ram reversed", func(d *Description) { d.RAM[0].Start, d.RAM[0].End = 0x9000, 0x8000 }},
		{"ram empty mask", func(d *Description) { d.RAM[0].Mask = 0 }},
		{"ram mask overlap", func(d *Description) { d.RAM[1].Mask = 0x18 }},
		{"input mask", func(d *Description) { d.Inputs[0].Mask = 0 }},
		{"output mask", func(d *Description) { d.Outputs[0].Mask = 0 }},
		{"hook func", func(d *Description) { d.Hooks = []Hook{{Label: Label{"", "WDOG"}}} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := valid()
			tc.mut(d)
			if err := d.Validate(); errcode.Of(err) != errcode.InvalidParams {
				t.Fatalf("got %v", err)
			}
		})
	}
}

func TestOverlapAllowedAcrossBanks(t *testing.T) {
	d := valid()
	d.ROM[0].Bank, d.ROM[1].Bank = 0, 1
	d.ROM[1].Start = 0x0000
	d.RAM[1].Bank = 2
	d.RAM[1].Mask = 0xFF
	if err := d.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestHooksFor(t *testing.T) {
	run := func(context.Context, cpu.Driver) error { return nil }
	d := valid()
	d.Hooks = []Hook{
		{Stage: BeforeRAM, Label: Label{"", "A"}, Run: run},
		{Stage: BeforeROM, Label: Label{"", "B"}, Run: run},
		{Stage: BeforeRAM, Label: Label{"", "C"}, Run: run},
	}
	got := d.HooksFor(BeforeRAM)
	if len(got) != 2 || got[0].Label.Name != "A" || got[1].Label.Name != "C" {
		t.Fatalf("%+v", got)
	}
	if len(d.HooksFor(BeforeOutputs)) != 0 {
		t.Fatal("unexpected hooks")
	}
}

func TestLabelString(t *testing.T) {
	if got := (Label{"7C", "PROG1"}).String(); got != "7C  PROG1" {
		t.Fatalf("%q", got)
	}
}
