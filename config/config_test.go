package config

import (
	"testing"

	"incircuit-go/cpu"
	"incircuit-go/errcode"
	"incircuit-go/pinbus"
)

func TestDefaultIsValid(t *testing.T) {
	s, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.CPUTiming().MaxPolls <= 0 {
		t.Fatal("no poll bound")
	}
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	base := Default()
	s, err := Load([]byte(`{"board":"Z80 SAMPLE","timing":{"max_polls":10,"int_polls":99}}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.Board != "Z80 SAMPLE" || s.Timing.MaxPolls != 10 || s.Timing.IntPolls != 99 {
		t.Fatalf("override not applied: %+v", s)
	}
	if s.Fast != base.Fast || s.Display != base.Display {
		t.Fatal("untouched fields changed")
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		json string
		code errcode.Code
	}{
		{"zero polls", `{"timing":{"max_polls":0,"int_polls":5}}`, errcode.InvalidParams},
		{"duplicate native", `{"native":[1,2,1]}`, errcode.PinInUse},
		{"duplicate socket", `{"sockets":{"z80":[0,1,1]}}`, errcode.PinInUse},
		{"bad expander", `{"expanders":[64]}`, errcode.InvalidParams},
		{"twice expander", `{"expanders":[32,32]}`, errcode.InvalidParams},
		{"bad json", `{"fast":"yes"}`, errcode.InvalidParams},
	}
	for _, tc := range cases {
		if _, err := Load([]byte(tc.json)); errcode.Of(err) != tc.code {
			t.Errorf("%s: got %v", tc.name, err)
		}
	}
	ok := `{"sockets":{"z80":[-1,-1,3]}}`
	if _, err := Load([]byte(ok)); err != nil {
		t.Fatalf("unmapped pins repeat: %v", err)
	}
}

func TestPinMap(t *testing.T) {
	s := Setup{Native: []int{2, 3, 6}, Expanders: []uint8{0x20}}
	m, err := s.PinMap(cpu.FamilyZ80, 5)
	if err != nil {
		t.Fatal(err)
	}
	want := pinbus.PinMap{2, 3, 6, pinbus.ExpanderBase, pinbus.ExpanderBase + 1}
	for i := range want {
		if m[i] != want[i] {
			t.Fatalf("map %v, want %v", m, want)
		}
	}
	if _, err := s.PinMap(cpu.FamilyZ80, 20); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("too many pins: %v", err)
	}

	s.Sockets = map[cpu.Family]pinbus.PinMap{cpu.Family6502: {9, 8, 7}}
	if m, _ := s.PinMap(cpu.Family6502, 3); m[0] != 9 {
		t.Fatalf("socket override %v", m)
	}
	if _, err := s.PinMap(cpu.Family6502, 4); err == nil {
		t.Fatal("short socket map accepted")
	}
	if m, _ := (Setup{}).PinMap(cpu.Family6809, 4); len(m) != 4 || m[3] != 3 {
		t.Fatalf("identity %v", m)
	}
}

func TestDecodeJSONFromValue(t *testing.T) {
	var c Console
	if err := DecodeJSON(map[string]any{"baud": 9600, "uart": 1}, &c); err != nil {
		t.Fatal(err)
	}
	if c.Baud != 9600 || c.UART != 1 {
		t.Fatalf("%+v", c)
	}
}
