package engine_test

import (
	"context"

	"incircuit-go/cpu"
	"incircuit-go/errcode"
)

// fake is a driver over a plain map that records every read address.
type fake struct {
	mem   map[uint32]byte
	reads []uint32
}

func newFake() *fake { return &fake{mem: map[uint32]byte{}} }

func (f *fake) Family() cpu.Family { return "fake" }
func (f *fake) Idle() error        { return nil }
func (f *fake) ClockPulse()        {}

func (f *fake) Read(addr uint32) (byte, error) {
	f.reads = append(f.reads, addr)
	return f.mem[addr], nil
}

func (f *fake) Write(addr uint32, v byte) error { f.mem[addr] = v; return nil }

func (f *fake) SelectBank(cpu.Bank) error { return nil }

func (f *fake) Interrupt(context.Context, cpu.Line, bool) (cpu.Ack, error) {
	return cpu.Ack{}, errcode.NotImplemented
}
