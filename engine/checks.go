package engine

import (
	"context"

	"incircuit-go/board"
	"incircuit-go/cpu"
	"incircuit-go/errcode"
	"incircuit-go/report"
	"incircuit-go/types"
	"incircuit-go/x/bitx"
)

// CheckROM reads every ROM region in declaration order and compares it
// with its expected content or checksum. All regions are read; the first
// failing one is reported.
func (e *Engine) CheckROM(ctx context.Context) types.Result {
	return e.finish(types.CheckROM, e.checkROM(ctx), "ROM OK")
}

func (e *Engine) checkROM(ctx context.Context) error {
	if err := e.RunHooks(ctx, board.BeforeROM); err != nil {
		return err
	}
	if len(e.desc.ROM) == 0 {
		return notImplemented("rom", "NO ROM")
	}
	var first error
	for i := range e.desc.ROM {
		if err := ctx.Err(); err != nil {
			return aborted("rom", err)
		}
		err := e.verifyROM(&e.desc.ROM[i])
		if err == nil {
			continue
		}
		if errcode.Of(err) != errcode.Custom {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}

func (e *Engine) verifyROM(r *board.ROMRegion) error {
	if err := e.drv.SelectBank(r.Bank); err != nil {
		return err
	}
	buf := make([]byte, r.Length)
	for i := range buf {
		v, err := e.drv.Read(r.Start + uint32(i))
		if err != nil {
			return err
		}
		buf[i] = v
	}
	if r.Data != nil {
		for i, want := range r.Data {
			if buf[i] != want {
				addr := r.Start + uint32(i)
				return mismatch("rom", r.Label, addressed(r.Label, addr), addr, uint32(want), uint32(buf[i]))
			}
		}
		return nil
	}
	if got := e.sum(buf); got != r.CRC {
		return mismatch("rom", r.Label, labelled(r.Label, "BAD"), r.Start, r.CRC, got)
	}
	return nil
}

// Patterns returns the RAM test sequence for mask: all clear, all set, a
// walking one and a walking zero, every value restricted to mask.
func Patterns(mask uint8) []uint8 {
	p := []uint8{0x00, mask}
	p = append(p, bitx.WalkOnes(mask)...)
	return append(p, bitx.WalkZeros(mask)...)
}

// CheckRAM writes every pattern to every address of each RAM region and
// reads it back. Bits outside the region's mask are read and written back
// unchanged so chips sharing the address are not disturbed. Each byte's
// original content is restored afterwards.
func (e *Engine) CheckRAM(ctx context.Context) types.Result {
	return e.finish(types.CheckRAM, e.checkRAM(ctx), "RAM OK")
}

func (e *Engine) checkRAM(ctx context.Context) error {
	if err := e.RunHooks(ctx, board.BeforeRAM); err != nil {
		return err
	}
	if len(e.desc.RAM) == 0 {
		return notImplemented("ram", "NO RAM")
	}
	for i := range e.desc.RAM {
		if err := ctx.Err(); err != nil {
			return aborted("ram", err)
		}
		if err := e.verifyRAM(&e.desc.RAM[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) verifyRAM(r *board.RAMRegion) error {
	if err := e.drv.SelectBank(r.Bank); err != nil {
		return err
	}
	pats := Patterns(r.Mask)
	for addr := r.Start; ; addr++ {
		orig, err := e.drv.Read(addr)
		if err != nil {
			return err
		}
		cur := orig
		for _, p := range pats {
			cur = cur&^r.Mask | p
			if err := e.drv.Write(addr, cur); err != nil {
				return err
			}
			got, err := e.drv.Read(addr)
			if err != nil {
				return err
			}
			if got&r.Mask != p {
				return mismatch("ram", r.Label, addressed(r.Label, addr), addr, uint32(p), uint32(got&r.Mask))
			}
			cur = got
		}
		if err := e.drv.Write(addr, cur&^r.Mask|orig&r.Mask); err != nil {
			return err
		}
		if addr == r.End {
			return nil
		}
	}
}

// Reading is one input sample as published on the report board.
type Reading struct {
	Label   board.Label
	Address uint32
	Value   uint8
}

// CheckInputs samples every input region and publishes each masked value
// under input/<name>. The result shows the first reading; judging the
// values is up to the operator.
func (e *Engine) CheckInputs(ctx context.Context) types.Result {
	desc, err := e.checkInputs(ctx)
	return e.finish(types.CheckInputs, err, desc)
}

func (e *Engine) checkInputs(ctx context.Context) (string, error) {
	if err := e.RunHooks(ctx, board.BeforeInputs); err != nil {
		return "", err
	}
	if len(e.desc.Inputs) == 0 {
		return "", notImplemented("inputs", "NO INPUTS")
	}
	var first string
	for i, in := range e.desc.Inputs {
		if err := ctx.Err(); err != nil {
			return "", aborted("inputs", err)
		}
		v, err := e.ReadInput(in)
		if err != nil {
			return "", err
		}
		if i == 0 {
			first = labelled(in.Label, hex(uint32(v), 2))
		}
	}
	return first, nil
}

// ReadInput samples one input region and publishes the reading.
func (e *Engine) ReadInput(in board.InputRegion) (uint8, error) {
	if err := e.drv.SelectBank(in.Bank); err != nil {
		return 0, err
	}
	v, err := cpu.ReadSpace(e.drv, in.Space, in.Address)
	if err != nil {
		return 0, err
	}
	v &= in.Mask
	e.publish(report.T("input", in.Label.Name), Reading{Label: in.Label, Address: in.Address, Value: v})
	return v, nil
}

// CheckOutputs drives each output region to its default, to the default
// with every masked bit inverted, and back to the default. Only bus errors
// fail.
func (e *Engine) CheckOutputs(ctx context.Context) types.Result {
	return e.finish(types.CheckOutputs, e.checkOutputs(ctx), "OUTPUTS OK")
}

func (e *Engine) checkOutputs(ctx context.Context) error {
	if err := e.RunHooks(ctx, board.BeforeOutputs); err != nil {
		return err
	}
	if len(e.desc.Outputs) == 0 {
		return notImplemented("outputs", "NO OUTPUTS")
	}
	for _, o := range e.desc.Outputs {
		if err := ctx.Err(); err != nil {
			return aborted("outputs", err)
		}
		if err := e.drv.SelectBank(o.Bank); err != nil {
			return err
		}
		def := o.Default & o.Mask
		for _, v := range []uint8{def, def ^ o.Mask, def} {
			if err := cpu.WriteSpace(e.drv, o.Space, o.Address, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckInterrupt waits for the board's interrupt and checks how it was
// acknowledged against the description.
func (e *Engine) CheckInterrupt(ctx context.Context) types.Result {
	desc, err := e.checkInterrupt(ctx)
	return e.finish(types.CheckInterrupt, err, desc)
}

func (e *Engine) checkInterrupt(ctx context.Context) (string, error) {
	if err := e.RunHooks(ctx, board.BeforeInterrupt); err != nil {
		return "", err
	}
	want := e.desc.Interrupt
	if want.Line == cpu.LineNone {
		return "", notImplemented("interrupt", "NO INTERRUPT")
	}
	if err := ctx.Err(); err != nil {
		return "", aborted("interrupt", err)
	}
	ack, err := e.drv.Interrupt(ctx, want.Line, want.Auto)
	if err != nil {
		return "", err
	}
	e.publish(report.T("interrupt", want.Line.String()), ack)
	l := board.Label{Name: want.Line.String()}
	if ack.Auto != want.Auto {
		return "", mismatch("interrupt", l, want.Line.String()+" MODE", 0, b2u(want.Auto), b2u(ack.Auto))
	}
	digits := 2
	if ack.Vector > 0xFF {
		digits = 4
	}
	if want.Vector != 0 && ack.Vector != want.Vector {
		return "", mismatch("interrupt", l, want.Line.String()+" VEC "+hex(ack.Vector, digits), 0, want.Vector, ack.Vector)
	}
	return want.Line.String() + " OK " + hex(ack.Vector, digits), nil
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
