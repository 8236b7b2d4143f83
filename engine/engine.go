// Package engine runs the board checks: ROM checksums, RAM patterns, input
// readings, output toggling and the interrupt acknowledge, against any
// cpu.Driver and a board.Description.
//
// Every check produces exactly one types.Result. Driver errors are reported
// as they are; content mismatches become Custom results carrying an
// errcode.Mismatch. Nothing is retried.
package engine

import (
	"context"
	"hash/crc32"

	"incircuit-go/board"
	"incircuit-go/cpu"
	"incircuit-go/errcode"
	"incircuit-go/report"
	"incircuit-go/types"
	"incircuit-go/x/conv"
)

// Engine owns one driver for the duration of a test run.
type Engine struct {
	drv  cpu.Driver
	desc *board.Description
	rep  *report.Board
	sum  func([]byte) uint32
}

type Option func(*Engine)

// WithReport publishes results and readings to b.
func WithReport(b *report.Board) Option { return func(e *Engine) { e.rep = b } }

// WithChecksum replaces the ROM checksum (CRC-32 IEEE by default).
func WithChecksum(fn func([]byte) uint32) Option { return func(e *Engine) { e.sum = fn } }

// New validates desc and idles the driver.
func New(drv cpu.Driver, desc *board.Description, opts ...Option) (*Engine, error) {
	if drv == nil || desc == nil {
		return nil, errcode.New(errcode.InvalidParams, "engine", "nil driver or description")
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{drv: drv, desc: desc, sum: crc32.ChecksumIEEE}
	for _, o := range opts {
		o(e)
	}
	if err := drv.Idle(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) Driver() cpu.Driver              { return e.drv }
func (e *Engine) Description() *board.Description { return e.desc }

// RunAll runs every check in the fixed order and stops after the first
// failure. Earlier results for the same board are withdrawn first.
func (e *Engine) RunAll(ctx context.Context) []types.Result {
	for _, c := range types.Order {
		e.publish(report.T("check", string(c)), nil)
	}
	checks := map[types.Check]func(context.Context) types.Result{
		types.CheckROM:       e.CheckROM,
		types.CheckRAM:       e.CheckRAM,
		types.CheckInputs:    e.CheckInputs,
		types.CheckOutputs:   e.CheckOutputs,
		types.CheckInterrupt: e.CheckInterrupt,
	}
	out := make([]types.Result, 0, len(types.Order))
	for _, c := range types.Order {
		r := checks[c](ctx)
		out = append(out, r)
		if r.Failed() {
			break
		}
	}
	return out
}

// RunHooks runs the board's hooks for stage in declaration order.
func (e *Engine) RunHooks(ctx context.Context, stage board.Stage) error {
	for _, h := range e.desc.HooksFor(stage) {
		if err := ctx.Err(); err != nil {
			return aborted("hook", err)
		}
		if err := h.Run(ctx, e.drv); err != nil {
			return &errcode.E{C: errcode.Of(err), Op: "hook " + stage.String(), Msg: h.Label.String(), Err: err}
		}
	}
	return nil
}

// Hooks runs the hooks for stage as a standalone check.
func (e *Engine) Hooks(ctx context.Context, stage board.Stage) types.Result {
	if len(e.desc.HooksFor(stage)) == 0 {
		return e.finish(types.CheckHook, errcode.New(errcode.NotImplemented, "hook", "NO HOOKS"), "")
	}
	return e.finish(types.CheckHook, e.RunHooks(ctx, stage), "HOOKS OK")
}

// finish turns err into the check's result and publishes it.
func (e *Engine) finish(c types.Check, err error, okDesc string) types.Result {
	r := types.ResultOf(c, err, okDesc)
	e.publish(report.T("check", string(c)), r)
	return r
}

func (e *Engine) publish(t report.Topic, payload any) {
	if e.rep != nil {
		e.rep.PublishRetained(t, payload)
	}
}

func aborted(op string, err error) error {
	return &errcode.E{C: errcode.Aborted, Op: op, Msg: "ABORTED", Err: err}
}

func notImplemented(op, msg string) error {
	return errcode.New(errcode.NotImplemented, op, msg)
}

// mismatch builds the Custom error of a failed comparison.
func mismatch(op string, l board.Label, desc string, addr, want, got uint32) error {
	return &errcode.E{
		C:   errcode.Custom,
		Op:  op,
		Msg: desc,
		Detail: &errcode.Mismatch{
			Label:    l.String(),
			Address:  addr,
			Expected: want,
			Actual:   got,
		},
	}
}

// addrDigits is the hex width used to print addr.
func addrDigits(addr uint32) int {
	if addr > 0xFFFF {
		return 6
	}
	return 4
}

// labelled is a result description: the label and a short suffix.
func labelled(l board.Label, suffix string) string {
	return l.String() + " " + suffix
}

// addressed describes a failing address. Six-digit addresses leave no room
// for the location, so only the chip name is kept.
func addressed(l board.Label, addr uint32) string {
	if n := addrDigits(addr); n > 4 {
		return l.Name + " " + hex(addr, n)
	}
	return labelled(l, hex(addr, 4))
}

func hex(v uint32, digits int) string { return string(conv.AppendHex(nil, v, digits)) }
