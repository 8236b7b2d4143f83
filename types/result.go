package types

import (
	"incircuit-go/errcode"
	"incircuit-go/x/conv"
)

// DescWidth is the fixed width of a result description; it matches one row
// of a 16x2 character display.
const DescWidth = 16

// Check names one engine check.
type Check string

const (
	CheckROM       Check = "rom"
	CheckRAM       Check = "ram"
	CheckInputs    Check = "inputs"
	CheckOutputs   Check = "outputs"
	CheckInterrupt Check = "interrupt"
	CheckHook      Check = "hook"
)

// Order is the fixed execution order of a full run.
var Order = []Check{CheckROM, CheckRAM, CheckInputs, CheckOutputs, CheckInterrupt}

// Result is the outcome of one check. It is built once and never mutated.
type Result struct {
	Check  Check
	Code   errcode.Code
	Desc   [DescWidth]byte
	Detail *errcode.Mismatch // set for Custom mismatches
}

// NewResult builds a result; desc is truncated or space-padded to DescWidth.
func NewResult(check Check, code errcode.Code, desc string) Result {
	r := Result{Check: check, Code: code}
	conv.AppendFixed(r.Desc[:0], desc, DescWidth)
	return r
}

// ResultOf maps err to a result. A nil error yields OK with okDesc.
func ResultOf(check Check, err error, okDesc string) Result {
	if err == nil {
		return NewResult(check, errcode.OK, okDesc)
	}
	code := errcode.Of(err)
	desc := string(code)
	if e, ok := err.(*errcode.E); ok && e.Msg != "" {
		desc = e.Msg
	}
	r := NewResult(check, code, desc)
	r.Detail = errcode.DetailOf(err)
	return r
}

// Number is the reserved wire number of the result kind.
func (r Result) Number() uint8 { return r.Code.Number() }

// Description returns the fixed-width description.
func (r Result) Description() string { return string(r.Desc[:]) }

// OK reports success.
func (r Result) OK() bool { return r.Code == errcode.OK }

// Failed reports a result that should stop a full run. NotImplemented is not
// a failure.
func (r Result) Failed() bool {
	return r.Code != errcode.OK && r.Code != errcode.NotImplemented
}

// Wire encodes the result as its code byte followed by the description.
func (r Result) Wire() [1 + DescWidth]byte {
	var b [1 + DescWidth]byte
	b[0] = r.Number()
	copy(b[1:], r.Desc[:])
	return b
}
