package errcode

// Code is a stable, operator-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	NotImplemented Code = "not_implemented"
	Unexpected     Code = "unexpected"
	Timeout        Code = "timeout"
	Custom         Code = "custom"
	Aborted        Code = "aborted"

	InvalidParams Code = "invalid_params"
	UnknownPin    Code = "unknown_pin"
	PinInUse      Code = "pin_in_use"
	UnknownBoard  Code = "unknown_board"
	Unsupported   Code = "unsupported"
)

// Wire numbers reserved per result kind. Codes that are not result kinds
// travel as Unexpected.
const (
	NumOK             uint8 = 0
	NumNotImplemented uint8 = 1
	NumUnexpected     uint8 = 2
	NumTimeout        uint8 = 3
	NumCustom         uint8 = 4
	NumAborted        uint8 = 5
)

// Number returns the reserved wire number for c.
func (c Code) Number() uint8 {
	switch c {
	case OK:
		return NumOK
	case NotImplemented, Unsupported:
		return NumNotImplemented
	case Timeout:
		return NumTimeout
	case Custom:
		return NumCustom
	case Aborted:
		return NumAborted
	default:
		return NumUnexpected
	}
}

// Mismatch is the diagnostic detail of a Custom error.
type Mismatch struct {
	Label    string
	Address  uint32
	Expected uint32
	Actual   uint32
}

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C      Code
	Op     string
	Msg    string
	Err    error
	Detail *Mismatch
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// New builds an *E for op.
func New(c Code, op, msg string) *E { return &E{C: c, Op: op, Msg: msg} }

// Wrap attaches c and op to a cause. A nil cause yields nil.
func Wrap(c Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Unexpected.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Unexpected
}

// DetailOf returns the Mismatch carried by err, if any.
func DetailOf(err error) *Mismatch {
	if e, ok := err.(*E); ok {
		return e.Detail
	}
	return nil
}
