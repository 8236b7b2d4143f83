package app

import (
	"context"
)

// SerialPort is the part of a UART the console needs.
type SerialPort interface {
	Write(p []byte) (int, error)
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

// maxLine bounds one console line; extra bytes are dropped.
const maxLine = 128

// Serial is an operator console on a raw serial port: it echoes typed
// bytes, handles backspace and ends lines on CR or LF. Writes turn LF into
// CR LF.
type Serial struct {
	Ctx  context.Context
	Port SerialPort

	prompt string
	line   []byte
	buf    [32]byte
	rest   []byte
	lastCR bool
}

func NewSerial(ctx context.Context, p SerialPort) *Serial {
	return &Serial{Ctx: ctx, Port: p, line: make([]byte, 0, maxLine)}
}

func (s *Serial) SetPrompt(p string) { s.prompt = p }

// ReadLine blocks until a full line arrives or Ctx ends.
func (s *Serial) ReadLine() (string, error) {
	if s.prompt != "" {
		if _, err := s.Write([]byte(s.prompt)); err != nil {
			return "", err
		}
	}
	s.line = s.line[:0]
	for {
		if len(s.rest) == 0 {
			n, err := s.Port.RecvSomeContext(s.Ctx, s.buf[:])
			if err != nil {
				return "", err
			}
			s.rest = s.buf[:n]
			continue
		}
		b := s.rest[0]
		s.rest = s.rest[1:]
		cr := s.lastCR
		s.lastCR = b == '\r'
		switch b {
		case '\n':
			if cr {
				// second half of CR LF
				continue
			}
			fallthrough
		case '\r':
			_, _ = s.Port.Write([]byte("\r\n"))
			return string(s.line), nil
		case 0x08, 0x7F:
			if len(s.line) > 0 {
				s.line = s.line[:len(s.line)-1]
				_, _ = s.Port.Write([]byte("\b \b"))
			}
		default:
			if b >= ' ' && len(s.line) < maxLine {
				s.line = append(s.line, b)
				_, _ = s.Port.Write([]byte{b})
			}
		}
	}
}

func (s *Serial) Write(p []byte) (int, error) {
	start := 0
	for i, b := range p {
		if b != '\n' {
			continue
		}
		if _, err := s.Port.Write(p[start:i]); err != nil {
			return start, err
		}
		if _, err := s.Port.Write([]byte("\r\n")); err != nil {
			return i, err
		}
		start = i + 1
	}
	if start < len(p) {
		if _, err := s.Port.Write(p[start:]); err != nil {
			return start, err
		}
	}
	return len(p), nil
}
