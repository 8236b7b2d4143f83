//go:build !rp2040 && !rp2350

package app

import (
	"bufio"
	"flag"
	"io"
	"os"

	"golang.org/x/term"

	"incircuit-go/config"
	"incircuit-go/console"
	"incircuit-go/cpu"
	"incircuit-go/display"
	"incircuit-go/errcode"
	"incircuit-go/menu"
	"incircuit-go/sim"
	"incircuit-go/x/bitx"
)

// Faults the host socket can inject into every stock board.
const (
	FaultNone      = "none"
	FaultStuckBit  = "stuck-bit"  // lowest data bit of the first RAM chip reads high
	FaultStuckWait = "stuck-wait" // every bus cycle is held off forever
	FaultNoIRQ     = "no-irq"     // the board never interrupts
)

// Host runs the tester against the simulated stock boards.
type Host struct {
	ConfigPath string
	Board      string
	Fault      string
	Portable   bool

	In  io.Reader
	Out io.Writer

	w     io.Writer // console writer, translating newlines in raw mode
	fd    int
	state *term.State
}

func newPlatform(args []string) (Platform, error) {
	h := &Host{In: os.Stdin, Out: os.Stdout, fd: -1}
	fs := flag.NewFlagSet("incircuit", flag.ContinueOnError)
	fs.StringVar(&h.ConfigPath, "config", "", "JSON setup override")
	fs.StringVar(&h.Board, "board", "", "menu entry selected at start-up")
	fs.StringVar(&h.Fault, "fault", FaultNone, "fault injected into the simulated board: none, stuck-bit, stuck-wait, no-irq")
	fs.BoolVar(&h.Portable, "portable", false, "use per-pin buses instead of port access")
	if err := fs.Parse(args); err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "flags", err)
	}
	switch h.Fault {
	case FaultNone, FaultStuckBit, FaultStuckWait, FaultNoIRQ:
	default:
		return nil, errcode.New(errcode.InvalidParams, "flags", "unknown fault "+h.Fault)
	}
	return h, nil
}

func (h *Host) Setup() (config.Setup, error) {
	var override []byte
	if h.ConfigPath != "" {
		b, err := os.ReadFile(h.ConfigPath)
		if err != nil {
			return config.Setup{}, errcode.Wrap(errcode.InvalidParams, "config", err)
		}
		override = b
	}
	s, err := config.Load(override)
	if err != nil {
		return config.Setup{}, err
	}
	if h.Board != "" {
		s.Board = h.Board
	}
	if h.Portable {
		s.Fast = false
	}
	return s, nil
}

// Console puts an interactive stdin into raw mode and edits lines with
// term.Terminal; anything else is read line by line.
func (h *Host) Console(config.Setup) (console.LineReader, io.Writer, error) {
	if f, ok := h.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		st, err := term.MakeRaw(fd)
		if err != nil {
			return nil, nil, errcode.Wrap(errcode.Unexpected, "console", err)
		}
		h.fd, h.state = fd, st
		t := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{h.In, h.Out}, "> ")
		h.w = t
		return t, t, nil
	}
	h.w = h.Out
	return &lines{s: bufio.NewScanner(h.In)}, h.w, nil
}

// Display mirrors the LCD as text lines on the console output.
func (h *Host) Display(s config.Setup) (display.Display, error) {
	if !s.Display.Enabled {
		return nil, nil
	}
	w := h.w
	if w == nil {
		w = h.Out
	}
	return display.Text{W: w}, nil
}

// Socket puts each selection on a fresh stock board of its family, with the
// board's interrupt running.
func (h *Host) Socket(s config.Setup) (console.Socket, error) {
	fault := h.Fault
	return func(e menu.Entry) (cpu.Wire, error) {
		st, err := sim.NewStock(e.Family)
		if err != nil {
			return cpu.Wire{}, err
		}
		switch fault {
		case FaultStuckBit:
			if len(st.RAM) > 0 {
				st.RAM[0].Stuck1 = bitx.Lowest(st.RAM[0].Mask)
			}
		case FaultStuckWait:
			st.Target.StuckWait = true
		}
		sk, err := sim.New(e.Family, st.Target)
		if err != nil {
			return cpu.Wire{}, err
		}
		if fault != FaultNoIRQ {
			sk.Raise(st.IRQ)
		}
		return sk.Wire(s.Fast), nil
	}, nil
}

func (h *Host) Close() error {
	if h.state != nil {
		err := term.Restore(h.fd, h.state)
		h.state = nil
		return err
	}
	return nil
}

// lines reads a non-interactive console.
type lines struct {
	s *bufio.Scanner
}

func (l *lines) ReadLine() (string, error) {
	if l.s.Scan() {
		return l.s.Text(), nil
	}
	if err := l.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
