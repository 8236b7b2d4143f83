// Package app wires a build's platform to the console: load the setup, open
// the operator console and display, and hand each selected entry a wire.
package app

import (
	"context"
	"io"
	"os"

	"incircuit-go/config"
	"incircuit-go/console"
	"incircuit-go/display"
)

// Platform is what a build provides.
type Platform interface {
	// Setup returns the validated tester setup.
	Setup() (config.Setup, error)
	// Console opens the operator line reader and writer.
	Console(s config.Setup) (console.LineReader, io.Writer, error)
	// Display returns the result display, or nil when there is none.
	Display(s config.Setup) (display.Display, error)
	// Socket returns how each selected entry reaches the socket.
	Socket(s config.Setup) (console.Socket, error)
	Close() error
}

// Main runs the build's platform and exits non-zero on failure.
func Main() {
	p, err := newPlatform(os.Args[1:])
	if err == nil {
		err = Run(context.Background(), p)
	}
	if err != nil {
		println("fatal:", err.Error())
		os.Exit(1)
	}
}

// Run drives p until the operator quits or ctx ends.
func Run(ctx context.Context, p Platform) error {
	defer p.Close()

	s, err := p.Setup()
	if err != nil {
		return err
	}
	in, out, err := p.Console(s)
	if err != nil {
		return err
	}
	d, err := p.Display(s)
	if err != nil {
		// the console still works without a display
		_, _ = io.WriteString(out, "display: "+err.Error()+"\n")
		d = nil
	}
	sock, err := p.Socket(s)
	if err != nil {
		return err
	}
	c := console.New(console.Config{
		In:      in,
		Out:     out,
		Display: d,
		Socket:  sock,
		Timing:  s.CPUTiming(),
	})
	if s.Board != "" {
		if err := c.Exec(ctx, "select "+quote(s.Board)); err != nil {
			_, _ = io.WriteString(out, "select "+s.Board+": "+err.Error()+"\n")
		}
	}
	return c.Run(ctx)
}

func quote(s string) string { return "'" + s + "'" }
