// Package console is the operator's command loop: pick a menu entry, run
// checks, poke at the bus by hand and review the last results.
package console

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"incircuit-go/board"
	"incircuit-go/cpu"
	"incircuit-go/display"
	"incircuit-go/engine"
	"incircuit-go/errcode"
	"incircuit-go/menu"
	"incircuit-go/report"
	"incircuit-go/types"
	"incircuit-go/x/conv"
)

// LineReader yields one operator line at a time; io.EOF ends the session.
type LineReader interface {
	ReadLine() (string, error)
}

// prompter is a LineReader that draws its own prompt, like term.Terminal.
type prompter interface {
	SetPrompt(string)
}

// Socket returns the wire a freshly selected entry's driver should use.
type Socket func(e menu.Entry) (cpu.Wire, error)

type Config struct {
	In      LineReader
	Out     io.Writer
	Display display.Display // optional
	Report  *report.Board   // optional; created when nil
	Socket  Socket
	Timing  cpu.Timing
}

// Console holds at most one engine, the current selection.
type Console struct {
	cfg  Config
	rep  *report.Board
	sub  *report.Subscription
	o    out
	sel  menu.Entry
	eng  *engine.Engine
	quit bool
}

func New(cfg Config) *Console {
	c := &Console{cfg: cfg, rep: cfg.Report}
	if c.rep == nil {
		c.rep = report.New(16)
	}
	c.o = out{w: cfg.Out}
	if cfg.Display != nil {
		c.sub = c.rep.Subscribe(report.T(report.Rest))
	}
	return c
}

// out writes operator lines to the console writer.
type out struct {
	w io.Writer
}

func (o out) println(a ...any) {
	if o.w != nil {
		_, _ = fmt.Fprintln(o.w, a...)
	}
}

func (o out) printf(format string, a ...any) {
	if o.w != nil {
		_, _ = fmt.Fprintf(o.w, format, a...)
	}
}

// Run reads and executes lines until quit, EOF or ctx ends.
func (c *Console) Run(ctx context.Context) error {
	c.o.println("incircuit tester; type help")
	c.show("INCIRCUIT", "SELECT A BOARD")
	for !c.quit {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p, ok := c.cfg.In.(prompter); ok {
			p.SetPrompt(c.prompt() + "> ")
		} else {
			c.o.printf("%s> ", c.prompt())
		}
		line, err := c.cfg.In.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := c.Exec(ctx, line); err != nil {
			c.o.println("error:", err)
		}
	}
	return nil
}

func (c *Console) prompt() string {
	if c.eng == nil {
		return "menu"
	}
	return strings.ToLower(c.sel.Name)
}

// Done reports whether the operator has quit.
func (c *Console) Done() bool { return c.quit }

// Exec runs one command line.
func (c *Console) Exec(ctx context.Context, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return errcode.Wrap(errcode.InvalidParams, "parse", err)
	}
	if len(args) == 0 {
		return nil
	}
	cmd, ok := commands[strings.ToLower(args[0])]
	if !ok {
		return errcode.New(errcode.InvalidParams, "console", "unknown command "+args[0])
	}
	if cmd.needsBoard && c.eng == nil {
		return errcode.New(errcode.Unexpected, "console", "no board selected")
	}
	if len(args)-1 < cmd.min {
		return errcode.New(errcode.InvalidParams, "console", "usage: "+cmd.usage)
	}
	err = cmd.run(c, ctx, args[1:])
	c.pump()
	return err
}

type command struct {
	usage      string
	min        int
	needsBoard bool
	run        func(c *Console, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":   {usage: "help", run: (*Console).help},
		"list":   {usage: "list", run: (*Console).list},
		"select": {usage: "select NAME", min: 1, run: (*Console).selectEntry},
		"back":   {usage: "back", run: (*Console).back},
		"quit":   {usage: "quit", run: (*Console).exit},
		"status": {usage: "status", run: (*Console).status},
		"run":    {usage: "run", needsBoard: true, run: check(nil)},
		"rom":    {usage: "rom", needsBoard: true, run: check((*engine.Engine).CheckROM)},
		"ram":    {usage: "ram", needsBoard: true, run: check((*engine.Engine).CheckRAM)},
		"in":     {usage: "in", needsBoard: true, run: check((*engine.Engine).CheckInputs)},
		"out":    {usage: "out", needsBoard: true, run: check((*engine.Engine).CheckOutputs)},
		"int":    {usage: "int", needsBoard: true, run: check((*engine.Engine).CheckInterrupt)},
		"hook":   {usage: "hook [STAGE]", needsBoard: true, run: (*Console).hook},
		"peek":   {usage: "peek ADDR [COUNT]", min: 1, needsBoard: true, run: (*Console).peek},
		"poke":   {usage: "poke ADDR VALUE...", min: 2, needsBoard: true, run: (*Console).poke},
		"inp":    {usage: "inp PORT", min: 1, needsBoard: true, run: (*Console).inp},
		"outp":   {usage: "outp PORT VALUE", min: 2, needsBoard: true, run: (*Console).outp},
		"bank":   {usage: "bank N", min: 1, needsBoard: true, run: (*Console).bank},
		"idle":   {usage: "idle", needsBoard: true, run: (*Console).idle},
		"clock":  {usage: "clock [N]", needsBoard: true, run: (*Console).clock},
	}
}

func (c *Console) help(context.Context, []string) error {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		c.o.println(" ", commands[n].usage)
	}
	return nil
}

func (c *Console) list(context.Context, []string) error {
	for i, e := range menu.Entries() {
		c.o.printf("%2d %-15s %-7s %s\n", i+1, e.Name, e.Tag, e.Family)
	}
	return nil
}

// selectEntry accepts a name (quoted when it has spaces) or a list number.
func (c *Console) selectEntry(_ context.Context, args []string) error {
	name := strings.ToUpper(strings.Join(args, " "))
	if n, err := strconv.Atoi(name); err == nil {
		es := menu.Entries()
		if n < 1 || n > len(es) {
			return errcode.New(errcode.UnknownBoard, "select", name)
		}
		name = es[n-1].Name
	}
	e, ok := menu.Lookup(name)
	if !ok {
		return errcode.New(errcode.UnknownBoard, "select", name)
	}
	w, err := c.cfg.Socket(e)
	if err != nil {
		return err
	}
	_, desc, drv, err := menu.Build(name, w, c.cfg.Timing)
	if err != nil {
		return err
	}
	eng, err := engine.New(drv, desc, engine.WithReport(c.rep))
	if err != nil {
		return err
	}
	c.rep.Reset()
	c.sel, c.eng = e, eng
	c.o.printf("selected %s (%s): %d rom, %d ram, %d in, %d out\n",
		e.Name, e.Family, len(desc.ROM), len(desc.RAM), len(desc.Inputs), len(desc.Outputs))
	c.show(e.Name, string(e.Family)+" READY")
	return nil
}

func (c *Console) back(context.Context, []string) error {
	if c.eng != nil {
		_ = c.eng.Driver().Idle()
	}
	c.sel, c.eng = menu.Entry{}, nil
	c.show("INCIRCUIT", "SELECT A BOARD")
	return nil
}

func (c *Console) exit(ctx context.Context, args []string) error {
	_ = c.back(ctx, args)
	c.quit = true
	return nil
}

// check wraps one engine check; nil runs them all.
func check(fn func(*engine.Engine, context.Context) types.Result) func(*Console, context.Context, []string) error {
	return func(c *Console, ctx context.Context, _ []string) error {
		if fn == nil {
			for _, r := range c.eng.RunAll(ctx) {
				c.printResult(r)
			}
			return nil
		}
		c.printResult(fn(c.eng, ctx))
		return nil
	}
}

func (c *Console) printResult(r types.Result) {
	c.o.printf("%-9s %-15s %d %s\n", r.Check, r.Code, r.Number(), r.Description())
	if d := r.Detail; d != nil {
		c.o.printf("          %s at %s: expected %s, read %s\n", d.Label,
			hex(d.Address, 6), hex(d.Expected, 2), hex(d.Actual, 2))
	}
}

func (c *Console) hook(ctx context.Context, args []string) error {
	stage := board.Manual
	if len(args) > 0 {
		s, ok := parseStage(args[0])
		if !ok {
			return errcode.New(errcode.InvalidParams, "hook", "unknown stage "+args[0])
		}
		stage = s
	}
	c.printResult(c.eng.Hooks(ctx, stage))
	return nil
}

func parseStage(s string) (board.Stage, bool) {
	for st := board.BeforeROM; st <= board.Manual; st++ {
		if st.String() == strings.ToLower(s) {
			return st, true
		}
	}
	return 0, false
}

func (c *Console) status(context.Context, []string) error {
	if c.eng != nil {
		c.o.println("board:", c.sel.Name)
	}
	msgs := c.rep.Retained(report.T(report.Rest))
	if len(msgs) == 0 {
		c.o.println("no results")
	}
	for _, m := range msgs {
		switch p := m.Payload.(type) {
		case types.Result:
			c.printResult(p)
		case engine.Reading:
			c.o.printf("%-9s %-15s   %s\n", "input", p.Label, hex(uint32(p.Value), 2))
		case cpu.Ack:
			c.o.printf("%-9s %-15s   vector %s auto=%v\n", "ack", p.Line, hex(p.Vector, 4), p.Auto)
		}
	}
	return nil
}

func (c *Console) peek(ctx context.Context, args []string) error {
	addr, err := parseNum(args[0])
	if err != nil {
		return err
	}
	n := uint32(16)
	if len(args) > 1 {
		if n, err = parseNum(args[1]); err != nil {
			return err
		}
	}
	drv := c.eng.Driver()
	line := make([]byte, 0, 64)
	for i := uint32(0); i < n; i++ {
		if err := interrupted(ctx, "peek", i); err != nil {
			if len(line) > 0 {
				c.o.println(string(line))
			}
			return err
		}
		if i%16 == 0 {
			if len(line) > 0 {
				c.o.println(string(line))
			}
			line = append(conv.AppendHex(line[:0], addr+i, 6), ':')
		}
		v, err := drv.Read(addr + i)
		if err != nil {
			c.o.println(string(line))
			return err
		}
		line = conv.AppendHex(append(line, ' '), uint32(v), 2)
	}
	c.o.println(string(line))
	return nil
}

func (c *Console) poke(_ context.Context, args []string) error {
	addr, err := parseNum(args[0])
	if err != nil {
		return err
	}
	for i, a := range args[1:] {
		v, err := parseByte(a)
		if err != nil {
			return err
		}
		if err := c.eng.Driver().Write(addr+uint32(i), v); err != nil {
			return err
		}
	}
	return nil
}

func (c *Console) inp(_ context.Context, args []string) error {
	port, err := parseNum(args[0])
	if err != nil {
		return err
	}
	v, err := cpu.ReadSpace(c.eng.Driver(), cpu.IO, port)
	if err != nil {
		return err
	}
	c.o.println(hex(port, 2)+":", hex(uint32(v), 2))
	return nil
}

func (c *Console) outp(_ context.Context, args []string) error {
	port, err := parseNum(args[0])
	if err != nil {
		return err
	}
	v, err := parseByte(args[1])
	if err != nil {
		return err
	}
	return cpu.WriteSpace(c.eng.Driver(), cpu.IO, port, v)
}

func (c *Console) bank(_ context.Context, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errcode.Wrap(errcode.InvalidParams, "bank", err)
	}
	return c.eng.Driver().SelectBank(cpu.Bank(n))
}

func (c *Console) idle(context.Context, []string) error { return c.eng.Driver().Idle() }

func (c *Console) clock(ctx context.Context, args []string) error {
	n := uint32(1)
	if len(args) > 0 {
		var err error
		if n, err = parseNum(args[0]); err != nil {
			return err
		}
	}
	for i := uint32(0); i < n; i++ {
		if err := interrupted(ctx, "clock", i); err != nil {
			return err
		}
		c.eng.Driver().ClockPulse()
	}
	return nil
}

// interrupted checks ctx every 256 steps of a loop the operator sized.
func interrupted(ctx context.Context, op string, i uint32) error {
	if i&0xFF != 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &errcode.E{C: errcode.Aborted, Op: op, Msg: "ABORTED", Err: err}
	}
	return nil
}

// show writes to the display, if any.
func (c *Console) show(top, bottom string) {
	if c.cfg.Display != nil {
		_ = c.cfg.Display.Show(top, bottom)
	}
}

// pump mirrors new report messages on the display.
func (c *Console) pump() {
	if c.sub != nil {
		_ = display.Pump(c.cfg.Display, c.sub)
	}
}

// parseNum accepts decimal, 0x-prefixed or $-prefixed hex.
func parseNum(s string) (uint32, error) {
	if strings.HasPrefix(s, "$") {
		s = "0x" + s[1:]
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errcode.Wrap(errcode.InvalidParams, "number", err)
	}
	return uint32(v), nil
}

func parseByte(s string) (byte, error) {
	v, err := parseNum(s)
	if err != nil {
		return 0, err
	}
	if v > 0xFF {
		return 0, errcode.New(errcode.InvalidParams, "number", s+" is not a byte")
	}
	return byte(v), nil
}

func hex(v uint32, digits int) string { return string(conv.AppendHex(nil, v, digits)) }
