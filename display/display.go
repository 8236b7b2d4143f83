// Package display shows results on a two-line character display.
package display

import (
	"io"
	"strings"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/hd44780i2c"

	"incircuit-go/engine"
	"incircuit-go/report"
	"incircuit-go/types"
	"incircuit-go/x/conv"
)

// Width and Height of the display in characters.
const (
	Width  = types.DescWidth
	Height = 2
)

// Display shows two rows of text. Rows are cut or padded to Width.
type Display interface {
	Show(top, bottom string) error
}

// LCD is an HD44780 module behind a PCF8574 I²C backpack.
type LCD struct {
	dev  hd44780i2c.Device
	rows [Height]string
}

// NewLCD configures the module at addr (0 selects the backpack default).
func NewLCD(bus drivers.I2C, addr uint8) (*LCD, error) {
	l := &LCD{dev: hd44780i2c.New(bus, addr)}
	if err := l.dev.Configure(hd44780i2c.Config{Width: Width, Height: Height}); err != nil {
		return nil, err
	}
	return l, nil
}

// Show rewrites only the rows that changed.
func (l *LCD) Show(top, bottom string) error {
	for y, s := range [Height]string{top, bottom} {
		s = conv.Fixed(s, Width)
		if s == l.rows[y] {
			continue
		}
		l.dev.SetCursor(0, uint8(y))
		l.dev.Print([]byte(s))
		l.rows[y] = s
	}
	return nil
}

// Text prints each screen as one line, for consoles without an LCD.
type Text struct {
	W io.Writer
}

func (t Text) Show(top, bottom string) error {
	_, err := io.WriteString(t.W, "["+conv.Fixed(top, Width)+"|"+conv.Fixed(bottom, Width)+"]\n")
	return err
}

// Multi shows on every display in turn and returns the first error.
type Multi []Display

func (m Multi) Show(top, bottom string) error {
	var first error
	for _, d := range m {
		if err := d.Show(top, bottom); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Result shows r: the check and its code on top, the description below.
func Result(d Display, r types.Result) error {
	return d.Show(strings.ToUpper(string(r.Check))+" "+strings.ToUpper(string(r.Code)), r.Description())
}

// Pump shows every message queued on sub without blocking. Check results
// and input readings are understood; anything else is skipped.
func Pump(d Display, sub *report.Subscription) error {
	for {
		select {
		case m, ok := <-sub.Channel():
			if !ok {
				return nil
			}
			if err := show(d, m); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func show(d Display, m *report.Message) error {
	switch p := m.Payload.(type) {
	case types.Result:
		return Result(d, p)
	case engine.Reading:
		return d.Show("INPUT "+conv.Coalesce(p.Label.Loc, p.Label.Name), p.Label.Name+" "+string(conv.AppendHex(nil, uint32(p.Value), 2)))
	}
	return nil
}
