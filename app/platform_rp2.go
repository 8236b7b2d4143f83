//go:build rp2040 || rp2350

package app

import (
	"context"
	"io"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"incircuit-go/config"
	"incircuit-go/console"
	"incircuit-go/cpu"
	"incircuit-go/display"
	"incircuit-go/errcode"
	"incircuit-go/menu"
	"incircuit-go/pinbus"
)

// Pico is the tester hardware: socket on GPIOs and MCP23017s, LCD on I²C,
// operator console on a UART.
type Pico struct {
	i2c   *machine.I2C
	space pinbus.Space
}

func newPlatform([]string) (Platform, error) {
	// Allow the serial adapter to settle before we print.
	time.Sleep(2 * time.Second)
	println("boot")
	return &Pico{}, nil
}

func (p *Pico) Setup() (config.Setup, error) { return config.Load(nil) }

func (p *Pico) Console(s config.Setup) (console.LineReader, io.Writer, error) {
	var hw *uartx.UART
	switch s.Console.UART {
	case 0:
		hw = uartx.UART0
	case 1:
		hw = uartx.UART1
	default:
		return nil, nil, errcode.New(errcode.InvalidParams, "console", "no such uart")
	}
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: s.Console.Baud,
		TX:       machine.Pin(s.Console.TX),
		RX:       machine.Pin(s.Console.RX),
	}); err != nil {
		return nil, nil, errcode.Wrap(errcode.Unexpected, "console", err)
	}
	sr := NewSerial(context.Background(), hw)
	return sr, sr, nil
}

// bus configures the I²C controller once; expanders and the LCD share it.
func (p *Pico) bus(s config.Setup) (*machine.I2C, error) {
	if p.i2c != nil {
		return p.i2c, nil
	}
	var hw *machine.I2C
	switch s.I2C.ID {
	case "i2c0":
		hw = machine.I2C0
	case "i2c1":
		hw = machine.I2C1
	default:
		return nil, errcode.New(errcode.InvalidParams, "i2c", "no such controller "+s.I2C.ID)
	}
	sda := machine.Pin(s.I2C.SDA)
	scl := machine.Pin(s.I2C.SCL)
	sda.Configure(machine.PinConfig{Mode: machine.PinI2C})
	scl.Configure(machine.PinConfig{Mode: machine.PinI2C})
	if err := hw.Configure(machine.I2CConfig{SCL: scl, SDA: sda, Frequency: s.I2C.Hz}); err != nil {
		return nil, errcode.Wrap(errcode.Unexpected, "i2c", err)
	}
	p.i2c = hw
	return hw, nil
}

func (p *Pico) Display(s config.Setup) (display.Display, error) {
	if !s.Display.Enabled {
		return nil, nil
	}
	b, err := p.bus(s)
	if err != nil {
		return nil, err
	}
	l, err := display.NewLCD(b, s.Display.Addr)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Socket builds the composite pin space once; every selection gets the
// family's map over it.
func (p *Pico) Socket(s config.Setup) (console.Socket, error) {
	comp := &pinbus.Composite{Native: pinbus.NativeSpace()}
	if len(s.Expanders) > 0 {
		b, err := p.bus(s)
		if err != nil {
			return nil, err
		}
		for _, a := range s.Expanders {
			x, err := pinbus.NewExpanderPort(b, a)
			if err != nil {
				return nil, err
			}
			comp.Expanders = append(comp.Expanders, x)
		}
	}
	p.space = comp.Space()
	return func(e menu.Entry) (cpu.Wire, error) {
		m, err := s.PinMap(e.Family, menu.PinCount(e.Family))
		if err != nil {
			return cpu.Wire{}, err
		}
		return cpu.Wire{Space: p.space, Map: m, Fast: s.Fast}, nil
	}, nil
}

func (p *Pico) Close() error { return nil }
