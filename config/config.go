// Package config holds the tester setup: how socket pins reach the
// microcontroller, the I²C plan for expanders and the display, the console
// and the poll bounds. Defaults come from the build's setup file; a JSON
// document may override any field.
package config

import (
	"encoding/json"
	"strconv"

	"incircuit-go/cpu"
	"incircuit-go/errcode"
	"incircuit-go/pinbus"
)

// I2CPlan is one I²C controller.
type I2CPlan struct {
	ID  string `json:"id"`
	SDA int    `json:"sda"`
	SCL int    `json:"scl"`
	Hz  uint32 `json:"hz"`
}

type Display struct {
	Enabled bool  `json:"enabled"`
	Addr    uint8 `json:"addr"` // 0 selects the backpack default
}

type Console struct {
	UART int    `json:"uart"`
	TX   int    `json:"tx"`
	RX   int    `json:"rx"`
	Baud uint32 `json:"baud"`
}

type Timing struct {
	MaxPolls int `json:"max_polls"`
	IntPolls int `json:"int_polls"`
}

type Setup struct {
	// Native lists the microcontroller pins available to the socket, in the
	// order logical pins are assigned to them. Logical pins beyond it go to
	// the expanders. Empty means logical pin n is physical pin n.
	Native []int `json:"native"`
	// Sockets overrides the whole map for one family.
	Sockets map[cpu.Family]pinbus.PinMap `json:"sockets"`
	// Expanders are MCP23017 addresses on I2C, chained after the native pins.
	Expanders []uint8 `json:"expanders"`
	Fast      bool    `json:"fast"`

	I2C     I2CPlan `json:"i2c"`
	Display Display `json:"display"`
	Console Console `json:"console"`
	Timing  Timing  `json:"timing"`

	// Board is the menu entry selected at start-up, if any.
	Board string `json:"board"`
}

// DecodeJSON decodes src ([]byte, string or any JSON-marshalable value)
// into dst.
func DecodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}

// Load starts from Default, applies override (nil for none) and validates.
func Load(override []byte) (Setup, error) {
	s := Default()
	if len(override) != 0 {
		if err := DecodeJSON(override, &s); err != nil {
			return Setup{}, errcode.Wrap(errcode.InvalidParams, "config", err)
		}
	}
	if err := s.Validate(); err != nil {
		return Setup{}, err
	}
	return s, nil
}

func invalid(msg string) error { return errcode.New(errcode.InvalidParams, "config", msg) }

// Validate rejects physical pins used twice, expander addresses outside
// the MCP23017 range and zero poll bounds.
func (s Setup) Validate() error {
	if s.Timing.MaxPolls <= 0 || s.Timing.IntPolls <= 0 {
		return invalid("poll bounds must be positive")
	}
	if err := unique("native", s.Native); err != nil {
		return err
	}
	for f, m := range s.Sockets {
		if err := unique(string(f), m); err != nil {
			return err
		}
	}
	seen := map[uint8]bool{}
	for _, a := range s.Expanders {
		if a < 0x20 || a > 0x27 {
			return invalid("expander address 0x" + strconv.FormatUint(uint64(a), 16))
		}
		if seen[a] {
			return invalid("expander address 0x" + strconv.FormatUint(uint64(a), 16) + " twice")
		}
		seen[a] = true
	}
	return nil
}

func unique(what string, pins []int) error {
	seen := map[int]bool{}
	for _, p := range pins {
		if p == pinbus.Unmapped {
			continue
		}
		if seen[p] {
			return errcode.New(errcode.PinInUse, "config", what+": pin "+strconv.Itoa(p)+" used twice")
		}
		seen[p] = true
	}
	return nil
}

// PinMap returns the map for a socket of n logical pins of family f.
func (s Setup) PinMap(f cpu.Family, n int) (pinbus.PinMap, error) {
	if m, ok := s.Sockets[f]; ok {
		if len(m) < n {
			return nil, invalid(string(f) + ": socket map has " + strconv.Itoa(len(m)) + " pins, need " + strconv.Itoa(n))
		}
		return m, nil
	}
	if len(s.Native) == 0 {
		return pinbus.Identity(n), nil
	}
	if n > len(s.Native)+16*len(s.Expanders) {
		return nil, invalid(string(f) + ": not enough pins for " + strconv.Itoa(n))
	}
	m := make(pinbus.PinMap, n)
	for i := range m {
		if i < len(s.Native) {
			m[i] = s.Native[i]
		} else {
			m[i] = pinbus.ExpanderBase + i - len(s.Native)
		}
	}
	return m, nil
}

// CPUTiming converts the poll bounds.
func (s Setup) CPUTiming() cpu.Timing {
	return cpu.Timing{MaxPolls: s.Timing.MaxPolls, IntPolls: s.Timing.IntPolls}
}
