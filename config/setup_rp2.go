//go:build rp2040 || rp2350

package config

// Default is the Pico setup: 22 GPIOs to the socket, three MCP23017s on
// i2c0 for the remaining lines, the LCD on the same bus and the console on
// uart0.
func Default() Setup {
	native := []int{2, 3}
	for p := 6; p <= 22; p++ {
		native = append(native, p)
	}
	native = append(native, 26, 27, 28)
	return Setup{
		Native:    native,
		Expanders: []uint8{0x20, 0x21, 0x22},
		Fast:      true,
		I2C:       I2CPlan{ID: "i2c0", SDA: 4, SCL: 5, Hz: 400_000},
		Display:   Display{Enabled: true, Addr: 0x27},
		Console:   Console{UART: 0, TX: 0, RX: 1, Baud: 115200},
		Timing:    Timing{MaxPolls: 1000, IntPolls: 200000},
	}
}
