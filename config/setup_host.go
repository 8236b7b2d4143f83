//go:build !rp2040 && !rp2350

package config

// Default is the host setup: the simulated socket maps logical pins
// one-to-one and uses port-level buses.
func Default() Setup {
	return Setup{
		Fast:    true,
		Display: Display{Enabled: true},
		Timing:  Timing{MaxPolls: 1000, IntPolls: 200000},
	}
}
