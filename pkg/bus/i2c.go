// Package bus provides the I2C implementation of common.Bus.
package bus

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// I2C issues one bus transaction per Write/Read.
type I2C struct {
	Bus i2c.Bus
	// closer is set only when the bus was opened by Open
	closer func() error
}

func New(b i2c.Bus) *I2C {
	return &I2C{Bus: b}
}

// Open loads the host drivers and opens the named bus
// ("1" on a Raspberry Pi, "" for the first one registered).
func Open(name string) (*I2C, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return &I2C{Bus: b, closer: b.Close}, nil
}

func (c *I2C) Write(addr uint16, p []byte) error {
	return c.Bus.Tx(addr, p, nil)
}

func (c *I2C) Read(addr uint16, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := c.Bus.Tx(addr, nil, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *I2C) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
