// Package hal assembles the hardware capability set used by the
// application loop out of a bus, a display, a sensor and a clock.
package hal

import (
	"context"
	"time"

	"github.com/sudotouchwoman/wappsto-bridge/pkg/common"
)

// Board implements common.Hardware by delegation.
type Board struct {
	Bus     common.Bus
	Screen  common.Display
	Sensor  common.Sensor
	Sleeper common.Sleeper
}

func (b *Board) Write(addr uint16, p []byte) error {
	return b.Bus.Write(addr, p)
}

func (b *Board) Read(addr uint16, n int) ([]byte, error) {
	return b.Bus.Read(addr, n)
}

func (b *Board) Display(text string) error {
	return b.Screen.Scroll(text)
}

func (b *Board) ReadSensor() (float64, error) {
	return b.Sensor.ReadSensor()
}

func (b *Board) Sleep(ctx context.Context, d time.Duration) {
	if b.Sleeper != nil {
		b.Sleeper(ctx, d)
		return
	}
	Sleep(ctx, d)
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
