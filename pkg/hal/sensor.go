package hal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const DefaultThermalZone = "/sys/class/thermal/thermal_zone0/temp"

// ThermalSensor reads a Linux thermal zone, which reports millidegrees Celsius.
type ThermalSensor struct {
	Path string
}

func (ts ThermalSensor) ReadSensor() (float64, error) {
	path := ts.Path
	if path == "" {
		path = DefaultThermalZone
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	milli, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("thermal zone %s: %w", path, err)
	}
	// whole degrees, like the board's own temperature()
	return float64(milli / 1000), nil
}

// StaticSensor always reports the same reading.
type StaticSensor float64

func (s StaticSensor) ReadSensor() (float64, error) {
	return float64(s), nil
}
