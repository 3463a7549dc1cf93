package wappsto

import (
	"fmt"
	"strings"
)

// Template is a predefined number value layout.
type Template int

const (
	Temperature Template = iota
	Light
	Compass
	Acceleration
	Rotation
	Magnetic
	Number
	Latitude
	Longitude
	SoundLevel
)

var templates = map[Template]NumberValue{
	Temperature:  {Type: "temperature", Min: -5, Max: 50, Step: 1, Unit: "°C"},
	Light:        {Type: "light level", Min: 0, Max: 255, Step: 1},
	Compass:      {Type: "compass heading", Min: 0, Max: 360, Step: 1, Unit: "°"},
	Acceleration: {Type: "acceleration", Min: -1024, Max: 1024, Step: 1, Unit: "mg"},
	Rotation:     {Type: "rotation", Min: 0, Max: 360, Step: 1, Unit: "°"},
	Magnetic:     {Type: "magnetic force", Min: -40, Max: 40, Step: 0.001, Unit: "µT"},
	Number:       {Type: "number", Min: -1e12, Max: 1e12, Step: 1},
	Latitude:     {Type: "latitude", Min: -90, Max: 90, Step: 0.000001, Unit: "°N"},
	Longitude:    {Type: "longitude", Min: -180, Max: 180, Step: 0.000001, Unit: "°E"},
	SoundLevel:   {Type: "sound level", Min: 0, Max: 255, Step: 1},
}

// Value returns the template layout under the given display name.
func (t Template) Value(name string) (NumberValue, error) {
	nv, ok := templates[t]
	if !ok {
		return NumberValue{}, fmt.Errorf("unknown value template %d", int(t))
	}
	nv.Name = name
	return nv, nil
}

var templateNames = map[string]Template{
	"temperature":  Temperature,
	"light":        Light,
	"compass":      Compass,
	"acceleration": Acceleration,
	"rotation":     Rotation,
	"magnetic":     Magnetic,
	"number":       Number,
	"latitude":     Latitude,
	"longitude":    Longitude,
	"sound":        SoundLevel,
}

// ParseTemplate looks a template up by its flag name, e.g. "light".
func ParseTemplate(name string) (Template, error) {
	t, ok := templateNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown value template %q", name)
	}
	return t, nil
}
