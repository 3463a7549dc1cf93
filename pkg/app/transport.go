package app

import (
	"github.com/sudotouchwoman/wappsto-bridge/pkg/common"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/frame"
)

// Transport talks to the peer at Addr through the hardware bus.
type Transport struct {
	HW   common.Hardware
	Addr uint16
}

// Write sends payload followed by the terminator, in a single bus write.
func (t *Transport) Write(payload string) error {
	return t.HW.Write(t.Addr, frame.Encode(payload))
}

// Read fetches one frame and returns the message it carries, if any.
func (t *Transport) Read() (string, bool, error) {
	buf, err := t.HW.Read(t.Addr, frame.Size)
	if err != nil {
		return "", false, err
	}
	msg, ok := frame.Decode(buf)
	if !ok {
		return "", false, nil
	}
	return string(msg), true, nil
}
