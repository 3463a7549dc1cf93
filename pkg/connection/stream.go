package connection

import (
	"github.com/sudotouchwoman/wappsto-bridge/pkg/common"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/frame"
)

// StreamBus presents a point-to-point stream (e.g. a serial port)
// as a common.Bus. Addresses are ignored. Reads never block: the
// next scanned message is re-framed, or an idle frame is returned.
type StreamBus struct {
	Producer common.DuplexProducer
}

func NewStreamBus(p common.DuplexProducer) *StreamBus {
	return &StreamBus{Producer: p}
}

func (sb *StreamBus) Write(_ uint16, p []byte) error {
	return sb.Producer.Send(p)
}

func (sb *StreamBus) Read(_ uint16, n int) ([]byte, error) {
	select {
	case msg, open := <-sb.Producer.Data():
		if open {
			return frame.Pad(msg, n), nil
		}
		// listener is gone, surface its error if it left one
		if err, ok := <-sb.Producer.Err(); ok && err != nil {
			return nil, err
		}
		return nil, ErrAlreadyClosed
	default:
		return frame.Idle(n), nil
	}
}

func (sb *StreamBus) Close() error {
	return sb.Producer.Close()
}
