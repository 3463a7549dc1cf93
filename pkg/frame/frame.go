// Package frame implements the null terminated framing spoken
// by the Wappsto:bit peer on the bus.
package frame

const (
	PeerAddress uint16 = 0x11
	// Size of a single read transaction.
	Size = 200
	// NoData fills the peer's buffer when nothing is queued.
	NoData byte = 0xFF
	// Terminator ends every message in both directions.
	Terminator byte = 0x00
)

// Encode appends a single terminator to the payload.
func Encode(payload string) []byte {
	b := make([]byte, 0, len(payload)+1)
	b = append(b, payload...)
	return append(b, Terminator)
}

// Decode extracts the message carried by a frame read from the peer.
// Scanning starts at index 1: a NoData byte means nothing is ready,
// a Terminator right after a non-zero byte closes the message.
// A frame without either yields no message as well.
func Decode(frame []byte) ([]byte, bool) {
	for i := 1; i < len(frame); i++ {
		if frame[i] == NoData {
			return nil, false
		}
		if frame[i] == Terminator && frame[i-1] != Terminator {
			msg := make([]byte, i)
			copy(msg, frame[:i])
			return msg, true
		}
	}
	return nil, false
}

// Idle is what an idle peer answers to an n byte read.
func Idle(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = NoData
	}
	return b
}

// Pad re-frames a message into an n byte frame the way the peer
// would have sent it: message, terminator, NoData filler.
// Messages that do not fit are truncated to leave room for the terminator.
func Pad(msg []byte, n int) []byte {
	b := Idle(n)
	if n == 0 {
		return b
	}
	if len(msg) > n-1 {
		msg = msg[:n-1]
	}
	copy(b, msg)
	b[len(msg)] = Terminator
	return b
}

// ScanMessages is a bufio.SplitFunc for stream transports carrying
// the same framing. Filler and stray terminators between messages
// are skipped, a NoData byte in the middle of a message drops it.
func ScanMessages(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && (data[start] == NoData || data[start] == Terminator) {
		start++
	}
	for i := start; i < len(data); i++ {
		switch data[i] {
		case Terminator:
			return i + 1, data[start:i], nil
		case NoData:
			return i + 1, nil, nil
		}
	}
	if atEOF {
		// unterminated tail, nothing to deliver
		return len(data), nil, nil
	}
	return start, nil, nil
}
