package wappsto

import (
	"strconv"
	"sync"
)

// Keys of the info fields the peer reports about itself.
const (
	KeyConnected = "connected"
	KeySignal    = "signal"
	KeyQueueFull = "queue_full"
	KeyLatitude  = "latitude"
	KeyLongitude = "longitude"
	KeyTime      = "time"
	KeyUptime    = "uptime"
)

// Info is the last known state of the peer. Optional readings
// stay nil until the peer reports them.
type Info struct {
	Connected bool     `json:"connected"`
	Signal    int      `json:"signal"`
	QueueFull bool     `json:"queue_full"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Time      *int64   `json:"time,omitempty"`
	Uptime    *int64   `json:"uptime,omitempty"`
}

// InfoState records info messages, safe for concurrent readers.
type InfoState struct {
	mu   sync.RWMutex
	info Info
}

// Update applies the info fields found in m and reports whether
// any was present. Unparsable fields are ignored, a zero position
// means no fix and keeps the previous one.
func (s *InfoState) Update(m Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := false
	for _, f := range m {
		switch f.Key {
		case KeyConnected:
			s.info.Connected = f.Value == "1" || f.Value == "true"
		case KeySignal:
			if n, err := strconv.Atoi(f.Value); err == nil {
				s.info.Signal = n
			}
		case KeyQueueFull:
			s.info.QueueFull = f.Value == "1" || f.Value == "true"
		case KeyLatitude:
			if v, err := strconv.ParseFloat(f.Value, 64); err == nil && v != 0 {
				s.info.Latitude = &v
			}
		case KeyLongitude:
			if v, err := strconv.ParseFloat(f.Value, 64); err == nil && v != 0 {
				s.info.Longitude = &v
			}
		case KeyTime:
			if v, err := strconv.ParseInt(f.Value, 10, 64); err == nil {
				s.info.Time = &v
			}
		case KeyUptime:
			if v, err := strconv.ParseInt(f.Value, 10, 64); err == nil {
				s.info.Uptime = &v
			}
		default:
			continue
		}
		seen = true
	}
	return seen
}

func (s *InfoState) Get() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}
