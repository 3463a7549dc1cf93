package wappsto

import "sync"

// Transmit selects when a data update goes out.
type Transmit int

const (
	// ASAP sends every update.
	ASAP Transmit = iota
	// OnChange drops an update equal to the last one sent for the value.
	OnChange
)

type Sender interface {
	Write(payload string) error
}

// SenderFunc adapts a function, e.g. a queue's Enqueue, to Sender.
type SenderFunc func(payload string) error

func (f SenderFunc) Write(payload string) error {
	return f(payload)
}

type valueKey struct {
	device, value int
}

// Reporter sends data updates and remembers the last data
// sent per value.
type Reporter struct {
	Sender Sender
	Device int

	mu   sync.Mutex
	last map[valueKey]string
}

func NewReporter(s Sender, device int) *Reporter {
	return &Reporter{
		Sender: s,
		Device: device,
		last:   map[valueKey]string{},
	}
}

// Report sends data for value. It returns false when the update was
// suppressed by the OnChange behaviour.
func (r *Reporter) Report(value int, data string, behaviour Transmit) (bool, error) {
	if err := CheckData(data); err != nil {
		return false, err
	}
	key := valueKey{r.Device, value}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, seen := r.last[key]; behaviour == OnChange && seen && prev == data {
		return false, nil
	}
	if err := r.Sender.Write(DataMessage(r.Device, value, data).String()); err != nil {
		return false, err
	}
	r.last[key] = data
	return true, nil
}

func (r *Reporter) ReportNumber(value int, n float64, behaviour Transmit) (bool, error) {
	if err := CheckNumberID(value); err != nil {
		return false, err
	}
	return r.Report(value, FormatNumber(n), behaviour)
}

func (r *Reporter) ReportString(value int, s string, behaviour Transmit) (bool, error) {
	if err := CheckStringID(value); err != nil {
		return false, err
	}
	return r.Report(value, s, behaviour)
}

// Forget clears the remembered data, e.g. after a clean command
// wiped the data model on the peer.
func (r *Reporter) Forget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = map[valueKey]string{}
}
