// Package app runs the bridge: it registers the device and its values
// with the peer once, then polls the peer and reports what it reads.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/sudotouchwoman/wappsto-bridge/pkg/common"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/frame"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/wappsto"
)

type Config struct {
	Device     int
	DeviceName string
	Version    string
	// SensorValue carries the sensor readings, LengthValue the
	// length of every message read from the peer.
	SensorValue int
	Sensor      wappsto.NumberValue
	LengthValue int
	Interval    time.Duration
	// Strings are extra string values declared after the setup.
	Strings []StringValue
}

type StringValue struct {
	ID   int
	Name string
	Type string
}

func DefaultConfig() Config {
	return Config{
		Device:      1,
		DeviceName:  "myMicro:bit",
		Version:     "myVersionString",
		SensorValue: 1,
		Sensor: wappsto.NumberValue{
			Name: "Temperature",
			Type: "Temperature",
			Min:  -5,
			Max:  50,
			Step: 1,
			Unit: "°C",
		},
		LengthValue: 2,
		Interval:    time.Second,
	}
}

var ErrOutboxFull = errors.New("outbox is full")

type App struct {
	Config
	HW        common.Hardware
	Transport *Transport
	Reporter  *wappsto.Reporter
	Log       *log.Logger
	// Stop is asked before every poll iteration, nil runs forever.
	Stop func(iteration int) bool
	// Outbox holds payloads queued by other goroutines. The loop
	// writes them out so that the bus has a single user.
	Outbox chan string

	handlers map[int]Handler
	info     wappsto.InfoState
}

// Handler receives the data the peer forwards for a value.
type Handler func(data string)

func New(hw common.Hardware, opts ...func(*App)) *App {
	a := App{
		Config: DefaultConfig(),
		HW:     hw,
		Log:    log.New(os.Stdout, "[APP] ", log.LstdFlags),
		Outbox:   make(chan string, 16),
		handlers: map[int]Handler{},
	}
	for _, opt := range opts {
		opt(&a)
	}
	a.Transport = &Transport{HW: hw, Addr: frame.PeerAddress}
	a.Reporter = wappsto.NewReporter(a.Transport, a.Device)
	return &a
}

func WithConfig(c Config) func(*App) {
	return func(a *App) { a.Config = c }
}

func WithLogger(l *log.Logger) func(*App) {
	return func(a *App) { a.Log = l }
}

// StopAfter stops the loop once n iterations ran.
func StopAfter(n int) func(*App) {
	return func(a *App) {
		a.Stop = func(i int) bool { return i >= n }
	}
}

// Handle registers h for data received for value. Register
// handlers before Run, the loop reads them unguarded.
func (a *App) Handle(value int, h Handler) {
	a.handlers[value] = h
}

// Status is the last info the peer reported.
func (a *App) Status() wappsto.Info {
	return a.info.Get()
}

// Setup registers the device, declares the sensor value, reports one
// reading and asks the peer for its info.
func (a *App) Setup() error {
	if err := a.Transport.Write(wappsto.DeviceMessage(a.Device, a.DeviceName, a.Version).String()); err != nil {
		return fmt.Errorf("register device: %w", err)
	}
	value, err := wappsto.ValueMessage(a.Device, a.SensorValue, a.Sensor)
	if err != nil {
		return err
	}
	if err := a.Transport.Write(value.String()); err != nil {
		return fmt.Errorf("declare value %d: %w", a.SensorValue, err)
	}
	reading, err := a.HW.ReadSensor()
	if err != nil {
		return fmt.Errorf("read sensor: %w", err)
	}
	if _, err := a.Reporter.Report(a.SensorValue, wappsto.FormatNumber(reading), wappsto.ASAP); err != nil {
		return fmt.Errorf("report value %d: %w", a.SensorValue, err)
	}
	info, _ := wappsto.CommandMessage(wappsto.CommandInfo)
	if err := a.Transport.Write(info.String()); err != nil {
		return fmt.Errorf("request info: %w", err)
	}
	for _, sv := range a.Strings {
		value, err := wappsto.StringValueMessage(a.Device, sv.ID, sv.Name, sv.Type)
		if err != nil {
			return err
		}
		if err := a.Transport.Write(value.String()); err != nil {
			return fmt.Errorf("declare value %d: %w", sv.ID, err)
		}
	}
	a.Log.Printf("Device %d registered as %q", a.Device, a.DeviceName)
	return nil
}

// Enqueue hands a payload to the loop without blocking.
func (a *App) Enqueue(payload string) error {
	select {
	case a.Outbox <- payload:
		return nil
	default:
		return ErrOutboxFull
	}
}

// Step runs one poll iteration without the trailing sleep.
func (a *App) Step() error {
	if err := a.flush(); err != nil {
		return err
	}
	msg, ok, err := a.Transport.Read()
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	if !ok {
		return nil
	}
	if _, err := a.Reporter.Report(a.LengthValue, strconv.Itoa(len(msg)), wappsto.ASAP); err != nil {
		return fmt.Errorf("report value %d: %w", a.LengthValue, err)
	}
	if err := a.HW.Display(msg); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	a.dispatch(msg)
	return nil
}

// dispatch records info fields and hands control data to the
// value's handler. Text that does not look like a message is
// left to the display alone.
func (a *App) dispatch(text string) {
	m, ok := wappsto.Parse(text)
	if !ok {
		return
	}
	if a.info.Update(m) {
		a.Log.Printf("Peer info: %+v", a.info.Get())
	}
	raw, hasValue := m.Get(wappsto.KeyValue)
	data, hasData := m.Get(wappsto.KeyData)
	if !hasValue || !hasData {
		return
	}
	if dev, ok := m.Get(wappsto.KeyDevice); ok && dev != strconv.Itoa(a.Device) {
		return
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		a.Log.Printf("Ignoring data for value %q: %v", raw, err)
		return
	}
	if h, ok := a.handlers[value]; ok {
		h(data)
	}
}

func (a *App) flush() error {
	for {
		select {
		case payload := <-a.Outbox:
			if err := a.Transport.Write(payload); err != nil {
				return fmt.Errorf("write queued payload: %w", err)
			}
		default:
			return nil
		}
	}
}

// Loop polls the peer until Stop says so or ctx is done.
// The interval sleep follows every iteration.
func (a *App) Loop(ctx context.Context) error {
	for i := 0; a.Stop == nil || !a.Stop(i); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.Step(); err != nil {
			return err
		}
		a.HW.Sleep(ctx, a.Interval)
	}
	return nil
}

// Run is Setup followed by Loop.
func (a *App) Run(ctx context.Context) error {
	if err := a.Setup(); err != nil {
		return err
	}
	return a.Loop(ctx)
}
