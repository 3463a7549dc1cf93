package common

import (
	"context"
	"time"
)

// Bus is a raw addressed bus: every call is one transaction
// with the device at addr.
type Bus interface {
	Write(addr uint16, p []byte) error
	Read(addr uint16, n int) ([]byte, error)
}

type Display interface {
	Scroll(text string) error
}

type Sensor interface {
	ReadSensor() (float64, error)
}

type Sleeper func(ctx context.Context, d time.Duration)

// Hardware is the whole capability set the application loop
// is allowed to touch. Tests substitute it with fakes.
type Hardware interface {
	Write(addr uint16, p []byte) error
	Read(addr uint16, n int) ([]byte, error)
	Display(text string) error
	Sleep(ctx context.Context, d time.Duration)
	ReadSensor() (float64, error)
}

type DuplexProducer interface {
	ID() string
	Data() <-chan []byte
	Err() <-chan error
	Close() error
	Send(p []byte) error
}

type ProducerManager interface {
	IsOpen(string) bool
	Open(string) (DuplexProducer, error)
	Close(string) error
}

type RecieverChan chan<- interface{}

type Consumer interface {
	ID() string
	Reciever() RecieverChan
}

type CtxKey string

const ClientIDKey CtxKey = "clientID"
