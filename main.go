package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/sudotouchwoman/wappsto-bridge/pkg/app"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/bus"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/hal"
)

// Registers a temperature value with the Wappsto:bit on the I2C bus,
// then prints whatever the peer answers.
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
	log.Println("Stopped")
}

func run() error {
	busName, zone := "1", hal.DefaultThermalZone
	flag.StringVar(&busName, "bus", busName, "I2C Bus Name.")
	flag.StringVar(&zone, "thermal", zone, "Thermal Zone Path.")
	flag.Parse()

	i2c, err := bus.Open(busName)
	if err != nil {
		return err
	}
	defer i2c.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	board := &hal.Board{
		Bus:    i2c,
		Screen: hal.LogDisplay{Log: log.New(os.Stdout, "[DISPLAY] ", log.LstdFlags)},
		Sensor: hal.ThermalSensor{Path: zone},
	}
	if err := app.New(board).Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
