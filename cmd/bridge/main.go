package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/sudotouchwoman/wappsto-bridge/pkg/app"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/bus"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/common"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/connection"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/hal"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/middleware"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/server"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/wappsto"
)

const secretEnv = "BRIDGE_JWT_SECRET"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run keeps every deferred cleanup on the error paths,
// log.Fatal in main exits only after it returned.
func run() error {
	// a missing .env is fine, the environment may carry the secret
	if err := godotenv.Load(); err != nil {
		log.Println("No .env loaded:", err)
	}

	kind, name, baudrate := "i2c", "1", 115200
	addr, zone := ":8080", hal.DefaultThermalZone
	interval, iterations, device := 1000, 0, 1
	template, textValue := "", 0
	flag.StringVar(&kind, "bus", kind, "Bus Kind (i2c or serial).")
	flag.StringVar(&name, "name", name, "I2C Bus or Serial Port Name.")
	flag.IntVar(&baudrate, "b", baudrate, "Serial Port Baudrate.")
	flag.StringVar(&addr, "listen", addr, "Monitor Listen Address, empty disables it.")
	flag.StringVar(&zone, "thermal", zone, "Thermal Zone Path.")
	flag.IntVar(&interval, "interval", interval, "Poll Interval (milliseconds).")
	flag.IntVar(&iterations, "n", iterations, "Poll Iterations, 0 polls forever.")
	flag.IntVar(&device, "device", device, "Wappsto Device ID.")
	flag.StringVar(&template, "template", template, "Sensor Value Template (e.g. temperature, light), empty keeps the default.")
	flag.IntVar(&textValue, "text-value", textValue, "String Value ID (16-20) echoing received text, 0 disables it.")
	flag.Parse()

	if interval <= 0 {
		return errors.New("interval should be positive")
	}
	if baudrate <= 0 {
		return errors.New("baudrate should be positive")
	}
	cfg := app.DefaultConfig()
	cfg.Device = device
	cfg.Interval = time.Duration(interval) * time.Millisecond
	if template != "" {
		t, err := wappsto.ParseTemplate(template)
		if err != nil {
			return err
		}
		if cfg.Sensor, err = t.Value(template); err != nil {
			return err
		}
	}
	if textValue != 0 {
		if err := wappsto.CheckStringID(textValue); err != nil {
			return fmt.Errorf("text-value: %w", err)
		}
		cfg.Strings = append(cfg.Strings, app.StringValue{ID: textValue, Name: "Text", Type: "text"})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	b, closeBus, err := openBus(ctx, kind, name, baudrate)
	if err != nil {
		return err
	}
	defer closeBus()

	board := &hal.Board{
		Bus:    b,
		Sensor: hal.ThermalSensor{Path: zone},
	}
	opts := []func(*app.App){app.WithConfig(cfg)}
	if iterations > 0 {
		opts = append(opts, app.StopAfter(iterations))
	}
	bridge := app.New(board, opts...)
	if textValue != 0 {
		// confirm control data by reporting it back
		bridge.Handle(textValue, func(data string) {
			if _, err := bridge.Reporter.ReportString(textValue, data, wappsto.OnChange); err != nil {
				log.Printf("Echo of value %d failed: %v", textValue, err)
			}
		})
	}

	screens := hal.MultiDisplay{
		hal.LogDisplay{Log: log.New(os.Stdout, "[DISPLAY] ", log.LstdFlags)},
	}
	auth, err := middleware.NewAuthJWT(os.Getenv(secretEnv))
	if addr != "" && err != nil {
		log.Printf("Monitor disabled, %s: %v", secretEnv, err)
		addr = ""
	}
	if addr != "" {
		monitor := server.NewMonitor(ctx, auth, bridge, func(m *server.Monitor) {
			m.Device = device
			m.Status = bridge.Status
		})
		screens = append(screens, monitor)
		srv := &http.Server{Addr: addr, Handler: monitor.Handler()}
		go func() {
			log.Printf("Monitor listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Println("Monitor stopped:", err)
			}
		}()
		defer srv.Shutdown(context.Background())
	}
	board.Screen = screens

	log.Printf("Starts bridging over %s %s", kind, name)
	if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bridge stopped: %w", err)
	}
	log.Println("Finished bridging")
	return nil
}

func openBus(ctx context.Context, kind, name string, baudrate int) (common.Bus, func(), error) {
	switch kind {
	case "i2c":
		b, err := bus.Open(name)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { b.Close() }, nil
	case "serial":
		manager := connection.NewManager(ctx, connection.SerialProvider(baudrate))
		conn, err := manager.Open(name)
		if err != nil {
			return nil, nil, err
		}
		return connection.NewStreamBus(conn), func() {
			if err := manager.Close(name); err != nil {
				log.Println("Error during closing serial port:", err)
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown bus kind %q", kind)
}
