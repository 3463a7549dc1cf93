package connection

import (
	"bufio"
	"context"
	"io"
	"log"

	"github.com/tarm/serial"
)

type SerialConnection struct {
	// Provides some higher-order API to given io.ReadWriter.
	// Populates channels with messages and errors collected
	// during scanning. Tokenizer is frame.ScanMessages by default
	// (set by ConnectionManager); modifying it makes no sense
	// once the connection starts scanning
	io.ReadWriter
	context.Context
	Tokenizer bufio.SplitFunc
	DataChan  chan []byte
	errChan   chan error
}

func (ss *SerialConnection) Listen() {
	// Starts scanning provided connection for tokens
	// This method is intended to be run in a separate goroutine
	defer func() {
		close(ss.errChan)
		close(ss.DataChan)
	}()
	scanner := bufio.NewScanner(ss)
	scanner.Split(ss.Tokenizer)
	for scanner.Scan() {
		// scanner reuses its buffer between tokens
		msg := make([]byte, len(scanner.Bytes()))
		copy(msg, scanner.Bytes())
		select {
		case ss.DataChan <- msg:
		case <-ss.Done():
			return
		}
	}
	select {
	case <-ss.Done():
		return
	default:
		if err := scanner.Err(); err != nil {
			log.Println("Connection was interrupted before context finished:", err)
			ss.errChan <- err
		}
	}
}

func SerialProvider(baudrate int) ConnectionProvider {
	return func(name string) (wr io.ReadWriter, cancel func(), err error) {
		c := &serial.Config{Name: name, Baud: baudrate}
		stream, err := serial.OpenPort(c)
		if err != nil {
			return nil, nil, err
		}
		return stream, func() { stream.Close() }, nil
	}
}
