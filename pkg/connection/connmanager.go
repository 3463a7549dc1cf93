package connection

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/sudotouchwoman/wappsto-bridge/pkg/common"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/frame"
)

type connHandler struct {
	*SerialConnection
	writeLock sync.Mutex
	connName  string
	closed    bool
	close     func() error
}

func (handle *connHandler) ID() string {
	return handle.connName
}

func (handle *connHandler) Data() <-chan []byte {
	return handle.DataChan
}

func (handle *connHandler) Err() <-chan error {
	return handle.errChan
}

var ErrAlreadyClosed = errors.New("this producer has been closed already")

func (handle *connHandler) Close() error {
	handle.writeLock.Lock()
	if handle.closed {
		handle.writeLock.Unlock()
		return ErrAlreadyClosed
	}
	handle.closed = true
	handle.writeLock.Unlock()
	return handle.close()
}

// Send writes p to the underlying stream in one call.
func (handle *connHandler) Send(p []byte) error {
	handle.writeLock.Lock()
	defer handle.writeLock.Unlock()
	if handle.closed {
		return ErrAlreadyClosed
	}
	_, err := handle.SerialConnection.Write(p)
	return err
}

type ConnectionProvider func(string) (wr io.ReadWriter, cancel func(), err error)

type ConnectionManager struct {
	// Manager serves as an API for the connection pool.
	// Provider is a dependency injected into manager
	// in order to ease testing
	// (e.g. to avoid actual interaction with serial connections)
	context.Context
	lock     *sync.RWMutex
	pool     map[string]*connHandler
	provider ConnectionProvider
}

func NewManager(ctx context.Context, p ConnectionProvider) *ConnectionManager {
	return &ConnectionManager{
		lock:     &sync.RWMutex{},
		pool:     map[string]*connHandler{},
		Context:  ctx,
		provider: p,
	}
}

func (cm *ConnectionManager) IsOpen(name string) bool {
	cm.lock.RLock()
	defer cm.lock.RUnlock()
	_, open := cm.pool[name]
	return open
}

// Open returns the connection registered under name, creating one along the way
// if it does not exist yet. Propagates errors from provider
func (cm *ConnectionManager) Open(name string) (common.DuplexProducer, error) {
	cm.lock.Lock()
	defer cm.lock.Unlock()
	if connection, open := cm.pool[name]; open {
		return connection, nil
	}
	wr, canceler, err := cm.provider(name)
	if err != nil {
		return nil, err
	}
	ctx, ctxCancel := context.WithCancel(cm)
	conn := &SerialConnection{
		ReadWriter: wr,
		Context:    ctx,
		Tokenizer:  frame.ScanMessages,
		DataChan:   make(chan []byte, 16),
		errChan:    make(chan error, 1),
	}
	handler := &connHandler{
		connName:         name,
		SerialConnection: conn,
	}
	handler.close = func() error {
		ctxCancel()
		if canceler != nil {
			canceler()
		}
		return cm.release(name, handler)
	}
	cm.pool[name] = handler
	// start listening for updates
	go conn.Listen()
	return handler, nil
}

var ErrConnNotOpened = errors.New("connection does not exist")

var _ common.ProducerManager = (*ConnectionManager)(nil)

func (cm *ConnectionManager) Close(name string) error {
	cm.lock.RLock()
	connection, open := cm.pool[name]
	cm.lock.RUnlock()
	if !open {
		return ErrConnNotOpened
	}
	return connection.Close()
}

func (cm *ConnectionManager) release(name string, handler *connHandler) error {
	cm.lock.Lock()
	defer cm.lock.Unlock()
	if connection, open := cm.pool[name]; !open || connection != handler {
		return ErrConnNotOpened
	}
	delete(cm.pool, name)
	// check if something went wrong with the connection
	// and propagate the error if any
	// use select to avoid unnesessary blocks
	select {
	case err := <-handler.errChan:
		return err
	default:
		return nil
	}
}
