package connection

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudotouchwoman/wappsto-bridge/pkg/frame"
)

const (
	prohibited = "connection name is banned"
)

var ErrProhibitedName = errors.New(prohibited)

type mockProvider struct {
	mu      sync.Mutex
	names   map[string]int
	buffers map[string]*StringBuffer
}

func newMockProvider(names ...string) *mockProvider {
	mp := &mockProvider{names: map[string]int{}, buffers: map[string]*StringBuffer{}}
	for _, n := range names {
		mp.names[n] = 0
	}
	return mp
}

// provide echoes the connection name back as a single framed message
func (mp *mockProvider) provide(s string) (wr io.ReadWriter, cancel func(), err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if _, ok := mp.names[s]; !ok {
		err = ErrProhibitedName
		return
	}
	buf := &StringBuffer{
		strings.NewReader(string(frame.Encode(s))),
		&strings.Builder{},
	}
	mp.buffers[s] = buf
	wr = buf
	cancel = func() {
		mp.mu.Lock()
		mp.names[s]++
		mp.mu.Unlock()
	}
	return
}

func (mp *mockProvider) cancelled(s string) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.names[s]
}

func TestConnectionManager_Open(t *testing.T) {
	closedCtx, cancel := context.WithCancel(context.Background())
	cancel()
	tests := []struct {
		name         string
		ctx          context.Context
		conn         string
		wantErr      bool
		managerClose bool
	}{
		{
			name: "Mock provider with string io",
			ctx:  context.Background(),
			conn: "serial-0-0",
		},
		{
			name: "Mock provider context timed out",
			ctx:  closedCtx,
			conn: "serial-0-0-0",
		},
		{
			name:    "Mock provider with mismatching name",
			ctx:     context.Background(),
			conn:    "mismatch",
			wantErr: true,
		},
		{
			name:         "Closing from manager side",
			ctx:          context.Background(),
			conn:         "serial-1-0-1",
			managerClose: true,
		},
		{
			name:         "Closing from manager side with mismatching name",
			ctx:          context.Background(),
			conn:         "mismatch",
			wantErr:      true,
			managerClose: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mp := newMockProvider("serial-0-0", "serial-0-0-0", "serial-1-0-1")
			cm := NewManager(tt.ctx, mp.provide)
			first, _ := cm.Open(tt.conn)
			// pick from cache once again
			got, err := cm.Open(tt.conn)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrProhibitedName)
				assert.Nil(t, got)
				assert.False(t, cm.IsOpen(tt.conn))
				if tt.managerClose {
					assert.ErrorIs(t, cm.Close(tt.conn), ErrConnNotOpened)
				}
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Same(t, first, got)
			assert.True(t, cm.IsOpen(tt.conn))
			assert.Equal(t, tt.conn, got.ID())

			if tt.managerClose {
				assert.NoError(t, cm.Close(tt.conn))
			} else {
				assert.NoError(t, got.Close())
			}
			assert.False(t, cm.IsOpen(tt.conn))
			assert.Equal(t, 1, mp.cancelled(tt.conn), "cancel should have been called once")

			// drain what the listener managed to deliver
			for range got.Data() {
			}
			for err := range got.Err() {
				t.Error(err)
			}
			assert.ErrorIs(t, got.Close(), ErrAlreadyClosed)
			assert.ErrorIs(t, got.Send([]byte("late")), ErrAlreadyClosed)
		})
	}
}

func TestConnectionManager_Writing(t *testing.T) {
	tests := []struct {
		name     string
		conn     string
		payloads []string
	}{
		{
			name:     "Single command",
			conn:     "short-msg",
			payloads: []string{`{"command":"info"}`},
		},
		{
			name:     "Registration sequence",
			conn:     "serial-port-to-buffer-mapping",
			payloads: []string{`{"device":"1"}`, `{"command":"info"}`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mp := newMockProvider(tt.conn)
			cm := NewManager(context.Background(), mp.provide)
			got, err := cm.Open(tt.conn)
			require.NoError(t, err)
			want := ""
			for _, p := range tt.payloads {
				require.NoError(t, got.Send(frame.Encode(p)))
				want += string(frame.Encode(p))
			}
			// Send is synchronous, the builder is complete by now
			assert.Equal(t, want, mp.buffers[tt.conn].Builder.String())
			assert.NoError(t, got.Close())
		})
	}
}

func TestStreamBus(t *testing.T) {
	mp := newMockProvider("ttyUSB0")
	cm := NewManager(context.Background(), mp.provide)
	producer, err := cm.Open("ttyUSB0")
	require.NoError(t, err)
	sb := NewStreamBus(producer)

	require.NoError(t, sb.Write(frame.PeerAddress, frame.Encode(`{"command":"info"}`)))
	assert.Equal(t, "{\"command\":\"info\"}\x00", mp.buffers["ttyUSB0"].Builder.String())

	// the listener delivers the echoed name, wait for it
	msg := <-producer.Data()
	assert.Equal(t, "ttyUSB0", string(msg))

	// nothing pending: idle frame
	got, err := sb.Read(frame.PeerAddress, frame.Size)
	if err == nil {
		_, ok := frame.Decode(got)
		assert.False(t, ok)
		assert.Len(t, got, frame.Size)
	} else {
		// the listener finished and closed its channels
		assert.ErrorIs(t, err, ErrAlreadyClosed)
	}
	assert.NoError(t, sb.Close())
}

type fakeProducer struct {
	data chan []byte
	errs chan error
	sent [][]byte
}

func (fp *fakeProducer) ID() string          { return "fake" }
func (fp *fakeProducer) Data() <-chan []byte { return fp.data }
func (fp *fakeProducer) Err() <-chan error   { return fp.errs }
func (fp *fakeProducer) Close() error        { return nil }

func (fp *fakeProducer) Send(p []byte) error {
	fp.sent = append(fp.sent, p)
	return nil
}

func TestStreamBus_Read(t *testing.T) {
	fp := &fakeProducer{data: make(chan []byte, 1), errs: make(chan error, 1)}
	sb := NewStreamBus(fp)

	fp.data <- []byte("AB")
	got, err := sb.Read(frame.PeerAddress, frame.Size)
	require.NoError(t, err)
	msg, ok := frame.Decode(got)
	require.True(t, ok)
	assert.Equal(t, "AB", string(msg))

	got, err = sb.Read(frame.PeerAddress, frame.Size)
	require.NoError(t, err)
	assert.Equal(t, frame.Idle(frame.Size), got)

	fp.errs <- errBrokenPipe
	close(fp.errs)
	close(fp.data)
	_, err = sb.Read(frame.PeerAddress, frame.Size)
	assert.ErrorIs(t, err, errBrokenPipe)
}
