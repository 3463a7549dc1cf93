package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sudotouchwoman/wappsto-bridge/pkg/client"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/common"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/middleware"
	"github.com/sudotouchwoman/wappsto-bridge/pkg/wappsto"
)

const DisplayID = "display"

type ClientConsumer struct {
	// this struct implements Consumer
	// interface and can thus be used with
	// ConsumerManager
	*client.Client
	Token      string
	socketChan chan interface{}
}

func (c *ClientConsumer) ID() string {
	return c.Token
}

func (c *ClientConsumer) Reciever() common.RecieverChan {
	return c.socketChan
}

// Enqueuer accepts payloads for the bus owner to write out.
type Enqueuer interface {
	Enqueue(payload string) error
}

type Authenticator interface {
	middleware.Authorizer
	NewUser() (token, username string, err error)
}

// Monitor mirrors displayed text to websocket clients and forwards
// their commands and data updates to the bus.
type Monitor struct {
	ctx      context.Context
	upgrader websocket.Upgrader
	subs     *client.ConsumerManager
	updates  chan []byte
	auth     Authenticator
	queue    Enqueuer
	reporter *wappsto.Reporter
	Device   int
	Log      *log.Logger
	// Status, when set, is served as JSON on /status.
	Status func() wappsto.Info
}

func NewMonitor(ctx context.Context, auth Authenticator, queue Enqueuer, opts ...func(*Monitor)) *Monitor {
	m := Monitor{
		ctx: ctx,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs:    client.NewManager(),
		updates: make(chan []byte, 16),
		auth:    auth,
		queue:   queue,
		Device:  1,
		Log:     log.New(os.Stdout, "[WS] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.reporter = wappsto.NewReporter(wappsto.SenderFunc(queue.Enqueue), m.Device)
	go client.Broadcast(ctx, DisplayID, m.updates, m.subs.Recievers)
	return &m
}

// Scroll implements common.Display. Text is dropped when
// the broadcaster lags behind.
func (m *Monitor) Scroll(text string) error {
	select {
	case m.updates <- []byte(text):
	default:
		m.Log.Println("Broadcast queue full, dropping:", text)
	}
	return nil
}

func (m *Monitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", m.TokenHandler)
	mux.Handle("/ws", middleware.Middleware(m.auth, http.HandlerFunc(m.SocketHandler)))
	if m.Status != nil {
		mux.Handle("/status", middleware.Middleware(m.auth, http.HandlerFunc(m.StatusHandler)))
	}
	return mux
}

// StatusHandler serves the last info reported by the peer.
func (m *Monitor) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m.Status()); err != nil {
		m.Log.Println("Failed to encode status:", err)
	}
}

func (m *Monitor) TokenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token, username, err := m.auth.NewUser()
	if err != nil {
		m.Log.Println("Failed to issue token:", err)
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"token":    token,
		"username": username,
	})
}

func (m *Monitor) SocketHandler(w http.ResponseWriter, r *http.Request) {
	// upgrades HTTP connection to a WS one
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.Log.Println("Error during connection upgrade:", err)
		return
	}
	owner, _ := middleware.ClientID(r.Context())
	c := &ClientConsumer{
		Client:     client.New(conn),
		Token:      uuid.NewString(),
		socketChan: make(chan interface{}, 16),
	}
	done := make(chan struct{})
	m.subs.Subscribe(c)
	m.Log.Printf("Client %s connected (user %s)", c.Token, owner)
	defer func() {
		m.subs.Unsubscribe(c)
		close(done)
		if err := conn.Close(); err != nil {
			m.Log.Println("Error during closing websocket", err)
		}
	}()
	if err := c.SendJSON(client.Response{MType: client.MsgHello, Text: c.Token}); err != nil {
		m.Log.Println("Error on send to ws:", err, " Client:", c.Token)
		return
	}
	// redirect broadcasted updates into the websocket
	go func() {
		for {
			select {
			case update := <-c.socketChan:
				if err := c.SendJSON(update); err != nil {
					m.Log.Println("Error on send to ws:", err, " Client:", c.Token)
				}
			case <-done:
				return
			}
		}
	}()
	// closing the connection unblocks ReadMessage
	go func() {
		select {
		case <-m.ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	for {
		_, message, readErr := conn.ReadMessage()
		if readErr != nil {
			m.Log.Println("Client Disconnected:", readErr)
			return
		}
		resp := client.Response{MType: client.MsgAck}
		queued, err := m.HandleSocketMessage(message)
		switch {
		case err != nil:
			resp = client.Response{MType: client.MsgError, Text: err.Error()}
		case !queued:
			resp.Text = "unchanged"
		}
		if err := c.SendJSON(resp); err != nil {
			m.Log.Println("Error on send to ws:", err, " Client:", c.Token)
		}
	}
}

var (
	ErrUnknownMessage = errors.New("unknown message type")
	ErrNotANumber     = errors.New("data is not a finite number")
)

// HandleSocketMessage turns a client request into a Wappsto
// message and queues it for the bus. Data updates equal to the
// last one sent for the same value are not queued again, in which
// case it returns false.
func (m *Monitor) HandleSocketMessage(payload []byte) (bool, error) {
	msg := client.Message{}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return false, fmt.Errorf("decode ws message: %w", err)
	}
	switch msg.MType {
	case client.MsgCommand:
		cmd := client.MessageCommand{}
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			return false, fmt.Errorf("decode command: %w", err)
		}
		out, err := wappsto.CommandMessage(cmd.Command)
		if err != nil {
			return false, err
		}
		if err := m.queue.Enqueue(out.String()); err != nil {
			return false, err
		}
		if cmd.Command == wappsto.CommandClean {
			// the peer dropped its data model, resend everything
			m.reporter.Forget()
		}
		return true, nil
	case client.MsgData:
		data := client.MessageData{}
		if err := json.Unmarshal(msg.Payload, &data); err != nil {
			return false, fmt.Errorf("decode data: %w", err)
		}
		value, err := strconv.Atoi(data.Value)
		if err != nil {
			return false, fmt.Errorf("value %q: %w", data.Value, err)
		}
		if err := wappsto.CheckData(data.Data); err != nil {
			return false, err
		}
		if wappsto.CheckStringID(value) == nil {
			return m.reporter.ReportString(value, data.Data, wappsto.OnChange)
		}
		if err := wappsto.CheckNumberID(value); err != nil {
			return false, &wappsto.RangeError{ID: value, Min: wappsto.MinNumberID, Max: wappsto.MaxStringID}
		}
		n, err := strconv.ParseFloat(data.Data, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return false, fmt.Errorf("value %d data %q: %w", value, data.Data, ErrNotANumber)
		}
		return m.reporter.ReportNumber(value, n, wappsto.OnChange)
	default:
		return false, ErrUnknownMessage
	}
}

// Clients reports the number of connected websocket clients.
func (m *Monitor) Clients() int {
	return m.subs.Len()
}
