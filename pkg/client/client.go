package client

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Client serializes writes to a websocket,
// gorilla connections support one concurrent writer only.
type Client struct {
	Socket *websocket.Conn
	mu     *sync.Mutex
}

func (c *Client) SendJSON(msg interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Socket.WriteJSON(msg)
}

func New(conn *websocket.Conn) *Client {
	return &Client{
		Socket: conn,
		mu:     &sync.Mutex{},
	}
}

const (
	MsgCommand = "command"
	MsgData    = "data"
	MsgHello   = "hello"
	MsgAck     = "ack"
	MsgError   = "error"
)

// Message is what monitor clients send.
type Message struct {
	MType   string          `json:"mtype"`
	Payload json.RawMessage `json:"payload"`
}

type MessageCommand struct {
	Command string `json:"command"`
}

type MessageData struct {
	Value string `json:"value"`
	Data  string `json:"data"`
}

// Response is what the monitor answers with directly.
type Response struct {
	MType string `json:"mtype"`
	Text  string `json:"text,omitempty"`
}
