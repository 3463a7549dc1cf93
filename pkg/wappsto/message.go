// Package wappsto builds the flat JSON messages understood by the
// Wappsto:bit peer and keeps track of what was reported to it.
package wappsto

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Field keys of the message protocol.
const (
	KeyDevice  = "device"
	KeyValue   = "value"
	KeyName    = "name"
	KeyVersion = "version"
	KeyType    = "type"
	KeyMin     = "min"
	KeyMax     = "max"
	KeyStep    = "step"
	KeyUnit    = "unit"
	KeyData    = "data"
	KeyCommand = "command"
)

// Commands accepted by the peer.
const (
	CommandInfo  = "info"
	CommandClean = "clean"
	CommandSave  = "save"
	CommandSleep = "sleep"
)

var (
	ErrValueRange = errors.New("value id out of range")
	ErrCommand    = errors.New("unknown command")
	ErrUnsafeData = errors.New("data contains quote, backslash or control characters")
)

type Field struct {
	Key   string
	Value string
}

// Message is a flat JSON object with string values only.
// Field order is kept as added.
type Message []Field

func (m Message) With(key, value string) Message {
	return append(m, Field{Key: key, Value: value})
}

func (m Message) Get(key string) (string, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// String renders the message by plain concatenation. Quotes and
// control characters are not escaped, the caller owns the content.
func (m Message) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(f.Key)
		sb.WriteString(`":"`)
		sb.WriteString(f.Value)
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}

func DeviceMessage(device int, name, version string) Message {
	m := Message{}.
		With(KeyDevice, strconv.Itoa(device)).
		With(KeyName, name)
	if version != "" {
		m = m.With(KeyVersion, version)
	}
	return m
}

// NumberValue describes a numeric channel of the data model.
type NumberValue struct {
	Name string
	Type string
	Min  float64
	Max  float64
	Step float64
	Unit string
}

// ValueMessage declares a number value. Ids outside 1-15 are rejected.
func ValueMessage(device, value int, nv NumberValue) (Message, error) {
	if err := CheckNumberID(value); err != nil {
		return nil, err
	}
	return Message{}.
		With(KeyDevice, strconv.Itoa(device)).
		With(KeyValue, strconv.Itoa(value)).
		With(KeyName, nv.Name).
		With(KeyType, nv.Type).
		With(KeyMin, FormatNumber(nv.Min)).
		With(KeyMax, FormatNumber(nv.Max)).
		With(KeyStep, FormatNumber(nv.Step)).
		With(KeyUnit, nv.Unit), nil
}

// StringValueMessage declares a string value. Ids outside 16-20 are rejected.
func StringValueMessage(device, value int, name, typ string) (Message, error) {
	if err := CheckStringID(value); err != nil {
		return nil, err
	}
	return Message{}.
		With(KeyDevice, strconv.Itoa(device)).
		With(KeyValue, strconv.Itoa(value)).
		With(KeyName, name).
		With(KeyType, typ), nil
}

func DataMessage(device, value int, data string) Message {
	return Message{}.
		With(KeyDevice, strconv.Itoa(device)).
		With(KeyValue, strconv.Itoa(value)).
		With(KeyData, data)
}

func CommandMessage(command string) (Message, error) {
	switch command {
	case CommandInfo, CommandClean, CommandSave, CommandSleep:
		return Message{}.With(KeyCommand, command), nil
	}
	return nil, ErrCommand
}

// CheckData rejects text that would break out of a string field
// once concatenated into a message.
func CheckData(s string) error {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == '"' || c == '\\' || c < 0x20 || c == 0x7F {
			return ErrUnsafeData
		}
	}
	return nil
}

// Parse reads a flat message of string fields as sent by the peer,
// e.g. {"device":"1","value":"3","data":"42"}. Nesting, escapes and
// commas inside values are not supported.
func Parse(text string) (Message, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return nil, false
	}
	body := strings.TrimSpace(text[1 : len(text)-1])
	if body == "" {
		return Message{}, true
	}
	m := Message{}
	for _, pair := range strings.Split(body, ",") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, false
		}
		m = m.With(unquote(key), unquote(value))
	}
	return m, true
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// FormatNumber renders numbers the way the peer's firmware expects
// them: plain decimals ("-5", "0.001", "1000000000000"), exponent form
// only for very large or very small magnitudes.
func FormatNumber(f float64) string {
	if a := math.Abs(f); a >= 1e21 || (a != 0 && a < 1e-6) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

const (
	MinNumberID = 1
	MaxNumberID = 15
	MinStringID = 16
	MaxStringID = 20
)

func CheckNumberID(id int) error {
	if id < MinNumberID || id > MaxNumberID {
		return rangeError(id, MinNumberID, MaxNumberID)
	}
	return nil
}

func CheckStringID(id int) error {
	if id < MinStringID || id > MaxStringID {
		return rangeError(id, MinStringID, MaxStringID)
	}
	return nil
}

func rangeError(id, min, max int) error {
	return &RangeError{ID: id, Min: min, Max: max}
}

type RangeError struct {
	ID, Min, Max int
}

func (e *RangeError) Error() string {
	return "value id " + strconv.Itoa(e.ID) + " not in range " +
		strconv.Itoa(e.Min) + "-" + strconv.Itoa(e.Max)
}

func (e *RangeError) Unwrap() error {
	return ErrValueRange
}
