package wappsto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageString(t *testing.T) {
	temperature := NumberValue{Name: "Temperature", Type: "Temperature", Min: -5, Max: 50, Step: 1, Unit: "°C"}
	value, err := ValueMessage(1, 1, temperature)
	require.NoError(t, err)
	info, err := CommandMessage(CommandInfo)
	require.NoError(t, err)

	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "device registration",
			msg:  DeviceMessage(1, "myMicro:bit", "myVersionString"),
			want: `{"device":"1","name":"myMicro:bit","version":"myVersionString"}`,
		},
		{
			name: "device without version",
			msg:  DeviceMessage(1, "Wappsto:bit", ""),
			want: `{"device":"1","name":"Wappsto:bit"}`,
		},
		{
			name: "value definition",
			msg:  value,
			want: `{"device":"1","value":"1","name":"Temperature","type":"Temperature","min":"-5","max":"50","step":"1","unit":"°C"}`,
		},
		{
			name: "data update",
			msg:  DataMessage(1, 2, "2"),
			want: `{"device":"1","value":"2","data":"2"}`,
		},
		{
			name: "command",
			msg:  info,
			want: `{"command":"info"}`,
		},
		{
			name: "empty",
			msg:  Message{},
			want: `{}`,
		},
		{
			name: "quotes are not escaped",
			msg:  Message{}.With("data", `a"b`),
			want: `{"data":"a"b"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg.String())
		})
	}
}

func TestMessageGet(t *testing.T) {
	m := DataMessage(1, 3, "42")
	v, ok := m.Get(KeyData)
	assert.True(t, ok)
	assert.Equal(t, "42", v)
	_, ok = m.Get(KeyUnit)
	assert.False(t, ok)
}

func TestValueIDRanges(t *testing.T) {
	tests := []struct {
		name    string
		check   func(int) error
		id      int
		wantErr bool
	}{
		{name: "first number", check: CheckNumberID, id: 1},
		{name: "last number", check: CheckNumberID, id: 15},
		{name: "zero number", check: CheckNumberID, id: 0, wantErr: true},
		{name: "string id as number", check: CheckNumberID, id: 16, wantErr: true},
		{name: "first string", check: CheckStringID, id: 16},
		{name: "last string", check: CheckStringID, id: 20},
		{name: "number id as string", check: CheckStringID, id: 15, wantErr: true},
		{name: "past strings", check: CheckStringID, id: 21, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(tt.id)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrValueRange)
			var re *RangeError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.id, re.ID)
		})
	}
}

func TestValueMessageRejectsRange(t *testing.T) {
	_, err := ValueMessage(1, 16, NumberValue{})
	assert.ErrorIs(t, err, ErrValueRange)
	_, err = StringValueMessage(1, 3, "name", "string")
	assert.ErrorIs(t, err, ErrValueRange)

	m, err := StringValueMessage(1, 16, "Greeting", "text")
	require.NoError(t, err)
	assert.Equal(t, `{"device":"1","value":"16","name":"Greeting","type":"text"}`, m.String())
}

func TestCommandMessage(t *testing.T) {
	for _, c := range []string{CommandInfo, CommandClean, CommandSave, CommandSleep} {
		m, err := CommandMessage(c)
		require.NoError(t, err, c)
		assert.Equal(t, `{"command":"`+c+`"}`, m.String())
	}
	_, err := CommandMessage("reboot")
	assert.ErrorIs(t, err, ErrCommand)
}

func TestFormatNumber(t *testing.T) {
	tests := map[float64]string{
		-5:       "-5",
		50:       "50",
		0:        "0",
		0.001:    "0.001",
		0.000001: "0.000001",
		-1e12:    "-1000000000000",
		21.5:     "21.5",
		1e21:     "1e+21",
		1e-7:     "1e-07",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatNumber(in), "%v", in)
	}
}

func TestTemplates(t *testing.T) {
	nv, err := Temperature.Value("Kitchen")
	require.NoError(t, err)
	assert.Equal(t, NumberValue{Name: "Kitchen", Type: "temperature", Min: -5, Max: 50, Step: 1, Unit: "°C"}, nv)

	nv, err = Latitude.Value("Lat")
	require.NoError(t, err)
	m, err := ValueMessage(1, 4, nv)
	require.NoError(t, err)
	assert.Equal(t, `{"device":"1","value":"4","name":"Lat","type":"latitude","min":"-90","max":"90","step":"0.000001","unit":"°N"}`, m.String())

	_, err = Template(99).Value("x")
	assert.Error(t, err)
}

func TestParseTemplate(t *testing.T) {
	for name, want := range map[string]Template{
		"temperature": Temperature,
		"Light":       Light,
		"SOUND":       SoundLevel,
		"longitude":   Longitude,
	} {
		got, err := ParseTemplate(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseTemplate("humidity")
	assert.Error(t, err)
}

func TestCheckData(t *testing.T) {
	tests := []struct {
		data string
		safe bool
	}{
		{data: "", safe: true},
		{data: "21.5", safe: true},
		{data: "Hello From Wappsto:Bit", safe: true},
		{data: "°C, µT", safe: true},
		{data: `1","command":"clean`},
		{data: `a\b`},
		{data: "a\nb"},
		{data: "\x00"},
		{data: "\x7f"},
	}
	for _, tt := range tests {
		err := CheckData(tt.data)
		if tt.safe {
			assert.NoError(t, err, "%q", tt.data)
		} else {
			assert.ErrorIs(t, err, ErrUnsafeData, "%q", tt.data)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   Message
		wantOk bool
	}{
		{
			name:   "control data",
			text:   `{"device":"1","value":"16","data":"hi"}`,
			want:   Message{{KeyDevice, "1"}, {KeyValue, "16"}, {KeyData, "hi"}},
			wantOk: true,
		},
		{
			name:   "spaces and bare numbers",
			text:   ` { "signal" : 70, "connected":"1" } `,
			want:   Message{{"signal", "70"}, {"connected", "1"}},
			wantOk: true,
		},
		{
			name:   "time keeps its colons",
			text:   `{"time":"12:30:00"}`,
			want:   Message{{KeyTime, "12:30:00"}},
			wantOk: true,
		},
		{name: "empty", text: `{}`, want: Message{}, wantOk: true},
		{name: "plain text", text: `Hello`},
		{name: "missing colon", text: `{"device"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.text)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	// what the builders produce reads back
	m, ok := Parse(DataMessage(3, 4, "-1.5").String())
	require.True(t, ok)
	assert.Equal(t, DataMessage(3, 4, "-1.5"), m)
}
