package subaru

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"subaru-lkas-can/utils"
)

// recordingPacker keeps the last values it was asked to encode and returns
// an all-zero frame of length bytes (8 when unset).
type recordingPacker struct {
	calls  int
	name   string
	bus    int
	values SignalFrame
	length uint8
	err    error
}

func (r *recordingPacker) MakeCANMsg(name string, bus int, values SignalFrame) (utils.EncodedFrame, error) {
	r.calls++
	r.name, r.bus = name, bus
	r.values = make(SignalFrame, len(values))
	for k, v := range values {
		r.values[k] = v
	}
	if r.err != nil {
		return utils.EncodedFrame{}, r.err
	}
	f := utils.EncodedFrame{Bus: bus}
	f.Length = 8
	if r.length != 0 {
		f.Length = r.length
	}
	return f, nil
}

func snapshot(schema []string, v int) SignalFrame {
	out := make(SignalFrame, len(schema))
	for _, k := range schema {
		out[k] = v
	}
	return out
}

func with(s SignalFrame, kv ...any) SignalFrame {
	out := make(SignalFrame, len(s))
	for k, v := range s {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i].(string)] = kv[i+1].(int)
	}
	return out
}

func loadMap(t *testing.T, name string) *utils.CANMap {
	t.Helper()
	m, err := utils.LoadCANMap("../config/can/" + name)
	require.NoError(t, err)
	return m
}

func readMap(t *testing.T, src string) *utils.CANMap {
	t.Helper()
	m, err := utils.ReadCANMap(strings.NewReader(src))
	require.NoError(t, err)
	return m
}
