package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDBCMatchesCSV(t *testing.T) {
	fromDBC, err := LoadCANMapFile("../config/can/subaru_global.dbc")
	require.NoError(t, err)
	fromCSV, err := LoadCANMap("../config/can/subaru_global.csv")
	require.NoError(t, err)

	assert.Equal(t, fromCSV.FrameNames(), fromDBC.FrameNames())

	for _, name := range fromCSV.FrameNames() {
		want, err := fromCSV.FrameByName(name)
		require.NoError(t, err)
		got, err := fromDBC.FrameByName(name)
		require.NoError(t, err)

		assert.Equal(t, want.ID, got.ID, name)
		assert.Equal(t, want.DLC, got.DLC, name)
		require.Len(t, got.Signals, len(want.Signals), name)

		values := SignalFrame{}
		for i, s := range want.Signals {
			assert.Equal(t, s.Name, got.Signals[i].Name)
			assert.Equal(t, s.StartBit, got.Signals[i].StartBit)
			assert.Equal(t, s.BitLength, got.Signals[i].BitLength)
			assert.Equal(t, s.Signed, got.Signals[i].Signed)
			values[s.Name] = i % 2
		}

		a, err := fromCSV.MakeCANMsg(name, 0, values)
		require.NoError(t, err)
		b, err := fromDBC.MakeCANMsg(name, 0, values)
		require.NoError(t, err)
		assert.Equal(t, a.Payload(), b.Payload(), name)
	}
}

func TestParseDBCError(t *testing.T) {
	_, err := ParseDBC("broken.dbc", []byte("BO_ nope"))
	assert.Error(t, err)
}
