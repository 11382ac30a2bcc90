package utils

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMap = `frame_id,frame_name,dlc,signal_name,start_bit,bit_length,endianness,signed,factor,offset,min,max,default,unit,comment
# steering
0x122,ES_LKAS,8,COUNTER,8,4,little,false,1,0,0,15,0,,
0x122,ES_LKAS,8,LKAS_Output,16,13,little,true,-1,0,-4096,4096,0,,
0x122,ES_LKAS,8,SET_1,12,1,little,false,1,0,0,1,1,,
0x200,SPEED,4,Speed,7,16,big,false,0.5,-10,0,0,0,kph,
0x18FF0001,EXT,2,Value,0,16,,false,1,0,0,0,0,,
`

func readTestMap(t *testing.T) *CANMap {
	t.Helper()
	m, err := ReadCANMap(strings.NewReader(testMap))
	require.NoError(t, err)
	return m
}

func TestReadCANMap(t *testing.T) {
	m := readTestMap(t)
	assert.Equal(t, []string{"ES_LKAS", "EXT", "SPEED"}, m.FrameNames())

	fd, err := m.FrameByName("ES_LKAS")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x122), fd.ID)
	require.Len(t, fd.Signals, 3)
	assert.Equal(t, "COUNTER", fd.Signals[0].Name)
	assert.Equal(t, "SET_1", fd.Signals[1].Name, "signals sorted by start bit")

	ext, err := m.FrameByID(0x18FF0001)
	require.NoError(t, err)
	assert.Equal(t, "little", ext.Signals[0].Endianness)
}

func TestReadCANMapErrors(t *testing.T) {
	hdr := "frame_id,frame_name,dlc,signal_name,start_bit,bit_length,endianness,signed,factor,offset,min,max,default\n"
	cases := map[string]string{
		"missing column": "frame_id,frame_name\n0x1,A\n",
		"bad id":         hdr + "zz,A,8,S,0,8,little,false,1,0,0,0,0\n",
		"bad dlc":        hdr + "0x1,A,9,S,0,8,little,false,1,0,0,0,0\n",
		"bad length":     hdr + "0x1,A,8,S,0,0,little,false,1,0,0,0,0\n",
		"out of range":   hdr + "0x1,A,8,S,60,8,little,false,1,0,0,0,0\n",
		"past dlc":       hdr + "0x1,A,4,S,56,8,little,false,1,0,0,0,0\n",
		"big past dlc":   hdr + "0x1,A,2,S,7,24,big,false,1,0,0,0,0\n",
		"big start":      hdr + "0x1,A,8,S,64,8,big,false,1,0,0,0,0\n",
		"bad endianness": hdr + "0x1,A,8,S,0,8,middle,false,1,0,0,0,0\n",
		"dlc mismatch":   hdr + "0x1,A,8,S,0,8,little,false,1,0,0,0,0\n0x1,A,4,T,8,8,little,false,1,0,0,0,0\n",
		"duplicate":      hdr + "0x1,A,8,S,0,8,little,false,1,0,0,0,0\n0x1,A,8,S,8,8,little,false,1,0,0,0,0\n",
		"name reused":    hdr + "0x1,A,8,S,0,8,little,false,1,0,0,0,0\n0x2,A,8,T,0,8,little,false,1,0,0,0,0\n",
		"overlap":        hdr + "0x1,A,8,S,8,13,little,true,1,0,0,0,0\n0x1,A,8,T,16,8,little,false,1,0,0,0,0\n",
		"big overlap":    hdr + "0x1,A,8,S,7,16,big,false,1,0,0,0,0\n0x1,A,8,T,8,4,little,false,1,0,0,0,0\n",
		"bad signed":     hdr + "0x1,A,8,S,0,8,little,maybe,1,0,0,0,0\n",
		"bad factor":     hdr + "0x1,A,8,S,0,8,little,false,x,0,0,0,0\n",
		"empty default":  hdr + "0x1,A,8,S,0,8,little,false,1,0,0,0,\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCANMap(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestReadCANMapRejectsMalformedNumbers(t *testing.T) {
	hdr := "frame_id,frame_name,dlc,signal_name,start_bit,bit_length,endianness,signed,factor,offset,min,max,default\n"
	src := hdr +
		"0x164,ES_LKAS,8,LKAS_Command,8,13,little,true,1,0,-4096,4096,0\n" +
		"0x164,ES_LKAS,8,Checksum,5six,8,little,false,1,0,0,255,0\n"

	_, err := ReadCANMap(strings.NewReader(src))
	require.Error(t, err)
	assert.True(t, errors.Is(err, strconv.ErrSyntax))
	assert.Contains(t, err.Error(), `frame ES_LKAS signal Checksum: invalid start_bit "5six"`)

	_, err = ReadCANMap(strings.NewReader(hdr + "0x1,A,eight,S,0,8,little,false,1,0,0,0,0\n"))
	assert.ErrorContains(t, err, `invalid dlc "eight"`)
}

func TestReadCANMapRejectsOverlap(t *testing.T) {
	hdr := "frame_id,frame_name,dlc,signal_name,start_bit,bit_length,endianness,signed,factor,offset,min,max,default\n"
	src := hdr +
		"0x164,ES_LKAS,8,LKAS_Command,8,13,little,true,1,0,-4096,4096,0\n" +
		"0x164,ES_LKAS,8,Checksum,16,8,little,false,1,0,0,255,0\n"

	_, err := ReadCANMap(strings.NewReader(src))
	assert.ErrorContains(t, err, "frame ES_LKAS: signal Checksum overlaps LKAS_Command")
}

func TestMakeCANMsgRoundTrip(t *testing.T) {
	m := readTestMap(t)

	f, err := m.MakeCANMsg("ES_LKAS", 1, SignalFrame{"COUNTER": 9, "LKAS_Output": -150})
	require.NoError(t, err)
	assert.Equal(t, 1, f.Bus)
	assert.Equal(t, uint32(0x122), f.ID)
	assert.False(t, f.IsExtended)
	assert.Equal(t, []byte{0x00, 0x19, 0x96, 0x00, 0, 0, 0, 0}, f.Payload())

	got, err := m.Decode(f.ID, f.Payload())
	require.NoError(t, err)
	assert.Equal(t, SignalFrame{"COUNTER": 9, "LKAS_Output": -150, "SET_1": 1}, got)
}

func TestMakeCANMsgClamps(t *testing.T) {
	m := readTestMap(t)

	f, err := m.MakeCANMsg("ES_LKAS", 0, SignalFrame{"COUNTER": 99, "LKAS_Output": 9000})
	require.NoError(t, err)
	got, err := m.Decode(f.ID, f.Payload())
	require.NoError(t, err)
	assert.Equal(t, 15, got["COUNTER"])
	assert.Equal(t, 4096, got["LKAS_Output"])
}

func TestMakeCANMsgScaledBigEndian(t *testing.T) {
	m := readTestMap(t)

	f, err := m.MakeCANMsg("SPEED", 0, SignalFrame{"Speed": 90})
	require.NoError(t, err)
	require.Len(t, f.Payload(), 4)
	// (90 - -10) / 0.5 = 200
	assert.Equal(t, []byte{0x00, 0xC8, 0, 0}, f.Payload())

	got, err := m.Decode(f.ID, f.Payload())
	require.NoError(t, err)
	assert.Equal(t, 90, got["Speed"])

	ext, err := m.MakeCANMsg("EXT", 0, SignalFrame{"Value": 0x1234})
	require.NoError(t, err)
	assert.True(t, ext.IsExtended)
	assert.Equal(t, []byte{0x34, 0x12}, ext.Payload())
}

func TestMakeCANMsgErrors(t *testing.T) {
	m := readTestMap(t)

	_, err := m.MakeCANMsg("NOPE", 0, nil)
	assert.True(t, errors.Is(err, ErrUnknownFrame))

	_, err = m.MakeCANMsg("ES_LKAS", 0, SignalFrame{"Bogus": 1})
	assert.True(t, errors.Is(err, ErrUnknownSignal))

	_, err = m.Decode(0x999, make([]byte, 8))
	assert.True(t, errors.Is(err, ErrUnknownFrame))

	_, err = m.Decode(0x122, make([]byte, 3))
	assert.Error(t, err)
}

func TestLoadBundledMaps(t *testing.T) {
	global, err := LoadCANMapFile("../config/can/subaru_global.csv")
	require.NoError(t, err)
	for _, name := range []string{"ES_LKAS", "ES_Distance", "ES_LKAS_State", "ES_DashStatus", "INFOTAINMENT_STATUS"} {
		_, err := global.FrameByName(name)
		assert.NoError(t, err, name)
	}

	pre, err := LoadCANMapFile("../config/can/subaru_preglobal.csv")
	require.NoError(t, err)
	fd, err := pre.FrameByName("ES_LKAS")
	require.NoError(t, err)
	sig, ok := fd.Signal("Checksum")
	require.True(t, ok)
	assert.Equal(t, 56, sig.StartBit)
}
