package utils

import (
	"errors"
	"sort"

	"go.einride.tech/can"
)

var (
	// ErrUnknownFrame is returned when a frame name or id is not in the map.
	ErrUnknownFrame = errors.New("unknown frame")
	// ErrUnknownSignal is returned when a value names a signal the frame does not carry.
	ErrUnknownSignal = errors.New("unknown signal")
)

type SignalDef struct {
	Name       string
	StartBit   int
	BitLength  int
	Signed     bool
	Factor     float64
	Offset     float64
	Min        float64
	Max        float64
	Default    float64
	Unit       string
	Comment    string
	Endianness string // "little" or "big" (DBC/Motorola start bit)
}

func (s SignalDef) bigEndian() bool { return s.Endianness == "big" }

// BitSpan returns the first and last payload bit the signal occupies,
// counted in transmission order for big-endian signals.
func (s SignalDef) BitSpan() (first, last int) {
	if s.bigEndian() {
		first = s.StartBit/8*8 + 7 - s.StartBit%8
		return first, first + s.BitLength - 1
	}
	return s.StartBit, s.StartBit + s.BitLength - 1
}

// bitMask has bit byte*8+n set for every payload bit the signal occupies.
// Only valid for signals that fit in eight bytes.
func (s SignalDef) bitMask() uint64 {
	first, last := s.BitSpan()
	var mask uint64
	for p := first; p <= last; p++ {
		if s.bigEndian() {
			mask |= 1 << (p/8*8 + 7 - p%8)
		} else {
			mask |= 1 << p
		}
	}
	return mask
}

type FrameDef struct {
	ID      uint32
	Name    string
	DLC     int
	Signals []SignalDef
}

// Signal returns the definition of the named signal.
func (fd *FrameDef) Signal(name string) (SignalDef, bool) {
	for _, s := range fd.Signals {
		if s.Name == name {
			return s, true
		}
	}
	return SignalDef{}, false
}

type CANMap struct {
	ByID   map[uint32]*FrameDef
	ByName map[string]*FrameDef
}

func newCANMap() *CANMap {
	return &CANMap{
		ByID:   map[uint32]*FrameDef{},
		ByName: map[string]*FrameDef{},
	}
}

func (m *CANMap) FrameNames() []string {
	out := make([]string, 0, len(m.ByName))
	for k := range m.ByName {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SignalFrame maps signal names to integer values. It is either a snapshot of
// an observed frame or the values to encode into an outgoing one.
type SignalFrame map[string]int

// EncodedFrame is a packed frame together with the bus it is meant for.
type EncodedFrame struct {
	Bus int
	can.Frame
}

// Payload returns the valid data bytes of the frame.
func (f EncodedFrame) Payload() []byte {
	return f.Data[:f.Length]
}
