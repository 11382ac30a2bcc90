package utils

import (
	"fmt"
	"math"

	"go.einride.tech/can"
)

// MakeCANMsg packs values into the named frame for the given bus. Signals not
// present in values are encoded with their default.
func (m *CANMap) MakeCANMsg(frameName string, bus int, values SignalFrame) (EncodedFrame, error) {
	fd, err := m.FrameByName(frameName)
	if err != nil {
		return EncodedFrame{}, err
	}
	for name := range values {
		if _, ok := fd.Signal(name); !ok {
			return EncodedFrame{}, fmt.Errorf("frame %s: %w %q", fd.Name, ErrUnknownSignal, name)
		}
	}

	var data can.Data
	for _, s := range fd.Signals {
		v := s.Default
		if iv, ok := values[s.Name]; ok {
			v = float64(iv)
		}
		if s.Min < s.Max {
			v = clamp(v, s.Min, s.Max)
		}

		factor := s.Factor
		if factor == 0 {
			factor = 1
		}
		raw := int64(math.Round((v - s.Offset) / factor))
		raw = clampRaw(raw, s.BitLength, s.Signed)
		putBits(&data, s, rawToUnsigned(raw, s.BitLength))
	}

	f := EncodedFrame{Bus: bus}
	f.ID = fd.ID
	f.Length = uint8(fd.DLC)
	f.IsExtended = fd.ID > 0x7FF
	f.Data = data
	return f, nil
}

// Decode unpacks the payload of frameID into integer signal values.
func (m *CANMap) Decode(frameID uint32, data []byte) (SignalFrame, error) {
	fd, err := m.FrameByID(frameID)
	if err != nil {
		return nil, err
	}
	if len(data) < fd.DLC {
		return nil, fmt.Errorf("frame 0x%X expects DLC %d, got %d", frameID, fd.DLC, len(data))
	}

	var d can.Data
	copy(d[:], data)

	out := make(SignalFrame, len(fd.Signals))
	for _, s := range fd.Signals {
		raw := unsignedToRawInt64(getBits(&d, s), s.BitLength, s.Signed)
		factor := s.Factor
		if factor == 0 {
			factor = 1
		}
		out[s.Name] = int(math.Round(float64(raw)*factor + s.Offset))
	}
	return out, nil
}
