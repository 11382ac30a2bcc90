package utils

import (
	"fmt"
	"os"

	"go.einride.tech/can/pkg/dbc"
)

const independentSignalsMessage = "VECTOR__INDEPENDENT_SIG_MSG"

// LoadDBC builds a CAN map from the message definitions of a DBC file.
func LoadDBC(path string) (*CANMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDBC(path, data)
}

// ParseDBC parses DBC source; name is only used in error positions.
func ParseDBC(name string, data []byte) (*CANMap, error) {
	p := dbc.NewParser(name, data)
	if err := p.Parse(); err != nil {
		return nil, fmt.Errorf("parse dbc: %w", err)
	}

	m := newCANMap()
	for _, def := range p.Defs() {
		msg, ok := def.(*dbc.MessageDef)
		if !ok || string(msg.Name) == independentSignalsMessage {
			continue
		}
		id := msg.MessageID.ToCAN()
		for _, s := range msg.Signals {
			sig := SignalDef{
				Name:       string(s.Name),
				StartBit:   int(s.StartBit),
				BitLength:  int(s.Size),
				Signed:     s.IsSigned,
				Factor:     s.Factor,
				Offset:     s.Offset,
				Min:        s.Minimum,
				Max:        s.Maximum,
				Unit:       s.Unit,
				Endianness: "little",
			}
			if s.IsBigEndian {
				sig.Endianness = "big"
			}
			// Signals default to the in-range value closest to zero.
			if sig.Min < sig.Max {
				sig.Default = clamp(0, sig.Min, sig.Max)
			}
			if err := m.addSignal(id, string(msg.Name), int(msg.Size), sig); err != nil {
				return nil, err
			}
		}
	}

	m.sortSignals()
	return m, nil
}
