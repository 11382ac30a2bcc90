package subaru

import (
	"errors"
	"fmt"

	"subaru-lkas-can/utils"
)

// Pre-global frames carry no rolling counter; instead byte 7 holds the sum of
// bytes 0-6.
const (
	preglobalChecksumSignal = "Checksum"
	preglobalChecksumBytes  = 7
	preglobalFrameLen       = preglobalChecksumBytes + 1
)

// ErrChecksumLayout reports a pre-global frame that cannot carry the byte-sum
// checksum: shorter than 8 bytes, or with Checksum inside bytes 0-6.
var ErrChecksumLayout = errors.New("pre-global checksum layout")

// PreglobalChecksum encodes values into msg on bus 0 and returns the sum of
// the first seven payload bytes modulo 256.
func PreglobalChecksum(p Packer, msg string, values SignalFrame) (int, error) {
	f, err := p.MakeCANMsg(msg, 0, values)
	if err != nil {
		return 0, err
	}
	if n := len(f.Payload()); n < preglobalFrameLen {
		return 0, fmt.Errorf("%s: %w: %d byte payload", msg, ErrChecksumLayout, n)
	}
	return payloadChecksum(f.Payload()), nil
}

// payloadChecksum sums dat[0:7]; callers guarantee at least 8 bytes.
func payloadChecksum(dat []byte) int {
	var sum int
	for _, b := range dat[:preglobalChecksumBytes] {
		sum += int(b)
	}
	return sum % 256
}

// CheckPreglobalMap verifies that every pre-global frame built here is 8 bytes
// long with Checksum in the last byte, so the checksum never feeds its own sum.
func CheckPreglobalMap(m *utils.CANMap) error {
	for _, msg := range []string{msgESLKAS, msgESDistance} {
		fd, err := m.FrameByName(msg)
		if err != nil {
			return err
		}
		if fd.DLC < preglobalFrameLen {
			return fmt.Errorf("%s: %w: dlc %d", msg, ErrChecksumLayout, fd.DLC)
		}
		sig, ok := fd.Signal(preglobalChecksumSignal)
		if !ok {
			return fmt.Errorf("%s: %w: no %s signal", msg, ErrChecksumLayout, preglobalChecksumSignal)
		}
		if first, _ := sig.BitSpan(); first < preglobalChecksumBytes*8 {
			return fmt.Errorf("%s: %w: %s starts at bit %d", msg, ErrChecksumLayout, preglobalChecksumSignal, first)
		}
	}
	return nil
}

// withChecksum encodes values with their checksum filled in. values is not modified.
func withChecksum(p Packer, msg string, values SignalFrame) (utils.EncodedFrame, error) {
	out := make(SignalFrame, len(values)+1)
	for k, v := range values {
		out[k] = v
	}
	out[preglobalChecksumSignal] = 0
	sum, err := PreglobalChecksum(p, msg, out)
	if err != nil {
		return utils.EncodedFrame{}, err
	}
	out[preglobalChecksumSignal] = sum
	f, err := p.MakeCANMsg(msg, 0, out)
	if err != nil {
		return utils.EncodedFrame{}, err
	}
	if payloadChecksum(f.Payload()) != sum {
		return utils.EncodedFrame{}, fmt.Errorf("%s: %w: %s overlaps bytes 0-6", msg, ErrChecksumLayout, preglobalChecksumSignal)
	}
	return f, nil
}

// CreatePreglobalSteeringControl is the pre-global ES_LKAS torque request.
func CreatePreglobalSteeringControl(p Packer, applySteer int) (utils.EncodedFrame, error) {
	return withChecksum(p, msgESLKAS, SignalFrame{
		"LKAS_Command": applySteer,
		"LKAS_Active":  boolToInt(applySteer != 0),
	})
}

// CreatePreglobalESDistance re-sends the observed ES_Distance with cruiseButton
// pressed. The counter is passed through unchanged.
func CreatePreglobalESDistance(p Packer, cruiseButton int, observed SignalFrame) (utils.EncodedFrame, error) {
	obs, err := ParseESDistance(observed)
	if err != nil {
		return utils.EncodedFrame{}, err
	}
	values := obs.Signals()
	values["Cruise_Button"] = cruiseButton
	return withChecksum(p, msgESDistance, values)
}
