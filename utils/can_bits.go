package utils

import "go.einride.tech/can"

func putBits(d *can.Data, s SignalDef, u uint64) {
	if s.bigEndian() {
		d.SetUnsignedBitsBigEndian(uint8(s.StartBit), uint8(s.BitLength), u)
		return
	}
	d.SetUnsignedBitsLittleEndian(uint8(s.StartBit), uint8(s.BitLength), u)
}

func getBits(d *can.Data, s SignalDef) uint64 {
	if s.bigEndian() {
		return d.UnsignedBitsBigEndian(uint8(s.StartBit), uint8(s.BitLength))
	}
	return d.UnsignedBitsLittleEndian(uint8(s.StartBit), uint8(s.BitLength))
}

func unsignedToRawInt64(u uint64, bitLen int, signed bool) int64 {
	if !signed || bitLen >= 64 {
		return int64(u)
	}
	signBit := uint64(1) << (bitLen - 1)
	if (u & signBit) == 0 {
		return int64(u)
	}
	fullMask := uint64((1 << bitLen) - 1)
	twos := (^u + 1) & fullMask
	return -int64(twos)
}

func rawToUnsigned(raw int64, bitLen int) uint64 {
	if raw >= 0 || bitLen >= 64 {
		return uint64(raw)
	}
	fullMask := uint64((1 << bitLen) - 1)
	u := uint64(-raw)
	twos := (^u + 1) & fullMask
	return twos
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampRaw(raw int64, bitLen int, signed bool) int64 {
	if bitLen <= 0 || bitLen > 63 {
		return raw
	}
	if !signed {
		max := int64((1 << bitLen) - 1)
		if raw < 0 {
			return 0
		}
		if raw > max {
			return max
		}
		return raw
	}
	min := -int64(1 << (bitLen - 1))
	max := int64((1 << (bitLen - 1)) - 1)
	if raw < min {
		return min
	}
	if raw > max {
		return max
	}
	return raw
}
