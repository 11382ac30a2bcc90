package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// LoadCANMapFile loads a CAN map from a .dbc or .csv file.
func LoadCANMapFile(path string) (*CANMap, error) {
	if strings.EqualFold(filepath.Ext(path), ".dbc") {
		return LoadDBC(path)
	}
	return LoadCANMap(path)
}

func LoadCANMap(csvPath string) (*CANMap, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCANMap(f)
}

// ReadCANMap parses the CSV map format: one row per signal, frames grouped by frame_id.
func ReadCANMap(rd io.Reader) (*CANMap, error) {
	r := csv.NewReader(rd)
	r.TrimLeadingSpace = true
	r.Comment = '#'

	header, err := r.Read()
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	req := []string{
		"frame_id", "frame_name", "dlc",
		"signal_name", "start_bit", "bit_length", "endianness",
		"signed", "factor", "offset", "min", "max", "default",
	}
	for _, k := range req {
		if _, ok := idx[k]; !ok {
			return nil, fmt.Errorf("can map missing required column: %q", k)
		}
	}
	col := func(rec []string, k string) string {
		i, ok := idx[k]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	m := newCANMap()
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		frameID, err := parseHexOrDecUint32(col(rec, "frame_id"))
		if err != nil {
			return nil, fmt.Errorf("invalid frame_id %q: %w", col(rec, "frame_id"), err)
		}
		frameName := col(rec, "frame_name")
		rp := rowParser{frame: frameName, signal: col(rec, "signal_name"), col: col, rec: rec}
		dlc := rp.intCol("dlc")

		sig := SignalDef{
			Name:       rp.signal,
			StartBit:   rp.intCol("start_bit"),
			BitLength:  rp.intCol("bit_length"),
			Endianness: col(rec, "endianness"),
			Signed:     rp.boolCol("signed"),
			Factor:     rp.floatCol("factor"),
			Offset:     rp.floatCol("offset"),
			Min:        rp.floatCol("min"),
			Max:        rp.floatCol("max"),
			Default:    rp.floatCol("default"),
			Unit:       col(rec, "unit"),
			Comment:    col(rec, "comment"),
		}
		if rp.err != nil {
			return nil, rp.err
		}
		if sig.Endianness == "" {
			sig.Endianness = "little"
		}

		if err := m.addSignal(frameID, frameName, dlc, sig); err != nil {
			return nil, err
		}
	}

	m.sortSignals()
	return m, nil
}

func (m *CANMap) addSignal(frameID uint32, frameName string, dlc int, sig SignalDef) error {
	if sig.Endianness != "little" && sig.Endianness != "big" {
		return fmt.Errorf("frame %s signal %s: unsupported endianness %q",
			frameName, sig.Name, sig.Endianness)
	}
	if sig.BitLength <= 0 || sig.BitLength > 64 {
		return fmt.Errorf("frame %s signal %s: invalid bit_length %d", frameName, sig.Name, sig.BitLength)
	}
	if dlc <= 0 || dlc > 8 {
		return fmt.Errorf("frame %s (0x%X): invalid dlc %d", frameName, frameID, dlc)
	}
	if first, last := sig.BitSpan(); sig.StartBit < 0 || first < 0 || last >= dlc*8 {
		return fmt.Errorf("frame %s signal %s: start_bit %d length %d does not fit in %d bytes",
			frameName, sig.Name, sig.StartBit, sig.BitLength, dlc)
	}

	fd, ok := m.ByID[frameID]
	if !ok {
		if other, dup := m.ByName[frameName]; dup {
			return fmt.Errorf("frame name %s used by 0x%X and 0x%X", frameName, other.ID, frameID)
		}
		fd = &FrameDef{
			ID:      frameID,
			Name:    frameName,
			DLC:     dlc,
			Signals: []SignalDef{},
		}
		m.ByID[frameID] = fd
		m.ByName[frameName] = fd
	}

	if fd.DLC != dlc {
		return fmt.Errorf("frame %s (0x%X) has inconsistent DLC (%d vs %d)", frameName, frameID, fd.DLC, dlc)
	}
	if _, dup := fd.Signal(sig.Name); dup {
		return fmt.Errorf("frame %s: duplicate signal %s", frameName, sig.Name)
	}

	mask := sig.bitMask()
	for _, other := range fd.Signals {
		if other.bitMask()&mask != 0 {
			return fmt.Errorf("frame %s: signal %s overlaps %s", frameName, sig.Name, other.Name)
		}
	}

	fd.Signals = append(fd.Signals, sig)
	return nil
}

func (m *CANMap) sortSignals() {
	for _, fd := range m.ByID {
		sort.SliceStable(fd.Signals, func(i, j int) bool { return fd.Signals[i].StartBit < fd.Signals[j].StartBit })
	}
}

func (m *CANMap) FrameByName(name string) (*FrameDef, error) {
	fd, ok := m.ByName[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownFrame, name, m.FrameNames())
	}
	return fd, nil
}

func (m *CANMap) FrameByID(id uint32) (*FrameDef, error) {
	fd, ok := m.ByID[id]
	if !ok {
		return nil, fmt.Errorf("%w id 0x%X", ErrUnknownFrame, id)
	}
	return fd, nil
}

func parseHexOrDecUint32(s string) (uint32, error) {
	ss := strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(ss, "0x") || strings.HasPrefix(ss, "0X") {
		base = 16
		ss = ss[2:]
	}
	u, err := strconv.ParseUint(ss, base, 32)
	if err != nil {
		return 0, err
	}
	return uint32(u), nil
}

// rowParser reads the numeric columns of one CSV row, keeping the first error.
type rowParser struct {
	frame, signal string
	col           func(rec []string, k string) string
	rec           []string
	err           error
}

func (p *rowParser) fail(k, v string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("frame %s signal %s: invalid %s %q: %w", p.frame, p.signal, k, v, err)
	}
}

func (p *rowParser) intCol(k string) int {
	v := p.col(p.rec, k)
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(k, v, err)
	}
	return n
}

func (p *rowParser) floatCol(k string) float64 {
	v := p.col(p.rec, k)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(k, v, err)
	}
	return f
}

func (p *rowParser) boolCol(k string) bool {
	switch v := strings.ToLower(p.col(p.rec, k)); v {
	case "true", "1", "yes":
		return true
	case "false", "0", "no", "":
		return false
	default:
		p.fail(k, v, strconv.ErrSyntax)
		return false
	}
}
