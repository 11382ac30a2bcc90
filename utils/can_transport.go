package utils

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

type CANWriter interface {
	WriteFrame(ctx context.Context, frame EncodedFrame) error
	Close() error
}

// SocketCANWriter transmits frames on a single SocketCAN interface. The
// frame's bus index is not used for routing.
type SocketCANWriter struct {
	conn net.Conn
	tx   *socketcan.Transmitter
}

func NewSocketCANWriter(ctx context.Context, iface string) (*SocketCANWriter, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial: %w", err)
	}
	return &SocketCANWriter{
		conn: conn,
		tx:   socketcan.NewTransmitter(conn),
	}, nil
}

func (w *SocketCANWriter) WriteFrame(ctx context.Context, frame EncodedFrame) error {
	return w.tx.TransmitFrame(ctx, frame.Frame)
}

func (w *SocketCANWriter) Close() error {
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

// DumpWriter writes frames as text lines, "bus<N> <ID>#<DATA>", one per frame.
type DumpWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewDumpWriter(w io.Writer) *DumpWriter {
	return &DumpWriter{w: w}
}

func (d *DumpWriter) WriteFrame(ctx context.Context, frame EncodedFrame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := fmt.Fprintf(d.w, "bus%d %s\n", frame.Bus, FormatFrame(frame.Frame))
	return err
}

func (d *DumpWriter) Close() error { return nil }

// FormatFrame renders a frame in candump compact notation.
func FormatFrame(f can.Frame) string {
	var b strings.Builder
	if f.IsExtended {
		fmt.Fprintf(&b, "%08X#", f.ID)
	} else {
		fmt.Fprintf(&b, "%03X#", f.ID)
	}
	for _, c := range f.Data[:f.Length] {
		fmt.Fprintf(&b, "%02X", c)
	}
	return b.String()
}
