package capture

import (
	"bufio"
	"fmt"
	"os"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
)

// Writer writes packets to a classic pcap file.
type Writer struct {
	file   *os.File
	buf    *bufio.Writer
	w      *pcapgo.Writer
	closed bool
}

// Create creates a pcap file at the given path and writes its header.
func Create(path string, snaplen uint32, linkType layers.LinkType) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture: %w", err)
	}

	buf := bufio.NewWriter(file)
	w := pcapgo.NewWriter(buf)
	if err := w.WriteFileHeader(snaplen, linkType); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write capture header: %w", err)
	}

	return &Writer{
		file: file,
		buf:  buf,
		w:    w,
	}, nil
}

// WritePacket writes the packet data with the given capture metadata.
//
// Capture lengths are adjusted to the data size, keeping the difference
// between the original and captured lengths of truncated packets.
func (m *Writer) WritePacket(ci gopacket.CaptureInfo, data []byte) error {
	truncated := ci.Length - ci.CaptureLength
	if truncated < 0 {
		truncated = 0
	}

	ci.CaptureLength = len(data)
	ci.Length = len(data) + truncated

	if err := m.w.WritePacket(ci, data); err != nil {
		return fmt.Errorf("failed to write packet: %w", err)
	}

	return nil
}

// Close flushes buffered packets and closes the file. Subsequent calls do
// nothing.
func (m *Writer) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	flushErr := m.buf.Flush()
	closeErr := m.file.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush capture: %w", flushErr)
	}
	return closeErr
}
