package capture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
)

// pcapngMagic is the block type of the pcapng Section Header Block.
const pcapngMagic = 0x0a0d0d0a

// ErrFileTooLarge is returned when a capture exceeds the configured limit.
var ErrFileTooLarge = errors.New("capture file is too large")

type packetDataSource interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// Reader reads packets from a pcap or pcapng capture file.
type Reader struct {
	file   *os.File
	src    packetDataSource
	format string
	err    error
}

// Open opens the capture file at the given path.
//
// The format is detected from the file magic. If maxSize is not zero, files
// larger than it are rejected with ErrFileTooLarge.
func Open(path string, maxSize datasize.ByteSize) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat capture: %w", err)
	}
	if maxSize != 0 && datasize.ByteSize(stat.Size()) > maxSize {
		file.Close()
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrFileTooLarge, datasize.ByteSize(stat.Size()).HR(), maxSize.HR())
	}

	r, err := newReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read capture header of %s: %w", path, err)
	}
	r.file = file

	return r, nil
}

func newReader(r io.Reader) (*Reader, error) {
	buffered := bufio.NewReader(r)

	magic, err := buffered.Peek(4)
	if err != nil {
		return nil, err
	}

	// The block type is the same in both byte orders.
	if binary.LittleEndian.Uint32(magic) == pcapngMagic {
		src, err := pcapgo.NewNgReader(buffered, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, err
		}
		return &Reader{src: src, format: "pcapng"}, nil
	}

	src, err := pcapgo.NewReader(buffered)
	if err != nil {
		return nil, err
	}
	return &Reader{src: src, format: "pcap"}, nil
}

// LinkType returns the link type of the capture.
func (m *Reader) LinkType() layers.LinkType {
	return m.src.LinkType()
}

// Format returns the detected capture format, "pcap" or "pcapng".
func (m *Reader) Format() string {
	return m.format
}

// Packets returns a sequence of the decoded packets of the capture.
//
// The sequence stops at the end of the file or at the first read error,
// which is then reported by Err.
func (m *Reader) Packets() iter.Seq[gopacket.Packet] {
	source := gopacket.NewPacketSource(m.src, m.src.LinkType())

	return func(yield func(gopacket.Packet) bool) {
		for {
			packet, err := source.NextPacket()
			if err == io.EOF {
				return
			}
			if err != nil {
				m.err = fmt.Errorf("failed to read packet: %w", err)
				return
			}

			if !yield(packet) {
				return
			}
		}
	}
}

// Err returns the error that stopped the packet sequence, if any.
func (m *Reader) Err() error {
	return m.err
}

// Close closes the underlying file.
func (m *Reader) Close() error {
	if m.file == nil {
		return nil
	}
	return m.file.Close()
}
