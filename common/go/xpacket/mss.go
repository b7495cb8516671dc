package xpacket

import (
	"encoding/binary"
	"fmt"

	"github.com/gopacket/gopacket"

	"github.com/yanet-platform/tsguard/common/go/tcpopt"
)

// PacketMSS returns the value of the MSS option of a TCP packet.
func PacketMSS(packet gopacket.Packet) (uint16, error) {
	raw, ok := PacketTCPOptions(packet)
	if !ok {
		return 0, fmt.Errorf("not tcp packet")
	}

	for _, opt := range tcpopt.Decode(raw) {
		if opt.Kind == tcpopt.KindMSS {
			if len(opt.Data) != 2 {
				continue
			}
			mss := binary.BigEndian.Uint16(opt.Data)
			return mss, nil
		}
	}

	return 0, fmt.Errorf("no mss option")
}
