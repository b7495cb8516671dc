package rewrite

import (
	"github.com/gopacket/gopacket"

	"github.com/yanet-platform/tsguard/common/go/tcpopt"
)

// FlowKey identifies one direction of a TCP connection.
type FlowKey struct {
	Network   gopacket.Flow
	Transport gopacket.Flow
}

// NewFlowKey returns the key of the packet's flow.
func NewFlowKey(packet gopacket.Packet) FlowKey {
	key := FlowKey{}
	if network := packet.NetworkLayer(); network != nil {
		key.Network = network.NetworkFlow()
	}
	if transport := packet.TransportLayer(); transport != nil {
		key.Transport = transport.TransportFlow()
	}

	return key
}

// Reverse returns the key of the opposite direction.
func (m FlowKey) Reverse() FlowKey {
	return FlowKey{
		Network:   m.Network.Reverse(),
		Transport: m.Transport.Reverse(),
	}
}

// hash is symmetric: both directions of a connection share it.
func (m FlowKey) hash() uint32 {
	h := m.Network.FastHash() ^ m.Transport.FastHash()
	return uint32(h) ^ uint32(h>>32)
}

// flowClock maps the original timestamp clock of a flow direction onto a
// synthesized one.
//
// The first TSval seen becomes the origin. Later values keep their distance
// from it, so the spoofed clock advances exactly as the original one did.
type flowClock struct {
	origin uint32
	base   uint32
}

func newFlowClock(origin uint32, base uint32) *flowClock {
	return &flowClock{
		origin: origin,
		base:   base,
	}
}

// spoof returns the synthesized counterpart of an original TSval.
func (m *flowClock) spoof(tsVal uint32) uint32 {
	return tcpopt.SynthesizeTimestamp(m.base, tsVal-m.origin).Val
}
