package xpacket

import (
	"errors"
	"fmt"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"github.com/yanet-platform/tsguard/common/go/tcpopt"
)

// tcpMinHeaderLen is the size of the TCP header without options.
const tcpMinHeaderLen = 20

// ErrNotTCP is returned when a packet carries no decodable TCP header.
var ErrNotTCP = errors.New("not tcp packet")

// TCPLayer returns the TCP layer of the packet, if decoded.
func TCPLayer(packet gopacket.Packet) (*layers.TCP, bool) {
	tcpLayer := packet.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil {
		return nil, false
	}
	tcp, ok := tcpLayer.(*layers.TCP)
	return tcp, ok
}

// TCPOptions returns the raw options field of a decoded TCP header.
func TCPOptions(tcp *layers.TCP) []byte {
	return headerOptions(tcp.Contents)
}

// PacketTCPOptions returns the raw options field of the packet's TCP header.
//
// gopacket fails to decode a TCP header whose options are malformed. In that
// case the options are taken directly from the network layer payload, so the
// caller can still inspect them.
func PacketTCPOptions(packet gopacket.Packet) ([]byte, bool) {
	if tcp, ok := TCPLayer(packet); ok && len(tcp.Contents) >= tcpMinHeaderLen {
		return TCPOptions(tcp), true
	}

	network := packet.NetworkLayer()
	if network == nil {
		return nil, false
	}

	var proto layers.IPProtocol
	switch ip := network.(type) {
	case *layers.IPv4:
		if ip.Flags&layers.IPv4MoreFragments != 0 || ip.FragOffset != 0 {
			return nil, false
		}
		proto = ip.Protocol
	case *layers.IPv6:
		proto = ip.NextHeader
	default:
		return nil, false
	}
	if proto != layers.IPProtocolTCP {
		return nil, false
	}

	payload := network.LayerPayload()
	if len(payload) < tcpMinHeaderLen {
		return nil, false
	}

	return headerOptions(payload), true
}

func headerOptions(hdr []byte) []byte {
	if len(hdr) < tcpMinHeaderLen {
		return nil
	}

	hdrLen := int(hdr[12]>>4) * 4
	if hdrLen <= tcpMinHeaderLen || hdrLen > len(hdr) {
		return nil
	}

	return hdr[tcpMinHeaderLen:hdrLen]
}

// ToLayerOptions converts decoded options into gopacket options.
func ToLayerOptions(options []tcpopt.Option) []layers.TCPOption {
	out := make([]layers.TCPOption, 0, len(options))
	for _, opt := range options {
		out = append(out, layers.TCPOption{
			OptionType:   layers.TCPOptionKind(opt.Kind.Byte()),
			OptionLength: opt.Length,
			OptionData:   opt.Data,
		})
	}

	return out
}

// FromLayerOptions converts gopacket options into decoded options.
func FromLayerOptions(opts []layers.TCPOption) []tcpopt.Option {
	out := make([]tcpopt.Option, 0, len(opts))
	for _, opt := range opts {
		kind := tcpopt.Kind(opt.OptionType)
		if kind.IsPadding() {
			out = append(out, tcpopt.Option{Kind: kind, Length: 1})
			continue
		}

		out = append(out, tcpopt.Option{
			Kind:   kind,
			Length: opt.OptionLength,
			Data:   opt.OptionData,
		})
	}

	return out
}

// RewriteTCPOptions serializes the packet again with the TCP options
// replaced by the given ones.
//
// Layers up to and including TCP are re-serialized, the TCP payload is
// copied verbatim. Lengths, the data offset and checksums are recomputed.
// The decoded packet is left untouched.
func RewriteTCPOptions(packet gopacket.Packet, options []tcpopt.Option) ([]byte, error) {
	tcp, ok := TCPLayer(packet)
	if !ok {
		return nil, ErrNotTCP
	}
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return nil, fmt.Errorf("packet is not fully decoded: %w", errLayer.Error())
	}

	lyrs := []gopacket.SerializableLayer{}
	for _, layer := range packet.Layers() {
		if layer.LayerType() == layers.LayerTypeTCP {
			break
		}

		serializable, ok := layer.(gopacket.SerializableLayer)
		if !ok {
			return nil, fmt.Errorf("layer %s is not serializable", layer.LayerType())
		}
		lyrs = append(lyrs, serializable)
	}

	rewritten := *tcp
	rewritten.Options = ToLayerOptions(options)
	rewritten.Padding = nil

	if network := packet.NetworkLayer(); network != nil {
		if err := rewritten.SetNetworkLayerForChecksum(network); err != nil {
			return nil, fmt.Errorf("failed to set network layer for checksum: %w", err)
		}
	}

	lyrs = append(lyrs, &rewritten, gopacket.Payload(tcp.Payload))

	return SerializeLayers(lyrs...)
}
