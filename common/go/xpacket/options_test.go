package xpacket

import (
	"net"
	"testing"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanet-platform/tsguard/common/go/tcpopt"
)

var testTimestamp = tcpopt.Timestamp{Val: 0x12345678, Ecr: 0x87654321}

func testOptions() []layers.TCPOption {
	return []layers.TCPOption{
		{OptionType: layers.TCPOptionKindMSS, OptionLength: 4, OptionData: []byte{0x05, 0xb4}},
		{OptionType: layers.TCPOptionKindNop, OptionLength: 1},
		{OptionType: layers.TCPOptionKindNop, OptionLength: 1},
		{OptionType: layers.TCPOptionKindTimestamps, OptionLength: 10, OptionData: testTimestamp.Bytes()},
	}
}

// testLayers returns fresh layers on every call, since serialization
// mutates them.
func testLayers(options []layers.TCPOption) []gopacket.SerializableLayer {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff},
		EthernetType: layers.EthernetTypeIPv4,
	}

	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.IP{192, 168, 1, 10},
		DstIP:    net.IP{192, 168, 1, 20},
	}

	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(12345),
		DstPort: layers.TCPPort(80),
		SYN:     true,
		Seq:     1105024978,
		Window:  14600,
		Options: options,
	}
	tcp.SetNetworkLayerForChecksum(ip)

	return []gopacket.SerializableLayer{eth, ip, tcp, gopacket.Payload("hello")}
}

func TestPacketTCPOptions(t *testing.T) {
	pkt := LayersToPacket(t, testLayers(testOptions())...)

	raw, ok := PacketTCPOptions(pkt)
	require.True(t, ok)

	expected := append([]byte{0x02, 0x04, 0x05, 0xb4, 0x01, 0x01, 0x08, 0x0a}, testTimestamp.Bytes()...)
	assert.Equal(t, expected, raw)

	analysis := tcpopt.Analyze(raw)
	require.NotNil(t, analysis.Timestamp)
	assert.Equal(t, testTimestamp, *analysis.Timestamp)
}

func TestPacketTCPOptions_NoOptions(t *testing.T) {
	pkt := LayersToPacket(t, testLayers(nil)...)

	raw, ok := PacketTCPOptions(pkt)
	require.True(t, ok)
	assert.Empty(t, raw)
}

func TestPacketTCPOptions_NotTCP(t *testing.T) {
	lyrs := testLayers(nil)
	ip := lyrs[1].(*layers.IPv4)
	ip.Protocol = layers.IPProtocolUDP
	udp := &layers.UDP{SrcPort: 5000, DstPort: 5001}
	udp.SetNetworkLayerForChecksum(ip)

	pkt := LayersToPacket(t, lyrs[0], ip, udp, gopacket.Payload("hello"))

	_, ok := PacketTCPOptions(pkt)
	assert.False(t, ok)

	_, err := PacketMSS(pkt)
	assert.Error(t, err)
}

func TestPacketTCPOptions_MalformedFallback(t *testing.T) {
	data, err := SerializeLayers(testLayers(testOptions())...)
	require.NoError(t, err)

	// Ethernet (14) + IPv4 (20) + TCP fixed header (20), then the MSS
	// option length byte.
	data[14+20+20+1] = 0

	pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)
	require.NotNil(t, pkt.ErrorLayer(), "gopacket is expected to reject the options")

	raw, ok := PacketTCPOptions(pkt)
	require.True(t, ok)
	require.Len(t, raw, 16)

	options, err := tcpopt.Parse(raw)
	assert.ErrorIs(t, err, tcpopt.ErrInvalidLength)
	assert.Empty(t, options)

	_, err = RewriteTCPOptions(pkt, options)
	assert.Error(t, err)
}

func TestPacketMSS(t *testing.T) {
	pkt := LayersToPacket(t, testLayers(testOptions())...)

	mss, err := PacketMSS(pkt)
	require.NoError(t, err)
	assert.Equal(t, uint16(1460), mss)

	pkt = LayersToPacket(t, testLayers(nil)...)
	_, err = PacketMSS(pkt)
	assert.Error(t, err)
}

func TestRewriteTCPOptions(t *testing.T) {
	pkt := LayersToPacket(t, testLayers(testOptions())...)

	raw, ok := PacketTCPOptions(pkt)
	require.True(t, ok)

	stripped := tcpopt.WithoutKind(tcpopt.Decode(raw), tcpopt.KindTimestamp)
	data, err := RewriteTCPOptions(pkt, stripped)
	require.NoError(t, err)

	// The rewritten frame must be byte-identical to one built with the
	// stripped options from scratch, checksums included.
	expected, err := SerializeLayers(testLayers(ToLayerOptions(stripped))...)
	require.NoError(t, err)
	assert.Equal(t, expected, data)

	rewritten := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)
	require.Nil(t, rewritten.ErrorLayer())

	rawRewritten, ok := PacketTCPOptions(rewritten)
	require.True(t, ok)
	assert.Equal(t, tcpopt.Encode(stripped), rawRewritten)
	assert.Equal(t, []byte("hello"), rewritten.ApplicationLayer().Payload())

	// The source packet is not modified.
	rawAfter, _ := PacketTCPOptions(pkt)
	assert.Equal(t, raw, rawAfter)
}

func TestRewriteTCPOptions_NotTCP(t *testing.T) {
	lyrs := testLayers(nil)
	ip := lyrs[1].(*layers.IPv4)
	ip.Protocol = layers.IPProtocolUDP
	udp := &layers.UDP{SrcPort: 5000, DstPort: 5001}
	udp.SetNetworkLayerForChecksum(ip)

	pkt := LayersToPacket(t, lyrs[0], ip, udp, gopacket.Payload("hello"))

	_, err := RewriteTCPOptions(pkt, nil)
	assert.ErrorIs(t, err, ErrNotTCP)
}

func TestLayerOptionsConversion(t *testing.T) {
	options := FromLayerOptions(testOptions())
	require.Len(t, options, 4)

	assert.Equal(t, tcpopt.KindMSS, options[0].Kind)
	assert.Equal(t, tcpopt.Option{Kind: tcpopt.KindNop, Length: 1}, options[1])
	assert.Equal(t, tcpopt.KindTimestamp, options[3].Kind)

	assert.Equal(t, testOptions(), ToLayerOptions(options))
}
