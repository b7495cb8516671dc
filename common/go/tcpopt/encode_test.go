package tcpopt

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripTimestamp(t *testing.T) {
	original := []byte{
		0x02, 0x04, 0x05, 0xb4,
		0x08, 0x0a, 0x12, 0x34, 0x56, 0x78, 0x87, 0x65, 0x43, 0x21,
		0x01,
		0x00,
	}

	stripped := StripTimestamp(original)
	assert.Zero(t, len(stripped)%4)
	assert.Equal(t, []byte{0x02, 0x04, 0x05, 0xb4, 0x01, 0x00, 0x00, 0x00}, stripped)

	options, err := Parse(stripped)
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, KindMSS, options[0].Kind)
	assert.Equal(t, KindNop, options[1].Kind)
}

func TestStripTimestamp_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected []byte
	}{
		{
			name:     "empty",
			data:     []byte{},
			expected: []byte{},
		},
		{
			name:     "aligned",
			data:     []byte{0x02, 0x04, 0x05, 0xb4, 0x01, 0x03, 0x03, 0x07},
			expected: []byte{0x02, 0x04, 0x05, 0xb4, 0x01, 0x03, 0x03, 0x07},
		},
		{
			name:     "needs padding",
			data:     []byte{0x02, 0x04, 0x05, 0xb4, 0x04, 0x02},
			expected: []byte{0x02, 0x04, 0x05, 0xb4, 0x04, 0x02, 0x00, 0x00},
		},
		{
			name:     "sack blocks",
			data:     []byte{0x01, 0x01, 0x05, 0x0a, 0, 0, 0, 1, 0, 0, 0, 2},
			expected: []byte{0x01, 0x01, 0x05, 0x0a, 0, 0, 0, 1, 0, 0, 0, 2},
		},
		{
			name:     "unknown kind",
			data:     []byte{0x1e, 0x03, 0xaa},
			expected: []byte{0x1e, 0x03, 0xaa, 0x00},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if diff := cmp.Diff(test.expected, StripTimestamp(test.data)); diff != "" {
				t.Fatalf("unexpected bytes (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStripTimestamp_RemovesEveryTimestamp(t *testing.T) {
	ts := []byte{0x08, 0x0a, 0, 0, 0, 1, 0, 0, 0, 2}

	tests := []struct {
		name  string
		count int
	}{
		{"none", 0},
		{"one", 1},
		{"many", 3},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := []byte{0x02, 0x04, 0x05, 0xb4}
			for range test.count {
				data = append(data, 0x01)
				data = append(data, ts...)
			}

			stripped := StripTimestamp(data)
			options, err := Parse(stripped)
			require.NoError(t, err)

			for _, opt := range options {
				assert.NotEqual(t, KindTimestamp, opt.Kind)
			}
			assert.Len(t, options, 1+test.count)
		})
	}
}

func TestStripTimestamp_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for range 10000 {
		data := make([]byte, rng.Intn(41))
		rng.Read(data)

		stripped := StripTimestamp(data)
		require.Zero(t, len(stripped)%4, "data: %x", data)

		for _, opt := range Decode(stripped) {
			require.NotEqual(t, KindTimestamp, opt.Kind, "data: %x", data)
		}

		require.Equal(t, stripped, StripTimestamp(stripped), "data: %x", data)
	}
}

func TestStripTimestamp_Truncated(t *testing.T) {
	// The malformed trailing option and everything after it are dropped.
	data := []byte{0x08, 0x0a, 0, 0, 0, 1, 0, 0, 0, 2, 0x02, 0x04, 0x05}
	assert.Equal(t, []byte{}, StripTimestamp(data))
}

func TestEncode_TrustsLength(t *testing.T) {
	options := []Option{
		{Kind: KindNop, Length: 1},
		{Kind: KindEndOfList, Length: 1},
		{Kind: Kind(0x1e), Length: 7, Data: []byte{0x01}},
	}

	assert.Equal(t, []byte{0x01, 0x00, 0x1e, 0x07, 0x01, 0x00, 0x00, 0x00}, Encode(options))
}

func TestKind_ByteRoundTrip(t *testing.T) {
	for code := range 256 {
		kind := Kind(code)
		assert.Equal(t, byte(code), kind.Byte())
	}
}
