package leb128

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type byteSliceReader struct {
	b   []byte
	pos int
}

func (r *byteSliceReader) ReadByte() (byte, error) {
	if r.pos >= len(r.b) {
		return 0, bytes.ErrTooLarge
	}
	b := r.b[r.pos]
	r.pos++
	return b, nil
}

func TestReadUint32(t *testing.T) {
	cases := []struct {
		bytes []byte
		want  uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xffffffff},
	}
	for _, c := range cases {
		got, err := ReadUint32(&byteSliceReader{b: c.bytes})
		require.NoError(t, err)
		require.Equal(t, c.want, got)
	}
}

func TestReadInt32(t *testing.T) {
	cases := []struct {
		bytes []byte
		want  int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, -1},
		{[]byte{0xff, 0x00}, 127},
		{[]byte{0x81, 0x7f}, -127},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x78}, -0x80000000},
	}
	for _, c := range cases {
		got, err := ReadInt32(&byteSliceReader{b: c.bytes})
		require.NoError(t, err)
		require.Equal(t, c.want, got)
	}
}

func TestReadUint64MaxValue(t *testing.T) {
	// 10 bytes encoding a value requiring a full 64 bits, must decode cleanly
	got, err := ReadUint64(&byteSliceReader{b: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}})
	require.NoError(t, err)
	require.Equal(t, uint64(0xffffffffffffffff), got)
}

func TestReadInt64RoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 3628800, -3628800, 1<<62 - 1, -(1 << 62)}
	for _, want := range cases {
		enc := encodeSignedForTest(want)
		got, err := ReadInt64(&byteSliceReader{b: enc})
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

// encodeSignedForTest is a minimal signed LEB128 encoder used only to build
// fixtures for the round-trip test above.
func encodeSignedForTest(v int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}
