package cdc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFrameRoundTrip verifies a PING command frame survives encode -> parse
// with CRC acceptance.
func TestFrameRoundTrip(t *testing.T) {
	payload := []byte(`{"cmd":"PING"}`)
	require.Len(t, payload, 14)

	buf, err := Encode(TypeCMD, 0, payload)
	require.NoError(t, err)

	f, n, err := Parse(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, TypeCMD, f.Type)
	require.EqualValues(t, 0, f.Seq)
	require.Equal(t, payload, f.Payload)
}

func TestParseShortFrameRequestsMoreData(t *testing.T) {
	buf, err := Encode(TypeCMD, 5, []byte("x"))
	require.NoError(t, err)

	_, _, err = Parse(buf[:len(buf)-2])
	require.ErrorIs(t, err, ErrShortFrame)
}

func TestParseRejectsCorruptCRC(t *testing.T) {
	buf, err := Encode(TypeCMD, 1, []byte("abc"))
	require.NoError(t, err)
	buf[len(buf)-1] ^= 0xFF

	_, _, err = Parse(buf)
	require.ErrorIs(t, err, ErrBadCRC)
}

func TestParseRejectsBadSync(t *testing.T) {
	buf, err := Encode(TypeCMD, 1, []byte("abc"))
	require.NoError(t, err)
	buf[0] = 0x00

	_, _, err = Parse(buf)
	require.ErrorIs(t, err, ErrBadSync)
}

func TestSeq255RoundTrips(t *testing.T) {
	buf, err := Encode(TypeRSP, 255, nil)
	require.NoError(t, err)
	f, _, err := Parse(buf)
	require.NoError(t, err)
	require.EqualValues(t, 255, f.Seq)
}
