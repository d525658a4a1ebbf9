package cdc

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServerDispatchesPing(t *testing.T) {
	out := &bytes.Buffer{}
	s := NewServer(NewDispatcher(), out)

	frame, err := Encode(TypeCMD, 7, []byte(`{"cmd":"PING"}`))
	require.NoError(t, err)
	s.Feed(frame)

	f, n, err := Parse(out.Bytes())
	require.NoError(t, err)
	require.Equal(t, out.Len(), n)
	require.Equal(t, TypeRSP, f.Type)
	require.EqualValues(t, 7, f.Seq)

	var resp Response
	require.NoError(t, json.Unmarshal(f.Payload, &resp))
	require.True(t, resp.Ok)
	var pong string
	require.NoError(t, json.Unmarshal(resp.Result, &pong))
	require.Equal(t, "PONG", pong)
}

func TestServerUnknownCommandRespondsNotOk(t *testing.T) {
	out := &bytes.Buffer{}
	s := NewServer(NewDispatcher(), out)

	frame, err := Encode(TypeCMD, 1, []byte(`{"cmd":"NOPE"}`))
	require.NoError(t, err)
	s.Feed(frame)

	f, _, err := Parse(out.Bytes())
	require.NoError(t, err)
	var resp Response
	require.NoError(t, json.Unmarshal(f.Payload, &resp))
	require.False(t, resp.Ok)
	require.Contains(t, resp.Error, "NOPE")
}

func TestServerMalformedJSONSendsNAK(t *testing.T) {
	out := &bytes.Buffer{}
	s := NewServer(NewDispatcher(), out)

	frame, err := Encode(TypeCMD, 2, []byte(`not json`))
	require.NoError(t, err)
	s.Feed(frame)

	f, _, err := Parse(out.Bytes())
	require.NoError(t, err)
	require.Equal(t, TypeNAK, f.Type)
	require.EqualValues(t, 2, f.Seq)
}

func TestServerDropsCorruptFrameWithoutResponse(t *testing.T) {
	out := &bytes.Buffer{}
	s := NewServer(NewDispatcher(), out)

	frame, err := Encode(TypeCMD, 3, []byte(`{"cmd":"PING"}`))
	require.NoError(t, err)
	frame[len(frame)-1] ^= 0xFF // corrupt CRC

	s.Feed(frame)
	require.Zero(t, out.Len(), "a malformed frame gets no response")
}

func TestServerResyncsPastGarbageBytes(t *testing.T) {
	out := &bytes.Buffer{}
	s := NewServer(NewDispatcher(), out)

	good, err := Encode(TypeCMD, 9, []byte(`{"cmd":"PING"}`))
	require.NoError(t, err)

	garbage := []byte{0x00, 0x01, 0x02}
	s.Feed(append(garbage, good...))

	f, _, err := Parse(out.Bytes())
	require.NoError(t, err)
	require.Equal(t, TypeRSP, f.Type)
	require.EqualValues(t, 9, f.Seq)
}

func TestServerRegisteredHandlerReceivesArgs(t *testing.T) {
	out := &bytes.Buffer{}
	d := NewDispatcher()
	var gotArgs string
	d.Register("ECHO", func(args json.RawMessage) (any, error) {
		var s string
		_ = json.Unmarshal(args, &s)
		gotArgs = s
		return s, nil
	})
	s := NewServer(d, out)

	frame, err := Encode(TypeCMD, 0, []byte(`{"cmd":"ECHO","args":"hi"}`))
	require.NoError(t, err)
	s.Feed(frame)

	require.Equal(t, "hi", gotArgs)
}

func TestServerEmitAssignsWrappingSeq(t *testing.T) {
	out := &bytes.Buffer{}
	s := NewServer(NewDispatcher(), out)
	s.evtSeq = 255

	s.Emit([]byte("a"))
	s.Emit([]byte("b"))

	f1, n1, err := Parse(out.Bytes())
	require.NoError(t, err)
	require.EqualValues(t, 255, f1.Seq)

	f2, _, err := Parse(out.Bytes()[n1:])
	require.NoError(t, err)
	require.EqualValues(t, 0, f2.Seq)
}
