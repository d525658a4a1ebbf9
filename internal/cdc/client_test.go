package cdc

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// pipeConn joins a pair of io.Pipe halves into one io.ReadWriter, giving the
// Client something to read its own commands back out of in tests.
type pipeConn struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p pipeConn) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p pipeConn) Write(b []byte) (int, error) { return p.w.Write(b) }

func TestClientCallRoundTrip(t *testing.T) {
	toServer := newPipe()
	toClient := newPipe()

	client := NewClient(pipeConn{r: toClient.r, w: toServer.w})

	go func() {
		buf := make([]byte, 256)
		n, err := toServer.r.Read(buf)
		if err != nil {
			return
		}
		f, _, err := Parse(buf[:n])
		if err != nil {
			return
		}
		resp, _ := Encode(TypeRSP, f.Seq, []byte(`{"ok":true,"result":"PONG"}`))
		_, _ = toClient.w.Write(resp)
	}()

	resp, err := client.Call(CmdPing, nil)
	require.NoError(t, err)
	require.True(t, resp.Ok)
}

func TestClientCallTimesOutWithoutMatchingResponse(t *testing.T) {
	toServer := newPipe()
	toClient := newPipe()
	client := NewClient(pipeConn{r: toClient.r, w: toServer.w})

	go func() {
		buf := make([]byte, 256)
		_, _ = toServer.r.Read(buf) // drain but never respond
	}()

	start := time.Now()
	_, err := client.Call(CmdPing, nil)
	require.Error(t, err)
	require.GreaterOrEqual(t, time.Since(start), commandTimeout)
}

func TestClientCallIgnoresStaleSeqBeforeMatch(t *testing.T) {
	toServer := newPipe()
	toClient := newPipe()
	client := NewClient(pipeConn{r: toClient.r, w: toServer.w})

	go func() {
		buf := make([]byte, 256)
		n, err := toServer.r.Read(buf)
		if err != nil {
			return
		}
		f, _, err := Parse(buf[:n])
		if err != nil {
			return
		}
		stale, _ := Encode(TypeRSP, f.Seq+1, []byte(`{"ok":true}`))
		_, _ = toClient.w.Write(stale)
		real, _ := Encode(TypeRSP, f.Seq, []byte(`{"ok":true,"result":"PONG"}`))
		_, _ = toClient.w.Write(real)
	}()

	resp, err := client.Call(CmdPing, nil)
	require.NoError(t, err)
	require.True(t, resp.Ok)
}

type pipe struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func newPipe() pipe {
	r, w := io.Pipe()
	return pipe{r: r, w: w}
}
