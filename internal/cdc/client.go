package cdc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// commandTimeout is the CMD/RSP correlation deadline; exceeding it without a
// matching-SEQ RSP surfaces as a timeout to the caller.
const commandTimeout = 2 * time.Second

// Client is the host-side half of the control plane: it assigns sequence
// numbers, writes CMD frames, and blocks for the matching RSP. Used by
// cmd/corebridgectl over a unix socket or stdio (optionally wrapped in an
// authenticated cdc/auth.Conn).
type Client struct {
	rw  io.ReadWriter
	br  *bufio.Reader
	seq byte
}

// NewClient returns a Client that frames commands over rw.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{rw: rw, br: bufio.NewReaderSize(rw, 4096)}
}

// Call sends cmd with args (may be nil) as a CMD frame and waits up to
// commandTimeout for the RSP carrying the same sequence number. Unrelated
// EVT/RSP frames (stale retries, input-stream events) are read and
// discarded until the matching one arrives or the deadline passes.
func (c *Client) Call(cmd string, args any) (Response, error) {
	var argsRaw json.RawMessage
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return Response{}, fmt.Errorf("cdc: marshal args: %w", err)
		}
		argsRaw = raw
	}

	payload, err := json.Marshal(Request{Cmd: cmd, Args: argsRaw})
	if err != nil {
		return Response{}, fmt.Errorf("cdc: marshal request: %w", err)
	}

	seq := c.seq
	c.seq++ // wraps at 256 via byte overflow

	frame, err := Encode(TypeCMD, seq, payload)
	if err != nil {
		return Response{}, err
	}
	if _, err := c.rw.Write(frame); err != nil {
		return Response{}, fmt.Errorf("cdc: write command: %w", err)
	}

	type result struct {
		resp Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		for {
			f, err := c.readFrame()
			if err != nil {
				done <- result{err: err}
				return
			}
			if f.Seq != seq || (f.Type != TypeRSP && f.Type != TypeNAK) {
				continue
			}
			var resp Response
			if f.Type == TypeNAK {
				done <- result{resp: Response{Ok: false, Error: string(f.Payload)}}
				return
			}
			if err := json.Unmarshal(f.Payload, &resp); err != nil {
				done <- result{err: fmt.Errorf("cdc: decode response: %w", err)}
				return
			}
			done <- result{resp: resp}
			return
		}
	}()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-time.After(commandTimeout):
		return Response{}, fmt.Errorf("cdc: command %q timed out waiting for seq %d", cmd, seq)
	}
}

// readFrame reads bytes from the underlying stream until one complete frame
// parses, growing its lookahead as needed.
func (c *Client) readFrame() (Frame, error) {
	window := make([]byte, 0, headerLen+trailerLen)
	for {
		b, err := c.br.ReadByte()
		if err != nil {
			return Frame{}, err
		}
		window = append(window, b)

		f, n, err := Parse(window)
		switch {
		case err == ErrShortFrame:
			continue
		case err == ErrBadSync:
			window = window[1:]
			continue
		case err != nil:
			window = window[n:]
			continue
		default:
			return f, nil
		}
	}
}
