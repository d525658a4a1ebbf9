package cdc

import (
	"encoding/json"
	"io"
)

// Server pumps bytes from a non-blocking serial reader through the frame
// parser and dispatches CMD frames synchronously, matching the main loop's
// single-threaded cooperative model: Feed is called once per
// control-plane.task tick with whatever the transport has available, and
// every RSP/EVT write happens inline before Feed returns.
type Server struct {
	dispatcher *Dispatcher
	out        io.Writer
	buf        []byte
	evtSeq     byte
}

// NewServer returns a Server that writes frames to out and routes CMD
// frames through d.
func NewServer(d *Dispatcher, out io.Writer) *Server {
	return &Server{dispatcher: d, out: out}
}

// Feed appends newly read bytes and drains every complete frame found in
// the buffer. Malformed frames (bad CRC) are dropped silently per the
// control-plane's malformed-frame policy: the caller's CMD simply times
// out. A bad sync byte resyncs by discarding one byte at a time.
func (s *Server) Feed(data []byte) {
	s.buf = append(s.buf, data...)
	for {
		f, n, err := Parse(s.buf)
		switch {
		case err == ErrShortFrame:
			return
		case err == ErrBadSync:
			s.buf = s.buf[1:]
			continue
		case err != nil:
			// CRC mismatch or similar: drop the whole malformed frame, no response.
			s.buf = s.buf[n:]
			continue
		default:
			s.buf = s.buf[n:]
			s.handle(f)
		}
	}
}

func (s *Server) handle(f Frame) {
	if f.Type != TypeCMD {
		return
	}

	var req Request
	if err := json.Unmarshal(f.Payload, &req); err != nil {
		s.write(TypeNAK, f.Seq, []byte(`{"error":"malformed json"}`))
		return
	}

	result, err, found := s.dispatcher.Dispatch(req)
	if !found {
		s.writeResponse(f.Seq, Response{Ok: false, Error: "unknown command: " + req.Cmd})
		return
	}
	if err != nil {
		s.writeResponse(f.Seq, Response{Ok: false, Error: err.Error()})
		return
	}

	var raw json.RawMessage
	if result != nil {
		raw, err = json.Marshal(result)
		if err != nil {
			s.writeResponse(f.Seq, Response{Ok: false, Error: err.Error()})
			return
		}
	}
	s.writeResponse(f.Seq, Response{Ok: true, Result: raw})
}

func (s *Server) writeResponse(seq byte, resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	s.write(TypeRSP, seq, payload)
}

// Emit sends an unsolicited EVT frame (input stream, debug log) with an
// internally assigned, wrapping sequence number.
func (s *Server) Emit(payload []byte) {
	s.write(TypeEVT, s.evtSeq, payload)
	s.evtSeq++
}

func (s *Server) write(t Type, seq byte, payload []byte) {
	frame, err := Encode(t, seq, payload)
	if err != nil {
		return
	}
	_, _ = s.out.Write(frame)
}
