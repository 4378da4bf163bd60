// Package wire defines the message framing between a session and its worker
// host: newline-delimited JSON carrying request/response pairs correlated by
// id, plus one-way push notifications.
package wire

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// Push notification methods (messages without an id).
const (
	MethodNotify        = "notify"
	MethodTimerActive   = "timer/active"
	MethodTimerInactive = "timer/inactive"
)

// Request is a session-to-host method call.
type Request struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers exactly one Request. Error is set only for engine-level
// failures (unknown method, missing game); user-input validation errors
// travel inside Result as in-band error strings.
type Response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Push is a one-way host-to-session message. It has a method but no id and
// is never answered.
type Push struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Message is the decoded form of one wire line: exactly one of Request,
// Response, or Push.
type Message struct {
	Request  *Request
	Response *Response
	Push     *Push
}

// Decode classifies one wire line. Lines with an id and a method are
// requests; with an id only, responses; with a method only, pushes.
func Decode(line []byte) (Message, error) {
	var probe struct {
		ID     *int64 `json:"id"`
		Method string `json:"method"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}

	switch {
	case probe.ID != nil && probe.Method != "":
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			return Message{}, fmt.Errorf("decode request: %w", err)
		}
		return Message{Request: &req}, nil
	case probe.ID != nil:
		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			return Message{}, fmt.Errorf("decode response: %w", err)
		}
		return Message{Response: &resp}, nil
	case probe.Method != "":
		var push Push
		if err := json.Unmarshal(line, &push); err != nil {
			return Message{}, fmt.Errorf("decode push: %w", err)
		}
		return Message{Push: &push}, nil
	default:
		return Message{}, fmt.Errorf("decode message: neither id nor method present")
	}
}

// NewRequest builds a request, marshaling params.
func NewRequest(id int64, method string, params any) (*Request, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", method, err)
	}
	return &Request{ID: id, Method: method, Params: raw}, nil
}

// NewPush builds a push message, marshaling params.
func NewPush(method string, params any) (*Push, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", method, err)
	}
	return &Push{Method: method, Params: raw}, nil
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	return json.Marshal(params)
}

// IDGenerator hands out correlation ids for requests.
type IDGenerator struct {
	next atomic.Int64
}

// Next returns a unique, increasing id.
func (g *IDGenerator) Next() int64 {
	return g.next.Add(1)
}

// maxLineSize bounds a single wire line. Serialized games are base64 blobs
// and can get large, but not this large.
const maxLineSize = 16 * 1024 * 1024

// Reader reads wire lines from a stream.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader wraps r in a line reader.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{scanner: scanner}
}

// ReadLine returns the next line. Returns io.EOF at end of stream.
func (r *Reader) ReadLine() ([]byte, error) {
	if r.scanner.Scan() {
		// Copy out: the scanner reuses its buffer.
		line := r.scanner.Bytes()
		out := make([]byte, len(line))
		copy(out, line)
		return out, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Writer writes JSON lines to a stream. Safe for concurrent use; each line
// is written atomically with respect to other Write calls.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter wraps w in a line writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write marshals v and writes it as one line.
func (w *Writer) Write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	_, err = w.w.Write([]byte("\n"))
	return err
}
