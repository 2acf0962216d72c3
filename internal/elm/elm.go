package elm

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ModeCurrentData is OBD-II service 01, the only mode this tool speaks.
const ModeCurrentData uint8 = 0x01

// DefaultTimeout bounds every receive; set once at startup.
const DefaultTimeout = 3000 * time.Millisecond

var (
	// ErrSend means a request could not be dispatched to the adapter.
	ErrSend = errors.New("elm: request could not be sent")
	// ErrReceive means no decodeable response arrived within the timeout.
	ErrReceive = errors.New("elm: no response before timeout")
)

// Transport is one conversation with an ELM327-style adapter. At most
// one request is in flight: Send must be followed by Receive (or its
// failure) before the next Send.
type Transport interface {
	Connect(ctx context.Context) error
	SetTimeout(d time.Duration)
	Send(mode, pid uint8) error
	Receive() (*Message, error)
	Flush()
	Close() error
}

// A Mode 01 response echoes mode+0x40 and the PID, then the data bytes.
const (
	payloadA = 2
	payloadB = 3
)

var msgPool = sync.Pool{
	New: func() any {
		return &Message{data: make([]byte, 0, 16)}
	},
}

// Message is one raw response from the adapter. It borrows a pooled
// buffer; callers own it only until Release.
type Message struct {
	data []byte
}

// NewMessage wraps raw response bytes in a pooled Message.
func NewMessage(data []byte) *Message {
	m := msgPool.Get().(*Message)
	m.data = append(m.data[:0], data...)
	return m
}

func (m *Message) Bytes() []byte {
	return m.data
}

// PayloadA is the first data byte of a current-data response.
func (m *Message) PayloadA() byte {
	if len(m.data) > payloadA {
		return m.data[payloadA]
	}
	return 0
}

// PayloadB is the second data byte; zero for single-byte responses.
func (m *Message) PayloadB() byte {
	if len(m.data) > payloadB {
		return m.data[payloadB]
	}
	return 0
}

// Release returns the buffer to the pool. The message must not be used
// afterwards.
func (m *Message) Release() {
	m.data = m.data[:0]
	msgPool.Put(m)
}
