package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"elmdiag/internal/elm"
	"elmdiag/pkg/log"
)

// Transport is a hardware-free elm.Transport used for demo runs and
// testing. It answers every known PID with a plausible fixed payload.
type Transport struct {
	mu        sync.Mutex
	connected bool
	pending   []byte
	values    map[uint8][2]byte
}

func New() *Transport {
	return &Transport{
		// Warm idling engine: closed loop, light load, 95 degC coolant,
		// ~1675 rpm, 60 km/h.
		values: map[uint8][2]byte{
			0x03: {2, 0},
			0x04: {88, 0},
			0x05: {95, 0},
			0x0A: {120, 0},
			0x0B: {101, 0},
			0x0C: {0x1A, 0x2C},
			0x0D: {60, 0},
		},
	}
}

func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = true
	log.Info("using mock adapter")
	return nil
}

func (t *Transport) SetTimeout(d time.Duration) {}

func (t *Transport) Send(mode, pid uint8) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return fmt.Errorf("%w: not connected", elm.ErrSend)
	}
	payload, ok := t.values[pid]
	if !ok {
		t.pending = nil
		return nil
	}
	t.pending = []byte{mode | 0x40, pid, payload[0], payload[1]}
	return nil
}

func (t *Transport) Receive() (*elm.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil {
		return nil, fmt.Errorf("%w: no data", elm.ErrReceive)
	}
	msg := elm.NewMessage(t.pending)
	t.pending = nil
	return msg, nil
}

func (t *Transport) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
	return nil
}
