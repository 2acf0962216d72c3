package scan

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"elmdiag/internal/elm"
	"elmdiag/internal/pid"
)

// fakeTransport scripts payloads per PID and can fail the n-th query at
// the send or receive step.
type fakeTransport struct {
	payloads   map[uint8][2]byte
	failSendAt int // 1-indexed query ordinal, 0 = never
	failRecvAt int
	sent       []uint8
	flushes    int
	pending    *elm.Message
}

func (f *fakeTransport) Connect(ctx context.Context) error { return nil }
func (f *fakeTransport) SetTimeout(time.Duration)          {}
func (f *fakeTransport) Close() error                      { return nil }
func (f *fakeTransport) Flush()                            { f.flushes++ }

func (f *fakeTransport) Send(mode, p uint8) error {
	f.sent = append(f.sent, p)
	if f.failSendAt == len(f.sent) {
		return fmt.Errorf("%w: write failed", elm.ErrSend)
	}
	payload := f.payloads[p]
	f.pending = elm.NewMessage([]byte{mode | 0x40, p, payload[0], payload[1]})
	return nil
}

func (f *fakeTransport) Receive() (*elm.Message, error) {
	if f.failRecvAt == len(f.sent) {
		return nil, fmt.Errorf("%w: timeout", elm.ErrReceive)
	}
	return f.pending, nil
}

func testCatalog() pid.Catalog {
	return pid.NewCatalog(
		pid.Definition{Code: 0x05, Name: "Engine Coolant Temperature", Width: 1, Unit: pid.Celsius},
		pid.Definition{Code: 0x0C, Name: "Engine Speed", Width: 2, Unit: pid.RPM, Rule: pid.DecodeRPM},
		pid.Definition{Code: 0x0D, Name: "Vehicle Speed", Width: 1, Unit: pid.KilometersPerHour},
	)
}

type recorded struct {
	readings []Reading
}

func (r *recorded) Record(reading Reading) error {
	r.readings = append(r.readings, reading)
	return nil
}

func TestSweep(t *testing.T) {
	tr := &fakeTransport{
		payloads: map[uint8][2]byte{
			0x05: {95, 0},
			0x0C: {0x1A, 0x2C},
			0x0D: {60, 0},
		},
	}
	rec := &recorded{}

	readings, err := NewDispatcher(testCatalog(), tr).Sweep(rec)
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}

	want := []Reading{
		{Name: "Engine Coolant Temperature", Value: 95},
		{Name: "Engine Speed", Value: 1675},
		{Name: "Vehicle Speed", Value: 60},
	}
	if len(readings) != len(want) {
		t.Fatalf("got %d readings, want %d", len(readings), len(want))
	}
	for i := range want {
		if readings[i] != want[i] {
			t.Errorf("readings[%d] = %+v, want %+v", i, readings[i], want[i])
		}
	}
	if len(rec.readings) != len(want) {
		t.Errorf("recorder saw %d readings, want %d", len(rec.readings), len(want))
	}
	if tr.flushes != len(want) {
		t.Errorf("transport flushed %d times, want once per query (%d)", tr.flushes, len(want))
	}
}

func TestSweepQueriesInCatalogOrder(t *testing.T) {
	tr := &fakeTransport{payloads: map[uint8][2]byte{}}
	if _, err := NewDispatcher(testCatalog(), tr).Sweep(nil); err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	wantSent := []uint8{0x05, 0x0C, 0x0D}
	for i, code := range wantSent {
		if tr.sent[i] != code {
			t.Errorf("sent[%d] = %#02x, want %#02x", i, tr.sent[i], code)
		}
	}
}

func TestSweepAbortsOnReceiveFailure(t *testing.T) {
	tr := &fakeTransport{
		payloads:   map[uint8][2]byte{0x05: {95, 0}},
		failRecvAt: 2,
	}
	rec := &recorded{}

	readings, err := NewDispatcher(testCatalog(), tr).Sweep(rec)
	if !errors.Is(err, elm.ErrReceive) {
		t.Fatalf("Sweep() error = %v, want ErrReceive", err)
	}
	if errors.Is(err, elm.ErrSend) {
		t.Error("receive failure must not also match ErrSend")
	}
	if len(readings) != 1 {
		t.Fatalf("got %d readings, want the 1 produced before the abort", len(readings))
	}
	if readings[0].Name != "Engine Coolant Temperature" || readings[0].Value != 95 {
		t.Errorf("readings[0] = %+v", readings[0])
	}
	if len(rec.readings) != 1 {
		t.Errorf("recorder saw %d readings, want 1", len(rec.readings))
	}
	// No further entries after the failing one.
	if len(tr.sent) != 2 {
		t.Errorf("sent %d requests, want 2", len(tr.sent))
	}
}

func TestSweepAbortsOnSendFailure(t *testing.T) {
	tr := &fakeTransport{
		payloads:   map[uint8][2]byte{},
		failSendAt: 1,
	}

	readings, err := NewDispatcher(testCatalog(), tr).Sweep(nil)
	if !errors.Is(err, elm.ErrSend) {
		t.Fatalf("Sweep() error = %v, want ErrSend", err)
	}
	if len(readings) != 0 {
		t.Errorf("got %d readings, want none", len(readings))
	}
}

func TestSweepSkipsInactiveEntries(t *testing.T) {
	catalog := pid.NewCatalog(
		pid.Definition{Code: 0x05, Name: "Engine Coolant Temperature", Width: 1},
		pid.Definition{Code: 0x0F, Name: "Intake Air Temperature"}, // placeholder
		pid.Definition{Code: 0x0D, Name: "Vehicle Speed", Width: 1},
	)
	tr := &fakeTransport{payloads: map[uint8][2]byte{
		0x05: {95, 0},
		0x0D: {60, 0},
	}}

	readings, err := NewDispatcher(catalog, tr).Sweep(nil)
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(readings))
	}
	for _, p := range tr.sent {
		if p == 0x0F {
			t.Error("inactive entry was queried")
		}
	}
}
