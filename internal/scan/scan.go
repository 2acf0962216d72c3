package scan

import (
	"fmt"

	"elmdiag/internal/elm"
	"elmdiag/internal/pid"
	"elmdiag/pkg/log"

	"go.uber.org/zap"
)

// Reading is one decoded parameter value.
type Reading struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Recorder receives readings as they are produced, so an aborted sweep
// still leaves the prefix behind.
type Recorder interface {
	Record(Reading) error
}

// Dispatcher runs one acquisition sweep over the active catalog entries.
type Dispatcher struct {
	catalog   pid.Catalog
	transport elm.Transport
}

func NewDispatcher(catalog pid.Catalog, transport elm.Transport) *Dispatcher {
	return &Dispatcher{
		catalog:   catalog,
		transport: transport,
	}
}

// Sweep queries every active catalog entry once, in catalog order. Each
// decoded reading is handed to rec (if non-nil) before the next request
// is issued. The first transport failure aborts the sweep: readings
// already produced are returned alongside the error, and the error
// wraps elm.ErrSend or elm.ErrReceive so the caller can tell which step
// failed. No entry is retried.
func (d *Dispatcher) Sweep(rec Recorder) ([]Reading, error) {
	var readings []Reading

	for _, def := range d.catalog.Active() {
		log.Debug("querying", zap.String("pid", def.String()), zap.String("name", def.Name))

		if err := d.transport.Send(elm.ModeCurrentData, def.Code); err != nil {
			return readings, fmt.Errorf("query %s: %w", def.String(), err)
		}

		msg, err := d.transport.Receive()
		if err != nil {
			return readings, fmt.Errorf("query %s: %w", def.String(), err)
		}
		a, b := msg.PayloadA(), msg.PayloadB()
		msg.Release()

		r := Reading{Name: def.Name, Value: def.Decode(a, b)}
		readings = append(readings, r)
		log.Debug("decoded", zap.String("name", r.Name), zap.Float64("value", r.Value))

		if rec != nil {
			if err := rec.Record(r); err != nil {
				return readings, err
			}
		}

		d.transport.Flush()
	}

	return readings, nil
}
