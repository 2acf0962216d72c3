package report

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"elmdiag/internal/scan"
)

// ErrSink marks a failure to open, write or close the report file.
var ErrSink = errors.New("report: output sink failure")

// Writer serializes readings to a text file, one "<name>, <value>" line
// per reading, in production order.
type Writer struct {
	f *os.File
	w *bufio.Writer
}

// Create opens (truncating) the report file. The caller must Close it
// exactly once, whether the sweep completes or aborts.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSink, err)
	}
	return &Writer{f: f, w: bufio.NewWriter(f)}, nil
}

// Record appends one reading.
func (w *Writer) Record(r scan.Reading) error {
	if _, err := fmt.Fprintf(w.w, "%s, %f\n", r.Name, r.Value); err != nil {
		return fmt.Errorf("%w: %v", ErrSink, err)
	}
	return nil
}

func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("%w: %v", ErrSink, err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrSink, err)
	}
	return nil
}
