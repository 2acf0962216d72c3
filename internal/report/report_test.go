package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"elmdiag/internal/scan"
)

func TestWriterFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carstats.csv")

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	readings := []scan.Reading{
		{Name: "Engine Coolant Temperature", Value: 95},
		{Name: "Engine Speed", Value: 1675},
		{Name: "Vehicle Speed", Value: 60},
	}
	for _, r := range readings {
		if err := w.Record(r); err != nil {
			t.Fatalf("Record(%+v) error: %v", r, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "Engine Coolant Temperature, 95.000000\n" +
		"Engine Speed, 1675.000000\n" +
		"Vehicle Speed, 60.000000\n"
	if string(got) != want {
		t.Errorf("report = %q, want %q", got, want)
	}
}

func TestWriterEmptySweep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carstats.csv")

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("empty sweep produced %q, want an empty file", got)
	}
}

func TestCreateFailureIsSinkError(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "no", "such", "dir", "out.csv"))
	if !errors.Is(err, ErrSink) {
		t.Errorf("Create() error = %v, want ErrSink", err)
	}
}
