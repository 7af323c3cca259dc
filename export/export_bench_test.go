package export

import (
	"path/filepath"
	"testing"

	"github.com/dhcgn/maillog/model"
)

// BenchmarkWriter_Write benchmarks buffered record writes
func BenchmarkWriter_Write(b *testing.B) {
	benchmarkWrite(b, "records.jsonl")
}

// BenchmarkWriter_WriteGzip benchmarks record writes through the gzip stream
func BenchmarkWriter_WriteGzip(b *testing.B) {
	benchmarkWrite(b, "records.jsonl.gz")
}

func benchmarkWrite(b *testing.B, name string) {
	w, err := NewWriter(filepath.Join(b.TempDir(), name))
	if err != nil {
		b.Fatal(err)
	}
	defer w.Close()

	record := qmgrRecord(b, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		record.Line = i
		if err := w.Write(record); err != nil {
			b.Fatal(err)
		}
	}
	b.StopTimer()

	if err := w.Close(); err != nil {
		b.Fatal(err)
	}
}

// BenchmarkLoad benchmarks reading back an export of 10000 records
func BenchmarkLoad(b *testing.B) {
	path := filepath.Join(b.TempDir(), "records.jsonl")
	w, err := NewWriter(path)
	if err != nil {
		b.Fatal(err)
	}
	record := qmgrRecord(b, 1)
	for i := 0; i < 10000; i++ {
		record.Line = i
		if err := w.Write(record); err != nil {
			b.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := 0
		if err := Load(path, func(model.Record) error {
			n++
			return nil
		}); err != nil {
			b.Fatal(err)
		}
		if n != 10000 {
			b.Fatalf("loaded %d records", n)
		}
	}
}
